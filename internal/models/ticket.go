package models

import (
	"encoding/base64"
	"fmt"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
)

const (
	ticketPrefix  = "doc"
	ticketVersion = 1
)

// Ticket is a redeemable document invitation. The text form is the "doc"
// prefix followed by the base64url payload, so tickets survive copy/paste
// through URLs and shells.
type Ticket struct {
	Version int        `json:"v"`
	Doc     DocumentID `json:"id"`
	Mode    ShareMode  `json:"mode"`
	Nonce   string     `json:"nonce"`
	Addrs   []string   `json:"addrs,omitempty"`
}

// NewTicket builds a ticket for one document with a fresh nonce.
func NewTicket(doc DocumentID, mode ShareMode, addrs []string) Ticket {
	return Ticket{
		Version: ticketVersion,
		Doc:     doc,
		Mode:    mode,
		Nonce:   uuid.NewString(),
		Addrs:   addrs,
	}
}

// Encode renders the shareable text form.
func (t Ticket) Encode() (string, error) {
	payload, err := json.Marshal(t)
	if err != nil {
		return "", fmt.Errorf("encode ticket: %w", err)
	}
	return ticketPrefix + base64.RawURLEncoding.EncodeToString(payload), nil
}

// DecodeTicket parses and validates the text form produced by Encode.
func DecodeTicket(raw string) (Ticket, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Ticket{}, fmt.Errorf("ticket is required")
	}
	if !strings.HasPrefix(raw, ticketPrefix) {
		return Ticket{}, fmt.Errorf("ticket must start with %q", ticketPrefix)
	}
	payload, err := base64.RawURLEncoding.DecodeString(raw[len(ticketPrefix):])
	if err != nil {
		return Ticket{}, fmt.Errorf("ticket payload is not valid base64: %w", err)
	}
	var t Ticket
	if err := json.Unmarshal(payload, &t); err != nil {
		return Ticket{}, fmt.Errorf("ticket payload is not valid JSON: %w", err)
	}
	if t.Version != ticketVersion {
		return Ticket{}, fmt.Errorf("unsupported ticket version %d", t.Version)
	}
	if _, ok := validShareModes[t.Mode]; !ok {
		return Ticket{}, fmt.Errorf("ticket has invalid mode %q", t.Mode)
	}
	if t.Doc.IsZero() {
		return Ticket{}, fmt.Errorf("ticket has no document id")
	}
	return t, nil
}
