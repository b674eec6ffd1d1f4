package models

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
)

// IDSize is the byte length of document and author identifiers.
const IDSize = 32

// DocumentID identifies a replicated document (its keyspace namespace).
type DocumentID [IDSize]byte

// AuthorID identifies a writer within a document.
type AuthorID [IDSize]byte

// Capability defines what a document handle is allowed to do.
type Capability string

const (
	CapabilityWrite Capability = "write"
	CapabilityRead  Capability = "read"
)

// ShareMode selects the capability embedded in a sharing ticket.
type ShareMode string

const (
	ShareModeRead  ShareMode = "read"
	ShareModeWrite ShareMode = "write"
)

// AddrOption selects which addressing details a sharing ticket carries.
type AddrOption string

const (
	AddrOptionID                AddrOption = "id"
	AddrOptionRelay             AddrOption = "relay"
	AddrOptionRelayAndAddresses AddrOption = "relay_and_addresses"
	AddrOptionAddresses         AddrOption = "addresses"
)

// DocumentStatus is the point-in-time state of an open document.
type DocumentStatus struct {
	ID              DocumentID `json:"doc_id"`
	Capability      Capability `json:"capability"`
	SyncEnabled     bool       `json:"sync"`
	SubscriberCount int        `json:"subscriber_count"`
	HandleCount     int        `json:"handle_count"`
}

var validCapabilities = map[Capability]struct{}{
	CapabilityWrite: {},
	CapabilityRead:  {},
}

var validShareModes = map[ShareMode]struct{}{
	ShareModeRead:  {},
	ShareModeWrite: {},
}

var validAddrOptions = map[AddrOption]struct{}{
	AddrOptionID:                {},
	AddrOptionRelay:             {},
	AddrOptionRelayAndAddresses: {},
	AddrOptionAddresses:         {},
}

// AllowsWrite reports whether the capability permits mutations.
func (c Capability) AllowsWrite() bool {
	return c == CapabilityWrite
}

func IsValidCapability(c Capability) bool {
	_, ok := validCapabilities[c]
	return ok
}

func ParseShareMode(raw string) (ShareMode, error) {
	value := ShareMode(strings.ToLower(strings.TrimSpace(raw)))
	if value == "" {
		return "", fmt.Errorf("share mode is required")
	}
	if _, ok := validShareModes[value]; !ok {
		return "", fmt.Errorf("invalid share mode: %s", value)
	}
	return value, nil
}

// Capability maps the share mode to the capability a redeemed ticket grants.
func (m ShareMode) Capability() Capability {
	if m == ShareModeWrite {
		return CapabilityWrite
	}
	return CapabilityRead
}

func ParseAddrOption(raw string) (AddrOption, error) {
	value := AddrOption(strings.ToLower(strings.TrimSpace(raw)))
	if value == "" {
		return AddrOptionRelayAndAddresses, nil
	}
	if _, ok := validAddrOptions[value]; !ok {
		return "", fmt.Errorf("invalid addr option: %s", value)
	}
	return value, nil
}

// NewDocumentID returns a fresh random document identifier.
func NewDocumentID() (DocumentID, error) {
	var id DocumentID
	if _, err := rand.Read(id[:]); err != nil {
		return DocumentID{}, fmt.Errorf("generate document id: %w", err)
	}
	return id, nil
}

// String renders the canonical text form: "d" followed by 64 hex digits.
func (id DocumentID) String() string {
	return "d" + hex.EncodeToString(id[:])
}

func (id DocumentID) IsZero() bool {
	return id == DocumentID{}
}

// ParseDocumentID decodes the canonical "d<hex>" text form.
func ParseDocumentID(raw string) (DocumentID, error) {
	var id DocumentID
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return id, fmt.Errorf("document id is required")
	}
	if !strings.HasPrefix(raw, "d") {
		return id, fmt.Errorf("document id must start with 'd'")
	}
	decoded, err := hex.DecodeString(raw[1:])
	if err != nil {
		return id, fmt.Errorf("document id is not valid hex: %w", err)
	}
	if len(decoded) != IDSize {
		return id, fmt.Errorf("document id must encode %d bytes, got %d", IDSize, len(decoded))
	}
	copy(id[:], decoded)
	return id, nil
}

func (id DocumentID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func (id *DocumentID) UnmarshalText(text []byte) error {
	parsed, err := ParseDocumentID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// NewAuthorID returns a fresh random author identifier.
func NewAuthorID() (AuthorID, error) {
	var id AuthorID
	if _, err := rand.Read(id[:]); err != nil {
		return AuthorID{}, fmt.Errorf("generate author id: %w", err)
	}
	return id, nil
}

// String renders the canonical text form: "a" followed by 64 hex digits.
func (id AuthorID) String() string {
	return "a" + hex.EncodeToString(id[:])
}

func (id AuthorID) IsZero() bool {
	return id == AuthorID{}
}

// ParseAuthorID decodes the canonical "a<hex>" text form.
func ParseAuthorID(raw string) (AuthorID, error) {
	var id AuthorID
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return id, fmt.Errorf("author id is required")
	}
	if !strings.HasPrefix(raw, "a") {
		return id, fmt.Errorf("author id must start with 'a'")
	}
	decoded, err := hex.DecodeString(raw[1:])
	if err != nil {
		return id, fmt.Errorf("author id is not valid hex: %w", err)
	}
	if len(decoded) != IDSize {
		return id, fmt.Errorf("author id must encode %d bytes, got %d", IDSize, len(decoded))
	}
	copy(id[:], decoded)
	return id, nil
}

func (id AuthorID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func (id *AuthorID) UnmarshalText(text []byte) error {
	parsed, err := ParseAuthorID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
