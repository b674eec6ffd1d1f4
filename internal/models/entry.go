package models

import (
	"encoding/hex"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/crypto/blake2b"
)

// HashSize is the byte length of content digests.
const HashSize = 32

// ReservedSchemaKey is the entry key reserved for schema storage. Regular
// writes to it are rejected so the schema slot cannot be clobbered.
const ReservedSchemaKey = "schema"

// Hash is a BLAKE2b-256 content digest.
type Hash [HashSize]byte

// HashOf digests content the same way the blob store addresses it.
func HashOf(data []byte) Hash {
	return Hash(blake2b.Sum256(data))
}

var emptyHash = HashOf(nil)

// EmptyHash is the digest of zero-length content, used by tombstones.
func EmptyHash() Hash {
	return emptyHash
}

// String renders the digest as 64 lowercase hex digits.
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

func (h Hash) IsZero() bool {
	return h == Hash{}
}

// ParseHash decodes a 64-digit hex digest.
func ParseHash(raw string) (Hash, error) {
	var h Hash
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return h, fmt.Errorf("hash is required")
	}
	decoded, err := hex.DecodeString(raw)
	if err != nil {
		return h, fmt.Errorf("hash is not valid hex: %w", err)
	}
	if len(decoded) != HashSize {
		return h, fmt.Errorf("hash must encode %d bytes, got %d", HashSize, len(decoded))
	}
	copy(h[:], decoded)
	return h, nil
}

func (h Hash) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

func (h *Hash) UnmarshalText(text []byte) error {
	parsed, err := ParseHash(string(text))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

// EntryID addresses an entry: one live record exists per (doc, author, key).
type EntryID struct {
	Doc    DocumentID `json:"doc"`
	Key    string     `json:"key"`
	Author AuthorID   `json:"author"`
}

// Record is the stored value of an entry: a content pointer plus the
// last-write-wins timestamp in microseconds.
type Record struct {
	Hash      Hash   `json:"hash"`
	Len       uint64 `json:"len"`
	Timestamp uint64 `json:"timestamp"`
}

// Entry is one (author, key) record within a document.
type Entry struct {
	ID     EntryID `json:"namespace"`
	Record Record  `json:"record"`
}

// IsEmpty reports whether the entry is a deletion marker.
func (e Entry) IsEmpty() bool {
	return e.Record.Len == 0 && e.Record.Hash == emptyHash
}

// Tombstone builds the deletion marker record for an entry.
func Tombstone(id EntryID, timestamp uint64) Entry {
	return Entry{
		ID: id,
		Record: Record{
			Hash:      emptyHash,
			Len:       0,
			Timestamp: timestamp,
		},
	}
}

// ValidateKey enforces the key grammar: non-empty, no whitespace anywhere.
func ValidateKey(key string) error {
	if key == "" {
		return fmt.Errorf("key is required")
	}
	if strings.ContainsFunc(key, unicode.IsSpace) {
		return fmt.Errorf("key must not contain whitespace")
	}
	return nil
}

// EventKind classifies live entry notifications.
type EventKind string

const (
	EventInsertLocal  EventKind = "insert_local"
	EventInsertRemote EventKind = "insert_remote"
)

// EntryEvent is delivered to document subscribers on every accepted write.
type EntryEvent struct {
	Kind  EventKind `json:"kind"`
	Entry Entry     `json:"entry"`
}
