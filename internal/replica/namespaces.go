package replica

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	json "github.com/goccy/go-json"

	"github.com/dhiway/starter-kit/internal/models"
)

// CreateNamespace inserts the root record for a new document.
func (s *Store) CreateNamespace(ctx context.Context, ns Namespace) error {
	if ns.ID.IsZero() {
		return fmt.Errorf("namespace id is required")
	}
	if !models.IsValidCapability(ns.Capability) {
		return fmt.Errorf("invalid capability %q", ns.Capability)
	}
	policy := ns.Policy
	if policy.Kind == "" {
		policy = models.DefaultDownloadPolicy()
	}
	policyJSON, err := json.Marshal(policy)
	if err != nil {
		return fmt.Errorf("encode policy: %w", err)
	}
	createdAt := ns.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO namespaces (id, capability, schema_text, schema_hash, policy, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		ns.ID.String(),
		string(ns.Capability),
		nullIfEmpty(ns.SchemaText),
		nullIfEmpty(schemaHashText(ns)),
		string(policyJSON),
		formatTime(createdAt),
	)
	return err
}

// GetNamespace returns a namespace by id, or (nil, nil) when absent.
func (s *Store) GetNamespace(ctx context.Context, id models.DocumentID) (*Namespace, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, capability, schema_text, schema_hash, policy, created_at
		FROM namespaces WHERE id = ?
	`, id.String())
	return scanNamespace(row)
}

// ListNamespaces returns all namespaces ordered by creation time.
func (s *Store) ListNamespaces(ctx context.Context) ([]Namespace, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, capability, schema_text, schema_hash, policy, created_at
		FROM namespaces ORDER BY created_at ASC, id ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var namespaces []Namespace
	for rows.Next() {
		ns, err := scanNamespace(rows)
		if err != nil {
			return nil, err
		}
		namespaces = append(namespaces, *ns)
	}
	return namespaces, rows.Err()
}

// DeleteNamespace removes a namespace and, via cascade, all its entries.
// It reports whether a namespace row existed.
func (s *Store) DeleteNamespace(ctx context.Context, id models.DocumentID) (bool, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM namespaces WHERE id = ?", id.String())
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// SetCapability replaces the capability held for a namespace. Joining with a
// write ticket upgrades a read-only namespace through here.
func (s *Store) SetCapability(ctx context.Context, id models.DocumentID, capability models.Capability) error {
	if !models.IsValidCapability(capability) {
		return fmt.Errorf("invalid capability %q", capability)
	}
	res, err := s.db.ExecContext(ctx, "UPDATE namespaces SET capability = ? WHERE id = ?", string(capability), id.String())
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// SetSchema attaches a schema to a namespace. The update only lands when no
// schema is present yet, so the slot stays write-once even under races.
func (s *Store) SetSchema(ctx context.Context, id models.DocumentID, schemaText string, schemaHash models.Hash) (bool, error) {
	if schemaText == "" {
		return false, fmt.Errorf("schema text is required")
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE namespaces SET schema_text = ?, schema_hash = ?
		WHERE id = ? AND schema_text IS NULL
	`, schemaText, schemaHash.String(), id.String())
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// SetDownloadPolicy replaces the namespace download policy.
func (s *Store) SetDownloadPolicy(ctx context.Context, id models.DocumentID, policy models.DownloadPolicy) error {
	if err := policy.Validate(); err != nil {
		return err
	}
	policyJSON, err := json.Marshal(policy)
	if err != nil {
		return fmt.Errorf("encode policy: %w", err)
	}
	res, err := s.db.ExecContext(ctx, "UPDATE namespaces SET policy = ? WHERE id = ?", string(policyJSON), id.String())
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNamespace(row rowScanner) (*Namespace, error) {
	var (
		ns         Namespace
		id         string
		capability string
		schemaText sql.NullString
		schemaHash sql.NullString
		policyJSON string
		createdAt  string
	)
	if err := row.Scan(&id, &capability, &schemaText, &schemaHash, &policyJSON, &createdAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	parsedID, err := models.ParseDocumentID(id)
	if err != nil {
		return nil, fmt.Errorf("namespace row %s: %w", id, err)
	}
	ns.ID = parsedID
	ns.Capability = models.Capability(capability)
	ns.SchemaText = schemaText.String
	if schemaHash.Valid && schemaHash.String != "" {
		hash, err := models.ParseHash(schemaHash.String)
		if err != nil {
			return nil, fmt.Errorf("namespace row %s: %w", id, err)
		}
		ns.SchemaHash = hash
	}
	if err := json.Unmarshal([]byte(policyJSON), &ns.Policy); err != nil {
		return nil, fmt.Errorf("namespace row %s: decode policy: %w", id, err)
	}
	parsedCreated, err := parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("namespace row %s: %w", id, err)
	}
	ns.CreatedAt = parsedCreated

	return &ns, nil
}

func schemaHashText(ns Namespace) string {
	if ns.SchemaHash.IsZero() {
		return ""
	}
	return ns.SchemaHash.String()
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339Nano, value)
}
