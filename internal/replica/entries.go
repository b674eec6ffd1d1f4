package replica

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"

	"github.com/zeebo/xxh3"

	"github.com/dhiway/starter-kit/internal/models"
)

// PutEntry upserts one entry under last-write-wins: the row is written only
// when its timestamp is newer than the stored one. It reports whether the
// write landed.
func (s *Store) PutEntry(ctx context.Context, entry models.Entry) (bool, error) {
	if entry.ID.Doc.IsZero() {
		return false, fmt.Errorf("entry document id is required")
	}
	if entry.ID.Key == "" {
		return false, fmt.Errorf("entry key is required")
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO entries (namespace_id, author_id, key, hash, len, timestamp, empty, checksum)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (namespace_id, author_id, key) DO UPDATE SET
			hash = excluded.hash,
			len = excluded.len,
			timestamp = excluded.timestamp,
			empty = excluded.empty,
			checksum = excluded.checksum
		WHERE excluded.timestamp > entries.timestamp
	`, entryRowArgs(entry)...)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// GetEntry returns the record stored for (author, key), or (nil, nil) when
// absent. Tombstones count as absent unless includeEmpty is set.
func (s *Store) GetEntry(ctx context.Context, id models.DocumentID, author models.AuthorID, key string, includeEmpty bool) (*models.Entry, error) {
	query := `
		SELECT namespace_id, author_id, key, hash, len, timestamp, checksum
		FROM entries WHERE namespace_id = ? AND author_id = ? AND key = ?
	`
	if !includeEmpty {
		query += " AND empty = 0"
	}
	row := s.db.QueryRowContext(ctx, query, id.String(), author.String(), key)
	entry, err := scanEntry(row)
	if err != nil || entry == nil {
		return nil, err
	}
	return entry, nil
}

// ScanEntries returns entries matching the filter in storage order
// (key, then author).
func (s *Store) ScanEntries(ctx context.Context, id models.DocumentID, filter ScanFilter) ([]models.Entry, error) {
	query, args := buildScanQuery(id, filter)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	return entries, rows.Err()
}

// DeleteEntries tombstones every live entry of the author whose key starts
// with prefix, all at the same timestamp. An empty prefix matches all of the
// author's entries. It returns the keys that were tombstoned; keys whose
// stored timestamp already passed the given one are skipped.
func (s *Store) DeleteEntries(ctx context.Context, id models.DocumentID, author models.AuthorID, prefix string, timestamp uint64) (deleted []string, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	rows, err := tx.QueryContext(ctx, `
		SELECT key FROM entries
		WHERE namespace_id = ? AND author_id = ? AND substr(key, 1, length(?)) = ? AND empty = 0
		ORDER BY key ASC
	`, id.String(), author.String(), prefix, prefix)
	if err != nil {
		return nil, err
	}
	var keys []string
	for rows.Next() {
		var key string
		if err = rows.Scan(&key); err != nil {
			rows.Close()
			return nil, err
		}
		keys = append(keys, key)
	}
	rows.Close()
	if err = rows.Err(); err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return nil, tx.Commit()
	}

	stmt, err := tx.PrepareContext(ctx, `
		UPDATE entries SET hash = ?, len = 0, timestamp = ?, empty = 1, checksum = ?
		WHERE namespace_id = ? AND author_id = ? AND key = ? AND timestamp < ?
	`)
	if err != nil {
		return nil, err
	}
	defer stmt.Close()

	for _, key := range keys {
		tomb := models.Tombstone(models.EntryID{Doc: id, Key: key, Author: author}, timestamp)
		res, execErr := stmt.ExecContext(ctx,
			tomb.Record.Hash.String(),
			int64(timestamp),
			int64(entryChecksum(tomb)),
			id.String(),
			author.String(),
			key,
			int64(timestamp),
		)
		if execErr != nil {
			err = execErr
			return nil, err
		}
		affected, execErr := res.RowsAffected()
		if execErr != nil {
			err = execErr
			return nil, err
		}
		if affected > 0 {
			deleted = append(deleted, key)
		}
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}
	return deleted, nil
}

// CountLiveEntries returns the number of non-tombstone entries in a namespace.
func (s *Store) CountLiveEntries(ctx context.Context, id models.DocumentID) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM entries WHERE namespace_id = ? AND empty = 0", id.String(),
	).Scan(&count)
	return count, err
}

// MaxTimestamp returns the newest stored timestamp for (namespace, author),
// or 0 when the author has no entries. Write clocks resume from here after
// a reopen.
func (s *Store) MaxTimestamp(ctx context.Context, id models.DocumentID, author models.AuthorID) (uint64, error) {
	var ts int64
	err := s.db.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(timestamp), 0) FROM entries WHERE namespace_id = ? AND author_id = ?",
		id.String(), author.String(),
	).Scan(&ts)
	return uint64(ts), err
}

func scanEntry(row rowScanner) (*models.Entry, error) {
	var (
		namespaceID string
		authorID    string
		key         string
		hashText    string
		length      int64
		timestamp   int64
		checksum    int64
	)
	if err := row.Scan(&namespaceID, &authorID, &key, &hashText, &length, &timestamp, &checksum); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	doc, err := models.ParseDocumentID(namespaceID)
	if err != nil {
		return nil, fmt.Errorf("entry row %s/%s: %w", namespaceID, key, err)
	}
	author, err := models.ParseAuthorID(authorID)
	if err != nil {
		return nil, fmt.Errorf("entry row %s/%s: %w", namespaceID, key, err)
	}
	hash, err := models.ParseHash(hashText)
	if err != nil {
		return nil, fmt.Errorf("entry row %s/%s: %w", namespaceID, key, err)
	}

	entry := models.Entry{
		ID:     models.EntryID{Doc: doc, Key: key, Author: author},
		Record: models.Record{Hash: hash, Len: uint64(length), Timestamp: uint64(timestamp)},
	}
	if entryChecksum(entry) != uint64(checksum) {
		return nil, fmt.Errorf("%w: %s key %q author %s", ErrCorrupt, namespaceID, key, authorID)
	}
	return &entry, nil
}

func entryRowArgs(entry models.Entry) []any {
	empty := 0
	if entry.IsEmpty() {
		empty = 1
	}
	return []any{
		entry.ID.Doc.String(),
		entry.ID.Author.String(),
		entry.ID.Key,
		entry.Record.Hash.String(),
		int64(entry.Record.Len),
		int64(entry.Record.Timestamp),
		empty,
		int64(entryChecksum(entry)),
	}
}

// entryChecksum digests the full row so silent storage corruption surfaces
// as ErrCorrupt on read instead of as wrong data.
func entryChecksum(entry models.Entry) uint64 {
	buf := make([]byte, 0, 2*models.IDSize+len(entry.ID.Key)+models.HashSize+16)
	buf = append(buf, entry.ID.Doc[:]...)
	buf = append(buf, entry.ID.Author[:]...)
	buf = append(buf, entry.ID.Key...)
	buf = append(buf, 0)
	buf = append(buf, entry.Record.Hash[:]...)
	buf = binary.BigEndian.AppendUint64(buf, entry.Record.Len)
	buf = binary.BigEndian.AppendUint64(buf, entry.Record.Timestamp)
	return xxh3.Hash(buf)
}
