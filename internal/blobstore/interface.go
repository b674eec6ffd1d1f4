// Package blobstore stores entry content addressed by its BLAKE2b-256
// digest. Bytes are zstd-compressed at rest; digests are always computed
// over the uncompressed content.
package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/dhiway/starter-kit/internal/models"
)

// ErrNotFound is returned when no blob exists for a digest.
var ErrNotFound = errors.New("blob not found")

// PutResult describes one persisted blob payload.
type PutResult struct {
	Hash models.Hash
	Size uint64
}

// BlobStore is the byte-storage abstraction under the document layer.
type BlobStore interface {
	Put(ctx context.Context, r io.Reader) (PutResult, error)
	PutFile(ctx context.Context, path string) (PutResult, error)
	Open(ctx context.Context, hash models.Hash) (io.ReadCloser, error)
	Has(ctx context.Context, hash models.Hash) (bool, error)
	Delete(ctx context.Context, hash models.Hash) error
}

// putFile streams a regular file into a store. Both backends share the
// same path checks.
func putFile(ctx context.Context, store BlobStore, path string) (PutResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return PutResult{}, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return PutResult{}, err
	}
	if info.IsDir() {
		return PutResult{}, fmt.Errorf("%s is a directory: %w", path, fs.ErrInvalid)
	}
	return store.Put(ctx, f)
}
