package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/blake2b"

	"github.com/dhiway/starter-kit/internal/models"
)

const casAlgorithmPrefix = "blake2b"

// LocalCAS stores blob bytes in a local content-addressed tree.
type LocalCAS struct {
	root     string
	compress bool
}

// NewLocalCAS creates a local CAS rooted at root. With compress set, new
// objects are stored zstd-compressed; Open handles both forms either way.
func NewLocalCAS(root string, compress bool) (*LocalCAS, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, fmt.Errorf("local cas root is required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Join(abs, "tmp"), 0o755); err != nil {
		return nil, err
	}
	return &LocalCAS{root: abs, compress: compress}, nil
}

// Put streams bytes, computes the content digest, and stores the compressed
// payload under it. Re-adding existing content is a no-op.
func (c *LocalCAS) Put(ctx context.Context, r io.Reader) (PutResult, error) {
	var zero PutResult
	if c == nil {
		return zero, fmt.Errorf("blob store is not configured")
	}
	if r == nil {
		return zero, fmt.Errorf("reader is required")
	}
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	tmp, err := os.CreateTemp(filepath.Join(c.root, "tmp"), "put-*")
	if err != nil {
		return zero, err
	}
	tmpPath := tmp.Name()
	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}

	hasher, err := blake2b.New256(nil)
	if err != nil {
		cleanup()
		return zero, err
	}

	var n int64
	if c.compress {
		if _, err := tmp.Write([]byte{blobFormatZstd}); err != nil {
			cleanup()
			return zero, err
		}
		zw, err := newCompressor(tmp)
		if err != nil {
			cleanup()
			return zero, err
		}
		n, err = io.Copy(io.MultiWriter(zw, hasher), r)
		if err != nil {
			cleanup()
			return zero, err
		}
		if err := zw.Close(); err != nil {
			cleanup()
			return zero, err
		}
	} else {
		if _, err := tmp.Write([]byte{blobFormatRaw}); err != nil {
			cleanup()
			return zero, err
		}
		n, err = io.Copy(io.MultiWriter(tmp, hasher), r)
		if err != nil {
			cleanup()
			return zero, err
		}
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return zero, err
	}

	var hash models.Hash
	copy(hash[:], hasher.Sum(nil))
	result := PutResult{Hash: hash, Size: uint64(n)}

	dst := filepath.Join(c.root, filepath.FromSlash(casKey(hash)))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		cleanup()
		return zero, err
	}

	if _, err := os.Stat(dst); err == nil {
		_ = os.Remove(tmpPath)
		return result, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		cleanup()
		return zero, err
	}

	if err := os.Rename(tmpPath, dst); err != nil {
		if _, statErr := os.Stat(dst); statErr == nil {
			_ = os.Remove(tmpPath)
			return result, nil
		}
		cleanup()
		return zero, err
	}

	return result, nil
}

// PutFile imports a regular file from the local filesystem.
func (c *LocalCAS) PutFile(ctx context.Context, path string) (PutResult, error) {
	return putFile(ctx, c, path)
}

// Open returns a plaintext reader for the blob content.
func (c *LocalCAS) Open(ctx context.Context, hash models.Hash) (io.ReadCloser, error) {
	if c == nil {
		return nil, fmt.Errorf("blob store is not configured")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	file, err := os.Open(c.pathFor(hash))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, hash)
		}
		return nil, err
	}
	var header [1]byte
	if _, err := io.ReadFull(file, header[:]); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("blob %s has no format header: %w", hash, err)
	}
	switch header[0] {
	case blobFormatRaw:
		return file, nil
	case blobFormatZstd:
		return newDecompressReader(file)
	default:
		_ = file.Close()
		return nil, fmt.Errorf("blob %s has unknown format tag %d", hash, header[0])
	}
}

// Has reports whether content with the digest is stored.
func (c *LocalCAS) Has(ctx context.Context, hash models.Hash) (bool, error) {
	if c == nil {
		return false, fmt.Errorf("blob store is not configured")
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if _, err := os.Stat(c.pathFor(hash)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Delete removes a blob object. Missing objects are ignored.
func (c *LocalCAS) Delete(ctx context.Context, hash models.Hash) error {
	if c == nil {
		return fmt.Errorf("blob store is not configured")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.Remove(c.pathFor(hash)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func casKey(hash models.Hash) string {
	digest := hash.String()
	return fmt.Sprintf("%s/%s/%s/%s", casAlgorithmPrefix, digest[0:2], digest[2:4], digest)
}

func (c *LocalCAS) pathFor(hash models.Hash) string {
	return filepath.Join(c.root, filepath.FromSlash(casKey(hash)))
}
