package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/dhiway/starter-kit/internal/blobstore"
	"github.com/dhiway/starter-kit/internal/config"
	"github.com/dhiway/starter-kit/internal/docs"
	"github.com/dhiway/starter-kit/internal/models"
	"github.com/dhiway/starter-kit/internal/replica"
)

// withService opens the local node (replica database plus blob store) for
// the duration of one command.
func withService(cfg *config.Config, fn func(ctx context.Context, svc *docs.Service) error) error {
	ctx := context.Background()

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	store, err := replica.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open document store: %w", err)
	}
	defer store.Close()

	blobs, err := newBlobStore(ctx, cfg)
	if err != nil {
		return err
	}

	svc := docs.NewService(store, blobs, slog.Default(), docs.Options{
		ShareAddrs:  cfg.Node.Addrs,
		RelayURL:    cfg.Node.RelayURL,
		ReadRetries: cfg.ReadRetries,
	})
	defer svc.Close()

	return fn(ctx, svc)
}

// withDocument additionally opens a handle on the document named on the
// command line.
func withDocument(cfg *config.Config, rawID string, fn func(ctx context.Context, svc *docs.Service, handle *docs.Handle) error) error {
	return withService(cfg, func(ctx context.Context, svc *docs.Service) error {
		id, err := models.ParseDocumentID(rawID)
		if err != nil {
			return err
		}
		handle, err := svc.Open(ctx, id)
		if err != nil {
			return err
		}
		defer handle.Close()
		return fn(ctx, svc, handle)
	})
}

func newBlobStore(ctx context.Context, cfg *config.Config) (blobstore.BlobStore, error) {
	switch cfg.Blobs.Backend {
	case "s3":
		return blobstore.NewS3Store(ctx, blobstore.S3Config{
			Region:          cfg.Blobs.Region,
			Bucket:          cfg.Blobs.Bucket,
			Endpoint:        cfg.Blobs.Endpoint,
			AccessKeyID:     cfg.Blobs.AccessKey,
			SecretAccessKey: cfg.Blobs.SecretKey,
		})
	default:
		return blobstore.NewLocalCAS(cfg.BlobDir(), cfg.Blobs.Compress)
	}
}

// resolveAuthor picks the author for a write: the --author flag when given,
// the configured default_author otherwise.
func resolveAuthor(cfg *config.Config, flagValue string) (models.AuthorID, error) {
	raw := strings.TrimSpace(flagValue)
	if raw == "" {
		raw = strings.TrimSpace(cfg.DefaultAuthor)
	}
	if raw == "" {
		return models.AuthorID{}, errors.New("author is required: pass --author or set default_author in the config")
	}
	return models.ParseAuthorID(raw)
}
