package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/dhiway/starter-kit/internal/config"
)

func TestDBStatusReportsAppliedMigrations(t *testing.T) {
	cfg := config.Default()
	cfg.DBPath = filepath.Join(t.TempDir(), "docs.db")

	jsonOutput := false
	cmd := newDBStatusCmd(&cfg, &jsonOutput)
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("execute db status: %v", err)
	}
}
