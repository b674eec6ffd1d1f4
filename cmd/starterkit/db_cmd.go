package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dhiway/starter-kit/internal/config"
	"github.com/dhiway/starter-kit/internal/replica"
)

func newDBCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Inspect the local document database",
	}

	cmd.AddCommand(newDBStatusCmd(cfg, jsonOutput))
	return cmd
}

func newDBStatusCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show schema migration status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Opening applies pending migrations, same as any other command.
			store, err := replica.Open(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("open document store: %w", err)
			}
			defer store.Close()

			plan, err := store.MigrationPlan()
			if err != nil {
				return fmt.Errorf("inspect migrations: %w", err)
			}

			if *jsonOutput {
				return writeJSON(plan)
			}

			_ = writePlain("Current version: %d\n", plan.CurrentVersion)
			_ = writePlain("Available version: %d\n", plan.AvailableVersion)
			if len(plan.Pending) == 0 {
				return writePlain("No pending migrations.\n")
			}
			_ = writePlain("Pending migrations: %d\n", len(plan.Pending))
			for _, m := range plan.Pending {
				_ = writePlain("  %d: %s\n", m.Version, m.Description)
			}
			return nil
		},
	}
}
