package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dhiway/starter-kit/internal/config"
)

func newRootCmd(cfg *config.Config) *cobra.Command {
	var jsonOutput bool
	var logLevel string

	cmd := &cobra.Command{
		Use:   "starterkit",
		Short: "Starterkit manages schema-aware collaborative documents on a local node",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			warning, err := configureLoggerForCLI(logLevel, cfg.LogLevel)
			if err != nil {
				return err
			}
			if warning != "" {
				fmt.Fprintln(os.Stderr, warning)
			}
			return nil
		},
	}

	cmd.Version = version
	cmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output JSON")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")

	cmd.AddCommand(
		newDocCmd(cfg, &jsonOutput),
		newSchemaCmd(cfg, &jsonOutput),
		newEntryCmd(cfg, &jsonOutput),
		newPolicyCmd(cfg, &jsonOutput),
		newBlobCmd(cfg),
		newExportCmd(cfg),
		newAuthorCmd(&jsonOutput),
		newConfigCmd(cfg),
		newDBCmd(cfg, &jsonOutput),
	)

	return cmd
}
