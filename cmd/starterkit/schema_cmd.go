package main

import (
	"context"
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/dhiway/starter-kit/internal/api"
	"github.com/dhiway/starter-kit/internal/config"
	"github.com/dhiway/starter-kit/internal/docs"
)

func newSchemaCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Attach or inspect a document's JSON Schema",
	}

	cmd.AddCommand(
		newSchemaAddCmd(cfg, jsonOutput),
		newSchemaShowCmd(cfg, jsonOutput),
	)
	return cmd
}

func newSchemaAddCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	var filePath string

	cmd := &cobra.Command{
		Use:   "add <doc-id> [schema-json]",
		Short: "Attach a JSON Schema to an empty document",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			schemaText, err := schemaInput(args, filePath)
			if err != nil {
				return err
			}
			return withDocument(cfg, args[0], func(ctx context.Context, svc *docs.Service, handle *docs.Handle) error {
				hash, err := handle.AddSchema(ctx, schemaText)
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(api.AddDocSchemaResponse{UpdatedHash: hash.String()})
				}
				return writePlain("%s\n", hash)
			})
		},
	}

	cmd.Flags().StringVarP(&filePath, "file", "f", "", "read the schema from a file instead of the command line")
	return cmd
}

func schemaInput(args []string, filePath string) (string, error) {
	if filePath != "" {
		if len(args) > 1 {
			return "", errors.New("pass the schema either inline or via --file, not both")
		}
		data, err := os.ReadFile(filePath)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
	if len(args) < 2 {
		return "", errors.New("schema JSON is required: pass it inline or via --file")
	}
	return args[1], nil
}

func newSchemaShowCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "show <doc-id>",
		Short: "Print the attached schema and its content hash",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDocument(cfg, args[0], func(ctx context.Context, svc *docs.Service, handle *docs.Handle) error {
				schemaText, hash, err := handle.Schema(ctx)
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(api.GetDocSchemaResponse{Schema: schemaText, Hash: hash.String()})
				}
				return writePlain("%s\n", schemaText)
			})
		},
	}
}
