package main

import (
	"context"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/dhiway/starter-kit/internal/config"
	"github.com/dhiway/starter-kit/internal/docs"
	"github.com/dhiway/starter-kit/internal/format"
)

func newExportCmd(cfg *config.Config) *cobra.Command {
	var includeContent bool
	var formatName string
	var outPath string

	cmd := &cobra.Command{
		Use:   "export <doc-id>",
		Short: "Export a document bundle: schema, policy and entries",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter, err := format.ByName(formatName)
			if err != nil {
				return err
			}
			return withDocument(cfg, args[0], func(ctx context.Context, svc *docs.Service, handle *docs.Handle) error {
				bundle, err := handle.Export(ctx, includeContent)
				if err != nil {
					return err
				}

				var dst io.Writer = os.Stdout
				if outPath != "" {
					f, err := os.Create(outPath)
					if err != nil {
						return err
					}
					defer f.Close()
					dst = f
				}
				return formatter.Write(dst, bundle)
			})
		},
	}

	cmd.Flags().BoolVar(&includeContent, "content", false, "inline entry content (base64)")
	cmd.Flags().StringVar(&formatName, "format", "yaml", "output format (yaml, json)")
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "write the bundle to this file instead of stdout")
	return cmd
}
