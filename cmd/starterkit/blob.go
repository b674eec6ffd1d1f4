package main

import (
	"context"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/dhiway/starter-kit/internal/config"
	"github.com/dhiway/starter-kit/internal/docs"
	"github.com/dhiway/starter-kit/internal/models"
)

func newBlobCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "blob",
		Short: "Fetch raw content by hash",
	}

	cmd.AddCommand(newBlobGetCmd(cfg))
	return cmd
}

func newBlobGetCmd(cfg *config.Config) *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "get <hash>",
		Short: "Write blob content to stdout or a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := models.ParseHash(args[0])
			if err != nil {
				return err
			}
			return withService(cfg, func(ctx context.Context, svc *docs.Service) error {
				rc, err := svc.ReadBlob(ctx, hash)
				if err != nil {
					return err
				}
				defer rc.Close()

				var dst io.Writer = os.Stdout
				if outPath != "" {
					f, err := os.Create(outPath)
					if err != nil {
						return err
					}
					defer f.Close()
					dst = f
				}
				_, err = io.Copy(dst, rc)
				return err
			})
		},
	}

	cmd.Flags().StringVarP(&outPath, "output", "o", "", "write content to this file instead of stdout")
	return cmd
}
