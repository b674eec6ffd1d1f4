package main

import (
	"context"
	"fmt"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/dhiway/starter-kit/internal/api"
	"github.com/dhiway/starter-kit/internal/config"
	"github.com/dhiway/starter-kit/internal/docs"
	"github.com/dhiway/starter-kit/internal/models"
)

func newPolicyCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "policy",
		Short: "Get or set a document's download policy",
	}

	cmd.AddCommand(
		newPolicyGetCmd(cfg, jsonOutput),
		newPolicySetCmd(cfg, jsonOutput),
	)
	return cmd
}

func newPolicyGetCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "get <doc-id>",
		Short: "Print the effective download policy",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDocument(cfg, args[0], func(ctx context.Context, svc *docs.Service, handle *docs.Handle) error {
				policy, err := handle.DownloadPolicy(ctx)
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(api.GetDownloadPolicyResponse{DownloadPolicy: policy})
				}
				data, err := json.Marshal(policy)
				if err != nil {
					return err
				}
				return writePlain("%s\n", data)
			})
		},
	}
}

func newPolicySetCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "set <doc-id> <policy-json>",
		Short: "Replace the download policy",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var policy models.DownloadPolicy
			if err := json.Unmarshal([]byte(args[1]), &policy); err != nil {
				return fmt.Errorf("invalid download policy: %w", err)
			}
			return withDocument(cfg, args[0], func(ctx context.Context, svc *docs.Service, handle *docs.Handle) error {
				if err := handle.SetDownloadPolicy(ctx, policy); err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(api.SetDownloadPolicyResponse{Message: "download policy set"})
				}
				return writePlain("download policy set\n")
			})
		},
	}
}
