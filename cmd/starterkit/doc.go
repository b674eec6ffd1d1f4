package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/dhiway/starter-kit/internal/api"
	"github.com/dhiway/starter-kit/internal/config"
	"github.com/dhiway/starter-kit/internal/docs"
	"github.com/dhiway/starter-kit/internal/models"
)

func newDocCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doc",
		Short: "Create, list, share and manage documents",
	}

	cmd.AddCommand(
		newDocCreateCmd(cfg, jsonOutput),
		newDocListCmd(cfg, jsonOutput),
		newDocDropCmd(cfg, jsonOutput),
		newDocShareCmd(cfg, jsonOutput),
		newDocJoinCmd(cfg, jsonOutput),
		newDocLeaveCmd(cfg, jsonOutput),
		newDocStatusCmd(cfg, jsonOutput),
	)
	return cmd
}

func newDocCreateCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "create",
		Short: "Create a new writable document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cfg, func(ctx context.Context, svc *docs.Service) error {
				id, err := svc.CreateDocument(ctx)
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(api.CreateDocResponse{DocID: id.String()})
				}
				return writePlain("%s\n", id)
			})
		},
	}
}

func newDocListCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List known documents and their capabilities",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cfg, func(ctx context.Context, svc *docs.Service) error {
				infos, err := svc.List(ctx)
				if err != nil {
					return err
				}
				if *jsonOutput {
					rows := make([]api.ListDocsResponse, 0, len(infos))
					for _, info := range infos {
						rows = append(rows, api.ListDocsResponse{
							DocID:      info.ID.String(),
							Capability: string(info.Capability),
						})
					}
					return writeJSON(rows)
				}
				for _, info := range infos {
					if err := writePlain("%s\t%s\n", info.ID, info.Capability); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
}

func newDocDropCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "drop <doc-id>",
		Short: "Permanently delete a document and its entries",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cfg, func(ctx context.Context, svc *docs.Service) error {
				id, err := models.ParseDocumentID(args[0])
				if err != nil {
					return err
				}
				if err := svc.Drop(ctx, id); err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(api.DropDocResponse{Message: "document dropped"})
				}
				return writePlain("dropped %s\n", id)
			})
		},
	}
}

func newDocShareCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	var mode string
	var addrOptions string

	cmd := &cobra.Command{
		Use:   "share <doc-id>",
		Short: "Mint a ticket that lets another node join the document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			shareMode, err := models.ParseShareMode(mode)
			if err != nil {
				return err
			}
			addrOption, err := models.ParseAddrOption(addrOptions)
			if err != nil {
				return err
			}
			return withDocument(cfg, args[0], func(ctx context.Context, svc *docs.Service, handle *docs.Handle) error {
				ticket, err := handle.Share(ctx, shareMode, addrOption)
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(api.ShareDocResponse{Ticket: ticket})
				}
				return writePlain("%s\n", ticket)
			})
		},
	}

	cmd.Flags().StringVarP(&mode, "mode", "m", "read", "capability to share (read, write)")
	cmd.Flags().StringVar(&addrOptions, "addr-options", "", "addressing detail in the ticket (id, relay, relay_and_addresses, addresses)")
	return cmd
}

func newDocJoinCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "join <ticket>",
		Short: "Join a shared document from a ticket",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cfg, func(ctx context.Context, svc *docs.Service) error {
				handle, err := svc.Join(ctx, args[0])
				if err != nil {
					return err
				}
				defer handle.Close()
				if *jsonOutput {
					return writeJSON(api.JoinDocResponse{DocID: handle.Document().String()})
				}
				return writePlain("%s\n", handle.Document())
			})
		},
	}
}

func newDocLeaveCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "leave <doc-id>",
		Short: "Stop syncing a document, keeping its local state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDocument(cfg, args[0], func(ctx context.Context, svc *docs.Service, handle *docs.Handle) error {
				if err := handle.Leave(ctx); err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(api.LeaveResponse{Message: "left document"})
				}
				return writePlain("left %s\n", handle.Document())
			})
		},
	}
}

func newDocStatusCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "status <doc-id>",
		Short: "Show the live state of a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDocument(cfg, args[0], func(ctx context.Context, svc *docs.Service, handle *docs.Handle) error {
				status, err := handle.Status(ctx)
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(api.StatusFrom(status))
				}
				return writePlain("capability=%s sync=%t subscribers=%d handles=%d\n",
					status.Capability, status.SyncEnabled, status.SubscriberCount, status.HandleCount)
			})
		},
	}
}
