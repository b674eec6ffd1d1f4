package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/dhiway/starter-kit/internal/api"
	"github.com/dhiway/starter-kit/internal/config"
	"github.com/dhiway/starter-kit/internal/docs"
)

func newEntryCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "entry",
		Short: "Write, read and delete document entries",
	}

	cmd.AddCommand(
		newEntrySetCmd(cfg, jsonOutput),
		newEntrySetFileCmd(cfg, jsonOutput),
		newEntryGetCmd(cfg, jsonOutput),
		newEntryListCmd(cfg, jsonOutput),
		newEntryDeleteCmd(cfg, jsonOutput),
	)
	return cmd
}

func newEntrySetCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	var author string

	cmd := &cobra.Command{
		Use:   "set <doc-id> <key> <value>",
		Short: "Write an entry value",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			authorID, err := resolveAuthor(cfg, author)
			if err != nil {
				return err
			}
			return withDocument(cfg, args[0], func(ctx context.Context, svc *docs.Service, handle *docs.Handle) error {
				entry, err := handle.SetEntry(ctx, authorID, args[1], []byte(args[2]))
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(api.SetEntryResponse{Hash: entry.Record.Hash.String()})
				}
				return writePlain("%s\n", entry.Record.Hash)
			})
		},
	}

	cmd.Flags().StringVarP(&author, "author", "a", "", "author id (defaults to default_author)")
	return cmd
}

func newEntrySetFileCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	var author string

	cmd := &cobra.Command{
		Use:   "set-file <doc-id> <key> <path>",
		Short: "Import a file's bytes as an entry value",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			authorID, err := resolveAuthor(cfg, author)
			if err != nil {
				return err
			}
			return withDocument(cfg, args[0], func(ctx context.Context, svc *docs.Service, handle *docs.Handle) error {
				outcome, err := handle.SetEntryFile(ctx, authorID, args[1], args[2])
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(api.SetEntryFileResponse{
						Key:  outcome.Key,
						Hash: outcome.Hash.String(),
						Size: outcome.Size,
					})
				}
				return writePlain("%s\t%d\n", outcome.Hash, outcome.Size)
			})
		},
	}

	cmd.Flags().StringVarP(&author, "author", "a", "", "author id (defaults to default_author)")
	return cmd
}

func newEntryGetCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	var author string
	var includeEmpty bool

	cmd := &cobra.Command{
		Use:   "get <doc-id> <key>",
		Short: "Read one entry's metadata",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			authorID, err := resolveAuthor(cfg, author)
			if err != nil {
				return err
			}
			return withDocument(cfg, args[0], func(ctx context.Context, svc *docs.Service, handle *docs.Handle) error {
				entry, err := handle.GetEntry(ctx, authorID, args[1], includeEmpty)
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(api.GetEntryResponse{Entry: *entry})
				}
				return writePlain("%s\n", formatEntryLine(*entry))
			})
		},
	}

	cmd.Flags().StringVarP(&author, "author", "a", "", "author id (defaults to default_author)")
	cmd.Flags().BoolVar(&includeEmpty, "include-empty", false, "return tombstoned entries instead of not-found")
	return cmd
}

func newEntryListCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	spec := api.QuerySpec{}

	cmd := &cobra.Command{
		Use:   "list <doc-id>",
		Short: "List entries matching a query",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query, err := spec.ToQuery()
			if err != nil {
				return err
			}
			return withDocument(cfg, args[0], func(ctx context.Context, svc *docs.Service, handle *docs.Handle) error {
				entries, err := handle.GetEntries(ctx, query)
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(api.GetEntriesResponse{Entries: entries})
				}
				return writeEntryList(entries)
			})
		},
	}

	cmd.Flags().StringVarP(&spec.AuthorID, "author", "a", "", "only entries by this author")
	cmd.Flags().StringVar(&spec.Key, "key", "", "only entries with this exact key")
	cmd.Flags().StringVar(&spec.KeyPrefix, "prefix", "", "only entries whose key starts with this prefix")
	cmd.Flags().BoolVar(&spec.IncludeEmpty, "include-empty", false, "include tombstoned entries")
	cmd.Flags().StringVar(&spec.SortBy, "sort", "", "sort field (key, author, timestamp)")
	cmd.Flags().StringVar(&spec.Direction, "direction", "", "sort direction (asc, desc)")
	cmd.Flags().Uint64Var(&spec.Limit, "limit", 0, "maximum number of entries (0 = unlimited)")
	cmd.Flags().Uint64Var(&spec.Offset, "offset", 0, "number of entries to skip")
	return cmd
}

func newEntryDeleteCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	var author string
	var prefix bool

	cmd := &cobra.Command{
		Use:   "delete <doc-id> <key>",
		Short: "Tombstone an entry (or, with --prefix, every matching entry)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			authorID, err := resolveAuthor(cfg, author)
			if err != nil {
				return err
			}
			return withDocument(cfg, args[0], func(ctx context.Context, svc *docs.Service, handle *docs.Handle) error {
				var count int
				if prefix {
					count, err = handle.DeleteEntries(ctx, authorID, args[1])
				} else {
					count, err = handle.DeleteEntry(ctx, authorID, args[1])
				}
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(api.DeleteEntryResponse{DeletedCount: count})
				}
				return writePlain("%d\n", count)
			})
		},
	}

	cmd.Flags().StringVarP(&author, "author", "a", "", "author id (defaults to default_author)")
	cmd.Flags().BoolVar(&prefix, "prefix", false, "treat the key as a prefix and delete every match")
	return cmd
}
