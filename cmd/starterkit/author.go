package main

import (
	"github.com/spf13/cobra"

	"github.com/dhiway/starter-kit/internal/models"
)

func newAuthorCmd(jsonOutput *bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "author",
		Short: "Manage author identities",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "new",
		Short: "Generate a fresh author id",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			author, err := models.NewAuthorID()
			if err != nil {
				return err
			}
			if *jsonOutput {
				return writeJSON(map[string]string{"author_id": author.String()})
			}
			return writePlain("%s\n", author)
		},
	})
	return cmd
}
