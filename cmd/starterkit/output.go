package main

import (
	"fmt"
	"os"

	"github.com/dhiway/starter-kit/internal/format"
	"github.com/dhiway/starter-kit/internal/models"
)

var outputFormatter format.Formatter = format.JSONFormatter{}

func writeJSON(payload any) error {
	return outputFormatter.Write(os.Stdout, payload)
}

func writePlain(format string, args ...any) error {
	_, err := fmt.Fprintf(os.Stdout, format, args...)
	return err
}

func writeEntryList(entries []models.Entry) error {
	for _, entry := range entries {
		if err := writePlain("%s\n", formatEntryLine(entry)); err != nil {
			return err
		}
	}
	return nil
}

func formatEntryLine(entry models.Entry) string {
	marker := ""
	if entry.IsEmpty() {
		marker = " (deleted)"
	}
	return fmt.Sprintf("%s\t%s\t%s\t%d%s",
		entry.ID.Key, entry.ID.Author, entry.Record.Hash, entry.Record.Len, marker)
}
