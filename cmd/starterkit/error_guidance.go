package main

import (
	"errors"

	"github.com/dhiway/starter-kit/internal/docs"
)

func formatCLIError(err error) []string {
	if err == nil {
		return nil
	}

	lines := []string{err.Error()}

	var docErr docs.Error
	if errors.As(err, &docErr) {
		switch docErr.Kind() {
		case docs.KindCapability:
			lines = append(lines, "hint: the document is read-only here; join it with a write ticket to modify it.")
		case docs.KindConflict:
			lines = append(lines, "hint: a schema can only be attached while the document has no entries.")
		case docs.KindClosed:
			lines = append(lines, "hint: the handle or service was closed; reopen the document and retry.")
		case docs.KindResource:
			lines = append(lines,
				"hint: a storage backend failed; check the data dir and database path.",
				"hint: override locations with STARTERKIT_DATA_DIR / STARTERKIT_DB if needed.",
			)
		}
		return uniqueLines(lines)
	}

	return uniqueLines(lines)
}

func uniqueLines(lines []string) []string {
	seen := make(map[string]struct{}, len(lines))
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if _, ok := seen[line]; ok {
			continue
		}
		seen[line] = struct{}{}
		out = append(out, line)
	}
	return out
}
