package docs

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/dhiway/starter-kit/internal/models"
	"github.com/dhiway/starter-kit/internal/replica"
)

// GetEntries lists entries matching the query. Filters are pushed into the
// store scan; ordering and pagination happen here, after the scan, so pages
// over a stable dataset concatenate without gaps or duplicates.
func (h *Handle) GetEntries(ctx context.Context, q models.Query) ([]models.Entry, error) {
	if err := h.guard(); err != nil {
		return nil, err
	}
	q = q.Normalize()
	if err := validateQuery(q); err != nil {
		return nil, err
	}

	filter := replica.ScanFilter{
		Key:          q.Key,
		KeyPrefix:    q.KeyPrefix,
		Author:       q.Author,
		IncludeEmpty: q.IncludeEmpty,
	}
	entries, err := h.scanWithRetry(ctx, filter)
	if err != nil {
		return nil, err
	}

	sort.Slice(entries, func(i, j int) bool { return q.Less(entries[i], entries[j]) })
	return paginate(entries, q.Offset, q.Limit), nil
}

func validateQuery(q models.Query) error {
	switch q.SortBy {
	case models.SortByKey, models.SortByAuthor, models.SortByTimestamp:
	default:
		return malformedCode(ErrCodeInvalidQuery, fmt.Errorf("invalid sort_by value: %s", q.SortBy))
	}
	switch q.Direction {
	case models.SortAsc, models.SortDesc:
	default:
		return malformedCode(ErrCodeInvalidQuery, fmt.Errorf("invalid sort_direction value: %s", q.Direction))
	}
	if q.Key != "" && q.KeyPrefix != "" {
		return malformedCode(ErrCodeInvalidQuery, fmt.Errorf("key and key_prefix are mutually exclusive"))
	}
	return nil
}

// scanWithRetry retries the snapshot scan on transient store failures.
// Scans are idempotent, so a retry cannot duplicate work. Corruption and
// cancellation are terminal.
func (h *Handle) scanWithRetry(ctx context.Context, filter replica.ScanFilter) ([]models.Entry, error) {
	var lastErr error
	for attempt := 0; attempt <= h.svc.readRetries(); attempt++ {
		entries, err := h.svc.store.ScanEntries(ctx, h.state.id, filter)
		if err == nil {
			return entries, nil
		}
		if errors.Is(err, replica.ErrCorrupt) || ctx.Err() != nil {
			return nil, storeError(err)
		}
		lastErr = err
	}
	return nil, storeError(lastErr)
}

// paginate applies offset then limit. A zero limit means unlimited.
func paginate(entries []models.Entry, offset, limit uint64) []models.Entry {
	if offset >= uint64(len(entries)) {
		return nil
	}
	entries = entries[offset:]
	if limit > 0 && limit < uint64(len(entries)) {
		entries = entries[:limit]
	}
	return entries
}
