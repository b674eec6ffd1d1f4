package docs

import (
	"context"
	"errors"
	"fmt"

	"github.com/dhiway/starter-kit/internal/models"
	"github.com/dhiway/starter-kit/internal/replica"
)

// SetDownloadPolicy replaces the document's download policy. The policy is a
// local sync preference, not document content, so read-only handles may set
// it. The new policy persists across close and reopen.
func (h *Handle) SetDownloadPolicy(ctx context.Context, policy models.DownloadPolicy) error {
	if err := h.guard(); err != nil {
		return err
	}
	if err := policy.Validate(); err != nil {
		return malformedCode(ErrCodeInvalidPolicy, err)
	}
	if err := h.svc.store.SetDownloadPolicy(ctx, h.state.id, policy); err != nil {
		if errors.Is(err, replica.ErrNotFound) {
			return notFoundCode(ErrCodeDocumentNotFound, fmt.Errorf("document %s not found", h.state.id))
		}
		return storeError(err)
	}
	h.svc.log().Debug("download policy set", "doc", h.state.id, "policy", policy.Kind)
	return nil
}

// DownloadPolicy returns the document's download policy, defaulting to
// "download everything" when none was ever set.
func (h *Handle) DownloadPolicy(ctx context.Context) (models.DownloadPolicy, error) {
	if err := h.guard(); err != nil {
		return models.DownloadPolicy{}, err
	}
	ns, err := h.svc.store.GetNamespace(ctx, h.state.id)
	if err != nil {
		return models.DownloadPolicy{}, storeError(err)
	}
	if ns == nil {
		return models.DownloadPolicy{}, errDocumentDropped()
	}
	if ns.Policy.Kind == "" {
		return models.DefaultDownloadPolicy(), nil
	}
	return ns.Policy, nil
}
