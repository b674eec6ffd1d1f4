package docs

import (
	"context"
	"testing"

	"github.com/dhiway/starter-kit/internal/models"
)

func TestDownloadPolicyDefaultsToEverything(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()
	handle := testDoc(t, svc)

	policy, err := handle.DownloadPolicy(ctx)
	if err != nil {
		t.Fatalf("get policy: %v", err)
	}
	if policy.Kind != models.PolicyEverything || len(policy.Filters) != 0 {
		t.Fatalf("expected the everything policy, got %+v", policy)
	}
}

func TestSetDownloadPolicyRoundTrip(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()
	handle := testDoc(t, svc)

	want := models.DownloadPolicy{
		Kind: models.PolicyEverythingExcept,
		Filters: []models.Filter{
			{Kind: models.FilterExact, Key: "secrets"},
			{Kind: models.FilterPrefix, Key: "tmp/"},
		},
	}
	if err := handle.SetDownloadPolicy(ctx, want); err != nil {
		t.Fatalf("set policy: %v", err)
	}

	got, err := handle.DownloadPolicy(ctx)
	if err != nil {
		t.Fatalf("get policy: %v", err)
	}
	if got.Kind != want.Kind || len(got.Filters) != 2 {
		t.Fatalf("policy round trip mismatch: %+v", got)
	}
	if got.ShouldDownload("secrets") || got.ShouldDownload("tmp/scratch") {
		t.Fatal("excepted keys should not be downloaded")
	}
	if !got.ShouldDownload("users/alice") {
		t.Fatal("unexcepted keys should be downloaded")
	}

	// policy survives reopening the document
	id := handle.Document()
	if err := handle.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	reopened, err := svc.Open(ctx, id)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	got, err = reopened.DownloadPolicy(ctx)
	if err != nil {
		t.Fatalf("get policy after reopen: %v", err)
	}
	if got.Kind != want.Kind {
		t.Fatalf("policy lost across reopen: %+v", got)
	}
}

func TestSetDownloadPolicyRejectsInvalidShapes(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()
	handle := testDoc(t, svc)

	err := handle.SetDownloadPolicy(ctx, models.DownloadPolicy{Kind: "sometimes"})
	wantKind(t, err, KindMalformedInput)
	wantCode(t, err, ErrCodeInvalidPolicy)

	// the unfiltered kinds do not take filters
	err = handle.SetDownloadPolicy(ctx, models.DownloadPolicy{
		Kind:    models.PolicyNothing,
		Filters: []models.Filter{{Kind: models.FilterExact, Key: "k"}},
	})
	wantKind(t, err, KindMalformedInput)
	wantCode(t, err, ErrCodeInvalidPolicy)
}
