package services

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/uuid"

	"github.com/calehb/fieldguide-backend/internal/repos"
	"github.com/calehb/fieldguide-backend/internal/types"
)

func newContributionService(t *testing.T) ContributionService {
	t.Helper()
	db := newTestDB(t)
	log := newTestLogger(t)
	return NewContributionService(db, log, repos.NewContributionRepo(db, log), nil)
}

func TestSubmitCompetitorIntelAutoPublishes(t *testing.T) {
	svc := newContributionService(t)
	userID := uuid.New()

	result, err := svc.Submit(context.Background(), nil, &userID, "competitors", nil, "intel", "Competitor X raised prices 10%", false)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if result.Status != types.ContributionStatusAutoPublished {
		t.Fatalf("status: want=auto_published got=%s", result.Status)
	}
	if result.Message != msgAutoPublished {
		t.Fatalf("message: want auto-publish branch, got %q", result.Message)
	}

	// The fast path never shows up in the moderation queue and sets no
	// reviewer fields.
	pending, err := svc.ListPending(context.Background(), nil)
	if err != nil {
		t.Fatalf("ListPending: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("pending count: want=0 got=%d", len(pending))
	}
	all, err := svc.ListAll(context.Background(), nil)
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("all count: want=1 got=%d", len(all))
	}
	if all[0].ReviewedBy != nil || all[0].ReviewedAt != nil {
		t.Fatalf("auto-published row must not carry reviewer fields: %+v", all[0])
	}
}

func TestSubmitOtherCombinationsArePending(t *testing.T) {
	svc := newContributionService(t)
	ctx := context.Background()

	cases := []struct {
		kind  string
		ctype string
	}{
		{"positioning", "suggestion"},
		{"positioning", "intel"},
		{"battlecard", "correction"},
		{"competitors", "question"},
	}
	for _, tc := range cases {
		result, err := svc.Submit(ctx, nil, nil, tc.kind, nil, tc.ctype, "note", false)
		if err != nil {
			t.Fatalf("Submit(%s,%s): %v", tc.kind, tc.ctype, err)
		}
		if result.Status != types.ContributionStatusPending {
			t.Fatalf("Submit(%s,%s) status: want=pending got=%s", tc.kind, tc.ctype, result.Status)
		}
		if result.Message != msgSubmittedForReview {
			t.Fatalf("Submit(%s,%s) message: want review branch, got %q", tc.kind, tc.ctype, result.Message)
		}
	}
}

func TestSubmitValidation(t *testing.T) {
	svc := newContributionService(t)
	ctx := context.Background()

	_, err := svc.Submit(ctx, nil, nil, "positioning", nil, "suggestion", "   ", false)
	assertAPIError(t, err, http.StatusBadRequest, "validation_failed")

	_, err = svc.Submit(ctx, nil, nil, "positioning", nil, "rant", "content", false)
	assertAPIError(t, err, http.StatusBadRequest, "validation_failed")

	_, err = svc.Submit(ctx, nil, nil, "roadmap", nil, "suggestion", "content", false)
	assertAPIError(t, err, http.StatusBadRequest, "validation_failed")
}

func TestReviewLifecycle(t *testing.T) {
	svc := newContributionService(t)
	ctx := context.Background()
	author := uuid.New()
	reviewer := uuid.New()
	notes := "good idea"

	submitted, err := svc.Submit(ctx, nil, &author, "positioning", nil, "suggestion", "Add a tagline section", false)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if submitted.Status != types.ContributionStatusPending {
		t.Fatalf("status: want=pending got=%s", submitted.Status)
	}

	updated, err := svc.Review(ctx, nil, submitted.ID, reviewer, "approved", &notes)
	if err != nil {
		t.Fatalf("Review: %v", err)
	}
	if updated.Status != types.ContributionStatusApproved {
		t.Fatalf("status: want=approved got=%s", updated.Status)
	}
	if updated.ReviewedBy == nil || *updated.ReviewedBy != reviewer {
		t.Fatalf("reviewer not recorded: %v", updated.ReviewedBy)
	}
	if updated.ReviewNotes == nil || *updated.ReviewNotes != notes {
		t.Fatalf("notes not recorded: %v", updated.ReviewNotes)
	}
	if updated.ReviewedAt == nil {
		t.Fatalf("reviewed_at not recorded")
	}

	// Moderation is single-shot: a second call fails and the stored
	// outcome is unchanged.
	_, err = svc.Review(ctx, nil, submitted.ID, uuid.New(), "rejected", nil)
	assertAPIError(t, err, http.StatusConflict, "invalid_state")

	mine, err := svc.ListMine(ctx, nil, author)
	if err != nil {
		t.Fatalf("ListMine: %v", err)
	}
	if len(mine) != 1 || mine[0].Status != types.ContributionStatusApproved {
		t.Fatalf("row changed after rejected double review: %+v", mine)
	}
	if *mine[0].ReviewedBy != reviewer {
		t.Fatalf("reviewer overwritten by double review")
	}
}

func TestReviewUnknownIDFailsNotFound(t *testing.T) {
	svc := newContributionService(t)
	_, err := svc.Review(context.Background(), nil, 9999, uuid.New(), "approved", nil)
	assertAPIError(t, err, http.StatusNotFound, "not_found")
}

func TestReviewRejectsBadDecision(t *testing.T) {
	svc := newContributionService(t)
	ctx := context.Background()

	submitted, err := svc.Submit(ctx, nil, nil, "positioning", nil, "question", "Is the pricing page current?", false)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	_, err = svc.Review(ctx, nil, submitted.ID, uuid.New(), "clustered", nil)
	assertAPIError(t, err, http.StatusBadRequest, "validation_failed")
}

func TestListMineReturnsAnonymousRowsToAuthor(t *testing.T) {
	svc := newContributionService(t)
	ctx := context.Background()
	author := uuid.New()

	if _, err := svc.Submit(ctx, nil, &author, "battlecard", nil, "correction", "Pricing row is stale", true); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	mine, err := svc.ListMine(ctx, nil, author)
	if err != nil {
		t.Fatalf("ListMine: %v", err)
	}
	if len(mine) != 1 {
		t.Fatalf("own anonymous row missing: got %d rows", len(mine))
	}
	if !mine[0].IsAnonymous {
		t.Fatalf("is_anonymous must survive storage")
	}

	other, err := svc.ListMine(ctx, nil, uuid.New())
	if err != nil {
		t.Fatalf("ListMine other: %v", err)
	}
	if len(other) != 0 {
		t.Fatalf("other user sees %d rows, want 0", len(other))
	}
}

func TestCustomAutoPublishPolicy(t *testing.T) {
	db := newTestDB(t)
	log := newTestLogger(t)
	// Policy that never fast-paths anything.
	svc := NewContributionService(db, log, repos.NewContributionRepo(db, log), func(types.TargetKind, types.ContributionType) bool {
		return false
	})

	result, err := svc.Submit(context.Background(), nil, nil, "competitors", nil, "intel", "intel note", false)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if result.Status != types.ContributionStatusPending {
		t.Fatalf("custom policy ignored: got %s", result.Status)
	}
}
