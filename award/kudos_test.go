package award_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/warp/points-engine/award"
	"github.com/warp/points-engine/engine"
	"github.com/warp/points-engine/store/memory"
)

func TestKudosAward_Approved_PaysFlat25(t *testing.T) {
	// GIVEN: An approved kudo for user-7
	store := memory.New()
	now := time.Date(2025, 6, 2, 15, 30, 0, 0, time.UTC)
	svc := award.NewService(store, award.WithNow(func() time.Time { return now }))

	kudo := award.KudosEvent{
		ID:          "kd-1",
		Approved:    true,
		RecipientID: "user-7",
		ProjectID:   "proj-1",
		Comment:     "Great debugging session",
	}

	// WHEN: Awarding points
	entries, err := svc.AwardKudos(context.Background(), kudo)
	if err != nil {
		t.Fatalf("AwardKudos failed: %v", err)
	}

	// THEN: One paid entry for 25 points, dated by the injected clock
	if len(entries) != 1 {
		t.Fatalf("Expected 1 entry, got %d", len(entries))
	}
	e := entries[0]
	if e.Status != engine.StatusPaid || e.PointsInt() != 25 {
		t.Errorf("Expected paid 25, got %s %d", e.Status, e.PointsInt())
	}
	if e.Description != "Peer Kudos Received: Great debugging session" {
		t.Errorf("Unexpected description: %q", e.Description)
	}
	if !e.EffectiveAt.Equal(now) {
		t.Errorf("Expected effective_at %v, got %v", now, e.EffectiveAt)
	}
}

func TestKudosAward_Unapproved_NotApplicable(t *testing.T) {
	// GIVEN: A kudo that has not passed its approval gate
	svc := award.NewService(memory.New())
	kudo := award.KudosEvent{ID: "kd-2", Approved: false, RecipientID: "user-7", ProjectID: "proj-1"}

	// WHEN: Awarding points
	entries, err := svc.AwardKudos(context.Background(), kudo)

	// THEN: Nothing is recorded and nothing fails
	if err != nil {
		t.Fatalf("AwardKudos failed: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("Expected no entries for unapproved kudo, got %d", len(entries))
	}
}

func TestKudosAward_MissingRecipientOrProject_NotApplicable(t *testing.T) {
	svc := award.NewService(memory.New())

	for _, kudo := range []award.KudosEvent{
		{ID: "kd-3", Approved: true, ProjectID: "proj-1"},   // no recipient
		{ID: "kd-4", Approved: true, RecipientID: "user-7"}, // no project
	} {
		entries, err := svc.AwardKudos(context.Background(), kudo)
		if err != nil {
			t.Fatalf("AwardKudos failed: %v", err)
		}
		if len(entries) != 0 {
			t.Errorf("Expected no entries for %q, got %d", kudo.ID, len(entries))
		}
	}
}

func TestKudosAward_Repeat_DeniedDuplicate(t *testing.T) {
	// GIVEN: A kudo that already paid out
	store := memory.New()
	svc := award.NewService(store)
	ctx := context.Background()
	kudo := award.KudosEvent{ID: "kd-5", Approved: true, RecipientID: "user-7", ProjectID: "proj-1"}

	first, err := svc.AwardKudos(ctx, kudo)
	if err != nil || len(first) != 1 {
		t.Fatalf("First award failed: entries=%d err=%v", len(first), err)
	}

	// WHEN: The same kudo is processed again
	second, err := svc.AwardKudos(ctx, kudo)
	if err != nil {
		t.Fatalf("Second award failed: %v", err)
	}

	// THEN: A zero-point duplicate denial naming the original entry
	if len(second) != 1 {
		t.Fatalf("Expected 1 entry, got %d", len(second))
	}
	if second[0].Status != engine.StatusDenied || second[0].PointsInt() != 0 {
		t.Errorf("Expected denied 0, got %s %d", second[0].Status, second[0].PointsInt())
	}
	if !strings.Contains(second[0].Description, "Points already awarded for this kudo") ||
		!strings.Contains(second[0].Description, first[0].ID) {
		t.Errorf("Unexpected description: %q", second[0].Description)
	}

	total, err := store.TotalPointsFor(ctx, "user-7")
	if err != nil {
		t.Fatalf("TotalPointsFor failed: %v", err)
	}
	if total.IntPart() != 25 {
		t.Errorf("Expected total 25 after repeat, got %d", total.IntPart())
	}
}
