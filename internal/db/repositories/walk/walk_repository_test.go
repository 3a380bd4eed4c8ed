package walk

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MyelinBots/wellness-sync/internal/apperr"
	"github.com/MyelinBots/wellness-sync/internal/db/repositories/score"
	"github.com/MyelinBots/wellness-sync/internal/testutil"
)

func perHundredMeters(d float64) int { return int(d / 100) }

func TestWalkLifecycle(t *testing.T) {
	d := testutil.OpenDB(t)
	scores := score.NewScoreRepository(d)
	repo := NewWalkRepository(d, scores)
	ctx := context.Background()
	start := time.Date(2024, 3, 10, 7, 0, 0, 0, time.UTC)

	if err := repo.UpdateCurrent(ctx, 10, 10); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("update without walk: expected ErrNotFound, got %v", err)
	}
	if _, err := repo.FinishWalk(ctx, start, perHundredMeters); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("finish without walk: expected ErrNotFound, got %v", err)
	}

	if err := repo.StartWalk(ctx, &CurrentWalk{WalkID: "w1", StartedAt: start}); err != nil {
		t.Fatalf("StartWalk: %v", err)
	}
	if err := repo.StartWalk(ctx, &CurrentWalk{WalkID: "w2", StartedAt: start}); !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("second StartWalk: expected ErrConflict, got %v", err)
	}
	if err := repo.UpdateCurrent(ctx, 1530, 2100); err != nil {
		t.Fatalf("UpdateCurrent: %v", err)
	}

	session, err := repo.FinishWalk(ctx, start.Add(30*time.Minute), perHundredMeters)
	if err != nil {
		t.Fatalf("FinishWalk: %v", err)
	}
	if session.ID != "w1" || session.Points != 15 || session.Steps != 2100 {
		t.Errorf("unexpected session %+v", session)
	}

	cur, err := repo.GetCurrent(ctx)
	if err != nil {
		t.Fatalf("GetCurrent: %v", err)
	}
	if cur != nil {
		t.Errorf("slot not cleared: %+v", cur)
	}
	if got, _ := scores.GetMicroAppScore(ctx, score.Roamio); got != 15 {
		t.Errorf("roamio score = %d, want 15", got)
	}
	sessions, _ := repo.ListSessions(ctx, 5)
	if len(sessions) != 1 {
		t.Errorf("expected 1 session, got %d", len(sessions))
	}
}
