package snap_task

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MyelinBots/wellness-sync/internal/apperr"
	"github.com/MyelinBots/wellness-sync/internal/db/repositories/score"
	"github.com/MyelinBots/wellness-sync/internal/testutil"
	"github.com/google/uuid"
)

func TestPendingVerifyLifecycle(t *testing.T) {
	d := testutil.OpenDB(t)
	scores := score.NewScoreRepository(d)
	repo := NewSnapTaskRepository(d, scores)
	ctx := context.Background()
	start := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)

	if _, err := repo.CompletePending(ctx, 10, start); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("complete on empty slot: expected ErrNotFound, got %v", err)
	}

	if err := repo.ClaimPending(ctx, &PendingVerify{TaskID: uuid.NewString(), Title: "water plants", StartedAt: start}); err != nil {
		t.Fatalf("ClaimPending: %v", err)
	}
	if err := repo.ClaimPending(ctx, &PendingVerify{TaskID: uuid.NewString(), Title: "second", StartedAt: start}); !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("second claim: expected ErrConflict, got %v", err)
	}

	task, err := repo.CompletePending(ctx, 10, start.Add(time.Minute))
	if err != nil {
		t.Fatalf("CompletePending: %v", err)
	}
	if task.Title != "water plants" || task.Points != 10 {
		t.Errorf("unexpected task %+v", task)
	}

	pending, err := repo.GetPending(ctx)
	if err != nil {
		t.Fatalf("GetPending: %v", err)
	}
	if pending != nil {
		t.Errorf("slot not cleared: %+v", pending)
	}
	if got, _ := scores.GetMicroAppScore(ctx, score.SnapTask); got != 10 {
		t.Errorf("snaptask score = %d, want 10", got)
	}
	tasks, err := repo.ListTasks(ctx, 0)
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	if len(tasks) != 1 {
		t.Errorf("expected 1 task, got %d", len(tasks))
	}
}

func TestCancelPending(t *testing.T) {
	d := testutil.OpenDB(t)
	scores := score.NewScoreRepository(d)
	repo := NewSnapTaskRepository(d, scores)
	ctx := context.Background()

	if err := repo.ClaimPending(ctx, &PendingVerify{TaskID: "t1", Title: "stretch", StartedAt: time.Now().UTC()}); err != nil {
		t.Fatalf("ClaimPending: %v", err)
	}
	if err := repo.CancelPending(ctx); err != nil {
		t.Fatalf("CancelPending: %v", err)
	}
	if p, _ := repo.GetPending(ctx); p != nil {
		t.Errorf("slot not cleared: %+v", p)
	}
	if got, _ := scores.GetMicroAppScore(ctx, score.SnapTask); got != 0 {
		t.Errorf("cancel must not credit points, score = %d", got)
	}
	// slot is free again
	if err := repo.ClaimPending(ctx, &PendingVerify{TaskID: "t2", Title: "stretch", StartedAt: time.Now().UTC()}); err != nil {
		t.Fatalf("ClaimPending after cancel: %v", err)
	}
}
