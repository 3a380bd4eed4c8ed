package activityjar

import (
	"context"
	"testing"

	"github.com/MyelinBots/wellness-sync/internal/db/repositories/activity"
	"github.com/MyelinBots/wellness-sync/internal/db/repositories/score"
	"github.com/MyelinBots/wellness-sync/internal/logging"
	"github.com/MyelinBots/wellness-sync/internal/services/aggregator"
	"github.com/MyelinBots/wellness-sync/internal/services/context_manager"
	"github.com/MyelinBots/wellness-sync/internal/testutil"
)

func TestComplete(t *testing.T) {
	d := testutil.OpenDB(t)
	scores := score.NewScoreRepository(d)
	svc := New(activity.NewActivityRepository(d, scores), aggregator.New(scores, logging.Discard()), nil, logging.Discard())
	ctx := context_manager.SetAccountContext(context.Background(), "u1")

	a, err := svc.Complete(ctx, "Gratitude journal", " Calm ")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if a.Points != ActivityPoints || a.Category != "calm" || a.ID == "" {
		t.Errorf("activity = %+v", a)
	}
	if _, err := svc.Complete(ctx, "Tea break", ""); err != nil {
		t.Fatal(err)
	}

	if n, _ := scores.GetMicroAppScore(ctx, score.ActivityJar); n != 2*ActivityPoints {
		t.Errorf("activityjar score = %d", n)
	}
	g, _ := scores.GetGlobalScore(ctx)
	if g == nil || g.Score != 2*ActivityPoints {
		t.Errorf("global score = %+v", g)
	}

	if _, err := svc.Complete(ctx, "  ", ""); err == nil {
		t.Error("empty name accepted")
	}
}

func TestComplete_WithoutAccountSkipsPublish(t *testing.T) {
	d := testutil.OpenDB(t)
	scores := score.NewScoreRepository(d)
	svc := New(activity.NewActivityRepository(d, scores), aggregator.New(scores, logging.Discard()), nil, logging.Discard())

	if _, err := svc.Complete(context.Background(), "Walk the dog", "move"); err != nil {
		t.Fatal(err)
	}
	if g, _ := scores.GetGlobalScore(context.Background()); g != nil {
		t.Errorf("published without an account: %+v", g)
	}
}
