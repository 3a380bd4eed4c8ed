package aggregator

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/MyelinBots/wellness-sync/internal/apperr"
	"github.com/MyelinBots/wellness-sync/internal/db/repositories/score"
	"github.com/MyelinBots/wellness-sync/internal/logging"
	"github.com/MyelinBots/wellness-sync/internal/testutil"
	"gorm.io/gorm"
)

// mockScoreRepo keeps only the rows that exist; absent apps model missing rows.
type mockScoreRepo struct {
	rows    map[score.App]int
	global  *score.GlobalScore
	readErr error
}

func (m *mockScoreRepo) GetMicroAppScore(ctx context.Context, app score.App) (int, error) {
	if m.readErr != nil {
		return 0, m.readErr
	}
	return m.rows[app], nil
}

func (m *mockScoreRepo) AddMicroAppScore(ctx context.Context, app score.App, delta int) error {
	m.rows[app] = max(0, m.rows[app]+delta)
	return nil
}

func (m *mockScoreRepo) SetMicroAppScore(ctx context.Context, app score.App, n int) error {
	m.rows[app] = n
	return nil
}

func (m *mockScoreRepo) GetGlobalScore(ctx context.Context) (*score.GlobalScore, error) {
	return m.global, nil
}

func (m *mockScoreRepo) SetGlobalScore(ctx context.Context, uid string, n int) error {
	m.global = &score.GlobalScore{ID: 1, UID: uid, Score: n}
	return nil
}

func (m *mockScoreRepo) WithTx(tx *gorm.DB) score.ScoreRepository { return m }

func TestAggregate_AllRowCombinations(t *testing.T) {
	// -1 marks a missing row
	values := []int{-1, 0, 7}

	for _, a := range values {
		for _, b := range values {
			for _, c := range values {
				name := fmt.Sprintf("snaptask=%d/activityjar=%d/roamio=%d", a, b, c)
				t.Run(name, func(t *testing.T) {
					repo := &mockScoreRepo{rows: map[score.App]int{}}
					want := 0
					for app, v := range map[score.App]int{score.SnapTask: a, score.ActivityJar: b, score.Roamio: c} {
						if v >= 0 {
							repo.rows[app] = v
							want += v
						}
					}

					got, err := New(repo, logging.Discard()).Aggregate(context.Background(), "u1")
					if err != nil {
						t.Fatalf("Aggregate: %v", err)
					}
					if got != want {
						t.Errorf("Aggregate = %d, want %d", got, want)
					}
				})
			}
		}
	}
}

func TestAggregate_PropagatesLocalErrors(t *testing.T) {
	repo := &mockScoreRepo{rows: map[score.App]int{}, readErr: apperr.Local(errors.New("disk gone"))}
	svc := New(repo, logging.Discard())

	if _, err := svc.Aggregate(context.Background(), "u1"); !errors.Is(err, apperr.ErrLocalUnavailable) {
		t.Fatalf("expected ErrLocalUnavailable, got %v", err)
	}
	if _, err := svc.AggregateAndPublish(context.Background(), "u1"); err == nil {
		t.Fatal("expected error from AggregateAndPublish")
	}
	if repo.global != nil {
		t.Errorf("global row written despite read failure: %+v", repo.global)
	}
}

func TestAggregateAndPublish_Scenario(t *testing.T) {
	d := testutil.OpenDB(t)
	scores := score.NewScoreRepository(d)
	ctx := context.Background()

	if err := scores.SetMicroAppScore(ctx, score.SnapTask, 30); err != nil {
		t.Fatal(err)
	}
	if err := scores.SetMicroAppScore(ctx, score.ActivityJar, 15); err != nil {
		t.Fatal(err)
	}
	if err := scores.SetMicroAppScore(ctx, score.Roamio, 0); err != nil {
		t.Fatal(err)
	}

	svc := New(scores, logging.Discard())
	got, err := svc.Aggregate(ctx, "u1")
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if got != 45 {
		t.Fatalf("Aggregate = %d, want 45", got)
	}

	if _, err := svc.AggregateAndPublish(ctx, "u1"); err != nil {
		t.Fatalf("AggregateAndPublish: %v", err)
	}
	g, err := scores.GetGlobalScore(ctx)
	if err != nil || g == nil {
		t.Fatalf("GetGlobalScore: %v %v", g, err)
	}
	if g.Score != 45 || g.UID != "u1" {
		t.Errorf("global score = %+v, want uid u1 score 45", g)
	}
}

func TestAggregateAndPublish_RequiresAccount(t *testing.T) {
	svc := New(&mockScoreRepo{rows: map[score.App]int{}}, nil)
	if _, err := svc.AggregateAndPublish(context.Background(), "  "); err == nil {
		t.Fatal("expected error for empty account id")
	}
}
