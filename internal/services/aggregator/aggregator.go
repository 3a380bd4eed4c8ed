package aggregator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/MyelinBots/wellness-sync/internal/db/repositories/score"
	"github.com/MyelinBots/wellness-sync/internal/logging"
)

type Service interface {
	// Aggregate sums every micro-app score row; a missing row counts as 0.
	Aggregate(ctx context.Context, accountID string) (int, error)
	// AggregateAndPublish also stores the sum in the local GlobalScore row.
	// It never talks to the remote store.
	AggregateAndPublish(ctx context.Context, accountID string) (int, error)
}

type Impl struct {
	scores score.ScoreRepository
	log    *slog.Logger
}

func New(scores score.ScoreRepository, log *slog.Logger) Service {
	return &Impl{scores: scores, log: logging.Or(log, "aggregator")}
}

func (s *Impl) Aggregate(ctx context.Context, accountID string) (int, error) {
	total := 0
	for _, app := range score.Apps {
		n, err := s.scores.GetMicroAppScore(ctx, app)
		if err != nil {
			return 0, err
		}
		if n > 0 {
			total += n
		}
	}
	return total, nil
}

func (s *Impl) AggregateAndPublish(ctx context.Context, accountID string) (int, error) {
	accountID = strings.TrimSpace(accountID)
	if accountID == "" {
		return 0, fmt.Errorf("aggregate: empty account id")
	}
	total, err := s.Aggregate(ctx, accountID)
	if err != nil {
		return 0, err
	}
	if err := s.scores.SetGlobalScore(ctx, accountID, total); err != nil {
		return 0, err
	}
	s.log.Debug("published local aggregate", "uid", accountID, "score", total)
	return total, nil
}
