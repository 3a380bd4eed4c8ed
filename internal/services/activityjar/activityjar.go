package activityjar

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/MyelinBots/wellness-sync/internal/db/repositories/activity"
	"github.com/MyelinBots/wellness-sync/internal/logging"
	"github.com/MyelinBots/wellness-sync/internal/services/aggregator"
	"github.com/MyelinBots/wellness-sync/internal/services/context_manager"
	"github.com/google/uuid"
)

const ActivityPoints = 5

type Service interface {
	// Complete records a finished activity worth ActivityPoints.
	Complete(ctx context.Context, name, category string) (*activity.Activity, error)
	// Today lists activities completed since local midnight.
	Today(ctx context.Context) ([]*activity.Activity, error)
}

type Impl struct {
	repo       activity.ActivityRepository
	aggregator aggregator.Service
	loc        *time.Location
	now        func() time.Time
	log        *slog.Logger
}

func New(repo activity.ActivityRepository, agg aggregator.Service, loc *time.Location, log *slog.Logger) Service {
	if loc == nil {
		loc = time.Local
	}
	return &Impl{
		repo:       repo,
		aggregator: agg,
		loc:        loc,
		now:        time.Now,
		log:        logging.Or(log, "activityjar"),
	}
}

func (s *Impl) Complete(ctx context.Context, name, category string) (*activity.Activity, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("activity name is required")
	}
	a := &activity.Activity{
		ID:          uuid.NewString(),
		Name:        name,
		Category:    strings.ToLower(strings.TrimSpace(category)),
		Points:      ActivityPoints,
		CompletedAt: s.now().UTC(),
	}
	if err := s.repo.RecordActivity(ctx, a); err != nil {
		return nil, err
	}
	s.log.Info("activity completed", "id", a.ID, "name", a.Name, "points", a.Points)

	if uid := context_manager.GetAccountFromContext(ctx); uid != "" && s.aggregator != nil {
		if _, err := s.aggregator.AggregateAndPublish(ctx, uid); err != nil {
			s.log.Warn("aggregate not published", "uid", uid, "err", err)
		}
	}
	return a, nil
}

func (s *Impl) Today(ctx context.Context) ([]*activity.Activity, error) {
	now := s.now().In(s.loc)
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)
	return s.repo.ListSince(ctx, midnight.UTC())
}
