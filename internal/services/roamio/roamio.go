// Package roamio tracks walks. The live walk survives restarts in the
// current_walk slot until it is finished.
package roamio

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/MyelinBots/wellness-sync/internal/apperr"
	"github.com/MyelinBots/wellness-sync/internal/db/repositories/walk"
	"github.com/MyelinBots/wellness-sync/internal/logging"
	"github.com/MyelinBots/wellness-sync/internal/services/aggregator"
	"github.com/MyelinBots/wellness-sync/internal/services/context_manager"
	"github.com/google/uuid"
)

// MetersPerPoint: one point for every full 100 m walked.
const MetersPerPoint = 100.0

func PointsForDistance(meters float64) int {
	if meters <= 0 || math.IsNaN(meters) || math.IsInf(meters, 0) {
		return 0
	}
	return int(math.Floor(meters / MetersPerPoint))
}

type Service interface {
	// StartWalk fails with apperr.ErrConflict while another walk is live.
	StartWalk(ctx context.Context) (*walk.CurrentWalk, error)
	// UpdateWalk records cumulative distance and steps. Values never go
	// backwards.
	UpdateWalk(ctx context.Context, distanceM float64, steps int) (*walk.CurrentWalk, error)
	FinishWalk(ctx context.Context) (*walk.WalkSession, error)
	// CurrentWalk returns nil when no walk is live.
	CurrentWalk(ctx context.Context) (*walk.CurrentWalk, error)
	History(ctx context.Context, limit int) ([]*walk.WalkSession, error)
}

type Impl struct {
	repo       walk.WalkRepository
	aggregator aggregator.Service
	now        func() time.Time
	log        *slog.Logger
}

func New(repo walk.WalkRepository, agg aggregator.Service, log *slog.Logger) Service {
	return &Impl{
		repo:       repo,
		aggregator: agg,
		now:        func() time.Time { return time.Now().UTC() },
		log:        logging.Or(log, "roamio"),
	}
}

func (s *Impl) StartWalk(ctx context.Context) (*walk.CurrentWalk, error) {
	w := &walk.CurrentWalk{WalkID: uuid.NewString(), StartedAt: s.now()}
	if err := s.repo.StartWalk(ctx, w); err != nil {
		return nil, err
	}
	s.log.Info("walk started", "walk_id", w.WalkID)
	return w, nil
}

func (s *Impl) UpdateWalk(ctx context.Context, distanceM float64, steps int) (*walk.CurrentWalk, error) {
	if distanceM < 0 || steps < 0 || math.IsNaN(distanceM) || math.IsInf(distanceM, 0) {
		return nil, fmt.Errorf("invalid walk progress %.1fm / %d steps", distanceM, steps)
	}
	cur, err := s.repo.GetCurrent(ctx)
	if err != nil {
		return nil, err
	}
	if cur == nil {
		return nil, fmt.Errorf("no live walk: %w", apperr.ErrNotFound)
	}

	distanceM = math.Max(distanceM, cur.DistanceM)
	steps = max(steps, cur.Steps)
	if err := s.repo.UpdateCurrent(ctx, distanceM, steps); err != nil {
		return nil, err
	}
	cur.DistanceM = distanceM
	cur.Steps = steps
	return cur, nil
}

func (s *Impl) FinishWalk(ctx context.Context) (*walk.WalkSession, error) {
	session, err := s.repo.FinishWalk(ctx, s.now(), PointsForDistance)
	if err != nil {
		return nil, err
	}
	s.log.Info("walk finished", "walk_id", session.ID, "distance_m", session.DistanceM, "points", session.Points)

	if uid := context_manager.GetAccountFromContext(ctx); uid != "" && s.aggregator != nil {
		if _, err := s.aggregator.AggregateAndPublish(ctx, uid); err != nil {
			s.log.Warn("aggregate not published", "uid", uid, "err", err)
		}
	}
	return session, nil
}

func (s *Impl) CurrentWalk(ctx context.Context) (*walk.CurrentWalk, error) {
	return s.repo.GetCurrent(ctx)
}

func (s *Impl) History(ctx context.Context, limit int) ([]*walk.WalkSession, error) {
	return s.repo.ListSessions(ctx, limit)
}
