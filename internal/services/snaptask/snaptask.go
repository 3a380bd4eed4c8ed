// Package snaptask records photo-verified tasks. At most one verification is
// in flight per device.
package snaptask

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/MyelinBots/wellness-sync/internal/db/repositories/snap_task"
	"github.com/MyelinBots/wellness-sync/internal/logging"
	"github.com/MyelinBots/wellness-sync/internal/services/aggregator"
	"github.com/MyelinBots/wellness-sync/internal/services/context_manager"
	"github.com/google/uuid"
)

const VerifyPoints = 10

type Service interface {
	// BeginVerify claims the verification slot; apperr.ErrConflict when one
	// is already pending.
	BeginVerify(ctx context.Context, title, photoPath string) (*snap_task.PendingVerify, error)
	// CompleteVerify records the task and credits VerifyPoints.
	CompleteVerify(ctx context.Context) (*snap_task.SnapTask, error)
	CancelVerify(ctx context.Context) error
	Pending(ctx context.Context) (*snap_task.PendingVerify, error)
	History(ctx context.Context, limit int) ([]*snap_task.SnapTask, error)
}

type Impl struct {
	repo       snap_task.SnapTaskRepository
	aggregator aggregator.Service
	now        func() time.Time
	log        *slog.Logger
}

func New(repo snap_task.SnapTaskRepository, agg aggregator.Service, log *slog.Logger) Service {
	return &Impl{
		repo:       repo,
		aggregator: agg,
		now:        func() time.Time { return time.Now().UTC() },
		log:        logging.Or(log, "snaptask"),
	}
}

func (s *Impl) BeginVerify(ctx context.Context, title, photoPath string) (*snap_task.PendingVerify, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, errors.New("task title is required")
	}
	p := &snap_task.PendingVerify{
		TaskID:    uuid.NewString(),
		Title:     title,
		PhotoPath: strings.TrimSpace(photoPath),
		StartedAt: s.now(),
	}
	if err := s.repo.ClaimPending(ctx, p); err != nil {
		return nil, err
	}
	s.log.Debug("verification started", "task_id", p.TaskID, "title", p.Title)
	return p, nil
}

func (s *Impl) CompleteVerify(ctx context.Context) (*snap_task.SnapTask, error) {
	task, err := s.repo.CompletePending(ctx, VerifyPoints, s.now())
	if err != nil {
		return nil, fmt.Errorf("complete verification: %w", err)
	}
	s.log.Info("task verified", "task_id", task.ID, "points", task.Points)
	publish(ctx, s.aggregator, s.log)
	return task, nil
}

func (s *Impl) CancelVerify(ctx context.Context) error {
	return s.repo.CancelPending(ctx)
}

func (s *Impl) Pending(ctx context.Context) (*snap_task.PendingVerify, error) {
	return s.repo.GetPending(ctx)
}

func (s *Impl) History(ctx context.Context, limit int) ([]*snap_task.SnapTask, error) {
	return s.repo.ListTasks(ctx, limit)
}

// publish refreshes the local aggregate for the signed-in account. The points
// are already committed and the next sync aggregates again, so a failure is
// only logged.
func publish(ctx context.Context, agg aggregator.Service, log *slog.Logger) {
	uid := context_manager.GetAccountFromContext(ctx)
	if uid == "" || agg == nil {
		return
	}
	if _, err := agg.AggregateAndPublish(ctx, uid); err != nil {
		log.Warn("aggregate not published", "uid", uid, "err", err)
	}
}
