package walk

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MyelinBots/wellness-sync/internal/apperr"
	"github.com/MyelinBots/wellness-sync/internal/db"
	"github.com/MyelinBots/wellness-sync/internal/db/repositories"
	"github.com/MyelinBots/wellness-sync/internal/db/repositories/score"
	"gorm.io/gorm"
)

type WalkRepository interface {
	GetCurrent(ctx context.Context) (*CurrentWalk, error)
	// StartWalk fills the slot; apperr.ErrConflict when a walk is live.
	StartWalk(ctx context.Context, w *CurrentWalk) error
	UpdateCurrent(ctx context.Context, distanceM float64, steps int) error
	// FinishWalk turns the live walk into a session, clears the slot and
	// credits points(distance) in one transaction.
	FinishWalk(ctx context.Context, endedAt time.Time, points func(distanceM float64) int) (*WalkSession, error)
	ListSessions(ctx context.Context, limit int) ([]*WalkSession, error)
}

type WalkRepositoryImpl struct {
	db     *db.DB
	scores score.ScoreRepository
}

func NewWalkRepository(database *db.DB, scores score.ScoreRepository) WalkRepository {
	return &WalkRepositoryImpl{db: database, scores: scores}
}

func (r *WalkRepositoryImpl) GetCurrent(ctx context.Context) (*CurrentWalk, error) {
	var w CurrentWalk
	err := r.db.DB.WithContext(ctx).Where("id = ?", repositories.SingletonID).Take(&w).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, db.Classify(fmt.Errorf("read current_walk: %w", err))
	}
	return &w, nil
}

func (r *WalkRepositoryImpl) StartWalk(ctx context.Context, w *CurrentWalk) error {
	w.ID = repositories.SingletonID
	err := r.db.Transaction(ctx, func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&CurrentWalk{}).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return apperr.ErrConflict
		}
		return tx.Create(w).Error
	})
	if err != nil {
		return db.Classify(fmt.Errorf("start walk: %w", err))
	}
	return nil
}

func (r *WalkRepositoryImpl) UpdateCurrent(ctx context.Context, distanceM float64, steps int) error {
	res := r.db.DB.WithContext(ctx).
		Model(&CurrentWalk{}).
		Where("id = ?", repositories.SingletonID).
		Updates(map[string]interface{}{"distance_m": distanceM, "steps": steps})
	if res.Error != nil {
		return db.Classify(fmt.Errorf("update current_walk: %w", res.Error))
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("update current_walk: %w", apperr.ErrNotFound)
	}
	return nil
}

func (r *WalkRepositoryImpl) FinishWalk(ctx context.Context, endedAt time.Time, points func(distanceM float64) int) (*WalkSession, error) {
	var session *WalkSession
	err := r.db.Transaction(ctx, func(tx *gorm.DB) error {
		var w CurrentWalk
		if err := tx.Where("id = ?", repositories.SingletonID).Take(&w).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.ErrNotFound
			}
			return err
		}

		session = &WalkSession{
			ID:        w.WalkID,
			StartedAt: w.StartedAt,
			EndedAt:   endedAt,
			DistanceM: w.DistanceM,
			Steps:     w.Steps,
			Points:    points(w.DistanceM),
		}
		if err := tx.Create(session).Error; err != nil {
			return err
		}
		if err := tx.Delete(&CurrentWalk{}, repositories.SingletonID).Error; err != nil {
			return err
		}
		return r.scores.WithTx(tx).AddMicroAppScore(ctx, score.Roamio, session.Points)
	})
	if err != nil {
		return nil, db.Classify(fmt.Errorf("finish walk: %w", err))
	}
	return session, nil
}

func (r *WalkRepositoryImpl) ListSessions(ctx context.Context, limit int) ([]*WalkSession, error) {
	if limit <= 0 {
		limit = 20
	}
	var out []*WalkSession
	if err := r.db.DB.WithContext(ctx).Order("ended_at DESC").Limit(limit).Find(&out).Error; err != nil {
		return nil, db.Classify(fmt.Errorf("list walk_sessions: %w", err))
	}
	return out, nil
}
