package activity

import (
	"context"
	"fmt"
	"time"

	"github.com/MyelinBots/wellness-sync/internal/db"
	"github.com/MyelinBots/wellness-sync/internal/db/repositories/score"
	"gorm.io/gorm"
)

type ActivityRepository interface {
	// RecordActivity stores the activity and credits its points atomically.
	RecordActivity(ctx context.Context, a *Activity) error
	ListSince(ctx context.Context, since time.Time) ([]*Activity, error)
}

type ActivityRepositoryImpl struct {
	db     *db.DB
	scores score.ScoreRepository
}

func NewActivityRepository(database *db.DB, scores score.ScoreRepository) ActivityRepository {
	return &ActivityRepositoryImpl{db: database, scores: scores}
}

func (r *ActivityRepositoryImpl) RecordActivity(ctx context.Context, a *Activity) error {
	err := r.db.Transaction(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(a).Error; err != nil {
			return err
		}
		return r.scores.WithTx(tx).AddMicroAppScore(ctx, score.ActivityJar, a.Points)
	})
	if err != nil {
		return db.Classify(fmt.Errorf("record activity: %w", err))
	}
	return nil
}

func (r *ActivityRepositoryImpl) ListSince(ctx context.Context, since time.Time) ([]*Activity, error) {
	var out []*Activity
	err := r.db.DB.WithContext(ctx).
		Where("completed_at >= ?", since).
		Order("completed_at ASC").
		Find(&out).Error
	if err != nil {
		return nil, db.Classify(fmt.Errorf("list activities: %w", err))
	}
	return out, nil
}
