package snap_task

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

type SnapTaskRepository interface {
	GetPending(ctx context.Context) (*PendingVerify, error)
	// ClaimPending fills the slot; apperr.ErrConflict when it is occupied.
	ClaimPending(ctx context.Context, p *PendingVerify) error
	// CompletePending writes the verified task, clears the slot and credits
	// points in one transaction. apperr.ErrNotFound when the slot is empty.
	CompletePending(ctx context.Context, points int, verifiedAt time.Time) (*SnapTask, error)
	CancelPending(ctx context.Context) error
	ListTasks(ctx context.Context, limit int) ([]*SnapTask, error)
}

type SnapTaskRepositoryImpl struct {
	db     *db.DB
	scores score.ScoreRepository
}

func NewSnapTaskRepository(database *db.DB, scores score.ScoreRepository) SnapTaskRepository {
	return &SnapTaskRepositoryImpl{db: database, scores: scores}
}

func (r *SnapTaskRepositoryImpl) GetPending(ctx context.Context) (*PendingVerify, error) {
	var p PendingVerify
	err := r.db.DB.WithContext(ctx).Where("id = ?", repositories.SingletonID).Take(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, db.Classify(fmt.Errorf("read pending_verify: %w", err))
	}
	return &p, nil
}

func (r *SnapTaskRepositoryImpl) ClaimPending(ctx context.Context, p *PendingVerify) error {
	p.ID = repositories.SingletonID
	err := r.db.Transaction(ctx, func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&PendingVerify{}).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return apperr.ErrConflict
		}
		return tx.Create(p).Error
	})
	if err != nil {
		return db.Classify(fmt.Errorf("claim pending_verify: %w", err))
	}
	return nil
}

func (r *SnapTaskRepositoryImpl) CompletePending(ctx context.Context, points int, verifiedAt time.Time) (*SnapTask, error) {
	var task *SnapTask
	err := r.db.Transaction(ctx, func(tx *gorm.DB) error {
		var p PendingVerify
		if err := tx.Where("id = ?", repositories.SingletonID).Take(&p).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.ErrNotFound
			}
			return err
		}

		startedAt := p.StartedAt
		task = &SnapTask{
			ID:         p.TaskID,
			Title:      p.Title,
			PhotoPath:  p.PhotoPath,
			Points:     points,
			StartedAt:  &startedAt,
			VerifiedAt: verifiedAt,
		}
		if err := tx.Create(task).Error; err != nil {
			return err
		}
		if err := tx.Delete(&PendingVerify{}, repositories.SingletonID).Error; err != nil {
			return err
		}
		return r.scores.WithTx(tx).AddMicroAppScore(ctx, score.SnapTask, points)
	})
	if err != nil {
		return nil, db.Classify(fmt.Errorf("complete pending_verify: %w", err))
	}
	return task, nil
}

func (r *SnapTaskRepositoryImpl) CancelPending(ctx context.Context) error {
	if err := r.db.DB.WithContext(ctx).Delete(&PendingVerify{}, repositories.SingletonID).Error; err != nil {
		return db.Classify(fmt.Errorf("cancel pending_verify: %w", err))
	}
	return nil
}

func (r *SnapTaskRepositoryImpl) ListTasks(ctx context.Context, limit int) ([]*SnapTask, error) {
	if limit <= 0 {
		limit = 20
	}
	var tasks []*SnapTask
	if err := r.db.DB.WithContext(ctx).Order("verified_at DESC").Limit(limit).Find(&tasks).Error; err != nil {
		return nil, db.Classify(fmt.Errorf("list snap_tasks: %w", err))
	}
	return tasks, nil
}
