package score

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MyelinBots/wellness-sync/internal/db"
	"github.com/MyelinBots/wellness-sync/internal/db/repositories"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ScoreRepository interface {
	// GetMicroAppScore returns 0 when the app has no row yet.
	GetMicroAppScore(ctx context.Context, app App) (int, error)
	// AddMicroAppScore applies delta, clamping the stored value at 0.
	AddMicroAppScore(ctx context.Context, app App, delta int) error
	SetMicroAppScore(ctx context.Context, app App, score int) error

	// GetGlobalScore returns nil, nil when no aggregate was published yet.
	GetGlobalScore(ctx context.Context) (*GlobalScore, error)
	SetGlobalScore(ctx context.Context, uid string, score int) error

	// WithTx binds the repository to an open transaction.
	WithTx(tx *gorm.DB) ScoreRepository
}

type ScoreRepositoryImpl struct {
	db *gorm.DB
}

func NewScoreRepository(database *db.DB) ScoreRepository {
	return &ScoreRepositoryImpl{db: database.DB}
}

func (r *ScoreRepositoryImpl) WithTx(tx *gorm.DB) ScoreRepository {
	return &ScoreRepositoryImpl{db: tx}
}

func (r *ScoreRepositoryImpl) GetMicroAppScore(ctx context.Context, app App) (int, error) {
	var row MicroAppScore
	err := r.db.WithContext(ctx).
		Table(app.Table()).
		Where("id = ?", repositories.SingletonID).
		Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, db.Classify(fmt.Errorf("read %s: %w", app.Table(), err))
	}
	return row.Score, nil
}

func (r *ScoreRepositoryImpl) AddMicroAppScore(ctx context.Context, app App, delta int) error {
	row := MicroAppScore{
		ID:        repositories.SingletonID,
		Score:     max(0, delta),
		UpdatedAt: time.Now().UTC(),
	}
	err := r.db.WithContext(ctx).
		Table(app.Table()).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"score":      gorm.Expr("MAX(0, score + ?)", delta),
				"updated_at": row.UpdatedAt,
			}),
		}).
		Create(&row).Error
	if err != nil {
		return db.Classify(fmt.Errorf("add to %s: %w", app.Table(), err))
	}
	return nil
}

func (r *ScoreRepositoryImpl) SetMicroAppScore(ctx context.Context, app App, score int) error {
	if score < 0 {
		return fmt.Errorf("score must be >= 0, got %d", score)
	}
	row := MicroAppScore{ID: repositories.SingletonID, Score: score, UpdatedAt: time.Now().UTC()}
	err := r.db.WithContext(ctx).
		Table(app.Table()).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"score", "updated_at"}),
		}).
		Create(&row).Error
	if err != nil {
		return db.Classify(fmt.Errorf("set %s: %w", app.Table(), err))
	}
	return nil
}

func (r *ScoreRepositoryImpl) GetGlobalScore(ctx context.Context) (*GlobalScore, error) {
	var g GlobalScore
	err := r.db.WithContext(ctx).Where("id = ?", repositories.SingletonID).Take(&g).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, db.Classify(fmt.Errorf("read global_score: %w", err))
	}
	return &g, nil
}

func (r *ScoreRepositoryImpl) SetGlobalScore(ctx context.Context, uid string, score int) error {
	row := GlobalScore{
		ID:        repositories.SingletonID,
		UID:       uid,
		Score:     score,
		UpdatedAt: time.Now().UTC(),
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"uid", "score", "updated_at"}),
		}).
		Create(&row).Error
	if err != nil {
		return db.Classify(fmt.Errorf("write global_score: %w", err))
	}
	return nil
}
