package sync_state

import (
	"context"
	"errors"
	"fmt"

	"github.com/MyelinBots/wellness-sync/internal/apperr"
	"github.com/MyelinBots/wellness-sync/internal/db"
	"github.com/MyelinBots/wellness-sync/internal/db/repositories"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SyncStateRepository interface {
	// GetLastSync returns 0 (the epoch, "never synced") when no sync was recorded.
	GetLastSync(ctx context.Context) (int64, error)
	SetLastSync(ctx context.Context, millis int64) error
}

type SyncStateRepositoryImpl struct {
	db *db.DB
}

func NewSyncStateRepository(database *db.DB) SyncStateRepository {
	return &SyncStateRepositoryImpl{db: database}
}

func (r *SyncStateRepositoryImpl) GetLastSync(ctx context.Context) (int64, error) {
	var s SyncState
	err := r.db.DB.WithContext(ctx).Where("id = ?", repositories.SingletonID).Take(&s).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, db.Classify(fmt.Errorf("read sync_state: %w", err))
	}
	if s.LastSyncMillis < 0 {
		return 0, apperr.Corrupt(fmt.Errorf("negative last sync %d", s.LastSyncMillis))
	}
	return s.LastSyncMillis, nil
}

func (r *SyncStateRepositoryImpl) SetLastSync(ctx context.Context, millis int64) error {
	s := SyncState{ID: repositories.SingletonID, LastSyncMillis: millis}
	err := r.db.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"last_sync_millis"}),
		}).
		Create(&s).Error
	if err != nil {
		return db.Classify(fmt.Errorf("write sync_state: %w", err))
	}
	return nil
}
