package streak

import (
	"context"
	"errors"
	"fmt"

	"github.com/MyelinBots/wellness-sync/internal/db"
	"github.com/MyelinBots/wellness-sync/internal/db/repositories"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type StreakRepository interface {
	// GetStreak returns a zero streak when the row does not exist yet.
	GetStreak(ctx context.Context) (*Streak, error)
	SaveStreak(ctx context.Context, s *Streak) error
}

type StreakRepositoryImpl struct {
	db *db.DB
}

func NewStreakRepository(database *db.DB) StreakRepository {
	return &StreakRepositoryImpl{db: database}
}

func (r *StreakRepositoryImpl) GetStreak(ctx context.Context) (*Streak, error) {
	var s Streak
	err := r.db.DB.WithContext(ctx).Where("id = ?", repositories.SingletonID).Take(&s).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &Streak{ID: repositories.SingletonID}, nil
		}
		return nil, db.Classify(fmt.Errorf("read streak: %w", err))
	}
	return &s, nil
}

func (r *StreakRepositoryImpl) SaveStreak(ctx context.Context, s *Streak) error {
	s.ID = repositories.SingletonID
	err := r.db.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"count", "last_checked_date"}),
		}).
		Create(s).Error
	if err != nil {
		return db.Classify(fmt.Errorf("write streak: %w", err))
	}
	return nil
}
