package badge

import (
	"context"
	"fmt"

	"github.com/MyelinBots/wellness-sync/internal/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BadgeRepository interface {
	ListBadges(ctx context.Context) ([]*Badge, error)
	// InsertBadge is a no-op for a badge already cached.
	InsertBadge(ctx context.Context, b *Badge) error
	ReplaceBadges(ctx context.Context, badges []*Badge) error
}

type BadgeRepositoryImpl struct {
	db *db.DB
}

func NewBadgeRepository(database *db.DB) BadgeRepository {
	return &BadgeRepositoryImpl{db: database}
}

func (r *BadgeRepositoryImpl) ListBadges(ctx context.Context) ([]*Badge, error) {
	var badges []*Badge
	if err := r.db.DB.WithContext(ctx).Order("badge_id ASC").Find(&badges).Error; err != nil {
		return nil, db.Classify(fmt.Errorf("list badges: %w", err))
	}
	return badges, nil
}

func (r *BadgeRepositoryImpl) InsertBadge(ctx context.Context, b *Badge) error {
	err := r.db.DB.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(b).Error
	if err != nil {
		return db.Classify(fmt.Errorf("insert badge %s: %w", b.BadgeID, err))
	}
	return nil
}

func (r *BadgeRepositoryImpl) ReplaceBadges(ctx context.Context, badges []*Badge) error {
	err := r.db.Transaction(ctx, func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&Badge{}).Error; err != nil {
			return err
		}
		if len(badges) == 0 {
			return nil
		}
		return tx.Create(badges).Error
	})
	if err != nil {
		return db.Classify(fmt.Errorf("replace badges: %w", err))
	}
	return nil
}
