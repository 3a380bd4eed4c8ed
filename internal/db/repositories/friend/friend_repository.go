package friend

import (
	"context"
	"fmt"

	"github.com/MyelinBots/wellness-sync/internal/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type FriendRepository interface {
	ListFriends(ctx context.Context) ([]*Friend, error)
	UpsertFriend(ctx context.Context, f *Friend) error
	DeleteFriend(ctx context.Context, friendUID string) error
	// ReplaceFriends swaps the whole cache in one transaction.
	ReplaceFriends(ctx context.Context, friends []*Friend) error
}

type FriendRepositoryImpl struct {
	db *db.DB
}

func NewFriendRepository(database *db.DB) FriendRepository {
	return &FriendRepositoryImpl{db: database}
}

func (r *FriendRepositoryImpl) ListFriends(ctx context.Context) ([]*Friend, error) {
	var friends []*Friend
	if err := r.db.DB.WithContext(ctx).Order("friend_uid ASC").Find(&friends).Error; err != nil {
		return nil, db.Classify(fmt.Errorf("list friends: %w", err))
	}
	return friends, nil
}

func (r *FriendRepositoryImpl) UpsertFriend(ctx context.Context, f *Friend) error {
	err := r.db.DB.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(f).Error
	if err != nil {
		return db.Classify(fmt.Errorf("write friend %s: %w", f.FriendUID, err))
	}
	return nil
}

func (r *FriendRepositoryImpl) DeleteFriend(ctx context.Context, friendUID string) error {
	if err := r.db.DB.WithContext(ctx).Where("friend_uid = ?", friendUID).Delete(&Friend{}).Error; err != nil {
		return db.Classify(fmt.Errorf("delete friend %s: %w", friendUID, err))
	}
	return nil
}

func (r *FriendRepositoryImpl) ReplaceFriends(ctx context.Context, friends []*Friend) error {
	err := r.db.Transaction(ctx, func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&Friend{}).Error; err != nil {
			return err
		}
		if len(friends) == 0 {
			return nil
		}
		return tx.Create(friends).Error
	})
	if err != nil {
		return db.Classify(fmt.Errorf("replace friends: %w", err))
	}
	return nil
}
