package profile

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/MyelinBots/wellness-sync/internal/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProfileRepository interface {
	GetProfile(ctx context.Context, uid string) (*UserProfile, error)
	UpsertProfile(ctx context.Context, p *UserProfile) error
}

type ProfileRepositoryImpl struct {
	db *db.DB
}

func NewProfileRepository(database *db.DB) ProfileRepository {
	return &ProfileRepositoryImpl{db: database}
}

func (r *ProfileRepositoryImpl) GetProfile(ctx context.Context, uid string) (*UserProfile, error) {
	var p UserProfile
	err := r.db.DB.WithContext(ctx).Where("uid = ?", strings.TrimSpace(uid)).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, db.Classify(fmt.Errorf("read profile: %w", err))
	}
	return &p, nil
}

// UpsertProfile keys on uid and keeps the original created_at.
func (r *ProfileRepositoryImpl) UpsertProfile(ctx context.Context, p *UserProfile) error {
	p.UID = strings.TrimSpace(p.UID)
	err := r.db.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "uid"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "email", "updated_at"}),
		}).
		Create(p).Error
	if err != nil {
		return db.Classify(fmt.Errorf("write profile: %w", err))
	}
	return nil
}
