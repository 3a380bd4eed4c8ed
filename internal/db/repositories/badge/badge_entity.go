package badge

import "time"

type Badge struct {
	BadgeID   string    `gorm:"column:badge_id;primaryKey" json:"badge_id"`
	AwardedAt time.Time `gorm:"column:awarded_at" json:"awarded_at"`
}

func (Badge) TableName() string {
	return "badges"
}
