package activity

import "time"

type Activity struct {
	ID          string    `gorm:"column:id;primaryKey" json:"id"`
	Name        string    `gorm:"column:name;not null" json:"name"`
	Category    string    `gorm:"column:category;not null;default:''" json:"category"`
	Points      int       `gorm:"column:points;not null;default:0" json:"points"`
	CompletedAt time.Time `gorm:"column:completed_at;not null;index" json:"completed_at"`
}

func (Activity) TableName() string {
	return "activities"
}
