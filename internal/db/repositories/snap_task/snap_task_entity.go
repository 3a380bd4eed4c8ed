package snap_task

import "time"

// SnapTask is a verified (terminal) SnapTask record.
type SnapTask struct {
	ID         string     `gorm:"column:id;primaryKey" json:"id"`
	Title      string     `gorm:"column:title;not null" json:"title"`
	PhotoPath  string     `gorm:"column:photo_path;not null;default:''" json:"photo_path"`
	Points     int        `gorm:"column:points;not null;default:0" json:"points"`
	StartedAt  *time.Time `gorm:"column:started_at" json:"started_at,omitempty"`
	VerifiedAt time.Time  `gorm:"column:verified_at;not null" json:"verified_at"`
}

func (SnapTask) TableName() string {
	return "snap_tasks"
}

// PendingVerify is the single in-flight photo verification slot.
type PendingVerify struct {
	ID        int       `gorm:"column:id;primaryKey"`
	TaskID    string    `gorm:"column:task_id;not null"`
	Title     string    `gorm:"column:title;not null"`
	PhotoPath string    `gorm:"column:photo_path;not null;default:''"`
	StartedAt time.Time `gorm:"column:started_at;not null"`
}

func (PendingVerify) TableName() string {
	return "pending_verify"
}
