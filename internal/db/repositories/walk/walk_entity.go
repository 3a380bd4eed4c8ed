package walk

import "time"

// WalkSession is a finished Roamio walk.
type WalkSession struct {
	ID        string    `gorm:"column:id;primaryKey" json:"id"`
	StartedAt time.Time `gorm:"column:started_at;not null" json:"started_at"`
	EndedAt   time.Time `gorm:"column:ended_at;not null" json:"ended_at"`
	DistanceM float64   `gorm:"column:distance_m;not null;default:0" json:"distance_m"`
	Steps     int       `gorm:"column:steps;not null;default:0" json:"steps"`
	Points    int       `gorm:"column:points;not null;default:0" json:"points"`
}

func (WalkSession) TableName() string {
	return "walk_sessions"
}

// CurrentWalk is the single live walk on this device.
type CurrentWalk struct {
	ID        int       `gorm:"column:id;primaryKey"`
	WalkID    string    `gorm:"column:walk_id;not null"`
	StartedAt time.Time `gorm:"column:started_at;not null"`
	DistanceM float64   `gorm:"column:distance_m;not null;default:0"`
	Steps     int       `gorm:"column:steps;not null;default:0"`
}

func (CurrentWalk) TableName() string {
	return "current_walk"
}
