package score

import (
	"fmt"
	"strings"
	"time"
)

// App identifies a micro-app that owns a singleton score row.
type App string

const (
	SnapTask    App = "snaptask"
	ActivityJar App = "activityjar"
	Roamio      App = "roamio"
)

// Apps lists every micro-app whose score feeds the aggregate.
var Apps = []App{SnapTask, ActivityJar, Roamio}

// Table is the singleton table holding the app's score.
func (a App) Table() string {
	return string(a) + "_score"
}

func ParseApp(s string) (App, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, a := range Apps {
		if string(a) == s {
			return a, nil
		}
	}
	return "", fmt.Errorf("unknown micro-app %q", s)
}

// MicroAppScore is the shape shared by snaptask_score, activityjar_score and
// roamio_score. The table is chosen per query.
type MicroAppScore struct {
	ID        int       `gorm:"column:id;primaryKey"`
	Score     int       `gorm:"column:score;not null;default:0"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

type GlobalScore struct {
	ID        int       `gorm:"column:id;primaryKey"`
	UID       string    `gorm:"column:uid;not null"`
	Score     int       `gorm:"column:score;not null;default:0"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (GlobalScore) TableName() string {
	return "global_score"
}
