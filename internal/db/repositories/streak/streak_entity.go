package streak

// Streak is the singleton streak row. LastCheckedDate is a local calendar
// date in YYYY-MM-DD form, empty before the first check-in.
type Streak struct {
	ID              int    `gorm:"column:id;primaryKey"`
	Count           int    `gorm:"column:count;not null;default:0"`
	LastCheckedDate string `gorm:"column:last_checked_date;not null;default:''"`
}

func (Streak) TableName() string {
	return "streak"
}
