package profile

import "time"

type UserProfile struct {
	UID       string    `gorm:"column:uid;primaryKey" json:"uid"`
	Name      string    `gorm:"column:name;not null;default:''" json:"name"`
	Email     string    `gorm:"column:email;not null;default:''" json:"email"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (UserProfile) TableName() string {
	return "user_profile"
}
