package friend

type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
)

// Friend is a cached row derived from the remote friend subtree. It is never
// authoritative.
type Friend struct {
	FriendUID   string `gorm:"column:friend_uid;primaryKey" json:"friend_uid"`
	DisplayName string `gorm:"column:display_name;not null;default:''" json:"display_name"`
	Status      Status `gorm:"column:status;not null" json:"status"`
	Score       int    `gorm:"column:score;not null;default:0" json:"score"`
}

func (Friend) TableName() string {
	return "friends"
}
