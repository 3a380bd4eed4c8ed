package sync_state

type SyncState struct {
	ID             int   `gorm:"column:id;primaryKey"`
	LastSyncMillis int64 `gorm:"column:last_sync_millis;not null;default:0"`
}

func (SyncState) TableName() string {
	return "sync_state"
}
