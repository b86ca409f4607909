package entities

import "time"

// PendingToken is an issued whisper waiting to be read by its target.
// The whisper text itself is never persisted; only the routing row is.
type PendingToken struct {
	Token     string    `gorm:"column:token;primaryKey"`
	FromID    int64     `gorm:"column:from_id;not null"`
	TargetID  int64     `gorm:"column:target_id;not null"`
	ChatID    int64     `gorm:"column:chat_id;not null"`
	ChatTitle string    `gorm:"column:chat_title"`
	ExpiresAt time.Time `gorm:"column:expires_at;not null;index:idx_pending_tokens_exp"`
}

// TableName returns the table name for the PendingToken entity
func (PendingToken) TableName() string {
	return "pending_tokens"
}

// WaitingText marks a user the bot expects a whisper text from in DM.
// One wait per user; a new trigger replaces the previous one.
type WaitingText struct {
	UserID    int64     `gorm:"column:user_id;primaryKey"`
	TargetID  int64     `gorm:"column:target_id;not null"`
	ChatID    int64     `gorm:"column:chat_id;not null"`
	ChatTitle string    `gorm:"column:chat_title"`
	ExpiresAt time.Time `gorm:"column:expires_at;not null;index:idx_waiting_text_exp"`
}

// TableName returns the table name for the WaitingText entity
func (WaitingText) TableName() string {
	return "waiting_text"
}

// Subscription subscribes a user to activity reports of a group
type Subscription struct {
	GroupID int64 `gorm:"column:group_id;primaryKey"`
	UserID  int64 `gorm:"column:user_id;primaryKey"`
}

// TableName returns the table name for the Subscription entity
func (Subscription) TableName() string {
	return "subscriptions"
}

// StoredMessage points at a Telegram message the bot may later edit or delete
type StoredMessage struct {
	ChatID    int64
	MessageID int
}
