package model

import "time"

// ChatTurn is one user message and the assistant answer that follows it.
// AssistantMessage stays nil until the chat pipeline finishes.
type ChatTurn struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	SessionID        *string   `gorm:"size:128;index" json:"session_id"`
	UserMessage      string    `gorm:"type:text;not null" json:"user_message"`
	AssistantMessage *string   `gorm:"type:text" json:"assistant_message"`
	CreatedAt        time.Time `gorm:"not null;index" json:"created_at"`
}

func (ChatTurn) TableName() string {
	return "message"
}
