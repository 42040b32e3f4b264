package model

import "time"

// TurnEvent announces that a chat turn received its assistant message.
type TurnEvent struct {
	TurnID     uint      `json:"turn_id"`
	SessionID  string    `json:"session_id"`
	Degraded   bool      `json:"degraded"`
	AnsweredAt time.Time `json:"answered_at"`
}
