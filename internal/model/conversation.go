package model

import (
	"encoding/json"
	"time"
)

// Turn is one message of a chat session.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Conversation is one record per chat session. The transcript is replaced
// wholesale on every turn; NeedsHandoff marks turns the assistant could not
// answer confidently.
type Conversation struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	SessionID    string     `gorm:"size:64;not null;uniqueIndex" json:"session_id"`
	Messages     string     `gorm:"type:text;not null" json:"-"`
	NeedsHandoff bool       `gorm:"not null;default:false" json:"needs_handoff"`
	HandoffAt    *time.Time `json:"handoff_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Turns returns the parsed transcript; empty on parse error.
func (c *Conversation) Turns() []Turn {
	if c.Messages == "" {
		return nil
	}
	var turns []Turn
	_ = json.Unmarshal([]byte(c.Messages), &turns)
	return turns
}

// SetTurns stores the transcript as JSON.
func (c *Conversation) SetTurns(turns []Turn) {
	if len(turns) == 0 {
		c.Messages = "[]"
		return
	}
	b, _ := json.Marshal(turns)
	c.Messages = string(b)
}
