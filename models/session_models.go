package models

import (
	"sync"
	"time"
)

// ConversationTurn is a single message in a session's history. Immutable
// once created.
type ConversationTurn struct {
	Role      string    `json:"role"` // "user" or "assistant"
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Session holds the ordered conversation history for one opaque session id.
// The mutex serializes appends to the same session; sessions are otherwise
// independent of each other.
type Session struct {
	ID        string
	CreatedAt time.Time

	Mu    sync.Mutex
	Turns []ConversationTurn
}

// NewSession creates an empty session with the given id.
func NewSession(id string) *Session {
	return &Session{
		ID:        id,
		CreatedAt: time.Now(),
	}
}
