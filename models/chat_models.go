package models

import "time"

// ChatRequest represents an incoming chat request
type ChatRequest struct {
	Message          string `json:"message"`
	SessionID        string `json:"session_id,omitempty"`
	UseKnowledgeBase *bool  `json:"use_knowledge_base,omitempty"` // nil means true
}

// ChatResponse represents the response returned to the caller
type ChatResponse struct {
	Response  string    `json:"response,omitempty"`
	SessionID string    `json:"session_id,omitempty"`
	Status    string    `json:"status"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// HistoryResponse represents the conversation history of a session
type HistoryResponse struct {
	SessionID string             `json:"session_id"`
	History   []ConversationTurn `json:"history"`
}

// ClearRequest asks for a session's history to be emptied
type ClearRequest struct {
	SessionID string `json:"session_id"`
}
