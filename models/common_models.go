package models

// Response status constants
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Conversation roles
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)
