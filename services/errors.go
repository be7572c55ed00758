package services

import (
	"errors"
	"fmt"
)

// Gateway and session error sentinels. Callers match with errors.Is to pick
// the right boundary response.
var (
	ErrModelUnavailable = errors.New("model endpoint unavailable")
	ErrModelTimeout     = errors.New("model request timed out")
	ErrSessionNotFound  = errors.New("session not found")
)

// LoadError reports a missing or malformed knowledge base file. Fatal at
// startup: there is no partial load.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("loading knowledge base %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}
