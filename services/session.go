package services

import (
	"time"

	"asistente/models"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// SessionStore maps opaque session ids to conversation history. Sessions live
// for the process lifetime only and expire after an idle TTL; every access
// slides the expiry forward. Mutations to the same session are serialized by
// the session's own mutex, sessions are otherwise independent.
type SessionStore struct {
	ttl      time.Duration
	sessions *cache.Cache
}

// NewSessionStore creates a store whose sessions expire after ttl of
// inactivity. ttl <= 0 defaults to one hour; the janitor sweeps expired
// sessions every ten minutes.
func NewSessionStore(ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &SessionStore{
		ttl:      ttl,
		sessions: cache.New(ttl, 10*time.Minute),
	}
}

// GetOrCreate returns the session for id, minting a new one with a fresh
// opaque id when id is empty or unknown.
func (s *SessionStore) GetOrCreate(id string) *models.Session {
	if id != "" {
		if v, ok := s.sessions.Get(id); ok {
			sess := v.(*models.Session)
			s.touch(sess)
			return sess
		}
	}

	sess := models.NewSession(uuid.NewString())
	s.sessions.Set(sess.ID, sess, cache.DefaultExpiration)
	return sess
}

// Append adds a turn to the session's history. Returns ErrSessionNotFound
// when the id is unknown or expired.
func (s *SessionStore) Append(id string, turn models.ConversationTurn) error {
	v, ok := s.sessions.Get(id)
	if !ok {
		return ErrSessionNotFound
	}
	sess := v.(*models.Session)

	sess.Mu.Lock()
	sess.Turns = append(sess.Turns, turn)
	sess.Mu.Unlock()

	s.touch(sess)
	return nil
}

// GetHistory returns a copy of the session's full, unbounded history. An
// unknown id yields an empty history, not an error.
func (s *SessionStore) GetHistory(id string) []models.ConversationTurn {
	v, ok := s.sessions.Get(id)
	if !ok {
		return nil
	}
	sess := v.(*models.Session)
	s.touch(sess)

	sess.Mu.Lock()
	defer sess.Mu.Unlock()
	out := make([]models.ConversationTurn, len(sess.Turns))
	copy(out, sess.Turns)
	return out
}

// Clear empties the session's history while preserving its identity.
// Idempotent; clearing an unknown id is a no-op and reports false.
func (s *SessionStore) Clear(id string) bool {
	v, ok := s.sessions.Get(id)
	if !ok {
		return false
	}
	sess := v.(*models.Session)

	sess.Mu.Lock()
	sess.Turns = nil
	sess.Mu.Unlock()

	s.touch(sess)
	return true
}

// Delete removes the session entirely. Reports whether it existed.
func (s *SessionStore) Delete(id string) bool {
	if _, ok := s.sessions.Get(id); !ok {
		return false
	}
	s.sessions.Delete(id)
	return true
}

// Count returns the number of live (non-expired) sessions.
func (s *SessionStore) Count() int {
	return s.sessions.ItemCount()
}

// touch slides the session's expiry forward.
func (s *SessionStore) touch(sess *models.Session) {
	s.sessions.Set(sess.ID, sess, cache.DefaultExpiration)
}
