// Package session holds the authenticated session: the bearer token and the
// user profile. The store is the single writer of the token; every other
// component reads it through Token or Current.
package session

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/Sai2266/dealership-platform/internal/apperr"
	"github.com/Sai2266/dealership-platform/internal/models"
	"github.com/Sai2266/dealership-platform/internal/storage"
)

const sessionFile = "session.json"

// Store holds the current session in memory and persists it to the state
// directory so a new process resumes logged in.
type Store struct {
	files storage.Provider

	mu  sync.RWMutex
	cur *models.Session
}

// NewStore creates a store backed by files and loads any persisted session.
// A corrupt session file is treated as absent and removed.
func NewStore(files storage.Provider) *Store {
	s := &Store{files: files}
	data, err := files.Read(sessionFile)
	if err != nil {
		return s
	}
	var sess models.Session
	if err := json.Unmarshal(data, &sess); err != nil || sess.Token == "" {
		_ = files.Delete(sessionFile)
		return s
	}
	s.cur = &sess
	return s
}

// Establish persists the token and user. On storage failure the session is
// not established and ErrStorageUnavailable is returned, so login is
// reported as failed.
func (s *Store) Establish(token string, user models.User) error {
	sess := models.Session{Token: token, User: user}
	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return fmt.Errorf("session: encode: %w", err)
	}
	if err := s.files.Write(sessionFile, data); err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrStorageUnavailable, err)
	}
	s.mu.Lock()
	s.cur = &sess
	s.mu.Unlock()
	return nil
}

// Clear removes the token and user. Idempotent.
func (s *Store) Clear() {
	s.mu.Lock()
	s.cur = nil
	s.mu.Unlock()
	_ = s.files.Delete(sessionFile)
}

// Current returns the session, if one exists. Pure read.
func (s *Store) Current() (models.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cur == nil {
		return models.Session{}, false
	}
	return *s.cur, true
}

// Token returns the bearer token for outgoing requests.
func (s *Store) Token() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cur == nil {
		return "", false
	}
	return s.cur.Token, true
}

// Invalidate clears the session and reports whether this call performed the
// present→absent transition. Concurrent invalidations (for example several
// in-flight requests all answered 401) observe false, which lets callers
// run teardown side effects exactly once.
func (s *Store) Invalidate() bool {
	s.mu.Lock()
	had := s.cur != nil
	s.cur = nil
	s.mu.Unlock()
	if had {
		_ = s.files.Delete(sessionFile)
	}
	return had
}
