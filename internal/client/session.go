// Package client implements the device-side half of Couplex: the session
// store, partnership resolver, emotion feed cache, realtime subscriber and
// notification bridge.
package client

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sadbytecom/couplex/internal/models"
)

const sessionFile = "session.json"

// Session is the persisted identity of the logged-in user.
type Session struct {
	User  models.User `json:"user"`
	Token string      `json:"token"`
}

// SessionStore persists one session record to local device storage.
type SessionStore struct {
	dir string
}

// NewSessionStore creates a store rooted at dir.
func NewSessionStore(dir string) *SessionStore {
	return &SessionStore{dir: dir}
}

func (s *SessionStore) path() string {
	return filepath.Join(s.dir, sessionFile)
}

// Restore reads the persisted session. An absent or malformed blob yields
// (nil, false); malformed data is cleared so repeated calls behave the same.
func (s *SessionStore) Restore() (*Session, bool) {
	data, err := os.ReadFile(s.path())
	if err != nil {
		return nil, false
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil || sess.User.ID == "" || sess.Token == "" {
		_ = s.Clear()
		return nil, false
	}

	return &sess, true
}

// Save persists the full session record.
func (s *SessionStore) Save(sess *Session) error {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("failed to create session dir: %w", err)
	}

	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	if err := os.WriteFile(s.path(), data, 0o600); err != nil {
		return fmt.Errorf("failed to write session: %w", err)
	}
	return nil
}

// Clear removes the persisted session. Clearing an absent session is not an
// error.
func (s *SessionStore) Clear() error {
	if err := os.Remove(s.path()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}
