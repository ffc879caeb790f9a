package client

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"favurls/internal/model"
)

// SessionStore is the client-side session cache: either Anonymous or
// Authenticated with a public profile, never the raw credentials. The profile
// is mirrored to a JSON file so a restarted client comes back Authenticated
// without a server round trip; a stale snapshot is corrected lazily by the
// first failed request.
type SessionStore struct {
	mu   sync.RWMutex
	path string
	user *model.PublicUser
}

func NewSessionStore(path string) *SessionStore {
	s := &SessionStore{path: path}
	s.rehydrate()
	return s
}

// Current reports the cached profile and whether the store is Authenticated.
func (s *SessionStore) Current() (model.PublicUser, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.user == nil {
		return model.PublicUser{}, false
	}
	return *s.user, true
}

func (s *SessionStore) Login(user model.PublicUser) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.user = &user
	s.persistLocked()
}

func (s *SessionStore) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.user = nil
	if s.path == "" {
		return
	}
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		slog.Warn("removing session snapshot failed", "error", err)
	}
}

func (s *SessionStore) rehydrate() {
	if s.path == "" {
		return
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return
	}

	var user model.PublicUser
	if err := json.Unmarshal(data, &user); err != nil || user.ID == "" {
		return
	}
	s.user = &user
}

func (s *SessionStore) persistLocked() {
	if s.path == "" || s.user == nil {
		return
	}

	data, err := json.Marshal(s.user)
	if err != nil {
		slog.Warn("encoding session snapshot failed", "error", err)
		return
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		slog.Warn("creating session snapshot dir failed", "error", err)
		return
	}

	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		slog.Warn("writing session snapshot failed", "error", err)
	}
}
