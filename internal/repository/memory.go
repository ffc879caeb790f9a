package repository

import (
	"context"
	"strings"
	"sync"
	"time"

	"favurls/internal/model"
)

// In-memory implementations of the repositories. They back the unit tests and
// keep the same contracts as the PostgreSQL versions, including linearizable
// revoke-versus-find behavior on the session store.

type MemoryUserRepository struct {
	mu      sync.RWMutex
	byID    map[string]model.User
	byEmail map[string]model.User
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		byID:    map[string]model.User{},
		byEmail: map[string]model.User{},
	}
}

func (r *MemoryUserRepository) FindByID(_ context.Context, id string) (model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, exists := r.byID[id]
	if !exists {
		return model.User{}, model.ErrUserNotFound
	}
	return user, nil
}

func (r *MemoryUserRepository) FindByEmail(_ context.Context, email string) (model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, exists := r.byEmail[strings.ToLower(strings.TrimSpace(email))]
	if !exists {
		return model.User{}, model.ErrUserNotFound
	}
	return user, nil
}

func (r *MemoryUserRepository) Create(_ context.Context, u model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := strings.ToLower(u.Email)
	if _, exists := r.byEmail[key]; exists {
		return model.ErrUserAlreadyExists
	}

	r.byID[u.ID] = u
	r.byEmail[key] = u
	return nil
}

type memorySession struct {
	userID    string
	expiresAt time.Time
}

type MemoryTokenRepository struct {
	mu       sync.Mutex
	ttl      time.Duration
	sessions map[string]memorySession
	users    *MemoryUserRepository
}

func NewMemoryTokenRepository(users *MemoryUserRepository, ttl time.Duration) *MemoryTokenRepository {
	return &MemoryTokenRepository{
		ttl:      ttl,
		sessions: map[string]memorySession{},
		users:    users,
	}
}

func (r *MemoryTokenRepository) Create(_ context.Context, userID string) (string, error) {
	value, err := newSessionValue()
	if err != nil {
		return "", err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.sessions[value] = memorySession{userID: userID, expiresAt: time.Now().UTC().Add(r.ttl)}
	return value, nil
}

func (r *MemoryTokenRepository) Find(ctx context.Context, value string) (model.User, error) {
	r.mu.Lock()
	session, exists := r.sessions[value]
	r.mu.Unlock()

	if !exists || time.Now().UTC().After(session.expiresAt) {
		return model.User{}, model.ErrTokenNotFound
	}
	return r.users.FindByID(ctx, session.userID)
}

func (r *MemoryTokenRepository) Revoke(_ context.Context, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sessions, value)
	return nil
}

func (r *MemoryTokenRepository) Rotate(_ context.Context, oldValue string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, exists := r.sessions[oldValue]
	if !exists || time.Now().UTC().After(session.expiresAt) {
		return "", model.ErrTokenNotFound
	}

	newValue, err := newSessionValue()
	if err != nil {
		return "", err
	}

	delete(r.sessions, oldValue)
	r.sessions[newValue] = memorySession{userID: session.userID, expiresAt: time.Now().UTC().Add(r.ttl)}
	return newValue, nil
}

func (r *MemoryTokenRepository) RevokeAllForUser(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for value, session := range r.sessions {
		if session.userID == userID {
			delete(r.sessions, value)
		}
	}
	return nil
}

func (r *MemoryTokenRepository) CleanExpired(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var removed int64
	now := time.Now().UTC()
	for value, session := range r.sessions {
		if now.After(session.expiresAt) {
			delete(r.sessions, value)
			removed++
		}
	}
	return removed, nil
}

type MemoryURLRepository struct {
	mu   sync.RWMutex
	byID map[string]model.URL
}

func NewMemoryURLRepository() *MemoryURLRepository {
	return &MemoryURLRepository{byID: map[string]model.URL{}}
}

func (r *MemoryURLRepository) ListByUser(_ context.Context, userID string) ([]model.URL, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	urls := make([]model.URL, 0)
	for _, u := range r.byID {
		if u.UserID == userID {
			urls = append(urls, u)
		}
	}
	return urls, nil
}

func (r *MemoryURLRepository) FindByID(_ context.Context, id string, userID string) (model.URL, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, exists := r.byID[id]
	if !exists || u.UserID != userID {
		return model.URL{}, model.ErrURLNotFound
	}
	return u, nil
}

func (r *MemoryURLRepository) Create(_ context.Context, u model.URL) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.byID[u.ID] = u
	return nil
}

func (r *MemoryURLRepository) Update(_ context.Context, u model.URL) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, exists := r.byID[u.ID]
	if !exists || existing.UserID != u.UserID {
		return model.ErrURLNotFound
	}
	r.byID[u.ID] = u
	return nil
}

func (r *MemoryURLRepository) Delete(_ context.Context, id string, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, exists := r.byID[id]
	if !exists || existing.UserID != userID {
		return model.ErrURLNotFound
	}
	delete(r.byID, id)
	return nil
}
