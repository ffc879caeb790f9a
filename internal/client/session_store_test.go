package client

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"favurls/internal/model"
)

func TestSessionStoreStartsAnonymous(t *testing.T) {
	store := NewSessionStore(filepath.Join(t.TempDir(), "session.json"))

	_, authenticated := store.Current()
	assert.False(t, authenticated)
}

func TestSessionStoreRehydratesFromSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")

	first := NewSessionStore(path)
	first.Login(model.PublicUser{ID: "u1", Email: "ada@example.com"})

	second := NewSessionStore(path)
	user, authenticated := second.Current()
	require.True(t, authenticated)
	assert.Equal(t, "u1", user.ID)
	assert.Equal(t, "ada@example.com", user.Email)
}

func TestSessionStoreIgnoresCorruptSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	store := NewSessionStore(path)
	_, authenticated := store.Current()
	assert.False(t, authenticated)
}

func TestSessionStoreLogoutRemovesSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")

	store := NewSessionStore(path)
	store.Login(model.PublicUser{ID: "u1", Email: "ada@example.com"})
	store.Logout()

	_, authenticated := store.Current()
	assert.False(t, authenticated)

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	// A second logout with no snapshot on disk must stay quiet.
	store.Logout()
}

func TestSessionStoreWithoutPathIsMemoryOnly(t *testing.T) {
	store := NewSessionStore("")
	store.Login(model.PublicUser{ID: "u1", Email: "ada@example.com"})

	_, authenticated := store.Current()
	assert.True(t, authenticated)

	store.Logout()
	_, authenticated = store.Current()
	assert.False(t, authenticated)
}
