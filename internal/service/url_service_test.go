package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"favurls/internal/model"
	"favurls/internal/repository"
)

func newTestURLService() *URLService {
	return NewURLService(repository.NewMemoryURLRepository())
}

func TestCreateURLNormalizesTags(t *testing.T) {
	svc := newTestURLService()

	created, err := svc.Create(context.Background(), "user-1", model.CreateURLRequest{
		Address: "  https://go.dev  ",
		Title:   " The Go site ",
		Tags:    []string{"Go", "go", "  ", "Docs"},
	})
	require.NoError(t, err)

	require.Equal(t, "https://go.dev", created.Address)
	require.Equal(t, "The Go site", created.Title)
	require.Equal(t, []string{"go", "docs"}, created.Tags)
}

func TestCreateURLRequiresAddress(t *testing.T) {
	svc := newTestURLService()

	_, err := svc.Create(context.Background(), "user-1", model.CreateURLRequest{Address: "   "})
	require.ErrorIs(t, err, model.ErrInvalidInput)
}

func TestUpdateURLKeepsAddressWhenOmitted(t *testing.T) {
	svc := newTestURLService()

	created, err := svc.Create(context.Background(), "user-1", model.CreateURLRequest{Address: "https://go.dev", Title: "Go"})
	require.NoError(t, err)

	updated, err := svc.Update(context.Background(), "user-1", created.ID, model.UpdateURLRequest{Title: "Golang"})
	require.NoError(t, err)
	require.Equal(t, "https://go.dev", updated.Address)
	require.Equal(t, "Golang", updated.Title)
}

func TestURLsAreScopedToOwner(t *testing.T) {
	svc := newTestURLService()

	created, err := svc.Create(context.Background(), "user-1", model.CreateURLRequest{Address: "https://go.dev"})
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), "user-2", created.ID, model.UpdateURLRequest{Title: "hijacked"})
	require.ErrorIs(t, err, model.ErrURLNotFound)

	err = svc.Delete(context.Background(), "user-2", created.ID)
	require.ErrorIs(t, err, model.ErrURLNotFound)

	mine, err := svc.List(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, mine, 1)

	theirs, err := svc.List(context.Background(), "user-2")
	require.NoError(t, err)
	require.Empty(t, theirs)
}
