package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"favurls/internal/model"
)

type urlStore interface {
	ListByUser(ctx context.Context, userID string) ([]model.URL, error)
	FindByID(ctx context.Context, id string, userID string) (model.URL, error)
	Create(ctx context.Context, u model.URL) error
	Update(ctx context.Context, u model.URL) error
	Delete(ctx context.Context, id string, userID string) error
}

// URLService is the bookmark collaborator. It only ever sees a verified user
// id; session handling is someone else's job.
type URLService struct {
	urls urlStore
}

func NewURLService(urls urlStore) *URLService {
	return &URLService{urls: urls}
}

func (s *URLService) List(ctx context.Context, userID string) ([]model.URL, error) {
	return s.urls.ListByUser(ctx, userID)
}

func (s *URLService) Create(ctx context.Context, userID string, req model.CreateURLRequest) (model.URL, error) {
	address := strings.TrimSpace(req.Address)
	if address == "" {
		return model.URL{}, model.ErrInvalidInput
	}

	now := time.Now().UTC()
	u := model.URL{
		ID:        uuid.NewString(),
		UserID:    userID,
		Address:   address,
		Title:     strings.TrimSpace(req.Title),
		Tags:      normalizeTags(req.Tags),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.urls.Create(ctx, u); err != nil {
		return model.URL{}, err
	}
	return u, nil
}

func (s *URLService) Update(ctx context.Context, userID string, id string, req model.UpdateURLRequest) (model.URL, error) {
	u, err := s.urls.FindByID(ctx, id, userID)
	if err != nil {
		return model.URL{}, err
	}

	if address := strings.TrimSpace(req.Address); address != "" {
		u.Address = address
	}
	u.Title = strings.TrimSpace(req.Title)
	u.Tags = normalizeTags(req.Tags)
	u.UpdatedAt = time.Now().UTC()

	if err := s.urls.Update(ctx, u); err != nil {
		return model.URL{}, err
	}
	return u, nil
}

func (s *URLService) Delete(ctx context.Context, userID string, id string) error {
	return s.urls.Delete(ctx, id, userID)
}

func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := map[string]struct{}{}
	for _, tag := range tags {
		trimmed := strings.ToLower(strings.TrimSpace(tag))
		if trimmed == "" {
			continue
		}
		if _, dup := seen[trimmed]; dup {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	return out
}
