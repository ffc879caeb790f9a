package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"favurls/internal/model"
)

type URLRepository struct {
	pool *pgxpool.Pool
}

func NewURLRepository(pool *pgxpool.Pool) *URLRepository {
	return &URLRepository{pool: pool}
}

func (r *URLRepository) ListByUser(ctx context.Context, userID string) ([]model.URL, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, address, title, tags, created_at, updated_at
		 FROM urls WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list urls: %w", err)
	}
	defer rows.Close()

	urls := make([]model.URL, 0)
	for rows.Next() {
		var u model.URL
		if err := rows.Scan(&u.ID, &u.UserID, &u.Address, &u.Title, &u.Tags, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan url: %w", err)
		}
		urls = append(urls, u)
	}
	return urls, rows.Err()
}

func (r *URLRepository) FindByID(ctx context.Context, id string, userID string) (model.URL, error) {
	var u model.URL
	err := r.pool.QueryRow(ctx,
		`SELECT id, user_id, address, title, tags, created_at, updated_at
		 FROM urls WHERE id = $1 AND user_id = $2`, id, userID).
		Scan(&u.ID, &u.UserID, &u.Address, &u.Title, &u.Tags, &u.CreatedAt, &u.UpdatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return model.URL{}, model.ErrURLNotFound
	}
	if err != nil {
		return model.URL{}, fmt.Errorf("find url: %w", err)
	}
	return u, nil
}

func (r *URLRepository) Create(ctx context.Context, u model.URL) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO urls (id, user_id, address, title, tags, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		u.ID, u.UserID, u.Address, u.Title, u.Tags, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create url: %w", err)
	}
	return nil
}

func (r *URLRepository) Update(ctx context.Context, u model.URL) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE urls SET address = $3, title = $4, tags = $5, updated_at = $6
		 WHERE id = $1 AND user_id = $2`,
		u.ID, u.UserID, u.Address, u.Title, u.Tags, u.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update url: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrURLNotFound
	}
	return nil
}

func (r *URLRepository) Delete(ctx context.Context, id string, userID string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM urls WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete url: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrURLNotFound
	}
	return nil
}
