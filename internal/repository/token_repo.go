package repository

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"favurls/internal/model"
)

const sessionValueBytes = 32

// TokenRepository persists refresh sessions. A session value is a 256-bit
// random string; the primary key constraint makes reuse impossible and a
// collision is treated as a configuration fault after one retry.
type TokenRepository struct {
	pool *pgxpool.Pool
	ttl  time.Duration
}

func NewTokenRepository(pool *pgxpool.Pool, ttl time.Duration) *TokenRepository {
	return &TokenRepository{pool: pool, ttl: ttl}
}

func (r *TokenRepository) Create(ctx context.Context, userID string) (string, error) {
	for attempt := 0; attempt < 2; attempt++ {
		value, err := newSessionValue()
		if err != nil {
			return "", err
		}

		_, err = r.pool.Exec(ctx,
			`INSERT INTO refresh_tokens (value, user_id, created_at, expires_at)
			 VALUES ($1, $2, $3, $4)`,
			value, userID, time.Now().UTC(), time.Now().UTC().Add(r.ttl))
		if isUniqueViolation(err) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("store refresh session: %w", err)
		}
		return value, nil
	}

	return "", errors.New("refresh session value collision: random source is broken")
}

func (r *TokenRepository) Find(ctx context.Context, value string) (model.User, error) {
	var u model.User
	err := r.pool.QueryRow(ctx,
		`SELECT u.id, u.email, u.password_hash, u.created_at, u.updated_at
		 FROM refresh_tokens t
		 JOIN app_users u ON u.id = t.user_id
		 WHERE t.value = $1 AND t.expires_at > now()`, value).
		Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return model.User{}, model.ErrTokenNotFound
	}
	if err != nil {
		return model.User{}, fmt.Errorf("find refresh session: %w", err)
	}
	return u, nil
}

// Revoke is idempotent: deleting a missing or already-deleted value is a no-op.
func (r *TokenRepository) Revoke(ctx context.Context, value string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM refresh_tokens WHERE value = $1`, value)
	if err != nil {
		return fmt.Errorf("revoke refresh session: %w", err)
	}
	return nil
}

// Rotate replaces oldValue with a fresh value in a single transaction so the
// two are never valid at the same time. The row lock makes a revoke racing a
// lookup resolve in a fixed order.
func (r *TokenRepository) Rotate(ctx context.Context, oldValue string) (string, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return "", fmt.Errorf("begin rotate: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var userID string
	err = tx.QueryRow(ctx,
		`SELECT user_id FROM refresh_tokens
		 WHERE value = $1 AND expires_at > now()
		 FOR UPDATE`, oldValue).Scan(&userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", model.ErrTokenNotFound
	}
	if err != nil {
		return "", fmt.Errorf("lock refresh session: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM refresh_tokens WHERE value = $1`, oldValue); err != nil {
		return "", fmt.Errorf("delete rotated session: %w", err)
	}

	newValue, err := newSessionValue()
	if err != nil {
		return "", err
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO refresh_tokens (value, user_id, created_at, expires_at)
		 VALUES ($1, $2, $3, $4)`,
		newValue, userID, time.Now().UTC(), time.Now().UTC().Add(r.ttl))
	if err != nil {
		return "", fmt.Errorf("insert rotated session: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return "", fmt.Errorf("commit rotate: %w", err)
	}
	return newValue, nil
}

func (r *TokenRepository) RevokeAllForUser(ctx context.Context, userID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM refresh_tokens WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("revoke all refresh sessions: %w", err)
	}
	return nil
}

func (r *TokenRepository) CleanExpired(ctx context.Context) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM refresh_tokens WHERE expires_at <= now()`)
	if err != nil {
		return 0, fmt.Errorf("clean expired sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}

func newSessionValue() (string, error) {
	buf := make([]byte, sessionValueBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate session value: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
