package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"favurls/internal/model"
)

const bcryptCost = 12

type userStore interface {
	FindByEmail(ctx context.Context, email string) (model.User, error)
	FindByID(ctx context.Context, id string) (model.User, error)
	Create(ctx context.Context, u model.User) error
}

type sessionStore interface {
	Create(ctx context.Context, userID string) (string, error)
	Find(ctx context.Context, value string) (model.User, error)
	Revoke(ctx context.Context, value string) error
	Rotate(ctx context.Context, value string) (string, error)
}

// AuthService issues and renews login sessions. Login failure is reported as
// model.ErrInvalidCredentials for both unknown email and wrong password, and
// the unknown-email path burns a bcrypt comparison so the two rejections are
// not distinguishable by timing.
type AuthService struct {
	jwtSecret       []byte
	accessTTL       time.Duration
	rotateOnRefresh bool
	users           userStore
	sessions        sessionStore
	dummyHash       []byte
}

func NewAuthService(jwtSecret string, accessTTL time.Duration, rotateOnRefresh bool, users userStore, sessions sessionStore) (*AuthService, error) {
	if strings.TrimSpace(jwtSecret) == "" {
		return nil, errors.New("jwt secret is required")
	}

	dummyHash, err := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("generate dummy hash: %w", err)
	}

	return &AuthService{
		jwtSecret:       []byte(jwtSecret),
		accessTTL:       accessTTL,
		rotateOnRefresh: rotateOnRefresh,
		users:           users,
		sessions:        sessions,
		dummyHash:       dummyHash,
	}, nil
}

func (s *AuthService) Login(ctx context.Context, email string, password string) (model.Session, error) {
	user, err := s.users.FindByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, model.ErrUserNotFound) {
		// Same work and same error as the wrong-password path.
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
		return model.Session{}, model.ErrInvalidCredentials
	}
	if err != nil {
		return model.Session{}, fmt.Errorf("look up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return model.Session{}, model.ErrInvalidCredentials
	}

	refreshValue, err := s.sessions.Create(ctx, user.ID)
	if err != nil {
		return model.Session{}, fmt.Errorf("create refresh session: %w", err)
	}

	accessToken, err := s.signAccessToken(user)
	if err != nil {
		return model.Session{}, err
	}

	csrfToken, err := NewCSRFToken()
	if err != nil {
		return model.Session{}, err
	}

	return model.Session{
		AccessToken:  accessToken,
		RefreshToken: refreshValue,
		CSRFToken:    csrfToken,
		User:         user.Public(),
	}, nil
}

func (s *AuthService) Register(ctx context.Context, email string, password string) (model.PublicUser, error) {
	email = strings.TrimSpace(email)
	if email == "" || !strings.Contains(email, "@") || strings.TrimSpace(password) == "" {
		return model.PublicUser{}, model.ErrInvalidInput
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return model.PublicUser{}, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	user := model.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return model.PublicUser{}, err
	}

	return user.Public(), nil
}

// Refresh renews the access credential for a valid refresh session. When
// rotation is enabled the returned RefreshToken differs from refreshValue and
// the old value is already revoked; otherwise it echoes refreshValue.
func (s *AuthService) Refresh(ctx context.Context, refreshValue string) (model.Session, error) {
	if refreshValue == "" {
		return model.Session{}, model.ErrSessionInvalid
	}

	user, err := s.sessions.Find(ctx, refreshValue)
	if errors.Is(err, model.ErrTokenNotFound) {
		return model.Session{}, model.ErrSessionInvalid
	}
	if err != nil {
		return model.Session{}, fmt.Errorf("look up refresh session: %w", err)
	}

	if s.rotateOnRefresh {
		rotated, err := s.sessions.Rotate(ctx, refreshValue)
		if errors.Is(err, model.ErrTokenNotFound) {
			// Lost the race against a concurrent revoke.
			return model.Session{}, model.ErrSessionInvalid
		}
		if err != nil {
			return model.Session{}, fmt.Errorf("rotate refresh session: %w", err)
		}
		refreshValue = rotated
	}

	accessToken, err := s.signAccessToken(user)
	if err != nil {
		return model.Session{}, err
	}

	return model.Session{
		AccessToken:  accessToken,
		RefreshToken: refreshValue,
		User:         user.Public(),
	}, nil
}

// Logout revokes the refresh session. Revoking an unknown or already-revoked
// value succeeds.
func (s *AuthService) Logout(ctx context.Context, refreshValue string) error {
	if refreshValue == "" {
		return nil
	}
	return s.sessions.Revoke(ctx, refreshValue)
}

func (s *AuthService) GetUserByID(ctx context.Context, userID string) (model.PublicUser, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return model.PublicUser{}, err
	}
	return user.Public(), nil
}

func (s *AuthService) ValidateAccess(tokenString string) (*model.AuthClaims, error) {
	parsed, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, model.ErrUnauthorized
		}
		return s.jwtSecret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, model.ErrUnauthorized
	}

	claimsMap, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, model.ErrUnauthorized
	}

	claims := &model.AuthClaims{}
	claims.UserID, _ = claimsMap["sub"].(string)
	claims.Email, _ = claimsMap["email"].(string)
	claims.TokenID, _ = claimsMap["jti"].(string)

	if claims.UserID == "" {
		return nil, model.ErrUnauthorized
	}

	return claims, nil
}

func (s *AuthService) signAccessToken(user model.User) (string, error) {
	now := time.Now().UTC()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   user.ID,
		"email": user.Email,
		"jti":   uuid.NewString(),
		"iat":   now.Unix(),
		"exp":   now.Add(s.accessTTL).Unix(),
	})

	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return signed, nil
}

// NewCSRFToken returns a fresh double-submit token. It only needs to be
// unpredictable; it is not tied to the user or signed.
func NewCSRFToken() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate csrf token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
