package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"favurls/internal/model"
	"favurls/internal/repository"
)

func newTestAuthService(t *testing.T, accessTTL time.Duration, rotate bool) (*AuthService, *repository.MemoryUserRepository, *repository.MemoryTokenRepository) {
	t.Helper()

	users := repository.NewMemoryUserRepository()
	sessions := repository.NewMemoryTokenRepository(users, 24*time.Hour)

	svc, err := NewAuthService("test-secret", accessTTL, rotate, users, sessions)
	require.NoError(t, err)

	return svc, users, sessions
}

func seedUser(t *testing.T, users *repository.MemoryUserRepository, email string, password string, cost int) model.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	require.NoError(t, err)

	now := time.Now().UTC()
	user := model.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, users.Create(context.Background(), user))

	return user
}

func TestLoginIssuesFullSession(t *testing.T) {
	svc, users, sessions := newTestAuthService(t, 5*time.Minute, false)
	user := seedUser(t, users, "ada@example.com", "correct horse", bcrypt.MinCost)

	session, err := svc.Login(context.Background(), "ada@example.com", "correct horse")
	require.NoError(t, err)

	require.Equal(t, user.Public(), session.User)
	require.NotEmpty(t, session.CSRFToken)
	require.NotEmpty(t, session.RefreshToken)

	claims, err := svc.ValidateAccess(session.AccessToken)
	require.NoError(t, err)
	require.Equal(t, user.ID, claims.UserID)
	require.Equal(t, user.Email, claims.Email)

	stored, err := sessions.Find(context.Background(), session.RefreshToken)
	require.NoError(t, err)
	require.Equal(t, user.ID, stored.ID)
}

func TestLoginEmailIsCaseInsensitive(t *testing.T) {
	svc, users, _ := newTestAuthService(t, 5*time.Minute, false)
	seedUser(t, users, "Ada@Example.com", "correct horse", bcrypt.MinCost)

	_, err := svc.Login(context.Background(), "ada@example.com", "correct horse")
	require.NoError(t, err)
}

func TestLoginRejectionsAreIndistinguishable(t *testing.T) {
	svc, users, _ := newTestAuthService(t, 5*time.Minute, false)
	seedUser(t, users, "ada@example.com", "correct horse", bcryptCost)

	startUnknown := time.Now()
	_, unknownErr := svc.Login(context.Background(), "nobody@example.com", "whatever")
	unknownTook := time.Since(startUnknown)

	startWrong := time.Now()
	_, wrongErr := svc.Login(context.Background(), "ada@example.com", "not the password")
	wrongTook := time.Since(startWrong)

	require.ErrorIs(t, unknownErr, model.ErrInvalidCredentials)
	require.ErrorIs(t, wrongErr, model.ErrInvalidCredentials)
	require.Equal(t, unknownErr.Error(), wrongErr.Error())

	// Both paths must pay for a bcrypt comparison; an instant unknown-email
	// rejection would leak which emails exist.
	require.Greater(t, unknownTook, 10*time.Millisecond)
	require.Greater(t, wrongTook, 10*time.Millisecond)
}

func TestRefreshMintsNewAccessCredential(t *testing.T) {
	svc, users, _ := newTestAuthService(t, 5*time.Minute, false)
	user := seedUser(t, users, "ada@example.com", "correct horse", bcrypt.MinCost)

	session, err := svc.Login(context.Background(), "ada@example.com", "correct horse")
	require.NoError(t, err)

	renewed, err := svc.Refresh(context.Background(), session.RefreshToken)
	require.NoError(t, err)
	require.Equal(t, session.RefreshToken, renewed.RefreshToken)

	claims, err := svc.ValidateAccess(renewed.AccessToken)
	require.NoError(t, err)
	require.Equal(t, user.ID, claims.UserID)
}

func TestRefreshRotationInvalidatesOldValue(t *testing.T) {
	svc, users, sessions := newTestAuthService(t, 5*time.Minute, true)
	seedUser(t, users, "ada@example.com", "correct horse", bcrypt.MinCost)

	session, err := svc.Login(context.Background(), "ada@example.com", "correct horse")
	require.NoError(t, err)

	renewed, err := svc.Refresh(context.Background(), session.RefreshToken)
	require.NoError(t, err)
	require.NotEqual(t, session.RefreshToken, renewed.RefreshToken)

	_, err = sessions.Find(context.Background(), session.RefreshToken)
	require.ErrorIs(t, err, model.ErrTokenNotFound)

	_, err = sessions.Find(context.Background(), renewed.RefreshToken)
	require.NoError(t, err)
}

func TestRefreshAfterLogoutReturnsSessionInvalid(t *testing.T) {
	svc, users, _ := newTestAuthService(t, 5*time.Minute, false)
	seedUser(t, users, "ada@example.com", "correct horse", bcrypt.MinCost)

	session, err := svc.Login(context.Background(), "ada@example.com", "correct horse")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), session.RefreshToken))

	_, err = svc.Refresh(context.Background(), session.RefreshToken)
	require.ErrorIs(t, err, model.ErrSessionInvalid)
}

func TestLogoutIsIdempotent(t *testing.T) {
	svc, users, _ := newTestAuthService(t, 5*time.Minute, false)
	seedUser(t, users, "ada@example.com", "correct horse", bcrypt.MinCost)

	session, err := svc.Login(context.Background(), "ada@example.com", "correct horse")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), session.RefreshToken))
	require.NoError(t, svc.Logout(context.Background(), session.RefreshToken))
	require.NoError(t, svc.Logout(context.Background(), "never-issued"))
	require.NoError(t, svc.Logout(context.Background(), ""))
}

func TestValidateAccessRejectsExpiredToken(t *testing.T) {
	svc, users, _ := newTestAuthService(t, -time.Minute, false)
	seedUser(t, users, "ada@example.com", "correct horse", bcrypt.MinCost)

	session, err := svc.Login(context.Background(), "ada@example.com", "correct horse")
	require.NoError(t, err)

	_, err = svc.ValidateAccess(session.AccessToken)
	require.ErrorIs(t, err, model.ErrUnauthorized)
}

func TestValidateAccessRejectsForeignSignature(t *testing.T) {
	svc, users, _ := newTestAuthService(t, 5*time.Minute, false)
	seedUser(t, users, "ada@example.com", "correct horse", bcrypt.MinCost)

	session, err := svc.Login(context.Background(), "ada@example.com", "correct horse")
	require.NoError(t, err)

	other, err := NewAuthService("another-secret", 5*time.Minute, false, users, repository.NewMemoryTokenRepository(users, time.Hour))
	require.NoError(t, err)

	_, err = other.ValidateAccess(session.AccessToken)
	require.ErrorIs(t, err, model.ErrUnauthorized)
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	svc, _, _ := newTestAuthService(t, 5*time.Minute, false)

	_, err := svc.Register(context.Background(), "ada@example.com", "correct horse")
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), "ADA@example.com", "another pass")
	require.ErrorIs(t, err, model.ErrUserAlreadyExists)
}

func TestRegisterValidatesInput(t *testing.T) {
	svc, _, _ := newTestAuthService(t, 5*time.Minute, false)

	_, err := svc.Register(context.Background(), "", "pass")
	require.ErrorIs(t, err, model.ErrInvalidInput)

	_, err = svc.Register(context.Background(), "not-an-email", "pass")
	require.ErrorIs(t, err, model.ErrInvalidInput)

	_, err = svc.Register(context.Background(), "ada@example.com", "")
	require.ErrorIs(t, err, model.ErrInvalidInput)
}
