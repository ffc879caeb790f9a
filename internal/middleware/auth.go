package middleware

import (
	"context"
	"net/http"

	"favurls/internal/model"
)

// AccessTokenCookie carries the signed access credential. It is HttpOnly, so
// the server is the only reader.
const AccessTokenCookie = "access_token"

type tokenValidator interface {
	ValidateAccess(tokenString string) (*model.AuthClaims, error)
}

type contextKey string

const authClaimsContextKey contextKey = "auth_claims"

type AuthMiddleware struct {
	validator tokenValidator
}

func NewAuthMiddleware(validator tokenValidator) *AuthMiddleware {
	return &AuthMiddleware{validator: validator}
}

// RequireAuth reads the access-token cookie and rejects the request unless it
// carries a valid, unexpired credential. An expired credential yields the same
// 401 as a missing one; the client recovers through the refresh endpoint.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(AccessTokenCookie)
		if err != nil || cookie.Value == "" {
			writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
			return
		}

		claims, err := m.validator.ValidateAccess(cookie.Value)
		if err != nil {
			writeUnauthorized(w, "UNAUTHORIZED", "invalid or expired credential")
			return
		}

		ctx := context.WithValue(r.Context(), authClaimsContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func ClaimsFromContext(ctx context.Context) (*model.AuthClaims, bool) {
	claims, ok := ctx.Value(authClaimsContextKey).(*model.AuthClaims)
	return claims, ok
}

func writeUnauthorized(w http.ResponseWriter, code string, message string) {
	w.Header().Set("Content-Type", "application/json")
	if code == "FORBIDDEN" {
		w.WriteHeader(http.StatusForbidden)
	} else {
		w.WriteHeader(http.StatusUnauthorized)
	}

	_ = jsonEncode(w, model.APIResponse{
		Success: false,
		Error: &model.APIError{
			Code:    code,
			Message: message,
		},
	})
}
