package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"favurls/internal/middleware"
	"favurls/internal/model"
	"favurls/internal/service"
	"favurls/pkg/apierror"
)

const RefreshTokenCookie = "refresh_token"

type AuthHandler struct {
	service      *service.AuthService
	accessTTL    time.Duration
	refreshTTL   time.Duration
	cookieSecure bool
}

func NewAuthHandler(service *service.AuthService, accessTTL time.Duration, refreshTTL time.Duration, cookieSecure bool) *AuthHandler {
	return &AuthHandler{
		service:      service,
		accessTTL:    accessTTL,
		refreshTTL:   refreshTTL,
		cookieSecure: cookieSecure,
	}
}

// Login verifies credentials and emits the three session cookies: the access
// credential and refresh session restricted from script, the CSRF token
// readable so the client can echo it in a header.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload model.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.BadRequest("invalid JSON body"))
		return
	}

	session, err := h.service.Login(r.Context(), payload.Email, payload.Password)
	if err != nil {
		h.clearSessionCookies(w)
		writeError(w, err)
		return
	}

	h.setSessionCookies(w, session)
	writeSuccess(w, http.StatusOK, session.User, nil)
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload model.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.BadRequest("invalid JSON body"))
		return
	}

	user, err := h.service.Register(r.Context(), payload.Email, payload.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, user, nil)
}

// Refresh renews the access-credential cookie from the refresh-session
// cookie. The refresh cookie itself is the proof of identity here, which is
// why this endpoint sits outside the CSRF guard.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	refreshValue := cookieValue(r, RefreshTokenCookie)
	if refreshValue == "" {
		h.clearSessionCookies(w)
		writeError(w, model.ErrSessionInvalid)
		return
	}

	session, err := h.service.Refresh(r.Context(), refreshValue)
	if err != nil {
		if errors.Is(err, model.ErrSessionInvalid) {
			h.clearSessionCookies(w)
		}
		writeError(w, err)
		return
	}

	h.setCookie(w, middleware.AccessTokenCookie, session.AccessToken, h.accessTTL, true)
	if session.RefreshToken != refreshValue {
		h.setCookie(w, RefreshTokenCookie, session.RefreshToken, h.refreshTTL, true)
	}

	writeSuccess(w, http.StatusOK, map[string]any{"refreshed": true}, nil)
}

// Logout always succeeds: the refresh session is revoked when present and all
// three cookies are cleared either way.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	refreshValue := cookieValue(r, RefreshTokenCookie)

	h.clearSessionCookies(w)

	if err := h.service.Logout(r.Context(), refreshValue); err != nil {
		slog.Warn("logout revoke failed", "error", err)
	}

	writeSuccess(w, http.StatusOK, map[string]any{"logged_out": true}, nil)
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, model.ErrUnauthorized)
		return
	}

	user, err := h.service.GetUserByID(r.Context(), claims.UserID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, user, nil)
}

func (h *AuthHandler) setSessionCookies(w http.ResponseWriter, session model.Session) {
	h.setCookie(w, middleware.AccessTokenCookie, session.AccessToken, h.accessTTL, true)
	h.setCookie(w, RefreshTokenCookie, session.RefreshToken, h.refreshTTL, true)
	h.setCookie(w, middleware.CSRFCookie, session.CSRFToken, h.refreshTTL, false)
}

func (h *AuthHandler) clearSessionCookies(w http.ResponseWriter) {
	h.setCookie(w, middleware.AccessTokenCookie, "", -time.Second, true)
	h.setCookie(w, RefreshTokenCookie, "", -time.Second, true)
	h.setCookie(w, middleware.CSRFCookie, "", -time.Second, false)
}

func (h *AuthHandler) setCookie(w http.ResponseWriter, name string, value string, ttl time.Duration, httpOnly bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: httpOnly,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteStrictMode,
	})
}

func cookieValue(r *http.Request, name string) string {
	cookie, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return cookie.Value
}
