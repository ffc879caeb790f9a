package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func csrfProtected(handlerRan *bool) http.Handler {
	return CSRF(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*handlerRan = true
		w.WriteHeader(http.StatusOK)
	}))
}

func TestCSRFAllowsSafeMethods(t *testing.T) {
	var ran bool
	handler := csrfProtected(&ran)

	req := httptest.NewRequest(http.MethodGet, "/v1/urls", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, ran)
}

func TestCSRFRejectsMissingCookie(t *testing.T) {
	var ran bool
	handler := csrfProtected(&ran)

	req := httptest.NewRequest(http.MethodPost, "/v1/urls", nil)
	req.Header.Set(CSRFHeader, "abc123")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.False(t, ran)
}

func TestCSRFRejectsMissingHeader(t *testing.T) {
	var ran bool
	handler := csrfProtected(&ran)

	req := httptest.NewRequest(http.MethodPost, "/v1/urls", nil)
	req.AddCookie(&http.Cookie{Name: CSRFCookie, Value: "abc123"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.False(t, ran)
}

func TestCSRFRejectsMismatch(t *testing.T) {
	var ran bool
	handler := csrfProtected(&ran)

	req := httptest.NewRequest(http.MethodDelete, "/v1/urls/42", nil)
	req.AddCookie(&http.Cookie{Name: CSRFCookie, Value: "abc123"})
	req.Header.Set(CSRFHeader, "abc124")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.False(t, ran)
}

func TestCSRFAcceptsMatchingPair(t *testing.T) {
	var ran bool
	handler := csrfProtected(&ran)

	req := httptest.NewRequest(http.MethodPost, "/v1/urls", nil)
	req.AddCookie(&http.Cookie{Name: CSRFCookie, Value: "abc123"})
	req.Header.Set(CSRFHeader, "abc123")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, ran)
}
