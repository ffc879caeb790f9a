// Package client is the Go API client for the favurls service. Credentials
// live in an HTTP cookie jar; every request carries the CSRF header read from
// the script-visible cookie, and an authorization failure is retried exactly
// once after a silent refresh.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"favurls/internal/model"
	"favurls/pkg/apierror"
)

const (
	csrfCookieName = "XSRF-TOKEN"
	csrfHeaderName = "X-XSRF-TOKEN"
)

// ErrPleaseLogIn is the only auth failure surfaced to a caller: the access
// credential was rejected and the silent refresh could not recover it.
var ErrPleaseLogIn = errors.New("please log in")

type Client struct {
	baseURL *url.URL
	http    *http.Client
	session *SessionStore
}

func New(baseURL string, session *SessionStore) (*Client, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	return &Client{
		baseURL: parsed,
		http:    &http.Client{Jar: jar, Timeout: 30 * time.Second},
		session: session,
	}, nil
}

// Session exposes the client-side session cache.
func (c *Client) Session() *SessionStore {
	return c.session
}

func (c *Client) Register(ctx context.Context, email string, password string) (model.PublicUser, error) {
	var user model.PublicUser
	err := c.do(ctx, http.MethodPost, "/v1/users", model.RegisterRequest{Email: email, Password: password}, &user)
	return user, err
}

func (c *Client) Login(ctx context.Context, email string, password string) (model.PublicUser, error) {
	var user model.PublicUser
	err := c.do(ctx, http.MethodPost, "/v1/users/login", model.LoginRequest{Email: email, Password: password}, &user)
	if err != nil {
		return model.PublicUser{}, err
	}

	c.session.Login(user)
	return user, nil
}

// Logout clears the local session even when the server call fails; the
// server treats revocation as idempotent anyway.
func (c *Client) Logout(ctx context.Context) error {
	err := c.do(ctx, http.MethodPost, "/v1/users/logout", nil, nil)
	c.session.Logout()
	return err
}

func (c *Client) Me(ctx context.Context) (model.PublicUser, error) {
	var user model.PublicUser
	err := c.do(ctx, http.MethodGet, "/v1/users/me", nil, &user)
	return user, err
}

func (c *Client) ListURLs(ctx context.Context) ([]model.URL, error) {
	var urls []model.URL
	err := c.do(ctx, http.MethodGet, "/v1/urls", nil, &urls)
	return urls, err
}

func (c *Client) CreateURL(ctx context.Context, req model.CreateURLRequest) (model.URL, error) {
	var created model.URL
	err := c.do(ctx, http.MethodPost, "/v1/urls", req, &created)
	return created, err
}

func (c *Client) UpdateURL(ctx context.Context, id string, req model.UpdateURLRequest) (model.URL, error) {
	var updated model.URL
	err := c.do(ctx, http.MethodPut, "/v1/urls/"+url.PathEscape(id), req, &updated)
	return updated, err
}

func (c *Client) DeleteURL(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/v1/urls/"+url.PathEscape(id), nil, nil)
}

// do runs one logical request. On a 401 for a non-auth endpoint it performs
// a single silent refresh and a single replay; a second failure propagates.
// The retry state is a local of this call, so concurrent requests each make
// their own independent (at most one) refresh attempt.
func (c *Client) do(ctx context.Context, method string, path string, payload any, out any) error {
	var body []byte
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		body = encoded
	}

	resp, err := c.dispatch(ctx, method, path, body)
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusUnauthorized || isAuthPath(path) {
		return decodeResponse(resp, out)
	}

	original := decodeResponse(resp, nil)

	if refreshErr := c.refresh(ctx); refreshErr != nil {
		c.session.Logout()
		return fmt.Errorf("%w: %w", ErrPleaseLogIn, original)
	}

	retried, err := c.dispatch(ctx, method, path, body)
	if err != nil {
		return err
	}
	if retried.StatusCode == http.StatusUnauthorized {
		c.session.Logout()
		return fmt.Errorf("%w: %w", ErrPleaseLogIn, decodeResponse(retried, nil))
	}
	return decodeResponse(retried, out)
}

func (c *Client) refresh(ctx context.Context) error {
	resp, err := c.dispatch(ctx, http.MethodPost, "/v1/users/refresh", nil)
	if err != nil {
		return err
	}
	return decodeResponse(resp, nil)
}

// dispatch builds a fresh request per attempt so a replay never reuses a
// consumed body reader.
func (c *Client) dispatch(ctx context.Context, method string, path string, body []byte) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.JoinPath(path).String(), reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.csrfToken(); token != "" {
		req.Header.Set(csrfHeaderName, token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("dispatch %s %s: %w", method, path, err)
	}
	return resp, nil
}

func (c *Client) csrfToken() string {
	for _, cookie := range c.http.Jar.Cookies(c.baseURL) {
		if cookie.Name == csrfCookieName {
			return cookie.Value
		}
	}
	return ""
}

func isAuthPath(path string) bool {
	return strings.HasSuffix(path, "/users/login") || strings.HasSuffix(path, "/users/refresh")
}

func decodeResponse(resp *http.Response, out any) error {
	defer resp.Body.Close()

	var envelope struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Error   *model.APIError `json:"error"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("decode response (status %d): %w", resp.StatusCode, err)
	}

	if !envelope.Success {
		code := "UNKNOWN"
		message := "request failed"
		if envelope.Error != nil {
			code = envelope.Error.Code
			message = envelope.Error.Message
		}
		return apierror.New(code, message, "", resp.StatusCode)
	}

	if out != nil && envelope.Data != nil {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return fmt.Errorf("decode response data: %w", err)
		}
	}
	return nil
}
