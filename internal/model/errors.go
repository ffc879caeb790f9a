package model

import "errors"

var (
	// User related errors
	ErrUserNotFound       = errors.New("user not found")
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")

	// Session related errors. An expired refresh session is reported as
	// not found; the store never distinguishes the two.
	ErrSessionInvalid = errors.New("session invalid")
	ErrTokenNotFound  = errors.New("token not found")

	ErrUnauthorized = errors.New("unauthorized")

	// Bookmark related errors
	ErrURLNotFound = errors.New("url not found")

	// Generic errors
	ErrInvalidInput = errors.New("invalid input")
)
