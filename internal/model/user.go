package model

import "time"

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// PublicUser is the client-visible profile. It never carries credentials.
type PublicUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

func (u User) Public() PublicUser {
	return PublicUser{ID: u.ID, Email: u.Email}
}

type AuthClaims struct {
	UserID  string `json:"sub"`
	Email   string `json:"email"`
	TokenID string `json:"jti"`
}
