package model

import "time"

type URL struct {
	ID        string    `json:"id"`
	UserID    string    `json:"-"`
	Address   string    `json:"address"`
	Title     string    `json:"title"`
	Tags      []string  `json:"tags"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
