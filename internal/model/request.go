package model

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type CreateURLRequest struct {
	Address string   `json:"address"`
	Title   string   `json:"title"`
	Tags    []string `json:"tags"`
}

type UpdateURLRequest struct {
	Address string   `json:"address"`
	Title   string   `json:"title"`
	Tags    []string `json:"tags"`
}
