package model

// Session is everything issued to the client on a successful login. The
// refresh token is an opaque random string tracked server-side; absence of a
// matching row means the session is invalid no matter what the client
// presents.
type Session struct {
	AccessToken  string     `json:"-"`
	RefreshToken string     `json:"-"`
	CSRFToken    string     `json:"-"`
	User         PublicUser `json:"user"`
}
