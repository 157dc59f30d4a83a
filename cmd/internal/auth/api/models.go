package api

import (
	"encoding/json"
	"strings"
	"time"
)

// maxSessionIDLen bounds ids worth a store lookup. Longer ids cannot exist.
const maxSessionIDLen = 64

type loginRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,max=1024"`
}

// logoutRequest keeps sessionId raw: any well-formed value is accepted and
// one that cannot name a session is an unknown id.
type logoutRequest struct {
	SessionID json.RawMessage `json:"sessionId"`
}

// target returns the session id named in the body. named is false when the
// body names no session, so the caller may fall back to the cookie.
func (r logoutRequest) target() (id string, named bool) {
	if len(r.SessionID) == 0 || string(r.SessionID) == "null" {
		return "", false
	}
	var s string
	if err := json.Unmarshal(r.SessionID, &s); err != nil {
		return "", true
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	if len(s) > maxSessionIDLen {
		return "", true
	}
	return s, true
}

type banRequest struct {
	Banned *bool `json:"banned" validate:"required"`
}

// userResponse is the sanitized user: no password hash or other secrets.
type userResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	IsAdmin   bool      `json:"isAdmin"`
	IsBanned  bool      `json:"isBanned"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type sessionResponse struct {
	ID        string    `json:"id"`
	IPAddress string    `json:"ipAddress"`
	UserAgent string    `json:"userAgent"`
	IsActive  bool      `json:"isActive"`
	ExpiresAt time.Time `json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
}

type loginData struct {
	User      userResponse `json:"user"`
	SessionID string       `json:"sessionId"`
}

type sessionData struct {
	User    userResponse    `json:"user"`
	Session sessionResponse `json:"session"`
}

type userData struct {
	User userResponse `json:"user"`
}

type sessionsData struct {
	Sessions []sessionResponse `json:"sessions"`
}
