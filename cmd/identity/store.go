package identity

import (
	"context"
	"strings"
	"time"
)

// User is scribe's security principal.
// IMPORTANT: PasswordHash is a bcrypt hash and must never leave the server.
type User struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string

	IsAdmin  bool
	IsBanned bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// CreateUserInput describes a user registration request.
// The password must already be hashed by the credential verifier.
type CreateUserInput struct {
	Email        string
	Name         string
	PasswordHash string
	IsAdmin      bool
	Now          time.Time
}

// Store is the user persistence boundary.
type Store interface {
	CreateUser(ctx context.Context, in CreateUserInput) (User, error)
	GetUserByID(ctx context.Context, id string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	SetBanned(ctx context.Context, id string, banned bool, now time.Time) error
}

func validateCreate(op string, in CreateUserInput) (CreateUserInput, error) {
	in.Email = strings.TrimSpace(in.Email)
	in.Name = strings.TrimSpace(in.Name)
	if in.Email == "" || !strings.Contains(in.Email, "@") {
		return in, invalid(op, "email is required")
	}
	if strings.TrimSpace(in.PasswordHash) == "" {
		return in, invalid(op, "password hash is required")
	}
	if in.Now.IsZero() {
		in.Now = time.Now().UTC()
	}
	return in, nil
}
