package identity

import (
	"context"
	"strings"
	"sync"
	"time"
)

// MemoryStore is an in-process Store used for local runs and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	byID    map[string]User
	byEmail map[string]string
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:    make(map[string]User),
		byEmail: make(map[string]string),
	}
}

func (m *MemoryStore) CreateUser(ctx context.Context, in CreateUserInput) (User, error) {
	const op = "identity.CreateUser"

	if err := ctx.Err(); err != nil {
		return User{}, err
	}
	in, err := validateCreate(op, in)
	if err != nil {
		return User{}, err
	}
	id, err := NewULID(in.Now)
	if err != nil {
		return User{}, err
	}

	norm := NormalizeEmail(in.Email)

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, taken := m.byEmail[norm]; taken {
		return User{}, ConflictError{Op: op, Field: "email"}
	}
	u := User{
		ID:           id,
		Email:        in.Email,
		Name:         in.Name,
		PasswordHash: in.PasswordHash,
		IsAdmin:      in.IsAdmin,
		CreatedAt:    in.Now.UTC(),
		UpdatedAt:    in.Now.UTC(),
	}
	m.byID[id] = u
	m.byEmail[norm] = id
	return u, nil
}

func (m *MemoryStore) GetUserByID(ctx context.Context, id string) (User, error) {
	if err := ctx.Err(); err != nil {
		return User{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.byID[strings.TrimSpace(id)]
	if !ok {
		return User{}, notFound("identity.GetUserByID")
	}
	return u, nil
}

func (m *MemoryStore) GetUserByEmail(ctx context.Context, email string) (User, error) {
	if err := ctx.Err(); err != nil {
		return User{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.byEmail[NormalizeEmail(email)]
	if !ok {
		return User{}, notFound("identity.GetUserByEmail")
	}
	return m.byID[id], nil
}

func (m *MemoryStore) SetBanned(ctx context.Context, id string, banned bool, now time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.byID[strings.TrimSpace(id)]
	if !ok {
		return notFound("identity.SetBanned")
	}
	u.IsBanned = banned
	u.UpdatedAt = now.UTC()
	m.byID[u.ID] = u
	return nil
}
