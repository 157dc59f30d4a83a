package session

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryStore is an in-process Store for local runs and tests.
// State does not survive a restart and is not shared across instances.
type MemoryStore struct {
	mu   sync.RWMutex
	rows map[string]Session

	locksMu sync.Mutex
	locks   map[string]*tripleLock
}

var errDuplicateID = errors.New("session: duplicate id")

type tripleLock struct {
	ch   chan struct{}
	refs int
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		rows:  make(map[string]Session),
		locks: make(map[string]*tripleLock),
	}
}

func (m *MemoryStore) Create(ctx context.Context, s Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.rows[s.ID]; exists {
		return errDuplicateID
	}
	m.rows[s.ID] = s
	return nil
}

func (m *MemoryStore) FindByID(ctx context.Context, id string) (Session, error) {
	if err := ctx.Err(); err != nil {
		return Session{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.rows[strings.TrimSpace(id)]
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	return s, nil
}

func (m *MemoryStore) FindByTriple(ctx context.Context, t Triple, now time.Time) (Session, error) {
	if err := ctx.Err(); err != nil {
		return Session{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var (
		best  Session
		found bool
	)
	for _, s := range m.rows {
		if s.UserID != t.UserID || s.IPAddress != t.IPAddress || s.UserAgent != t.UserAgent {
			continue
		}
		if !s.Usable(now) {
			continue
		}
		if !found || s.UpdatedAt.After(best.UpdatedAt) {
			best, found = s, true
		}
	}
	if !found {
		return Session{}, ErrSessionNotFound
	}
	return best, nil
}

func (m *MemoryStore) Update(ctx context.Context, s Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	cur, ok := m.rows[s.ID]
	if !ok {
		return ErrSessionNotFound
	}
	cur.TokenHash = s.TokenHash
	cur.ExpiresAt = s.ExpiresAt
	cur.IsActive = s.IsActive
	cur.UpdatedAt = s.UpdatedAt
	m.rows[s.ID] = cur
	return nil
}

func (m *MemoryStore) Deactivate(ctx context.Context, id string, now time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.rows[strings.TrimSpace(id)]
	if !ok || !s.IsActive {
		return nil
	}
	s.IsActive = false
	s.UpdatedAt = now
	m.rows[s.ID] = s
	return nil
}

func (m *MemoryStore) ListByUser(ctx context.Context, userID string, now time.Time) ([]Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Session, 0, 4)
	for _, s := range m.rows {
		if s.UserID == userID && s.Usable(now) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// WithTripleLock serializes fn per triple. Waiting honors ctx.
func (m *MemoryStore) WithTripleLock(ctx context.Context, t Triple, fn func(Store) error) error {
	key := t.Key()

	m.locksMu.Lock()
	l, ok := m.locks[key]
	if !ok {
		l = &tripleLock{ch: make(chan struct{}, 1)}
		m.locks[key] = l
	}
	l.refs++
	m.locksMu.Unlock()

	defer func() {
		m.locksMu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(m.locks, key)
		}
		m.locksMu.Unlock()
	}()

	select {
	case l.ch <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-l.ch }()

	return fn(m)
}
