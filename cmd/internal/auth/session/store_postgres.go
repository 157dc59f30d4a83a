package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"scribe/cmd/identity"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// querier is the subset shared by *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore implements Store using PostgreSQL (scribe.sessions).
// The pool is owned by the caller.
type PostgresStore struct {
	pool *pgxpool.Pool
	sql  pgSessions
}

// NewPostgresStore creates a Postgres-backed session store.
// An empty schema selects identity.DefaultSchema.
func NewPostgresStore(pool *pgxpool.Pool, schema string) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("session: nil pool")
	}
	schema = strings.TrimSpace(schema)
	if schema == "" {
		schema = identity.DefaultSchema
	}
	if !identity.PGIdentIsValid(schema) {
		return nil, fmt.Errorf("session: invalid schema identifier")
	}
	return &PostgresStore{
		pool: pool,
		sql:  pgSessions{q: pool, table: identity.PGIdent(schema, "sessions")},
	}, nil
}

func (s *PostgresStore) Create(ctx context.Context, row Session) error {
	return s.sql.create(ctx, row)
}

func (s *PostgresStore) FindByID(ctx context.Context, id string) (Session, error) {
	return s.sql.findByID(ctx, id)
}

func (s *PostgresStore) FindByTriple(ctx context.Context, t Triple, now time.Time) (Session, error) {
	return s.sql.findByTriple(ctx, t, now)
}

func (s *PostgresStore) Update(ctx context.Context, row Session) error {
	return s.sql.update(ctx, row)
}

func (s *PostgresStore) Deactivate(ctx context.Context, id string, now time.Time) error {
	return s.sql.deactivate(ctx, id, now)
}

func (s *PostgresStore) ListByUser(ctx context.Context, userID string, now time.Time) ([]Session, error) {
	return s.sql.listByUser(ctx, userID, now)
}

// pgSessions holds the SQL for one sessions table over any querier.
type pgSessions struct {
	q     querier
	table string
}

const sessionColumns = `id, user_id, token_hash, ip_address, user_agent, is_active, expires_at, created_at, updated_at`

func (p pgSessions) create(ctx context.Context, row Session) error {
	_, err := p.q.Exec(ctx, `
		INSERT INTO `+p.table+` (`+sessionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, row.ID, row.UserID, row.TokenHash, row.IPAddress, row.UserAgent,
		row.IsActive, row.ExpiresAt, row.CreatedAt, row.UpdatedAt)
	if err != nil {
		return fmt.Errorf("session: insert: %w", err)
	}
	return nil
}

func (p pgSessions) findByID(ctx context.Context, id string) (Session, error) {
	row := p.q.QueryRow(ctx, `
		SELECT `+sessionColumns+`
		FROM `+p.table+`
		WHERE id = $1
	`, strings.TrimSpace(id))
	return scanSession(row)
}

func (p pgSessions) findByTriple(ctx context.Context, t Triple, now time.Time) (Session, error) {
	row := p.q.QueryRow(ctx, `
		SELECT `+sessionColumns+`
		FROM `+p.table+`
		WHERE user_id = $1
		  AND ip_address = $2
		  AND user_agent = $3
		  AND is_active
		  AND expires_at > $4
		ORDER BY updated_at DESC
		LIMIT 1
	`, t.UserID, t.IPAddress, t.UserAgent, now)
	return scanSession(row)
}

func (p pgSessions) update(ctx context.Context, row Session) error {
	tag, err := p.q.Exec(ctx, `
		UPDATE `+p.table+`
		SET token_hash = $2,
		    expires_at = $3,
		    is_active = $4,
		    updated_at = $5
		WHERE id = $1
	`, row.ID, row.TokenHash, row.ExpiresAt, row.IsActive, row.UpdatedAt)
	if err != nil {
		return fmt.Errorf("session: update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrSessionNotFound
	}
	return nil
}

func (p pgSessions) deactivate(ctx context.Context, id string, now time.Time) error {
	_, err := p.q.Exec(ctx, `
		UPDATE `+p.table+`
		SET is_active = false,
		    updated_at = $2
		WHERE id = $1 AND is_active
	`, strings.TrimSpace(id), now)
	if err != nil {
		return fmt.Errorf("session: deactivate: %w", err)
	}
	return nil
}

func (p pgSessions) listByUser(ctx context.Context, userID string, now time.Time) ([]Session, error) {
	rows, err := p.q.Query(ctx, `
		SELECT `+sessionColumns+`
		FROM `+p.table+`
		WHERE user_id = $1
		  AND is_active
		  AND expires_at > $2
		ORDER BY created_at DESC
	`, userID, now)
	if err != nil {
		return nil, fmt.Errorf("session: list: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(r pgx.CollectableRow) (Session, error) {
		return scanSession(r)
	})
	if err != nil {
		return nil, fmt.Errorf("session: list: %w", err)
	}
	return out, nil
}

func scanSession(row pgx.Row) (Session, error) {
	var s Session
	err := row.Scan(
		&s.ID,
		&s.UserID,
		&s.TokenHash,
		&s.IPAddress,
		&s.UserAgent,
		&s.IsActive,
		&s.ExpiresAt,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Session{}, ErrSessionNotFound
	}
	if err != nil {
		return Session{}, err
	}
	return s, nil
}
