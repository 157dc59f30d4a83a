package session

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// WithTripleLock opens a transaction, takes a transaction-scoped advisory
// lock keyed by the triple, and runs fn against a Store bound to that
// transaction. The lock is released on commit or rollback.
func (s *PostgresStore) WithTripleLock(ctx context.Context, t Triple, fn func(Store) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.ReadCommitted,
		AccessMode: pgx.ReadWrite,
	})
	if err != nil {
		return fmt.Errorf("session: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, t.Key()); err != nil {
		return fmt.Errorf("session: triple lock: %w", err)
	}

	if err := fn(&txStore{sql: pgSessions{q: tx, table: s.sql.table}}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("session: commit: %w", err)
	}
	return nil
}

// txStore is a Store bound to an open transaction.
type txStore struct {
	sql pgSessions
}

func (s *txStore) Create(ctx context.Context, row Session) error {
	return s.sql.create(ctx, row)
}

func (s *txStore) FindByID(ctx context.Context, id string) (Session, error) {
	return s.sql.findByID(ctx, id)
}

func (s *txStore) FindByTriple(ctx context.Context, t Triple, now time.Time) (Session, error) {
	return s.sql.findByTriple(ctx, t, now)
}

func (s *txStore) Update(ctx context.Context, row Session) error {
	return s.sql.update(ctx, row)
}

func (s *txStore) Deactivate(ctx context.Context, id string, now time.Time) error {
	return s.sql.deactivate(ctx, id, now)
}

func (s *txStore) ListByUser(ctx context.Context, userID string, now time.Time) ([]Session, error) {
	return s.sql.listByUser(ctx, userID, now)
}

// WithTripleLock on a bound store runs fn in the same transaction.
// Callers lock one triple per transaction, so no second lock is taken.
func (s *txStore) WithTripleLock(_ context.Context, _ Triple, fn func(Store) error) error {
	return fn(s)
}
