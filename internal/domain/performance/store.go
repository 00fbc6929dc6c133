package performance

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// dbtx is satisfied by both *pgxpool.Pool and pgx.Tx.
type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Store struct {
	pgQueries
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{pgQueries: pgQueries{db: db}, DB: db}
}

func (s *Store) InTx(ctx context.Context, fn func(q Queries) error) error {
	return pgx.BeginFunc(ctx, s.DB, func(tx pgx.Tx) error {
		return fn(pgQueries{db: tx})
	})
}

func (s *Store) Ping(ctx context.Context) error {
	return s.DB.Ping(ctx)
}

type pgQueries struct {
	db dbtx
}

type rowScanner interface {
	Scan(dest ...any) error
}

func pgNotFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrRowNotFound
	}
	return err
}

func pgAffected(tag pgconn.CommandTag, err error) error {
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrRowNotFound
	}
	return nil
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}
