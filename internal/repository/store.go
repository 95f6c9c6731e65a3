// Package repository provides the PostgreSQL implementation of the
// service.Store used for users, QR codes and the relation between them.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/atinyakov/GopherQR/internal/models"
	"github.com/atinyakov/GopherQR/internal/service"
	"github.com/lib/pq"
)

// uniqueViolation is the PostgreSQL SQLSTATE for unique constraint failures.
const uniqueViolation = "23505"

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// PostgresStore implements service.Store against a PostgreSQL database.
type PostgresStore struct {
	// DB is the database handle used to open transactions.
	DB *sql.DB
	q  querier
	tx bool
}

var _ service.Store = (*PostgresStore)(nil)

// NewPostgresStore creates a new PostgresStore using the provided *sql.DB.
// db must be a valid connection to a PostgreSQL instance with the schema from
// the db package applied.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{DB: db, q: db}
}

// InTx runs fn inside a transaction. Calls made on a store that is already
// bound to a transaction join it instead of opening a new one.
func (s *PostgresStore) InTx(ctx context.Context, fn func(tx service.Store) error) error {
	if s.tx {
		return fn(s)
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&PostgresStore{DB: s.DB, q: tx, tx: true}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// expectOne maps a zero-row write result to models.ErrNotFound.
func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return models.ErrNotFound
	}
	return nil
}
