package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/simaogato/walletflow/internal/domain"
)

// Store implements domain.UnitOfWork over a SQL database
type Store struct {
	db *DB
}

// NewStore creates a new SQL-backed unit of work
func NewStore(db *DB) *Store {
	return &Store{db: db}
}

// WithinTx runs fn inside one database transaction.
// The transaction commits if fn returns nil and rolls back otherwise.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, repos domain.Repositories) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	repos := domain.Repositories{
		Wallets:    &walletRepository{tx: tx, d: s.db.dialect},
		Operations: &operationRepository{tx: tx, d: s.db.dialect},
	}

	if err := fn(ctx, repos); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

func expectOneRow(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}
