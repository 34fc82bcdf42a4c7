package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	_ "github.com/lib/pq" // PostgreSQL driver
	_ "modernc.org/sqlite" // SQLite driver
)

// DB wraps the database connection together with its SQL dialect
type DB struct {
	*sql.DB
	dialect dialect
	dsn     string
}

// OpenPostgres creates a new PostgreSQL connection
// connectionString should be in the format: "host=localhost port=5432 user=postgres password=postgres dbname=walletflow sslmode=disable"
func OpenPostgres(ctx context.Context, connectionString string) (*DB, error) {
	return open(ctx, postgresDialect, connectionString)
}

// OpenSQLite opens (creating if needed) a SQLite database file.
// Foreign keys are enforced and the pool holds a single connection,
// which serializes transactions.
func OpenSQLite(ctx context.Context, path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	q := url.Values{}
	q.Add("_pragma", "foreign_keys(1)")
	q.Add("_pragma", "busy_timeout(5000)")
	q.Add("_pragma", "journal_mode(WAL)")
	dsn := "file:" + path + "?" + q.Encode()

	db, err := open(ctx, sqliteDialect, dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	return db, nil
}

func open(ctx context.Context, d dialect, dsn string) (*DB, error) {
	db, err := sql.Open(d.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{DB: db, dialect: d, dsn: dsn}, nil
}

// Dialect returns the engine name ("postgres" or "sqlite")
func (db *DB) Dialect() string {
	return db.dialect.name
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.DB.Close()
}
