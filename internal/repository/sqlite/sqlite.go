package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/msomdec/storefront-api/internal/domain"
	"github.com/msomdec/storefront-api/internal/repository/sqlite/migrations"

	_ "modernc.org/sqlite"
)

// DB wraps a SQLite connection and hands out repositories bound to it.
type DB struct {
	SQLDB *sql.DB
}

var _ domain.Store = (*DB)(nil)

// New opens a SQLite database at the given path and configures it for use.
// It enables WAL mode, foreign keys and a busy timeout.
func New(dbPath string) (*DB, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	if _, err := db.ExecContext(context.Background(), "PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if _, err := db.ExecContext(context.Background(), "PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	// A single writer connection serialises inserts, so the UNIQUE index on
	// users.email is the one place a duplicate registration gets rejected.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &DB{SQLDB: db}, nil
}

// Migrate applies all pending embedded migrations.
func (d *DB) Migrate(ctx context.Context) error {
	return migrations.Run(ctx, d.SQLDB)
}

// Close closes the underlying connection pool.
func (d *DB) Close() error {
	return d.SQLDB.Close()
}

// Users returns the user repository.
func (d *DB) Users() domain.UserRepository {
	return NewUserRepository(d)
}

// Products returns the product repository.
func (d *DB) Products() domain.ProductRepository {
	return NewProductRepository(d)
}
