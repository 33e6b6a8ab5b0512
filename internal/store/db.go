package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"

	"classtrack/internal/config"
)

// DB is the Postgres handle shared by the repository layer.
type DB struct {
	Client *sql.DB
}

// NewDB opens the pool with the configured limits and verifies connectivity.
// A ping failure still returns a usable handle so the API can start degraded;
// a DSN/driver failure returns a nil DB.
func NewDB(cfg config.App) (*DB, error) {
	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	db.SetMaxIdleConns(cfg.DBMaxIdleConns)
	db.SetConnMaxLifetime(cfg.DBConnMaxLifetime)
	return &DB{Client: db}, db.PingContext(context.Background())
}

// Close closes the pool.
func (d *DB) Close() error {
	if d == nil || d.Client == nil {
		return nil
	}
	return d.Client.Close()
}
