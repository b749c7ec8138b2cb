// Package database opens PostgreSQL connections and applies the schema the
// history backend needs.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

// Pool settings for the history connection. The history is a single small
// row, so the pool stays small.
const (
	maxOpenConns    = 5
	maxIdleConns    = 2
	connMaxLifetime = 5 * time.Minute
)

// Open connects to PostgreSQL at databaseURL and verifies the connection.
func Open(ctx context.Context, databaseURL string, logger *logrus.Logger) (*sql.DB, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("database URL is required")
	}

	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(connMaxLifetime)

	if err := Health(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	logger.WithFields(logrus.Fields{
		"max_open_conns": maxOpenConns,
		"max_idle_conns": maxIdleConns,
	}).Info("Database connection established")

	return db, nil
}

// Health checks the database connection health
func Health(ctx context.Context, db *sql.DB) error {
	return db.PingContext(ctx)
}
