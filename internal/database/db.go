// internal/database/db.go
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Store wraps the pgx pool. It is passed to consumers as an interface so
// tests can substitute in-memory fakes.
type Store struct {
	pool *pgxpool.Pool
}

// Connect parses the connection string, builds the pool, and verifies it
// with a bounded ping.
func Connect(ctx context.Context, connStr string) (*Store, error) {
	config, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to parse pgx config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("unable to create pgx pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}

	return &Store{pool: pool}, nil
}

// Close releases the pool.
func (s *Store) Close() {
	s.pool.Close()
}

// EnsureSchema creates the tables the service needs if they do not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	ddl := `
	CREATE TABLE IF NOT EXISTS players (
		id UUID PRIMARY KEY,
		email TEXT UNIQUE NOT NULL,
		password TEXT NOT NULL,
		username TEXT NOT NULL,
		rating INT NOT NULL DEFAULT 1200,
		games_played INT NOT NULL DEFAULT 0
	);
	CREATE TABLE IF NOT EXISTS game_sessions (
		id UUID PRIMARY KEY,
		status TEXT NOT NULL,
		state JSONB NOT NULL,
		version BIGINT NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		completed_at TIMESTAMPTZ
	);
	CREATE TABLE IF NOT EXISTS rating_history (
		id BIGSERIAL PRIMARY KEY,
		player_id UUID NOT NULL REFERENCES players(id),
		session_id UUID NOT NULL,
		old_rating INT NOT NULL,
		new_rating INT NOT NULL,
		recorded_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`
	if _, err := s.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
