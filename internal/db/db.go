package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DB is the Postgres-backed ledger.
type DB struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Test connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{pool: pool}, nil
}

func (db *DB) Close() {
	db.pool.Close()
}

// RunMigrations creates the ledger tables if they do not exist yet.
func (db *DB) RunMigrations(ctx context.Context) error {
	_, err := db.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS memory_facts (
			id BIGSERIAL PRIMARY KEY,
			user_id TEXT NOT NULL,
			memory_type TEXT NOT NULL,
			entity TEXT NOT NULL,
			amount DOUBLE PRECISION NOT NULL,
			remaining_amount DOUBLE PRECISION NOT NULL,
			currency TEXT NOT NULL DEFAULT 'USD',
			description TEXT,
			status TEXT NOT NULL DEFAULT 'active',
			due_date DATE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			closed_at DATE
		);
		CREATE INDEX IF NOT EXISTS idx_memory_facts_user_status ON memory_facts(user_id, memory_type, status);

		CREATE TABLE IF NOT EXISTS reminders (
			id BIGSERIAL PRIMARY KEY,
			user_id TEXT NOT NULL,
			message TEXT NOT NULL,
			remind_at TIMESTAMPTZ NOT NULL,
			status TEXT NOT NULL DEFAULT 'pending',
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			sent_at TIMESTAMPTZ
		);
		CREATE INDEX IF NOT EXISTS idx_reminders_due ON reminders(user_id, status, remind_at);

		CREATE TABLE IF NOT EXISTS intent_feedback (
			id BIGSERIAL PRIMARY KEY,
			user_id TEXT NOT NULL,
			text TEXT NOT NULL,
			predicted TEXT NOT NULL,
			confirmed TEXT NOT NULL,
			confidence DOUBLE PRECISION NOT NULL,
			source TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	return err
}
