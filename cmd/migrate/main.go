// migrate creates the auth_tokens and sessions tables in the database
// pointed at by DATABASE_URL. Idempotent, safe to re-run.
// Run: go run ./cmd/migrate
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/bitovskii/meetup-app-sub000/internal/infrastructure/postgres"
)

var statements = []string{
	`CREATE TABLE IF NOT EXISTS auth_tokens (
		token            TEXT PRIMARY KEY,
		status           TEXT NOT NULL DEFAULT 'pending',
		user_data        JSONB,
		telegram_user_id BIGINT,
		created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
		expires_at       TIMESTAMPTZ NOT NULL,
		resolved_at      TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS auth_tokens_status_expires_idx
		ON auth_tokens (status, expires_at)`,
	`CREATE TABLE IF NOT EXISTS sessions (
		id               TEXT PRIMARY KEY,
		telegram_user_id BIGINT NOT NULL UNIQUE,
		first_name       TEXT NOT NULL DEFAULT '',
		last_name        TEXT NOT NULL DEFAULT '',
		username         TEXT NOT NULL DEFAULT '',
		photo_url        TEXT NOT NULL DEFAULT '',
		created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
		expires_at       TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS sessions_expires_idx
		ON sessions (expires_at)`,
}

func main() {
	ctx := context.Background()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	pool, err := postgres.NewPool(ctx, dbURL)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer pool.Close()

	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			log.Fatalf("apply statement: %v\n%s", err, stmt)
		}
	}

	fmt.Println("Migration complete")
	fmt.Println()
	fmt.Println("  Tables: auth_tokens, sessions")
}
