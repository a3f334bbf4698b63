// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"database/sql"
	"fmt"
)

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS.
func CreateSchema(ctx context.Context, conn *sql.DB, dialect Dialect) error {
	voteID := "INTEGER PRIMARY KEY AUTOINCREMENT"
	if dialect == Postgres {
		voteID = "BIGSERIAL PRIMARY KEY"
	}

	if _, err := conn.ExecContext(ctx, fmt.Sprintf(schema, voteID)); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

const schema = `
-- Polls
CREATE TABLE IF NOT EXISTS polls (
    poll_id TEXT PRIMARY KEY,
    creator_id BIGINT NOT NULL,
    question TEXT NOT NULL,
    options TEXT NOT NULL,
    log_channel TEXT,
    created_at TIMESTAMP NOT NULL,
    is_active BOOLEAN NOT NULL DEFAULT TRUE
);

CREATE INDEX IF NOT EXISTS idx_polls_creator ON polls(creator_id);

-- Votes
CREATE TABLE IF NOT EXISTS votes (
    id %s,
    poll_id TEXT NOT NULL REFERENCES polls(poll_id),
    voter_id BIGINT NOT NULL,
    option_index INTEGER NOT NULL,
    voted_at TIMESTAMP NOT NULL,
    UNIQUE (poll_id, voter_id)
);

CREATE INDEX IF NOT EXISTS idx_votes_poll ON votes(poll_id);
`
