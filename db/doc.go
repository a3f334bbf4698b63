// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db handles connections, schema creation and driver error classification.

# Connections

Open connects to SQLite (modernc.org/sqlite, the default) or PostgreSQL
(github.com/lib/pq) and pings before returning:

	conn, dialect, err := db.Open(ctx, cfg.DatabaseType, cfg.DatabaseURL)

SQLite connections run with WAL journaling, a 5s busy timeout and foreign
keys enabled.

Queries are written with ? placeholders and passed through Rebind:

	conn.QueryRowContext(ctx, dialect.Rebind("SELECT ... WHERE poll_id = ?"), id)

# Schema Creation

CreateSchema initializes all required tables:

	if err := db.CreateSchema(ctx, conn, dialect); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and indexes.

# Tables

  - polls: question, JSON-encoded options, creator, optional log channel, active flag
  - votes: one row per (poll_id, voter_id); id increases in insertion order

	polls 1──* votes

Polls are never hard-deleted; is_active is cleared instead.

# Error Classification

Classify inspects structured driver errors, never message text:

	switch db.Classify(err) {
	case db.KindUniqueViolation: // voter already has a row
	case db.KindContention:      // BUSY/LOCKED, serialization failure, deadlock
	}
*/
package db
