// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

A .env file in the working directory is loaded first, if present.

# CLI Flags

	-p            Server port
	-d            Database URL
	-t            Database type (sqlite or postgres)
	-admin-salt   Admin key salt
	-rounds       Puzzles per vote
	-workers      Concurrent puzzle renderers
	-redis        Redis URL for challenge sessions
	-kafka        Comma-separated Kafka brokers

# Environment Variables

Flags fall back to environment variables:

	PORT              → -p (default 3318)
	DATABASE_URL      → -d (default pollgate.db for sqlite)
	DATABASE_TYPE     → -t (default sqlite)
	ADMIN_KEY_SALT    → -admin-salt
	CAPTCHA_ROUNDS    → -rounds (default 3)
	CAPTCHA_WORKERS   → -workers (default 8)
	REDIS_URL         → -redis
	KAFKA_BROKERS     → -kafka

Environment only:

	CAPTCHA_WATERMARK  label stamped on puzzles (default @pollgate)
	SESSION_TTL        idle challenge expiry, e.g. 30m (default: never)
	KAFKA_TOPIC        vote publication topic (default poll-votes)
	LOG_LEVEL          debug, info, warn, error (default info)
	LOG_FORMAT         auto, json or console (default auto)

CLI flags take precedence over environment variables.

# Validation

ParseFlags returns an error if:

  - ADMIN_KEY_SALT is missing
  - DATABASE_TYPE is postgres and no DATABASE_URL is given
  - a numeric or duration value does not parse
*/
package cliparse
