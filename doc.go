// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the pollgate API server.

pollgate runs chat polls where each vote is gated by a short series of
image puzzles. A voter picks an option, solves the arithmetic shown in a
distorted picture by pressing one of four answer buttons, and the vote is
recorded once every round is solved. Each voter can vote once per poll.

# Starting the Server

	ADMIN_KEY_SALT=secret go run .

Or with flags:

	go run . -p 3318 -t postgres -d "postgres://..." -admin-salt secret

# Configuration

Required settings:

  - ADMIN_KEY_SALT (-admin-salt): secret for admin key HMAC

Optional settings:

  - PORT (-p): server port (default 3318)
  - DATABASE_TYPE (-t), DATABASE_URL (-d): sqlite (default, pollgate.db) or postgres
  - CAPTCHA_ROUNDS (-rounds), CAPTCHA_WORKERS (-workers), CAPTCHA_WATERMARK
  - REDIS_URL (-redis), SESSION_TTL: challenge session storage
  - KAFKA_BROKERS (-kafka), KAFKA_TOPIC: vote publication
  - LOG_LEVEL, LOG_FORMAT

# Architecture

  - challenge: per-voter challenge state machine
  - captcha: puzzle generation and rendering
  - ledger: vote commits, tallies and vote numbers
  - polls: poll storage
  - session: in-memory and Redis challenge sessions
  - display: voter screens
  - notify: vote publication (log, Kafka)
  - handlers, router, middleware: HTTP surface
  - db, logging, metrics, cliparse, auth, models: supporting packages

See package documentation for each component.
*/
package main
