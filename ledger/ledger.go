// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/danielhkuo/pollgate/db"
	"github.com/danielhkuo/pollgate/metrics"
	"github.com/danielhkuo/pollgate/models"
)

var ErrVoteNotFound = errors.New("vote not found")

const (
	commitAttempts = 3
	commitBackoff  = 300 * time.Millisecond
)

// DB is the subset of *sql.DB the ledger needs.
type DB interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

// Ledger is the durable record of votes. A (poll, voter) pair has at most one row.
type Ledger struct {
	conn    DB
	dialect db.Dialect
	logger  *zap.Logger
	metrics *metrics.Metrics

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

func New(conn DB, dialect db.Dialect, logger *zap.Logger, m *metrics.Metrics) *Ledger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ledger{
		conn:    conn,
		dialect: dialect,
		logger:  logger,
		metrics: m,
		now:     time.Now,
		sleep:   sleepContext,
	}
}

// Commit inserts the vote. A unique violation means the voter already voted
// and is not an error. Lock contention is retried with linear backoff.
func (l *Ledger) Commit(ctx context.Context, pollID string, voterID int64, optionIndex int) (models.CommitStatus, error) {
	status, err := l.commit(ctx, pollID, voterID, optionIndex)
	l.metrics.CommitFinished(status.String())
	return status, err
}

func (l *Ledger) commit(ctx context.Context, pollID string, voterID int64, optionIndex int) (models.CommitStatus, error) {
	var lastErr error
	for attempt := 1; attempt <= commitAttempts; attempt++ {
		err := l.insert(ctx, pollID, voterID, optionIndex)
		if err == nil {
			return models.CommitAccepted, nil
		}

		switch db.Classify(err) {
		case db.KindUniqueViolation:
			return models.CommitAlreadyVoted, nil
		case db.KindContention:
			lastErr = err
			if attempt < commitAttempts {
				l.logger.Warn("vote insert contended, retrying",
					zap.String("poll_id", pollID),
					zap.Int("attempt", attempt),
					zap.Error(err))
				l.metrics.CommitRetried()
				if err := l.sleep(ctx, commitBackoff*time.Duration(attempt)); err != nil {
					return models.CommitTransientFailure, fmt.Errorf("commit vote: %w", err)
				}
			}
		default:
			return models.CommitTransientFailure, fmt.Errorf("commit vote: %w", err)
		}
	}

	return models.CommitTransientFailure, fmt.Errorf("commit vote: gave up after %d attempts: %w", commitAttempts, lastErr)
}

const insertVote = `
	INSERT INTO votes (poll_id, voter_id, option_index, voted_at)
	VALUES (?, ?, ?, ?)
`

// insert writes the vote row. SQLite has a single writer, so ids already
// follow commit order. On Postgres BIGSERIAL ids are taken before commit,
// so inserts into one poll are serialized on the poll row; otherwise two
// concurrent accepts could both count themselves at the same rank.
func (l *Ledger) insert(ctx context.Context, pollID string, voterID int64, optionIndex int) error {
	votedAt := l.now().UTC()
	if l.dialect != db.Postgres {
		_, err := l.conn.ExecContext(ctx, l.dialect.Rebind(insertVote), pollID, voterID, optionIndex, votedAt)
		return err
	}

	tx, err := l.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var locked int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM polls WHERE poll_id = $1 FOR UPDATE`, pollID).Scan(&locked)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return err
	}
	// A missing poll falls through to the foreign key check
	if _, err := tx.ExecContext(ctx, l.dialect.Rebind(insertVote), pollID, voterID, optionIndex, votedAt); err != nil {
		return err
	}
	return tx.Commit()
}

// HasVoted reports whether the voter already has a vote on the poll.
func (l *Ledger) HasVoted(ctx context.Context, pollID string, voterID int64) (bool, error) {
	var exists int
	err := l.conn.QueryRowContext(ctx, l.dialect.Rebind(`
		SELECT 1 FROM votes WHERE poll_id = ? AND voter_id = ?
	`), pollID, voterID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check vote: %w", err)
	}
	return true, nil
}

// SequenceNumber is the 1-based position of the voter's vote among the poll's
// votes, in commit order.
func (l *Ledger) SequenceNumber(ctx context.Context, pollID string, voterID int64) (int, error) {
	var voteID int64
	err := l.conn.QueryRowContext(ctx, l.dialect.Rebind(`
		SELECT id FROM votes WHERE poll_id = ? AND voter_id = ?
	`), pollID, voterID).Scan(&voteID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrVoteNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to load vote: %w", err)
	}

	var seq int
	err = l.conn.QueryRowContext(ctx, l.dialect.Rebind(`
		SELECT COUNT(*) FROM votes WHERE poll_id = ? AND id <= ?
	`), pollID, voteID).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("failed to count votes: %w", err)
	}
	return seq, nil
}

// Tally counts votes per option index. Options without votes are absent.
func (l *Ledger) Tally(ctx context.Context, pollID string) (map[int]int, error) {
	rows, err := l.conn.QueryContext(ctx, l.dialect.Rebind(`
		SELECT option_index, COUNT(*) FROM votes WHERE poll_id = ? GROUP BY option_index
	`), pollID)
	if err != nil {
		return nil, fmt.Errorf("failed to tally votes: %w", err)
	}
	defer rows.Close()

	tally := make(map[int]int)
	for rows.Next() {
		var option, count int
		if err := rows.Scan(&option, &count); err != nil {
			return nil, fmt.Errorf("failed to scan tally: %w", err)
		}
		tally[option] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to tally votes: %w", err)
	}
	return tally, nil
}

// Total counts all votes on the poll.
func (l *Ledger) Total(ctx context.Context, pollID string) (int, error) {
	var total int
	err := l.conn.QueryRowContext(ctx, l.dialect.Rebind(`
		SELECT COUNT(*) FROM votes WHERE poll_id = ?
	`), pollID).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to count votes: %w", err)
	}
	return total, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
