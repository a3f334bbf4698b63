// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package polls

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/danielhkuo/pollgate/auth"
	"github.com/danielhkuo/pollgate/db"
	"github.com/danielhkuo/pollgate/models"
)

var (
	ErrPollNotFound = errors.New("poll not found")
	ErrInvalidPoll  = errors.New("invalid poll")
)

// MaxOptions caps the number of options on a single poll.
const MaxOptions = 10

type Store struct {
	conn    *sql.DB
	dialect db.Dialect
	now     func() time.Time
}

func NewStore(conn *sql.DB, dialect db.Dialect) *Store {
	return &Store{conn: conn, dialect: dialect, now: time.Now}
}

// Create validates and stores a new active poll.
func (s *Store) Create(ctx context.Context, creatorID int64, req models.CreatePollRequest) (models.Poll, error) {
	question := strings.TrimSpace(req.Question)
	if question == "" {
		return models.Poll{}, fmt.Errorf("%w: question is required", ErrInvalidPoll)
	}

	options := make([]string, 0, len(req.Options))
	for _, opt := range req.Options {
		opt = strings.TrimSpace(opt)
		if opt == "" {
			return models.Poll{}, fmt.Errorf("%w: options must not be empty", ErrInvalidPoll)
		}
		options = append(options, opt)
	}
	if len(options) < 2 {
		return models.Poll{}, fmt.Errorf("%w: at least 2 options are required", ErrInvalidPoll)
	}
	if len(options) > MaxOptions {
		return models.Poll{}, fmt.Errorf("%w: at most %d options are allowed", ErrInvalidPoll, MaxOptions)
	}

	pollID, err := auth.GeneratePollID()
	if err != nil {
		return models.Poll{}, err
	}

	encoded, err := json.Marshal(options)
	if err != nil {
		return models.Poll{}, fmt.Errorf("failed to encode options: %w", err)
	}

	poll := models.Poll{
		ID:        pollID,
		CreatorID: creatorID,
		Question:  question,
		Options:   options,
		Active:    true,
		CreatedAt: s.now().UTC(),
	}
	if ch := strings.TrimSpace(req.LogChannel); ch != "" {
		poll.LogChannel = &ch
	}

	_, err = s.conn.ExecContext(ctx, s.dialect.Rebind(`
		INSERT INTO polls (poll_id, creator_id, question, options, log_channel, created_at, is_active)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`), poll.ID, poll.CreatorID, poll.Question, string(encoded), poll.LogChannel, poll.CreatedAt, true)
	if err != nil {
		return models.Poll{}, fmt.Errorf("failed to create poll: %w", err)
	}

	return poll, nil
}

// GetPoll returns the poll with the given id, active or not.
func (s *Store) GetPoll(ctx context.Context, pollID string) (models.Poll, error) {
	var (
		poll       models.Poll
		options    string
		logChannel sql.NullString
	)

	err := s.conn.QueryRowContext(ctx, s.dialect.Rebind(`
		SELECT poll_id, creator_id, question, options, log_channel, created_at, is_active
		FROM polls
		WHERE poll_id = ?
	`), pollID).Scan(&poll.ID, &poll.CreatorID, &poll.Question, &options, &logChannel, &poll.CreatedAt, &poll.Active)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Poll{}, ErrPollNotFound
	}
	if err != nil {
		return models.Poll{}, fmt.Errorf("failed to load poll: %w", err)
	}

	if err := json.Unmarshal([]byte(options), &poll.Options); err != nil {
		return models.Poll{}, fmt.Errorf("failed to decode options of poll %s: %w", pollID, err)
	}
	if logChannel.Valid {
		poll.LogChannel = &logChannel.String
	}

	return poll, nil
}

// ListByCreator returns a creator's polls, newest first.
func (s *Store) ListByCreator(ctx context.Context, creatorID int64) ([]models.Poll, error) {
	rows, err := s.conn.QueryContext(ctx, s.dialect.Rebind(`
		SELECT poll_id FROM polls WHERE creator_id = ? ORDER BY created_at DESC, poll_id
	`), creatorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list polls: %w", err)
	}

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan poll: %w", err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list polls: %w", err)
	}

	polls := make([]models.Poll, 0, len(ids))
	for _, id := range ids {
		poll, err := s.GetPoll(ctx, id)
		if err != nil {
			return nil, err
		}
		polls = append(polls, poll)
	}
	return polls, nil
}

// Deactivate soft-deletes a poll. Votes are kept.
func (s *Store) Deactivate(ctx context.Context, pollID string) error {
	result, err := s.conn.ExecContext(ctx, s.dialect.Rebind(`
		UPDATE polls SET is_active = ? WHERE poll_id = ?
	`), false, pollID)
	if err != nil {
		return fmt.Errorf("failed to deactivate poll: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to deactivate poll: %w", err)
	}
	if n == 0 {
		return ErrPollNotFound
	}
	return nil
}
