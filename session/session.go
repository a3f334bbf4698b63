// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package session

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/danielhkuo/pollgate/models"
)

// Store keeps at most one in-flight challenge per voter.
// Get returns (nil, nil) when the voter has no session.
//
// Every write stamps the session with a fresh Revision. Put replaces
// whatever is stored. CompareAndPut and CompareAndClear only act when the
// stored revision is still s.Revision / revision, and report false when a
// newer write got there first.
type Store interface {
	Get(ctx context.Context, voterID int64) (*models.ChallengeSession, error)
	Put(ctx context.Context, s *models.ChallengeSession) error
	CompareAndPut(ctx context.Context, s *models.ChallengeSession) (bool, error)
	Clear(ctx context.Context, voterID int64) error
	CompareAndClear(ctx context.Context, voterID int64, revision string) (bool, error)
}

// stamp returns the copy to store, with a new revision and update time.
func stamp(s *models.ChallengeSession, now time.Time) *models.ChallengeSession {
	c := clone(s)
	c.Revision = uuid.NewString()
	c.UpdatedAt = now
	return c
}

// adopt copies the stored revision back to the caller's session.
func adopt(s, stored *models.ChallengeSession) {
	s.Revision = stored.Revision
	s.UpdatedAt = stored.UpdatedAt
}

func clone(s *models.ChallengeSession) *models.ChallengeSession {
	if s == nil {
		return nil
	}
	c := *s
	if s.ExpectedAnswer != nil {
		v := *s.ExpectedAnswer
		c.ExpectedAnswer = &v
	}
	return &c
}
