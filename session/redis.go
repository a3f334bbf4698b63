// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/danielhkuo/pollgate/models"
)

const keyPrefix = "pollgate:session:"

// RedisStore keeps sessions in Redis so they survive restarts and can be
// shared by several instances.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(ctx context.Context, url string, ttl time.Duration) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("error parsing redis URL: %w", err)
	}

	c := redis.NewClient(opts)
	if err := c.Ping(ctx).Err(); err != nil {
		c.Close()
		return nil, fmt.Errorf("error connecting to redis: %w", err)
	}

	return &RedisStore{client: c, ttl: ttl}, nil
}

func key(voterID int64) string {
	return keyPrefix + strconv.FormatInt(voterID, 10)
}

func (r *RedisStore) Get(ctx context.Context, voterID int64) (*models.ChallengeSession, error) {
	return r.read(ctx, r.client, voterID)
}

// getter is satisfied by both *redis.Client and *redis.Tx.
type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func (r *RedisStore) read(ctx context.Context, c getter, voterID int64) (*models.ChallengeSession, error) {
	raw, err := c.Get(ctx, key(voterID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error reading session: %w", err)
	}

	var s models.ChallengeSession
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("error decoding session: %w", err)
	}
	return &s, nil
}

func (r *RedisStore) encode(s *models.ChallengeSession) (*models.ChallengeSession, []byte, error) {
	c := stamp(s, time.Now())
	raw, err := json.Marshal(c)
	if err != nil {
		return nil, nil, fmt.Errorf("error encoding session: %w", err)
	}
	return c, raw, nil
}

func (r *RedisStore) Put(ctx context.Context, s *models.ChallengeSession) error {
	c, raw, err := r.encode(s)
	if err != nil {
		return err
	}

	// Zero ttl means no expiry
	if err := r.client.Set(ctx, key(s.VoterID), raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("error writing session: %w", err)
	}
	adopt(s, c)
	return nil
}

func (r *RedisStore) CompareAndPut(ctx context.Context, s *models.ChallengeSession) (bool, error) {
	c, raw, err := r.encode(s)
	if err != nil {
		return false, err
	}

	ok, err := r.compareAnd(ctx, s.VoterID, s.Revision, func(p redis.Pipeliner) {
		p.Set(ctx, key(s.VoterID), raw, r.ttl)
	})
	if ok {
		adopt(s, c)
	}
	return ok, err
}

func (r *RedisStore) Clear(ctx context.Context, voterID int64) error {
	if err := r.client.Del(ctx, key(voterID)).Err(); err != nil {
		return fmt.Errorf("error clearing session: %w", err)
	}
	return nil
}

func (r *RedisStore) CompareAndClear(ctx context.Context, voterID int64, revision string) (bool, error) {
	return r.compareAnd(ctx, voterID, revision, func(p redis.Pipeliner) {
		p.Del(ctx, key(voterID))
	})
}

// compareAnd runs write in a MULTI block if the stored revision still
// matches. A concurrent write to the key aborts the transaction.
func (r *RedisStore) compareAnd(ctx context.Context, voterID int64, revision string, write func(redis.Pipeliner)) (bool, error) {
	matched := false
	err := r.client.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := r.read(ctx, tx, voterID)
		if err != nil {
			return err
		}
		if cur == nil || cur.Revision != revision {
			return nil
		}
		if _, err := tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			write(p)
			return nil
		}); err != nil {
			return err
		}
		matched = true
		return nil
	}, key(voterID))

	if errors.Is(err, redis.TxFailedErr) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("error updating session: %w", err)
	}
	return matched, nil
}

func (r *RedisStore) Close() error {
	if err := r.client.Close(); err != nil {
		return fmt.Errorf("error closing redis client: %w", err)
	}
	return nil
}
