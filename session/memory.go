// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package session

import (
	"context"
	"sync"
	"time"

	"github.com/danielhkuo/pollgate/models"
)

// MemoryStore keeps sessions in process memory. Sessions are lost on restart.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[int64]*models.ChallengeSession
	ttl      time.Duration
	now      func() time.Time
}

// NewMemoryStore creates a store. A zero ttl keeps sessions until replaced or cleared.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		sessions: make(map[int64]*models.ChallengeSession),
		ttl:      ttl,
		now:      time.Now,
	}
}

func (m *MemoryStore) Get(_ context.Context, voterID int64) (*models.ChallengeSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return clone(m.live(voterID)), nil
}

func (m *MemoryStore) Put(_ context.Context, s *models.ChallengeSession) error {
	c := stamp(s, m.now())

	m.mu.Lock()
	m.sessions[s.VoterID] = c
	m.mu.Unlock()

	adopt(s, c)
	return nil
}

func (m *MemoryStore) CompareAndPut(_ context.Context, s *models.ChallengeSession) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cur := m.live(s.VoterID)
	if cur == nil || cur.Revision != s.Revision {
		return false, nil
	}
	c := stamp(s, m.now())
	m.sessions[s.VoterID] = c
	adopt(s, c)
	return true, nil
}

func (m *MemoryStore) Clear(_ context.Context, voterID int64) error {
	m.mu.Lock()
	delete(m.sessions, voterID)
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) CompareAndClear(_ context.Context, voterID int64, revision string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cur := m.live(voterID)
	if cur == nil || cur.Revision != revision {
		return false, nil
	}
	delete(m.sessions, voterID)
	return true, nil
}

// live returns the stored session, dropping it if expired. Callers hold mu.
func (m *MemoryStore) live(voterID int64) *models.ChallengeSession {
	s, ok := m.sessions[voterID]
	if !ok {
		return nil
	}
	if m.ttl > 0 && m.now().Sub(s.UpdatedAt) > m.ttl {
		delete(m.sessions, voterID)
		return nil
	}
	return s
}

// Len reports how many sessions are held, expired or not.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
