// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package challenge

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/danielhkuo/pollgate/display"
	"github.com/danielhkuo/pollgate/models"
	"github.com/danielhkuo/pollgate/polls"
	"github.com/danielhkuo/pollgate/session"
)

type fakePolls struct {
	mu    sync.Mutex
	polls map[string]models.Poll
	err   error
}

func newFakePolls(ps ...models.Poll) *fakePolls {
	f := &fakePolls{polls: make(map[string]models.Poll)}
	for _, p := range ps {
		f.polls[p.ID] = p
	}
	return f
}

func (f *fakePolls) GetPoll(_ context.Context, pollID string) (models.Poll, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return models.Poll{}, f.err
	}
	p, ok := f.polls[pollID]
	if !ok {
		return models.Poll{}, polls.ErrPollNotFound
	}
	return p, nil
}

func (f *fakePolls) deactivate(pollID string) {
	f.mu.Lock()
	p := f.polls[pollID]
	p.Active = false
	f.polls[pollID] = p
	f.mu.Unlock()
}

// fakeLedger keeps votes in memory with the same uniqueness rule as the SQL ledger.
type fakeLedger struct {
	mu      sync.Mutex
	order   map[string][]int64
	choice  map[string]map[int64]int
	commits int

	forceStatus *models.CommitStatus
	hasVotedErr error
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{order: make(map[string][]int64), choice: make(map[string]map[int64]int)}
}

func (f *fakeLedger) Commit(_ context.Context, pollID string, voterID int64, optionIndex int) (models.CommitStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commits++

	if f.forceStatus != nil {
		if *f.forceStatus == models.CommitTransientFailure {
			return *f.forceStatus, errors.New("database is locked")
		}
		return *f.forceStatus, nil
	}
	if _, ok := f.choice[pollID][voterID]; ok {
		return models.CommitAlreadyVoted, nil
	}
	f.record(pollID, voterID, optionIndex)
	return models.CommitAccepted, nil
}

func (f *fakeLedger) record(pollID string, voterID int64, optionIndex int) {
	if f.choice[pollID] == nil {
		f.choice[pollID] = make(map[int64]int)
	}
	f.choice[pollID][voterID] = optionIndex
	f.order[pollID] = append(f.order[pollID], voterID)
}

func (f *fakeLedger) preload(pollID string, voterID int64, optionIndex int) {
	f.mu.Lock()
	f.record(pollID, voterID, optionIndex)
	f.mu.Unlock()
}

func (f *fakeLedger) HasVoted(_ context.Context, pollID string, voterID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.hasVotedErr != nil {
		return false, f.hasVotedErr
	}
	_, ok := f.choice[pollID][voterID]
	return ok, nil
}

func (f *fakeLedger) SequenceNumber(_ context.Context, pollID string, voterID int64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, v := range f.order[pollID] {
		if v == voterID {
			return i + 1, nil
		}
	}
	return 0, errors.New("vote not found")
}

func (f *fakeLedger) Tally(_ context.Context, pollID string) (map[int]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	tally := make(map[int]int)
	for _, opt := range f.choice[pollID] {
		tally[opt]++
	}
	return tally, nil
}

func (f *fakeLedger) Total(_ context.Context, pollID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.order[pollID]), nil
}

func (f *fakeLedger) commitCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.commits
}

// fakePuzzles hands out predictable puzzles: answer 10+n for the n-th call.
type fakePuzzles struct {
	mu  sync.Mutex
	n   int
	err error
}

func (f *fakePuzzles) Generate(context.Context) (models.Puzzle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return models.Puzzle{}, f.err
	}
	f.n++
	answer := 10 + f.n
	return models.Puzzle{
		ID:      fmt.Sprintf("pz-%d", f.n),
		Image:   []byte("png"),
		Answer:  answer,
		Options: [4]int{answer + 2, answer, answer - 1, answer + 5},
	}, nil
}

func (f *fakePuzzles) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.n
}

// gatedPuzzles blocks one armed Generate call until release is closed.
type gatedPuzzles struct {
	*fakePuzzles

	mu      sync.Mutex
	armed   bool
	entered chan struct{}
	release chan struct{}
}

func (g *gatedPuzzles) arm() {
	g.mu.Lock()
	g.armed = true
	g.entered = make(chan struct{})
	g.release = make(chan struct{})
	g.mu.Unlock()
}

func (g *gatedPuzzles) Generate(ctx context.Context) (models.Puzzle, error) {
	g.mu.Lock()
	armed := g.armed
	g.armed = false
	entered, release := g.entered, g.release
	g.mu.Unlock()

	if armed {
		close(entered)
		<-release
	}
	return g.fakePuzzles.Generate(ctx)
}

// flakyDisplay wraps a Mailbox and can fail on demand.
type flakyDisplay struct {
	*display.Mailbox
	failShow   bool
	failRemove bool

	mu      sync.Mutex
	removed []models.MessageHandle
}

func (d *flakyDisplay) ShowPuzzle(ctx context.Context, voterID int64, msg models.PuzzleMessage) (models.MessageHandle, error) {
	if d.failShow {
		return "", errors.New("chat unreachable")
	}
	return d.Mailbox.ShowPuzzle(ctx, voterID, msg)
}

func (d *flakyDisplay) RemoveMessage(ctx context.Context, voterID int64, handle models.MessageHandle) error {
	d.mu.Lock()
	d.removed = append(d.removed, handle)
	d.mu.Unlock()
	if d.failRemove {
		return errors.New("message too old to delete")
	}
	return d.Mailbox.RemoveMessage(ctx, voterID, handle)
}

type recordingNotifier struct {
	mu      sync.Mutex
	records []models.VoteRecord
	err     error
}

func (n *recordingNotifier) VoteRecorded(_ context.Context, rec models.VoteRecord) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.records = append(n.records, rec)
	return n.err
}

type fixture struct {
	polls    *fakePolls
	ledger   *fakeLedger
	puzzles  *fakePuzzles
	sessions *session.MemoryStore
	display  *flakyDisplay
	notifier *recordingNotifier
	ctrl     *Controller
}

func testPoll(id string, options ...string) models.Poll {
	return models.Poll{ID: id, CreatorID: 1, Question: "Question " + id, Options: options, Active: true}
}

func newFixture(t *testing.T, rounds int) *fixture {
	t.Helper()
	f := &fixture{
		polls:    newFakePolls(testPoll("p1", "A", "B"), testPoll("p2", "X", "Y", "Z")),
		ledger:   newFakeLedger(),
		puzzles:  &fakePuzzles{},
		sessions: session.NewMemoryStore(0),
		display:  &flakyDisplay{Mailbox: display.NewMailbox()},
		notifier: &recordingNotifier{},
	}
	f.ctrl = New(Deps{
		Polls:    f.polls,
		Ledger:   f.ledger,
		Puzzles:  f.puzzles,
		Sessions: f.sessions,
		Display:  f.display,
		Notifier: f.notifier,
	}, rounds)
	return f
}

// expected returns the answer the voter's session is waiting for.
func (f *fixture) expected(t *testing.T, voterID int64) int {
	t.Helper()
	s, err := f.sessions.Get(context.Background(), voterID)
	if err != nil || !s.Awaiting() {
		t.Fatalf("voter %d has no pending answer (%v)", voterID, err)
	}
	return *s.ExpectedAnswer
}

func (f *fixture) session(t *testing.T, voterID int64) *models.ChallengeSession {
	t.Helper()
	s, err := f.sessions.Get(context.Background(), voterID)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func assertStatus(t *testing.T, out models.Outcome, expected string) {
	t.Helper()
	if out.Status != expected {
		t.Fatalf("expected status %s, got %s (%s)", expected, out.Status, out.Message)
	}
}
