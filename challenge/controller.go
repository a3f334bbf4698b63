// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package challenge

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/danielhkuo/pollgate/auth"
	"github.com/danielhkuo/pollgate/metrics"
	"github.com/danielhkuo/pollgate/models"
	"github.com/danielhkuo/pollgate/polls"
	"github.com/danielhkuo/pollgate/session"
)

// DefaultRounds is how many puzzles a voter solves per vote.
const DefaultRounds = 3

// errSuperseded means a newer event for the same voter rewrote the session
// while this one was in progress.
var errSuperseded = errors.New("challenge superseded by a newer event")

type PollSource interface {
	GetPoll(ctx context.Context, pollID string) (models.Poll, error)
}

type Ledger interface {
	Commit(ctx context.Context, pollID string, voterID int64, optionIndex int) (models.CommitStatus, error)
	HasVoted(ctx context.Context, pollID string, voterID int64) (bool, error)
	SequenceNumber(ctx context.Context, pollID string, voterID int64) (int, error)
	Tally(ctx context.Context, pollID string) (map[int]int, error)
	Total(ctx context.Context, pollID string) (int, error)
}

type Puzzles interface {
	Generate(ctx context.Context) (models.Puzzle, error)
}

// Display is the voter's screen. RemoveMessage is best effort.
type Display interface {
	ShowPuzzle(ctx context.Context, voterID int64, msg models.PuzzleMessage) (models.MessageHandle, error)
	RemoveMessage(ctx context.Context, voterID int64, handle models.MessageHandle) error
	ShowResult(ctx context.Context, voterID int64, text string, actions []models.Action) (models.MessageHandle, error)
}

// Notifier hears about accepted votes. Publication failures are logged only.
type Notifier interface {
	VoteRecorded(ctx context.Context, rec models.VoteRecord) error
}

// Voter identifies who sent an event. Name is only used in logs.
type Voter struct {
	ID   int64
	Name string
}

type Deps struct {
	Polls    PollSource
	Ledger   Ledger
	Puzzles  Puzzles
	Sessions session.Store
	Display  Display
	Notifier Notifier
	Logger   *zap.Logger
	Metrics  *metrics.Metrics
}

// Controller runs the per-voter challenge state machine. It holds no lock
// between events; all state lives in the session store.
type Controller struct {
	polls    PollSource
	ledger   Ledger
	puzzles  Puzzles
	sessions session.Store
	display  Display
	notifier Notifier
	logger   *zap.Logger
	metrics  *metrics.Metrics
	rounds   int
	now      func() time.Time
}

func New(deps Deps, rounds int) *Controller {
	if rounds < 1 {
		rounds = DefaultRounds
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		polls:    deps.Polls,
		ledger:   deps.Ledger,
		puzzles:  deps.Puzzles,
		sessions: deps.Sessions,
		display:  deps.Display,
		notifier: deps.Notifier,
		logger:   logger.Named("challenge"),
		metrics:  deps.Metrics,
		rounds:   rounds,
		now:      time.Now,
	}
}

// Rounds is the number of puzzles per vote.
func (c *Controller) Rounds() int { return c.rounds }

// BeginVote starts a challenge for the chosen option, replacing any
// challenge the voter had in flight.
func (c *Controller) BeginVote(ctx context.Context, voter Voter, pollID string, optionIndex int) models.Outcome {
	log := c.voterLogger(voter).With(zap.String("poll_id", pollID))

	poll, out, ok := c.activePoll(ctx, log, pollID)
	if !ok {
		return out
	}
	if optionIndex < 0 || optionIndex >= len(poll.Options) {
		return outcome(models.StatusInvalidOption, "That option does not exist.")
	}

	voted, err := c.ledger.HasVoted(ctx, pollID, voter.ID)
	if err != nil {
		log.Error("vote pre-check failed", zap.Error(err))
		return outcome(models.StatusTransientFailure, msgTransient)
	}
	if voted {
		out := outcome(models.StatusAlreadyVoted, msgAlreadyVoted)
		out.Result = c.currentResult(ctx, log, poll, optionIndex, 0)
		return out
	}

	prev, err := c.sessions.Get(ctx, voter.ID)
	if err != nil {
		log.Error("session read failed", zap.Error(err))
		return outcome(models.StatusTransientFailure, msgTransient)
	}
	if prev != nil {
		c.removeMessage(ctx, log, voter.ID, prev.Message)
	}

	now := c.now()
	s := &models.ChallengeSession{
		VoterID:     voter.ID,
		PollID:      pollID,
		OptionIndex: optionIndex,
		StartedAt:   now,
		UpdatedAt:   now,
	}
	if err := c.sessions.Put(ctx, s); err != nil {
		log.Error("session write failed", zap.Error(err))
		return outcome(models.StatusTransientFailure, msgTransient)
	}

	if err := c.issuePuzzle(ctx, voter, s, poll, ""); err != nil {
		return c.abort(ctx, log, voter.ID, s, err)
	}

	c.metrics.ChallengeStarted()
	log.Info("challenge started", zap.Int("option", optionIndex))

	out = outcome(models.StatusChallengeIssued, "Solve the puzzle to confirm your vote.")
	out.Round, out.Rounds = 1, c.rounds
	return out
}

// SubmitAnswer checks the voter's answer to the puzzle on screen.
func (c *Controller) SubmitAnswer(ctx context.Context, voter Voter, value int) models.Outcome {
	log := c.voterLogger(voter)

	s, err := c.sessions.Get(ctx, voter.ID)
	if err != nil {
		log.Error("session read failed", zap.Error(err))
		return outcome(models.StatusTransientFailure, msgTransient)
	}
	if !s.Awaiting() {
		return outcome(models.StatusNoActiveChallenge, msgNoChallenge)
	}
	log = log.With(zap.String("poll_id", s.PollID))

	poll, out, ok := c.activePoll(ctx, log, s.PollID)
	if !ok {
		if out.Status != models.StatusTransientFailure && c.release(ctx, log, s) {
			c.removeMessage(ctx, log, voter.ID, s.Message)
		}
		return out
	}

	if value != *s.ExpectedAnswer {
		c.metrics.AnswerChecked(false)
		if err := c.issuePuzzle(ctx, voter, s, poll, "Wrong answer! Try again.\n\n"); err != nil {
			return c.abort(ctx, log, voter.ID, s, err)
		}
		out := outcome(models.StatusIncorrectAnswer, "Wrong answer, here is a new puzzle.")
		out.Round, out.Rounds = s.RoundsSolved+1, c.rounds
		return out
	}

	c.metrics.AnswerChecked(true)
	s.RoundsSolved++
	s.ExpectedAnswer = nil
	stored, err := c.sessions.CompareAndPut(ctx, s)
	if err != nil {
		return c.abort(ctx, log, voter.ID, s, fmt.Errorf("store session: %w", err))
	}
	if !stored {
		return c.superseded(log)
	}

	if s.RoundsSolved < c.rounds {
		if err := c.issuePuzzle(ctx, voter, s, poll, "Correct!\n\n"); err != nil {
			return c.abort(ctx, log, voter.ID, s, err)
		}
		out := outcome(models.StatusNextRound, "Correct! On to the next puzzle.")
		out.Round, out.Rounds = s.RoundsSolved+1, c.rounds
		return out
	}

	return c.commit(ctx, log, voter, s, poll)
}

// HandleInput answers any non-challenge message from the voter.
func (c *Controller) HandleInput(ctx context.Context, voter Voter) models.Outcome {
	s, err := c.sessions.Get(ctx, voter.ID)
	if err != nil {
		c.voterLogger(voter).Error("session read failed", zap.Error(err))
		return outcome(models.StatusTransientFailure, msgTransient)
	}
	if s.Awaiting() {
		out := outcome(models.StatusFinishChallengeFirst, "Please solve the puzzle using the answer buttons first.")
		out.Round, out.Rounds = s.RoundsSolved+1, c.rounds
		return out
	}
	return outcome(models.StatusIdle, "Nothing in progress.")
}

// Cancel abandons the voter's challenge, if any.
func (c *Controller) Cancel(ctx context.Context, voter Voter) models.Outcome {
	log := c.voterLogger(voter)

	// Retry when another event rewrites the session between read and clear
	for attempt := 0; attempt < cancelAttempts; attempt++ {
		s, err := c.sessions.Get(ctx, voter.ID)
		if err != nil {
			log.Error("session read failed", zap.Error(err))
			return outcome(models.StatusTransientFailure, msgTransient)
		}
		if s == nil {
			return outcome(models.StatusNoActiveChallenge, msgNoChallenge)
		}

		cleared, err := c.sessions.CompareAndClear(ctx, voter.ID, s.Revision)
		if err != nil {
			log.Error("session clear failed", zap.Error(err))
			return outcome(models.StatusTransientFailure, msgTransient)
		}
		if !cleared {
			continue
		}

		c.removeMessage(ctx, log, voter.ID, s.Message)
		log.Info("challenge cancelled", zap.String("poll_id", s.PollID), zap.Int("rounds_solved", s.RoundsSolved))
		return outcome(models.StatusCancelled, "Vote cancelled.")
	}

	log.Warn("cancel kept losing to concurrent events")
	return outcome(models.StatusTransientFailure, msgTransient)
}

const cancelAttempts = 3

// commit records the vote after the last round. The session is claimed
// by clearing it first, so it is gone whatever the ledger answers and only
// the event that still owns it reaches the ledger.
func (c *Controller) commit(ctx context.Context, log *zap.Logger, voter Voter, s *models.ChallengeSession, poll models.Poll) models.Outcome {
	claimed, err := c.sessions.CompareAndClear(ctx, voter.ID, s.Revision)
	if err != nil {
		log.Error("session clear failed", zap.Error(err))
		return outcome(models.StatusTransientFailure, msgTransient)
	}
	if !claimed {
		return c.superseded(log)
	}

	status, err := c.ledger.Commit(ctx, s.PollID, voter.ID, s.OptionIndex)
	c.removeMessage(ctx, log, voter.ID, s.Message)

	switch status {
	case models.CommitAccepted:
		seq, err := c.ledger.SequenceNumber(ctx, s.PollID, voter.ID)
		if err != nil {
			log.Warn("sequence number unavailable", zap.Error(err))
		}
		result := c.currentResult(ctx, log, poll, s.OptionIndex, seq)

		c.show(ctx, log, voter.ID, acceptedText(poll, result), resultActions(poll, seq))
		c.publish(ctx, log, voter, poll, result)
		log.Info("vote accepted", zap.Int("option", s.OptionIndex), zap.Int("sequence", seq))

		out := outcome(models.StatusAccepted, "Your vote has been recorded.")
		out.Result = result
		return out

	case models.CommitAlreadyVoted:
		c.show(ctx, log, voter.ID, msgAlreadyVoted, nil)
		out := outcome(models.StatusAlreadyVoted, msgAlreadyVoted)
		out.Result = c.currentResult(ctx, log, poll, s.OptionIndex, 0)
		return out

	default:
		log.Error("vote commit failed", zap.Error(err))
		c.show(ctx, log, voter.ID, msgCommitFailed, nil)
		return outcome(models.StatusTransientFailure, msgCommitFailed)
	}
}

// issuePuzzle generates a puzzle for the session's current round, replaces
// the voter's displayed puzzle with it and stores the new answer.
func (c *Controller) issuePuzzle(ctx context.Context, voter Voter, s *models.ChallengeSession, poll models.Poll, prefix string) error {
	puzzle, err := c.puzzles.Generate(ctx)
	if err != nil {
		return fmt.Errorf("generate puzzle: %w", err)
	}

	log := c.voterLogger(voter)
	handle, err := c.display.ShowPuzzle(ctx, voter.ID, models.PuzzleMessage{
		PuzzleID: puzzle.ID,
		Image:    puzzle.Image,
		Caption:  puzzleCaption(prefix, s.RoundsSolved+1, c.rounds, poll.Options[s.OptionIndex]),
		Options:  puzzle.Options,
	})
	if err != nil {
		return fmt.Errorf("show puzzle: %w", err)
	}

	previous := s.Message
	answer := puzzle.Answer
	s.ExpectedAnswer = &answer
	s.PuzzleID = puzzle.ID
	s.Message = handle

	stored, err := c.sessions.CompareAndPut(ctx, s)
	if err == nil && !stored {
		err = errSuperseded
	}
	if err != nil {
		c.removeMessage(ctx, log, voter.ID, handle)
		s.Message = previous
		if errors.Is(err, errSuperseded) {
			return err
		}
		return fmt.Errorf("store session: %w", err)
	}

	c.removeMessage(ctx, log, voter.ID, previous)
	return nil
}

// activePoll loads the poll and maps lookup failures to outcomes.
func (c *Controller) activePoll(ctx context.Context, log *zap.Logger, pollID string) (models.Poll, models.Outcome, bool) {
	poll, err := c.polls.GetPoll(ctx, pollID)
	if errors.Is(err, polls.ErrPollNotFound) {
		return models.Poll{}, outcome(models.StatusPollNotFound, "This poll does not exist or has been deleted."), false
	}
	if err != nil {
		log.Error("poll lookup failed", zap.Error(err))
		return models.Poll{}, outcome(models.StatusTransientFailure, msgTransient), false
	}
	if !poll.Active {
		return models.Poll{}, outcome(models.StatusPollInactive, "This poll is no longer accepting votes."), false
	}
	return poll, models.Outcome{}, true
}

func (c *Controller) currentResult(ctx context.Context, log *zap.Logger, poll models.Poll, optionIndex, seq int) *models.VoteResult {
	tally, err := c.ledger.Tally(ctx, poll.ID)
	if err != nil {
		log.Warn("tally unavailable", zap.Error(err))
		tally = map[int]int{}
	}
	total, err := c.ledger.Total(ctx, poll.ID)
	if err != nil {
		log.Warn("total unavailable", zap.Error(err))
	}
	return &models.VoteResult{
		PollID:         poll.ID,
		Question:       poll.Question,
		Options:        poll.Options,
		OptionIndex:    optionIndex,
		SequenceNumber: seq,
		Tally:          tally,
		Total:          total,
	}
}

func (c *Controller) publish(ctx context.Context, log *zap.Logger, voter Voter, poll models.Poll, result *models.VoteResult) {
	if c.notifier == nil {
		return
	}
	rec := models.VoteRecord{
		PollID:         poll.ID,
		Question:       poll.Question,
		LogChannel:     poll.LogChannel,
		MaskedVoter:    auth.MaskVoterID(voter.ID),
		VoterName:      voter.Name,
		OptionIndex:    result.OptionIndex,
		OptionLabel:    poll.Options[result.OptionIndex],
		SequenceNumber: result.SequenceNumber,
		Tally:          result.Tally,
		Total:          result.Total,
		RecordedAt:     c.now().UTC(),
	}
	if err := c.notifier.VoteRecorded(ctx, rec); err != nil {
		log.Warn("vote publication failed", zap.Error(err))
	}
}

// abort drops a challenge that can no longer continue. A challenge that
// was superseded is left to the newer event.
func (c *Controller) abort(ctx context.Context, log *zap.Logger, voterID int64, s *models.ChallengeSession, cause error) models.Outcome {
	if errors.Is(cause, errSuperseded) {
		return c.superseded(log)
	}
	log.Error("challenge aborted", zap.Error(cause))
	if c.release(ctx, log, s) {
		c.removeMessage(ctx, log, voterID, s.Message)
	}
	return outcome(models.StatusTransientFailure, msgTransient)
}

func (c *Controller) superseded(log *zap.Logger) models.Outcome {
	log.Info("stale event dropped, challenge was replaced")
	return outcome(models.StatusNoActiveChallenge, msgNoChallenge)
}

func (c *Controller) removeMessage(ctx context.Context, log *zap.Logger, voterID int64, handle models.MessageHandle) {
	if handle == "" {
		return
	}
	if err := c.display.RemoveMessage(ctx, voterID, handle); err != nil {
		log.Debug("could not remove message", zap.String("handle", string(handle)), zap.Error(err))
	}
}

// release clears the session if it is still the one s was read from.
func (c *Controller) release(ctx context.Context, log *zap.Logger, s *models.ChallengeSession) bool {
	ok, err := c.sessions.CompareAndClear(ctx, s.VoterID, s.Revision)
	if err != nil {
		log.Error("session clear failed", zap.Error(err))
		return false
	}
	return ok
}

func (c *Controller) show(ctx context.Context, log *zap.Logger, voterID int64, text string, actions []models.Action) {
	if _, err := c.display.ShowResult(ctx, voterID, text, actions); err != nil {
		log.Warn("could not show result", zap.Error(err))
	}
}

func (c *Controller) voterLogger(voter Voter) *zap.Logger {
	return c.logger.With(zap.Int64("voter_id", voter.ID), zap.String("voter_name", voter.Name))
}

func outcome(status, message string) models.Outcome {
	return models.Outcome{Status: status, Message: message}
}
