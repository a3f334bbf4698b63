// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import "time"

// Challenge outcome statuses
const (
	StatusChallengeIssued      = "challenge_issued"
	StatusIncorrectAnswer      = "incorrect_answer"
	StatusNextRound            = "next_round"
	StatusAccepted             = "accepted"
	StatusAlreadyVoted         = "already_voted"
	StatusPollNotFound         = "poll_not_found"
	StatusPollInactive         = "poll_inactive"
	StatusInvalidOption        = "invalid_option"
	StatusNoActiveChallenge    = "no_active_challenge"
	StatusFinishChallengeFirst = "finish_challenge_first"
	StatusTransientFailure     = "transient_failure"
	StatusCancelled            = "cancelled"
	StatusIdle                 = "idle"
)

// CommitStatus is the result of a ledger insert.
type CommitStatus int

const (
	CommitAccepted CommitStatus = iota
	CommitAlreadyVoted
	CommitTransientFailure
)

func (s CommitStatus) String() string {
	switch s {
	case CommitAccepted:
		return "accepted"
	case CommitAlreadyVoted:
		return "already_voted"
	default:
		return "transient_failure"
	}
}

// Request types

type CreatePollRequest struct {
	Question   string   `json:"question"`
	Options    []string `json:"options"`
	LogChannel string   `json:"log_channel,omitempty"`
}

type BeginVoteRequest struct {
	OptionIndex int `json:"option_index"`
}

type SubmitAnswerRequest struct {
	Value int `json:"value"`
}

type TextMessageRequest struct {
	Text string `json:"text"`
}

// Response types

type CreatePollResponse struct {
	PollID   string `json:"poll_id"`
	AdminKey string `json:"admin_key"`
	Link     string `json:"link"`
}

type PollResponse struct {
	Poll     Poll        `json:"poll"`
	Tally    map[int]int `json:"tally"`
	Total    int         `json:"total"`
	HasVoted *bool       `json:"has_voted,omitempty"`
}

// Domain types

type Poll struct {
	ID         string    `json:"id"`
	CreatorID  int64     `json:"creator_id"`
	Question   string    `json:"question"`
	Options    []string  `json:"options"`
	LogChannel *string   `json:"log_channel,omitempty"`
	Active     bool      `json:"active"`
	CreatedAt  time.Time `json:"created_at"`
}

type Vote struct {
	ID          int64     `json:"id"`
	PollID      string    `json:"poll_id"`
	VoterID     int64     `json:"-"`
	OptionIndex int       `json:"option_index"`
	VotedAt     time.Time `json:"voted_at"`
}

// Puzzle is one round of the image challenge. Answer never leaves the server.
type Puzzle struct {
	ID         string `json:"id"`
	Image      []byte `json:"-"`
	Expression string `json:"-"`
	Answer     int    `json:"-"`
	Options    [4]int `json:"options"`
}

// MessageHandle identifies a message shown on a voter's screen.
type MessageHandle string

// ChallengeSession is the in-flight vote attempt of a single voter.
// ExpectedAnswer is nil between rounds and while the vote is being committed.
// Revision changes on every store write and guards conditional updates.
type ChallengeSession struct {
	VoterID        int64         `json:"voter_id"`
	PollID         string        `json:"poll_id"`
	OptionIndex    int           `json:"option_index"`
	RoundsSolved   int           `json:"rounds_solved"`
	ExpectedAnswer *int          `json:"expected_answer,omitempty"`
	PuzzleID       string        `json:"puzzle_id,omitempty"`
	Message        MessageHandle `json:"message,omitempty"`
	StartedAt      time.Time     `json:"started_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
	Revision       string        `json:"revision"`
}

// Awaiting reports whether the session is waiting for an answer.
func (s *ChallengeSession) Awaiting() bool {
	return s != nil && s.ExpectedAnswer != nil
}

// Action is a button attached to a displayed message.
type Action struct {
	Label string `json:"label"`
	Data  string `json:"data,omitempty"`
	URL   string `json:"url,omitempty"`
}

// PuzzleMessage is what the display surface shows for one round.
type PuzzleMessage struct {
	PuzzleID string `json:"puzzle_id"`
	Image    []byte `json:"-"`
	Caption  string `json:"caption"`
	Options  [4]int `json:"options"`
}

// Screen is the message currently displayed to a voter.
type Screen struct {
	Handle   MessageHandle `json:"handle"`
	Kind     string        `json:"kind"`
	Text     string        `json:"text"`
	ImageURL string        `json:"image_url,omitempty"`
	Options  []int         `json:"options,omitempty"`
	Actions  []Action      `json:"actions,omitempty"`
	ShownAt  time.Time     `json:"shown_at"`
}

// VoteResult is reported upward after a successful commit.
type VoteResult struct {
	PollID         string      `json:"poll_id"`
	Question       string      `json:"question"`
	Options        []string    `json:"options"`
	OptionIndex    int         `json:"option_index"`
	SequenceNumber int         `json:"sequence_number,omitempty"`
	Tally          map[int]int `json:"tally"`
	Total          int         `json:"total"`
}

// VoteRecord is the payload handed to vote publication.
type VoteRecord struct {
	PollID         string      `json:"poll_id"`
	Question       string      `json:"question"`
	LogChannel     *string     `json:"log_channel,omitempty"`
	MaskedVoter    string      `json:"voter"`
	VoterName      string      `json:"-"`
	OptionIndex    int         `json:"option_index"`
	OptionLabel    string      `json:"option_label"`
	SequenceNumber int         `json:"sequence_number"`
	Tally          map[int]int `json:"tally"`
	Total          int         `json:"total"`
	RecordedAt     time.Time   `json:"recorded_at"`
}

// Outcome is what the challenge controller returns for every event.
type Outcome struct {
	Status  string      `json:"status"`
	Message string      `json:"message"`
	Round   int         `json:"round,omitempty"`
	Rounds  int         `json:"rounds,omitempty"`
	Screen  *Screen     `json:"screen,omitempty"`
	Result  *VoteResult `json:"result,omitempty"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
