// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

# Request Types

  - CreatePollRequest: question, options, log_channel
  - BeginVoteRequest: option_index
  - SubmitAnswerRequest: value
  - TextMessageRequest: text

# Response Types

  - CreatePollResponse: poll_id, admin_key, link
  - PollResponse: poll, tally, total, has_voted
  - Outcome: status, message, round, rounds, screen, result
  - ErrorResponse: error, message

# Domain Types

  - Poll, Vote: stored records
  - Puzzle: one challenge round; the answer never leaves the server
  - ChallengeSession: a voter's in-flight attempt
  - Screen, Action, PuzzleMessage: what a voter sees
  - VoteResult, VoteRecord: results and published vote records

# Constants

Outcome statuses:

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

Ledger commit results: CommitAccepted, CommitAlreadyVoted, CommitTransientFailure.
*/
package models
