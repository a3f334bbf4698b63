// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package challenge runs the multi-round puzzle a voter must clear before a
vote is recorded.

# States

	Idle ──BeginVote──▶ Awaiting(round 1)
	Awaiting(r) ──wrong──▶ Awaiting(r)      fresh puzzle, unlimited retries
	Awaiting(r) ──right──▶ Awaiting(r+1)    while r < N
	Awaiting(N) ──right──▶ Committing ──▶ Idle

The state of every voter lives in a session.Store and is re-read on each
event, so no lock is held while the voter thinks. Starting a new vote
replaces whatever challenge the voter had in flight.

Events that continue a challenge write back with CompareAndPut or
CompareAndClear against the revision they read. If a newer event for the
same voter got there first, the older one answers no_active_challenge and
leaves the newer session alone.

# Outcomes

Controller methods never return errors. Every event yields a
models.Outcome whose Status is one of the models.Status constants:

	challenge_issued, next_round, incorrect_answer
	accepted, already_voted, transient_failure
	poll_not_found, poll_inactive, invalid_option
	no_active_challenge, finish_challenge_first
	cancelled, idle

The session is cleared after the commit whatever the ledger answers, so a
voter is never stuck. Removing an old puzzle from the screen is best effort.
*/
package challenge
