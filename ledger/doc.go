// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package ledger records votes and answers tally queries.

# Commit

Commit is the only way a vote row is created:

	status, err := l.Commit(ctx, pollID, voterID, optionIndex)

	CommitAccepted          row inserted
	CommitAlreadyVoted      unique (poll_id, voter_id) rejected the insert; err is nil
	CommitTransientFailure  anything else; err describes it

Lock contention (SQLite BUSY/LOCKED, Postgres serialization failures,
deadlocks and lock timeouts) is retried up to 3 attempts with a backoff of
300ms × attempt. The backoff honours ctx.

Concurrent commits for the same voter are serialized by the unique
constraint: exactly one of them is accepted.

# Queries

	l.HasVoted(ctx, pollID, voterID)
	l.SequenceNumber(ctx, pollID, voterID) // 1 for the first vote on the poll
	l.Tally(ctx, pollID)                   // option index → count
	l.Total(ctx, pollID)

Sequence numbers follow insertion order and are unique per poll.
*/
package ledger
