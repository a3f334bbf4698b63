// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the pollgate API.

# Handler Types

  - PollHandler: poll creation, lookup with tally, soft delete
  - VoteHandler: chat events forwarded to the challenge controller
  - ScreenHandler: the message each voter currently sees

Every request identifies the sender with X-Voter-ID (and optionally
X-Voter-Name), as the chat front end does for each update.

# Polls

	POST   /polls      → CreatePoll (returns admin_key and link)
	GET    /polls      → ListMyPolls
	GET    /polls/{id} → GetPoll (tally, total, has_voted)
	DELETE /polls/{id} → DeletePoll (X-Admin-Key or the creator)

# Challenge Flow

	POST   /polls/{id}/votes → BeginVote
	POST   /challenge/answer → SubmitAnswer
	DELETE /challenge        → Cancel
	POST   /messages         → SendText

Each returns a models.Outcome with the voter's current screen attached.
Outcome statuses map to HTTP codes:

	poll_not_found                     404
	poll_inactive                      410
	invalid_option                     400
	already_voted, no_active_challenge,
	finish_challenge_first             409
	transient_failure                  503

Everything else is 200.

# Screen

	GET /screen                        → GetScreen
	GET /screen/messages/{handle}.png  → GetImage
*/
package handlers
