// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the pollgate API.

# Route Registration

NewRouter creates a configured http.ServeMux with all endpoints:

	mux := router.NewRouter(router.Deps{
		Config:     cfg,
		Polls:      pollStore,
		Ledger:     voteLedger,
		Controller: controller,
		Mailbox:    mailbox,
		Gatherer:   registry,
		Logger:     logger,
	})

# Endpoints

Health and metrics:

	GET /health
	GET /metrics

Polls:

	POST   /polls      - Create poll
	GET    /polls      - Caller's polls
	GET    /polls/{id} - Poll, tally and has_voted
	DELETE /polls/{id} - Soft delete (X-Admin-Key or creator)

Challenge (X-Voter-ID required):

	POST   /polls/{id}/votes - Pick an option, get the first puzzle
	POST   /challenge/answer - Answer the puzzle on screen
	DELETE /challenge        - Abandon the challenge
	POST   /messages         - Any other chat text

Screen (X-Voter-ID required):

	GET /screen                       - Current message
	GET /screen/messages/{handle}.png - Puzzle image

/metrics is only registered when a Gatherer is given.
*/
package router
