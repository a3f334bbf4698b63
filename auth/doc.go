// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides identifier generation and key utilities.

# Poll IDs

Poll IDs are short, opaque, URL-safe tokens:

	pollID, err := auth.GeneratePollID()  // 8 base64url characters

They go straight into share links, so they never contain padding.

# Admin Keys

Admin keys use HMAC-SHA256 to create deterministic, verifiable keys:

	adminKey := auth.GenerateAdminKey(pollID, salt)
	err := auth.ValidateAdminKey(pollID, adminKey, salt)

Since the key is derived from the poll ID and salt it never needs to be
stored. An admin key allows soft-deleting a poll.

# Voter Identity

Voters are identified by the numeric chat id carried on each event:

	voterID, err := auth.ParseVoterID(r.Header.Get("X-Voter-ID"))

Public vote logs never show the raw id:

	auth.MaskVoterID(123456789) // "12****789"

# ID Generation

Random hex IDs, used for request ids:

	id, err := auth.GenerateID(16)  // 32 hex characters
*/
package auth
