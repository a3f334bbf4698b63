// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package polls stores polls and answers the poll lookups made while voting.
// Polls are immutable once created except for the active flag.
package polls
