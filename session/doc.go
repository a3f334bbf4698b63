// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package session stores each voter's in-flight challenge.
//
// MemoryStore is the default. RedisStore keeps sessions under
// pollgate:session:<voter id> as JSON. Both copy values in and out, so a
// caller mutating a session never affects what the store holds until Put.
//
// Each write stamps a new Revision. The compare variants only write when the
// stored revision is unchanged; RedisStore checks it inside WATCH/MULTI.
package session
