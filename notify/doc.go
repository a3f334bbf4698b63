// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package notify publishes accepted votes to the public vote log.
//
// Every type here satisfies challenge.Notifier. KafkaNotifier bounds each
// publish with its own timeout so a slow broker cannot stall a vote.
package notify
