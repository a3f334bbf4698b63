// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package display keeps the message each voter currently sees.
//
// The Mailbox plays the part of a chat window: showing a message replaces
// what the voter saw before, and removing a message blanks the window only
// if that message is still the one on screen.
package display
