// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrInvalidAdminKey = errors.New("invalid admin key")
	ErrInvalidVoterID  = errors.New("invalid voter id")
)

// GenerateID creates a random hex ID of the specified byte length
func GenerateID(byteLen int) (string, error) {
	b := make([]byte, byteLen)
	_, err := rand.Read(b)
	if err != nil {
		return "", fmt.Errorf("failed to generate random ID: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// GeneratePollID creates a short URL-safe poll token.
// 6 random bytes encode to exactly 8 base64url characters, so no padding.
func GeneratePollID() (string, error) {
	b := make([]byte, 6)
	_, err := rand.Read(b)
	if err != nil {
		return "", fmt.Errorf("failed to generate poll ID: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// GenerateAdminKey creates an HMAC-based admin key for a poll
// This is deterministic and verifiable
func GenerateAdminKey(pollID, salt string) string {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(pollID))
	sum := h.Sum(nil)
	// Use URL-safe base64 and trim padding for cleaner keys
	return strings.TrimRight(base64.URLEncoding.EncodeToString(sum), "=")
}

// ValidateAdminKey checks if the provided admin key is valid for the poll
func ValidateAdminKey(pollID, adminKey, salt string) error {
	expected := GenerateAdminKey(pollID, salt)
	if !hmac.Equal([]byte(adminKey), []byte(expected)) {
		return ErrInvalidAdminKey
	}
	return nil
}

// ParseVoterID parses the numeric chat identity of a voter.
func ParseVoterID(raw string) (int64, error) {
	if raw == "" {
		return 0, ErrInvalidVoterID
	}
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id == 0 {
		return 0, ErrInvalidVoterID
	}
	return id, nil
}

// MaskVoterID hides the middle digits of a voter id for public vote logs.
// Ids of four digits or fewer are fully masked.
func MaskVoterID(voterID int64) string {
	s := strconv.FormatInt(voterID, 10)
	if len(s) <= 4 {
		return "****"
	}
	mid := len(s) / 2
	start := max(mid-2, 0)
	end := min(mid+2, len(s))
	return s[:start] + "****" + s[end:]
}
