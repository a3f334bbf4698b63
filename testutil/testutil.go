// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/danielhkuo/pollgate/auth"
	"github.com/danielhkuo/pollgate/cliparse"
	"github.com/danielhkuo/pollgate/db"
)

// TestAdminSalt is the admin key salt used by GetTestConfig
const TestAdminSalt = "test-admin-salt"

// SetupTestDB creates a fresh SQLite database file with the full schema.
// The database is closed when the test finishes.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "pollgate_test.db")
	conn, dialect, err := db.Open(context.Background(), string(db.SQLite), path)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if err := db.CreateSchema(context.Background(), conn, dialect); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	return conn
}

// SetupPostgresDB connects to TEST_DATABASE_URL and resets the schema.
// The test is skipped when the variable is unset.
func SetupPostgresDB(t *testing.T) *sql.DB {
	t.Helper()

	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	conn, dialect, err := db.Open(context.Background(), string(db.Postgres), url)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	// Clean up tables before each test
	if _, err := conn.Exec(`
		DROP TABLE IF EXISTS votes CASCADE;
		DROP TABLE IF EXISTS polls CASCADE;
	`); err != nil {
		t.Fatalf("Failed to clean database: %v", err)
	}

	if err := db.CreateSchema(context.Background(), conn, dialect); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	return conn
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:           3318,
		DatabaseType:   string(db.SQLite),
		DatabaseURL:    "pollgate_test.db",
		AdminKeySalt:   TestAdminSalt,
		CaptchaRounds:  3,
		CaptchaWorkers: 2,
		Watermark:      "@test",
		KafkaTopic:     "poll-votes",
		LogLevel:       "debug",
		LogFormat:      "json",
	}
}

// CreateTestPoll creates an active poll in a SQLite test database and returns its ID and admin key
func CreateTestPoll(t *testing.T, conn *sql.DB, creatorID int64, question string, options ...string) (pollID, adminKey string) {
	t.Helper()

	pollID, err := auth.GeneratePollID()
	if err != nil {
		t.Fatalf("Failed to generate poll ID: %v", err)
	}
	adminKey = auth.GenerateAdminKey(pollID, TestAdminSalt)

	encoded, _ := json.Marshal(options)
	_, err = conn.Exec(`
		INSERT INTO polls (poll_id, creator_id, question, options, created_at, is_active)
		VALUES (?, ?, ?, ?, ?, ?)
	`, pollID, creatorID, question, string(encoded), time.Now(), true)
	if err != nil {
		t.Fatalf("Failed to create test poll: %v", err)
	}

	return pollID, adminKey
}

// DeactivateTestPoll soft-deletes a poll
func DeactivateTestPoll(t *testing.T, conn *sql.DB, pollID string) {
	t.Helper()

	if _, err := conn.Exec(`UPDATE polls SET is_active = ? WHERE poll_id = ?`, false, pollID); err != nil {
		t.Fatalf("Failed to deactivate test poll: %v", err)
	}
}

// CastTestVote inserts a vote directly, bypassing the challenge
func CastTestVote(t *testing.T, conn *sql.DB, pollID string, voterID int64, optionIndex int) {
	t.Helper()

	_, err := conn.Exec(`
		INSERT INTO votes (poll_id, voter_id, option_index, voted_at)
		VALUES (?, ?, ?, ?)
	`, pollID, voterID, optionIndex, time.Now())
	if err != nil {
		t.Fatalf("Failed to cast test vote: %v", err)
	}
}

// VoterHeaders returns the identity headers for a voter
func VoterHeaders(voterID int64) map[string]string {
	return map[string]string{
		"X-Voter-ID":   strconv.FormatInt(voterID, 10),
		"X-Voter-Name": "voter" + strconv.FormatInt(voterID, 10),
	}
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
