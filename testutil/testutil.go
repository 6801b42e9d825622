// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/danielhkuo/runoff/auth"
	"github.com/danielhkuo/runoff/cliparse"
	"github.com/danielhkuo/runoff/db"
	"github.com/danielhkuo/runoff/models"
)

// TestDBURL is an in-memory SQLite database, private to one connection
const TestDBURL = "file::memory:"

// SetupTestDB opens a fresh in-memory store with the full schema
func SetupTestDB(t *testing.T) *db.Store {
	t.Helper()

	conn, err := db.Open(db.SQLite, TestDBURL)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if err := db.CreateSchema(conn, db.SQLite); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	return db.NewStore(conn, db.SQLite)
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:            3318,
		DatabaseURL:     TestDBURL,
		DatabaseType:    string(db.SQLite),
		AdminKeySalt:    "test-admin-salt",
		PollSlugSalt:    "test-slug-salt",
		AuditSalt:       "test-audit-salt",
		PollDuration:    time.Hour,
		ResultsCacheTTL: time.Minute,
	}
}

// TestPoll is a poll created directly in the store
type TestPoll struct {
	models.Poll
	Options  []models.Option
	AdminKey string
}

// OptionID returns the ID of the named option
func (p TestPoll) OptionID(t *testing.T, name string) int64 {
	t.Helper()
	for _, opt := range p.Options {
		if opt.Name == name {
			return opt.OptionID
		}
	}
	t.Fatalf("no option named %q", name)
	return 0
}

// CreateTestPoll creates a poll with the given options.
// status should be "open" or "closed".
func CreateTestPoll(t *testing.T, store *db.Store, cfg cliparse.Config, status string, options ...string) TestPoll {
	t.Helper()

	if len(options) == 0 {
		options = []string{"Tacos", "Sushi", "Pizza"}
	}

	now := time.Now()
	closesOn := now.Add(time.Hour)
	if status == models.StatusClosed {
		closesOn = now.Add(-time.Minute)
	}

	poll, opts, err := store.CreatePoll(context.Background(), db.NewPoll{
		Title:     "Test Poll",
		Options:   options,
		CreatedOn: now.Add(-time.Hour),
		ClosesOn:  closesOn,
	}, cfg.PollSlugSalt)
	if err != nil {
		t.Fatalf("Failed to create test poll: %v", err)
	}

	return TestPoll{
		Poll:     poll,
		Options:  opts,
		AdminKey: auth.GenerateAdminKey(poll.PollID, cfg.AdminKeySalt),
	}
}

// CreateTestVoter claims a username on an open poll and returns the voter token
func CreateTestVoter(t *testing.T, store *db.Store, pollID int64, username string) string {
	t.Helper()

	voterID, err := store.ClaimUsername(context.Background(), pollID, username, time.Now())
	if err != nil {
		t.Fatalf("Failed to create test voter: %v", err)
	}
	return voterID
}

// CastTestVote stores a ballot, first choice first
func CastTestVote(t *testing.T, store *db.Store, pollID int64, voterID string, ranks ...int64) {
	t.Helper()

	if err := store.CastVote(context.Background(), pollID, voterID, ranks, "", time.Now()); err != nil {
		t.Fatalf("Failed to cast test vote: %v", err)
	}
}

// ClosePoll closes an open test poll
func ClosePoll(t *testing.T, store *db.Store, pollID int64) {
	t.Helper()

	if _, err := store.ClosePoll(context.Background(), pollID, time.Now()); err != nil {
		t.Fatalf("Failed to close test poll: %v", err)
	}
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body any, headers map[string]string) *http.Request {
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
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
