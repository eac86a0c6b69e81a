// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/openballot/campus-vote/auth"
	"github.com/openballot/campus-vote/cliparse"
	"github.com/openballot/campus-vote/db"
	"github.com/openballot/campus-vote/models"
)

var dbSeq atomic.Int64

// SetupTestDB creates a fresh in-memory SQLite database with the full
// schema. Each call gets its own database. The pool is capped at one
// connection: SQLite has a single writer anyway, and the cap keeps the
// shared-cache memory database alive for the whole test.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	name := fmt.Sprintf("campusvote_test_%d", dbSeq.Add(1))
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_pragma=busy_timeout(10000)", name)

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	conn.SetMaxOpenConns(1)

	if err := db.CreateSchema(conn); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	return conn
}

// GetTestConfig returns a standard test configuration. UTC keeps
// civil-day assertions deterministic regardless of the host zone.
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:         4417,
		DatabaseURL:  "file:test?mode=memory",
		DatabaseType: "sqlite",
		AdminKeySalt: "test-admin-salt",
		Timezone:     "UTC",
	}
}

// CreateTestElection creates an election whose window matches the
// requested lifecycle state relative to time.Now in UTC.
// state should be "Scheduled", "Active", "Completed", or "Cancelled".
func CreateTestElection(t *testing.T, conn *sql.DB, state string) string {
	t.Helper()

	electionID, _ := auth.GenerateID(16)

	now := time.Now().UTC()
	var start time.Time
	stored := state

	switch state {
	case models.StatusScheduled:
		start = now.Add(48 * time.Hour)
	case models.StatusActive:
		start = now
	case models.StatusCompleted:
		start = now.Add(-72 * time.Hour)
	case models.StatusCancelled:
		start = now
	default:
		t.Fatalf("unknown election state %q", state)
	}
	end := start.Add(24 * time.Hour)

	var endedAt *time.Time
	if state == models.StatusCompleted {
		e := start.Add(24 * time.Hour)
		endedAt = &e
	}

	_, err := conn.Exec(`
		INSERT INTO election (id, title, description, election_type, status, priority, start_date, end_date, total_votes, ended_at, created_at)
		VALUES ($1, $2, 'A test election', 'General', $3, 'medium', $4, $5, 0, $6, $7)
	`, electionID, "Test Election "+electionID[:8], stored, start, end, endedAt, now)
	if err != nil {
		t.Fatalf("Failed to create test election: %v", err)
	}

	return electionID
}

// AddTestCandidate creates a candidate and returns the candidate ID
func AddTestCandidate(t *testing.T, conn *sql.DB, name string) string {
	t.Helper()

	candidateID, _ := auth.GenerateID(12)
	_, err := conn.Exec(`
		INSERT INTO candidate (id, student_id, name, position, department, academic_level, is_winner, created_at)
		VALUES ($1, $2, $3, 'Representative', 'BCA', 'Third Year', FALSE, $4)
	`, candidateID, "STU-"+candidateID[:8], name, time.Now().UTC())
	if err != nil {
		t.Fatalf("Failed to create test candidate: %v", err)
	}

	return candidateID
}

// AddToRoster links a candidate to an election
func AddToRoster(t *testing.T, conn *sql.DB, electionID, candidateID string) {
	t.Helper()

	_, err := conn.Exec(`
		INSERT INTO election_candidate (election_id, candidate_id, votes)
		VALUES ($1, $2, 0)
	`, electionID, candidateID)
	if err != nil {
		t.Fatalf("Failed to add candidate to roster: %v", err)
	}
}

// AddEligibleVoters snapshots voter IDs into the election's eligible set
func AddEligibleVoters(t *testing.T, conn *sql.DB, electionID string, voterIDs ...string) {
	t.Helper()

	for _, voterID := range voterIDs {
		_, err := conn.Exec(`
			INSERT INTO election_voter (election_id, voter_id)
			VALUES ($1, $2)
		`, electionID, voterID)
		if err != nil {
			t.Fatalf("Failed to add eligible voter: %v", err)
		}
	}
}

// CastTestVote writes a ledger entry and bumps the live counters, the way
// a successful admission would
func CastTestVote(t *testing.T, conn *sql.DB, electionID, voterID, candidateID string) string {
	t.Helper()

	voteID := auth.NewVoteID()
	_, err := conn.Exec(`
		INSERT INTO vote (id, election_id, voter_id, candidate_id, voted_at)
		VALUES ($1, $2, $3, $4, $5)
	`, voteID, electionID, voterID, candidateID, time.Now().UTC())
	if err != nil {
		t.Fatalf("Failed to cast test vote: %v", err)
	}

	if _, err := conn.Exec(`
		UPDATE election_candidate SET votes = votes + 1
		WHERE election_id = $1 AND candidate_id = $2
	`, electionID, candidateID); err != nil {
		t.Fatalf("Failed to bump candidate counter: %v", err)
	}
	if _, err := conn.Exec(`
		UPDATE election SET total_votes = total_votes + 1 WHERE id = $1
	`, electionID); err != nil {
		t.Fatalf("Failed to bump election counter: %v", err)
	}

	return voteID
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

// VoterHeaders builds the trusted-identity header set the upstream
// gateway would attach
func VoterHeaders(voterID string) map[string]string {
	return map[string]string{
		"X-Voter-ID":       voterID,
		"X-Voter-Email":    voterID + "@example.edu",
		"X-Voter-Name":     "Voter " + voterID,
		"X-Voter-Verified": "true",
	}
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
