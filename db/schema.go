// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"fmt"
)

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS.
//
// The SQL is kept portable between PostgreSQL (lib/pq) and SQLite
// (modernc.org/sqlite): no NOW() defaults, no JSONB. Timestamps are always
// written by the application.
func CreateSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

const schema = `
-- Elections
CREATE TABLE IF NOT EXISTS election (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL UNIQUE,
    description TEXT NOT NULL,
    election_type TEXT NOT NULL CHECK (election_type IN ('Department', 'Year', 'General')),
    status TEXT NOT NULL DEFAULT 'Scheduled' CHECK (status IN ('Scheduled', 'Active', 'Completed', 'Cancelled')),
    priority TEXT NOT NULL DEFAULT 'medium' CHECK (priority IN ('low', 'medium', 'high')),
    start_date TIMESTAMP NOT NULL,
    end_date TIMESTAMP NOT NULL,
    total_votes INTEGER NOT NULL DEFAULT 0,
    ended_at TIMESTAMP,
    created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_election_status ON election(status);
CREATE INDEX IF NOT EXISTS idx_election_dates ON election(start_date, end_date);

-- Candidates
CREATE TABLE IF NOT EXISTS candidate (
    id TEXT PRIMARY KEY,
    student_id TEXT NOT NULL UNIQUE,
    name TEXT NOT NULL,
    position TEXT NOT NULL,
    department TEXT NOT NULL,
    academic_level TEXT NOT NULL,
    is_winner BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMP NOT NULL
);

-- Election roster. The votes column is the live per-(election, candidate)
-- counter; a candidate running in two elections has two independent rows.
CREATE TABLE IF NOT EXISTS election_candidate (
    election_id TEXT NOT NULL REFERENCES election(id) ON DELETE CASCADE,
    candidate_id TEXT NOT NULL REFERENCES candidate(id) ON DELETE CASCADE,
    votes INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (election_id, candidate_id)
);

CREATE INDEX IF NOT EXISTS idx_election_candidate_election ON election_candidate(election_id);

-- Eligible voter snapshot, taken at election create/update time.
CREATE TABLE IF NOT EXISTS election_voter (
    election_id TEXT NOT NULL REFERENCES election(id) ON DELETE CASCADE,
    voter_id TEXT NOT NULL,
    PRIMARY KEY (election_id, voter_id)
);

-- Vote ledger. UNIQUE (election_id, voter_id) is the one hard
-- serialization point: concurrent duplicate casts lose here, not in
-- application code.
CREATE TABLE IF NOT EXISTS vote (
    id TEXT PRIMARY KEY,
    election_id TEXT NOT NULL REFERENCES election(id),
    voter_id TEXT NOT NULL,
    candidate_id TEXT NOT NULL REFERENCES candidate(id),
    voted_at TIMESTAMP NOT NULL,
    ip_hash TEXT,
    UNIQUE (election_id, voter_id)
);

CREATE INDEX IF NOT EXISTS idx_vote_election ON vote(election_id);
CREATE INDEX IF NOT EXISTS idx_vote_candidate ON vote(election_id, candidate_id);

-- Final results, one row per closed election. The payload column holds the
-- winners and vote breakdown as JSON.
CREATE TABLE IF NOT EXISTS election_result (
    election_id TEXT PRIMARY KEY REFERENCES election(id) ON DELETE CASCADE,
    total_votes INTEGER NOT NULL,
    turnout_percentage REAL NOT NULL,
    is_tie BOOLEAN NOT NULL DEFAULT FALSE,
    payload TEXT NOT NULL,
    published_at TIMESTAMP NOT NULL,
    published_by TEXT
);

CREATE INDEX IF NOT EXISTS idx_election_result_published ON election_result(published_at);
`
