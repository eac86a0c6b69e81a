// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db handles database schema creation.

# Schema Creation

CreateSchema initializes all required tables:

	if err := db.CreateSchema(conn); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and indexes.
The SQL works unchanged on PostgreSQL and SQLite.

# Tables

The schema includes:

  - election: Election metadata, lifecycle state, live total-vote counter
  - candidate: Candidate records keyed by verified student ID
  - election_candidate: Roster rows with per-election vote counters
  - election_voter: Eligible-voter snapshot per election
  - vote: The append-only vote ledger
  - election_result: Immutable close-time results

# Relationships

	election 1──* election_candidate *──1 candidate
	election 1──* election_voter
	election 1──* vote
	election 1──1 election_result

# Invariants held in the schema

  - vote: UNIQUE (election_id, voter_id). One vote per voter per
    election, enforced by the store rather than application checks.
  - election.title: UNIQUE.
  - election_result: PRIMARY KEY on election_id, so close is an upsert.
*/
package db
