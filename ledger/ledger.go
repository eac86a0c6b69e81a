// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ledger

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/openballot/campus-vote/models"
)

var (
	// ErrDuplicateVote means a vote for this (election, voter) pair already
	// exists in the ledger.
	ErrDuplicateVote = errors.New("voter has already voted in this election")
)

// Store is the subset of *sql.DB / *sql.Tx the ledger needs. Reads that
// must be a consistent snapshot (tallying) should pass a transaction.
type Store interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// CandidateCount is one candidate's vote total as read from the ledger,
// not from the live counters.
type CandidateCount struct {
	CandidateID string
	Name        string
	Votes       int
}

// AppendIfAbsent inserts a vote into the ledger. The UNIQUE
// (election_id, voter_id) constraint is the authoritative duplicate check:
// when two concurrent casts race, exactly one insert succeeds and the rest
// get ErrDuplicateVote. Ledger rows are never updated or deleted.
func AppendIfAbsent(s Store, v models.Vote) error {
	_, err := s.Exec(`
		INSERT INTO vote (id, election_id, voter_id, candidate_id, voted_at, ip_hash)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, v.ID, v.ElectionID, v.VoterID, v.CandidateID, v.VotedAt, v.IPHash)

	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateVote
		}
		return fmt.Errorf("failed to append vote: %w", err)
	}
	return nil
}

// IncrementCounters atomically bumps the per-(election, candidate) counter
// and the election total. Call it in the same transaction as
// AppendIfAbsent so a crash cannot leave a vote without its counters. The
// counters are a display cache; tallying re-derives from the ledger.
func IncrementCounters(s Store, electionID, candidateID string) error {
	res, err := s.Exec(`
		UPDATE election_candidate
		SET votes = votes + 1
		WHERE election_id = $1 AND candidate_id = $2
	`, electionID, candidateID)
	if err != nil {
		return fmt.Errorf("failed to increment candidate counter: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("no roster row for candidate %s in election %s", candidateID, electionID)
	}

	_, err = s.Exec(`
		UPDATE election
		SET total_votes = total_votes + 1
		WHERE id = $1
	`, electionID)
	if err != nil {
		return fmt.Errorf("failed to increment election counter: %w", err)
	}
	return nil
}

// HasVoted reports whether a ledger entry exists for the pair. This is the
// advisory fast-path check only; AppendIfAbsent remains authoritative
// under races.
func HasVoted(s Store, electionID, voterID string) (bool, error) {
	var exists bool
	err := s.QueryRow(`
		SELECT EXISTS(
			SELECT 1 FROM vote
			WHERE election_id = $1 AND voter_id = $2
		)
	`, electionID, voterID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check prior vote: %w", err)
	}
	return exists, nil
}

// VoteFor returns the ledger entry for a (election, voter) pair, or
// sql.ErrNoRows.
func VoteFor(s Store, electionID, voterID string) (models.Vote, error) {
	var v models.Vote
	err := s.QueryRow(`
		SELECT id, election_id, voter_id, candidate_id, voted_at, ip_hash
		FROM vote
		WHERE election_id = $1 AND voter_id = $2
	`, electionID, voterID).Scan(&v.ID, &v.ElectionID, &v.VoterID, &v.CandidateID, &v.VotedAt, &v.IPHash)
	if err != nil {
		return models.Vote{}, err
	}
	return v, nil
}

// CountForElection counts ledger entries for an election.
func CountForElection(s Store, electionID string) (int, error) {
	var count int
	err := s.QueryRow(`
		SELECT COUNT(*) FROM vote WHERE election_id = $1
	`, electionID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count votes: %w", err)
	}
	return count, nil
}

// TallyByCandidate reads per-candidate totals from the ledger for every
// roster member, including candidates with zero votes. Ordered by votes
// descending, then candidate ID for a stable result. Pass a transaction to
// get a point-in-time snapshot.
func TallyByCandidate(s Store, electionID string) ([]CandidateCount, error) {
	rows, err := s.Query(`
		SELECT ec.candidate_id, c.name, COUNT(v.id)
		FROM election_candidate ec
		JOIN candidate c ON c.id = ec.candidate_id
		LEFT JOIN vote v ON v.election_id = ec.election_id AND v.candidate_id = ec.candidate_id
		WHERE ec.election_id = $1
		GROUP BY ec.candidate_id, c.name
		ORDER BY COUNT(v.id) DESC, ec.candidate_id
	`, electionID)
	if err != nil {
		return nil, fmt.Errorf("failed to tally votes: %w", err)
	}
	defer rows.Close()

	var counts []CandidateCount
	for rows.Next() {
		var cc CandidateCount
		if err := rows.Scan(&cc.CandidateID, &cc.Name, &cc.Votes); err != nil {
			return nil, fmt.Errorf("failed to scan tally row: %w", err)
		}
		counts = append(counts, cc)
	}
	return counts, rows.Err()
}

// isUniqueViolation recognizes the unique-constraint errors of both
// supported drivers.
func isUniqueViolation(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || // modernc.org/sqlite
		strings.Contains(msg, "duplicate key value violates unique constraint") // lib/pq
}
