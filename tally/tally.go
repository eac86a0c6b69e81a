// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package tally

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/openballot/campus-vote/ledger"
	"github.com/openballot/campus-vote/models"
)

var (
	ErrElectionNotFound = errors.New("election not found")
)

// resultPayload is the JSON stored in election_result.payload.
type resultPayload struct {
	Winners       []string                    `json:"winners"`
	VoteBreakdown []models.VoteBreakdownEntry `json:"vote_breakdown"`
}

// CloseElection seals an election: it re-derives every number from the
// vote ledger under a single transaction, never from the live counters,
// and writes the final result.
//
// Within the transaction it:
//  1. tallies ledger entries per roster candidate
//  2. computes total votes, turnout, winners, tie flag, and breakdown
//  3. marks the election Completed, stamps ended_at, persists the total
//  4. sets is_winner on the winning candidates and clears it on the rest
//  5. upserts the election_result row
//
// Any failure rolls the whole close back; the election is never left
// Completed without its result. Closing an already-closed election
// recomputes from the same immutable ledger and produces identical
// totals, winners, and breakdown (only published_at moves).
func CloseElection(conn *sql.DB, electionID, publishedBy string, now time.Time) (models.Election, models.ElectionResult, error) {
	tx, err := conn.Begin()
	if err != nil {
		return models.Election{}, models.ElectionResult{}, fmt.Errorf("failed to begin close transaction: %w", err)
	}
	defer tx.Rollback()

	var e models.Election
	err = tx.QueryRow(`
		SELECT id, title, description, election_type, status, priority,
		       start_date, end_date, total_votes, ended_at, created_at
		FROM election
		WHERE id = $1
	`, electionID).Scan(
		&e.ID, &e.Title, &e.Description, &e.ElectionType, &e.Status, &e.Priority,
		&e.StartDate, &e.EndDate, &e.TotalVotes, &e.EndedAt, &e.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return models.Election{}, models.ElectionResult{}, ErrElectionNotFound
	}
	if err != nil {
		return models.Election{}, models.ElectionResult{}, fmt.Errorf("failed to load election: %w", err)
	}

	// Ledger is ground truth; includes zero-vote roster members.
	counts, err := ledger.TallyByCandidate(tx, electionID)
	if err != nil {
		return models.Election{}, models.ElectionResult{}, err
	}

	var eligible int
	err = tx.QueryRow(`
		SELECT COUNT(*) FROM election_voter WHERE election_id = $1
	`, electionID).Scan(&eligible)
	if err != nil {
		return models.Election{}, models.ElectionResult{}, fmt.Errorf("failed to count eligible voters: %w", err)
	}

	result := Compute(electionID, counts, eligible)
	result.PublishedAt = now
	result.PublishedBy = publishedBy

	_, err = tx.Exec(`
		UPDATE election
		SET status = $1, ended_at = $2, total_votes = $3
		WHERE id = $4
	`, models.StatusCompleted, now, result.TotalVotes, electionID)
	if err != nil {
		return models.Election{}, models.ElectionResult{}, fmt.Errorf("failed to complete election: %w", err)
	}

	// Winner flags: clear the roster first, then mark the winners, so a
	// re-close after a roster edit cannot leave stale flags behind.
	_, err = tx.Exec(`
		UPDATE candidate SET is_winner = FALSE
		WHERE id IN (SELECT candidate_id FROM election_candidate WHERE election_id = $1)
	`, electionID)
	if err != nil {
		return models.Election{}, models.ElectionResult{}, fmt.Errorf("failed to clear winner flags: %w", err)
	}
	for _, winnerID := range result.Winners {
		if _, err := tx.Exec(`UPDATE candidate SET is_winner = TRUE WHERE id = $1`, winnerID); err != nil {
			return models.Election{}, models.ElectionResult{}, fmt.Errorf("failed to set winner flag: %w", err)
		}
	}

	payload, err := json.Marshal(resultPayload{
		Winners:       result.Winners,
		VoteBreakdown: result.VoteBreakdown,
	})
	if err != nil {
		return models.Election{}, models.ElectionResult{}, fmt.Errorf("failed to encode result payload: %w", err)
	}

	_, err = tx.Exec(`
		INSERT INTO election_result (election_id, total_votes, turnout_percentage, is_tie, payload, published_at, published_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (election_id) DO UPDATE SET
			total_votes = $2, turnout_percentage = $3, is_tie = $4,
			payload = $5, published_at = $6, published_by = $7
	`, electionID, result.TotalVotes, result.TurnoutPercentage, result.IsTie, string(payload), now, publishedBy)
	if err != nil {
		return models.Election{}, models.ElectionResult{}, fmt.Errorf("failed to upsert result: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return models.Election{}, models.ElectionResult{}, fmt.Errorf("failed to commit close: %w", err)
	}

	e.Status = models.StatusCompleted
	e.EndedAt = &now
	e.TotalVotes = result.TotalVotes

	return e, result, nil
}

// Compute turns per-candidate ledger counts into a final result. Pure;
// the counts must already be sorted by votes descending.
//
// Winners are every candidate sharing the maximum count; two or more
// winners is a tie. No votes at all means no winner, not a tie. Turnout
// over an empty eligible set is 0, never a division by zero.
func Compute(electionID string, counts []ledger.CandidateCount, eligibleVoters int) models.ElectionResult {
	totalVotes := 0
	for _, c := range counts {
		totalVotes += c.Votes
	}

	turnout := 0.0
	if eligibleVoters > 0 {
		turnout = round1(float64(totalVotes) / float64(eligibleVoters) * 100)
	}

	winners := []string{}
	if totalVotes > 0 {
		maxVotes := counts[0].Votes
		for _, c := range counts {
			if c.Votes == maxVotes {
				winners = append(winners, c.CandidateID)
			}
		}
	}

	breakdown := make([]models.VoteBreakdownEntry, len(counts))
	for i, c := range counts {
		pct := 0.0
		if totalVotes > 0 {
			pct = round1(float64(c.Votes) / float64(totalVotes) * 100)
		}
		breakdown[i] = models.VoteBreakdownEntry{
			CandidateID: c.CandidateID,
			Name:        c.Name,
			Votes:       c.Votes,
			Percentage:  pct,
		}
	}

	return models.ElectionResult{
		ElectionID:        electionID,
		TotalVotes:        totalVotes,
		TurnoutPercentage: turnout,
		Winners:           winners,
		VoteBreakdown:     breakdown,
		IsTie:             len(winners) > 1,
	}
}

// LoadResult reads a stored election result, decoding the payload column.
// Returns sql.ErrNoRows when the election has not been closed.
func LoadResult(s ledger.Store, electionID string) (models.ElectionResult, error) {
	var r models.ElectionResult
	var payloadJSON string
	err := s.QueryRow(`
		SELECT election_id, total_votes, turnout_percentage, is_tie, payload, published_at, published_by
		FROM election_result
		WHERE election_id = $1
	`, electionID).Scan(&r.ElectionID, &r.TotalVotes, &r.TurnoutPercentage, &r.IsTie, &payloadJSON, &r.PublishedAt, &r.PublishedBy)
	if err != nil {
		return models.ElectionResult{}, err
	}

	var payload resultPayload
	if err := json.Unmarshal([]byte(payloadJSON), &payload); err != nil {
		return models.ElectionResult{}, fmt.Errorf("failed to decode result payload: %w", err)
	}
	r.Winners = payload.Winners
	r.VoteBreakdown = payload.VoteBreakdown

	return r, nil
}

// ListResults returns every stored result, newest first.
func ListResults(s ledger.Store) ([]models.ElectionResult, error) {
	rows, err := s.Query(`
		SELECT election_id, total_votes, turnout_percentage, is_tie, payload, published_at, published_by
		FROM election_result
		ORDER BY published_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query results: %w", err)
	}
	defer rows.Close()

	results := []models.ElectionResult{}
	for rows.Next() {
		var r models.ElectionResult
		var payloadJSON string
		if err := rows.Scan(&r.ElectionID, &r.TotalVotes, &r.TurnoutPercentage, &r.IsTie, &payloadJSON, &r.PublishedAt, &r.PublishedBy); err != nil {
			return nil, fmt.Errorf("failed to scan result row: %w", err)
		}
		var payload resultPayload
		if err := json.Unmarshal([]byte(payloadJSON), &payload); err != nil {
			return nil, fmt.Errorf("failed to decode result payload: %w", err)
		}
		r.Winners = payload.Winners
		r.VoteBreakdown = payload.VoteBreakdown
		results = append(results, r)
	}
	return results, rows.Err()
}

// round1 rounds to one decimal place.
func round1(x float64) float64 {
	return math.Round(x*10) / 10
}
