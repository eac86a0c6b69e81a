// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import "time"

// Election status constants
const (
	StatusScheduled = "Scheduled"
	StatusActive    = "Active"
	StatusCompleted = "Completed"
	StatusCancelled = "Cancelled"
)

// Election type constants
const (
	TypeDepartment = "Department"
	TypeYear       = "Year"
	TypeGeneral    = "General"
)

// Election priority constants
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// Request types

type CreateElectionRequest struct {
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	ElectionType     string    `json:"election_type"`
	StartDate        time.Time `json:"start_date"`
	EndDate          time.Time `json:"end_date"`
	Priority         string    `json:"priority"`
	CandidateIDs     []string  `json:"candidate_ids"`
	EligibleVoterIDs []string  `json:"eligible_voter_ids"`
}

type UpdateElectionRequest struct {
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	ElectionType     string    `json:"election_type"`
	Status           string    `json:"status"`
	StartDate        time.Time `json:"start_date"`
	EndDate          time.Time `json:"end_date"`
	Priority         string    `json:"priority"`
	CandidateIDs     []string  `json:"candidate_ids"`
	EligibleVoterIDs []string  `json:"eligible_voter_ids"`
}

type CreateCandidateRequest struct {
	StudentID     string `json:"student_id"`
	Name          string `json:"name"`
	Position      string `json:"position"`
	Department    string `json:"department"`
	AcademicLevel string `json:"academic_level"`
}

type CastVoteRequest struct {
	CandidateID string `json:"candidate_id"`
}

// Response types

type CreateElectionResponse struct {
	ElectionID string `json:"election_id"`
	Message    string `json:"message"`
}

type CreateCandidateResponse struct {
	CandidateID string `json:"candidate_id"`
}

type CastVoteResponse struct {
	ReceiptID string `json:"receipt_id"`
	Message   string `json:"message"`
}

type CloseElectionResponse struct {
	Election Election       `json:"election"`
	Result   ElectionResult `json:"result"`
}

type ElectionListResponse struct {
	Elections    []Election     `json:"elections"`
	StatusCounts map[string]int `json:"status_counts"`
}

type ElectionSummaryResponse struct {
	ElectionID     string            `json:"election_id"`
	Title          string            `json:"title"`
	Status         string            `json:"status"`
	TotalVotes     int               `json:"total_votes"`
	TotalVotesText string            `json:"total_votes_text"`
	EligibleVoters int               `json:"eligible_voters"`
	Candidates     []RosterCandidate `json:"candidates"`
}

// Domain types

// Election holds lifecycle fields plus the live total-vote counter. The
// counter is a display cache; final results are always recomputed from the
// vote ledger.
type Election struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	ElectionType string     `json:"election_type"`
	Status       string     `json:"status"`
	Priority     string     `json:"priority"`
	StartDate    time.Time  `json:"start_date"`
	EndDate      time.Time  `json:"end_date"`
	TotalVotes   int        `json:"total_votes"`
	EndedAt      *time.Time `json:"ended_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

type Candidate struct {
	ID            string    `json:"id"`
	StudentID     string    `json:"student_id"`
	Name          string    `json:"name"`
	Position      string    `json:"position"`
	Department    string    `json:"department"`
	AcademicLevel string    `json:"academic_level"`
	IsWinner      bool      `json:"is_winner"`
	CreatedAt     time.Time `json:"created_at"`
}

// RosterCandidate is a candidate as they appear in one election, with the
// per-election vote counter from the roster row.
type RosterCandidate struct {
	Candidate
	Votes int `json:"votes"`
}

type ElectionWithRoster struct {
	Election       Election          `json:"election"`
	Candidates     []RosterCandidate `json:"candidates"`
	EligibleVoters int               `json:"eligible_voters"`
}

// Vote is an immutable ledger entry. At most one exists per
// (election, voter) pair, enforced by a unique constraint in storage.
type Vote struct {
	ID          string    `json:"id"`
	ElectionID  string    `json:"election_id"`
	VoterID     string    `json:"-"` // Never expose in JSON
	CandidateID string    `json:"candidate_id"`
	VotedAt     time.Time `json:"voted_at"`
	IPHash      *string   `json:"-"` // Never expose in JSON
}

// VoterIdentity is the authenticated voter supplied by the upstream
// identity provider. The service trusts these fields completely.
type VoterIdentity struct {
	ID       string
	Email    string
	Name     string
	Verified bool
}

// Result types

type VoteBreakdownEntry struct {
	CandidateID string  `json:"candidate_id"`
	Name        string  `json:"name"`
	Votes       int     `json:"votes"`
	Percentage  float64 `json:"percentage"`
}

type ElectionResult struct {
	ElectionID        string               `json:"election_id"`
	TotalVotes        int                  `json:"total_votes"`
	TurnoutPercentage float64              `json:"turnout_percentage"`
	Winners           []string             `json:"winners"`
	VoteBreakdown     []VoteBreakdownEntry `json:"vote_breakdown"`
	IsTie             bool                 `json:"is_tie"`
	PublishedAt       time.Time            `json:"published_at"`
	PublishedBy       string               `json:"published_by,omitempty"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
