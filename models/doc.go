// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

# Request Types

Types for parsing incoming JSON:

  - CreateElectionRequest: title, description, dates, roster, voter snapshot
  - UpdateElectionRequest: same fields plus status
  - CreateCandidateRequest: student_id, name, position, department, level
  - CastVoteRequest: candidate_id

# Response Types

Types for JSON responses:

  - CreateElectionResponse: election_id, message
  - CastVoteResponse: receipt_id, message
  - CloseElectionResponse: election, result
  - ElectionListResponse: elections, status_counts
  - ElectionSummaryResponse: live counters for dashboards
  - ErrorResponse: error, message

# Domain Types

Internal data structures:

  - Election: lifecycle fields and the live total-vote counter
  - Candidate: roster member tied to a verified student ID
  - RosterCandidate: candidate plus their per-election vote counter
  - Vote: immutable ledger entry, one per (election, voter)
  - VoterIdentity: trusted identity injected by the upstream gateway
  - ElectionResult: immutable close-time tally with winners and breakdown

# Constants

Status values:

	StatusScheduled = "Scheduled"
	StatusActive    = "Active"
	StatusCompleted = "Completed"
	StatusCancelled = "Cancelled"

Election types:

	TypeDepartment = "Department"
	TypeYear       = "Year"
	TypeGeneral    = "General"

Priorities:

	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
*/
package models
