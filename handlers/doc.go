// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers implements the HTTP endpoints for campus elections.

# Handlers

Four handler groups, each a struct holding the database pool and config:

  - ElectionHandler: admin CRUD on elections, plus the close operation
    that seals a final result
  - CandidateHandler: the campus-wide candidate directory
  - VotingHandler: the vote admission gate and a voter's view of their
    own ballot
  - ResultsHandler: sealed results and the live summary dashboard

# Authentication

Admin endpoints check the X-Admin-Key header against the configured salt.
Voter endpoints read the trusted identity headers (X-Voter-ID and
friends) that the upstream gateway attaches after authenticating the
student; this service never sees passwords.

# Status Handling

Every response that carries an election status computes it from the
lifecycle resolver at read time. The stored status column is only an
override channel (Cancelled) and a record of the last transition; it is
never returned as-is.

# Vote Admission

CastVote is the hot path. Its checks run in a fixed order (existence,
eligibility, roster membership, duplicate, open window) and the final
duplicate decision belongs to the storage constraint, not the handler:
concurrent duplicate requests are resolved by the unique index on
(election_id, voter_id), and the loser maps to the same 409 the advisory
pre-check produces.
*/
package handlers
