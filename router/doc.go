// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the campus-vote API.

# Route Registration

NewRouter creates a configured http.ServeMux with all endpoints:

	mux := router.NewRouter(db, cfg)

# Endpoints

Health:

	GET /health

Election management (admin, requires X-Admin-Key):

	POST   /elections            - Create election
	PUT    /elections/{id}       - Update election, re-snapshots roster
	DELETE /elections/{id}       - Delete election
	POST   /elections/{id}/close - Seal the final result

Election browsing (public):

	GET /elections              - List with computed statuses
	GET /elections/{id}         - One election with its roster
	GET /elections/{id}/summary - Live dashboard view

Voting (trusted X-Voter-* identity headers):

	POST /elections/{id}/votes   - Cast a vote
	GET  /elections/{id}/my-vote - Voter's own ledger entry

Candidate directory:

	POST /candidates - Create candidate (admin)
	GET  /candidates - List candidates

Results (public, sealed until close):

	GET /elections/{id}/result - Final result
	GET /results               - All published results

# Handler Initialization

The router creates handler instances with dependency injection:

	electionHandler := handlers.NewElectionHandler(db, cfg, notifier)
	candidateHandler := handlers.NewCandidateHandler(db, cfg)
	votingHandler := handlers.NewVotingHandler(db, cfg, notifier)
	resultsHandler := handlers.NewResultsHandler(db, cfg)

All handlers receive the database connection and configuration; the two
that emit notifications also share the log-backed notifier.
*/
package router
