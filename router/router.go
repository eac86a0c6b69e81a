// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"database/sql"
	"net/http"

	"github.com/openballot/campus-vote/cliparse"
	"github.com/openballot/campus-vote/handlers"
	"github.com/openballot/campus-vote/lifecycle"
	"github.com/openballot/campus-vote/middleware"
	"github.com/openballot/campus-vote/notify"
)

func NewRouter(db *sql.DB, cfg cliparse.Config) *http.ServeMux {
	mux := http.NewServeMux()

	notifier := notify.NewLogNotifier(lifecycle.Location(cfg.Timezone))

	// Initialize handlers
	electionHandler := handlers.NewElectionHandler(db, cfg, notifier)
	candidateHandler := handlers.NewCandidateHandler(db, cfg)
	votingHandler := handlers.NewVotingHandler(db, cfg, notifier)
	resultsHandler := handlers.NewResultsHandler(db, cfg)

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Election management (admin operations)
	mux.HandleFunc("POST /elections", middleware.WithLogging(electionHandler.CreateElection))
	mux.HandleFunc("PUT /elections/{id}", middleware.WithLogging(electionHandler.UpdateElection))
	mux.HandleFunc("DELETE /elections/{id}", middleware.WithLogging(electionHandler.DeleteElection))
	mux.HandleFunc("POST /elections/{id}/close", middleware.WithLogging(electionHandler.CloseElection))

	// Election browsing (public)
	mux.HandleFunc("GET /elections", middleware.WithLogging(electionHandler.ListElections))
	mux.HandleFunc("GET /elections/{id}", middleware.WithLogging(electionHandler.GetElection))
	mux.HandleFunc("GET /elections/{id}/summary", middleware.WithLogging(resultsHandler.GetSummary))

	// Voting operations (trusted voter identity headers)
	mux.HandleFunc("POST /elections/{id}/votes", middleware.WithLogging(votingHandler.CastVote))
	mux.HandleFunc("GET /elections/{id}/my-vote", middleware.WithLogging(votingHandler.GetMyVote))

	// Candidate directory
	mux.HandleFunc("POST /candidates", middleware.WithLogging(candidateHandler.CreateCandidate))
	mux.HandleFunc("GET /candidates", middleware.WithLogging(candidateHandler.ListCandidates))

	// Results retrieval (sealed until close)
	mux.HandleFunc("GET /elections/{id}/result", middleware.WithLogging(resultsHandler.GetResult))
	mux.HandleFunc("GET /results", middleware.WithLogging(resultsHandler.ListResults))

	// Root endpoint
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("campus-vote API v1"))
	})

	return mux
}
