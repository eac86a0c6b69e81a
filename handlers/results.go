// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/openballot/campus-vote/cliparse"
	"github.com/openballot/campus-vote/lifecycle"
	"github.com/openballot/campus-vote/middleware"
	"github.com/openballot/campus-vote/models"
	"github.com/openballot/campus-vote/tally"
)

type ResultsHandler struct {
	db  *sql.DB
	cfg cliparse.Config
	loc *time.Location
}

func NewResultsHandler(db *sql.DB, cfg cliparse.Config) *ResultsHandler {
	return &ResultsHandler{
		db:  db,
		cfg: cfg,
		loc: lifecycle.Location(cfg.Timezone),
	}
}

// GetResult handles GET /elections/{id}/result
// Results are sealed until the election has been closed; before that the
// endpoint refuses rather than leaking live counters.
func (h *ResultsHandler) GetResult(w http.ResponseWriter, r *http.Request) {
	electionID := r.PathValue("id")
	if electionID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "election id is required")
		return
	}

	var exists bool
	if err := h.db.QueryRow(`
		SELECT EXISTS(SELECT 1 FROM election WHERE id = $1)
	`, electionID).Scan(&exists); err != nil {
		slog.Error("failed to query election", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if !exists {
		middleware.ErrorResponse(w, http.StatusNotFound, "Election not found")
		return
	}

	result, err := tally.LoadResult(h.db, electionID)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusForbidden, "Results are not available until the election is closed")
		return
	}
	if err != nil {
		slog.Error("failed to load result", "error", err, "election_id", electionID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, result)
}

// ListResults handles GET /results
func (h *ResultsHandler) ListResults(w http.ResponseWriter, r *http.Request) {
	results, err := tally.ListResults(h.db)
	if err != nil {
		slog.Error("failed to list results", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, map[string]interface{}{
		"results": results,
	})
}

// GetSummary handles GET /elections/{id}/summary
// A live dashboard view built from the display counters, clearly distinct
// from the sealed result: totals here can lag the ledger.
func (h *ResultsHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	electionID := r.PathValue("id")
	if electionID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "election id is required")
		return
	}

	var e models.Election
	err := h.db.QueryRow(`
		SELECT id, title, status, start_date, end_date, total_votes
		FROM election
		WHERE id = $1
	`, electionID).Scan(&e.ID, &e.Title, &e.Status, &e.StartDate, &e.EndDate, &e.TotalVotes)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Election not found")
		return
	}
	if err != nil {
		slog.Error("failed to query election", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	var eligible int
	if err := h.db.QueryRow(`
		SELECT COUNT(*) FROM election_voter WHERE election_id = $1
	`, electionID).Scan(&eligible); err != nil {
		slog.Error("failed to count eligible voters", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	rows, err := h.db.Query(`
		SELECT c.id, c.student_id, c.name, c.position, c.department, c.academic_level,
		       c.is_winner, c.created_at, ec.votes
		FROM election_candidate ec
		JOIN candidate c ON c.id = ec.candidate_id
		WHERE ec.election_id = $1
		ORDER BY ec.votes DESC, c.id
	`, electionID)
	if err != nil {
		slog.Error("failed to query roster", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	candidates := []models.RosterCandidate{}
	for rows.Next() {
		var rc models.RosterCandidate
		if err := rows.Scan(
			&rc.ID, &rc.StudentID, &rc.Name, &rc.Position, &rc.Department, &rc.AcademicLevel,
			&rc.IsWinner, &rc.CreatedAt, &rc.Votes,
		); err != nil {
			slog.Error("failed to scan roster row", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		candidates = append(candidates, rc)
	}
	if err := rows.Err(); err != nil {
		slog.Error("failed to iterate roster", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.ElectionSummaryResponse{
		ElectionID:     e.ID,
		Title:          e.Title,
		Status:         lifecycle.ResolveStatus(e.Status, e.StartDate, e.EndDate, time.Now(), h.loc),
		TotalVotes:     e.TotalVotes,
		TotalVotesText: humanize.Comma(int64(e.TotalVotes)) + " votes cast",
		EligibleVoters: eligible,
		Candidates:     candidates,
	})
}
