// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/openballot/campus-vote/auth"
	"github.com/openballot/campus-vote/cliparse"
	"github.com/openballot/campus-vote/lifecycle"
	"github.com/openballot/campus-vote/middleware"
	"github.com/openballot/campus-vote/models"
	"github.com/openballot/campus-vote/notify"
	"github.com/openballot/campus-vote/tally"
)

type ElectionHandler struct {
	db       *sql.DB
	cfg      cliparse.Config
	loc      *time.Location
	notifier notify.Notifier
}

func NewElectionHandler(db *sql.DB, cfg cliparse.Config, notifier notify.Notifier) *ElectionHandler {
	return &ElectionHandler{
		db:       db,
		cfg:      cfg,
		loc:      lifecycle.Location(cfg.Timezone),
		notifier: notifier,
	}
}

// electionInput is the shared shape of create and update requests.
type electionInput struct {
	Title            string
	Description      string
	ElectionType     string
	StartDate        time.Time
	EndDate          time.Time
	Priority         string
	CandidateIDs     []string
	EligibleVoterIDs []string
}

// validateElectionInput applies the create/update rules. Returns an empty
// string when valid, otherwise a user-facing message.
func (h *ElectionHandler) validateElectionInput(in *electionInput, excludeID string) string {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)

	if len(in.Title) < 5 {
		return "title must be at least 5 characters"
	}
	if len(in.Title) > 25 {
		return "title must be at most 25 characters"
	}
	if len(in.Description) < 10 {
		return "description must be at least 10 characters"
	}
	if len(in.Description) > 250 {
		return "description must be at most 250 characters"
	}

	switch in.ElectionType {
	case models.TypeDepartment, models.TypeYear, models.TypeGeneral:
	default:
		return "election_type must be Department, Year, or General"
	}

	if in.Priority == "" {
		in.Priority = models.PriorityMedium
	}
	switch in.Priority {
	case models.PriorityLow, models.PriorityMedium, models.PriorityHigh:
	default:
		return "priority must be low, medium, or high"
	}

	if msg := lifecycle.ValidateWindow(in.StartDate, in.EndDate, time.Now(), h.loc); msg != "" {
		return msg
	}

	if len(in.CandidateIDs) < 2 {
		return "two or more candidates must participate"
	}

	// Title must be unique, case-insensitively, across other elections
	var clash bool
	err := h.db.QueryRow(`
		SELECT EXISTS(
			SELECT 1 FROM election
			WHERE LOWER(title) = LOWER($1) AND id != $2
		)
	`, in.Title, excludeID).Scan(&clash)
	if err != nil {
		slog.Error("failed to check title uniqueness", "error", err)
		return "could not validate title"
	}
	if clash {
		return "an election with this title already exists"
	}

	// Every candidate must exist
	for _, candidateID := range in.CandidateIDs {
		var exists bool
		err := h.db.QueryRow(`
			SELECT EXISTS(SELECT 1 FROM candidate WHERE id = $1)
		`, candidateID).Scan(&exists)
		if err != nil {
			slog.Error("failed to check candidate", "error", err, "candidate_id", candidateID)
			return "could not validate candidates"
		}
		if !exists {
			return "one or more candidate IDs are invalid"
		}
	}

	return ""
}

// writeSnapshots replaces the roster and eligible-voter snapshot inside
// the caller's transaction. Roster counters are rebuilt from the ledger
// so an edit cannot zero out live counts.
func writeSnapshots(tx *sql.Tx, electionID string, candidateIDs, voterIDs []string) error {
	if _, err := tx.Exec(`DELETE FROM election_candidate WHERE election_id = $1`, electionID); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM election_voter WHERE election_id = $1`, electionID); err != nil {
		return err
	}

	for _, candidateID := range candidateIDs {
		_, err := tx.Exec(`
			INSERT INTO election_candidate (election_id, candidate_id, votes)
			VALUES ($1, $2,
				(SELECT COUNT(*) FROM vote WHERE election_id = $1 AND candidate_id = $2))
		`, electionID, candidateID)
		if err != nil {
			return err
		}
	}
	for _, voterID := range voterIDs {
		_, err := tx.Exec(`
			INSERT INTO election_voter (election_id, voter_id)
			VALUES ($1, $2)
		`, electionID, voterID)
		if err != nil {
			return err
		}
	}
	return nil
}

// CreateElection handles POST /elections
func (h *ElectionHandler) CreateElection(w http.ResponseWriter, r *http.Request) {
	adminKey := r.Header.Get("X-Admin-Key")
	if err := auth.ValidateAdminKey(adminKey, h.cfg.AdminKeySalt); err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid admin key")
		return
	}

	var req models.CreateElectionRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	in := electionInput{
		Title:            req.Title,
		Description:      req.Description,
		ElectionType:     req.ElectionType,
		StartDate:        req.StartDate,
		EndDate:          req.EndDate,
		Priority:         req.Priority,
		CandidateIDs:     req.CandidateIDs,
		EligibleVoterIDs: req.EligibleVoterIDs,
	}
	if msg := h.validateElectionInput(&in, ""); msg != "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, msg)
		return
	}

	electionID, err := auth.GenerateID(16)
	if err != nil {
		slog.Error("failed to generate election ID", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create election")
		return
	}

	tx, err := h.db.Begin()
	if err != nil {
		slog.Error("failed to begin transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO election (id, title, description, election_type, status, priority, start_date, end_date, total_votes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 0, $9)
	`, electionID, in.Title, in.Description, in.ElectionType, models.StatusScheduled, in.Priority, in.StartDate, in.EndDate, time.Now())

	if err != nil {
		slog.Error("failed to insert election", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create election")
		return
	}

	if err := writeSnapshots(tx, electionID, in.CandidateIDs, in.EligibleVoterIDs); err != nil {
		slog.Error("failed to write election snapshots", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create election")
		return
	}

	if err := tx.Commit(); err != nil {
		slog.Error("failed to commit transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create election")
		return
	}

	slog.Info("election created", "election_id", electionID, "title", in.Title)

	middleware.JSONResponse(w, http.StatusCreated, models.CreateElectionResponse{
		ElectionID: electionID,
		Message:    in.Title + " election created successfully",
	})
}

// UpdateElection handles PUT /elections/{id}
// Re-snapshots the roster and eligible voters along with the metadata.
func (h *ElectionHandler) UpdateElection(w http.ResponseWriter, r *http.Request) {
	adminKey := r.Header.Get("X-Admin-Key")
	if err := auth.ValidateAdminKey(adminKey, h.cfg.AdminKeySalt); err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid admin key")
		return
	}

	electionID := r.PathValue("id")
	if electionID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "election id is required")
		return
	}

	var req models.UpdateElectionRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	var storedStatus string
	err := h.db.QueryRow(`SELECT status FROM election WHERE id = $1`, electionID).Scan(&storedStatus)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Election not found")
		return
	}
	if err != nil {
		slog.Error("failed to query election", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	in := electionInput{
		Title:            req.Title,
		Description:      req.Description,
		ElectionType:     req.ElectionType,
		StartDate:        req.StartDate,
		EndDate:          req.EndDate,
		Priority:         req.Priority,
		CandidateIDs:     req.CandidateIDs,
		EligibleVoterIDs: req.EligibleVoterIDs,
	}
	if msg := h.validateElectionInput(&in, electionID); msg != "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, msg)
		return
	}

	status := storedStatus
	if req.Status != "" {
		switch req.Status {
		case models.StatusScheduled, models.StatusActive, models.StatusCompleted, models.StatusCancelled:
			status = req.Status
		default:
			middleware.ErrorResponse(w, http.StatusBadRequest, "invalid status")
			return
		}
	}

	tx, err := h.db.Begin()
	if err != nil {
		slog.Error("failed to begin transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		UPDATE election
		SET title = $1, description = $2, election_type = $3, status = $4,
		    priority = $5, start_date = $6, end_date = $7
		WHERE id = $8
	`, in.Title, in.Description, in.ElectionType, status, in.Priority, in.StartDate, in.EndDate, electionID)

	if err != nil {
		slog.Error("failed to update election", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to update election")
		return
	}

	if err := writeSnapshots(tx, electionID, in.CandidateIDs, in.EligibleVoterIDs); err != nil {
		slog.Error("failed to write election snapshots", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to update election")
		return
	}

	if err := tx.Commit(); err != nil {
		slog.Error("failed to commit transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to update election")
		return
	}

	slog.Info("election updated", "election_id", electionID)

	middleware.JSONResponse(w, http.StatusOK, map[string]string{
		"message": "Election updated successfully",
	})
}

// ListElections handles GET /elections
// Statuses are computed by the lifecycle resolver, not read back from the
// stored column.
func (h *ElectionHandler) ListElections(w http.ResponseWriter, r *http.Request) {
	rows, err := h.db.Query(`
		SELECT id, title, description, election_type, status, priority,
		       start_date, end_date, total_votes, ended_at, created_at
		FROM election
		ORDER BY start_date DESC
	`)
	if err != nil {
		slog.Error("failed to query elections", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	now := time.Now()
	elections := []models.Election{}
	statusCounts := map[string]int{}

	for rows.Next() {
		var e models.Election
		if err := rows.Scan(
			&e.ID, &e.Title, &e.Description, &e.ElectionType, &e.Status, &e.Priority,
			&e.StartDate, &e.EndDate, &e.TotalVotes, &e.EndedAt, &e.CreatedAt,
		); err != nil {
			slog.Error("failed to scan election", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		e.Status = lifecycle.ResolveStatus(e.Status, e.StartDate, e.EndDate, now, h.loc)
		statusCounts[e.Status]++
		elections = append(elections, e)
	}
	if err := rows.Err(); err != nil {
		slog.Error("failed to iterate elections", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.ElectionListResponse{
		Elections:    elections,
		StatusCounts: statusCounts,
	})
}

// GetElection handles GET /elections/{id}
func (h *ElectionHandler) GetElection(w http.ResponseWriter, r *http.Request) {
	electionID := r.PathValue("id")
	if electionID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "election id is required")
		return
	}

	e, ok := h.loadElection(w, electionID)
	if !ok {
		return
	}

	candidates, ok := h.loadRoster(w, electionID)
	if !ok {
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

	middleware.JSONResponse(w, http.StatusOK, models.ElectionWithRoster{
		Election:       e,
		Candidates:     candidates,
		EligibleVoters: eligible,
	})
}

// DeleteElection handles DELETE /elections/{id}
// Administrative escape hatch; roster, snapshot, and result rows cascade.
func (h *ElectionHandler) DeleteElection(w http.ResponseWriter, r *http.Request) {
	adminKey := r.Header.Get("X-Admin-Key")
	if err := auth.ValidateAdminKey(adminKey, h.cfg.AdminKeySalt); err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid admin key")
		return
	}

	electionID := r.PathValue("id")
	if electionID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "election id is required")
		return
	}

	res, err := h.db.Exec(`DELETE FROM election WHERE id = $1`, electionID)
	if err != nil {
		slog.Error("failed to delete election", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to delete election")
		return
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		middleware.ErrorResponse(w, http.StatusNotFound, "Election not found")
		return
	}

	slog.Info("election deleted", "election_id", electionID)

	middleware.JSONResponse(w, http.StatusOK, map[string]string{
		"message": "Election deleted successfully",
	})
}

// CloseElection handles POST /elections/{id}/close
// Runs the tally engine and publishes the final result.
func (h *ElectionHandler) CloseElection(w http.ResponseWriter, r *http.Request) {
	adminKey := r.Header.Get("X-Admin-Key")
	if err := auth.ValidateAdminKey(adminKey, h.cfg.AdminKeySalt); err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid admin key")
		return
	}

	electionID := r.PathValue("id")
	if electionID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "election id is required")
		return
	}

	closedBy := r.Header.Get("X-Admin-ID")
	if closedBy == "" {
		closedBy = "admin"
	}

	var oldStatus string
	err := h.db.QueryRow(`SELECT status FROM election WHERE id = $1`, electionID).Scan(&oldStatus)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Election not found")
		return
	}
	if err != nil {
		slog.Error("failed to query election", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	election, result, err := tally.CloseElection(h.db, electionID, closedBy, time.Now())
	if err == tally.ErrElectionNotFound {
		middleware.ErrorResponse(w, http.StatusNotFound, "Election not found")
		return
	}
	if err != nil {
		slog.Error("failed to close election", "error", err, "election_id", electionID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to close election")
		return
	}

	slog.Info("election closed",
		"election_id", electionID,
		"total_votes", result.TotalVotes,
		"winners", len(result.Winners),
		"is_tie", result.IsTie,
	)

	// Post-commit notification; failures here never undo the close
	h.notifier.StatusChanged(notify.StatusChangedEvent{
		ElectionID:    election.ID,
		ElectionTitle: election.Title,
		OldStatus:     oldStatus,
		NewStatus:     election.Status,
		TotalVotes:    result.TotalVotes,
		ChangedAt:     time.Now(),
	})

	middleware.JSONResponse(w, http.StatusOK, models.CloseElectionResponse{
		Election: election,
		Result:   result,
	})
}

// loadElection fetches one election with its computed status, writing the
// error response itself when it fails.
func (h *ElectionHandler) loadElection(w http.ResponseWriter, electionID string) (models.Election, bool) {
	var e models.Election
	err := h.db.QueryRow(`
		SELECT id, title, description, election_type, status, priority,
		       start_date, end_date, total_votes, ended_at, created_at
		FROM election
		WHERE id = $1
	`, electionID).Scan(
		&e.ID, &e.Title, &e.Description, &e.ElectionType, &e.Status, &e.Priority,
		&e.StartDate, &e.EndDate, &e.TotalVotes, &e.EndedAt, &e.CreatedAt,
	)

	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Election not found")
		return models.Election{}, false
	}
	if err != nil {
		slog.Error("failed to query election", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return models.Election{}, false
	}

	e.Status = lifecycle.ResolveStatus(e.Status, e.StartDate, e.EndDate, time.Now(), h.loc)
	return e, true
}

// loadRoster fetches an election's candidates with their per-election
// counters.
func (h *ElectionHandler) loadRoster(w http.ResponseWriter, electionID string) ([]models.RosterCandidate, bool) {
	rows, err := h.db.Query(`
		SELECT c.id, c.student_id, c.name, c.position, c.department, c.academic_level,
		       c.is_winner, c.created_at, ec.votes
		FROM election_candidate ec
		JOIN candidate c ON c.id = ec.candidate_id
		WHERE ec.election_id = $1
		ORDER BY c.id
	`, electionID)
	if err != nil {
		slog.Error("failed to query roster", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return nil, false
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
			return nil, false
		}
		candidates = append(candidates, rc)
	}

	return candidates, true
}
