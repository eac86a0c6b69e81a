// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/openballot/campus-vote/auth"
	"github.com/openballot/campus-vote/cliparse"
	"github.com/openballot/campus-vote/ledger"
	"github.com/openballot/campus-vote/lifecycle"
	"github.com/openballot/campus-vote/middleware"
	"github.com/openballot/campus-vote/models"
	"github.com/openballot/campus-vote/notify"
)

type VotingHandler struct {
	db       *sql.DB
	cfg      cliparse.Config
	loc      *time.Location
	notifier notify.Notifier
}

func NewVotingHandler(db *sql.DB, cfg cliparse.Config, notifier notify.Notifier) *VotingHandler {
	return &VotingHandler{
		db:       db,
		cfg:      cfg,
		loc:      lifecycle.Location(cfg.Timezone),
		notifier: notifier,
	}
}

// CastVote handles POST /elections/{id}/votes
//
// The admission gate runs its checks in a fixed order so a request that
// fails several of them always gets the same answer:
//
//  1. election exists            -> 404
//  2. voter is eligible          -> 403
//  3. candidate is on the roster -> 400
//  4. voter has not voted        -> 409 (advisory; the constraint is final)
//  5. election is Active         -> 409
//
// The pre-check in step 4 is best-effort. The unique constraint on
// (election_id, voter_id) is the authority: two concurrent requests from
// the same voter both pass the pre-check, but only one insert survives.
func (h *VotingHandler) CastVote(w http.ResponseWriter, r *http.Request) {
	voter, err := auth.VoterFromRequest(r)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Voter identity required")
		return
	}

	electionID := r.PathValue("id")
	if electionID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "election id is required")
		return
	}

	var req models.CastVoteRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.CandidateID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "candidate_id is required")
		return
	}

	// Gate 1: existence
	var e models.Election
	err = h.db.QueryRow(`
		SELECT id, title, status, start_date, end_date
		FROM election
		WHERE id = $1
	`, electionID).Scan(&e.ID, &e.Title, &e.Status, &e.StartDate, &e.EndDate)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Election not found")
		return
	}
	if err != nil {
		slog.Error("failed to query election", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	// Gate 2: eligibility. Verified identity always required; when the
	// election carries an eligible-voter snapshot, membership too.
	if !voter.Verified {
		middleware.ErrorResponse(w, http.StatusForbidden, "You are not eligible to vote in this election")
		return
	}
	var snapshotSize int
	if err := h.db.QueryRow(`
		SELECT COUNT(*) FROM election_voter WHERE election_id = $1
	`, electionID).Scan(&snapshotSize); err != nil {
		slog.Error("failed to count eligible voters", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if snapshotSize > 0 {
		var member bool
		if err := h.db.QueryRow(`
			SELECT EXISTS(SELECT 1 FROM election_voter WHERE election_id = $1 AND voter_id = $2)
		`, electionID, voter.ID).Scan(&member); err != nil {
			slog.Error("failed to check voter eligibility", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		if !member {
			middleware.ErrorResponse(w, http.StatusForbidden, "You are not eligible to vote in this election")
			return
		}
	}

	// Gate 3: candidate must be on this election's roster
	var onRoster bool
	if err := h.db.QueryRow(`
		SELECT EXISTS(SELECT 1 FROM election_candidate WHERE election_id = $1 AND candidate_id = $2)
	`, electionID, req.CandidateID).Scan(&onRoster); err != nil {
		slog.Error("failed to check roster", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if !onRoster {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Candidate is not part of this election")
		return
	}

	// Gate 4: advisory duplicate check
	voted, err := ledger.HasVoted(h.db, electionID, voter.ID)
	if err != nil {
		slog.Error("failed to check prior vote", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if voted {
		middleware.ErrorResponse(w, http.StatusConflict, "You have already voted in this election")
		return
	}

	// Gate 5: the election must be open right now
	status := lifecycle.ResolveStatus(e.Status, e.StartDate, e.EndDate, time.Now(), h.loc)
	if status != models.StatusActive {
		middleware.ErrorResponse(w, http.StatusConflict, "Election is not open for voting")
		return
	}

	ipHash := auth.HashIP(middleware.GetClientIP(r), h.cfg.AdminKeySalt)
	vote := models.Vote{
		ID:          auth.NewVoteID(),
		ElectionID:  electionID,
		VoterID:     voter.ID,
		CandidateID: req.CandidateID,
		VotedAt:     time.Now().UTC(),
		IPHash:      &ipHash,
	}

	tx, err := h.db.Begin()
	if err != nil {
		slog.Error("failed to begin transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer tx.Rollback()

	if err := ledger.AppendIfAbsent(tx, vote); err != nil {
		if errors.Is(err, ledger.ErrDuplicateVote) {
			middleware.ErrorResponse(w, http.StatusConflict, "You have already voted in this election")
			return
		}
		slog.Error("failed to append vote", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to record vote")
		return
	}

	if err := ledger.IncrementCounters(tx, electionID, req.CandidateID); err != nil {
		slog.Error("failed to increment counters", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to record vote")
		return
	}

	if err := tx.Commit(); err != nil {
		slog.Error("failed to commit vote", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to record vote")
		return
	}

	receiptID := auth.NewReceiptID()

	slog.Info("vote recorded",
		"election_id", electionID,
		"receipt_id", receiptID,
	)

	// Look up the candidate name for the confirmation; cosmetic only
	var candidateName string
	if err := h.db.QueryRow(`SELECT name FROM candidate WHERE id = $1`, req.CandidateID).Scan(&candidateName); err != nil {
		candidateName = req.CandidateID
	}

	h.notifier.VoteAccepted(notify.VoteAcceptedEvent{
		ToAddress:     voter.Email,
		VoterName:     voter.Name,
		ElectionTitle: e.Title,
		CandidateName: candidateName,
		ReceiptID:     receiptID,
		VotedAt:       vote.VotedAt,
	})

	middleware.JSONResponse(w, http.StatusCreated, models.CastVoteResponse{
		ReceiptID: receiptID,
		Message:   "Your vote has been recorded",
	})
}

// GetMyVote handles GET /elections/{id}/my-vote
// Lets a voter confirm their own ledger entry. Voter ID and IP hash stay
// server-side; the JSON tags on Vote never expose them.
func (h *VotingHandler) GetMyVote(w http.ResponseWriter, r *http.Request) {
	voter, err := auth.VoterFromRequest(r)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Voter identity required")
		return
	}

	electionID := r.PathValue("id")
	if electionID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "election id is required")
		return
	}

	vote, err := ledger.VoteFor(h.db, electionID, voter.ID)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "No vote recorded in this election")
		return
	}
	if err != nil {
		slog.Error("failed to load vote", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, vote)
}
