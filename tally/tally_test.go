// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package tally

import (
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/openballot/campus-vote/ledger"
	"github.com/openballot/campus-vote/models"
	"github.com/openballot/campus-vote/testutil"
)

func TestComputeCampusCouncilScenario(t *testing.T) {
	// Candidates A, B, C; voters V1..V5 voting A, A, B, B, C.
	counts := []ledger.CandidateCount{
		{CandidateID: "cand-a", Name: "A", Votes: 2},
		{CandidateID: "cand-b", Name: "B", Votes: 2},
		{CandidateID: "cand-c", Name: "C", Votes: 1},
	}

	result := Compute("campus-council-2024", counts, 5)

	if result.TotalVotes != 5 {
		t.Errorf("TotalVotes = %d, want 5", result.TotalVotes)
	}
	if result.TurnoutPercentage != 100.0 {
		t.Errorf("TurnoutPercentage = %v, want 100", result.TurnoutPercentage)
	}
	if !result.IsTie {
		t.Error("Expected a tie between A and B")
	}
	if !reflect.DeepEqual(result.Winners, []string{"cand-a", "cand-b"}) {
		t.Errorf("Winners = %v, want [cand-a cand-b]", result.Winners)
	}

	wantPct := []float64{40.0, 40.0, 20.0}
	for i, entry := range result.VoteBreakdown {
		if entry.Percentage != wantPct[i] {
			t.Errorf("breakdown[%d].Percentage = %v, want %v", i, entry.Percentage, wantPct[i])
		}
	}

	// Percentages and votes must reconcile with the total
	sumVotes, sumPct := 0, 0.0
	for _, entry := range result.VoteBreakdown {
		sumVotes += entry.Votes
		sumPct += entry.Percentage
	}
	if sumVotes != result.TotalVotes {
		t.Errorf("sum of breakdown votes = %d, want %d", sumVotes, result.TotalVotes)
	}
	if math.Abs(sumPct-100.0) > 0.5 {
		t.Errorf("sum of breakdown percentages = %v, want ~100", sumPct)
	}
}

func TestComputeSingleWinner(t *testing.T) {
	counts := []ledger.CandidateCount{
		{CandidateID: "cand-a", Name: "A", Votes: 3},
		{CandidateID: "cand-b", Name: "B", Votes: 1},
	}

	result := Compute("e1", counts, 10)

	if result.IsTie {
		t.Error("Expected no tie")
	}
	if !reflect.DeepEqual(result.Winners, []string{"cand-a"}) {
		t.Errorf("Winners = %v, want [cand-a]", result.Winners)
	}
	if result.TurnoutPercentage != 40.0 {
		t.Errorf("TurnoutPercentage = %v, want 40", result.TurnoutPercentage)
	}
}

func TestComputeNoVotes(t *testing.T) {
	counts := []ledger.CandidateCount{
		{CandidateID: "cand-a", Name: "A", Votes: 0},
		{CandidateID: "cand-b", Name: "B", Votes: 0},
	}

	result := Compute("e1", counts, 20)

	// No votes means no winner, not an all-way tie
	if len(result.Winners) != 0 {
		t.Errorf("Winners = %v, want empty", result.Winners)
	}
	if result.IsTie {
		t.Error("Expected isTie=false with zero votes")
	}
	if result.TotalVotes != 0 {
		t.Errorf("TotalVotes = %d, want 0", result.TotalVotes)
	}
	for _, entry := range result.VoteBreakdown {
		if entry.Percentage != 0 {
			t.Errorf("Percentage = %v, want 0 with zero total", entry.Percentage)
		}
	}
}

func TestComputeEmptyEligibleSet(t *testing.T) {
	counts := []ledger.CandidateCount{
		{CandidateID: "cand-a", Name: "A", Votes: 2},
	}

	// Never divide by zero
	result := Compute("e1", counts, 0)
	if result.TurnoutPercentage != 0 {
		t.Errorf("TurnoutPercentage = %v, want 0 for empty eligible set", result.TurnoutPercentage)
	}
}

func TestComputeRounding(t *testing.T) {
	counts := []ledger.CandidateCount{
		{CandidateID: "cand-a", Name: "A", Votes: 1},
		{CandidateID: "cand-b", Name: "B", Votes: 1},
		{CandidateID: "cand-c", Name: "C", Votes: 1},
	}

	result := Compute("e1", counts, 7)

	// 1/3 → 33.3, 3/7 → 42.9, single decimal
	for _, entry := range result.VoteBreakdown {
		if entry.Percentage != 33.3 {
			t.Errorf("Percentage = %v, want 33.3", entry.Percentage)
		}
	}
	if result.TurnoutPercentage != 42.9 {
		t.Errorf("TurnoutPercentage = %v, want 42.9", result.TurnoutPercentage)
	}
}

func TestCloseElection(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	defer conn.Close()

	electionID := testutil.CreateTestElection(t, conn, models.StatusActive)
	candA := testutil.AddTestCandidate(t, conn, "Alice")
	candB := testutil.AddTestCandidate(t, conn, "Bob")
	testutil.AddToRoster(t, conn, electionID, candA)
	testutil.AddToRoster(t, conn, electionID, candB)
	testutil.AddEligibleVoters(t, conn, electionID, "v1", "v2", "v3", "v4")

	testutil.CastTestVote(t, conn, electionID, "v1", candA)
	testutil.CastTestVote(t, conn, electionID, "v2", candA)
	testutil.CastTestVote(t, conn, electionID, "v3", candB)

	election, result, err := CloseElection(conn, electionID, "admin-1", time.Now().UTC())
	if err != nil {
		t.Fatalf("CloseElection() error = %v", err)
	}

	if election.Status != models.StatusCompleted {
		t.Errorf("election status = %s, want Completed", election.Status)
	}
	if election.EndedAt == nil {
		t.Error("EndedAt not stamped")
	}
	if result.TotalVotes != 3 {
		t.Errorf("TotalVotes = %d, want 3", result.TotalVotes)
	}
	if result.TurnoutPercentage != 75.0 {
		t.Errorf("TurnoutPercentage = %v, want 75", result.TurnoutPercentage)
	}
	if result.IsTie || len(result.Winners) != 1 || result.Winners[0] != candA {
		t.Errorf("Winners = %v (tie=%v), want [%s]", result.Winners, result.IsTie, candA)
	}

	// Winner flag set in storage by the engine, and only there
	var isWinner bool
	if err := conn.QueryRow(`SELECT is_winner FROM candidate WHERE id = $1`, candA).Scan(&isWinner); err != nil {
		t.Fatalf("Failed to query winner flag: %v", err)
	}
	if !isWinner {
		t.Error("Expected is_winner=true for the winner")
	}
	if err := conn.QueryRow(`SELECT is_winner FROM candidate WHERE id = $1`, candB).Scan(&isWinner); err != nil {
		t.Fatalf("Failed to query winner flag: %v", err)
	}
	if isWinner {
		t.Error("Expected is_winner=false for the loser")
	}

	// Stored result round-trips through the payload column
	stored, err := LoadResult(conn, electionID)
	if err != nil {
		t.Fatalf("LoadResult() error = %v", err)
	}
	if !reflect.DeepEqual(stored.VoteBreakdown, result.VoteBreakdown) {
		t.Errorf("stored breakdown %v != computed %v", stored.VoteBreakdown, result.VoteBreakdown)
	}
}

func TestCloseUsesLedgerNotLiveCounters(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	defer conn.Close()

	electionID := testutil.CreateTestElection(t, conn, models.StatusActive)
	candA := testutil.AddTestCandidate(t, conn, "Alice")
	candB := testutil.AddTestCandidate(t, conn, "Bob")
	testutil.AddToRoster(t, conn, electionID, candA)
	testutil.AddToRoster(t, conn, electionID, candB)
	testutil.AddEligibleVoters(t, conn, electionID, "v1", "v2")

	testutil.CastTestVote(t, conn, electionID, "v1", candA)
	testutil.CastTestVote(t, conn, electionID, "v2", candB)

	// Corrupt the live counters; the close must not believe them
	if _, err := conn.Exec(`UPDATE election SET total_votes = 999 WHERE id = $1`, electionID); err != nil {
		t.Fatalf("Failed to drift counter: %v", err)
	}
	if _, err := conn.Exec(`UPDATE election_candidate SET votes = 500 WHERE election_id = $1`, electionID); err != nil {
		t.Fatalf("Failed to drift counter: %v", err)
	}

	_, result, err := CloseElection(conn, electionID, "admin-1", time.Now().UTC())
	if err != nil {
		t.Fatalf("CloseElection() error = %v", err)
	}

	if result.TotalVotes != 2 {
		t.Errorf("TotalVotes = %d, want 2 (ledger is ground truth)", result.TotalVotes)
	}

	var ledgerCount int
	if err := conn.QueryRow(`SELECT COUNT(*) FROM vote WHERE election_id = $1`, electionID).Scan(&ledgerCount); err != nil {
		t.Fatalf("Failed to count ledger: %v", err)
	}
	if result.TotalVotes != ledgerCount {
		t.Errorf("result total %d != ledger count %d", result.TotalVotes, ledgerCount)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	defer conn.Close()

	electionID := testutil.CreateTestElection(t, conn, models.StatusActive)
	candA := testutil.AddTestCandidate(t, conn, "Alice")
	candB := testutil.AddTestCandidate(t, conn, "Bob")
	testutil.AddToRoster(t, conn, electionID, candA)
	testutil.AddToRoster(t, conn, electionID, candB)
	testutil.AddEligibleVoters(t, conn, electionID, "v1", "v2", "v3")

	testutil.CastTestVote(t, conn, electionID, "v1", candA)
	testutil.CastTestVote(t, conn, electionID, "v2", candB)
	testutil.CastTestVote(t, conn, electionID, "v3", candB)

	_, first, err := CloseElection(conn, electionID, "admin-1", time.Now().UTC())
	if err != nil {
		t.Fatalf("first CloseElection() error = %v", err)
	}
	_, second, err := CloseElection(conn, electionID, "admin-2", time.Now().UTC().Add(time.Minute))
	if err != nil {
		t.Fatalf("second CloseElection() error = %v", err)
	}

	if first.TotalVotes != second.TotalVotes {
		t.Errorf("TotalVotes changed between closes: %d vs %d", first.TotalVotes, second.TotalVotes)
	}
	if !reflect.DeepEqual(first.Winners, second.Winners) {
		t.Errorf("Winners changed between closes: %v vs %v", first.Winners, second.Winners)
	}
	if !reflect.DeepEqual(first.VoteBreakdown, second.VoteBreakdown) {
		t.Errorf("VoteBreakdown changed between closes: %v vs %v", first.VoteBreakdown, second.VoteBreakdown)
	}

	// Only one result row exists
	var rowCount int
	if err := conn.QueryRow(`SELECT COUNT(*) FROM election_result WHERE election_id = $1`, electionID).Scan(&rowCount); err != nil {
		t.Fatalf("Failed to count result rows: %v", err)
	}
	if rowCount != 1 {
		t.Errorf("Expected 1 result row, got %d", rowCount)
	}
}

func TestCloseElectionNotFound(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	defer conn.Close()

	_, _, err := CloseElection(conn, "does-not-exist", "admin-1", time.Now().UTC())
	if err != ErrElectionNotFound {
		t.Errorf("CloseElection() error = %v, want ErrElectionNotFound", err)
	}
}

func TestListResults(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	defer conn.Close()

	for i := 0; i < 2; i++ {
		electionID := testutil.CreateTestElection(t, conn, models.StatusActive)
		candA := testutil.AddTestCandidate(t, conn, "A")
		candB := testutil.AddTestCandidate(t, conn, "B")
		testutil.AddToRoster(t, conn, electionID, candA)
		testutil.AddToRoster(t, conn, electionID, candB)
		testutil.AddEligibleVoters(t, conn, electionID, "v1")
		testutil.CastTestVote(t, conn, electionID, "v1", candA)

		if _, _, err := CloseElection(conn, electionID, "admin-1", time.Now().UTC().Add(time.Duration(i)*time.Second)); err != nil {
			t.Fatalf("CloseElection() error = %v", err)
		}
	}

	results, err := ListResults(conn)
	if err != nil {
		t.Fatalf("ListResults() error = %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(results))
	}
	if results[0].PublishedAt.Before(results[1].PublishedAt) {
		t.Error("Expected newest-first ordering")
	}
}
