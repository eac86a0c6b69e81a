// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package tally seals elections into final, immutable results.

# Closing

CloseElection runs the whole close inside one transaction:

	election, result, err := tally.CloseElection(conn, electionID, adminID, time.Now())

It reads the vote ledger under that transaction's snapshot - never the
live counters, which are a best-effort display cache - and computes:

  - totalVotes: count of ledger entries
  - turnoutPercentage: totalVotes / eligible voters × 100, one decimal,
    0 for an empty eligible set
  - winners: every candidate at the maximum count; isTie when more than
    one; no winners at all when no votes were cast
  - voteBreakdown: every roster candidate's count and share, sorted by
    votes descending

and then marks the election Completed, stamps ended_at, flips the
is_winner flags, and upserts the election_result row. A failure anywhere
rolls everything back; the election is never Completed without a result.

Close is idempotent: the ledger is immutable, so re-closing produces
identical totals, winners, and breakdown.

# Pure Core

Compute contains the arithmetic with no storage dependency, which is
where the edge cases (ties, zero votes, empty eligible set, rounding)
are tested.

# Reading Results

LoadResult and ListResults decode stored rows, including the JSON payload
holding winners and the breakdown.
*/
package tally
