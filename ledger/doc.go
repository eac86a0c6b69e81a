// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package ledger owns the append-only vote store and the live counters.

# One Vote Per Voter

The ledger is the single synchronization point for the one-vote invariant.
AppendIfAbsent relies on the vote table's UNIQUE (election_id, voter_id)
constraint; under concurrent casts exactly one insert succeeds and the
losers get ErrDuplicateVote:

	err := ledger.AppendIfAbsent(tx, vote)
	if errors.Is(err, ledger.ErrDuplicateVote) { ... }

HasVoted exists only as a friendly fast-path rejection before the write.
It is advisory; a retried append after a network error is idempotent
because the constraint turns the retry into ErrDuplicateVote rather than a
second vote.

# Counters

IncrementCounters bumps the per-(election, candidate) roster counter and
the election total with atomic SQL increments. Run it in the same
transaction as the append. The counters feed dashboards only; closing an
election never reads them.

# Tallying Reads

TallyByCandidate and CountForElection read the ledger itself. Pass a
*sql.Tx when a point-in-time snapshot matters (the tally engine does).
*/
package ledger
