// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package notify

import (
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"
)

// VoteAcceptedEvent carries everything an external mailer needs to send a
// confirmation. The service never sends mail itself.
type VoteAcceptedEvent struct {
	ToAddress     string
	VoterName     string
	ElectionTitle string
	CandidateName string
	ReceiptID     string
	VotedAt       time.Time
}

// StatusChangedEvent announces an administrative lifecycle transition,
// typically an election closing.
type StatusChangedEvent struct {
	ElectionID    string
	ElectionTitle string
	OldStatus     string
	NewStatus     string
	TotalVotes    int
	ChangedAt     time.Time
}

// Notifier receives events after the corresponding write has committed.
// Implementations must not block the request path for long and their
// failures never roll back the vote or status change.
type Notifier interface {
	VoteAccepted(e VoteAcceptedEvent)
	StatusChanged(e StatusChangedEvent)
}

// LogNotifier is the default Notifier: it records events to the
// structured log, where an external delivery pipeline can pick them up.
type LogNotifier struct {
	loc *time.Location
}

func NewLogNotifier(loc *time.Location) *LogNotifier {
	return &LogNotifier{loc: loc}
}

func (n *LogNotifier) VoteAccepted(e VoteAcceptedEvent) {
	slog.Info("vote accepted",
		"to", e.ToAddress,
		"voter", e.VoterName,
		"election", e.ElectionTitle,
		"candidate", e.CandidateName,
		"receipt_id", e.ReceiptID,
		"voted_at", e.VotedAt.In(n.loc).Format("January 2, 2006 15:04"),
	)
}

func (n *LogNotifier) StatusChanged(e StatusChangedEvent) {
	slog.Info("election status changed",
		"election_id", e.ElectionID,
		"election", e.ElectionTitle,
		"from", e.OldStatus,
		"to", e.NewStatus,
		"total_votes", humanize.Comma(int64(e.TotalVotes)),
		"changed_at", e.ChangedAt.In(n.loc).Format(time.RFC3339),
	)
}
