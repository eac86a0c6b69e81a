// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package notify defines the outbound event contract for vote confirmations
and status changes.

The voting core emits events; delivery (email, push) belongs to an
external collaborator. Two rules hold everywhere:

  - events fire only after the underlying write has committed
  - a delivery failure never rolls the write back

# Events

VoteAcceptedEvent carries election title, candidate name, receipt ID, and
the voter's display name and address. StatusChangedEvent carries the
lifecycle transition and the final vote total.

# Default Implementation

LogNotifier writes events to the structured log:

	notifier := notify.NewLogNotifier(loc)
	notifier.VoteAccepted(event)

Handlers accept the Notifier interface, so tests can substitute a
recording fake.
*/
package notify
