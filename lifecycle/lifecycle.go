// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package lifecycle

import (
	"log/slog"
	"time"

	"github.com/openballot/campus-vote/models"
)

// DateLayout is the civil calendar day format used for all window
// comparisons.
const DateLayout = "2006-01-02"

// DefaultTimezone is the operating region's zone. Every lifecycle
// comparison happens on this calendar, regardless of server timezone.
const DefaultTimezone = "Asia/Kolkata"

// OneDay is the required election duration.
const OneDay = 24 * time.Hour

// Location resolves a zone name, falling back to UTC if the name is
// unknown so a bad config degrades instead of crashing.
func Location(name string) *time.Location {
	if name == "" {
		name = DefaultTimezone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		slog.Warn("unknown timezone, falling back to UTC", "timezone", name, "error", err)
		return time.UTC
	}
	return loc
}

// CivilDay converts an instant to a YYYY-MM-DD day string in the given
// zone. Day strings compare correctly with plain string comparison.
func CivilDay(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(DateLayout)
}

// ResolveStatus derives the effective status of an election at the given
// instant. Cancelled is sticky. Otherwise the reference civil day is
// compared against the inclusive [startDay, endDay] window: before it the
// election is Scheduled, within it Active, after it Completed.
//
// Because elections are exactly one day long, startDay == endDay and
// Active is a single-day window.
//
// This is a computed view over the stored fields; it is never written back
// here. Callers decide whether to persist it.
func ResolveStatus(stored string, startDate, endDate, now time.Time, loc *time.Location) string {
	if stored == models.StatusCancelled {
		return models.StatusCancelled
	}

	today := CivilDay(now, loc)
	startDay := CivilDay(startDate, loc)
	endDay := CivilDay(endDate, loc)

	switch {
	case today < startDay:
		return models.StatusScheduled
	case today <= endDay:
		return models.StatusActive
	default:
		return models.StatusCompleted
	}
}

// ValidateWindow checks the window rules applied at election create and
// update time: the start day must be strictly after today's civil day, the
// end must follow the start, and the span must be exactly one calendar day.
// Returns an empty string when the window is valid, otherwise a
// user-facing message.
func ValidateWindow(startDate, endDate, now time.Time, loc *time.Location) string {
	if CivilDay(startDate, loc) <= CivilDay(now, loc) {
		return "start date must be after today"
	}
	if !endDate.After(startDate) {
		return "end date must be after start date"
	}
	if endDate.Sub(startDate) != OneDay {
		return "election must be exactly one day long"
	}
	return ""
}
