// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package lifecycle

import (
	"testing"
	"time"

	"github.com/openballot/campus-vote/models"
)

func TestCivilDay(t *testing.T) {
	kolkata := Location("Asia/Kolkata")

	tests := []struct {
		name    string
		instant time.Time
		want    string
	}{
		{
			// 20:00 UTC is already 01:30 the next day in IST
			name:    "UTC evening crosses midnight in IST",
			instant: time.Date(2024, 3, 10, 20, 0, 0, 0, time.UTC),
			want:    "2024-03-11",
		},
		{
			name:    "UTC morning stays same day in IST",
			instant: time.Date(2024, 3, 10, 6, 0, 0, 0, time.UTC),
			want:    "2024-03-10",
		},
		{
			name:    "midnight IST exactly",
			instant: time.Date(2024, 3, 9, 18, 30, 0, 0, time.UTC),
			want:    "2024-03-10",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CivilDay(tt.instant, kolkata); got != tt.want {
				t.Errorf("CivilDay() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestResolveStatus(t *testing.T) {
	loc := time.UTC
	start := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	end := start.Add(OneDay)

	tests := []struct {
		name   string
		stored string
		now    time.Time
		want   string
	}{
		{"day before start", models.StatusScheduled, start.Add(-time.Hour), models.StatusScheduled},
		{"first minute of start day", models.StatusScheduled, start, models.StatusActive},
		{"middle of window", models.StatusScheduled, start.Add(12 * time.Hour), models.StatusActive},
		{"end day is inclusive", models.StatusScheduled, end.Add(time.Hour), models.StatusActive},
		{"day after end", models.StatusScheduled, end.Add(25 * time.Hour), models.StatusCompleted},
		{"cancelled is sticky before window", models.StatusCancelled, start.Add(-48 * time.Hour), models.StatusCancelled},
		{"cancelled is sticky during window", models.StatusCancelled, start.Add(time.Hour), models.StatusCancelled},
		{"cancelled is sticky after window", models.StatusCancelled, end.Add(48 * time.Hour), models.StatusCancelled},
		{"stored status never leaks through", models.StatusCompleted, start.Add(time.Hour), models.StatusActive},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveStatus(tt.stored, start, end, tt.now, loc)
			if got != tt.want {
				t.Errorf("ResolveStatus() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestResolveStatusBoundaryAcrossZones(t *testing.T) {
	// The same instant can be on different civil days in different zones.
	// The resolver must flip status consistently with the configured zone,
	// not the server's.
	kolkata := Location("Asia/Kolkata")

	start := time.Date(2024, 6, 15, 0, 0, 0, 0, kolkata)
	end := start.Add(OneDay)

	// 19:00 UTC on June 14 is 00:30 IST on June 15: active in IST.
	instant := time.Date(2024, 6, 14, 19, 0, 0, 0, time.UTC)

	if got := ResolveStatus(models.StatusScheduled, start, end, instant, kolkata); got != models.StatusActive {
		t.Errorf("in IST: got %s, want %s", got, models.StatusActive)
	}
	if got := ResolveStatus(models.StatusScheduled, start, end, instant, time.UTC); got != models.StatusScheduled {
		t.Errorf("in UTC: got %s, want %s", got, models.StatusScheduled)
	}
}

func TestValidateWindow(t *testing.T) {
	loc := time.UTC
	now := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	start := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		start   time.Time
		end     time.Time
		wantErr bool
	}{
		{"valid one-day window", start, start.Add(OneDay), false},
		{"start today", now, now.Add(OneDay), true},
		{"start in the past", now.Add(-48 * time.Hour), now.Add(-24 * time.Hour), true},
		{"end before start", start, start.Add(-OneDay), true},
		{"end equals start", start, start, true},
		{"two-day window", start, start.Add(2 * OneDay), true},
		{"half-day window", start, start.Add(12 * time.Hour), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := ValidateWindow(tt.start, tt.end, now, loc)
			if (msg != "") != tt.wantErr {
				t.Errorf("ValidateWindow() = %q, wantErr %v", msg, tt.wantErr)
			}
		})
	}
}

func TestLocationFallback(t *testing.T) {
	if loc := Location("Not/AZone"); loc != time.UTC {
		t.Errorf("Location() with bad name = %v, want UTC", loc)
	}
	if loc := Location(""); loc.String() != DefaultTimezone {
		t.Errorf("Location(\"\") = %v, want %s", loc, DefaultTimezone)
	}
}
