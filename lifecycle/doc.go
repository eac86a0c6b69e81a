// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package lifecycle derives an election's effective status from its dates.

# Civil Days

All window comparisons happen on the operating region's civil calendar
(default Asia/Kolkata), never on raw instants, so an election does not flap
between statuses depending on which server timezone evaluates it:

	day := lifecycle.CivilDay(time.Now(), loc) // "2024-06-15"

# Status Resolution

ResolveStatus is a pure function over stored state and a clock:

	status := lifecycle.ResolveStatus(stored, start, end, time.Now(), loc)

Rules:

  - Cancelled is terminal and sticky
  - before the start day → Scheduled
  - within [startDay, endDay] inclusive → Active
  - after the end day → Completed

Elections are exactly one calendar day long, so Active is a single-day
window. The resolved value is a computed view; callers decide whether to
persist it, and handlers always return it in preference to the stored
column.

# Window Validation

ValidateWindow enforces the create/update rules: start strictly after
today, end after start, duration exactly 24 hours.
*/
package lifecycle
