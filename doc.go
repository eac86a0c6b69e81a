// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the campus-vote API server.

Campus-vote runs single-day campus elections: admins schedule an
election with a candidate roster and an eligible-voter snapshot,
students cast exactly one vote each while the window is open, and an
explicit close seals a final result recomputed from the vote ledger.

# Starting the Server

The server reads a .env file, environment variables, or CLI flags:

	DATABASE_URL=elections.db ADMIN_KEY_SALT=... go run main.go

Or with flags:

	go run main.go -p 4417 -d "postgres://..." -t postgres

# Configuration

Required settings:

  - DATABASE_URL (-d): SQLite file path or PostgreSQL connection string
  - ADMIN_KEY_SALT (--admin-salt): Secret for admin key HMAC

Optional settings:

  - PORT (-p): Server port (default: 4417)
  - DATABASE_TYPE (-t): "sqlite" or "postgres" (default: sqlite)
  - ELECTION_TIMEZONE (-tz): Civil-day zone (default: Asia/Kolkata)

# Architecture

The server uses a handler-based architecture with dependency injection:

  - handlers: HTTP request handlers (elections, candidates, voting, results)
  - router: Route definitions using Go 1.22+ routing
  - middleware: CORS, logging, JSON helpers
  - models: Request/response types
  - lifecycle: Civil-day status resolution
  - ledger: Append-only vote storage and counters
  - tally: Close, tally, and result sealing
  - auth: Admin keys and trusted voter identity
  - notify: Post-commit event logging
  - db: Schema creation
  - cliparse: Configuration parsing

See package documentation for each component.
*/
package main
