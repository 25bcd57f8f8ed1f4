// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the youthgov-queue API server.

youthgov-queue is the validation queue behind a youth-governance admin
portal. Survey submissions are scored against the voter registry, checked
for contact mismatches with existing youth profiles, and queued for staff
review (approve, reject, bulk decisions, mismatch resolution).

# Starting the Server

Configuration comes from flags, environment variables, or a .env file:

	DATABASE_URL=./queue.db STAFF_KEY_SALT=... go run .

Or against PostgreSQL:

	go run . -t postgres -d "postgres://..." --staff-salt ...

# Configuration

Required settings:

  - DATABASE_URL (-d): SQLite file path or PostgreSQL connection string
  - STAFF_KEY_SALT (--staff-salt): Secret for staff key HMAC

Optional settings:

  - PORT (-p): Server port (default: 3318)
  - DATABASE_TYPE (-t): sqlite or postgres (default: sqlite)
  - BOOTSTRAP_KEY (--bootstrap-key): Allows creating the first admin
  - IP_HASH_SALT (--ip-salt): Salt for activity log IP hashes
  - LOG_FORMAT (--log-format): text or json

# Architecture

  - handlers: HTTP request handlers (queue, review, export, staff, voters)
  - router: Route definitions using Go 1.22+ routing
  - middleware: CORS, logging, JSON envelope helpers
  - models: Request/response and domain types
  - auth: Staff keys, IDs and IP hashing
  - db: Driver selection and schema creation
  - cliparse: Configuration parsing
  - review: Client-side queue state and review dispatcher
  - cmd/vqreview: Terminal reviewer built on the review package
*/
package main
