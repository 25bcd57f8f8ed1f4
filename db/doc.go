// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db opens the database and creates the schema.

# Drivers

Open selects a driver by type:

	conn, err := db.Open("sqlite", "./queue.db")
	conn, err := db.Open("postgres", "postgres://...")

SQLite connections are limited to one open connection with foreign keys
enabled. Queries use $N placeholders, which both drivers accept.

# Schema Creation

	if err := db.CreateSchema(conn); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and indexes.

# Tables

  - staff: Reviewer and admin accounts
  - survey_batch: Named intake batches
  - youth_profile: Approved youth records
  - voter_registry: Registered voters used for matching
  - validation_queue: Submissions awaiting or past review
  - activity_log: Audit trail of staff actions

# Relationships

	survey_batch 1──* validation_queue
	youth_profile 1──* validation_queue (matched_profile_id, profile_id)

Timestamps are written by the application in UTC.
*/
package db
