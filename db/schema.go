// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"fmt"
	"strings"
)

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS.
func CreateSchema(db *sql.DB) error {
	// Executed one statement at a time so both drivers accept it
	for _, stmt := range strings.Split(schema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}

	return nil
}

const schema = `
-- Staff accounts (keys are derived, never stored)
CREATE TABLE IF NOT EXISTS staff (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    role TEXT NOT NULL DEFAULT 'reviewer' CHECK (role IN ('admin', 'reviewer')),
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

-- Survey batches
CREATE TABLE IF NOT EXISTS survey_batch (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL UNIQUE,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

-- Youth profiles
CREATE TABLE IF NOT EXISTS youth_profile (
    id TEXT PRIMARY KEY,
    first_name TEXT NOT NULL,
    last_name TEXT NOT NULL,
    age INTEGER NOT NULL,
    gender TEXT NOT NULL DEFAULT '',
    barangay TEXT NOT NULL,
    contact TEXT NOT NULL DEFAULT '',
    email TEXT NOT NULL DEFAULT '',
    first_key TEXT NOT NULL DEFAULT '',
    last_key TEXT NOT NULL DEFAULT '',
    barangay_key TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_youth_profile_key ON youth_profile(last_key, first_key, barangay_key);

-- Voter registry
CREATE TABLE IF NOT EXISTS voter_registry (
    id TEXT PRIMARY KEY,
    first_name TEXT NOT NULL,
    last_name TEXT NOT NULL,
    age INTEGER NOT NULL,
    barangay TEXT NOT NULL,
    first_key TEXT NOT NULL DEFAULT '',
    last_key TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_voter_registry_last_key ON voter_registry(last_key);
CREATE INDEX IF NOT EXISTS idx_voter_registry_first_key ON voter_registry(first_key);

-- Validation queue
CREATE TABLE IF NOT EXISTS validation_queue (
    id TEXT PRIMARY KEY,
    batch_id TEXT NOT NULL REFERENCES survey_batch(id) ON DELETE CASCADE,
    matched_profile_id TEXT REFERENCES youth_profile(id) ON DELETE SET NULL,
    profile_id TEXT REFERENCES youth_profile(id) ON DELETE SET NULL,
    first_name TEXT NOT NULL,
    last_name TEXT NOT NULL,
    age INTEGER NOT NULL,
    gender TEXT NOT NULL DEFAULT '',
    barangay TEXT NOT NULL,
    contact TEXT NOT NULL DEFAULT '',
    email TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'completed', 'rejected')),
    voter_match TEXT NOT NULL CHECK (voter_match IN ('exact', 'partial', 'no_match')),
    validation_score DOUBLE PRECISION NOT NULL CHECK (validation_score >= 0 AND validation_score <= 1),
    mismatch_type TEXT,
    mismatch_severity TEXT,
    existing_contact TEXT,
    existing_email TEXT,
    search_key TEXT NOT NULL DEFAULT '',
    barangay_key TEXT NOT NULL DEFAULT '',
    comments TEXT,
    validated_by TEXT,
    validated_at TIMESTAMP,
    submitted_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_validation_queue_status ON validation_queue(status);
CREATE INDEX IF NOT EXISTS idx_validation_queue_batch ON validation_queue(batch_id);
CREATE INDEX IF NOT EXISTS idx_validation_queue_validated_at ON validation_queue(validated_at);

-- Activity log
CREATE TABLE IF NOT EXISTS activity_log (
    id TEXT PRIMARY KEY,
    staff_id TEXT NOT NULL,
    action TEXT NOT NULL,
    resource_type TEXT NOT NULL,
    resource_id TEXT NOT NULL DEFAULT '',
    details TEXT NOT NULL DEFAULT '{}',
    ip_hash TEXT,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_activity_log_action ON activity_log(action, created_at)
`
