// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration
for the validation queue API server.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

# CLI Flags

	-p             Server port
	-d             Database URL
	-t             Database type (sqlite or postgres)
	-log-format    text or json
	-env           .env file to load (default ".env")
	-staff-salt    Staff key salt
	-bootstrap-key Key allowed to create staff accounts
	-ip-salt       Salt for activity log IP hashes

# Environment Variables

Flags fall back to environment variables, which may come from a .env file:

	PORT           → -p (default 3318)
	DATABASE_URL   → -d
	DATABASE_TYPE  → -t (default sqlite)
	LOG_FORMAT     → -log-format (default text)
	STAFF_KEY_SALT → -staff-salt
	BOOTSTRAP_KEY  → -bootstrap-key
	IP_HASH_SALT   → -ip-salt (default: staff salt)

CLI flags take precedence over environment variables, and variables already
set in the process environment take precedence over the .env file.

# Validation

ParseFlags returns an error if DATABASE_URL or STAFF_KEY_SALT is missing,
or if the database type is not sqlite or postgres.
*/
package cliparse
