// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides staff authentication and ID generation utilities.

# Staff Keys

Staff keys use HMAC-SHA256 to create deterministic, verifiable keys:

	staffKey := auth.GenerateStaffKey(staffID, salt)
	err := auth.ValidateStaffKey(staffID, staffKey, salt)

The key is URL-safe base64 encoded without padding. The same staff ID and
salt always produce the same key, so keys are never stored in the database.
Requests carry them in the X-Staff-ID and X-Staff-Key headers.

# Bootstrap Key

The first admin account is created with the BOOTSTRAP_KEY configured on the
server:

	ok := auth.ValidateBootstrapKey(r.Header.Get("X-Bootstrap-Key"), cfg.BootstrapKey)

# ID Generation

Queue items, profiles, batches and log rows use random UUIDs:

	id := auth.NewID()

# IP Hashing

Activity log rows store a salted hash of the client IP:

	hash := auth.HashIP(ipAddress, salt)
*/
package auth
