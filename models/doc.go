// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

All JSON fields are camelCase. Successful responses are wrapped in Envelope
({success, message, data, pagination}); failures use ErrorResponse.

# Constants

Queue status:

	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusRejected  = "rejected"

Voter match:

	VoterMatchExact   = "exact"
	VoterMatchPartial = "partial"
	VoterMatchNone    = "no_match"

Contact mismatch types are contact, email and both; severity is high only
when both differ.
*/
package models
