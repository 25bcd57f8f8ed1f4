// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the validation queue API.

# Handler Types

Each handler is a struct with database and config dependencies:

  - QueueHandler: Listing, stats, completed-today, single item, intake
  - ReviewHandler: Approve/reject, bulk decisions, reassignment
  - ExportHandler: Export audit logging and history
  - StaffHandler: Staff creation and identity
  - VoterHandler: Voter registry import

Handlers are created via constructor functions that accept *sql.DB and Config:

	reviewHandler := handlers.NewReviewHandler(db, cfg)

# Item Lifecycle

Queue items progress from pending to one terminal state:

	pending → completed (approve, bulk approve, reassign)
	pending → rejected  (reject, bulk reject)

Every transition runs in one transaction guarded by status = 'pending', so a
second decision on the same item answers 409 Conflict.

# Classification

Intake scores a submission against the voter registry (ClassifyVoterMatch)
and compares it with an existing profile of the same name and barangay
(DetectContactMismatch). Items with a contact mismatch carry both the stored
and submitted contact details so a reviewer can choose to update the profile,
create a new one, or reject.

# Authentication

Staff operations require X-Staff-ID and X-Staff-Key headers. Intake is public.
*/
package handlers
