// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the validation queue API.

# Route Registration

NewRouter creates a configured http.ServeMux with all endpoints:

	mux := router.NewRouter(db, cfg)

# Endpoints

Health:

	GET /health

Queue (staff, requires X-Staff-ID and X-Staff-Key):

	GET  /validation-queue                 - Filtered, paginated list
	GET  /validation-queue/stats           - Counters
	GET  /validation-queue/completed-today - Items approved today
	GET  /validation-queue/{id}            - Single item

Intake (public):

	POST /validation-queue - Queue a survey submission

Review (staff):

	PATCH /validation-queue/{id}/validate  - Approve or reject
	PATCH /validation-queue/bulk-validate  - Bulk approve or reject
	POST  /validation-queue/{id}/reassign  - Resolve a contact mismatch

Export logging (staff):

	GET  /validation-queue/export - Recent export log
	POST /validation-queue/export - Record an export

Administration:

	POST /staff    - Create staff (admin or X-Bootstrap-Key)
	GET  /staff/me - Current staff member
	POST /voters   - Import voter registry rows (admin)

Static segments such as stats and bulk-validate take precedence over {id}.
*/
package router
