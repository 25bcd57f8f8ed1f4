// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package review is the reviewer side of the validation queue.

It has three parts:

  - Client: a typed HTTP client for the /validation-queue endpoints. It sends
    the X-Staff-ID and X-Staff-Key headers on every call. Non-2xx replies and
    success:false envelopes come back as *APIError.
  - Queue: the reviewer's working state. It holds the fetched page, stats, the
    completed-today list, the active tab and filters, and the selection set.
    Filters apply locally through Visible and are also sent on the next fetch.
  - Dispatcher: turns reviewer intents into confirmations and API calls.

# Dispatcher flow

Each intent opens a Modal first. Nothing reaches the network until the modal
is confirmed.

	RequestApprove  -> approve_confirm, or contact_mismatch if the item has one
	RequestReject   -> reject
	RequestBulk     -> bulk_confirm (an empty selection only notifies)

	Confirm(ctx, comments)      submits approve, reject or bulk
	ResolveMismatch(ctx, r)     update_contact | create_new_profile | reject
	Cancel()                    closes the modal

A mismatched item is never approved directly. update_contact approves with
updateContactInfo set. create_new_profile posts to the reassign endpoint.
reject moves to the reject modal. Blank comments are sent as JSON null.

Only one action runs at a time; a second one gets ErrBusy. After the server
acknowledges an action the dispatcher refetches the page, the stats and the
completed-today list. Failures are reported through the Notifier and returned.
There is no retry. The reject modal stays open after a failure so the reason
can be resubmitted. Every other modal closes once the server has answered.
*/
package review
