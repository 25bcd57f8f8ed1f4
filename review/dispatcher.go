// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package review

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/danielhkuo/youthgov-queue/models"
)

var (
	ErrBusy              = errors.New("another review action is in progress")
	ErrEmptySelection    = errors.New("no items selected")
	ErrNoModal           = errors.New("no matching confirmation is open")
	ErrNotPending        = errors.New("item is not pending")
	ErrUnknownAction     = errors.New("action must be approve or reject")
	ErrUnknownResolution = errors.New("unknown mismatch resolution")
)

type ModalKind string

const (
	ModalNone            ModalKind = "none"
	ModalApproveConfirm  ModalKind = "approve_confirm"
	ModalContactMismatch ModalKind = "contact_mismatch"
	ModalReject          ModalKind = "reject"
	ModalBulkConfirm     ModalKind = "bulk_confirm"
)

// Resolution is the reviewer's answer to a contact mismatch
type Resolution string

const (
	ResolveUpdateContact    Resolution = "update_contact"
	ResolveCreateNewProfile Resolution = "create_new_profile"
	ResolveReject           Resolution = "reject"
)

// Modal is the confirmation currently open. Item is set for single-item
// modals; Action and IDs for bulk confirmation.
type Modal struct {
	Kind   ModalKind
	Item   *models.ValidationQueueItem
	Action string
	IDs    []string
}

type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelWarning Level = "warning"
	LevelInfo    Level = "info"
)

// Notifier shows short user-facing notices
type Notifier interface {
	Notify(level Level, title, message string)
}

// Backend is the part of the API the dispatcher drives. *Client satisfies it.
type Backend interface {
	List(ctx context.Context, q ListQuery) (Page, error)
	Stats(ctx context.Context) (models.QueueStats, error)
	CompletedToday(ctx context.Context) ([]models.ValidationQueueItem, error)
	Validate(ctx context.Context, id string, req models.ValidateRequest) (models.ValidateResult, error)
	BulkValidate(ctx context.Context, req models.BulkValidateRequest) (models.BulkValidateResult, error)
	Reassign(ctx context.Context, id string, req models.ReassignRequest) (models.ReassignResult, error)
	LogExport(ctx context.Context, req models.ExportLogRequest) error
}

// Dispatcher turns reviewer intents into confirmations and API calls.
// Only one action runs at a time; every acknowledged action is followed by a
// refetch of the queue page, stats and completed-today list.
type Dispatcher struct {
	backend Backend
	queue   *Queue
	notify  Notifier

	mu        sync.Mutex
	modal     Modal
	busy      bool
	exporting bool
}

func NewDispatcher(backend Backend, queue *Queue, notify Notifier) *Dispatcher {
	return &Dispatcher{
		backend: backend,
		queue:   queue,
		notify:  notify,
		modal:   Modal{Kind: ModalNone},
	}
}

// Modal returns the open confirmation
func (d *Dispatcher) Modal() Modal {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.modal
}

func (d *Dispatcher) Busy() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.busy
}

func (d *Dispatcher) open(m Modal) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.busy {
		return ErrBusy
	}
	d.modal = m
	return nil
}

// RequestApprove opens the approve confirmation, or the mismatch resolution
// when the item carries a contact mismatch
func (d *Dispatcher) RequestApprove(item models.ValidationQueueItem) error {
	if item.Status != models.StatusPending {
		return ErrNotPending
	}
	kind := ModalApproveConfirm
	if item.ContactMismatch != nil {
		kind = ModalContactMismatch
	}
	return d.open(Modal{Kind: kind, Item: &item})
}

// RequestReject opens the rejection modal
func (d *Dispatcher) RequestReject(item models.ValidationQueueItem) error {
	if item.Status != models.StatusPending {
		return ErrNotPending
	}
	return d.open(Modal{Kind: ModalReject, Item: &item})
}

// RequestBulk opens the bulk confirmation over the current selection. An
// empty selection only produces a notice.
func (d *Dispatcher) RequestBulk(action string) error {
	if !models.IsValidAction(action) {
		return ErrUnknownAction
	}
	ids := d.queue.Selected()
	if len(ids) == 0 {
		d.notify.Notify(LevelWarning, "Selection required", "Select at least one submission first.")
		return ErrEmptySelection
	}
	return d.open(Modal{Kind: ModalBulkConfirm, Action: action, IDs: ids})
}

// Cancel closes the open modal unless an action is in flight
func (d *Dispatcher) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.busy {
		d.modal = Modal{Kind: ModalNone}
	}
}

// ResolveMismatch answers the open contact mismatch modal
func (d *Dispatcher) ResolveMismatch(ctx context.Context, r Resolution) error {
	m := d.Modal()
	if m.Kind != ModalContactMismatch || m.Item == nil {
		return ErrNoModal
	}
	item := *m.Item

	switch r {
	case ResolveUpdateContact:
		return d.run(ctx, func(ctx context.Context) (string, error) {
			_, err := d.backend.Validate(ctx, item.ID, models.ValidateRequest{
				Action:            models.ActionApprove,
				UpdateContactInfo: true,
			})
			if err != nil {
				return "", err
			}
			d.queue.Remove(item.ID)
			return "Submission approved and contact details updated.", nil
		})
	case ResolveCreateNewProfile:
		return d.run(ctx, func(ctx context.Context) (string, error) {
			_, err := d.backend.Reassign(ctx, item.ID, models.ReassignRequest{
				CreateNewProfile: true,
				PersonalData: &models.PersonalData{
					FirstName: item.FirstName,
					LastName:  item.LastName,
					Age:       item.Age,
					Gender:    item.Gender,
					Barangay:  item.Barangay,
					Contact:   item.ContactMismatch.New.Contact,
					Email:     item.ContactMismatch.New.Email,
				},
			})
			if err != nil {
				return "", err
			}
			d.queue.Remove(item.ID)
			return "Submission approved as a new profile.", nil
		})
	case ResolveReject:
		return d.open(Modal{Kind: ModalReject, Item: &item})
	default:
		return ErrUnknownResolution
	}
}

// Confirm submits the open approve, reject or bulk confirmation. comments is
// used by reject and bulk; blank comments are sent as null.
func (d *Dispatcher) Confirm(ctx context.Context, comments string) error {
	m := d.Modal()
	note := commentsPtr(comments)

	switch m.Kind {
	case ModalApproveConfirm:
		item := *m.Item
		return d.run(ctx, func(ctx context.Context) (string, error) {
			if _, err := d.backend.Validate(ctx, item.ID, models.ValidateRequest{Action: models.ActionApprove}); err != nil {
				return "", err
			}
			d.queue.Remove(item.ID)
			return "Submission approved.", nil
		})
	case ModalReject:
		item := *m.Item
		return d.run(ctx, func(ctx context.Context) (string, error) {
			_, err := d.backend.Validate(ctx, item.ID, models.ValidateRequest{
				Action:   models.ActionReject,
				Comments: note,
			})
			if err != nil {
				return "", err
			}
			d.queue.Remove(item.ID)
			return "Submission rejected.", nil
		})
	case ModalBulkConfirm:
		ids := append([]string(nil), m.IDs...)
		action := m.Action
		return d.run(ctx, func(ctx context.Context) (string, error) {
			res, err := d.backend.BulkValidate(ctx, models.BulkValidateRequest{
				IDs:      ids,
				Action:   action,
				Comments: note,
			})
			if err != nil {
				return "", err
			}
			for _, id := range res.Processed {
				d.queue.Remove(id)
			}
			d.queue.Clear()

			verb := "approved"
			if action == models.ActionReject {
				verb = "rejected"
			}
			msg := fmt.Sprintf("%d submission(s) %s.", len(res.Processed), verb)
			if len(res.Skipped) > 0 {
				msg += fmt.Sprintf(" %d skipped.", len(res.Skipped))
			}
			return msg, nil
		})
	default:
		return ErrNoModal
	}
}

// run executes one action with the busy flag held. The reject modal stays
// open on failure so the reason is not lost; every other modal closes once
// the server has answered.
func (d *Dispatcher) run(ctx context.Context, action func(context.Context) (string, error)) error {
	d.mu.Lock()
	if d.busy {
		d.mu.Unlock()
		return ErrBusy
	}
	d.busy = true
	kind := d.modal.Kind
	d.mu.Unlock()

	msg, err := action(ctx)

	d.mu.Lock()
	d.busy = false
	if err == nil || kind != ModalReject {
		d.modal = Modal{Kind: ModalNone}
	}
	d.mu.Unlock()

	if err != nil {
		slog.Error("review action failed", "error", err, "modal", kind)
		d.notify.Notify(LevelError, "Error", errorMessage(err))
		return err
	}

	d.notify.Notify(LevelSuccess, "Success", msg)

	if err := d.Refresh(ctx); err != nil {
		slog.Warn("refresh after review action failed", "error", err)
	}
	return nil
}

// Refresh reloads the current page, the stats and the completed-today list
func (d *Dispatcher) Refresh(ctx context.Context) error {
	page, err := d.backend.List(ctx, d.queue.Query())
	if err != nil {
		d.notify.Notify(LevelError, "Error", "Failed to load validation queue: "+errorMessage(err))
		return fmt.Errorf("load queue: %w", err)
	}
	d.queue.Load(page)

	stats, err := d.backend.Stats(ctx)
	if err != nil {
		d.notify.Notify(LevelError, "Error", "Failed to load queue stats: "+errorMessage(err))
		return fmt.Errorf("load stats: %w", err)
	}
	d.queue.SetStats(stats)

	done, err := d.backend.CompletedToday(ctx)
	if err != nil {
		d.notify.Notify(LevelError, "Error", "Failed to load completed items: "+errorMessage(err))
		return fmt.Errorf("load completed today: %w", err)
	}
	d.queue.SetCompletedToday(done)
	return nil
}

// Export records that the visible rows were exported in format. Producing
// the file itself is left to the caller.
func (d *Dispatcher) Export(ctx context.Context, format string) error {
	d.mu.Lock()
	if d.exporting {
		d.mu.Unlock()
		return ErrBusy
	}
	d.exporting = true
	d.mu.Unlock()

	defer func() {
		d.mu.Lock()
		d.exporting = false
		d.mu.Unlock()
	}()

	err := d.backend.LogExport(ctx, models.ExportLogRequest{
		Format: format,
		Tab:    d.queue.Tab(),
		Count:  len(d.queue.Visible()),
	})
	if err != nil {
		d.notify.Notify(LevelError, "Export failed", errorMessage(err))
		return err
	}
	d.notify.Notify(LevelSuccess, "Export", fmt.Sprintf("Exported %s as %s.", d.queue.Tab(), strings.ToUpper(format)))
	return nil
}

func commentsPtr(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func errorMessage(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return err.Error()
}
