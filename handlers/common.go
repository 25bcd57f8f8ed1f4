// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/danielhkuo/youthgov-queue/auth"
	"github.com/danielhkuo/youthgov-queue/cliparse"
	"github.com/danielhkuo/youthgov-queue/middleware"
	"github.com/danielhkuo/youthgov-queue/models"
)

var (
	ErrNotFound      = errors.New("queue item not found")
	ErrNotPending    = errors.New("queue item is not pending")
	ErrStaffNotFound = errors.New("staff not found")
	ErrNoProfile     = errors.New("queue item has no matched profile")
)

// querier is satisfied by both *sql.DB and *sql.Tx
type querier interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// now is replaced in tests that need a fixed clock
var now = func() time.Time { return time.Now().UTC() }

// startOfDay returns midnight UTC of the day containing t
func startOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// placeholders returns "$from, $from+1, ..." for n parameters
func placeholders(from, n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = "$" + strconv.Itoa(from+i)
	}
	return strings.Join(parts, ", ")
}

// normalizeComments turns whitespace-only comments into nil
func normalizeComments(c *string) *string {
	if c == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*c)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

const queueItemColumns = `
	q.id, q.first_name, q.last_name, q.age, q.gender, q.barangay, q.submitted_at,
	q.status, q.voter_match, q.validation_score,
	q.mismatch_type, q.mismatch_severity, q.existing_contact, q.existing_email,
	q.contact, q.email, q.validated_by, q.validated_at, q.comments,
	q.batch_id, b.name`

const queueItemFrom = `
	FROM validation_queue q
	JOIN survey_batch b ON b.id = q.batch_id`

type rowScanner interface {
	Scan(dest ...any) error
}

// scanQueueItem reads one row selected with queueItemColumns
func scanQueueItem(row rowScanner) (models.ValidationQueueItem, error) {
	var item models.ValidationQueueItem
	var mismatchType, severity, existingContact, existingEmail sql.NullString
	var contact, email string

	err := row.Scan(
		&item.ID, &item.FirstName, &item.LastName, &item.Age, &item.Gender,
		&item.Barangay, &item.SubmittedAt, &item.Status, &item.VoterMatch,
		&item.ValidationScore, &mismatchType, &severity, &existingContact,
		&existingEmail, &contact, &email, &item.ValidatedBy, &item.ValidatedAt,
		&item.Comments, &item.BatchID, &item.BatchName,
	)
	if err != nil {
		return item, err
	}

	if mismatchType.Valid {
		item.ContactMismatch = &models.ContactMismatch{
			Type:     mismatchType.String,
			Severity: severity.String,
			Existing: models.ContactInfo{Contact: existingContact.String, Email: existingEmail.String},
			New:      models.ContactInfo{Contact: contact, Email: email},
		}
	}

	return item, nil
}

// loadQueueItem fetches a single item by ID
func loadQueueItem(q querier, id string) (models.ValidationQueueItem, error) {
	row := q.QueryRow(`SELECT `+queueItemColumns+queueItemFrom+` WHERE q.id = $1`, id)
	item, err := scanQueueItem(row)
	if err == sql.ErrNoRows {
		return item, ErrNotFound
	}
	if err != nil {
		return item, fmt.Errorf("load queue item %s: %w", id, err)
	}
	return item, nil
}

// authenticateStaff validates the X-Staff-ID / X-Staff-Key pair and loads
// the staff record
func authenticateStaff(q querier, cfg cliparse.Config, r *http.Request) (models.Staff, error) {
	var staff models.Staff

	staffID := r.Header.Get("X-Staff-ID")
	staffKey := r.Header.Get("X-Staff-Key")
	if err := auth.ValidateStaffKey(staffID, staffKey, cfg.StaffKeySalt); err != nil {
		return staff, err
	}

	err := q.QueryRow(`
		SELECT id, name, role, created_at FROM staff WHERE id = $1
	`, staffID).Scan(&staff.ID, &staff.Name, &staff.Role, &staff.CreatedAt)
	if err == sql.ErrNoRows {
		return staff, ErrStaffNotFound
	}
	if err != nil {
		return staff, fmt.Errorf("load staff %s: %w", staffID, err)
	}

	return staff, nil
}

// requireStaff writes a 401 and returns false when the request carries no
// valid staff credentials
func requireStaff(w http.ResponseWriter, r *http.Request, q querier, cfg cliparse.Config) (models.Staff, bool) {
	staff, err := authenticateStaff(q, cfg, r)
	switch {
	case err == nil:
		return staff, true
	case errors.Is(err, auth.ErrMissingStaff):
		middleware.ErrorResponse(w, http.StatusUnauthorized, "X-Staff-ID and X-Staff-Key headers required")
	case errors.Is(err, auth.ErrInvalidStaffKey), errors.Is(err, ErrStaffNotFound):
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid staff credentials")
	default:
		slog.Error("failed to authenticate staff", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
	}
	return staff, false
}

// logActivity records an audit row for a staff action
func logActivity(q querier, cfg cliparse.Config, r *http.Request, staffID, action, resourceType, resourceID string, details map[string]any) error {
	payload, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("encode activity details: %w", err)
	}

	ipHash := auth.HashIP(middleware.GetClientIP(r), cfg.IPHashSalt)

	_, err = q.Exec(`
		INSERT INTO activity_log (id, staff_id, action, resource_type, resource_id, details, ip_hash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, auth.NewID(), staffID, action, resourceType, resourceID, string(payload), ipHash, now())
	if err != nil {
		return fmt.Errorf("insert activity log: %w", err)
	}
	return nil
}
