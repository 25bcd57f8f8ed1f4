// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/danielhkuo/youthgov-queue/auth"
	"github.com/danielhkuo/youthgov-queue/cliparse"
	"github.com/danielhkuo/youthgov-queue/db"
	"github.com/danielhkuo/youthgov-queue/models"
)

// SetupTestDB creates a fresh in-memory SQLite database with the full schema
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	conn, err := db.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	if err := db.CreateSchema(conn); err != nil {
		conn.Close()
		t.Fatalf("Failed to create schema: %v", err)
	}

	return conn
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:         3318,
		DatabaseURL:  ":memory:",
		DatabaseType: "sqlite",
		StaffKeySalt: "test-staff-salt",
		BootstrapKey: "test-bootstrap-key",
		IPHashSalt:   "test-ip-salt",
		LogFormat:    "text",
	}
}

// CreateTestStaff inserts a staff member and returns its ID and key
func CreateTestStaff(t *testing.T, db *sql.DB, cfg cliparse.Config, role string) (staffID, staffKey string) {
	t.Helper()

	staffID = auth.NewID()
	_, err := db.Exec(`
		INSERT INTO staff (id, name, role, created_at)
		VALUES ($1, $2, $3, $4)
	`, staffID, "Test "+role, role, time.Now().UTC())
	if err != nil {
		t.Fatalf("Failed to create test staff: %v", err)
	}

	return staffID, auth.GenerateStaffKey(staffID, cfg.StaffKeySalt)
}

// StaffHeaders returns the authentication headers for a staff member
func StaffHeaders(staffID, staffKey string) map[string]string {
	return map[string]string{
		"X-Staff-ID":  staffID,
		"X-Staff-Key": staffKey,
	}
}

// CreateTestBatch inserts a survey batch and returns its ID
func CreateTestBatch(t *testing.T, db *sql.DB, name string) string {
	t.Helper()

	batchID := auth.NewID()
	_, err := db.Exec(`
		INSERT INTO survey_batch (id, name, created_at) VALUES ($1, $2, $3)
	`, batchID, name, time.Now().UTC())
	if err != nil {
		t.Fatalf("Failed to create test batch: %v", err)
	}

	return batchID
}

// CreateTestProfile inserts a youth profile and returns its ID
func CreateTestProfile(t *testing.T, db *sql.DB, p models.PersonalData) string {
	t.Helper()

	profileID := auth.NewID()
	ts := time.Now().UTC()
	_, err := db.Exec(`
		INSERT INTO youth_profile (
			id, first_name, last_name, age, gender, barangay, contact, email,
			first_key, last_key, barangay_key, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`, profileID, p.FirstName, p.LastName, p.Age, p.Gender, p.Barangay, p.Contact, p.Email,
		models.FoldName(p.FirstName), models.FoldName(p.LastName), models.FoldName(p.Barangay), ts, ts)
	if err != nil {
		t.Fatalf("Failed to create test profile: %v", err)
	}

	return profileID
}

// CreateTestVoter inserts a voter registry row and returns its ID
func CreateTestVoter(t *testing.T, db *sql.DB, firstName, lastName string, age int, barangay string) string {
	t.Helper()

	voterID := auth.NewID()
	_, err := db.Exec(`
		INSERT INTO voter_registry (id, first_name, last_name, age, barangay, first_key, last_key)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, voterID, firstName, lastName, age, barangay, models.FoldName(firstName), models.FoldName(lastName))
	if err != nil {
		t.Fatalf("Failed to create test voter: %v", err)
	}

	return voterID
}

// QueueItemOptions describes a queue row created directly in the database
type QueueItemOptions struct {
	FirstName        string
	LastName         string
	Age              int
	Barangay         string
	Contact          string
	Email            string
	Status           string
	VoterMatch       string
	Score            float64
	MatchedProfileID string
	Mismatch         *models.ContactMismatch
	SubmittedAt      time.Time
	ValidatedAt      *time.Time
}

// CreateTestQueueItem inserts a validation queue row and returns its ID.
// Zero-valued options get sensible defaults.
func CreateTestQueueItem(t *testing.T, db *sql.DB, batchID string, opts QueueItemOptions) string {
	t.Helper()

	if opts.FirstName == "" {
		opts.FirstName = "Juan"
	}
	if opts.LastName == "" {
		opts.LastName = "Dela Cruz"
	}
	if opts.Age == 0 {
		opts.Age = 20
	}
	if opts.Barangay == "" {
		opts.Barangay = "San Isidro"
	}
	if opts.Status == "" {
		opts.Status = models.StatusPending
	}
	if opts.VoterMatch == "" {
		opts.VoterMatch = models.VoterMatchNone
	}
	if opts.SubmittedAt.IsZero() {
		opts.SubmittedAt = time.Now().UTC()
	}

	var matched *string
	if opts.MatchedProfileID != "" {
		matched = &opts.MatchedProfileID
	}

	var mismatchType, severity, existingContact, existingEmail *string
	if m := opts.Mismatch; m != nil {
		mismatchType, severity = &m.Type, &m.Severity
		existingContact, existingEmail = &m.Existing.Contact, &m.Existing.Email
		if opts.Contact == "" {
			opts.Contact = m.New.Contact
		}
		if opts.Email == "" {
			opts.Email = m.New.Email
		}
	}

	var validatedBy *string
	if opts.Status != models.StatusPending {
		by := "seed"
		validatedBy = &by
		if opts.ValidatedAt == nil {
			ts := time.Now().UTC()
			opts.ValidatedAt = &ts
		}
	}

	itemID := auth.NewID()
	_, err := db.Exec(`
		INSERT INTO validation_queue (
			id, batch_id, matched_profile_id, first_name, last_name, age, gender, barangay,
			contact, email, status, voter_match, validation_score,
			mismatch_type, mismatch_severity, existing_contact, existing_email,
			search_key, barangay_key, validated_by, validated_at, submitted_at
		) VALUES ($1, $2, $3, $4, $5, $6, '', $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
	`, itemID, batchID, matched, opts.FirstName, opts.LastName, opts.Age, opts.Barangay,
		opts.Contact, opts.Email, opts.Status, opts.VoterMatch, opts.Score,
		mismatchType, severity, existingContact, existingEmail,
		models.SearchKey(opts.FirstName, opts.LastName, opts.Barangay), models.FoldName(opts.Barangay),
		validatedBy, opts.ValidatedAt, opts.SubmittedAt)
	if err != nil {
		t.Fatalf("Failed to create test queue item: %v", err)
	}

	return itemID
}

// QueueStatus returns the stored status of a queue item
func QueueStatus(t *testing.T, db *sql.DB, itemID string) string {
	t.Helper()

	var status string
	if err := db.QueryRow(`SELECT status FROM validation_queue WHERE id = $1`, itemID).Scan(&status); err != nil {
		t.Fatalf("Failed to query queue status: %v", err)
	}
	return status
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
