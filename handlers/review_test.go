// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/danielhkuo/youthgov-queue/models"
	"github.com/danielhkuo/youthgov-queue/testutil"
)

func validateRequest(env testEnv, id string, body interface{}) *http.Request {
	req := testutil.MakeRequest("PATCH", "/validation-queue/"+id+"/validate", body, env.headers)
	req.SetPathValue("id", id)
	return req
}

func TestValidateApprove(t *testing.T) {
	env := newTestEnv(t)
	handler := NewReviewHandler(env.db, env.cfg)

	itemID := testutil.CreateTestQueueItem(t, env.db, env.batchID, testutil.QueueItemOptions{
		Contact: "09171234567", Email: "juan@example.com",
	})

	w := httptest.NewRecorder()
	handler.Validate(w, validateRequest(env, itemID, models.ValidateRequest{Action: models.ActionApprove}))

	testutil.AssertStatus(t, w, http.StatusOK)
	resp := decodeEnvelope[models.ValidateResult](t, w)

	if resp.Message != "Submission approved" {
		t.Errorf("Expected approve message, got %q", resp.Message)
	}
	if resp.Data.Status != models.StatusCompleted {
		t.Errorf("Expected status completed, got %s", resp.Data.Status)
	}
	if resp.Data.ValidatedBy != env.staffID {
		t.Errorf("Expected validatedBy %s, got %s", env.staffID, resp.Data.ValidatedBy)
	}
	if resp.Data.ProfileID == "" {
		t.Fatal("Expected a profile to be created for an unmatched submission")
	}

	var contact, email string
	err := env.db.QueryRow(`SELECT contact, email FROM youth_profile WHERE id = $1`, resp.Data.ProfileID).Scan(&contact, &email)
	if err != nil {
		t.Fatalf("Failed to load created profile: %v", err)
	}
	if contact != "09171234567" || email != "juan@example.com" {
		t.Errorf("Profile should copy submission contact details, got %s / %s", contact, email)
	}

	var logged int
	env.db.QueryRow(`SELECT COUNT(*) FROM activity_log WHERE action = $1 AND resource_id = $2`,
		models.LogValidate, itemID).Scan(&logged)
	if logged != 1 {
		t.Errorf("Expected 1 activity log row, got %d", logged)
	}
}

func TestValidateApproveLinksMatchedProfile(t *testing.T) {
	env := newTestEnv(t)
	handler := NewReviewHandler(env.db, env.cfg)

	profileID := testutil.CreateTestProfile(t, env.db, models.PersonalData{
		FirstName: "Juan", LastName: "Dela Cruz", Age: 20, Barangay: "San Isidro",
		Contact: "09170000000", Email: "old@example.com",
	})
	mismatch := &models.ContactMismatch{
		Type: models.MismatchBoth, Severity: models.SeverityHigh,
		Existing: models.ContactInfo{Contact: "09170000000", Email: "old@example.com"},
		New:      models.ContactInfo{Contact: "09179999999", Email: "new@example.com"},
	}

	tests := []struct {
		name              string
		updateContactInfo bool
		wantContact       string
		wantEmail         string
	}{
		{"keep existing contact", false, "09170000000", "old@example.com"},
		{"update contact info", true, "09179999999", "new@example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			itemID := testutil.CreateTestQueueItem(t, env.db, env.batchID, testutil.QueueItemOptions{
				MatchedProfileID: profileID,
				Mismatch:         mismatch,
			})

			w := httptest.NewRecorder()
			handler.Validate(w, validateRequest(env, itemID, models.ValidateRequest{
				Action:            models.ActionApprove,
				UpdateContactInfo: tt.updateContactInfo,
			}))

			testutil.AssertStatus(t, w, http.StatusOK)
			resp := decodeEnvelope[models.ValidateResult](t, w)
			if resp.Data.ProfileID != profileID {
				t.Errorf("Expected matched profile %s, got %s", profileID, resp.Data.ProfileID)
			}

			var contact, email string
			env.db.QueryRow(`SELECT contact, email FROM youth_profile WHERE id = $1`, profileID).Scan(&contact, &email)
			if contact != tt.wantContact || email != tt.wantEmail {
				t.Errorf("Expected %s / %s, got %s / %s", tt.wantContact, tt.wantEmail, contact, email)
			}
		})
	}
}

func TestValidateReject(t *testing.T) {
	env := newTestEnv(t)
	handler := NewReviewHandler(env.db, env.cfg)

	reason := "Duplicate submission"
	blank := "   "

	tests := []struct {
		name         string
		body         interface{}
		wantComments *string
	}{
		{
			name:         "null comments",
			body:         map[string]interface{}{"action": "reject", "comments": nil},
			wantComments: nil,
		},
		{
			name:         "whitespace comments stored as null",
			body:         models.ValidateRequest{Action: models.ActionReject, Comments: &blank},
			wantComments: nil,
		},
		{
			name:         "with reason",
			body:         models.ValidateRequest{Action: models.ActionReject, Comments: &reason},
			wantComments: &reason,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			itemID := testutil.CreateTestQueueItem(t, env.db, env.batchID, testutil.QueueItemOptions{})

			w := httptest.NewRecorder()
			handler.Validate(w, validateRequest(env, itemID, tt.body))

			testutil.AssertStatus(t, w, http.StatusOK)
			resp := decodeEnvelope[models.ValidateResult](t, w)
			if resp.Message != "Submission rejected" {
				t.Errorf("Expected reject message, got %q", resp.Message)
			}
			if resp.Data.ProfileID != "" {
				t.Error("Rejected items should not link a profile")
			}
			if got := testutil.QueueStatus(t, env.db, itemID); got != models.StatusRejected {
				t.Errorf("Expected stored status rejected, got %s", got)
			}

			var comments sql.NullString
			env.db.QueryRow(`SELECT comments FROM validation_queue WHERE id = $1`, itemID).Scan(&comments)
			if tt.wantComments == nil {
				if comments.Valid {
					t.Errorf("Expected NULL comments, got %q", comments.String)
				}
			} else if comments.String != *tt.wantComments {
				t.Errorf("Expected comments %q, got %q", *tt.wantComments, comments.String)
			}
		})
	}
}

func TestValidateErrors(t *testing.T) {
	env := newTestEnv(t)
	handler := NewReviewHandler(env.db, env.cfg)

	pending := testutil.CreateTestQueueItem(t, env.db, env.batchID, testutil.QueueItemOptions{})
	completed := testutil.CreateTestQueueItem(t, env.db, env.batchID, testutil.QueueItemOptions{
		Status: models.StatusCompleted,
	})

	tests := []struct {
		name           string
		id             string
		body           interface{}
		headers        map[string]string
		expectedStatus int
	}{
		{
			name:           "missing credentials",
			id:             pending,
			body:           models.ValidateRequest{Action: models.ActionApprove},
			headers:        map[string]string{},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "unknown item",
			id:             "does-not-exist",
			body:           models.ValidateRequest{Action: models.ActionApprove},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "already completed",
			id:             completed,
			body:           models.ValidateRequest{Action: models.ActionReject},
			expectedStatus: http.StatusConflict,
		},
		{
			name:           "invalid action",
			id:             pending,
			body:           models.ValidateRequest{Action: "escalate"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "invalid JSON",
			id:             pending,
			body:           "nope",
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			headers := env.headers
			if tt.headers != nil {
				headers = tt.headers
			}
			req := testutil.MakeRequest("PATCH", "/validation-queue/"+tt.id+"/validate", tt.body, headers)
			req.SetPathValue("id", tt.id)
			w := httptest.NewRecorder()
			handler.Validate(w, req)

			testutil.AssertStatus(t, w, tt.expectedStatus)

			var resp models.ErrorResponse
			testutil.AssertJSON(t, w, &resp)
			if resp.Success || resp.Error == "" {
				t.Errorf("Expected error envelope, got %+v", resp)
			}
		})
	}

	if got := testutil.QueueStatus(t, env.db, pending); got != models.StatusPending {
		t.Errorf("Failed requests must not change state, got %s", got)
	}
}

func TestValidateTwiceConflicts(t *testing.T) {
	env := newTestEnv(t)
	handler := NewReviewHandler(env.db, env.cfg)

	itemID := testutil.CreateTestQueueItem(t, env.db, env.batchID, testutil.QueueItemOptions{})

	w := httptest.NewRecorder()
	handler.Validate(w, validateRequest(env, itemID, models.ValidateRequest{Action: models.ActionApprove}))
	testutil.AssertStatus(t, w, http.StatusOK)

	w = httptest.NewRecorder()
	handler.Validate(w, validateRequest(env, itemID, models.ValidateRequest{Action: models.ActionReject}))
	testutil.AssertStatus(t, w, http.StatusConflict)

	if got := testutil.QueueStatus(t, env.db, itemID); got != models.StatusCompleted {
		t.Errorf("Terminal state must not change, got %s", got)
	}
}

func TestBulkValidate(t *testing.T) {
	env := newTestEnv(t)
	handler := NewReviewHandler(env.db, env.cfg)

	a := testutil.CreateTestQueueItem(t, env.db, env.batchID, testutil.QueueItemOptions{FirstName: "Ana"})
	b := testutil.CreateTestQueueItem(t, env.db, env.batchID, testutil.QueueItemOptions{FirstName: "Ben"})
	c := testutil.CreateTestQueueItem(t, env.db, env.batchID, testutil.QueueItemOptions{FirstName: "Cara"})
	done := testutil.CreateTestQueueItem(t, env.db, env.batchID, testutil.QueueItemOptions{Status: models.StatusRejected})

	req := testutil.MakeRequest("PATCH", "/validation-queue/bulk-validate", models.BulkValidateRequest{
		IDs:    []string{a, b, c, a, done, "missing"},
		Action: models.ActionApprove,
	}, env.headers)
	w := httptest.NewRecorder()
	handler.BulkValidate(w, req)

	testutil.AssertStatus(t, w, http.StatusOK)
	resp := decodeEnvelope[models.BulkValidateResult](t, w)

	if len(resp.Data.Processed) != 3 {
		t.Errorf("Expected 3 processed, got %v", resp.Data.Processed)
	}
	if len(resp.Data.Skipped) != 2 {
		t.Errorf("Expected 2 skipped, got %v", resp.Data.Skipped)
	}
	if resp.Message != "3 submission(s) processed" {
		t.Errorf("Unexpected message %q", resp.Message)
	}

	for _, id := range []string{a, b, c} {
		if got := testutil.QueueStatus(t, env.db, id); got != models.StatusCompleted {
			t.Errorf("Item %s: expected completed, got %s", id, got)
		}
	}
	if got := testutil.QueueStatus(t, env.db, done); got != models.StatusRejected {
		t.Errorf("Skipped item changed state to %s", got)
	}

	var profiles, logs int
	env.db.QueryRow(`SELECT COUNT(*) FROM youth_profile`).Scan(&profiles)
	env.db.QueryRow(`SELECT COUNT(*) FROM activity_log WHERE action = $1`, models.LogBulkValidate).Scan(&logs)
	if profiles != 3 {
		t.Errorf("Expected 3 profiles created, got %d", profiles)
	}
	if logs != 1 {
		t.Errorf("Expected a single bulk activity row, got %d", logs)
	}
}

func TestBulkReject(t *testing.T) {
	env := newTestEnv(t)
	handler := NewReviewHandler(env.db, env.cfg)

	a := testutil.CreateTestQueueItem(t, env.db, env.batchID, testutil.QueueItemOptions{})
	b := testutil.CreateTestQueueItem(t, env.db, env.batchID, testutil.QueueItemOptions{})

	reason := "Outside barangay coverage"
	req := testutil.MakeRequest("PATCH", "/validation-queue/bulk-validate", models.BulkValidateRequest{
		IDs:      []string{a, b},
		Action:   models.ActionReject,
		Comments: &reason,
	}, env.headers)
	w := httptest.NewRecorder()
	handler.BulkValidate(w, req)

	testutil.AssertStatus(t, w, http.StatusOK)

	var rejected int
	env.db.QueryRow(`SELECT COUNT(*) FROM validation_queue WHERE status = $1 AND comments = $2`,
		models.StatusRejected, reason).Scan(&rejected)
	if rejected != 2 {
		t.Errorf("Expected 2 rejected items with comments, got %d", rejected)
	}
}

func TestBulkValidateErrors(t *testing.T) {
	env := newTestEnv(t)
	handler := NewReviewHandler(env.db, env.cfg)

	tooMany := make([]string, maxBulkIDs+1)
	for i := range tooMany {
		tooMany[i] = "id"
	}

	tests := []struct {
		name string
		body interface{}
	}{
		{"empty ids", models.BulkValidateRequest{IDs: []string{}, Action: models.ActionApprove}},
		{"missing ids", map[string]string{"action": "approve"}},
		{"too many ids", models.BulkValidateRequest{IDs: tooMany, Action: models.ActionApprove}},
		{"invalid action", models.BulkValidateRequest{IDs: []string{"x"}, Action: "hold"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.MakeRequest("PATCH", "/validation-queue/bulk-validate", tt.body, env.headers)
			w := httptest.NewRecorder()
			handler.BulkValidate(w, req)
			testutil.AssertStatus(t, w, http.StatusBadRequest)
		})
	}
}

func TestReassign(t *testing.T) {
	env := newTestEnv(t)
	handler := NewReviewHandler(env.db, env.cfg)

	profileID := testutil.CreateTestProfile(t, env.db, models.PersonalData{
		FirstName: "Juan", LastName: "Dela Cruz", Age: 20, Barangay: "San Isidro",
		Contact: "09170000000",
	})
	mismatch := &models.ContactMismatch{
		Type: models.MismatchContact, Severity: models.SeverityLow,
		Existing: models.ContactInfo{Contact: "09170000000"},
		New:      models.ContactInfo{Contact: "09175555555"},
	}

	t.Run("create new profile", func(t *testing.T) {
		itemID := testutil.CreateTestQueueItem(t, env.db, env.batchID, testutil.QueueItemOptions{
			MatchedProfileID: profileID, Mismatch: mismatch,
		})

		req := testutil.MakeRequest("POST", "/validation-queue/"+itemID+"/reassign", models.ReassignRequest{
			CreateNewProfile: true,
			PersonalData:     &models.PersonalData{FirstName: "Juan Miguel", Age: 21},
		}, env.headers)
		req.SetPathValue("id", itemID)
		w := httptest.NewRecorder()
		handler.Reassign(w, req)

		testutil.AssertStatus(t, w, http.StatusOK)
		resp := decodeEnvelope[models.ReassignResult](t, w)
		if resp.Data.ProfileID == "" || resp.Data.ProfileID == profileID {
			t.Fatalf("Expected a new profile, got %q", resp.Data.ProfileID)
		}
		if resp.Data.Status != models.StatusCompleted {
			t.Errorf("Expected completed, got %s", resp.Data.Status)
		}

		var first, contact string
		var age int
		env.db.QueryRow(`SELECT first_name, age, contact FROM youth_profile WHERE id = $1`, resp.Data.ProfileID).
			Scan(&first, &age, &contact)
		if first != "Juan Miguel" || age != 21 {
			t.Errorf("Personal data overrides not applied: %s / %d", first, age)
		}
		if contact != "09175555555" {
			t.Errorf("Expected submission contact on new profile, got %s", contact)
		}
	})

	t.Run("existing profile", func(t *testing.T) {
		itemID := testutil.CreateTestQueueItem(t, env.db, env.batchID, testutil.QueueItemOptions{
			MatchedProfileID: profileID, Mismatch: mismatch,
		})

		req := testutil.MakeRequest("POST", "/validation-queue/"+itemID+"/reassign", models.ReassignRequest{}, env.headers)
		req.SetPathValue("id", itemID)
		w := httptest.NewRecorder()
		handler.Reassign(w, req)

		testutil.AssertStatus(t, w, http.StatusOK)
		resp := decodeEnvelope[models.ReassignResult](t, w)
		if resp.Data.ProfileID != profileID {
			t.Errorf("Expected matched profile %s, got %s", profileID, resp.Data.ProfileID)
		}
	})

	t.Run("no matched profile", func(t *testing.T) {
		itemID := testutil.CreateTestQueueItem(t, env.db, env.batchID, testutil.QueueItemOptions{})

		req := testutil.MakeRequest("POST", "/validation-queue/"+itemID+"/reassign", models.ReassignRequest{}, env.headers)
		req.SetPathValue("id", itemID)
		w := httptest.NewRecorder()
		handler.Reassign(w, req)

		testutil.AssertStatus(t, w, http.StatusBadRequest)
		if got := testutil.QueueStatus(t, env.db, itemID); got != models.StatusPending {
			t.Errorf("Expected item to stay pending, got %s", got)
		}
	})

	t.Run("already validated", func(t *testing.T) {
		itemID := testutil.CreateTestQueueItem(t, env.db, env.batchID, testutil.QueueItemOptions{
			Status: models.StatusRejected,
		})

		req := testutil.MakeRequest("POST", "/validation-queue/"+itemID+"/reassign", models.ReassignRequest{
			CreateNewProfile: true,
		}, env.headers)
		req.SetPathValue("id", itemID)
		w := httptest.NewRecorder()
		handler.Reassign(w, req)

		testutil.AssertStatus(t, w, http.StatusConflict)
	})

	t.Run("age out of range", func(t *testing.T) {
		itemID := testutil.CreateTestQueueItem(t, env.db, env.batchID, testutil.QueueItemOptions{})

		req := testutil.MakeRequest("POST", "/validation-queue/"+itemID+"/reassign", models.ReassignRequest{
			CreateNewProfile: true,
			PersonalData:     &models.PersonalData{Age: 60},
		}, env.headers)
		req.SetPathValue("id", itemID)
		w := httptest.NewRecorder()
		handler.Reassign(w, req)

		testutil.AssertStatus(t, w, http.StatusBadRequest)
	})
}
