// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/danielhkuo/youthgov-queue/auth"
	"github.com/danielhkuo/youthgov-queue/models"
	"github.com/danielhkuo/youthgov-queue/testutil"
)

func TestCreateStaff(t *testing.T) {
	env := newTestEnv(t)
	handler := NewStaffHandler(env.db, env.cfg)

	adminID, adminKey := testutil.CreateTestStaff(t, env.db, env.cfg, models.RoleAdmin)

	tests := []struct {
		name           string
		headers        map[string]string
		body           interface{}
		expectedStatus int
		wantRole       string
	}{
		{
			name:           "bootstrap key",
			headers:        map[string]string{"X-Bootstrap-Key": "test-bootstrap-key"},
			body:           models.CreateStaffRequest{Name: "First Admin", Role: models.RoleAdmin},
			expectedStatus: http.StatusCreated,
			wantRole:       models.RoleAdmin,
		},
		{
			name:           "admin creates reviewer by default",
			headers:        testutil.StaffHeaders(adminID, adminKey),
			body:           models.CreateStaffRequest{Name: "Reviewer"},
			expectedStatus: http.StatusCreated,
			wantRole:       models.RoleReviewer,
		},
		{
			name:           "reviewer is forbidden",
			headers:        env.headers,
			body:           models.CreateStaffRequest{Name: "Sneaky"},
			expectedStatus: http.StatusForbidden,
		},
		{
			name:           "wrong bootstrap key",
			headers:        map[string]string{"X-Bootstrap-Key": "guess"},
			body:           models.CreateStaffRequest{Name: "Nobody"},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "missing name",
			headers:        testutil.StaffHeaders(adminID, adminKey),
			body:           models.CreateStaffRequest{Name: "  "},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "unknown role",
			headers:        testutil.StaffHeaders(adminID, adminKey),
			body:           models.CreateStaffRequest{Name: "Chair", Role: "chairperson"},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.MakeRequest("POST", "/staff", tt.body, tt.headers)
			w := httptest.NewRecorder()
			handler.CreateStaff(w, req)

			testutil.AssertStatus(t, w, tt.expectedStatus)
			if w.Code != http.StatusCreated {
				return
			}

			created := decodeEnvelope[models.CreateStaffResponse](t, w)
			if !created.Success {
				t.Error("Expected success=true")
			}
			resp := created.Data
			if err := auth.ValidateStaffKey(resp.StaffID, resp.StaffKey, env.cfg.StaffKeySalt); err != nil {
				t.Errorf("Returned key does not validate: %v", err)
			}

			var role string
			env.db.QueryRow(`SELECT role FROM staff WHERE id = $1`, resp.StaffID).Scan(&role)
			if role != tt.wantRole {
				t.Errorf("Expected role %s, got %s", tt.wantRole, role)
			}
		})
	}
}

func TestMe(t *testing.T) {
	env := newTestEnv(t)
	handler := NewStaffHandler(env.db, env.cfg)

	req := testutil.MakeRequest("GET", "/staff/me", nil, env.headers)
	w := httptest.NewRecorder()
	handler.Me(w, req)

	testutil.AssertStatus(t, w, http.StatusOK)
	staff := decodeEnvelope[models.Staff](t, w).Data
	if staff.ID != env.staffID || staff.Role != models.RoleReviewer {
		t.Errorf("Unexpected staff payload %+v", staff)
	}
}
