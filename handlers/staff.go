// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strings"

	"github.com/danielhkuo/youthgov-queue/auth"
	"github.com/danielhkuo/youthgov-queue/cliparse"
	"github.com/danielhkuo/youthgov-queue/middleware"
	"github.com/danielhkuo/youthgov-queue/models"
)

type StaffHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewStaffHandler(db *sql.DB, cfg cliparse.Config) *StaffHandler {
	return &StaffHandler{db: db, cfg: cfg}
}

// CreateStaff handles POST /staff
// Allowed for admins, or for anyone presenting the bootstrap key.
func (h *StaffHandler) CreateStaff(w http.ResponseWriter, r *http.Request) {
	if !auth.ValidateBootstrapKey(r.Header.Get("X-Bootstrap-Key"), h.cfg.BootstrapKey) {
		caller, ok := requireStaff(w, r, h.db, h.cfg)
		if !ok {
			return
		}
		if caller.Role != models.RoleAdmin {
			middleware.ErrorResponse(w, http.StatusForbidden, "Admin role required")
			return
		}
	}

	var req models.CreateStaffRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "name is required")
		return
	}
	if req.Role == "" {
		req.Role = models.RoleReviewer
	}
	if req.Role != models.RoleAdmin && req.Role != models.RoleReviewer {
		middleware.ErrorResponse(w, http.StatusBadRequest, "role must be admin or reviewer")
		return
	}

	staffID := auth.NewID()
	_, err := h.db.Exec(`
		INSERT INTO staff (id, name, role, created_at)
		VALUES ($1, $2, $3, $4)
	`, staffID, req.Name, req.Role, now())
	if err != nil {
		slog.Error("failed to insert staff", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create staff")
		return
	}

	slog.Info("staff created", "staff_id", staffID, "role", req.Role)

	middleware.SuccessResponse(w, http.StatusCreated, "Staff member created", models.CreateStaffResponse{
		StaffID:  staffID,
		StaffKey: auth.GenerateStaffKey(staffID, h.cfg.StaffKeySalt),
	})
}

// Me handles GET /staff/me
func (h *StaffHandler) Me(w http.ResponseWriter, r *http.Request) {
	staff, ok := requireStaff(w, r, h.db, h.cfg)
	if !ok {
		return
	}
	middleware.SuccessResponse(w, http.StatusOK, "", staff)
}
