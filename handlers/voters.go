// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/danielhkuo/youthgov-queue/auth"
	"github.com/danielhkuo/youthgov-queue/cliparse"
	"github.com/danielhkuo/youthgov-queue/middleware"
	"github.com/danielhkuo/youthgov-queue/models"
)

type VoterHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewVoterHandler(db *sql.DB, cfg cliparse.Config) *VoterHandler {
	return &VoterHandler{db: db, cfg: cfg}
}

// ImportVoters handles POST /voters
// Admin only. Rows are validated up front and inserted in one transaction.
func (h *VoterHandler) ImportVoters(w http.ResponseWriter, r *http.Request) {
	staff, ok := requireStaff(w, r, h.db, h.cfg)
	if !ok {
		return
	}
	if staff.Role != models.RoleAdmin {
		middleware.ErrorResponse(w, http.StatusForbidden, "Admin role required")
		return
	}

	var req models.ImportVotersRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if len(req.Voters) == 0 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "voters cannot be empty")
		return
	}

	for i, v := range req.Voters {
		if strings.TrimSpace(v.FirstName) == "" || strings.TrimSpace(v.LastName) == "" || strings.TrimSpace(v.Barangay) == "" {
			middleware.ErrorResponse(w, http.StatusBadRequest, fmt.Sprintf("voter %d: firstName, lastName and barangay are required", i))
			return
		}
		if v.Age <= 0 {
			middleware.ErrorResponse(w, http.StatusBadRequest, fmt.Sprintf("voter %d: age must be positive", i))
			return
		}
	}

	tx, err := h.db.Begin()
	if err != nil {
		slog.Error("failed to begin transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer tx.Rollback()

	for _, v := range req.Voters {
		_, err := tx.Exec(`
			INSERT INTO voter_registry (id, first_name, last_name, age, barangay, first_key, last_key)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, auth.NewID(), strings.TrimSpace(v.FirstName), strings.TrimSpace(v.LastName), v.Age, strings.TrimSpace(v.Barangay),
			models.FoldName(v.FirstName), models.FoldName(v.LastName))
		if err != nil {
			slog.Error("failed to insert voter", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to import voters")
			return
		}
	}

	if err := tx.Commit(); err != nil {
		slog.Error("failed to commit transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to import voters")
		return
	}

	slog.Info("voters imported", "count", len(req.Voters), "staff_id", staff.ID)

	middleware.SuccessResponse(w, http.StatusCreated, "", models.ImportVotersResponse{Imported: len(req.Voters)})
}
