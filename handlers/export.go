// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strings"

	"github.com/danielhkuo/youthgov-queue/cliparse"
	"github.com/danielhkuo/youthgov-queue/middleware"
	"github.com/danielhkuo/youthgov-queue/models"
)

const exportHistoryLimit = 50

var exportFormats = map[string]bool{"csv": true, "xlsx": true, "pdf": true}

// ExportHandler records queue exports. Files are generated by the client;
// the server only keeps the audit trail.
type ExportHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewExportHandler(db *sql.DB, cfg cliparse.Config) *ExportHandler {
	return &ExportHandler{db: db, cfg: cfg}
}

// LogExport handles POST /validation-queue/export
func (h *ExportHandler) LogExport(w http.ResponseWriter, r *http.Request) {
	staff, ok := requireStaff(w, r, h.db, h.cfg)
	if !ok {
		return
	}

	var req models.ExportLogRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	req.Format = strings.ToLower(strings.TrimSpace(req.Format))
	if !exportFormats[req.Format] {
		middleware.ErrorResponse(w, http.StatusBadRequest, "format must be csv, xlsx or pdf")
		return
	}
	if req.Tab == "" {
		req.Tab = models.StatusPending
	}
	if !models.IsValidStatus(req.Tab) {
		middleware.ErrorResponse(w, http.StatusBadRequest, "tab must be pending, completed or rejected")
		return
	}
	if req.Count < 0 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "count cannot be negative")
		return
	}

	err := logActivity(h.db, h.cfg, r, staff.ID, models.LogExport, "validation_queue", req.Tab, map[string]any{
		"format": req.Format,
		"tab":    req.Tab,
		"count":  req.Count,
	})
	if err != nil {
		slog.Error("failed to log export", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to log export")
		return
	}

	slog.Info("queue export logged", "staff_id", staff.ID, "format", req.Format, "tab", req.Tab, "count", req.Count)

	middleware.SuccessResponse(w, http.StatusCreated, "Export logged", nil)
}

// ExportHistory handles GET /validation-queue/export
// Returns the most recent export log entries, newest first.
func (h *ExportHandler) ExportHistory(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireStaff(w, r, h.db, h.cfg); !ok {
		return
	}

	rows, err := h.db.Query(`
		SELECT id, staff_id, action, resource_type, resource_id, details, created_at
		FROM activity_log
		WHERE action = $1
		ORDER BY created_at DESC, id
		LIMIT $2
	`, models.LogExport, exportHistoryLimit)
	if err != nil {
		slog.Error("failed to query export history", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	entries := []models.ActivityLog{}
	for rows.Next() {
		var e models.ActivityLog
		if err := rows.Scan(&e.ID, &e.StaffID, &e.Action, &e.ResourceType, &e.ResourceID, &e.Details, &e.CreatedAt); err != nil {
			slog.Error("failed to scan export log", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		entries = append(entries, e)
	}

	middleware.SuccessResponse(w, http.StatusOK, "", entries)
}
