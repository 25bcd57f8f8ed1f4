// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/danielhkuo/youthgov-queue/auth"
	"github.com/danielhkuo/youthgov-queue/cliparse"
	"github.com/danielhkuo/youthgov-queue/middleware"
	"github.com/danielhkuo/youthgov-queue/models"
)

const maxBulkIDs = 500

type ReviewHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewReviewHandler(db *sql.DB, cfg cliparse.Config) *ReviewHandler {
	return &ReviewHandler{db: db, cfg: cfg}
}

// decision is one review outcome applied to a pending item
type decision struct {
	Action            string
	Comments          *string
	UpdateContactInfo bool
	// CreateNewProfile forces a fresh profile even if a match exists
	CreateNewProfile bool
	PersonalData     *models.PersonalData
	StaffID          string
}

// pendingItem is the stored state needed to apply a decision
type pendingItem struct {
	ID               string
	Status           string
	MatchedProfileID sql.NullString
	Data             models.PersonalData
}

func loadPendingItem(q querier, id string) (pendingItem, error) {
	var p pendingItem
	err := q.QueryRow(`
		SELECT id, status, matched_profile_id, first_name, last_name, age, gender, barangay, contact, email
		FROM validation_queue
		WHERE id = $1
	`, id).Scan(&p.ID, &p.Status, &p.MatchedProfileID, &p.Data.FirstName, &p.Data.LastName,
		&p.Data.Age, &p.Data.Gender, &p.Data.Barangay, &p.Data.Contact, &p.Data.Email)
	if err == sql.ErrNoRows {
		return p, ErrNotFound
	}
	if err != nil {
		return p, fmt.Errorf("load queue item %s: %w", id, err)
	}
	if p.Status != models.StatusPending {
		return p, ErrNotPending
	}
	return p, nil
}

// mergePersonalData overlays the non-empty fields of override on base
func mergePersonalData(base models.PersonalData, override *models.PersonalData) models.PersonalData {
	if override == nil {
		return base
	}
	set := func(dst *string, v string) {
		if v = strings.TrimSpace(v); v != "" {
			*dst = v
		}
	}
	set(&base.FirstName, override.FirstName)
	set(&base.LastName, override.LastName)
	set(&base.Gender, override.Gender)
	set(&base.Barangay, override.Barangay)
	set(&base.Contact, override.Contact)
	set(&base.Email, override.Email)
	if override.Age > 0 {
		base.Age = override.Age
	}
	return base
}

func createProfile(q querier, data models.PersonalData) (string, error) {
	id := auth.NewID()
	ts := now()
	_, err := q.Exec(`
		INSERT INTO youth_profile (
			id, first_name, last_name, age, gender, barangay, contact, email,
			first_key, last_key, barangay_key, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`, id, data.FirstName, data.LastName, data.Age, data.Gender, data.Barangay, data.Contact, data.Email,
		models.FoldName(data.FirstName), models.FoldName(data.LastName), models.FoldName(data.Barangay), ts, ts)
	if err != nil {
		return "", fmt.Errorf("insert youth profile: %w", err)
	}
	return id, nil
}

// updateProfileContact overwrites contact details with the non-empty
// values of a submission
func updateProfileContact(q querier, profileID string, data models.PersonalData) error {
	_, err := q.Exec(`
		UPDATE youth_profile
		SET contact = CASE WHEN $1 = '' THEN contact ELSE $1 END,
		    email = CASE WHEN $2 = '' THEN email ELSE $2 END,
		    updated_at = $3
		WHERE id = $4
	`, data.Contact, data.Email, now(), profileID)
	if err != nil {
		return fmt.Errorf("update profile contact: %w", err)
	}
	return nil
}

// applyDecision moves a pending item to its terminal state. The status
// guard on the UPDATE makes a concurrent second review fail with
// ErrNotPending instead of applying twice.
func applyDecision(q querier, id string, d decision) (models.ValidateResult, error) {
	var result models.ValidateResult

	item, err := loadPendingItem(q, id)
	if err != nil {
		return result, err
	}

	status := models.StatusRejected
	var profileID *string

	if d.Action == models.ActionApprove {
		status = models.StatusCompleted
		data := mergePersonalData(item.Data, d.PersonalData)

		switch {
		case item.MatchedProfileID.Valid && !d.CreateNewProfile:
			pid := item.MatchedProfileID.String
			if d.UpdateContactInfo {
				if err := updateProfileContact(q, pid, data); err != nil {
					return result, err
				}
			}
			profileID = &pid
		default:
			pid, err := createProfile(q, data)
			if err != nil {
				return result, err
			}
			profileID = &pid
		}
	}

	validatedAt := now()
	res, err := q.Exec(`
		UPDATE validation_queue
		SET status = $1, profile_id = $2, comments = $3, validated_by = $4, validated_at = $5
		WHERE id = $6 AND status = $7
	`, status, profileID, d.Comments, d.StaffID, validatedAt, id, models.StatusPending)
	if err != nil {
		return result, fmt.Errorf("update queue item: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return result, ErrNotPending
	}

	result = models.ValidateResult{
		ID:          id,
		Status:      status,
		ValidatedBy: d.StaffID,
		ValidatedAt: validatedAt,
	}
	if profileID != nil {
		result.ProfileID = *profileID
	}
	return result, nil
}

// Validate handles PATCH /validation-queue/{id}/validate
func (h *ReviewHandler) Validate(w http.ResponseWriter, r *http.Request) {
	staff, ok := requireStaff(w, r, h.db, h.cfg)
	if !ok {
		return
	}

	id := r.PathValue("id")
	if id == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "id is required")
		return
	}

	var req models.ValidateRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if !models.IsValidAction(req.Action) {
		middleware.ErrorResponse(w, http.StatusBadRequest, "action must be approve or reject")
		return
	}

	tx, err := h.db.Begin()
	if err != nil {
		slog.Error("failed to begin transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer tx.Rollback()

	d := decision{
		Action:            req.Action,
		Comments:          normalizeComments(req.Comments),
		UpdateContactInfo: req.Action == models.ActionApprove && req.UpdateContactInfo,
		StaffID:           staff.ID,
	}

	result, err := applyDecision(tx, id, d)
	if errors.Is(err, ErrNotFound) {
		middleware.ErrorResponse(w, http.StatusNotFound, "Queue item not found")
		return
	}
	if errors.Is(err, ErrNotPending) {
		middleware.ErrorResponse(w, http.StatusConflict, "Queue item has already been validated")
		return
	}
	if err != nil {
		slog.Error("failed to validate queue item", "error", err, "id", id)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to validate item")
		return
	}

	err = logActivity(tx, h.cfg, r, staff.ID, models.LogValidate, "validation_queue", id, map[string]any{
		"action":            req.Action,
		"updateContactInfo": d.UpdateContactInfo,
		"hasComments":       d.Comments != nil,
	})
	if err != nil {
		slog.Error("failed to log activity", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to validate item")
		return
	}

	if err := tx.Commit(); err != nil {
		slog.Error("failed to commit transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to validate item")
		return
	}

	slog.Info("queue item validated", "id", id, "action", req.Action, "staff_id", staff.ID)

	message := "Submission approved"
	if req.Action == models.ActionReject {
		message = "Submission rejected"
	}
	middleware.SuccessResponse(w, http.StatusOK, message, result)
}

// BulkValidate handles PATCH /validation-queue/bulk-validate
// Unknown or already validated IDs are skipped, the rest are applied in a
// single transaction.
func (h *ReviewHandler) BulkValidate(w http.ResponseWriter, r *http.Request) {
	staff, ok := requireStaff(w, r, h.db, h.cfg)
	if !ok {
		return
	}

	var req models.BulkValidateRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if len(req.IDs) == 0 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "ids cannot be empty")
		return
	}
	if len(req.IDs) > maxBulkIDs {
		middleware.ErrorResponse(w, http.StatusBadRequest, fmt.Sprintf("at most %d ids per request", maxBulkIDs))
		return
	}
	if !models.IsValidAction(req.Action) {
		middleware.ErrorResponse(w, http.StatusBadRequest, "action must be approve or reject")
		return
	}

	tx, err := h.db.Begin()
	if err != nil {
		slog.Error("failed to begin transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer tx.Rollback()

	d := decision{
		Action:   req.Action,
		Comments: normalizeComments(req.Comments),
		StaffID:  staff.ID,
	}

	result := models.BulkValidateResult{
		Action:    req.Action,
		Processed: []string{},
		Skipped:   []string{},
	}
	seen := make(map[string]bool, len(req.IDs))
	for _, id := range req.IDs {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true

		_, err := applyDecision(tx, id, d)
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrNotPending) {
			result.Skipped = append(result.Skipped, id)
			continue
		}
		if err != nil {
			slog.Error("failed to bulk validate item", "error", err, "id", id)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to validate items")
			return
		}
		result.Processed = append(result.Processed, id)
	}

	err = logActivity(tx, h.cfg, r, staff.ID, models.LogBulkValidate, "validation_queue", "", map[string]any{
		"action":    req.Action,
		"processed": result.Processed,
		"skipped":   result.Skipped,
	})
	if err != nil {
		slog.Error("failed to log activity", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to validate items")
		return
	}

	if err := tx.Commit(); err != nil {
		slog.Error("failed to commit transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to validate items")
		return
	}

	slog.Info("bulk validation applied",
		"action", req.Action,
		"processed", len(result.Processed),
		"skipped", len(result.Skipped),
		"staff_id", staff.ID,
	)

	message := fmt.Sprintf("%d submission(s) processed", len(result.Processed))
	middleware.SuccessResponse(w, http.StatusOK, message, result)
}

// Reassign handles POST /validation-queue/{id}/reassign
// Resolves a contact mismatch by completing the item against a new profile
// (createNewProfile) or against the matched existing profile.
func (h *ReviewHandler) Reassign(w http.ResponseWriter, r *http.Request) {
	staff, ok := requireStaff(w, r, h.db, h.cfg)
	if !ok {
		return
	}

	id := r.PathValue("id")
	if id == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "id is required")
		return
	}

	var req models.ReassignRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.PersonalData != nil && req.PersonalData.Age != 0 &&
		(req.PersonalData.Age < minYouthAge || req.PersonalData.Age > maxYouthAge) {
		middleware.ErrorResponse(w, http.StatusBadRequest, fmt.Sprintf("age must be between %d and %d", minYouthAge, maxYouthAge))
		return
	}

	tx, err := h.db.Begin()
	if err != nil {
		slog.Error("failed to begin transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer tx.Rollback()

	if !req.CreateNewProfile {
		item, err := loadPendingItem(tx, id)
		if err == nil && !item.MatchedProfileID.Valid {
			err = ErrNoProfile
		}
		if err != nil {
			h.reassignError(w, id, err)
			return
		}
	}

	result, err := applyDecision(tx, id, decision{
		Action:           models.ActionApprove,
		CreateNewProfile: req.CreateNewProfile,
		PersonalData:     req.PersonalData,
		StaffID:          staff.ID,
	})
	if err != nil {
		h.reassignError(w, id, err)
		return
	}

	err = logActivity(tx, h.cfg, r, staff.ID, models.LogReassign, "validation_queue", id, map[string]any{
		"createNewProfile": req.CreateNewProfile,
		"profileId":        result.ProfileID,
	})
	if err != nil {
		slog.Error("failed to log activity", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to reassign item")
		return
	}

	if err := tx.Commit(); err != nil {
		slog.Error("failed to commit transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to reassign item")
		return
	}

	slog.Info("queue item reassigned", "id", id, "profile_id", result.ProfileID, "new_profile", req.CreateNewProfile)

	middleware.SuccessResponse(w, http.StatusOK, "Submission reassigned", models.ReassignResult{
		ID:        id,
		Status:    result.Status,
		ProfileID: result.ProfileID,
	})
}

func (h *ReviewHandler) reassignError(w http.ResponseWriter, id string, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		middleware.ErrorResponse(w, http.StatusNotFound, "Queue item not found")
	case errors.Is(err, ErrNotPending):
		middleware.ErrorResponse(w, http.StatusConflict, "Queue item has already been validated")
	case errors.Is(err, ErrNoProfile):
		middleware.ErrorResponse(w, http.StatusBadRequest, "No existing profile to reassign to; set createNewProfile")
	default:
		slog.Error("failed to reassign queue item", "error", err, "id", id)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to reassign item")
	}
}
