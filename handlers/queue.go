// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/danielhkuo/youthgov-queue/auth"
	"github.com/danielhkuo/youthgov-queue/cliparse"
	"github.com/danielhkuo/youthgov-queue/middleware"
	"github.com/danielhkuo/youthgov-queue/models"
)

const (
	defaultPageLimit = 10
	maxPageLimit     = 100
	defaultBatchName = "Unbatched"
	minYouthAge      = 15
	maxYouthAge      = 30
)

// sortColumns maps the public sortBy values to columns
var sortColumns = map[string]string{
	"submittedAt":     "q.submitted_at",
	"lastName":        "q.last_name",
	"validationScore": "q.validation_score",
	"barangay":        "q.barangay",
}

type QueueHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewQueueHandler(db *sql.DB, cfg cliparse.Config) *QueueHandler {
	return &QueueHandler{db: db, cfg: cfg}
}

// ListFilter holds the parsed query parameters of GET /validation-queue
type ListFilter struct {
	Page       int
	Limit      int
	Search     string
	SortBy     string
	SortOrder  string
	Status     string
	Barangay   string
	VoterMatch string
	ScoreMin   *float64
	ScoreMax   *float64
}

// ParseListFilter validates list query parameters and applies defaults
func ParseListFilter(v url.Values) (ListFilter, error) {
	f := ListFilter{
		Page:      1,
		Limit:     defaultPageLimit,
		Search:    strings.TrimSpace(v.Get("search")),
		SortBy:    "submittedAt",
		SortOrder: "desc",
		Status:    models.StatusPending,
		Barangay:  strings.TrimSpace(v.Get("barangay")),
	}

	if s := v.Get("page"); s != "" {
		page, err := strconv.Atoi(s)
		if err != nil || page < 1 {
			return f, errors.New("page must be a positive integer")
		}
		f.Page = page
	}
	if s := v.Get("limit"); s != "" {
		limit, err := strconv.Atoi(s)
		if err != nil || limit < 1 || limit > maxPageLimit {
			return f, fmt.Errorf("limit must be between 1 and %d", maxPageLimit)
		}
		f.Limit = limit
	}
	if s := v.Get("sortBy"); s != "" {
		if _, ok := sortColumns[s]; !ok {
			return f, errors.New("sortBy must be one of submittedAt, lastName, validationScore, barangay")
		}
		f.SortBy = s
	}
	if s := v.Get("sortOrder"); s != "" {
		s = strings.ToLower(s)
		if s != "asc" && s != "desc" {
			return f, errors.New("sortOrder must be asc or desc")
		}
		f.SortOrder = s
	}
	if s := v.Get("status"); s != "" {
		if !models.IsValidStatus(s) {
			return f, errors.New("status must be pending, completed or rejected")
		}
		f.Status = s
	}
	if s := v.Get("voterMatch"); s != "" {
		if !models.IsValidVoterMatch(s) {
			return f, errors.New("voterMatch must be exact, partial or no_match")
		}
		f.VoterMatch = s
	}

	var err error
	if f.ScoreMin, err = parseScore(v.Get("scoreMin"), "scoreMin"); err != nil {
		return f, err
	}
	if f.ScoreMax, err = parseScore(v.Get("scoreMax"), "scoreMax"); err != nil {
		return f, err
	}
	if f.ScoreMin != nil && f.ScoreMax != nil && *f.ScoreMin > *f.ScoreMax {
		return f, errors.New("scoreMin must not exceed scoreMax")
	}

	return f, nil
}

func parseScore(s, name string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 || v > 1 {
		return nil, fmt.Errorf("%s must be between 0 and 1", name)
	}
	return &v, nil
}

// likeEscaper escapes LIKE wildcards so a search term matches literally
var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// whereClause builds the WHERE clause and its arguments for a filter
func (f ListFilter) whereClause() (string, []any) {
	conds := []string{"q.status = $1"}
	args := []any{f.Status}

	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, strings.ReplaceAll(cond, "$?", "$"+strconv.Itoa(len(args))))
	}

	if term := models.FoldName(f.Search); term != "" {
		add(`q.search_key LIKE $? ESCAPE '\'`, "%"+likeEscaper.Replace(term)+"%")
	}
	if b := models.FoldName(f.Barangay); b != "" {
		add("q.barangay_key = $?", b)
	}
	if f.VoterMatch != "" {
		add("q.voter_match = $?", f.VoterMatch)
	}
	if f.ScoreMin != nil {
		add("q.validation_score >= $?", *f.ScoreMin)
	}
	if f.ScoreMax != nil {
		add("q.validation_score <= $?", *f.ScoreMax)
	}

	return " WHERE " + strings.Join(conds, " AND "), args
}

// List handles GET /validation-queue
func (h *QueueHandler) List(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireStaff(w, r, h.db, h.cfg); !ok {
		return
	}

	filter, err := ParseListFilter(r.URL.Query())
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	where, args := filter.whereClause()

	var total int
	err = h.db.QueryRow(`SELECT COUNT(*) FROM validation_queue q`+where, args...).Scan(&total)
	if err != nil {
		slog.Error("failed to count queue items", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	order := fmt.Sprintf(" ORDER BY %s %s, q.id ASC", sortColumns[filter.SortBy], strings.ToUpper(filter.SortOrder))
	limitArgs := append(args, filter.Limit, (filter.Page-1)*filter.Limit)
	limit := fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)

	rows, err := h.db.Query(`SELECT `+queueItemColumns+queueItemFrom+where+order+limit, limitArgs...)
	if err != nil {
		slog.Error("failed to query queue items", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	items := []models.ValidationQueueItem{}
	for rows.Next() {
		item, err := scanQueueItem(rows)
		if err != nil {
			slog.Error("failed to scan queue item", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		slog.Error("failed to iterate queue items", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	totalPages := 0
	if total > 0 {
		totalPages = (total + filter.Limit - 1) / filter.Limit
	}

	middleware.PagedResponse(w, items, models.Pagination{
		Page:       filter.Page,
		Limit:      filter.Limit,
		Total:      total,
		TotalPages: totalPages,
	})
}

// Get handles GET /validation-queue/{id}
func (h *QueueHandler) Get(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireStaff(w, r, h.db, h.cfg); !ok {
		return
	}

	id := r.PathValue("id")
	if id == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "id is required")
		return
	}

	item, err := loadQueueItem(h.db, id)
	if errors.Is(err, ErrNotFound) {
		middleware.ErrorResponse(w, http.StatusNotFound, "Queue item not found")
		return
	}
	if err != nil {
		slog.Error("failed to load queue item", "error", err, "id", id)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.SuccessResponse(w, http.StatusOK, "", item)
}

// CompletedToday handles GET /validation-queue/completed-today
func (h *QueueHandler) CompletedToday(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireStaff(w, r, h.db, h.cfg); !ok {
		return
	}

	rows, err := h.db.Query(`SELECT `+queueItemColumns+queueItemFrom+`
		WHERE q.status = $1 AND q.validated_at >= $2
		ORDER BY q.validated_at DESC, q.id ASC
	`, models.StatusCompleted, startOfDay(now()))
	if err != nil {
		slog.Error("failed to query completed items", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	items := []models.ValidationQueueItem{}
	for rows.Next() {
		item, err := scanQueueItem(rows)
		if err != nil {
			slog.Error("failed to scan queue item", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		items = append(items, item)
	}

	middleware.SuccessResponse(w, http.StatusOK, "", items)
}

// Stats handles GET /validation-queue/stats
func (h *QueueHandler) Stats(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireStaff(w, r, h.db, h.cfg); !ok {
		return
	}

	stats := models.QueueStats{
		ByVoterMatch: map[string]int{
			models.VoterMatchExact:   0,
			models.VoterMatchPartial: 0,
			models.VoterMatchNone:    0,
		},
	}

	today := startOfDay(now())
	err := h.db.QueryRow(`
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN status = $1 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = $2 AND validated_at >= $4 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = $3 AND validated_at >= $4 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = $1 AND mismatch_type IS NOT NULL THEN 1 ELSE 0 END), 0)
		FROM validation_queue
	`, models.StatusPending, models.StatusCompleted, models.StatusRejected, today).Scan(
		&stats.Total, &stats.Pending, &stats.CompletedToday, &stats.RejectedToday, &stats.WithContactMismatch,
	)
	if err != nil {
		slog.Error("failed to query queue stats", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	rows, err := h.db.Query(`
		SELECT voter_match, COUNT(*)
		FROM validation_queue
		WHERE status = $1
		GROUP BY voter_match
	`, models.StatusPending)
	if err != nil {
		slog.Error("failed to query voter match stats", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	for rows.Next() {
		var match string
		var count int
		if err := rows.Scan(&match, &count); err != nil {
			slog.Error("failed to scan voter match stats", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		stats.ByVoterMatch[match] = count
	}

	middleware.SuccessResponse(w, http.StatusOK, "", stats)
}

// Intake handles POST /validation-queue
// A survey submission is classified against the voter registry and existing
// profiles, then queued as pending.
func (h *QueueHandler) Intake(w http.ResponseWriter, r *http.Request) {
	var req models.IntakeRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	req.Barangay = strings.TrimSpace(req.Barangay)
	req.Contact = strings.TrimSpace(req.Contact)
	req.Email = strings.TrimSpace(req.Email)

	// Validate input
	if req.FirstName == "" || req.LastName == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "firstName and lastName are required")
		return
	}
	if req.Barangay == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "barangay is required")
		return
	}
	if req.Age < minYouthAge || req.Age > maxYouthAge {
		middleware.ErrorResponse(w, http.StatusBadRequest, fmt.Sprintf("age must be between %d and %d", minYouthAge, maxYouthAge))
		return
	}
	batchName := strings.TrimSpace(req.BatchName)
	if batchName == "" {
		batchName = defaultBatchName
	}

	applicant := Applicant{FirstName: req.FirstName, LastName: req.LastName, Age: req.Age, Barangay: req.Barangay}

	tx, err := h.db.Begin()
	if err != nil {
		slog.Error("failed to begin transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer tx.Rollback()

	batchID, err := getOrCreateBatch(tx, batchName)
	if err != nil {
		slog.Error("failed to resolve batch", "error", err, "batch", batchName)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to queue submission")
		return
	}

	candidates, err := loadVoterCandidates(tx, applicant)
	if err != nil {
		slog.Error("failed to load voter candidates", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to queue submission")
		return
	}
	voterMatch, score := ClassifyVoterMatch(applicant, candidates)

	profile, err := findExistingProfile(tx, applicant)
	if err != nil {
		slog.Error("failed to look up profile", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to queue submission")
		return
	}

	var matchedProfileID *string
	var mismatch *models.ContactMismatch
	if profile != nil {
		matchedProfileID = &profile.ID
		mismatch = DetectContactMismatch(
			models.ContactInfo{Contact: profile.Contact, Email: profile.Email},
			models.ContactInfo{Contact: req.Contact, Email: req.Email},
		)
	}

	var mismatchType, severity, existingContact, existingEmail *string
	if mismatch != nil {
		mismatchType = &mismatch.Type
		severity = &mismatch.Severity
		existingContact = &mismatch.Existing.Contact
		existingEmail = &mismatch.Existing.Email
	}

	itemID := auth.NewID()
	_, err = tx.Exec(`
		INSERT INTO validation_queue (
			id, batch_id, matched_profile_id, first_name, last_name, age, gender, barangay,
			contact, email, status, voter_match, validation_score,
			mismatch_type, mismatch_severity, existing_contact, existing_email,
			search_key, barangay_key, submitted_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
	`, itemID, batchID, matchedProfileID, req.FirstName, req.LastName, req.Age, req.Gender, req.Barangay,
		req.Contact, req.Email, models.StatusPending, voterMatch, score,
		mismatchType, severity, existingContact, existingEmail,
		models.SearchKey(req.FirstName, req.LastName, req.Barangay), models.FoldName(req.Barangay), now())
	if err != nil {
		slog.Error("failed to insert queue item", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to queue submission")
		return
	}

	item, err := loadQueueItem(tx, itemID)
	if err != nil {
		slog.Error("failed to reload queue item", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to queue submission")
		return
	}

	if err := tx.Commit(); err != nil {
		slog.Error("failed to commit transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to queue submission")
		return
	}

	slog.Info("submission queued",
		"id", itemID,
		"batch", batchName,
		"voter_match", voterMatch,
		"score", score,
		"contact_mismatch", mismatch != nil,
	)

	middleware.SuccessResponse(w, http.StatusCreated, "Submission queued for validation", item)
}

// getOrCreateBatch returns the ID of the named survey batch, creating it
// when it does not exist yet
func getOrCreateBatch(q querier, name string) (string, error) {
	_, err := q.Exec(`
		INSERT INTO survey_batch (id, name, created_at) VALUES ($1, $2, $3)
		ON CONFLICT (name) DO NOTHING
	`, auth.NewID(), name, now())
	if err != nil {
		return "", fmt.Errorf("insert batch: %w", err)
	}

	var id string
	if err := q.QueryRow(`SELECT id FROM survey_batch WHERE name = $1`, name).Scan(&id); err != nil {
		return "", fmt.Errorf("query batch: %w", err)
	}
	return id, nil
}
