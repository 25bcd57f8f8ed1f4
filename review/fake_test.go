// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package review

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/danielhkuo/youthgov-queue/models"
)

type recordedCall struct {
	Method   string
	Path     string
	RawQuery string
	Header   http.Header
	Body     map[string]any
}

// fakeAPI is an in-process stand-in for the queue API that records every
// request it receives
type fakeAPI struct {
	server *httptest.Server

	mu    sync.Mutex
	calls []recordedCall
	items []models.ValidationQueueItem
	// fail maps "METHOD /path" to a status code answered instead of success
	fail map[string]int
}

func newFakeAPI(t *testing.T, items ...models.ValidationQueueItem) *fakeAPI {
	t.Helper()

	f := &fakeAPI{items: append([]models.ValidationQueueItem(nil), items...), fail: map[string]int{}}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /validation-queue", f.list)
	mux.HandleFunc("GET /validation-queue/stats", f.stats)
	mux.HandleFunc("GET /validation-queue/completed-today", f.completedToday)
	mux.HandleFunc("PATCH /validation-queue/{id}/validate", f.validate)
	mux.HandleFunc("PATCH /validation-queue/bulk-validate", f.bulkValidate)
	mux.HandleFunc("POST /validation-queue/{id}/reassign", f.reassign)
	mux.HandleFunc("POST /validation-queue/export", f.export)
	mux.HandleFunc("GET /staff/me", f.me)

	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		call := recordedCall{Method: r.Method, Path: r.URL.Path, RawQuery: r.URL.RawQuery, Header: r.Header.Clone()}
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &call.Body); err != nil {
				t.Errorf("fake API got invalid JSON: %v", err)
			}
		}
		r.Body = io.NopCloser(bytes.NewReader(raw))

		f.mu.Lock()
		f.calls = append(f.calls, call)
		status, failing := f.fail[r.Method+" "+r.URL.Path]
		f.mu.Unlock()

		if failing {
			writeJSON(w, status, models.ErrorResponse{
				Success: false,
				Error:   http.StatusText(status),
				Message: "fake failure",
			})
			return
		}
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeAPI) client(t *testing.T) *Client {
	t.Helper()
	c, err := NewClient(f.server.URL, "staff-1", "key-1", time.Second)
	require.NoError(t, err)
	return c
}

func (f *fakeAPI) failOn(method, path string, status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail[method+" "+path] = status
}

func (f *fakeAPI) recorded() []recordedCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recordedCall(nil), f.calls...)
}

// writes returns the recorded non-GET calls
func (f *fakeAPI) writes() []recordedCall {
	var out []recordedCall
	for _, c := range f.recorded() {
		if c.Method != http.MethodGet {
			out = append(out, c)
		}
	}
	return out
}

func (f *fakeAPI) drop(id string) {
	for i, item := range f.items {
		if item.ID == id {
			f.items = append(f.items[:i], f.items[i+1:]...)
			return
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (f *fakeAPI) list(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	items := append([]models.ValidationQueueItem{}, f.items...)
	f.mu.Unlock()
	writeJSON(w, http.StatusOK, models.Envelope{
		Success:    true,
		Data:       items,
		Pagination: &models.Pagination{Page: 1, Limit: 10, Total: len(items), TotalPages: 1},
	})
}

func (f *fakeAPI) stats(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	pending := len(f.items)
	f.mu.Unlock()
	writeJSON(w, http.StatusOK, models.Envelope{Success: true, Data: models.QueueStats{
		Pending:      pending,
		Total:        pending,
		ByVoterMatch: map[string]int{},
	}})
}

func (f *fakeAPI) completedToday(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.Envelope{Success: true, Data: []models.ValidationQueueItem{}})
}

func (f *fakeAPI) validate(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	f.mu.Lock()
	f.drop(id)
	f.mu.Unlock()
	writeJSON(w, http.StatusOK, models.Envelope{Success: true, Message: "ok", Data: models.ValidateResult{
		ID: id, Status: models.StatusCompleted, ValidatedBy: "staff-1", ValidatedAt: time.Now().UTC(),
	}})
}

func (f *fakeAPI) bulkValidate(w http.ResponseWriter, r *http.Request) {
	var req models.BulkValidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Bad Request"})
		return
	}

	result := models.BulkValidateResult{Action: req.Action, Processed: []string{}, Skipped: []string{}}
	f.mu.Lock()
	for _, id := range req.IDs {
		result.Processed = append(result.Processed, id)
		f.drop(id)
	}
	f.mu.Unlock()
	writeJSON(w, http.StatusOK, models.Envelope{Success: true, Data: result})
}

func (f *fakeAPI) reassign(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	f.mu.Lock()
	f.drop(id)
	f.mu.Unlock()
	writeJSON(w, http.StatusOK, models.Envelope{Success: true, Data: models.ReassignResult{
		ID: id, Status: models.StatusCompleted, ProfileID: "profile-new",
	}})
}

func (f *fakeAPI) export(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusCreated, models.Envelope{Success: true, Message: "Export logged"})
}

func (f *fakeAPI) me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.Envelope{Success: true, Data: models.Staff{
		ID: r.Header.Get("X-Staff-ID"), Name: "Reviewer", Role: models.RoleReviewer,
	}})
}

type notice struct {
	Level   Level
	Title   string
	Message string
}

type recordingNotifier struct {
	mu      sync.Mutex
	notices []notice
}

func (n *recordingNotifier) Notify(level Level, title, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, notice{Level: level, Title: title, Message: message})
}

func (n *recordingNotifier) last() notice {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.notices) == 0 {
		return notice{}
	}
	return n.notices[len(n.notices)-1]
}

func (n *recordingNotifier) levels() []Level {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]Level, 0, len(n.notices))
	for _, x := range n.notices {
		out = append(out, x.Level)
	}
	return out
}

func pendingItem(id, last string, score float64, submitted time.Time) models.ValidationQueueItem {
	return models.ValidationQueueItem{
		ID:              id,
		FirstName:       "Youth",
		LastName:        last,
		Age:             20,
		Barangay:        "Poblacion",
		SubmittedAt:     submitted,
		Status:          models.StatusPending,
		VoterMatch:      models.VoterMatchPartial,
		ValidationScore: score,
		BatchID:         "batch-1",
		BatchName:       "Batch 1",
	}
}

func withMismatch(item models.ValidationQueueItem) models.ValidationQueueItem {
	item.ContactMismatch = &models.ContactMismatch{
		Type:     models.MismatchContact,
		Severity: models.SeverityLow,
		Existing: models.ContactInfo{Contact: "09170000000"},
		New:      models.ContactInfo{Contact: "09171234567"},
	}
	return item
}
