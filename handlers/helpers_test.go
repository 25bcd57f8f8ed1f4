// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"net/http/httptest"
	"testing"

	"github.com/danielhkuo/youthgov-queue/cliparse"
	"github.com/danielhkuo/youthgov-queue/models"
	"github.com/danielhkuo/youthgov-queue/testutil"
)

type testEnv struct {
	db      *sql.DB
	cfg     cliparse.Config
	staffID string
	headers map[string]string
	batchID string
}

// newTestEnv opens a fresh database with one reviewer and one batch
func newTestEnv(t *testing.T) testEnv {
	t.Helper()

	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { db.Close() })

	cfg := testutil.GetTestConfig()
	staffID, staffKey := testutil.CreateTestStaff(t, db, cfg, models.RoleReviewer)

	return testEnv{
		db:      db,
		cfg:     cfg,
		staffID: staffID,
		headers: testutil.StaffHeaders(staffID, staffKey),
		batchID: testutil.CreateTestBatch(t, db, "Batch 2025-A"),
	}
}

// envelope decodes the success envelope with a typed data field
type envelope[T any] struct {
	Success    bool               `json:"success"`
	Message    string             `json:"message"`
	Data       T                  `json:"data"`
	Pagination *models.Pagination `json:"pagination"`
}

func decodeEnvelope[T any](t *testing.T, w *httptest.ResponseRecorder) envelope[T] {
	t.Helper()
	var resp envelope[T]
	testutil.AssertJSON(t, w, &resp)
	return resp
}
