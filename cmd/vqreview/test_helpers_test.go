// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package main

import (
	"bytes"
	"database/sql"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/danielhkuo/youthgov-queue/cliparse"
	"github.com/danielhkuo/youthgov-queue/models"
	"github.com/danielhkuo/youthgov-queue/router"
	"github.com/danielhkuo/youthgov-queue/testutil"
)

// cliTestEnv runs the real API over an in-memory database
type cliTestEnv struct {
	db       *sql.DB
	cfg      cliparse.Config
	server   *httptest.Server
	staffID  string
	staffKey string
	batchID  string
}

// isolateConfig keeps the developer's own config and VQ_* variables out of
// the test
func isolateConfig(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())
	for _, key := range []string{"VQ_BASE_URL", "VQ_STAFF_ID", "VQ_STAFF_KEY", "VQ_TIMEOUT_SECONDS", "VQ_LOG_FORMAT"} {
		t.Setenv(key, "")
	}
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()
	isolateConfig(t)

	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { db.Close() })

	cfg := testutil.GetTestConfig()
	server := httptest.NewServer(router.NewRouter(db, cfg))
	t.Cleanup(server.Close)

	staffID, staffKey := testutil.CreateTestStaff(t, db, cfg, models.RoleReviewer)

	return &cliTestEnv{
		db:       db,
		cfg:      cfg,
		server:   server,
		staffID:  staffID,
		staffKey: staffKey,
		batchID:  testutil.CreateTestBatch(t, db, "Batch 1"),
	}
}

// run executes vqreview against the test server with stdin as input
func (e *cliTestEnv) run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	flags := []string{"--base-url", e.server.URL, "--staff-id", e.staffID, "--staff-key", e.staffKey}
	return runCLI(t, stdin, append(flags, args...)...)
}

func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String() + stderr.String(), err
}

func (e *cliTestEnv) item(t *testing.T, opts testutil.QueueItemOptions) string {
	t.Helper()
	return testutil.CreateTestQueueItem(t, e.db, e.batchID, opts)
}

func (e *cliTestEnv) activityCount(t *testing.T, action string) int {
	t.Helper()
	var n int
	if err := e.db.QueryRow(`SELECT COUNT(*) FROM activity_log WHERE action = $1`, action).Scan(&n); err != nil {
		t.Fatalf("count activity: %v", err)
	}
	return n
}

func requireContains(t *testing.T, output, want string) {
	t.Helper()
	if !strings.Contains(output, want) {
		t.Fatalf("expected output to contain %q\noutput:\n%s", want, output)
	}
}

func requireNotContains(t *testing.T, output, unwanted string) {
	t.Helper()
	if strings.Contains(output, unwanted) {
		t.Fatalf("expected output not to contain %q\noutput:\n%s", unwanted, output)
	}
}

func requireStatus(t *testing.T, e *cliTestEnv, id, want string) {
	t.Helper()
	if got := testutil.QueueStatus(t, e.db, id); got != want {
		t.Fatalf("item %s status = %q, want %q", id, got, want)
	}
}
