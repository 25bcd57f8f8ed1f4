// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"database/sql"
	"net/http"

	"github.com/danielhkuo/youthgov-queue/cliparse"
	"github.com/danielhkuo/youthgov-queue/handlers"
	"github.com/danielhkuo/youthgov-queue/middleware"
)

func NewRouter(db *sql.DB, cfg cliparse.Config) *http.ServeMux {
	mux := http.NewServeMux()

	// Initialize handlers
	queueHandler := handlers.NewQueueHandler(db, cfg)
	reviewHandler := handlers.NewReviewHandler(db, cfg)
	exportHandler := handlers.NewExportHandler(db, cfg)
	staffHandler := handlers.NewStaffHandler(db, cfg)
	voterHandler := handlers.NewVoterHandler(db, cfg)

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Queue reads (staff)
	mux.HandleFunc("GET /validation-queue", middleware.WithLogging(queueHandler.List))
	mux.HandleFunc("GET /validation-queue/stats", middleware.WithLogging(queueHandler.Stats))
	mux.HandleFunc("GET /validation-queue/completed-today", middleware.WithLogging(queueHandler.CompletedToday))
	mux.HandleFunc("GET /validation-queue/{id}", middleware.WithLogging(queueHandler.Get))

	// Survey intake (public)
	mux.HandleFunc("POST /validation-queue", middleware.WithLogging(queueHandler.Intake))

	// Review actions (staff)
	mux.HandleFunc("PATCH /validation-queue/{id}/validate", middleware.WithLogging(reviewHandler.Validate))
	mux.HandleFunc("PATCH /validation-queue/bulk-validate", middleware.WithLogging(reviewHandler.BulkValidate))
	mux.HandleFunc("POST /validation-queue/{id}/reassign", middleware.WithLogging(reviewHandler.Reassign))

	// Export activity logging (staff)
	mux.HandleFunc("GET /validation-queue/export", middleware.WithLogging(exportHandler.ExportHistory))
	mux.HandleFunc("POST /validation-queue/export", middleware.WithLogging(exportHandler.LogExport))

	// Staff and voter registry
	mux.HandleFunc("POST /staff", middleware.WithLogging(staffHandler.CreateStaff))
	mux.HandleFunc("GET /staff/me", middleware.WithLogging(staffHandler.Me))
	mux.HandleFunc("POST /voters", middleware.WithLogging(voterHandler.ImportVoters))

	// Root endpoint
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("youthgov-queue API v1"))
	})

	return mux
}
