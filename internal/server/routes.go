package server

import (
	"net/http"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// API routes - System
	mux.HandleFunc("/api/health", s.app.APIHandler.HealthHandler)   // GET
	mux.HandleFunc("/api/version", s.app.APIHandler.VersionHandler) // GET

	// API routes - Ingestion runs
	mux.HandleFunc("/api/runs", s.app.RunsHandler.ListRunsHandler)    // GET ?domain=&limit=
	mux.HandleFunc("/api/runs/", s.app.RunsHandler.TriggerRunHandler) // POST /{domain}

	// API routes - Stored data
	mux.HandleFunc("/api/news", s.app.MarketHandler.NewsHandler)           // GET ?symbol=&limit=
	mux.HandleFunc("/api/snapshots/", s.app.MarketHandler.SnapshotHandler) // GET /{symbol}?date=
	mux.HandleFunc("/api/options/", s.app.MarketHandler.OptionsHandler)    // GET /{underlying}

	// 404 handler for unmatched API routes
	mux.HandleFunc("/", s.app.APIHandler.NotFoundHandler)

	return mux
}
