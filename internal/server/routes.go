package server

import (
	"net/http"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// API routes - Outlooks
	mux.HandleFunc("/api/outlook", s.app.OutlookHandler.ListHandler)           // GET - all horizons
	mux.HandleFunc("/api/outlook/history", s.app.OutlookHandler.HistoryHandler) // GET - revision audit log
	mux.HandleFunc("/api/outlook/", s.app.OutlookHandler.HorizonHandler)       // GET/PUT /{horizon}

	// API routes - Signals and technicals
	mux.HandleFunc("/api/signals", s.app.SignalsHandler.GetHandler)       // GET ?force=
	mux.HandleFunc("/api/technicals", s.app.TechnicalsHandler.GetHandler) // GET ?tickers=&force=

	// API routes - Ingest and maintenance
	mux.HandleFunc("/api/content", s.app.ContentHandler.IngestHandler) // POST - analyze + revise
	mux.HandleFunc("/api/repair", s.app.RepairHandler.RunHandler)      // POST - consistency pass

	// API routes - System
	mux.HandleFunc("/api/version", s.app.APIHandler.VersionHandler)
	mux.HandleFunc("/api/health", s.app.APIHandler.HealthHandler)

	// 404 handler for unmatched API routes
	mux.HandleFunc("/api/", s.app.APIHandler.NotFoundHandler)

	return mux
}
