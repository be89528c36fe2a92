package api

import (
	"github.com/gorilla/mux"

	"media-converter/internal/converter"
	"media-converter/internal/database"
	"media-converter/internal/startup"
)

// Handlers carries the dependencies shared by all HTTP handlers.
type Handlers struct {
	db             *database.Database
	registry       *converter.Registry
	maxUploadBytes int64
}

// New creates the handler set.
func New(db *database.Database, registry *converter.Registry, config *startup.Config) *Handlers {
	return &Handlers{
		db:             db,
		registry:       registry,
		maxUploadBytes: config.MaxUploadBytes,
	}
}

// Router builds the service router with all routes registered.
func (h *Handlers) Router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/health", h.HealthCheck).Methods("GET")
	r.HandleFunc("/healthz", h.HealthCheck).Methods("GET")
	r.HandleFunc("/livez", h.LivenessCheck).Methods("GET", "HEAD")
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods("GET")
	r.HandleFunc("/version", h.GetVersion).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/convert", h.Convert).Methods("POST")
	api.HandleFunc("/capabilities", h.GetCapabilities).Methods("GET")
	api.HandleFunc("/jobs", h.ListJobs).Methods("GET")
	api.HandleFunc("/jobs/{id}", h.GetJob).Methods("GET")
	api.HandleFunc("/stats", h.GetStats).Methods("GET")

	return r
}
