package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"media-converter/internal/database"
)

// ListJobs returns recent conversion jobs, newest first. The optional
// "limit" query parameter caps the page size.
func (h *Handlers) ListJobs(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			writeJSONError(w, "invalid limit parameter", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	jobs, err := h.db.ListJobs(r.Context(), limit)
	if err != nil {
		writeJSONError(w, "failed to list jobs", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]interface{}{
		"jobs":  jobs,
		"count": len(jobs),
	})
}

// GetJob returns a single recorded job by ID.
func (h *Handlers) GetJob(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	job, err := h.db.GetJob(r.Context(), id)
	if errors.Is(err, database.ErrJobNotFound) {
		writeJSONError(w, "job not found", http.StatusNotFound)
		return
	}
	if err != nil {
		writeJSONError(w, "failed to get job", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, job)
}

// GetStats returns aggregate conversion statistics.
func (h *Handlers) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.db.GetStats(r.Context())
	if err != nil {
		writeJSONError(w, "failed to get stats", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, stats)
}
