package api

import (
	"log/slog"
	"net/http"

	"tracksmith/pkg/store"
)

// RunHandler exposes stored runs.
type RunHandler struct {
	store store.RunStore
}

// NewRunHandler creates a new run handler.
func NewRunHandler(st store.RunStore) *RunHandler {
	return &RunHandler{store: st}
}

// HandleList handles GET /api/runs.
func (h *RunHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	runs, err := h.store.ListRuns(r.Context())
	if err != nil {
		slog.Error("Failed to list runs", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if runs == nil {
		runs = []*store.Run{}
	}
	writeJSON(w, runs)
}

// HandleGet handles GET /api/runs/{id}.
func (h *RunHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	run, err := h.store.GetRun(r.Context(), id)
	if err != nil {
		slog.Error("Failed to get run", "id", id, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if run == nil {
		http.Error(w, "run not found", http.StatusNotFound)
		return
	}
	writeJSON(w, run)
}
