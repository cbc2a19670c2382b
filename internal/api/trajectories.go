package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"tracksmith/pkg/analysis"
	"tracksmith/pkg/model"
	"tracksmith/pkg/store"
	"tracksmith/pkg/writer"
)

// TrajectoryHandler exposes stored trajectories.
type TrajectoryHandler struct {
	store store.TrajectoryStore
}

// NewTrajectoryHandler creates a new trajectory handler.
func NewTrajectoryHandler(st store.TrajectoryStore) *TrajectoryHandler {
	return &TrajectoryHandler{store: st}
}

// HandleList handles GET /api/runs/{id}/trajectories.
func (h *TrajectoryHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	runID := r.PathValue("id")
	list, err := h.store.ListTrajectories(r.Context(), runID)
	if err != nil {
		slog.Error("Failed to list trajectories", "run", runID, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if list == nil {
		list = []store.TrajectorySummary{}
	}
	writeJSON(w, list)
}

// HandleGet handles GET /api/trajectories/{id}.
// The trajectory is returned as a GeoJSON feature collection.
func (h *TrajectoryHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid trajectory id", http.StatusBadRequest)
		return
	}

	traj, err := h.store.GetTrajectory(r.Context(), id)
	if err != nil {
		slog.Error("Failed to get trajectory", "id", id, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if traj == nil {
		http.Error(w, "trajectory not found", http.StatusNotFound)
		return
	}

	fc := writer.FeatureCollection([]*model.Trajectory[model.TerrestrialPoint]{traj})
	w.Header().Set("Content-Type", "application/geo+json")
	if err := json.NewEncoder(w).Encode(fc); err != nil {
		slog.Error("Failed to encode trajectory", "id", id, "error", err)
	}
}

// HandleSummary handles GET /api/trajectories/{id}/summary.
func (h *TrajectoryHandler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid trajectory id", http.StatusBadRequest)
		return
	}

	traj, err := h.store.GetTrajectory(r.Context(), id)
	if err != nil {
		slog.Error("Failed to get trajectory", "id", id, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if traj == nil {
		http.Error(w, "trajectory not found", http.StatusNotFound)
		return
	}

	writeJSON(w, analysis.Summarize(traj))
}
