package api

import (
	"encoding/json"
	"net/http"
	"os"
	"runtime"

	"tracksmith/pkg/tracker"
)

// StatsHandler reports pipeline counters and process diagnostics.
type StatsHandler struct {
	tracker *tracker.Tracker
}

func NewStatsHandler(t *tracker.Tracker) *StatsHandler {
	return &StatsHandler{tracker: t}
}

type StageStatsDTO struct {
	PointsIn            int64 `json:"points_in"`
	PointsSkipped       int64 `json:"points_skipped"`
	TrajectoriesOut     int64 `json:"trajectories_out"`
	TrajectoriesDropped int64 `json:"trajectories_dropped"`
}

type DiagnosticsDTO struct {
	PID        int    `json:"pid"`
	Goroutines int    `json:"goroutines"`
	HeapMB     uint64 `json:"heap_mb"`
}

type StatsResponse struct {
	Diagnostics DiagnosticsDTO           `json:"diagnostics"`
	Stages      map[string]StageStatsDTO `json:"stages"`
}

func (h *StatsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	snapshot := h.tracker.Snapshot()

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	resp := StatsResponse{
		Diagnostics: DiagnosticsDTO{
			PID:        os.Getpid(),
			Goroutines: runtime.NumGoroutine(),
			HeapMB:     mem.HeapAlloc / (1 << 20),
		},
		Stages: make(map[string]StageStatsDTO),
	}
	for stage, stats := range snapshot {
		resp.Stages[stage] = StageStatsDTO{
			PointsIn:            stats.PointsIn,
			PointsSkipped:       stats.PointsSkipped,
			TrajectoriesOut:     stats.TrajectoriesOut,
			TrajectoriesDropped: stats.TrajectoriesDropped,
		}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}
