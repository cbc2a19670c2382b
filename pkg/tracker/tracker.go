// Package tracker accumulates pipeline counters for the end-of-run report.
package tracker

import (
	"sync"
	"sync/atomic"
)

// Tracker tracks throughput statistics per pipeline stage.
type Tracker struct {
	mu    sync.RWMutex
	stats map[string]*StageStats
}

// StageStats holds counters for one pipeline stage.
// Fields are accessed atomically.
type StageStats struct {
	PointsIn            int64
	PointsSkipped       int64
	TrajectoriesOut     int64
	TrajectoriesDropped int64
}

// New creates a new Tracker.
func New() *Tracker {
	return &Tracker{
		stats: make(map[string]*StageStats),
	}
}

// getStats returns the stats object for a stage, creating it if needed.
func (t *Tracker) getStats(stage string) *StageStats {
	t.mu.RLock()
	s, ok := t.stats[stage]
	t.mu.RUnlock()
	if ok {
		return s
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	// Double check
	if s, ok = t.stats[stage]; ok {
		return s
	}
	s = &StageStats{}
	t.stats[stage] = s
	return s
}

// TrackPointsIn adds consumed points to a stage's counter.
func (t *Tracker) TrackPointsIn(stage string, n int64) {
	atomic.AddInt64(&t.getStats(stage).PointsIn, n)
}

// TrackPointsSkipped adds skipped (malformed) input lines.
func (t *Tracker) TrackPointsSkipped(stage string, n int64) {
	atomic.AddInt64(&t.getStats(stage).PointsSkipped, n)
}

// TrackTrajectoriesOut adds produced trajectories.
func (t *Tracker) TrackTrajectoriesOut(stage string, n int64) {
	atomic.AddInt64(&t.getStats(stage).TrajectoriesOut, n)
}

// TrackTrajectoriesDropped adds trajectories discarded below the minimum
// length.
func (t *Tracker) TrackTrajectoriesDropped(stage string, n int64) {
	atomic.AddInt64(&t.getStats(stage).TrajectoriesDropped, n)
}

// Snapshot returns a copy of the current stats.
func (t *Tracker) Snapshot() map[string]StageStats {
	t.mu.RLock()
	defer t.mu.RUnlock()

	result := make(map[string]StageStats)
	for k, v := range t.stats {
		result[k] = StageStats{
			PointsIn:            atomic.LoadInt64(&v.PointsIn),
			PointsSkipped:       atomic.LoadInt64(&v.PointsSkipped),
			TrajectoriesOut:     atomic.LoadInt64(&v.TrajectoriesOut),
			TrajectoriesDropped: atomic.LoadInt64(&v.TrajectoriesDropped),
		}
	}
	return result
}
