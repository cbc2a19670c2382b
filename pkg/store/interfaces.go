package store

import (
	"context"
	"time"

	"tracksmith/pkg/model"
)

// Run records one assembly pass over an input source.
type Run struct {
	ID                    string    `json:"id"`
	Source                string    `json:"source"`
	StartedAt             time.Time `json:"started_at"`
	FinishedAt            time.Time `json:"finished_at,omitempty"`
	PointsProcessed       int64     `json:"points_processed"`
	TrajectoriesEmitted   int64     `json:"trajectories_emitted"`
	TrajectoriesDiscarded int64     `json:"trajectories_discarded"`
}

// TrajectorySummary is the list-view row for a stored trajectory.
type TrajectorySummary struct {
	ID          int64     `json:"id"`
	RunID       string    `json:"run_id"`
	ObjectID    string    `json:"object_id"`
	PointCount  int       `json:"point_count"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
	PathLengthM float64   `json:"path_length_m"`
}

// RunStore handles run bookkeeping.
type RunStore interface {
	CreateRun(ctx context.Context, source string) (*Run, error)
	FinishRun(ctx context.Context, run *Run) error
	GetRun(ctx context.Context, id string) (*Run, error)
	ListRuns(ctx context.Context) ([]*Run, error)
}

// TrajectoryStore handles trajectory persistence.
type TrajectoryStore interface {
	SaveTrajectory(ctx context.Context, runID string, t *model.Trajectory[model.TerrestrialPoint]) (int64, error)
	ListTrajectories(ctx context.Context, runID string) ([]TrajectorySummary, error)
	GetTrajectory(ctx context.Context, id int64) (*model.Trajectory[model.TerrestrialPoint], error)
}
