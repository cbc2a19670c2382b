package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/paulmach/orb"

	"tracksmith/pkg/db"
	"tracksmith/pkg/geom"
	"tracksmith/pkg/model"
)

// Store defines the repository interface.
// It composes all sub-interfaces for full store access.
// Consumers should depend on specific sub-interfaces when possible.
type Store interface {
	RunStore
	TrajectoryStore

	// Close closes the store connection.
	Close() error
}

// SQLiteStore implements Store.
type SQLiteStore struct {
	db *db.DB
}

// NewSQLiteStore creates a new store.
func NewSQLiteStore(db *db.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// --- Runs ---

func (s *SQLiteStore) CreateRun(ctx context.Context, source string) (*Run, error) {
	run := &Run{
		ID:        uuid.NewString(),
		Source:    source,
		StartedAt: time.Now().UTC(),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, source, started_at) VALUES (?, ?, ?)`,
		run.ID, run.Source, run.StartedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}
	return run, nil
}

func (s *SQLiteStore) FinishRun(ctx context.Context, run *Run) error {
	if run.FinishedAt.IsZero() {
		run.FinishedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE runs SET finished_at = ?, points_processed = ?, trajectories_emitted = ?, trajectories_discarded = ?
		 WHERE id = ?`,
		run.FinishedAt, run.PointsProcessed, run.TrajectoriesEmitted, run.TrajectoriesDiscarded, run.ID)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, source, started_at, finished_at, points_processed, trajectories_emitted, trajectories_discarded
		 FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, err
	}
	return run, nil
}

func (s *SQLiteStore) ListRuns(ctx context.Context) ([]*Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source, started_at, finished_at, points_processed, trajectories_emitted, trajectories_discarded
		 FROM runs ORDER BY started_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var r Run
	var finished sql.NullTime
	err := row.Scan(&r.ID, &r.Source, &r.StartedAt, &finished,
		&r.PointsProcessed, &r.TrajectoriesEmitted, &r.TrajectoriesDiscarded)
	if err != nil {
		return nil, err
	}
	if finished.Valid {
		r.FinishedAt = finished.Time
	}
	return &r, nil
}

// --- Trajectories ---

func (s *SQLiteStore) SaveTrajectory(ctx context.Context, runID string, t *model.Trajectory[model.TerrestrialPoint]) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after Commit

	res, err := tx.ExecContext(ctx,
		`INSERT INTO trajectories (run_id, object_id, point_count, started_at, finished_at, path_length_m)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		runID, t.ObjectID, t.Len(), t.Start().UTC(), t.End().UTC(), geom.PathLength(geom.LineStringOf(t)))
	if err != nil {
		return 0, fmt.Errorf("failed to insert trajectory: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO trajectory_points (trajectory_id, seq, at, lon, lat, properties) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	for i, p := range t.Points {
		var props any
		if len(p.Props) > 0 {
			b, err := json.Marshal(p.Props)
			if err != nil {
				return 0, fmt.Errorf("failed to encode properties: %w", err)
			}
			props = string(b)
		}
		if _, err := stmt.ExecContext(ctx, id, i, p.At.UTC(), p.Coord[0], p.Coord[1], props); err != nil {
			return 0, fmt.Errorf("failed to insert point %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit trajectory: %w", err)
	}
	return id, nil
}

func (s *SQLiteStore) ListTrajectories(ctx context.Context, runID string) ([]TrajectorySummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, run_id, object_id, point_count, started_at, finished_at, path_length_m
		 FROM trajectories WHERE run_id = ? ORDER BY started_at, object_id`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TrajectorySummary
	for rows.Next() {
		var ts TrajectorySummary
		var length sql.NullFloat64
		if err := rows.Scan(&ts.ID, &ts.RunID, &ts.ObjectID, &ts.PointCount,
			&ts.StartedAt, &ts.FinishedAt, &length); err != nil {
			return nil, err
		}
		if length.Valid {
			ts.PathLengthM = length.Float64
		}
		out = append(out, ts)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) GetTrajectory(ctx context.Context, id int64) (*model.Trajectory[model.TerrestrialPoint], error) {
	var objectID string
	err := s.db.QueryRowContext(ctx,
		`SELECT object_id FROM trajectories WHERE id = ?`, id).Scan(&objectID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT at, lon, lat, properties FROM trajectory_points WHERE trajectory_id = ? ORDER BY seq`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var t *model.Trajectory[model.TerrestrialPoint]
	for rows.Next() {
		var at time.Time
		var lon, lat float64
		var props sql.NullString
		if err := rows.Scan(&at, &lon, &lat, &props); err != nil {
			return nil, err
		}
		p := model.TerrestrialPoint{ID: objectID, At: at, Coord: orb.Point{lon, lat}}
		if props.Valid && props.String != "" {
			if err := json.Unmarshal([]byte(props.String), &p.Props); err != nil {
				return nil, fmt.Errorf("failed to decode properties: %w", err)
			}
		}
		if t == nil {
			t = model.NewTrajectory(p)
		} else {
			t.Append(p)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if t == nil {
		return nil, fmt.Errorf("trajectory %d has no points", id)
	}
	return t, nil
}
