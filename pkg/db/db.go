package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Register driver
)

// DB wraps the sql.DB connection.
type DB struct {
	*sql.DB
}

// Init opens the database and runs migrations.
func Init(path string) (*DB, error) {
	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping db: %w", err)
	}

	// Enable WAL mode for better concurrency and set busy timeout
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=30000;"); err != nil {
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	d := &DB{db}
	// Enforce single connection to avoid SQLITE_BUSY errors during concurrent writes
	db.SetMaxOpenConns(1)

	if err := d.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return d, nil
}

// PruneRuns removes runs, and their trajectories, older than the specified duration.
func (d *DB) PruneRuns(olderThan time.Duration) error {
	// Format time compatible with SQLite DEFAULT CURRENT_TIMESTAMP (YYYY-MM-DD HH:MM:SS)
	deadline := time.Now().Add(-olderThan).UTC().Format("2006-01-02 15:04:05")
	if _, err := d.Exec(`DELETE FROM trajectory_points WHERE trajectory_id IN
		(SELECT t.id FROM trajectories t JOIN runs r ON t.run_id = r.id WHERE r.created_at < ?)`, deadline); err != nil {
		return err
	}
	if _, err := d.Exec(`DELETE FROM trajectories WHERE run_id IN
		(SELECT id FROM runs WHERE created_at < ?)`, deadline); err != nil {
		return err
	}
	_, err := d.Exec("DELETE FROM runs WHERE created_at < ?", deadline)
	return err
}

func (d *DB) migrate() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			source TEXT,
			started_at DATETIME,
			finished_at DATETIME,
			points_processed INTEGER DEFAULT 0,
			trajectories_emitted INTEGER DEFAULT 0,
			trajectories_discarded INTEGER DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE TABLE IF NOT EXISTS trajectories (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL,
			object_id TEXT NOT NULL,
			point_count INTEGER,
			started_at DATETIME,
			finished_at DATETIME,
			path_length_m REAL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE INDEX IF NOT EXISTS idx_trajectories_run ON trajectories(run_id);`,
		`CREATE TABLE IF NOT EXISTS trajectory_points (
			trajectory_id INTEGER NOT NULL,
			seq INTEGER NOT NULL,
			at DATETIME NOT NULL,
			lon REAL NOT NULL,
			lat REAL NOT NULL,
			properties TEXT,
			PRIMARY KEY (trajectory_id, seq)
		);`,
	}

	for _, q := range queries {
		if _, err := d.Exec(q); err != nil {
			return fmt.Errorf("exec error: %w query: %s", err, q)
		}
	}

	// Migration: add path_length_m if missing
	var colCount int
	err := d.QueryRow("SELECT count(*) FROM pragma_table_info('trajectories') WHERE name='path_length_m'").Scan(&colCount)
	if err == nil && colCount == 0 {
		if _, err := d.Exec("ALTER TABLE trajectories ADD COLUMN path_length_m REAL"); err != nil {
			return fmt.Errorf("failed to add path_length_m column: %w", err)
		}
	}

	return nil
}
