package maintenance

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"tracksmith/pkg/db"
)

// DefaultRetention is how long finished runs are kept before pruning.
const DefaultRetention = 90 * 24 * time.Hour

// Run executes all maintenance tasks: pruning old runs and compacting the
// database file. It blocks until completion.
func Run(ctx context.Context, d *db.DB, retention time.Duration) error {
	slog.Info("Starting database maintenance...")

	if retention <= 0 {
		retention = DefaultRetention
	}

	if err := d.PruneRuns(retention); err != nil {
		slog.Error("Run pruning failed", "error", err)
		return fmt.Errorf("failed to prune runs: %w", err)
	}
	slog.Info("Run pruning completed", "retention", retention)

	// Reclaim the space freed by pruning.
	if _, err := d.ExecContext(ctx, "VACUUM"); err != nil {
		slog.Error("Vacuum failed", "error", err)
		return fmt.Errorf("failed to vacuum: %w", err)
	}

	return nil
}
