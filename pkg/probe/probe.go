// Package probe runs startup health checks and gates launch on the
// critical ones.
package probe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

const checkTimeout = 5 * time.Second

// Probe is a single startup check. A failed critical probe aborts startup;
// failures of non-critical probes are only logged.
type Probe struct {
	Name     string
	Check    func(ctx context.Context) error
	Critical bool
}

// Result is the outcome of one probe.
type Result struct {
	Name     string
	Critical bool
	Err      error
	Elapsed  time.Duration
}

// Run executes the probes in order, each under its own timeout.
func Run(ctx context.Context, probes []Probe) []Result {
	results := make([]Result, len(probes))
	for i, p := range probes {
		start := time.Now()

		checkCtx, cancel := context.WithTimeout(ctx, checkTimeout)
		err := p.Check(checkCtx)
		cancel()

		results[i] = Result{
			Name:     p.Name,
			Critical: p.Critical,
			Err:      err,
			Elapsed:  time.Since(start),
		}
	}
	return results
}

// Analyze logs each result and returns the joined errors of failed
// critical probes, or nil when startup may proceed.
func Analyze(results []Result) error {
	var critical []error

	slog.Info("Startup Checks Summary")
	for _, r := range results {
		if r.Err == nil {
			slog.Info(fmt.Sprintf("[PASS] %-20s (%v)", r.Name, r.Elapsed.Round(time.Millisecond)))
			continue
		}
		slog.Error(fmt.Sprintf("[FAIL] %-20s (%v)", r.Name, r.Elapsed.Round(time.Millisecond)), "error", r.Err)
		if r.Critical {
			critical = append(critical, fmt.Errorf("%s: %w", r.Name, r.Err))
		}
	}

	return errors.Join(critical...)
}
