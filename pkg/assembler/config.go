package assembler

import (
	"errors"
	"time"

	"tracksmith/pkg/model"
)

// Defaults mirror the CLI flags of the assemble tool.
const (
	DefaultSeparationDistance = 100.0
	DefaultSeparationTime     = 1200 * time.Second
	DefaultMinPoints          = 10
	DefaultCleanupInterval    = 10000
)

// Config controls how a point stream is stitched into trajectories.
// All thresholds must be positive and Metric must be set; Validate rejects
// bad configurations before any stream consumption begins.
type Config[P model.Point] struct {
	// SeparationDistance is the maximum spatial gap, in the metric's native
	// units, between consecutive points of one object before a new
	// trajectory must begin.
	SeparationDistance float64

	// SeparationTime is the maximum temporal gap between consecutive points
	// of one object before a new trajectory must begin.
	SeparationTime time.Duration

	// MinPoints is the minimum point count for a closed trajectory to be
	// emitted rather than discarded.
	MinPoints int

	// CleanupInterval is the number of consumed points between idle-cleanup
	// sweeps of the track table.
	CleanupInterval int

	// Metric computes the distance between two points of the same
	// coordinate system.
	Metric func(a, b P) float64
}

// DefaultConfig returns a Config with default thresholds and the given
// distance metric.
func DefaultConfig[P model.Point](metric func(a, b P) float64) Config[P] {
	return Config[P]{
		SeparationDistance: DefaultSeparationDistance,
		SeparationTime:     DefaultSeparationTime,
		MinPoints:          DefaultMinPoints,
		CleanupInterval:    DefaultCleanupInterval,
		Metric:             metric,
	}
}

var (
	ErrNoMetric           = errors.New("assembler: distance metric is required")
	ErrBadSeparation      = errors.New("assembler: separation distance and time must be positive")
	ErrBadMinPoints       = errors.New("assembler: minimum trajectory length must be at least 1")
	ErrBadCleanupInterval = errors.New("assembler: cleanup interval must be at least 1")
)

// Validate checks the configuration. It fails fast with a descriptive error
// rather than silently clamping values.
func (c Config[P]) Validate() error {
	if c.Metric == nil {
		return ErrNoMetric
	}
	if c.SeparationDistance <= 0 || c.SeparationTime <= 0 {
		return ErrBadSeparation
	}
	if c.MinPoints < 1 {
		return ErrBadMinPoints
	}
	if c.CleanupInterval < 1 {
		return ErrBadCleanupInterval
	}
	return nil
}
