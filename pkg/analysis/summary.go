// Package analysis derives per-trajectory motion statistics from assembled
// trajectories.
package analysis

import (
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"tracksmith/pkg/geom"
	"tracksmith/pkg/model"
)

// Summary describes the motion of one trajectory.
type Summary struct {
	ObjectID    string        `json:"object_id"`
	PointCount  int           `json:"point_count"`
	Duration    time.Duration `json:"duration"`
	PathLengthM float64       `json:"path_length_m"`

	// Speeds in meters per second, derived from consecutive segments.
	AvgSpeedMps  float64 `json:"avg_speed_mps"`
	PeakSpeedMps float64 `json:"peak_speed_mps"`
	SpeedP50Mps  float64 `json:"speed_p50_mps"`
	SpeedP95Mps  float64 `json:"speed_p95_mps"`

	// MaxTurnDeg is the largest absolute heading change at any interior
	// point, in degrees.
	MaxTurnDeg float64 `json:"max_turn_deg"`
}

// Summarize computes a Summary for a terrestrial trajectory. A single-point
// trajectory yields zero speeds and length.
func Summarize(t *model.Trajectory[model.TerrestrialPoint]) Summary {
	s := Summary{
		ObjectID:   t.ObjectID,
		PointCount: t.Len(),
		Duration:   t.Duration(),
	}

	var speeds []float64
	for i := 1; i < t.Len(); i++ {
		q, p := t.Points[i-1], t.Points[i]
		d := geom.Distance(q.Coord, p.Coord)
		s.PathLengthM += d

		if dt := p.Time().Sub(q.Time()).Seconds(); dt > 0 {
			v := d / dt
			speeds = append(speeds, v)
			if v > s.PeakSpeedMps {
				s.PeakSpeedMps = v
			}
		}
	}
	for i := 1; i < t.Len()-1; i++ {
		turn := geom.TurnAngle(t.Points[i-1].Coord, t.Points[i].Coord, t.Points[i+1].Coord)
		if turn < 0 {
			turn = -turn
		}
		if turn > s.MaxTurnDeg {
			s.MaxTurnDeg = turn
		}
	}

	if secs := s.Duration.Seconds(); secs > 0 {
		s.AvgSpeedMps = s.PathLengthM / secs
	}
	if len(speeds) > 0 {
		sort.Float64s(speeds)
		s.SpeedP50Mps = stat.Quantile(0.50, stat.Empirical, speeds, nil)
		s.SpeedP95Mps = stat.Quantile(0.95, stat.Empirical, speeds, nil)
	}
	return s
}

// SummarizeAll computes summaries for a batch of trajectories.
func SummarizeAll(trajs []*model.Trajectory[model.TerrestrialPoint]) []Summary {
	out := make([]Summary, 0, len(trajs))
	for _, t := range trajs {
		out = append(out, Summarize(t))
	}
	return out
}
