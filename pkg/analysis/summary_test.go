package analysis

import (
	"math"
	"testing"
	"time"

	"github.com/paulmach/orb"

	"tracksmith/pkg/model"
)

func trajNorthbound(points int, stepSeconds int) *model.Trajectory[model.TerrestrialPoint] {
	base := time.Date(2020, 5, 1, 12, 0, 0, 0, time.UTC)
	t := model.NewTrajectory(model.TerrestrialPoint{
		ID: "bus-7", At: base, Coord: orb.Point{13.4, 52.5},
	})
	for i := 1; i < points; i++ {
		t.Append(model.TerrestrialPoint{
			ID:    "bus-7",
			At:    base.Add(time.Duration(i*stepSeconds) * time.Second),
			Coord: orb.Point{13.4, 52.5 + float64(i)*0.001},
		})
	}
	return t
}

func TestSummarizeConstantSpeed(t *testing.T) {
	// 0.001 degrees of latitude is about 111 m; 10 s steps give ~11 m/s.
	tr := trajNorthbound(11, 10)
	s := Summarize(tr)

	if s.ObjectID != "bus-7" || s.PointCount != 11 {
		t.Fatalf("unexpected identity %+v", s)
	}
	if s.Duration != 100*time.Second {
		t.Errorf("Duration = %v, want 100s", s.Duration)
	}
	if math.Abs(s.PathLengthM-1110) > 20 {
		t.Errorf("PathLengthM = %v, want approx 1110", s.PathLengthM)
	}
	if math.Abs(s.AvgSpeedMps-11.1) > 0.3 {
		t.Errorf("AvgSpeedMps = %v, want approx 11.1", s.AvgSpeedMps)
	}
	// Constant speed: percentiles and peak coincide with the average.
	if math.Abs(s.PeakSpeedMps-s.AvgSpeedMps) > 0.1 {
		t.Errorf("peak %v should match avg %v", s.PeakSpeedMps, s.AvgSpeedMps)
	}
	if math.Abs(s.SpeedP50Mps-s.AvgSpeedMps) > 0.1 {
		t.Errorf("p50 %v should match avg %v", s.SpeedP50Mps, s.AvgSpeedMps)
	}
	// Straight line: no turning.
	if s.MaxTurnDeg > 1 {
		t.Errorf("MaxTurnDeg = %v, want approx 0", s.MaxTurnDeg)
	}
}

func TestSummarizeSinglePoint(t *testing.T) {
	tr := trajNorthbound(1, 10)
	s := Summarize(tr)
	if s.PathLengthM != 0 || s.AvgSpeedMps != 0 || s.PeakSpeedMps != 0 {
		t.Errorf("single point should have zero motion, got %+v", s)
	}
}

func TestSummarizeAll(t *testing.T) {
	out := SummarizeAll([]*model.Trajectory[model.TerrestrialPoint]{
		trajNorthbound(5, 10),
		trajNorthbound(8, 10),
	})
	if len(out) != 2 || out[0].PointCount != 5 || out[1].PointCount != 8 {
		t.Errorf("unexpected summaries %+v", out)
	}
}
