package geom

import (
	"math"
	"testing"
	"time"

	"github.com/paulmach/orb"

	"tracksmith/pkg/model"
)

func approx(t *testing.T, got, want, tol float64, what string) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Errorf("%s = %v, want approx %v", what, got, want)
	}
}

func TestBearing(t *testing.T) {
	tests := []struct {
		name string
		a, b orb.Point
		want float64
	}{
		{"north", orb.Point{20, 10}, orb.Point{20, 11}, 0},
		{"east", orb.Point{20, 0}, orb.Point{21, 0}, 90},
		{"south", orb.Point{20, 11}, orb.Point{20, 10}, 180},
		{"west", orb.Point{21, 0}, orb.Point{20, 0}, 270},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			approx(t, Bearing(tt.a, tt.b), tt.want, 1.0, "Bearing()")
		})
	}
}

func TestTurnAngle(t *testing.T) {
	// North then east: a 90 degree right turn.
	a := orb.Point{20, 10}
	b := orb.Point{20, 11}
	c := orb.Point{21, 11}
	approx(t, TurnAngle(a, b, c), 90, 2.0, "TurnAngle()")

	// North then west: a 90 degree left turn.
	c = orb.Point{19, 11}
	approx(t, TurnAngle(a, b, c), -90, 2.0, "TurnAngle()")
}

func TestPathLength(t *testing.T) {
	// One degree of latitude is roughly 111 km.
	ls := orb.LineString{{13, 52}, {13, 53}, {13, 54}}
	got := PathLength(ls)
	approx(t, got, 2*111000, 1000, "PathLength()")
}

func TestLineStringOf(t *testing.T) {
	tr := model.NewTrajectory(model.TerrestrialPoint{
		ID: "a", At: time.Now(), Coord: orb.Point{1, 2},
	})
	tr.Append(model.TerrestrialPoint{ID: "a", At: time.Now(), Coord: orb.Point{3, 4}})

	ls := LineStringOf(tr)
	if len(ls) != 2 || ls[0] != (orb.Point{1, 2}) || ls[1] != (orb.Point{3, 4}) {
		t.Errorf("unexpected line string %v", ls)
	}
}

func TestSimplifyDropsCollinearPoints(t *testing.T) {
	ls := orb.LineString{{0, 0}, {1, 0.0001}, {2, 0}, {3, 0.0001}, {4, 0}}
	out := Simplify(ls, 0.01)
	if len(out) != 2 {
		t.Errorf("expected collapse to endpoints, got %d points", len(out))
	}
	if out[0] != ls[0] || out[len(out)-1] != ls[len(ls)-1] {
		t.Error("simplification must keep the endpoints")
	}
	if len(ls) != 5 {
		t.Error("input line string was mutated")
	}
}

func TestConvexHull(t *testing.T) {
	pts := []orb.Point{
		{0, 0}, {2, 0}, {2, 2}, {0, 2}, // square corners
		{1, 1}, {0.5, 0.5}, {1.5, 0.3}, // interior
	}
	hull := ConvexHull(pts)

	if len(hull) != 5 {
		t.Fatalf("expected closed 4-corner ring, got %d points: %v", len(hull), hull)
	}
	if hull[0] != hull[len(hull)-1] {
		t.Error("hull ring must be closed")
	}
	corners := map[orb.Point]bool{{0, 0}: true, {2, 0}: true, {2, 2}: true, {0, 2}: true}
	for _, p := range hull[:len(hull)-1] {
		if !corners[p] {
			t.Errorf("interior point %v leaked into hull", p)
		}
	}
}

func TestConvexHullDegenerate(t *testing.T) {
	if ConvexHull(nil) != nil {
		t.Error("empty input should yield nil")
	}
	hull := ConvexHull([]orb.Point{{1, 1}, {1, 1}})
	if len(hull) != 2 {
		t.Errorf("single distinct point should yield degenerate ring, got %v", hull)
	}
}
