// Package geom provides the geometric primitives the analysis stages need:
// distance, bearing, turn angle, path length, simplification, hulls.
// Terrestrial math runs on the WGS84 sphere via orb/geo; planar math uses
// orb/planar.
package geom

import (
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/planar"
	"github.com/paulmach/orb/simplify"

	"tracksmith/pkg/model"
)

// Distance is the Haversine distance between two lon/lat points in meters.
func Distance(a, b orb.Point) float64 {
	return geo.Distance(a, b)
}

// Bearing is the initial bearing (forward azimuth) from a to b in degrees,
// normalized to [0, 360).
func Bearing(a, b orb.Point) float64 {
	brng := geo.Bearing(a, b)
	if brng < 0 {
		brng += 360
	}
	return brng
}

// NormalizeAngle wraps an angle difference into [-180, 180].
func NormalizeAngle(deg float64) float64 {
	for deg > 180 {
		deg -= 360
	}
	for deg < -180 {
		deg += 360
	}
	return deg
}

// TurnAngle is the signed change of heading at b when travelling a→b→c,
// in degrees; positive is a right turn.
func TurnAngle(a, b, c orb.Point) float64 {
	return NormalizeAngle(Bearing(b, c) - Bearing(a, b))
}

// LineStringOf flattens a terrestrial trajectory into an orb.LineString.
func LineStringOf(t *model.Trajectory[model.TerrestrialPoint]) orb.LineString {
	ls := make(orb.LineString, 0, t.Len())
	for _, p := range t.Points {
		ls = append(ls, p.Coord)
	}
	return ls
}

// PathLength is the sum of great-circle segment lengths in meters.
func PathLength(ls orb.LineString) float64 {
	var total float64
	for i := 1; i < len(ls); i++ {
		total += geo.Distance(ls[i-1], ls[i])
	}
	return total
}

// Simplify reduces a line string with Douglas-Peucker at the given
// tolerance in coordinate units (degrees for lon/lat).
func Simplify(ls orb.LineString, tolerance float64) orb.LineString {
	return simplify.DouglasPeucker(tolerance).Simplify(ls.Clone()).(orb.LineString)
}

// Centroid returns the centroid of a point cloud.
func Centroid(pts []orb.Point) orb.Point {
	c, _ := planar.CentroidArea(orb.MultiPoint(pts))
	return c
}

// cross is the z-component of (b-a) × (c-a); positive for a left turn.
func cross(a, b, c orb.Point) float64 {
	return (b[0]-a[0])*(c[1]-a[1]) - (b[1]-a[1])*(c[0]-a[0])
}

// ConvexHull computes the convex hull of a point cloud with Andrew's
// monotone chain, returned as a closed ring in counter-clockwise order.
// Fewer than three distinct points yield a degenerate ring.
func ConvexHull(pts []orb.Point) orb.Ring {
	if len(pts) == 0 {
		return nil
	}

	sorted := make([]orb.Point, len(pts))
	copy(sorted, pts)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i][0] != sorted[j][0] {
			return sorted[i][0] < sorted[j][0]
		}
		return sorted[i][1] < sorted[j][1]
	})

	// Drop duplicates so collinearity checks stay stable.
	uniq := sorted[:1]
	for _, p := range sorted[1:] {
		if p != uniq[len(uniq)-1] {
			uniq = append(uniq, p)
		}
	}
	if len(uniq) < 3 {
		ring := orb.Ring(append([]orb.Point{}, uniq...))
		ring = append(ring, uniq[0])
		return ring
	}

	var lower []orb.Point
	for _, p := range uniq {
		for len(lower) >= 2 && cross(lower[len(lower)-2], lower[len(lower)-1], p) <= 0 {
			lower = lower[:len(lower)-1]
		}
		lower = append(lower, p)
	}

	var upper []orb.Point
	for i := len(uniq) - 1; i >= 0; i-- {
		p := uniq[i]
		for len(upper) >= 2 && cross(upper[len(upper)-2], upper[len(upper)-1], p) <= 0 {
			upper = upper[:len(upper)-1]
		}
		upper = append(upper, p)
	}

	hull := append(lower[:len(lower)-1], upper[:len(upper)-1]...)
	ring := orb.Ring(hull)
	ring = append(ring, ring[0])
	return ring
}
