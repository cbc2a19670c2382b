package model

import (
	"math"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
)

// Properties holds optional named values attached to a point (numeric,
// string or timestamp-valued). They are carried through assembly unchanged.
type Properties = geojson.Properties

// Point is the capability set the toolkit needs from a positional record:
// an object identifier and an ordered instant. Coordinate access stays on
// the concrete types, since distance is always computed between two points
// of the same coordinate system.
type Point interface {
	ObjectID() string
	Time() time.Time
}

// TerrestrialPoint is a longitude/latitude position on a sphere.
type TerrestrialPoint struct {
	ID    string
	At    time.Time
	Coord orb.Point // lon, lat
	Props Properties
}

func (p TerrestrialPoint) ObjectID() string { return p.ID }
func (p TerrestrialPoint) Time() time.Time  { return p.At }

// TerrestrialDistance is the Haversine distance between two terrestrial
// points in meters.
func TerrestrialDistance(a, b TerrestrialPoint) float64 {
	return geo.Distance(a.Coord, b.Coord)
}

// CartesianPoint2D is a position in a flat 2D frame. Units are whatever the
// producing sensor uses; the assembler only compares distances against its
// configured threshold in the same units.
type CartesianPoint2D struct {
	ID    string
	At    time.Time
	Coord orb.Point // x, y
	Props Properties
}

func (p CartesianPoint2D) ObjectID() string { return p.ID }
func (p CartesianPoint2D) Time() time.Time  { return p.At }

// CartesianDistance2D is the Euclidean distance between two planar points.
func CartesianDistance2D(a, b CartesianPoint2D) float64 {
	return planar.Distance(a.Coord, b.Coord)
}

// CartesianPoint3D is a position in a flat 3D frame.
type CartesianPoint3D struct {
	ID      string
	At      time.Time
	X, Y, Z float64
	Props   Properties
}

func (p CartesianPoint3D) ObjectID() string { return p.ID }
func (p CartesianPoint3D) Time() time.Time  { return p.At }

// CartesianDistance3D is the Euclidean distance between two 3D points.
func CartesianDistance3D(a, b CartesianPoint3D) float64 {
	dx := b.X - a.X
	dy := b.Y - a.Y
	dz := b.Z - a.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}
