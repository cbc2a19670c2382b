package portal

import (
	"fmt"
	"os"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
)

// Zones maps points onto named polygonal regions loaded from GeoJSON,
// used to label portals with human-readable names.
type Zones struct {
	features []*geojson.Feature
}

// LoadZones reads one or more GeoJSON feature collections of polygons.
func LoadZones(paths ...string) (*Zones, error) {
	z := &Zones{}
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("portal: read zones %s: %w", path, err)
		}
		fc, err := geojson.UnmarshalFeatureCollection(data)
		if err != nil {
			return nil, fmt.Errorf("portal: parse zones %s: %w", path, err)
		}
		z.features = append(z.features, fc.Features...)
	}
	return z, nil
}

// Name returns the name of the first zone containing the point, or "".
func (z *Zones) Name(p orb.Point) string {
	for _, f := range z.features {
		if !f.Geometry.Bound().Contains(p) {
			continue
		}
		if geometryContains(f.Geometry, p) {
			if name, ok := f.Properties["name"].(string); ok {
				return name
			}
		}
	}
	return ""
}

// Annotate fills in the Zone field of each portal from its center.
func (z *Zones) Annotate(portals []Portal) {
	for i := range portals {
		portals[i].Zone = z.Name(portals[i].Center)
	}
}

func geometryContains(g orb.Geometry, p orb.Point) bool {
	switch geom := g.(type) {
	case orb.Polygon:
		return planar.PolygonContains(geom, p)
	case orb.MultiPolygon:
		return planar.MultiPolygonContains(geom, p)
	default:
		return false
	}
}
