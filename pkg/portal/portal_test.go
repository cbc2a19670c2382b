package portal

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tracksmith/pkg/model"
)

var testEpoch = time.Date(2020, 5, 1, 0, 0, 0, 0, time.UTC)

// traj builds a trajectory that visits each waypoint once, ten seconds apart.
func traj(id string, waypoints ...orb.Point) *model.Trajectory[model.TerrestrialPoint] {
	t := model.NewTrajectory(model.TerrestrialPoint{ID: id, At: testEpoch, Coord: waypoints[0]})
	for i, w := range waypoints[1:] {
		t.Append(model.TerrestrialPoint{
			ID:    id,
			At:    testEpoch.Add(time.Duration(i+1) * 10 * time.Second),
			Coord: w,
		})
	}
	return t
}

func TestConfigValidate(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
		ok   bool
	}{
		{"defaults", DefaultConfig(), true},
		{"negative base", Config{BaseResolution: -1, MaxResolution: 8, MinObjects: 10}, false},
		{"max below base", Config{BaseResolution: 8, MaxResolution: 5, MinObjects: 10}, false},
		{"zero min objects", Config{BaseResolution: 5, MaxResolution: 8, MinObjects: 0}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewDetector(tc.cfg)
			if tc.ok {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
			}
		})
	}
}

func TestPortalsRefineHotCells(t *testing.T) {
	origin := orb.Point{13.0, 52.0}
	hotspot := orb.Point{13.4, 52.5}
	dest := orb.Point{14.0, 53.0}
	quiet := orb.Point{10.0, 50.0}

	d, err := NewDetector(DefaultConfig())
	require.NoError(t, err)

	// Twelve commuters share the same three waypoints; three stragglers
	// only ever touch the quiet spot.
	ids := []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k", "l"}
	for _, id := range ids {
		require.NoError(t, d.Add(traj(id, origin, hotspot, dest)))
	}
	for _, id := range []string{"x", "y", "z"} {
		require.NoError(t, d.Add(traj(id, quiet, quiet)))
	}

	portals, err := d.Portals()
	require.NoError(t, err)
	require.Len(t, portals, 3, "origin, hotspot and dest each qualify")
	for _, p := range portals {
		assert.Equal(t, 8, p.Resolution, "identical coordinates refine to the max resolution")
		assert.Equal(t, 12, p.Objects)
		assert.Equal(t, 12, p.Visits)
		assert.NotEmpty(t, p.Cell)
	}
}

func TestODPairs(t *testing.T) {
	origin := orb.Point{13.0, 52.0}
	dest := orb.Point{14.0, 53.0}
	quiet := orb.Point{10.0, 50.0}

	d, err := NewDetector(DefaultConfig())
	require.NoError(t, err)

	for _, id := range []string{"a", "b", "c", "d"} {
		require.NoError(t, d.Add(traj(id, origin, dest)))
	}
	require.NoError(t, d.Add(traj("z", quiet, quiet)))

	pairs := d.ODPairs()
	require.Len(t, pairs, 2)
	assert.Equal(t, 4, pairs[0].Count)
	assert.NotEqual(t, pairs[0].Origin, pairs[0].Dest)
	assert.Equal(t, 1, pairs[1].Count)
	assert.Equal(t, pairs[1].Origin, pairs[1].Dest, "round trip starts and ends in one cell")
}

func TestZonesName(t *testing.T) {
	zonesJSON := `{
	  "type": "FeatureCollection",
	  "features": [{
	    "type": "Feature",
	    "properties": {"name": "Mitte"},
	    "geometry": {
	      "type": "Polygon",
	      "coordinates": [[[13.3, 52.4], [13.5, 52.4], [13.5, 52.6], [13.3, 52.6], [13.3, 52.4]]]
	    }
	  }]
	}`
	path := filepath.Join(t.TempDir(), "zones.geojson")
	require.NoError(t, os.WriteFile(path, []byte(zonesJSON), 0o644))

	z, err := LoadZones(path)
	require.NoError(t, err)

	assert.Equal(t, "Mitte", z.Name(orb.Point{13.4, 52.5}))
	assert.Equal(t, "", z.Name(orb.Point{10.0, 50.0}))

	portals := []Portal{
		{Cell: "aa", Center: orb.Point{13.4, 52.5}},
		{Cell: "bb", Center: orb.Point{10.0, 50.0}},
	}
	z.Annotate(portals)
	assert.Equal(t, "Mitte", portals[0].Zone)
	assert.Equal(t, "", portals[1].Zone)
}

func TestZonesLoadErrors(t *testing.T) {
	_, err := LoadZones(filepath.Join(t.TempDir(), "missing.geojson"))
	require.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.geojson")
	require.NoError(t, os.WriteFile(bad, []byte("not json"), 0o644))
	_, err = LoadZones(bad)
	require.Error(t, err)
}
