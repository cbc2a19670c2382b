package writer

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/paulmach/orb/geojson"

	"tracksmith/pkg/geom"
	"tracksmith/pkg/model"
)

// FeatureCollection converts trajectories into a GeoJSON feature
// collection, one LineString feature per trajectory.
func FeatureCollection(trajs []*model.Trajectory[model.TerrestrialPoint]) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, t := range trajs {
		f := geojson.NewFeature(geom.LineStringOf(t))
		f.Properties["object_id"] = t.ObjectID
		f.Properties["point_count"] = t.Len()
		f.Properties["start"] = t.Start().UTC().Format(time.RFC3339)
		f.Properties["end"] = t.End().UTC().Format(time.RFC3339)
		f.Properties["duration_s"] = t.Duration().Seconds()
		fc.Append(f)
	}
	return fc
}

// WriteGeoJSON serializes trajectories as a GeoJSON feature collection.
func WriteGeoJSON(w io.Writer, trajs []*model.Trajectory[model.TerrestrialPoint]) error {
	data, err := json.Marshal(FeatureCollection(trajs))
	if err != nil {
		return fmt.Errorf("writer: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("writer: %w", err)
	}
	return nil
}
