package writer

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"
	"time"

	"tracksmith/pkg/model"
)

// kmlDocument mirrors the subset of KML 2.2 we emit: one placemark with a
// line string per trajectory.
type kmlDocument struct {
	XMLName    xml.Name       `xml:"kml"`
	Namespace  string         `xml:"xmlns,attr"`
	Name       string         `xml:"Document>name"`
	Placemarks []kmlPlacemark `xml:"Document>Placemark"`
}

type kmlPlacemark struct {
	Name        string        `xml:"name"`
	Description string        `xml:"description"`
	TimeSpan    *kmlTimeSpan  `xml:"TimeSpan,omitempty"`
	LineString  kmlLineString `xml:"LineString"`
}

type kmlTimeSpan struct {
	Begin string `xml:"begin"`
	End   string `xml:"end"`
}

type kmlLineString struct {
	Tessellate  int    `xml:"tessellate"`
	Coordinates string `xml:"coordinates"`
}

// WriteKML serializes trajectories as a KML document.
func WriteKML(w io.Writer, name string, trajs []*model.Trajectory[model.TerrestrialPoint]) error {
	doc := kmlDocument{
		Namespace: "http://www.opengis.net/kml/2.2",
		Name:      name,
	}

	for _, t := range trajs {
		var coords strings.Builder
		for i, p := range t.Points {
			if i > 0 {
				coords.WriteByte(' ')
			}
			fmt.Fprintf(&coords, "%g,%g,0", p.Coord[0], p.Coord[1])
		}
		doc.Placemarks = append(doc.Placemarks, kmlPlacemark{
			Name:        t.ObjectID,
			Description: fmt.Sprintf("%d points over %s", t.Len(), t.Duration()),
			TimeSpan: &kmlTimeSpan{
				Begin: t.Start().UTC().Format(time.RFC3339),
				End:   t.End().UTC().Format(time.RFC3339),
			},
			LineString: kmlLineString{
				Tessellate:  1,
				Coordinates: coords.String(),
			},
		})
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return fmt.Errorf("writer: %w", err)
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("writer: %w", err)
	}
	return nil
}
