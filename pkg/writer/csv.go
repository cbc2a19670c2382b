// Package writer serializes assembled trajectories to delimited text, KML
// and GeoJSON.
package writer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"tracksmith/pkg/model"
)

// CSV writes trajectory points back out as delimited text, one point per
// line, using the same column conventions the reader consumes:
// object_id, timestamp, lon, lat.
type CSV struct {
	w          *csv.Writer
	timeLayout string
}

// NewCSV creates a delimited-text writer. An empty delimiter means comma.
func NewCSV(w io.Writer, delimiter, timeLayout string) *CSV {
	cw := csv.NewWriter(w)
	if delimiter != "" {
		cw.Comma = []rune(delimiter)[0]
	}
	return &CSV{w: cw, timeLayout: timeLayout}
}

// Write appends one trajectory's points.
func (c *CSV) Write(t *model.Trajectory[model.TerrestrialPoint]) error {
	for _, p := range t.Points {
		rec := []string{
			p.ID,
			p.At.Format(c.timeLayout),
			strconv.FormatFloat(p.Coord[0], 'f', -1, 64),
			strconv.FormatFloat(p.Coord[1], 'f', -1, 64),
		}
		if err := c.w.Write(rec); err != nil {
			return fmt.Errorf("writer: %w", err)
		}
	}
	return nil
}

// Flush commits buffered output.
func (c *CSV) Flush() error {
	c.w.Flush()
	return c.w.Error()
}
