// Package reader parses delimited-text point files into the toolkit's point
// types using a configurable column mapping. It implements the assembler's
// pull Source contract; io.EOF marks a clean end of input.
package reader

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/paulmach/orb"

	"tracksmith/pkg/config"
	"tracksmith/pkg/logging"
	"tracksmith/pkg/model"
)

// record is one parsed line before it is shaped into a concrete point type.
type record struct {
	objectID string
	at       time.Time
	coords   [3]float64
	hasZ     bool
	props    model.Properties
}

// base holds the parsing state shared by both reader flavours.
type base struct {
	cfg     config.ReaderConfig
	csv     *csv.Reader
	line    int
	skipped int64
}

func newBase(r io.Reader, cfg config.ReaderConfig) *base {
	cr := csv.NewReader(r)
	if cfg.Delimiter != "" {
		cr.Comma = []rune(cfg.Delimiter)[0]
	}
	if cfg.Comment != "" {
		cr.Comment = []rune(cfg.Comment)[0]
	}
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	return &base{cfg: cfg, csv: cr}
}

// Skipped reports how many malformed lines were dropped so far.
func (b *base) Skipped() int64 { return atomic.LoadInt64(&b.skipped) }

// next parses lines until one yields a well-formed record, io.EOF, or a
// hard failure. In strict mode the first malformed line fails the stream.
func (b *base) next() (record, error) {
	for {
		fields, err := b.csv.Read()
		if err != nil {
			if err == io.EOF {
				return record{}, io.EOF
			}
			return record{}, fmt.Errorf("reader: line %d: %w", b.line+1, err)
		}
		b.line++

		rec, err := b.parse(fields)
		if err != nil {
			if b.cfg.Strict {
				return record{}, fmt.Errorf("reader: line %d: %w", b.line, err)
			}
			atomic.AddInt64(&b.skipped, 1)
			logging.Trace("Skipping malformed line", "line", b.line, "error", err)
			continue
		}
		return rec, nil
	}
}

func (b *base) parse(fields []string) (record, error) {
	cols := b.cfg.Columns
	var rec record

	id, err := field(fields, cols.ObjectID, "object id")
	if err != nil {
		return rec, err
	}
	if id == "" {
		return rec, fmt.Errorf("empty object id")
	}
	rec.objectID = id

	ts, err := field(fields, cols.Timestamp, "timestamp")
	if err != nil {
		return rec, err
	}
	rec.at, err = time.Parse(b.cfg.TimeLayout, ts)
	if err != nil {
		return rec, fmt.Errorf("bad timestamp %q: %w", ts, err)
	}

	for i, col := range []int{cols.X, cols.Y} {
		s, err := field(fields, col, "coordinate")
		if err != nil {
			return rec, err
		}
		rec.coords[i], err = strconv.ParseFloat(s, 64)
		if err != nil {
			return rec, fmt.Errorf("bad coordinate %q: %w", s, err)
		}
	}
	if cols.Z >= 0 {
		s, err := field(fields, cols.Z, "coordinate")
		if err != nil {
			return rec, err
		}
		rec.coords[2], err = strconv.ParseFloat(s, 64)
		if err != nil {
			return rec, fmt.Errorf("bad coordinate %q: %w", s, err)
		}
		rec.hasZ = true
	}

	if len(b.cfg.Properties) > 0 {
		rec.props = make(model.Properties, len(b.cfg.Properties))
		for name, col := range b.cfg.Properties {
			s, err := field(fields, col, "property")
			if err != nil {
				return rec, err
			}
			rec.props[name] = parseProperty(s, b.cfg.TimeLayout)
		}
	}
	return rec, nil
}

func field(fields []string, idx int, what string) (string, error) {
	if idx < 0 || idx >= len(fields) {
		return "", fmt.Errorf("missing %s column %d", what, idx)
	}
	return fields[idx], nil
}

// parseProperty keeps a property's most specific representation: number,
// timestamp, or string.
func parseProperty(s, timeLayout string) interface{} {
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	if t, err := time.Parse(timeLayout, s); err == nil {
		return t
	}
	return s
}

// Terrestrial reads lon/lat points.
type Terrestrial struct {
	*base
}

// NewTerrestrial creates a reader for lon/lat point files.
func NewTerrestrial(r io.Reader, cfg config.ReaderConfig) *Terrestrial {
	return &Terrestrial{base: newBase(r, cfg)}
}

func (r *Terrestrial) Next() (model.TerrestrialPoint, error) {
	rec, err := r.next()
	if err != nil {
		return model.TerrestrialPoint{}, err
	}
	return model.TerrestrialPoint{
		ID:    rec.objectID,
		At:    rec.at,
		Coord: orb.Point{rec.coords[0], rec.coords[1]},
		Props: rec.props,
	}, nil
}

// Cartesian2D reads planar x/y points.
type Cartesian2D struct {
	*base
}

// NewCartesian2D creates a reader for planar point files.
func NewCartesian2D(r io.Reader, cfg config.ReaderConfig) *Cartesian2D {
	return &Cartesian2D{base: newBase(r, cfg)}
}

func (r *Cartesian2D) Next() (model.CartesianPoint2D, error) {
	rec, err := r.next()
	if err != nil {
		return model.CartesianPoint2D{}, err
	}
	return model.CartesianPoint2D{
		ID:    rec.objectID,
		At:    rec.at,
		Coord: orb.Point{rec.coords[0], rec.coords[1]},
		Props: rec.props,
	}, nil
}

// Cartesian3D reads x/y/z points; the Z column must be mapped.
type Cartesian3D struct {
	*base
}

// NewCartesian3D creates a reader for 3D point files.
func NewCartesian3D(r io.Reader, cfg config.ReaderConfig) (*Cartesian3D, error) {
	if cfg.Columns.Z < 0 {
		return nil, fmt.Errorf("reader: 3D input requires a z column mapping")
	}
	return &Cartesian3D{base: newBase(r, cfg)}, nil
}

func (r *Cartesian3D) Next() (model.CartesianPoint3D, error) {
	rec, err := r.next()
	if err != nil {
		return model.CartesianPoint3D{}, err
	}
	return model.CartesianPoint3D{
		ID:    rec.objectID,
		At:    rec.at,
		X:     rec.coords[0],
		Y:     rec.coords[1],
		Z:     rec.coords[2],
		Props: rec.props,
	}, nil
}
