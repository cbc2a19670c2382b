// Package portal finds heavily-trafficked places in a set of trajectories.
//
// Trajectory points are indexed into H3 hexagonal cells at a coarse base
// resolution. Cells crossed by enough distinct objects are refined into
// their children, repeatedly, until a depth limit; the surviving leaf cells
// are reported as portals. Origin/destination cell pairs are counted per
// trajectory at the base resolution.
package portal

import (
	"fmt"
	"sort"

	"github.com/paulmach/orb"
	"github.com/uber/h3-go/v4"

	"tracksmith/pkg/model"
)

const (
	DefaultBaseResolution = 5
	DefaultMaxResolution  = 8
	DefaultMinObjects     = 10
)

// Config controls the grid refinement.
type Config struct {
	BaseResolution int
	MaxResolution  int
	MinObjects     int
}

// DefaultConfig returns the standard refinement parameters.
func DefaultConfig() Config {
	return Config{
		BaseResolution: DefaultBaseResolution,
		MaxResolution:  DefaultMaxResolution,
		MinObjects:     DefaultMinObjects,
	}
}

func (c Config) validate() error {
	if c.BaseResolution < 0 || c.BaseResolution > 15 {
		return fmt.Errorf("portal: base resolution %d out of range", c.BaseResolution)
	}
	if c.MaxResolution < c.BaseResolution || c.MaxResolution > 15 {
		return fmt.Errorf("portal: max resolution %d out of range", c.MaxResolution)
	}
	if c.MinObjects < 1 {
		return fmt.Errorf("portal: min objects must be positive, got %d", c.MinObjects)
	}
	return nil
}

// Portal is a refined cell with enough distinct traffic.
type Portal struct {
	Cell       string    `json:"cell"`
	Resolution int       `json:"resolution"`
	Center     orb.Point `json:"center"`
	Objects    int       `json:"objects"`
	Visits     int       `json:"visits"`
	Zone       string    `json:"zone,omitempty"`
}

// ODPair counts trajectories starting in Origin and ending in Dest,
// both at the base resolution.
type ODPair struct {
	Origin string `json:"origin"`
	Dest   string `json:"dest"`
	Count  int    `json:"count"`
}

type visit struct {
	objectID string
	ll       h3.LatLng
}

type odKey struct {
	origin, dest h3.Cell
}

// Detector accumulates trajectories and answers portal and OD queries.
type Detector struct {
	cfg   Config
	cells map[h3.Cell][]visit
	od    map[odKey]int
}

// NewDetector creates a detector with validated parameters.
func NewDetector(cfg Config) (*Detector, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Detector{
		cfg:   cfg,
		cells: make(map[h3.Cell][]visit),
		od:    make(map[odKey]int),
	}, nil
}

// Add indexes one trajectory's points and its origin/destination cells.
func (d *Detector) Add(t *model.Trajectory[model.TerrestrialPoint]) error {
	if t.Len() == 0 {
		return nil
	}
	var first, last h3.Cell
	for i, p := range t.Points {
		ll := h3.NewLatLng(p.Coord[1], p.Coord[0])
		cell, err := h3.LatLngToCell(ll, d.cfg.BaseResolution)
		if err != nil {
			return fmt.Errorf("portal: indexing %s: %w", t.ObjectID, err)
		}
		d.cells[cell] = append(d.cells[cell], visit{objectID: t.ObjectID, ll: ll})
		if i == 0 {
			first = cell
		}
		last = cell
	}
	d.od[odKey{origin: first, dest: last}]++
	return nil
}

// Portals runs the refinement and returns qualifying cells, ordered by
// cell index for reproducible output.
func (d *Detector) Portals() ([]Portal, error) {
	var out []Portal
	for cell, visits := range d.cells {
		refined, err := d.refine(cell, d.cfg.BaseResolution, visits)
		if err != nil {
			return nil, err
		}
		out = append(out, refined...)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Cell < out[j].Cell })
	return out, nil
}

// refine descends into a cell's children while they still carry enough
// distinct objects, emitting the deepest cells that qualify.
func (d *Detector) refine(cell h3.Cell, res int, visits []visit) ([]Portal, error) {
	objects := distinctObjects(visits)
	if objects < d.cfg.MinObjects {
		return nil, nil
	}
	if res < d.cfg.MaxResolution {
		children := make(map[h3.Cell][]visit)
		for _, v := range visits {
			child, err := h3.LatLngToCell(v.ll, res+1)
			if err != nil {
				return nil, fmt.Errorf("portal: refining %s: %w", cell, err)
			}
			children[child] = append(children[child], v)
		}
		var out []Portal
		for child, cv := range children {
			refined, err := d.refine(child, res+1, cv)
			if err != nil {
				return nil, err
			}
			out = append(out, refined...)
		}
		// A hot cell whose traffic scatters below threshold when split
		// is itself the portal.
		if len(out) > 0 {
			return out, nil
		}
	}
	center, err := h3.CellToLatLng(cell)
	if err != nil {
		return nil, fmt.Errorf("portal: center of %s: %w", cell, err)
	}
	return []Portal{{
		Cell:       cell.String(),
		Resolution: res,
		Center:     orb.Point{center.Lng, center.Lat},
		Objects:    objects,
		Visits:     len(visits),
	}}, nil
}

// ODPairs returns origin/destination counts, most-travelled first, ties
// broken by cell index.
func (d *Detector) ODPairs() []ODPair {
	out := make([]ODPair, 0, len(d.od))
	for k, n := range d.od {
		out = append(out, ODPair{Origin: k.origin.String(), Dest: k.dest.String(), Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		if out[i].Origin != out[j].Origin {
			return out[i].Origin < out[j].Origin
		}
		return out[i].Dest < out[j].Dest
	})
	return out
}

func distinctObjects(visits []visit) int {
	seen := make(map[string]struct{}, len(visits))
	for _, v := range visits {
		seen[v.objectID] = struct{}{}
	}
	return len(seen)
}
