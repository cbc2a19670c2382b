// Package assembler stitches an unordered stream of timestamped positional
// reports into per-object trajectories under spatial and temporal
// continuity constraints, with bounded memory via periodic cleanup of stale
// per-object state.
package assembler

import (
	"errors"
	"io"
	"sort"

	"tracksmith/pkg/model"
)

// trackEntry is the per-object state held while a trajectory is in
// progress. The touched flag records whether the entry received an append
// during the current sweep interval.
type trackEntry[P model.Point] struct {
	current *model.Trajectory[P]
	touched bool
}

// Assembler converts point streams into trajectory streams. It holds only
// configuration; each call to Assemble carries its own mutable state, so
// independent assemblies never interfere.
type Assembler[P model.Point] struct {
	cfg Config[P]
}

// New creates an Assembler, rejecting invalid configuration eagerly.
func New[P model.Point](cfg Config[P]) (*Assembler[P], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Assembler[P]{cfg: cfg}, nil
}

// Assemble starts a single-pass, pull-based assembly over src. The returned
// Stream is single-use; re-iterating requires re-running assembly on the
// original point source.
func (a *Assembler[P]) Assemble(src Source[P]) *Stream[P] {
	return &Stream[P]{
		cfg:    a.cfg,
		src:    src,
		tracks: make(map[string]*trackEntry[P]),
	}
}

// Stats reports what a stream has done so far.
type Stats struct {
	PointsProcessed       int
	TrajectoriesEmitted   int
	TrajectoriesDiscarded int
	ActiveObjects         int
}

// Stream is a lazy sequence of completed trajectories. Usage follows the
// database/sql rows contract:
//
//	stream := asm.Assemble(src)
//	for stream.Next() {
//	    t := stream.Trajectory()
//	    ...
//	}
//	if err := stream.Err(); err != nil { ... }
type Stream[P model.Point] struct {
	cfg Config[P]
	src Source[P]

	tracks     map[string]*trackEntry[P]
	pending    []*model.Trajectory[P]
	cur        *model.Trajectory[P]
	sinceSweep int

	stats  Stats
	err    error
	done   bool
	closed bool
}

// Next advances to the next completed trajectory. It returns false at the
// end of the output sequence or on an input error; distinguish the two with
// Err.
func (s *Stream[P]) Next() bool {
	for {
		if len(s.pending) > 0 {
			s.cur = s.pending[0]
			s.pending = s.pending[1:]
			return true
		}
		if s.err != nil || s.done || s.closed {
			return false
		}

		p, err := s.src.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				// Clean end of stream: flush every remaining track entry
				// exactly as the idle-cleanup sweep does.
				s.flushAll()
				s.done = true
				continue
			}
			// Mid-stream input failure. Do not flush-and-succeed; the
			// in-progress trajectories are not known-complete.
			s.err = err
			return false
		}

		s.process(p)
	}
}

// Trajectory returns the trajectory produced by the last successful Next.
func (s *Stream[P]) Trajectory() *model.Trajectory[P] { return s.cur }

// Err returns the input error that terminated the stream, if any.
func (s *Stream[P]) Err() error { return s.err }

// Stats returns the stream's running counters.
func (s *Stream[P]) Stats() Stats {
	st := s.stats
	st.ActiveObjects = len(s.tracks)
	return st
}

// Close abandons the stream without flushing in-progress trajectories.
// A clean shutdown should drain the stream instead, so that the final flush
// runs.
func (s *Stream[P]) Close() error {
	s.closed = true
	s.tracks = nil
	s.pending = nil
	return s.err
}

// process runs the per-point state machine: continue, split or start.
func (s *Stream[P]) process(p P) {
	id := p.ObjectID()
	entry, ok := s.tracks[id]
	if !ok {
		s.tracks[id] = &trackEntry[P]{
			current: model.NewTrajectory(p),
			touched: true,
		}
	} else {
		q := entry.current.Last()
		dd := s.cfg.Metric(q, p)
		dt := p.Time().Sub(q.Time())
		if dt < 0 {
			dt = -dt
		}
		// Exceeding either threshold triggers a split; equality is
		// continuation.
		if dd > s.cfg.SeparationDistance || dt > s.cfg.SeparationTime {
			s.close(entry.current)
			entry.current = model.NewTrajectory(p)
		} else {
			entry.current.Append(p)
		}
		entry.touched = true
	}

	s.stats.PointsProcessed++
	s.sinceSweep++
	if s.sinceSweep >= s.cfg.CleanupInterval {
		s.sweep()
		s.sinceSweep = 0
	}
}

// close emits a finished trajectory if it meets the minimum length,
// otherwise discards it. Closed trajectories are never re-opened or merged.
func (s *Stream[P]) close(t *model.Trajectory[P]) {
	if t.Len() >= s.cfg.MinPoints {
		s.pending = append(s.pending, t)
		s.stats.TrajectoriesEmitted++
	} else {
		s.stats.TrajectoriesDiscarded++
	}
}

// sweep evicts every track entry that received no appends during the
// interval just completed. This bounds memory by the number of currently
// active object identifiers, at the cost of up to CleanupInterval points of
// detection latency for objects that have gone idle.
//
// Evictions are processed in object-id order so the emission order of a
// given input is deterministic.
func (s *Stream[P]) sweep() {
	var idle []string
	for id, entry := range s.tracks {
		if entry.touched {
			entry.touched = false
		} else {
			idle = append(idle, id)
		}
	}
	sort.Strings(idle)
	for _, id := range idle {
		s.close(s.tracks[id].current)
		delete(s.tracks, id)
	}
}

// flushAll closes every remaining track entry at end of stream.
func (s *Stream[P]) flushAll() {
	ids := make([]string, 0, len(s.tracks))
	for id := range s.tracks {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		s.close(s.tracks[id].current)
		delete(s.tracks, id)
	}
}

// Collect drains a stream into a slice. It returns the stream's error, if
// any, alongside the trajectories completed before the failure.
func Collect[P model.Point](s *Stream[P]) ([]*model.Trajectory[P], error) {
	var out []*model.Trajectory[P]
	for s.Next() {
		out = append(out, s.Trajectory())
	}
	return out, s.Err()
}
