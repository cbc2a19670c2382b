package assembler

import (
	"io"

	"tracksmith/pkg/model"
)

// Source is a forward-only pull iterator over points in arrival order.
// Next returns io.EOF on a clean end of stream; any other error is an input
// failure that the assembler propagates instead of swallowing.
//
// The global stream need not be sorted, but points sharing an object id must
// arrive in non-decreasing timestamp order. That is the producer's job,
// typically satisfied by reading a time-sorted log in file order.
type Source[P model.Point] interface {
	Next() (P, error)
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc[P model.Point] func() (P, error)

func (f SourceFunc[P]) Next() (P, error) { return f() }

// SliceSource yields the points of a slice in order, then io.EOF.
type SliceSource[P model.Point] struct {
	points []P
	next   int
}

// NewSliceSource wraps an in-memory point slice as a Source.
func NewSliceSource[P model.Point](points []P) *SliceSource[P] {
	return &SliceSource[P]{points: points}
}

func (s *SliceSource[P]) Next() (P, error) {
	if s.next >= len(s.points) {
		var zero P
		return zero, io.EOF
	}
	p := s.points[s.next]
	s.next++
	return p, nil
}
