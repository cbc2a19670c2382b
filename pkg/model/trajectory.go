package model

import "time"

// Trajectory is an ordered, non-empty sequence of points sharing one object
// identifier, in non-decreasing timestamp order as received.
type Trajectory[P Point] struct {
	ObjectID string
	Points   []P
}

// NewTrajectory starts a trajectory with its first point.
func NewTrajectory[P Point](p P) *Trajectory[P] {
	return &Trajectory[P]{
		ObjectID: p.ObjectID(),
		Points:   []P{p},
	}
}

// Append adds a point to the end of the trajectory.
func (t *Trajectory[P]) Append(p P) {
	t.Points = append(t.Points, p)
}

// Len returns the number of points.
func (t *Trajectory[P]) Len() int { return len(t.Points) }

// First returns the earliest point.
func (t *Trajectory[P]) First() P { return t.Points[0] }

// Last returns the most recent point.
func (t *Trajectory[P]) Last() P { return t.Points[len(t.Points)-1] }

// Start returns the timestamp of the first point.
func (t *Trajectory[P]) Start() time.Time { return t.First().Time() }

// End returns the timestamp of the last point.
func (t *Trajectory[P]) End() time.Time { return t.Last().Time() }

// Duration is the elapsed time between the first and last points.
func (t *Trajectory[P]) Duration() time.Duration {
	return t.End().Sub(t.Start())
}
