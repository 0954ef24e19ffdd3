package engine

import (
	"errors"
	"fmt"
)

var ErrNilGrid = errors.New("rover requires a grid")

// Rover holds a mutable pose and a shared, non-owning reference to the grid
// it navigates.
type Rover struct {
	x       int
	y       int
	heading Heading
	grid    *Grid
}

// NewRover places a rover at (x, y) facing h. Unknown headings are rejected
// so the turn tables only ever see the four compass values.
func NewRover(x, y int, h Heading, grid *Grid) (*Rover, error) {
	if !h.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidHeading, string(h))
	}
	if grid == nil {
		return nil, ErrNilGrid
	}
	return &Rover{x: x, y: y, heading: h, grid: grid}, nil
}

// Ahead returns the cell one step forward along the current heading
func (r *Rover) Ahead() Position {
	return r.Position().Add(r.heading.Delta())
}

// CanMove reports whether the next Move would change the position
func (r *Rover) CanMove() bool {
	next := r.Ahead()
	return !r.grid.IsObstacle(next.X, next.Y)
}

// Move advances one cell along the heading. A move onto an obstacle is
// silently discarded.
func (r *Rover) Move() {
	next := r.Ahead()
	if r.grid.IsObstacle(next.X, next.Y) {
		return
	}
	r.x, r.y = next.X, next.Y
}

// TurnLeft rotates a quarter turn counter-clockwise
func (r *Rover) TurnLeft() {
	r.heading = r.heading.Left()
}

// TurnRight rotates a quarter turn clockwise
func (r *Rover) TurnRight() {
	r.heading = r.heading.Right()
}

// Position returns the current coordinates
func (r *Rover) Position() Position {
	return Position{X: r.x, Y: r.y}
}

// Heading returns the current heading
func (r *Rover) Heading() Heading {
	return r.heading
}

// State returns a snapshot of the current pose
func (r *Rover) State() RoverState {
	return RoverState{X: r.x, Y: r.y, Heading: r.heading}
}

// Grid returns the grid the rover navigates
func (r *Rover) Grid() *Grid {
	return r.grid
}

// FinalPosition formats the pose as "Final Position: (x, y, H)"
func (r *Rover) FinalPosition() string {
	return fmt.Sprintf("Final Position: (%d, %d, %s)", r.x, r.y, r.heading)
}

// StatusReport formats the pose as a sentence. The obstacle clause is fixed
// text and does not inspect the grid.
func (r *Rover) StatusReport() string {
	return fmt.Sprintf("Rover is at (%d, %d) facing %s. No obstacles detected.", r.x, r.y, r.heading)
}
