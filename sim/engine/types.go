package engine

import "fmt"

const (
	// Validation constants
	MaxObstacles    = 10000
	MaxBulkCommands = 500
	MaxNameLength   = 64
)

// Position represents x,y coordinates on the grid
type Position struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
}

// Add returns the position shifted by the given delta
func (p Position) Add(d Position) Position {
	return Position{X: p.X + d.X, Y: p.Y + d.Y}
}

func (p Position) String() string {
	return fmt.Sprintf("(%d, %d)", p.X, p.Y)
}

// RoverState is an immutable snapshot of a rover's pose
type RoverState struct {
	X       int     `json:"x"`
	Y       int     `json:"y"`
	Heading Heading `json:"heading"`
}

// Position returns the coordinate part of the pose
func (s RoverState) Position() Position {
	return Position{X: s.X, Y: s.Y}
}

func (s RoverState) String() string {
	return fmt.Sprintf("(%d, %d, %s)", s.X, s.Y, s.Heading)
}

// Step records the effect of one command during a replay
type Step struct {
	Index     int        `json:"idx"` // 1-based
	Command   Command    `json:"command"`
	From      RoverState `json:"from"`
	To        RoverState `json:"to"`
	Blocked   bool       `json:"blocked,omitempty"`
	Timestamp int64      `json:"timestamp,omitempty"`
}

// SimState represents the complete observable state of a simulation
type SimState struct {
	Rover         RoverState `json:"rover"`
	Width         int        `json:"width"`
	Height        int        `json:"height"`
	Obstacles     []Position `json:"obstacles"`
	ScenarioName  string     `json:"scenario_name"`
	FinalPosition string     `json:"final_position"`
	StatusReport  string     `json:"status_report"`
	TotalCommands int        `json:"total_commands"`
	BlockedMoves  int        `json:"blocked_moves"`

	// CurrentCommands counts only the commands since the last reset while
	// TotalCommands stays cumulative.
	CurrentCommands int `json:"current_commands"`

	// Computed helper view (not required for the simulation itself)
	LocalView []string `json:"local_view,omitempty"`
}
