package engine

import "fmt"

// Engine provides the main interface for simulation operations
type Engine interface {
	// State management
	GetState() *SimState
	Reset() *SimState
	GetRoverState() RoverState

	// Commands
	Execute(cmd Command) (Step, error)
	BulkExecute(cmds []Command) ([]Step, error)
	CanMove() bool

	// Scenario
	GetScenario() *Scenario
	SetScenario(sc *Scenario) error

	// History
	GetHistory() []Step
	GetLastStep() *Step
}

// SimEngine implements the Engine interface for a single rover
type SimEngine struct {
	scenario *Scenario
	grid     *Grid
	rover    *Rover

	history      []Step
	current      int
	blockedMoves int
}

// NewEngine creates a simulation engine for the provided scenario
func NewEngine(sc *Scenario) (*SimEngine, error) {
	e := &SimEngine{}
	if err := e.SetScenario(sc); err != nil {
		return nil, err
	}
	return e, nil
}

// NewEngineWithDefaults creates an engine running DefaultScenario
func NewEngineWithDefaults() *SimEngine {
	e, err := NewEngine(DefaultScenario())
	if err != nil {
		// DefaultScenario is always valid
		panic(err)
	}
	return e
}

// GetState returns a snapshot of the simulation
func (e *SimEngine) GetState() *SimState {
	width, height := e.grid.Size()
	state := &SimState{
		Rover:           e.rover.State(),
		Width:           width,
		Height:          height,
		Obstacles:       e.grid.Obstacles(),
		ScenarioName:    e.scenario.Name,
		FinalPosition:   e.rover.FinalPosition(),
		StatusReport:    e.rover.StatusReport(),
		TotalCommands:   len(e.history),
		BlockedMoves:    e.blockedMoves,
		CurrentCommands: e.current,
	}
	state.LocalView = LocalView(e.grid, state.Rover)
	return state
}

// GetRoverState returns the rover's current pose
func (e *SimEngine) GetRoverState() RoverState {
	return e.rover.State()
}

// Reset puts the rover back at the scenario's start pose. The cumulative
// history is preserved; only the current segment is cleared.
func (e *SimEngine) Reset() *SimState {
	rover, err := NewRover(e.scenario.Start.X, e.scenario.Start.Y, e.scenario.Start.Heading, e.grid)
	if err != nil {
		// SetScenario validated the start pose
		panic(err)
	}
	e.rover = rover
	e.current = 0
	return e.GetState()
}

// Execute applies a single command and appends it to the history
func (e *SimEngine) Execute(cmd Command) (Step, error) {
	step, err := applyStep(e.rover, cmd, len(e.history)+1)
	if err != nil {
		return Step{}, err
	}

	e.history = append(e.history, step)
	e.current++
	if step.Blocked {
		e.blockedMoves++
	}
	return step, nil
}

// BulkExecute applies commands in order, stopping at the first invalid one
func (e *SimEngine) BulkExecute(cmds []Command) ([]Step, error) {
	steps := make([]Step, 0, len(cmds))
	for i, cmd := range cmds {
		step, err := e.Execute(cmd)
		if err != nil {
			return steps, fmt.Errorf("command %d: %w", i+1, err)
		}
		steps = append(steps, step)
	}
	return steps, nil
}

// CanMove reports whether a Move would succeed from the current pose
func (e *SimEngine) CanMove() bool {
	return e.rover.CanMove()
}

// GetScenario returns the scenario the engine was built from
func (e *SimEngine) GetScenario() *Scenario {
	return e.scenario
}

// SetScenario validates and installs a scenario, discarding all history
func (e *SimEngine) SetScenario(sc *Scenario) error {
	if sc == nil {
		return fmt.Errorf("scenario cannot be nil")
	}
	sc = sc.Clone()
	if err := ValidateScenario(sc); err != nil {
		return err
	}

	grid, rover, err := sc.Build()
	if err != nil {
		return err
	}

	e.scenario = sc
	e.grid = grid
	e.rover = rover
	e.history = nil
	e.current = 0
	e.blockedMoves = 0
	return nil
}

// GetHistory returns the cumulative command history
func (e *SimEngine) GetHistory() []Step {
	return e.history
}

// GetLastStep returns the most recent step, or nil if nothing ran yet
func (e *SimEngine) GetLastStep() *Step {
	if len(e.history) == 0 {
		return nil
	}
	return &e.history[len(e.history)-1]
}

// Rover returns the engine's rover
func (e *SimEngine) Rover() *Rover {
	return e.rover
}

// Grid returns the engine's grid
func (e *SimEngine) Grid() *Grid {
	return e.grid
}
