package engine

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func createTestScenario() *Scenario {
	return &Scenario{
		Name:        "Engine Test Scenario",
		Description: "Scenario for engine tests",
		Width:       5,
		Height:      5,
		Obstacles:   []Position{{X: 2, Y: 2}, {X: 0, Y: 3}},
		Start:       StartPose{X: 0, Y: 0, Heading: North},
	}
}

func TestNewEngine(t *testing.T) {
	engine, err := NewEngine(createTestScenario())
	if err != nil {
		t.Fatalf("Failed to create engine: %v", err)
	}

	state := engine.GetState()
	if state.Rover != (RoverState{0, 0, North}) {
		t.Errorf("Expected start pose (0, 0, N), got %s", state.Rover)
	}
	if state.Width != 5 || state.Height != 5 {
		t.Errorf("Expected size 5x5, got %dx%d", state.Width, state.Height)
	}
	if len(state.Obstacles) != 2 {
		t.Errorf("Expected 2 obstacles, got %d", len(state.Obstacles))
	}
	if state.TotalCommands != 0 {
		t.Errorf("Expected no commands yet, got %d", state.TotalCommands)
	}
	if engine.GetLastStep() != nil {
		t.Error("Expected no last step before any command")
	}
}

func TestNewEngine_InvalidScenario(t *testing.T) {
	sc := createTestScenario()
	sc.Start.Heading = "Q"

	if _, err := NewEngine(sc); !errors.Is(err, ErrInvalidHeading) {
		t.Errorf("Expected ErrInvalidHeading, got %v", err)
	}

	sc = createTestScenario()
	sc.Name = ""
	if _, err := NewEngine(sc); err == nil {
		t.Error("Expected error for missing name")
	}
}

func TestNewEngine_NormalizesHeading(t *testing.T) {
	sc := createTestScenario()
	sc.Start.Heading = "east"

	engine, err := NewEngine(sc)
	if err != nil {
		t.Fatalf("Failed to create engine: %v", err)
	}
	if engine.GetRoverState().Heading != East {
		t.Errorf("Expected heading E, got %s", engine.GetRoverState().Heading)
	}
	// Caller's scenario is not modified
	if sc.Start.Heading != "east" {
		t.Errorf("Expected caller scenario untouched, got %s", sc.Start.Heading)
	}
}

func TestNewEngineWithDefaults(t *testing.T) {
	engine := NewEngineWithDefaults()
	if engine.GetScenario().Name != "classic" {
		t.Errorf("Expected classic scenario, got %s", engine.GetScenario().Name)
	}

	cmds := make([]Command, 0)
	for _, r := range engine.GetScenario().Commands {
		c, _ := ParseCommand(r)
		cmds = append(cmds, c)
	}
	if _, err := engine.BulkExecute(cmds); err != nil {
		t.Fatalf("BulkExecute failed: %v", err)
	}

	state := engine.GetState()
	if state.FinalPosition != "Final Position: (1, 4, E)" {
		t.Errorf("Unexpected final position %q", state.FinalPosition)
	}
	if state.StatusReport != "Rover is at (1, 4) facing E. No obstacles detected." {
		t.Errorf("Unexpected status report %q", state.StatusReport)
	}
}

func TestEngine_ExecuteAndHistory(t *testing.T) {
	engine, _ := NewEngine(createTestScenario())

	// (0,0,N) -> M (0,1) -> M (0,2) -> M blocked by (0,3)
	steps, err := engine.BulkExecute([]Command{Move, Move, Move})
	if err != nil {
		t.Fatalf("BulkExecute failed: %v", err)
	}
	if len(steps) != 3 {
		t.Fatalf("Expected 3 steps, got %d", len(steps))
	}
	if !steps[2].Blocked {
		t.Error("Expected third move to be blocked")
	}

	state := engine.GetState()
	if state.BlockedMoves != 1 {
		t.Errorf("Expected 1 blocked move, got %d", state.BlockedMoves)
	}
	if state.TotalCommands != 3 || state.CurrentCommands != 3 {
		t.Errorf("Expected 3 total and current commands, got %d and %d", state.TotalCommands, state.CurrentCommands)
	}

	last := engine.GetLastStep()
	if last == nil || last.Index != 3 {
		t.Fatalf("Expected last step index 3, got %+v", last)
	}
}

func TestEngine_ResetKeepsHistory(t *testing.T) {
	engine, _ := NewEngine(createTestScenario())
	engine.BulkExecute([]Command{TurnRight, Move, Move})

	state := engine.Reset()
	if state.Rover != (RoverState{0, 0, North}) {
		t.Errorf("Expected start pose after reset, got %s", state.Rover)
	}
	if state.TotalCommands != 3 {
		t.Errorf("Expected cumulative history of 3, got %d", state.TotalCommands)
	}
	if state.CurrentCommands != 0 {
		t.Errorf("Expected current segment cleared, got %d", state.CurrentCommands)
	}

	step, _ := engine.Execute(Move)
	if step.Index != 4 {
		t.Errorf("Expected step index to continue at 4, got %d", step.Index)
	}
}

func TestEngine_ResetPanicsOnCorruptStartPose(t *testing.T) {
	engine, _ := NewEngine(createTestScenario())
	engine.scenario.Start.Heading = "Q"

	defer func() {
		if recover() == nil {
			t.Error("Expected Reset to panic when the start pose is invalid")
		}
	}()
	engine.Reset()
}

func TestEngine_SetScenario(t *testing.T) {
	engine, _ := NewEngine(createTestScenario())
	engine.Execute(Move)

	if err := engine.SetScenario(DefaultScenario()); err != nil {
		t.Fatalf("SetScenario failed: %v", err)
	}
	if len(engine.GetHistory()) != 0 {
		t.Error("Expected history to be cleared by SetScenario")
	}
	if err := engine.SetScenario(nil); err == nil {
		t.Error("Expected error for nil scenario")
	}
}

func TestEngine_CanMove(t *testing.T) {
	sc := createTestScenario()
	sc.Start = StartPose{X: 1, Y: 2, Heading: East}
	engine, _ := NewEngine(sc)

	if engine.CanMove() {
		t.Error("Expected obstacle at (2,2) to block")
	}
	engine.Execute(TurnLeft)
	if !engine.CanMove() {
		t.Error("Expected (1,3) to be clear")
	}
}

func TestLocalView(t *testing.T) {
	grid := NewGrid(5, 5, []Position{{X: 2, Y: 2}})
	view := LocalView(grid, RoverState{1, 2, East})

	expected := []string{
		"...",
		".>#",
		"...",
	}
	if strings.Join(view, "\n") != strings.Join(expected, "\n") {
		t.Errorf("Unexpected local view:\n%s", strings.Join(view, "\n"))
	}
}

func TestRender(t *testing.T) {
	grid := NewGrid(3, 3, []Position{{X: 2, Y: 2}})
	rows := Render(grid, RoverState{0, 0, North})

	expected := []string{
		"..#",
		"...",
		"^..",
	}
	if strings.Join(rows, "\n") != strings.Join(expected, "\n") {
		t.Errorf("Unexpected render:\n%s", strings.Join(rows, "\n"))
	}

	// Rover outside the declared area widens the view
	rows = Render(grid, RoverState{-1, 0, West})
	if len(rows[0]) != 4 {
		t.Errorf("Expected widened row of 4, got %q", rows[0])
	}
}

func TestLoadScenario(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "ridge.yaml")
	yamlData := `name: ridge
description: YAML scenario
width: 4
height: 4
obstacles:
  - {x: 1, y: 1}
start: {x: 0, y: 0, heading: south}
commands: MRM
`
	if err := os.WriteFile(yamlPath, []byte(yamlData), 0644); err != nil {
		t.Fatal(err)
	}

	sc, err := LoadScenario(yamlPath)
	if err != nil {
		t.Fatalf("LoadScenario(yaml) failed: %v", err)
	}
	if sc.Start.Heading != South || len(sc.Obstacles) != 1 || sc.Commands != "MRM" {
		t.Errorf("Unexpected YAML scenario: %+v", sc)
	}

	jsonPath := filepath.Join(dir, "flat.json")
	jsonData := `{"name":"flat","width":2,"height":2,"obstacles":[],"start":{"x":1,"y":1,"heading":"W"}}`
	if err := os.WriteFile(jsonPath, []byte(jsonData), 0644); err != nil {
		t.Fatal(err)
	}
	sc, err = LoadScenario(jsonPath)
	if err != nil {
		t.Fatalf("LoadScenario(json) failed: %v", err)
	}
	if sc.Start.Heading != West {
		t.Errorf("Expected heading W, got %s", sc.Start.Heading)
	}

	if _, err := LoadScenario(filepath.Join(dir, "notes.txt")); err == nil {
		t.Error("Expected error for unsupported extension")
	}
}

func TestValidateScenario(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(sc *Scenario)
		wantErr bool
	}{
		{"valid", func(sc *Scenario) {}, false},
		{"missing name", func(sc *Scenario) { sc.Name = "  " }, true},
		{"long name", func(sc *Scenario) { sc.Name = strings.Repeat("x", MaxNameLength+1) }, true},
		{"negative width", func(sc *Scenario) { sc.Width = -1 }, true},
		{"zero size", func(sc *Scenario) { sc.Width, sc.Height = 0, 0 }, false},
		{"bad heading", func(sc *Scenario) { sc.Start.Heading = "up" }, true},
		{"obstacle outside size", func(sc *Scenario) { sc.Obstacles = []Position{{X: 99, Y: -3}} }, false},
		{"obstacle on start", func(sc *Scenario) { sc.Obstacles = []Position{{X: 0, Y: 0}} }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc := createTestScenario()
			tt.mutate(sc)
			err := ValidateScenario(sc)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateScenario() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
