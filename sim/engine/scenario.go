package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// StartPose is the rover's initial placement in a scenario
type StartPose struct {
	X       int     `json:"x" yaml:"x"`
	Y       int     `json:"y" yaml:"y"`
	Heading Heading `json:"heading" yaml:"heading"`
}

// Scenario describes a grid, its obstacles and the rover's starting pose.
// Commands is an optional default command script for the scenario.
type Scenario struct {
	Name        string     `json:"name" yaml:"name"`
	Description string     `json:"description,omitempty" yaml:"description,omitempty"`
	Width       int        `json:"width" yaml:"width"`
	Height      int        `json:"height" yaml:"height"`
	Obstacles   []Position `json:"obstacles" yaml:"obstacles"`
	Start       StartPose  `json:"start" yaml:"start"`
	Commands    string     `json:"commands,omitempty" yaml:"commands,omitempty"`
}

// DefaultScenario reproduces the classic demo run: a 10x10 grid with two
// obstacles and the rover starting at the origin facing north.
func DefaultScenario() *Scenario {
	return &Scenario{
		Name:        "classic",
		Description: "10x10 grid with obstacles at (2,2) and (3,5)",
		Width:       10,
		Height:      10,
		Obstacles:   []Position{{X: 2, Y: 2}, {X: 3, Y: 5}},
		Start:       StartPose{X: 0, Y: 0, Heading: North},
		Commands:    "MMRMLMMR",
	}
}

// ValidateScenario checks a scenario for correctness. It normalizes the
// start heading to its letter form.
func ValidateScenario(sc *Scenario) error {
	if sc == nil {
		return fmt.Errorf("scenario validation: scenario is nil")
	}
	if strings.TrimSpace(sc.Name) == "" {
		return fmt.Errorf("scenario validation: name is required")
	}
	if len(sc.Name) > MaxNameLength {
		return fmt.Errorf("scenario validation: name must be at most %d characters, got %d", MaxNameLength, len(sc.Name))
	}

	// Size is informational only, so just reject nonsense values
	if sc.Width < 0 || sc.Height < 0 {
		return fmt.Errorf("scenario validation: width and height must not be negative, got %dx%d", sc.Width, sc.Height)
	}

	if len(sc.Obstacles) > MaxObstacles {
		return fmt.Errorf("scenario validation: at most %d obstacles allowed, got %d", MaxObstacles, len(sc.Obstacles))
	}

	h, err := ParseHeading(string(sc.Start.Heading))
	if err != nil {
		return fmt.Errorf("scenario validation: start heading: %w", err)
	}
	sc.Start.Heading = h

	return nil
}

// Build constructs the grid and a rover at the scenario's start pose
func (sc *Scenario) Build() (*Grid, *Rover, error) {
	grid := NewGrid(sc.Width, sc.Height, sc.Obstacles)
	rover, err := NewRover(sc.Start.X, sc.Start.Y, sc.Start.Heading, grid)
	if err != nil {
		return nil, nil, err
	}
	return grid, rover, nil
}

// Clone returns a deep copy of the scenario
func (sc *Scenario) Clone() *Scenario {
	c := *sc
	c.Obstacles = append([]Position(nil), sc.Obstacles...)
	return &c
}

// IsScenarioFile reports whether the file name has a supported extension
func IsScenarioFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json", ".yaml", ".yml":
		return true
	}
	return false
}

// ParseScenario decodes a scenario in the given format ("json" or "yaml")
// and validates it.
func ParseScenario(data []byte, format string) (*Scenario, error) {
	var sc Scenario
	switch strings.ToLower(strings.TrimPrefix(format, ".")) {
	case "json":
		if err := json.Unmarshal(data, &sc); err != nil {
			return nil, fmt.Errorf("json unmarshal: %w", err)
		}
	case "yaml", "yml":
		if err := yaml.Unmarshal(data, &sc); err != nil {
			return nil, fmt.Errorf("yaml unmarshal: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported scenario format %q", format)
	}

	if err := ValidateScenario(&sc); err != nil {
		return nil, err
	}
	return &sc, nil
}

// LoadScenario loads a scenario from a JSON or YAML file
func LoadScenario(path string) (*Scenario, error) {
	if !IsScenarioFile(path) {
		return nil, fmt.Errorf("unsupported scenario file %q", filepath.Base(path))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	sc, err := ParseScenario(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("invalid scenario '%s': %w", filepath.Base(path), err)
	}
	return sc, nil
}
