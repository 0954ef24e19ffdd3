package scenario

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/wricardo/mcp-training/roversim/sim/engine"
	"github.com/wricardo/mcp-training/roversim/sim/script"
)

// CheckResult captures the outcome of checking a single scenario file.
// Errors make the file unusable; Notes are informational and never affect
// Valid.
type CheckResult struct {
	File     string
	Valid    bool
	Scenario *engine.Scenario
	Errors   []string
	Notes    []string
}

// CheckFile loads a scenario file, validates it and collects notes about
// things that are legal but probably unintended.
func CheckFile(path string) CheckResult {
	result := CheckResult{
		File:   filepath.Base(path),
		Valid:  true,
		Errors: []string{},
		Notes:  []string{},
	}

	sc, err := engine.LoadScenario(path)
	if err == nil {
		err = Validate(sc)
	}
	if err != nil {
		result.Valid = false
		if errors.Is(err, os.ErrNotExist) {
			result.Errors = append(result.Errors, "file not found")
		} else {
			result.Errors = append(result.Errors, err.Error())
		}
		return result
	}

	result.Scenario = sc
	result.Notes = Check(sc)
	return result
}

// Check returns notes for a valid scenario. The grid size is informational,
// so coordinates outside it are reported rather than rejected.
func Check(sc *engine.Scenario) []string {
	notes := []string{}

	seen := make(map[engine.Position]bool, len(sc.Obstacles))
	outside := 0
	for _, o := range sc.Obstacles {
		if seen[o] {
			notes = append(notes, fmt.Sprintf("duplicate obstacle at %s", o))
		}
		seen[o] = true
		if !inside(sc, o) {
			outside++
		}
	}
	if outside > 0 {
		notes = append(notes, fmt.Sprintf("%d obstacles outside the declared %dx%d grid", outside, sc.Width, sc.Height))
	}

	start := engine.Position{X: sc.Start.X, Y: sc.Start.Y}
	if seen[start] {
		notes = append(notes, fmt.Sprintf("rover starts on an obstacle at %s", start))
	}
	if !inside(sc, start) {
		notes = append(notes, fmt.Sprintf("rover starts outside the declared %dx%d grid", sc.Width, sc.Height))
	}

	if sc.Commands != "" {
		notes = append(notes, replayNote(sc))
	}
	return notes
}

// replayNote runs the scenario's default script and summarizes the outcome
func replayNote(sc *engine.Scenario) string {
	cmds, err := script.Compile(sc.Commands)
	if err != nil {
		return fmt.Sprintf("default commands do not compile: %v", err)
	}
	_, rover, err := sc.Build()
	if err != nil {
		return fmt.Sprintf("cannot place rover: %v", err)
	}

	steps, err := engine.Replay(rover, cmds)
	if err != nil {
		return fmt.Sprintf("default commands failed: %v", err)
	}
	blocked := 0
	for _, step := range steps {
		if step.Blocked {
			blocked++
		}
	}
	return fmt.Sprintf("default commands (%d) end at %s with %d blocked moves", len(steps), rover.State(), blocked)
}

// inside reports whether p lies in the declared grid. A zero size declares
// no bounds.
func inside(sc *engine.Scenario, p engine.Position) bool {
	if sc.Width == 0 || sc.Height == 0 {
		return true
	}
	return p.X >= 0 && p.Y >= 0 && p.X < sc.Width && p.Y < sc.Height
}
