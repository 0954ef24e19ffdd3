package scenario

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/wricardo/mcp-training/roversim/sim/engine"
)

func hasNote(notes []string, substr string) bool {
	for _, n := range notes {
		if strings.Contains(n, substr) {
			return true
		}
	}
	return false
}

func TestCheckFile(t *testing.T) {
	dir := t.TempDir()
	writeScenarioFile(t, dir, "mars.json", marsJSON)
	writeScenarioFile(t, dir, "bad.yaml", "name: bad\nstart: {heading: sideways}\n")
	writeScenarioFile(t, dir, "notes.txt", "name: notes\n")

	tests := []struct {
		name      string
		file      string
		wantValid bool
		wantError string
	}{
		{"valid", "mars.json", true, ""},
		{"bad heading", "bad.yaml", false, "invalid heading"},
		{"unsupported extension", "notes.txt", false, "unsupported scenario file"},
		{"missing", "absent.json", false, "file not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CheckFile(filepath.Join(dir, tt.file))
			if result.File != tt.file {
				t.Errorf("Expected file %s, got %s", tt.file, result.File)
			}
			if result.Valid != tt.wantValid {
				t.Fatalf("Expected valid=%v, got %v (errors: %v)", tt.wantValid, result.Valid, result.Errors)
			}
			if tt.wantError != "" && !strings.Contains(strings.Join(result.Errors, "; "), tt.wantError) {
				t.Errorf("Expected error containing %q, got %v", tt.wantError, result.Errors)
			}
			if tt.wantValid && result.Scenario == nil {
				t.Error("Expected scenario on a valid result")
			}
		})
	}
}

func TestCheck(t *testing.T) {
	t.Run("classic scenario replay", func(t *testing.T) {
		notes := Check(engine.DefaultScenario())
		if len(notes) != 1 {
			t.Fatalf("Expected only the replay note, got %v", notes)
		}
		if !strings.Contains(notes[0], "end at (1, 4, E) with 0 blocked moves") {
			t.Errorf("Unexpected replay note: %s", notes[0])
		}
	})

	t.Run("suspicious layout", func(t *testing.T) {
		sc := &engine.Scenario{
			Name:      "odd",
			Width:     3,
			Height:    3,
			Obstacles: []engine.Position{{X: 0, Y: 0}, {X: 0, Y: 0}, {X: 7, Y: -1}},
			Start:     engine.StartPose{X: 0, Y: 0, Heading: engine.North},
		}
		notes := Check(sc)
		for _, want := range []string{
			"duplicate obstacle at (0, 0)",
			"1 obstacles outside the declared 3x3 grid",
			"rover starts on an obstacle",
		} {
			if !hasNote(notes, want) {
				t.Errorf("Expected note %q in %v", want, notes)
			}
		}
		if hasNote(notes, "default commands") {
			t.Error("No replay note expected without default commands")
		}
	})

	t.Run("zero size declares no bounds", func(t *testing.T) {
		sc := &engine.Scenario{
			Name:      "open",
			Obstacles: []engine.Position{{X: -50, Y: 50}},
			Start:     engine.StartPose{X: 100, Y: 100, Heading: engine.West},
			Commands:  "3M",
		}
		notes := Check(sc)
		if hasNote(notes, "outside") {
			t.Errorf("Unexpected bounds note: %v", notes)
		}
		if !hasNote(notes, "end at (97, 100, W) with 0 blocked moves") {
			t.Errorf("Unexpected replay note: %v", notes)
		}
	})

	t.Run("blocked replay", func(t *testing.T) {
		sc := engine.DefaultScenario()
		sc.Start = engine.StartPose{X: 1, Y: 2, Heading: engine.East}
		sc.Commands = "2M"
		if !hasNote(Check(sc), "end at (1, 2, E) with 2 blocked moves") {
			t.Errorf("Expected two blocked moves, got %v", Check(sc))
		}
	})
}
