package scenario

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/wricardo/mcp-training/roversim/sim/engine"
)

func writeScenarioFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write scenario file %s: %v", name, err)
	}
}

const marsJSON = `{
  "name": "mars",
  "width": 10,
  "height": 10,
  "obstacles": [{"x": 2, "y": 2}, {"x": 3, "y": 5}],
  "start": {"x": 0, "y": 0, "heading": "N"},
  "commands": "MMRMLMMR"
}`

const craterYAML = `name: crater
description: ring of rocks
width: 5
height: 5
obstacles:
  - {x: 1, y: 1}
start: {x: 0, y: 0, heading: east}
commands: 2M
`

func newTestManager(t *testing.T, files map[string]string) *Manager {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		writeScenarioFile(t, dir, name, content)
	}
	m, err := NewManager(dir)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	return m
}

func TestNewManager(t *testing.T) {
	t.Run("missing directory", func(t *testing.T) {
		if _, err := NewManager(filepath.Join(t.TempDir(), "absent")); err == nil {
			t.Error("Expected error for missing directory")
		}
	})

	t.Run("empty directory uses built-in default", func(t *testing.T) {
		m := newTestManager(t, nil)
		if m.GetDefault().Name != "classic" {
			t.Errorf("Expected built-in classic default, got %s", m.GetDefault().Name)
		}
	})

	t.Run("prefers mars", func(t *testing.T) {
		m := newTestManager(t, map[string]string{
			"crater.yaml": craterYAML,
			"mars.json":   marsJSON,
		})
		if m.GetDefault().Name != "mars" {
			t.Errorf("Expected mars default, got %s", m.GetDefault().Name)
		}
	})

	t.Run("falls back to first valid file", func(t *testing.T) {
		m := newTestManager(t, map[string]string{
			"a_broken.json": `{"name": "broken", "start": {"heading": "Q"}}`,
			"crater.yaml":   craterYAML,
		})
		if m.GetDefault().Name != "crater" {
			t.Errorf("Expected crater default, got %s", m.GetDefault().Name)
		}
	})
}

func TestLoadScenario(t *testing.T) {
	m := newTestManager(t, map[string]string{
		"mars.json":   marsJSON,
		"crater.yaml": craterYAML,
		"bad.json":    `{"name": "bad", "start": {"heading": "up"}}`,
		"script.yml":  "name: script\nstart: {heading: N}\ncommands: MZM\n",
	})

	tests := []struct {
		name     string
		input    string
		wantName string
		wantErr  error
	}{
		{"json by stem", "mars", "mars", nil},
		{"yaml by stem", "crater", "crater", nil},
		{"with extension", "crater.yaml", "crater", nil},
		{"unknown", "venus", "", ErrScenarioNotFound},
		{"path traversal", "../mars", "", ErrScenarioNotFound},
		{"empty", "", "", ErrScenarioNotFound},
		{"bad heading", "bad", "", ErrInvalidScenario},
		{"bad script", "script", "", ErrInvalidScenario},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc, err := m.LoadScenario(tt.input)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("LoadScenario(%q) failed: %v", tt.input, err)
			}
			if sc.Name != tt.wantName {
				t.Errorf("Expected name %s, got %s", tt.wantName, sc.Name)
			}
		})
	}

	t.Run("yaml heading normalized", func(t *testing.T) {
		sc, _ := m.LoadScenario("crater")
		if sc.Start.Heading != engine.East {
			t.Errorf("Expected heading E, got %s", sc.Start.Heading)
		}
	})

	t.Run("cached", func(t *testing.T) {
		first, _ := m.LoadScenario("mars")
		second, _ := m.LoadScenario("mars.json")
		if first != second {
			t.Error("Expected the same cached scenario instance")
		}
	})
}

func TestListScenarios(t *testing.T) {
	m := newTestManager(t, map[string]string{
		"mars.json":   marsJSON,
		"crater.yaml": craterYAML,
		"bad.json":    `{not json`,
		"notes.txt":   "not a scenario",
	})

	infos, err := m.ListScenarios()
	if err != nil {
		t.Fatalf("ListScenarios failed: %v", err)
	}
	if len(infos) != 2 {
		t.Fatalf("Expected 2 valid scenarios, got %d", len(infos))
	}

	// os.ReadDir returns entries sorted by filename
	if infos[0].ScenarioID != "crater" || infos[1].ScenarioID != "mars" {
		t.Errorf("Unexpected scenario ids: %s, %s", infos[0].ScenarioID, infos[1].ScenarioID)
	}
	if infos[0].Description != "ring of rocks" || infos[0].ObstacleCount != 1 {
		t.Errorf("Unexpected crater info: %+v", infos[0])
	}
	if infos[1].Filename != "mars.json" || infos[1].Width != 10 {
		t.Errorf("Unexpected mars info: %+v", infos[1])
	}
}

func TestSetDefault(t *testing.T) {
	m := newTestManager(t, map[string]string{
		"mars.json":   marsJSON,
		"crater.yaml": craterYAML,
	})

	if err := m.SetDefault("crater"); err != nil {
		t.Fatalf("SetDefault failed: %v", err)
	}
	if m.GetDefault().Name != "crater" {
		t.Errorf("Expected crater default, got %s", m.GetDefault().Name)
	}
	if err := m.SetDefault("venus"); !errors.Is(err, ErrScenarioNotFound) {
		t.Errorf("Expected ErrScenarioNotFound, got %v", err)
	}
	if m.GetDefault().Name != "crater" {
		t.Error("Failed SetDefault should keep the previous default")
	}
}

func TestSaveScenario(t *testing.T) {
	m := newTestManager(t, nil)

	sc := &engine.Scenario{
		Name:      "saved",
		Width:     4,
		Height:    4,
		Obstacles: []engine.Position{{X: 1, Y: 0}},
		Start:     engine.StartPose{Heading: "south"},
		Commands:  "LM",
	}
	if err := m.SaveScenario("saved", sc); err != nil {
		t.Fatalf("SaveScenario failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(m.dir, "saved.json")); err != nil {
		t.Fatalf("Expected saved.json on disk: %v", err)
	}

	// A fresh manager reads it back from disk
	fresh, err := NewManager(m.dir)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	loaded, err := fresh.LoadScenario("saved")
	if err != nil {
		t.Fatalf("LoadScenario failed: %v", err)
	}
	if loaded.Start.Heading != engine.South || len(loaded.Obstacles) != 1 {
		t.Errorf("Unexpected round trip: %+v", loaded)
	}

	badNames := []string{"", "..", "a/b", `a\b`}
	for _, name := range badNames {
		if err := m.SaveScenario(name, engine.DefaultScenario()); !errors.Is(err, ErrInvalidScenario) {
			t.Errorf("SaveScenario(%q): expected ErrInvalidScenario, got %v", name, err)
		}
	}

	invalid := &engine.Scenario{Name: "invalid", Start: engine.StartPose{Heading: "N"}, Commands: "MXM"}
	if err := m.SaveScenario("invalid", invalid); !errors.Is(err, ErrInvalidScenario) {
		t.Errorf("Expected ErrInvalidScenario for bad commands, got %v", err)
	}
}

func TestRefreshCache(t *testing.T) {
	m := newTestManager(t, map[string]string{"crater.yaml": craterYAML})

	if _, err := m.LoadScenario("crater"); err != nil {
		t.Fatalf("LoadScenario failed: %v", err)
	}
	writeScenarioFile(t, m.dir, "mars.json", marsJSON)

	if err := m.RefreshCache(); err != nil {
		t.Fatalf("RefreshCache failed: %v", err)
	}
	if m.GetDefault().Name != "mars" {
		t.Errorf("Expected mars default after refresh, got %s", m.GetDefault().Name)
	}
}

func TestValidate(t *testing.T) {
	if err := Validate(engine.DefaultScenario()); err != nil {
		t.Errorf("Default scenario should be valid: %v", err)
	}

	sc := engine.DefaultScenario()
	sc.Commands = "M?"
	if err := Validate(sc); err == nil {
		t.Error("Expected error for invalid command script")
	}

	sc = engine.DefaultScenario()
	sc.Start.Heading = "NE"
	if err := Validate(sc); err == nil {
		t.Error("Expected error for invalid heading")
	}
}

func TestConcurrentLoad(t *testing.T) {
	m := newTestManager(t, map[string]string{
		"mars.json":   marsJSON,
		"crater.yaml": craterYAML,
	})
	if err := m.RefreshCache(); err != nil {
		t.Fatalf("RefreshCache failed: %v", err)
	}

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := "mars"
			if i%2 == 0 {
				name = "crater"
			}
			if _, err := m.LoadScenario(name); err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("Concurrent load failed: %v", err)
	}
}
