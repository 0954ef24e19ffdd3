package scenario

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/wricardo/mcp-training/roversim/sim/engine"
	"github.com/wricardo/mcp-training/roversim/sim/script"
	"github.com/wricardo/mcp-training/roversim/sim/service"
)

var (
	ErrScenarioNotFound = service.ErrScenarioNotFound
	ErrInvalidScenario  = service.ErrInvalidScenario
)

// DefaultScenarioName is the file stem preferred as the default scenario
const DefaultScenarioName = "mars"

var extensions = []string{".json", ".yaml", ".yml"}

// Manager handles scenario loading and caching
type Manager struct {
	dir             string
	defaultScenario *engine.Scenario
	scenarios       map[string]*engine.Scenario
	mu              sync.RWMutex
}

// NewManager creates a new scenario manager for the given directory
func NewManager(dir string) (*Manager, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil, fmt.Errorf("scenario directory does not exist: %s", dir)
	}

	m := &Manager{
		dir:       dir,
		scenarios: make(map[string]*engine.Scenario),
	}

	if err := m.loadDefaultScenario(); err != nil {
		return nil, fmt.Errorf("failed to load default scenario: %w", err)
	}

	return m, nil
}

// Validate runs the engine checks plus a compile of the default command script
func Validate(sc *engine.Scenario) error {
	if err := engine.ValidateScenario(sc); err != nil {
		return err
	}
	if _, err := script.Compile(sc.Commands); err != nil {
		return fmt.Errorf("scenario validation: commands: %w", err)
	}
	return nil
}

// LoadScenario loads a scenario by name, trying each supported extension
func (m *Manager) LoadScenario(name string) (*engine.Scenario, error) {
	name = stem(name)
	if name == "" || strings.ContainsAny(name, `/\`) {
		return nil, ErrScenarioNotFound
	}

	m.mu.RLock()
	if sc, exists := m.scenarios[name]; exists {
		m.mu.RUnlock()
		return sc, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring write lock
	if sc, exists := m.scenarios[name]; exists {
		return sc, nil
	}

	path, ok := m.find(name)
	if !ok {
		return nil, ErrScenarioNotFound
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	sc, err := engine.ParseScenario(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidScenario, err)
	}
	if err := Validate(sc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidScenario, err)
	}

	m.scenarios[name] = sc
	return sc, nil
}

// ListScenarios returns information about all valid scenarios on disk
func (m *Manager) ListScenarios() ([]*service.ScenarioInfo, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario directory: %w", err)
	}

	var infos []*service.ScenarioInfo
	seen := make(map[string]bool)

	for _, entry := range entries {
		if entry.IsDir() || !engine.IsScenarioFile(entry.Name()) {
			continue
		}

		name := stem(entry.Name())
		if seen[name] {
			continue
		}

		sc, err := m.LoadScenario(name)
		if err != nil {
			// Skip invalid scenarios
			continue
		}
		seen[name] = true

		infos = append(infos, &service.ScenarioInfo{
			Filename:      entry.Name(),
			ScenarioID:    name,
			Name:          sc.Name,
			Description:   sc.Description,
			Width:         sc.Width,
			Height:        sc.Height,
			ObstacleCount: len(sc.Obstacles),
			Start:         sc.Start,
		})
	}

	return infos, nil
}

// GetDefault returns the default scenario
func (m *Manager) GetDefault() *engine.Scenario {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultScenario
}

// SetDefault sets the default scenario by name
func (m *Manager) SetDefault(name string) error {
	sc, err := m.LoadScenario(name)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultScenario = sc
	return nil
}

// RefreshCache drops all cached scenarios and reloads the default
func (m *Manager) RefreshCache() error {
	m.mu.Lock()
	m.scenarios = make(map[string]*engine.Scenario)
	m.mu.Unlock()

	return m.loadDefaultScenario()
}

// SaveScenario validates and writes a scenario to disk as JSON
func (m *Manager) SaveScenario(name string, sc *engine.Scenario) error {
	if err := Validate(sc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidScenario, err)
	}

	name = stem(name)
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return fmt.Errorf("%w: bad scenario name %q", ErrInvalidScenario, name)
	}

	data, err := json.MarshalIndent(sc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal scenario: %w", err)
	}

	path := filepath.Join(m.dir, name+".json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write scenario file: %w", err)
	}

	m.mu.Lock()
	m.scenarios[name] = sc
	m.mu.Unlock()

	return nil
}

// loadDefaultScenario prefers mars.*, then the first valid file, then the
// built-in classic scenario
func (m *Manager) loadDefaultScenario() error {
	sc, err := m.LoadScenario(DefaultScenarioName)
	if err != nil {
		infos, listErr := m.ListScenarios()
		if listErr != nil || len(infos) == 0 {
			sc = engine.DefaultScenario()
		} else if sc, err = m.LoadScenario(infos[0].ScenarioID); err != nil {
			sc = engine.DefaultScenario()
		}
	}

	m.mu.Lock()
	m.defaultScenario = sc
	m.mu.Unlock()
	return nil
}

func (m *Manager) find(name string) (string, bool) {
	for _, ext := range extensions {
		path := filepath.Join(m.dir, name+ext)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, true
		}
	}
	return "", false
}

func stem(name string) string {
	if engine.IsScenarioFile(name) {
		return strings.TrimSuffix(name, filepath.Ext(name))
	}
	return name
}
