package service

import (
	"context"
	"time"

	"github.com/wricardo/mcp-training/roversim/sim/engine"
)

// RoverService defines all simulation operations exposed to transports
type RoverService interface {
	// Session Management
	CreateSession(ctx context.Context, scenarioName string) (*SessionInfo, error)
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	ListSessions(ctx context.Context) ([]*SessionInfo, error)
	DeleteSession(ctx context.Context, sessionID string) error

	// Rover Operations
	Execute(ctx context.Context, sessionID, commands string, reset bool) (*ExecuteResult, error)
	Reset(ctx context.Context, sessionID string) (*engine.SimState, error)

	// Rover State
	GetState(ctx context.Context, sessionID string) (*engine.SimState, error)
	GetHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error)

	// One-shot simulation without a session
	Simulate(ctx context.Context, req SimulateRequest) (*SimulationResult, error)

	// Scenarios
	ListScenarios(ctx context.Context) ([]*ScenarioInfo, error)
	LoadScenario(ctx context.Context, scenarioName string) (*engine.Scenario, error)
	SaveScenario(ctx context.Context, scenarioName string, sc *engine.Scenario) error
}

// SessionManager defines session storage operations
type SessionManager interface {
	Create(id string, sc *engine.Scenario) (*Session, error)
	Get(id string) (*Session, error)
	GetOrCreate(id string, sc *engine.Scenario) (*Session, error)
	List() []*Session
	Delete(id string) error
	UpdateLastAccessed(id string) error
}

// ScenarioManager handles scenario loading
type ScenarioManager interface {
	LoadScenario(name string) (*engine.Scenario, error)
	ListScenarios() ([]*ScenarioInfo, error)
	GetDefault() *engine.Scenario
	SaveScenario(name string, sc *engine.Scenario) error
}

// Session represents an active rover simulation
type Session struct {
	ID             string
	Engine         *engine.SimEngine
	Scenario       *engine.Scenario
	ScenarioID     string
	CreatedAt      time.Time
	LastAccessedAt time.Time
}
