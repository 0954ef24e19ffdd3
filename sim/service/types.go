package service

import (
	"time"

	"github.com/wricardo/mcp-training/roversim/sim/engine"
)

// SessionInfo provides information about a rover session
type SessionInfo struct {
	ID             string           `json:"id"`
	ScenarioID     string           `json:"scenario_id"`
	CreatedAt      time.Time        `json:"created_at"`
	LastAccessedAt time.Time        `json:"last_accessed_at"`
	State          *engine.SimState `json:"state"`
	Scenario       *engine.Scenario `json:"scenario"`
}

// ExecuteResult contains the outcome of running a command script
type ExecuteResult struct {
	// Summary
	RequestedCommands int  `json:"requested_commands"`
	ExecutedCommands  int  `json:"executed_commands"`
	BlockedMoves      int  `json:"blocked_moves"`
	Truncated         bool `json:"truncated,omitempty"`
	Limit             int  `json:"limit,omitempty"`

	// Start/end snapshot
	Start engine.RoverState `json:"start"`
	End   engine.RoverState `json:"end"`

	// Per-step trace for this call only
	Steps  []engine.Step `json:"steps"`
	Events []RoverEvent  `json:"events,omitempty"`

	FinalPosition string           `json:"final_position"`
	StatusReport  string           `json:"status_report"`
	State         *engine.SimState `json:"state"`
}

// SimulateRequest describes a one-shot simulation. When Scenario is nil the
// named scenario (or the default) is used; when Commands is empty the
// scenario's own command script runs.
type SimulateRequest struct {
	ScenarioID string           `json:"scenario_id,omitempty"`
	Scenario   *engine.Scenario `json:"scenario,omitempty"`
	Commands   string           `json:"commands,omitempty"`
}

// SimulationResult is the outcome of a one-shot simulation
type SimulationResult struct {
	ScenarioName  string            `json:"scenario_name"`
	Commands      string            `json:"commands"`
	Steps         []engine.Step     `json:"steps"`
	Final         engine.RoverState `json:"final"`
	BlockedMoves  int               `json:"blocked_moves"`
	FinalPosition string            `json:"final_position"`
	StatusReport  string            `json:"status_report"`
}

// RoverEvent represents something notable that happened during a call
type RoverEvent struct {
	Type      string          `json:"type"` // "reset", "move", "blocked", "turn"
	Message   string          `json:"message"`
	Timestamp time.Time       `json:"timestamp"`
	Position  engine.Position `json:"position"`
}

// HistoryOptions configures command history retrieval
type HistoryOptions struct {
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Order string `json:"order"` // "asc" or "desc"
}

// HistoryResponse contains paginated command history
type HistoryResponse struct {
	Steps         []engine.Step `json:"steps"`
	TotalCommands int           `json:"total_commands"`
	Page          int           `json:"page"`
	PageSize      int           `json:"page_size"`
	TotalPages    int           `json:"total_pages"`
	HasNext       bool          `json:"has_next"`
	HasPrevious   bool          `json:"has_previous"`
}

// ScenarioInfo provides summary information about a scenario
type ScenarioInfo struct {
	Filename      string           `json:"filename"`
	ScenarioID    string           `json:"scenario_id"` // The identifier to use for session creation
	Name          string           `json:"name"`
	Description   string           `json:"description"`
	Width         int              `json:"width"`
	Height        int              `json:"height"`
	ObstacleCount int              `json:"obstacle_count"`
	Start         engine.StartPose `json:"start"`
}
