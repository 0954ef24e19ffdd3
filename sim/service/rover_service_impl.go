package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/wricardo/mcp-training/roversim/sim/engine"
	"github.com/wricardo/mcp-training/roversim/sim/script"
)

var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrScenarioNotFound = errors.New("scenario not found")
	ErrInvalidScenario  = errors.New("invalid scenario")
	ErrInvalidCommands  = errors.New("invalid commands")
)

// roverServiceImpl implements the RoverService interface
type roverServiceImpl struct {
	sessions  SessionManager
	scenarios ScenarioManager
	mu        sync.RWMutex
}

// NewRoverService creates a new rover service instance
func NewRoverService(sessions SessionManager, scenarios ScenarioManager) RoverService {
	return &roverServiceImpl{
		sessions:  sessions,
		scenarios: scenarios,
	}
}

// resolveScenario loads a scenario by id, falling back to the default
func (s *roverServiceImpl) resolveScenario(scenarioID string) (*engine.Scenario, string, error) {
	if scenarioID == "" {
		sc := s.scenarios.GetDefault()
		return sc, sc.Name, nil
	}

	sc, err := s.scenarios.LoadScenario(scenarioID)
	if err != nil {
		if errors.Is(err, ErrScenarioNotFound) {
			var ids []string
			if infos, listErr := s.scenarios.ListScenarios(); listErr == nil {
				for _, info := range infos {
					ids = append(ids, info.ScenarioID)
				}
			}
			return nil, "", fmt.Errorf("%w: '%s' (available: %v)", ErrScenarioNotFound, scenarioID, ids)
		}
		return nil, "", fmt.Errorf("failed to load scenario %s: %w", scenarioID, err)
	}
	return sc, scenarioID, nil
}

func newSessionInfo(sess *Session) *SessionInfo {
	return &SessionInfo{
		ID:             sess.ID,
		ScenarioID:     sess.ScenarioID,
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessedAt,
		State:          sess.Engine.GetState(),
		Scenario:       sess.Scenario,
	}
}

// CreateSession creates a new rover session
func (s *roverServiceImpl) CreateSession(ctx context.Context, scenarioID string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sc, id, err := s.resolveScenario(scenarioID)
	if err != nil {
		return nil, err
	}

	sess, err := s.sessions.Create("", sc)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	sess.ScenarioID = id

	return newSessionInfo(sess), nil
}

// GetSession retrieves session information
func (s *roverServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}
	return newSessionInfo(sess), nil
}

// ListSessions returns all active sessions
func (s *roverServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, newSessionInfo(sess))
	}
	return result, nil
}

// DeleteSession removes a session
func (s *roverServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.sessions.Delete(sessionID); err != nil {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	return nil
}

// Execute compiles a command script and runs it against a session's rover
func (s *roverServiceImpl) Execute(ctx context.Context, sessionID, commands string, reset bool) (*ExecuteResult, error) {
	cmds, err := script.Compile(commands)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCommands, err)
	}
	if len(cmds) == 0 && !reset {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCommands, script.ErrEmptyScript)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	events := []RoverEvent{}
	if reset {
		state := sess.Engine.Reset()
		events = append(events, RoverEvent{
			Type:      "reset",
			Message:   "Rover returned to start pose",
			Timestamp: time.Now(),
			Position:  state.Rover.Position(),
		})
	}

	result := &ExecuteResult{
		RequestedCommands: len(cmds),
		Start:             sess.Engine.GetRoverState(),
	}

	if len(cmds) > engine.MaxBulkCommands {
		cmds = cmds[:engine.MaxBulkCommands]
		result.Truncated = true
		result.Limit = engine.MaxBulkCommands
	}

	steps, err := sess.Engine.BulkExecute(cmds)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCommands, err)
	}

	for _, step := range steps {
		if step.Blocked {
			result.BlockedMoves++
		}
		events = append(events, stepEvent(step))
	}

	state := sess.Engine.GetState()
	result.ExecutedCommands = len(steps)
	result.End = state.Rover
	result.Steps = steps
	result.Events = events
	result.FinalPosition = state.FinalPosition
	result.StatusReport = state.StatusReport
	result.State = state

	return result, nil
}

func stepEvent(step engine.Step) RoverEvent {
	ev := RoverEvent{
		Timestamp: time.Unix(step.Timestamp, 0),
		Position:  step.To.Position(),
	}
	switch {
	case step.Blocked:
		ahead := step.From.Position().Add(step.From.Heading.Delta())
		ev.Type = "blocked"
		ev.Message = fmt.Sprintf("Obstacle at %s, staying at %s", ahead, step.From.Position())
	case step.Command == engine.Move:
		ev.Type = "move"
		ev.Message = fmt.Sprintf("Moved %s to %s", step.To.Heading.Name(), step.To.Position())
	default:
		ev.Type = "turn"
		ev.Message = fmt.Sprintf("Turned from %s to %s", step.From.Heading, step.To.Heading)
	}
	return ev
}

// Reset returns a session's rover to its start pose
func (s *roverServiceImpl) Reset(ctx context.Context, sessionID string) (*engine.SimState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}
	return sess.Engine.Reset(), nil
}

// GetState returns the current simulation state for a session
func (s *roverServiceImpl) GetState(ctx context.Context, sessionID string) (*engine.SimState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}
	return sess.Engine.GetState(), nil
}

// GetHistory returns a page of a session's command history
func (s *roverServiceImpl) GetHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	history := sess.Engine.GetHistory()
	total := len(history)

	// Apply defaults
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	if opts.Limit > 100 {
		opts.Limit = 100
	}
	if opts.Order != "asc" {
		opts.Order = "desc"
	}

	totalPages := (total + opts.Limit - 1) / opts.Limit
	if totalPages == 0 {
		totalPages = 1
	}

	// Pages past the end are empty; bounding first keeps start from overflowing
	start, end := total, total
	if opts.Page <= totalPages {
		start = (opts.Page - 1) * opts.Limit
		end = min(start+opts.Limit, total)
	}

	steps := []engine.Step{}
	if start < total {
		if opts.Order == "desc" {
			// Most recent first
			for i := total - 1 - start; i >= total-end; i-- {
				steps = append(steps, history[i])
			}
		} else {
			steps = append(steps, history[start:end]...)
		}
	}

	return &HistoryResponse{
		Steps:         steps,
		TotalCommands: total,
		Page:          opts.Page,
		PageSize:      opts.Limit,
		TotalPages:    totalPages,
		HasNext:       opts.Page < totalPages,
		HasPrevious:   opts.Page > 1,
	}, nil
}

// Simulate runs a scenario from its start pose without creating a session
func (s *roverServiceImpl) Simulate(ctx context.Context, req SimulateRequest) (*SimulationResult, error) {
	sc := req.Scenario
	if sc == nil {
		var err error
		s.mu.RLock()
		sc, _, err = s.resolveScenario(req.ScenarioID)
		s.mu.RUnlock()
		if err != nil {
			return nil, err
		}
	}

	eng, err := engine.NewEngine(sc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidScenario, err)
	}

	source := req.Commands
	if source == "" {
		source = sc.Commands
	}
	cmds, err := script.Compile(source)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCommands, err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	steps, err := eng.BulkExecute(cmds)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCommands, err)
	}

	state := eng.GetState()
	return &SimulationResult{
		ScenarioName:  state.ScenarioName,
		Commands:      engine.FormatCommands(cmds),
		Steps:         steps,
		Final:         state.Rover,
		BlockedMoves:  state.BlockedMoves,
		FinalPosition: state.FinalPosition,
		StatusReport:  state.StatusReport,
	}, nil
}

// ListScenarios lists available scenarios
func (s *roverServiceImpl) ListScenarios(ctx context.Context) ([]*ScenarioInfo, error) {
	return s.scenarios.ListScenarios()
}

// LoadScenario loads a scenario by name
func (s *roverServiceImpl) LoadScenario(ctx context.Context, scenarioID string) (*engine.Scenario, error) {
	return s.scenarios.LoadScenario(scenarioID)
}

// SaveScenario saves a scenario under the given name
func (s *roverServiceImpl) SaveScenario(ctx context.Context, scenarioID string, sc *engine.Scenario) error {
	return s.scenarios.SaveScenario(scenarioID, sc)
}

func (s *roverServiceImpl) getSession(sessionID string) (*Session, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	s.sessions.UpdateLastAccessed(sessionID)
	return sess, nil
}
