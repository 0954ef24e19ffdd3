package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/wricardo/mcp-training/roversim/sim/engine"
	"github.com/wricardo/mcp-training/roversim/sim/service"
)

// Client is a thin MCP server that proxies tool calls to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API at baseURL
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Rover Grid Simulator",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Rover Grid Simulator - MCP Interface

A rover sits on an unbounded integer grid with point obstacles. North is +y,
East is +x. Commands are M (move one cell forward), L and R (turn 90 degrees
in place). A move into an obstacle is silently skipped.

Command scripts accept repeat counts and groups: "3M R 2(ML)" expands to
MMMRMLML.

AVAILABLE TOOLS:
- simulate: one-shot run of a scenario, no session needed
- create_session: start a persistent rover session
- execute_commands: run a script against a session
- rover_state: current position, heading and 3x3 local view
- reset_rover: return the rover to its start pose
- command_history: paginated step log
- list_scenarios: scenario files on the server
- list_sessions: active sessions`),
	)

	c.registerTools()
}

func sessionIDProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Session ID",
	}
}

func (c *Client) registerTools() {
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "simulate",
		Description: "Run a command script from a scenario's start pose and return the final position",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"scenario_id": map[string]interface{}{
					"type":        "string",
					"description": "Scenario to run (optional, defaults to the server default)",
				},
				"commands": map[string]interface{}{
					"type":        "string",
					"description": "Command script, e.g. MMRMLMMR (optional, defaults to the scenario's script)",
				},
			},
		},
	}, c.handleSimulate)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_session",
		Description: "Create a new rover session with optional scenario selection",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"scenario_id": map[string]interface{}{
					"type":        "string",
					"description": "Scenario to load (optional)",
				},
			},
		},
	}, c.handleCreateSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "execute_commands",
		Description: "Execute a command script (M, L, R with optional repeat counts and groups) against a session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
				"commands": map[string]interface{}{
					"type":        "string",
					"description": "Command script, e.g. \"MMRMLMMR\" or \"2M R 3(ML)\"",
				},
				"reset": map[string]interface{}{
					"type":        "boolean",
					"description": "Reset to the start pose before running",
				},
			},
			Required: []string{"session_id", "commands"},
		},
	}, c.handleExecute)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "rover_state",
		Description: "Get the rover's current state",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"session_id": sessionIDProperty()},
			Required:   []string{"session_id"},
		},
	}, c.handleState)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "reset_rover",
		Description: "Return the rover to its scenario's start pose",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"session_id": sessionIDProperty()},
			Required:   []string{"session_id"},
		},
	}, c.handleReset)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "command_history",
		Description: "Get a page of the session's executed commands",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
				"page": map[string]interface{}{
					"type":        "number",
					"description": "Page number (default 1)",
				},
				"limit": map[string]interface{}{
					"type":        "number",
					"description": "Steps per page (default 20, max 100)",
				},
				"order": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"asc", "desc"},
					"description": "Sort order (default desc)",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleHistory)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_scenarios",
		Description: "List available scenarios",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListScenarios)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_sessions",
		Description: "List all active rover sessions",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListSessions)
}

// GetMCPServer returns the underlying MCP server
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// apiCall performs a REST request and decodes the JSON response into result
func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}
	return nil
}

func arguments(request mcp.CallToolRequest) map[string]interface{} {
	args, _ := request.Params.Arguments.(map[string]interface{})
	if args == nil {
		args = map[string]interface{}{}
	}
	return args
}

func sessionPath(sessionID, suffix string) string {
	return "/api/sessions/" + url.PathEscape(sessionID) + suffix
}

func (c *Client) handleSimulate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	scenarioID, _ := args["scenario_id"].(string)
	commands, _ := args["commands"].(string)

	var result service.SimulationResult
	err := c.apiCall(ctx, "POST", "/api/simulate", service.SimulateRequest{
		ScenarioID: scenarioID,
		Commands:   commands,
	}, &result)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSimulation(&result)), nil
}

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	scenarioID, _ := args["scenario_id"].(string)

	body := map[string]string{}
	if scenarioID != "" {
		body["scenario_id"] = scenarioID
	}

	var info service.SessionInfo
	if err := c.apiCall(ctx, "POST", "/api/sessions", body, &info); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	text := fmt.Sprintf("Session %s created (scenario: %s)\n\n%s", info.ID, info.ScenarioID, formatState(info.State))
	return mcp.NewToolResultText(text), nil
}

func (c *Client) handleExecute(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)
	commands, _ := args["commands"].(string)
	reset, _ := args["reset"].(bool)

	if sessionID == "" {
		return mcp.NewToolResultError("session_id is required"), nil
	}

	body := map[string]interface{}{
		"commands": commands,
		"reset":    reset,
	}

	var result service.ExecuteResult
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/commands"), body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatExecuteResult(&result)), nil
}

func (c *Client) handleState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	var state engine.SimState
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, "/state"), nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatState(&state)), nil
}

func (c *Client) handleReset(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	var resp struct {
		Message string           `json:"message"`
		State   *engine.SimState `json:"state"`
	}
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/reset"), nil, &resp); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText("Rover reset.\n\n" + formatState(resp.State)), nil
}

func (c *Client) handleHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)

	query := url.Values{}
	if page, ok := args["page"].(float64); ok && page > 0 {
		query.Set("page", fmt.Sprintf("%d", int(page)))
	}
	if limit, ok := args["limit"].(float64); ok && limit > 0 {
		query.Set("limit", fmt.Sprintf("%d", int(limit)))
	}
	if order, ok := args["order"].(string); ok && order != "" {
		query.Set("order", order)
	}

	path := sessionPath(sessionID, "/history")
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var history service.HistoryResponse
	if err := c.apiCall(ctx, "GET", path, nil, &history); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatHistory(&history)), nil
}

func (c *Client) handleListScenarios(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var scenarios []*service.ScenarioInfo
	if err := c.apiCall(ctx, "GET", "/api/scenarios", nil, &scenarios); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if len(scenarios) == 0 {
		return mcp.NewToolResultText("No scenario files found; the built-in default is used."), nil
	}

	var b strings.Builder
	b.WriteString("Available scenarios:\n")
	for _, sc := range scenarios {
		fmt.Fprintf(&b, "- %s: %s (%dx%d, %d obstacles, start %d,%d %s)",
			sc.ScenarioID, sc.Name, sc.Width, sc.Height, sc.ObstacleCount,
			sc.Start.X, sc.Start.Y, sc.Start.Heading)
		if sc.Description != "" {
			fmt.Fprintf(&b, " - %s", sc.Description)
		}
		b.WriteString("\n")
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var resp struct {
		Count    int                    `json:"count"`
		Sessions []*service.SessionInfo `json:"sessions"`
	}
	if err := c.apiCall(ctx, "GET", "/api/sessions", nil, &resp); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if resp.Count == 0 {
		return mcp.NewToolResultText("No active sessions."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Active sessions (%d):\n", resp.Count)
	for _, s := range resp.Sessions {
		pose := "?"
		if s.State != nil {
			pose = s.State.Rover.String()
		}
		fmt.Fprintf(&b, "- %s [%s] rover %s\n", s.ID, s.ScenarioID, pose)
	}
	return mcp.NewToolResultText(b.String()), nil
}

// Formatting helpers

func formatState(state *engine.SimState) string {
	if state == nil {
		return "No state available."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Scenario: %s\n", state.ScenarioName)
	fmt.Fprintf(&b, "%s\n", state.FinalPosition)
	fmt.Fprintf(&b, "%s\n", state.StatusReport)
	fmt.Fprintf(&b, "Commands: %d total, %d since reset, %d blocked\n",
		state.TotalCommands, state.CurrentCommands, state.BlockedMoves)
	if len(state.LocalView) > 0 {
		b.WriteString("Local view (north up):\n")
		for _, row := range state.LocalView {
			fmt.Fprintf(&b, "  %s\n", row)
		}
	}
	return b.String()
}

func formatStep(step engine.Step) string {
	line := fmt.Sprintf("%3d. %s %s -> %s", step.Index, step.Command, step.From, step.To)
	if step.Blocked {
		line += " (blocked)"
	}
	return line
}

func formatExecuteResult(result *service.ExecuteResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Executed %d/%d commands", result.ExecutedCommands, result.RequestedCommands)
	if result.Truncated {
		fmt.Fprintf(&b, " (truncated at %d)", result.Limit)
	}
	fmt.Fprintf(&b, ", %d blocked\n", result.BlockedMoves)
	fmt.Fprintf(&b, "Start %s -> End %s\n", result.Start, result.End)
	for _, step := range result.Steps {
		b.WriteString(formatStep(step))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(formatState(result.State))
	return b.String()
}

func formatSimulation(result *service.SimulationResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Scenario %s, commands %q\n", result.ScenarioName, result.Commands)
	for _, step := range result.Steps {
		b.WriteString(formatStep(step))
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "%s\n%s\n", result.FinalPosition, result.StatusReport)
	if result.BlockedMoves > 0 {
		fmt.Fprintf(&b, "Blocked moves: %d\n", result.BlockedMoves)
	}
	return b.String()
}

func formatHistory(history *service.HistoryResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "History page %d/%d (%d commands total)\n",
		history.Page, history.TotalPages, history.TotalCommands)
	for _, step := range history.Steps {
		b.WriteString(formatStep(step))
		b.WriteString("\n")
	}
	return b.String()
}
