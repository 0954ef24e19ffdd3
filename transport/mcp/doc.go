// Package mcp exposes the rover simulator to AI agents over the Model
// Context Protocol.
//
// The Client is a thin proxy: every tool call becomes a REST request against
// the api package, so MCP agents, websocket watchers and plain HTTP callers
// all see the same sessions.
//
// Tools:
//   - simulate: one-shot run of a scenario and script
//   - create_session: start a rover session
//   - execute_commands: run a command script against a session
//   - rover_state: current pose, counters and 3x3 local view
//   - reset_rover: return to the start pose
//   - command_history: paginated step log
//   - list_scenarios: scenario files known to the server
//   - list_sessions: active sessions
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	server.ServeStdio(client.GetMCPServer())
package mcp
