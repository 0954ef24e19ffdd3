// Package engine provides the core simulation for the rover grid simulator.
//
// The engine package implements:
//   - Grid obstacle lookup keyed by exact coordinates
//   - Rover pose (position and heading) with move and turn operations
//   - The closed Command set (Move, TurnLeft, TurnRight) and its dispatch
//   - Replay of command sequences with a per-step trace
//   - Scenario loading and validation from JSON or YAML files
//
// Core Types:
//
// Grid answers whether a coordinate is an obstacle. Rover holds the pose and
// consults its Grid before every move; a move onto an obstacle leaves the
// pose unchanged. SimEngine wraps a Scenario, a Rover and its history for
// long-lived sessions.
//
// Usage:
//
//	grid := engine.NewGrid(10, 10, []engine.Position{{X: 2, Y: 2}, {X: 3, Y: 5}})
//	rover, err := engine.NewRover(0, 0, engine.North, grid)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	for _, cmd := range []engine.Command{engine.Move, engine.TurnRight, engine.Move} {
//		engine.Apply(cmd, rover)
//	}
//
//	fmt.Println(rover.FinalPosition())
//	fmt.Println(rover.StatusReport())
//
// Rules:
//
// North increases y and East increases x. The grid size is recorded but
// never bounds movement, and obstacle coordinates may be any integers.
package engine
