// Package service provides the business logic layer for the rover simulator.
//
// The service package implements:
//   - Multi-session rover management
//   - Scenario resolution with a default fallback
//   - Command script compilation and bulk execution
//   - Paginated command history
//   - One-shot simulations that need no session
//
// Core Interfaces:
//
// RoverService is the main service interface used by every transport.
// SessionManager stores sessions and their engines.
// ScenarioManager loads, lists and saves scenarios.
//
// Usage:
//
//	scenarios, _ := scenario.NewManager("scenarios")
//	roverService := service.NewRoverService(session.NewManager(), scenarios)
//
//	info, err := roverService.CreateSession(ctx, "mars")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	result, err := roverService.Execute(ctx, info.ID, "MMRMLMMR", false)
//	fmt.Println(result.FinalPosition)
//	fmt.Println(result.StatusReport)
//
// Errors:
//
// Failures wrap one of the package sentinels (ErrSessionNotFound,
// ErrScenarioNotFound, ErrInvalidScenario, ErrInvalidCommands) so callers
// can map them with errors.Is. A single Execute call runs at most
// engine.MaxBulkCommands commands; longer scripts are truncated and the
// result says so.
package service
