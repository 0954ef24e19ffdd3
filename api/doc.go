// Package api exposes the rover simulator over HTTP.
//
// Endpoints:
//
// Sessions:
//   - POST   /api/sessions                 create a session ({"scenario_id": "mars"})
//   - GET    /api/sessions                 list sessions (?sort=created|accessed&order=asc|desc&limit=N)
//   - GET    /api/sessions/{id}            session info with current state
//   - DELETE /api/sessions/{id}            drop a session
//
// Rover:
//   - GET  /api/sessions/{id}/state        current state
//   - POST /api/sessions/{id}/commands     run a script ({"commands": "3M R 2(ML)", "reset": false})
//   - POST /api/sessions/{id}/reset        return to the start pose
//   - GET  /api/sessions/{id}/history      paginated steps (?page=1&limit=20&order=desc)
//
// Scenarios:
//   - GET  /api/scenarios                  list scenario files
//   - POST /api/scenarios                  save a scenario (JSON body)
//   - GET  /api/scenarios/{name}           load one scenario
//
// Other:
//   - POST /api/simulate                   one-shot run without a session
//   - GET  /api/health                     liveness
//   - GET  /ws?session={id}                websocket state stream
//
// Errors are returned as {"error": "..."}. Unknown sessions and scenarios
// map to 404, malformed scripts and scenarios to 400.
package api
