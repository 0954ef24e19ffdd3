// Package websocket pushes rover state to live watchers.
//
// A central Hub owns the map of sessions to connected clients. Register,
// unregister and broadcast requests all travel over channels to the Run
// goroutine, so the map never needs a lock. Each client has a write pump
// that forwards queued frames and sends pings, and a read pump that only
// drains the connection to notice pongs and disconnects.
//
// Outgoing frames are JSON:
//
//	{"session_id":"3f2a91c0","event":"state_update","state":{...}}
//	{"session_id":"3f2a91c0","event":"reset","data":{"x":0,"y":0,"heading":"N"}}
//
// A reset event carries the start pose and precedes the state update that
// follows it. Clients connect with /ws?session=<id>; session IDs match
// without regard to case. A client whose buffer fills up
// is dropped rather than slowing the hub.
//
// Usage:
//
//	hub := websocket.NewHub()
//	go hub.Run()
//	defer hub.Stop()
//
//	hub.BroadcastToSession(id, engine.GetState())
package websocket
