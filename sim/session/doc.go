// Package session keeps rover simulations alive between requests.
//
// Each session owns one SimEngine built from a scenario. Session IDs are
// short random identifiers derived from a UUID and are matched
// case-insensitively. Sessions are held in memory only and disappear when
// the process exits or when CleanupExpiredSessions prunes them.
//
// Usage:
//
//	manager := session.NewManager()
//	sess, err := manager.Create("", engine.DefaultScenario())
//	if err != nil {
//		log.Fatal(err)
//	}
//	sess.Engine.Execute(engine.Move)
package session
