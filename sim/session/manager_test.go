package session

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/wricardo/mcp-training/roversim/sim/engine"
)

func createTestScenario() *engine.Scenario {
	return &engine.Scenario{
		Name:      "Test Scenario",
		Width:     5,
		Height:    5,
		Obstacles: []engine.Position{{X: 1, Y: 1}},
		Start:     engine.StartPose{X: 0, Y: 0, Heading: engine.North},
	}
}

func TestManager_Create(t *testing.T) {
	manager := NewManager()
	sc := createTestScenario()

	t.Run("create with custom ID", func(t *testing.T) {
		session, err := manager.Create("test-session", sc)
		if err != nil {
			t.Fatalf("Failed to create session: %v", err)
		}
		if session.ID != "test-session" {
			t.Errorf("Expected session ID 'test-session', got '%s'", session.ID)
		}
		if session.Engine == nil {
			t.Error("Expected engine to be initialized")
		}
		if session.ScenarioID != "Test Scenario" {
			t.Errorf("Expected scenario ID to default to the name, got %q", session.ScenarioID)
		}
	})

	t.Run("create with auto-generated ID", func(t *testing.T) {
		session, err := manager.Create("", sc)
		if err != nil {
			t.Fatalf("Failed to create session: %v", err)
		}
		if len(session.ID) != 8 {
			t.Errorf("Expected 8-character session ID, got %q", session.ID)
		}
	})

	t.Run("duplicate session ID", func(t *testing.T) {
		_, err := manager.Create("test-session", sc)
		if !errors.Is(err, ErrSessionAlreadyExists) {
			t.Errorf("Expected ErrSessionAlreadyExists, got %v", err)
		}
	})

	t.Run("case-insensitive duplicate check", func(t *testing.T) {
		_, err := manager.Create("TEST-SESSION", sc)
		if !errors.Is(err, ErrSessionAlreadyExists) {
			t.Errorf("Expected ErrSessionAlreadyExists for case variant, got %v", err)
		}
	})

	t.Run("invalid ID", func(t *testing.T) {
		_, err := manager.Create("a/b", sc)
		if !errors.Is(err, ErrInvalidSessionID) {
			t.Errorf("Expected ErrInvalidSessionID, got %v", err)
		}
	})

	t.Run("invalid scenario", func(t *testing.T) {
		invalid := createTestScenario()
		invalid.Start.Heading = "Z"
		_, err := manager.Create("invalid-test", invalid)
		if !errors.Is(err, engine.ErrInvalidHeading) {
			t.Errorf("Expected ErrInvalidHeading, got %v", err)
		}
	})
}

func TestManager_GetAndDelete(t *testing.T) {
	manager := NewManager()
	created, _ := manager.Create("Rover-1", createTestScenario())

	got, err := manager.Get("rover-1")
	if err != nil {
		t.Fatalf("Expected case-insensitive lookup to succeed: %v", err)
	}
	if got != created {
		t.Error("Expected the same session instance")
	}

	if _, err := manager.Get("missing"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound, got %v", err)
	}

	if err := manager.Delete("ROVER-1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if manager.Count() != 0 {
		t.Errorf("Expected 0 sessions, got %d", manager.Count())
	}
	if err := manager.Delete("rover-1"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound on second delete, got %v", err)
	}
}

func TestManager_GetOrCreate(t *testing.T) {
	manager := NewManager()
	sc := createTestScenario()

	first, err := manager.GetOrCreate("alpha", sc)
	if err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}
	second, err := manager.GetOrCreate("alpha", sc)
	if err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}
	if first != second {
		t.Error("Expected GetOrCreate to return the existing session")
	}
}

func TestManager_SessionsAreIndependent(t *testing.T) {
	manager := NewManager()
	sc := createTestScenario()

	a, _ := manager.Create("a", sc)
	b, _ := manager.Create("b", sc)

	a.Engine.Execute(engine.Move)
	a.Engine.Execute(engine.Move)

	if b.Engine.GetRoverState() != (engine.RoverState{X: 0, Y: 0, Heading: engine.North}) {
		t.Errorf("Expected session b untouched, got %s", b.Engine.GetRoverState())
	}
	if a.Engine.GetRoverState().Y != 2 {
		t.Errorf("Expected session a at y=2, got %s", a.Engine.GetRoverState())
	}
}

func TestManager_CleanupExpiredSessions(t *testing.T) {
	manager := NewManager()
	sc := createTestScenario()

	old, _ := manager.Create("old", sc)
	manager.Create("fresh", sc)
	old.LastAccessedAt = time.Now().Add(-2 * time.Hour)

	removed := manager.CleanupExpiredSessions(time.Hour)
	if removed != 1 {
		t.Errorf("Expected 1 removed session, got %d", removed)
	}
	if _, err := manager.Get("fresh"); err != nil {
		t.Error("Expected fresh session to remain")
	}
}

func TestManager_UpdateLastAccessed(t *testing.T) {
	manager := NewManager()
	sess, _ := manager.Create("touch", createTestScenario())
	sess.LastAccessedAt = time.Now().Add(-time.Hour)

	if err := manager.UpdateLastAccessed("touch"); err != nil {
		t.Fatalf("UpdateLastAccessed failed: %v", err)
	}
	if time.Since(sess.LastAccessedAt) > time.Minute {
		t.Error("Expected last accessed time to be refreshed")
	}
	if err := manager.UpdateLastAccessed("nope"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound, got %v", err)
	}
}

func TestManager_ConcurrentCreate(t *testing.T) {
	manager := NewManager()
	sc := createTestScenario()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			manager.Create("", sc)
		}()
	}
	wg.Wait()

	if manager.Count() != 20 {
		t.Errorf("Expected 20 sessions, got %d", manager.Count())
	}
}
