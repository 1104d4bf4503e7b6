package session

import (
	"testing"
	"time"

	"github.com/HyphaGroup/inquisitor/internal/gdb"
)

func TestNew_AssignsIDAndBuffer(t *testing.T) {
	engine := gdb.New(gdb.Config{})
	s := New(engine, 10)
	defer func() { _ = s.Close() }()

	if s.ID == "" {
		t.Error("session ID is empty")
	}
	if s.Events() == nil {
		t.Fatal("Events() = nil")
	}
	if s.Events().Len() != 0 {
		t.Errorf("buffer len = %d, want 0", s.Events().Len())
	}
	if s.StartedAt.IsZero() {
		t.Error("StartedAt is zero")
	}
}

func TestClose_Idempotent(t *testing.T) {
	engine := gdb.New(gdb.Config{})
	s := New(engine, 10)

	if err := s.Close(); err != nil {
		t.Fatalf("Close error = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("second Close error = %v", err)
	}
}

func TestNew_ClaimsEventReceiver(t *testing.T) {
	engine := gdb.New(gdb.Config{})
	s := New(engine, 10)
	defer func() { _ = s.Close() }()

	// Give the drain goroutine a moment to start, then verify the receiver
	// is gone: the session holds the engine's only subscription.
	time.Sleep(10 * time.Millisecond)
	if engine.TakeEventReceiver() != nil {
		t.Error("engine receiver still available after session claimed it")
	}
}
