// Package session ties one debugger engine to a client-facing debug session:
// a stable identifier, the event buffer clients poll, and the drain goroutine
// that moves engine events into it.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/HyphaGroup/inquisitor/internal/gdb"
	"github.com/HyphaGroup/inquisitor/internal/logger"
)

// Session owns a running engine and buffers its events for polling clients.
type Session struct {
	ID        string
	Engine    *gdb.Engine
	StartedAt time.Time

	buffer   *EventBuffer
	quit     chan struct{}
	quitOnce sync.Once
}

// New wraps a started engine in a session and begins draining its event
// receiver into the buffer. The engine's receiver is claimed here; it can be
// taken only once per engine.
func New(engine *gdb.Engine, bufferSize int) *Session {
	s := &Session{
		ID:        uuid.NewString(),
		Engine:    engine,
		StartedAt: time.Now(),
		quit:      make(chan struct{}),
	}
	s.buffer = NewEventBuffer(s.ID, bufferSize)

	events := engine.TakeEventReceiver()
	go s.drain(events)
	return s
}

func (s *Session) drain(events <-chan gdb.Event) {
	if events == nil {
		logger.Error("session %s: event receiver already taken", s.ID)
		return
	}
	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			s.buffer.Append(event)
		case <-s.quit:
			return
		}
	}
}

// Events returns the session's event buffer.
func (s *Session) Events() *EventBuffer {
	return s.buffer
}

// Close stops the drain goroutine and the engine.
func (s *Session) Close() error {
	s.quitOnce.Do(func() { close(s.quit) })
	return s.Engine.Stop()
}
