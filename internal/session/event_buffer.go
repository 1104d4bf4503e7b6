package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/HyphaGroup/inquisitor/internal/gdb"
	"github.com/HyphaGroup/inquisitor/internal/metrics"
)

// EventBuffer is a bounded ring buffer of debugger events with index-based
// resumption. Clients poll with the last index they saw; if they fall behind
// the window they get an explicit "purged" error instead of silent gaps.
//
// Logical indices are monotonically increasing; the physical slice holds the
// window [startIndex, startIndex+len). When full, the oldest event is
// dropped and startIndex advances.
const DefaultEventBufferSize = 1000

// BufferedEvent wraps a debugger event with resumption metadata.
type BufferedEvent struct {
	Index     int       `json:"index"`
	Timestamp time.Time `json:"timestamp"`
	Kind      string    `json:"kind"`
	Event     gdb.Event `json:"event"`
}

// EventBuffer provides bounded event storage with resumption support.
type EventBuffer struct {
	sessionID     string
	events        []*BufferedEvent
	maxSize       int
	startIndex    int
	droppedEvents int64
	mu            sync.RWMutex
}

// NewEventBuffer creates an event buffer for the given session.
func NewEventBuffer(sessionID string, maxSize int) *EventBuffer {
	if maxSize <= 0 {
		maxSize = DefaultEventBufferSize
	}
	return &EventBuffer{
		sessionID: sessionID,
		events:    make([]*BufferedEvent, 0, maxSize),
		maxSize:   maxSize,
	}
}

// Append adds an event to the buffer and returns its index.
func (b *EventBuffer) Append(event gdb.Event) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	index := b.startIndex + len(b.events)
	be := &BufferedEvent{
		Index:     index,
		Timestamp: time.Now(),
		Kind:      event.Kind(),
		Event:     event,
	}

	if len(b.events) >= b.maxSize {
		// Ring buffer - drop oldest event
		b.events = b.events[1:]
		b.startIndex++
		b.droppedEvents++
		metrics.RecordEventDrop()
	}
	b.events = append(b.events, be)
	return index
}

// After returns events after the given index (exclusive). index=-1 returns
// all buffered events. An index before the buffer window is an error.
func (b *EventBuffer) After(index int) ([]*BufferedEvent, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if index == -1 {
		result := make([]*BufferedEvent, len(b.events))
		copy(result, b.events)
		return result, nil
	}

	if index < b.startIndex-1 {
		return nil, fmt.Errorf("events before index %d have been purged (oldest available: %d)", index, b.startIndex)
	}

	start := index - b.startIndex + 1
	if start < 0 {
		start = 0
	}
	if start >= len(b.events) {
		return []*BufferedEvent{}, nil
	}

	result := make([]*BufferedEvent, len(b.events)-start)
	copy(result, b.events[start:])
	return result, nil
}

// LastIndex returns the index of the most recent event, or -1 if empty.
func (b *EventBuffer) LastIndex() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if len(b.events) == 0 {
		return -1
	}
	return b.startIndex + len(b.events) - 1
}

// Len returns the number of events currently buffered.
func (b *EventBuffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.events)
}

// StartIndex returns the logical index of the first buffered event.
func (b *EventBuffer) StartIndex() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.startIndex
}

// DroppedEvents returns the count of events dropped due to overflow.
func (b *EventBuffer) DroppedEvents() int64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.droppedEvents
}

// SessionID returns the session this buffer belongs to.
func (b *EventBuffer) SessionID() string {
	return b.sessionID
}
