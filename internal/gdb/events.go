package gdb

import "github.com/HyphaGroup/inquisitor/internal/mi"

// Event is a decoded asynchronous record published to the engine's single
// subscriber. Kind returns a stable tag for logging, metrics and wire
// serialization.
type Event interface {
	Kind() string
}

// StoppedEvent reports that the target stopped.
type StoppedEvent struct {
	Reason   mi.StopReason `json:"reason"`
	Frame    *mi.Frame     `json:"frame,omitempty"`
	ThreadID string        `json:"thread_id,omitempty"`
}

// RunningEvent reports that the target resumed.
type RunningEvent struct {
	ThreadID string `json:"thread_id,omitempty"`
}

// BreakpointCreatedEvent carries a newly created breakpoint.
type BreakpointCreatedEvent struct {
	Breakpoint mi.Breakpoint `json:"breakpoint"`
}

// BreakpointModifiedEvent carries a modified breakpoint. The breakpoint's
// number is stable for its lifetime; modified notifications reuse it.
type BreakpointModifiedEvent struct {
	Breakpoint mi.Breakpoint `json:"breakpoint"`
}

// BreakpointDeletedEvent carries only the deleted breakpoint's number, as
// reported on the notification itself.
type BreakpointDeletedEvent struct {
	Number string `json:"number"`
}

// ThreadCreatedEvent reports a new debuggee thread.
type ThreadCreatedEvent struct {
	ID      string `json:"id"`
	GroupID string `json:"group_id"`
}

// ThreadExitedEvent reports a debuggee thread exit.
type ThreadExitedEvent struct {
	ID      string `json:"id"`
	GroupID string `json:"group_id"`
}

// ThreadSelectedEvent reports a thread selection change.
type ThreadSelectedEvent struct {
	ID string `json:"id"`
}

// OutputEvent carries console, target or log stream output.
type OutputEvent struct {
	Channel mi.StreamChannel `json:"channel"`
	Content string           `json:"content"`
}

// ErrorEvent carries a non-fatal engine error, such as a reader failure.
type ErrorEvent struct {
	Message string `json:"message"`
}

func (StoppedEvent) Kind() string            { return "stopped" }
func (RunningEvent) Kind() string            { return "running" }
func (BreakpointCreatedEvent) Kind() string  { return "breakpoint_created" }
func (BreakpointModifiedEvent) Kind() string { return "breakpoint_modified" }
func (BreakpointDeletedEvent) Kind() string  { return "breakpoint_deleted" }
func (ThreadCreatedEvent) Kind() string      { return "thread_created" }
func (ThreadExitedEvent) Kind() string       { return "thread_exited" }
func (ThreadSelectedEvent) Kind() string     { return "thread_selected" }
func (OutputEvent) Kind() string             { return "output" }
func (ErrorEvent) Kind() string              { return "error" }
