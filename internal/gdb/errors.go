package gdb

import (
	"errors"
	"fmt"
)

// Sentinel errors for engine lifecycle and transport failures. Wrapped
// errors are matched with errors.Is.
var (
	// ErrNotStarted is returned when a command is issued without a live
	// debugger session.
	ErrNotStarted = errors.New("gdb session not started")

	// ErrAlreadyStarted is returned when Start is called on a live engine.
	ErrAlreadyStarted = errors.New("gdb session already started")

	// ErrTimeout is returned when the per-command reply timeout elapses, and
	// by WaitForStop when the target does not stop in time.
	ErrTimeout = errors.New("timeout waiting for gdb")
)

// StartupError wraps a failure to spawn the debugger or wire its pipes.
type StartupError struct {
	Err error
}

func (e *StartupError) Error() string { return fmt.Sprintf("failed to start gdb: %v", e.Err) }
func (e *StartupError) Unwrap() error { return e.Err }

// WriteError wraps a failed stdin write. It usually means the debugger died;
// the session is marked disconnected when one occurs.
type WriteError struct {
	Err error
}

func (e *WriteError) Error() string { return fmt.Sprintf("failed to write to gdb: %v", e.Err) }
func (e *WriteError) Unwrap() error { return e.Err }

// CommandError carries the message of a ^error reply, verbatim.
type CommandError struct {
	Msg string
}

func (e *CommandError) Error() string { return e.Msg }

// ProtocolError reports a well-formed reply that was unexpected for the
// command, or a ^done reply missing a required field.
type ProtocolError struct {
	Msg string
}

func (e *ProtocolError) Error() string { return fmt.Sprintf("protocol error: %s", e.Msg) }
