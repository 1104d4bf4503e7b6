package gdb

import (
	"fmt"
	"time"

	"github.com/HyphaGroup/inquisitor/internal/mi"
)

// Timeouts for waiting on the stopped flag after execution commands.
const (
	continueTimeout = 60 * time.Second
	stepTimeout     = 5 * time.Second
)

func errorMessage(results []mi.Result) string {
	if msg, ok := mi.FindString(results, "msg"); ok {
		return msg
	}
	return "unknown error"
}

// checkReply validates a reply class against the accepted set. ^error maps
// to CommandError with the debugger's message verbatim; ^exit marks the
// session disconnected; anything else unexpected is a ProtocolError.
func (e *Engine) checkReply(rec mi.ResultRecord, accept ...mi.ResultClass) error {
	for _, class := range accept {
		if rec.Class == class {
			return nil
		}
	}
	switch rec.Class {
	case mi.ResultError:
		return &CommandError{Msg: errorMessage(rec.Results)}
	case mi.ResultExit:
		e.state.update(func(s *SessionState) {
			s.Connected = false
			s.Running = false
		})
		return &ProtocolError{Msg: "debugger exited"}
	}
	return &ProtocolError{Msg: fmt.Sprintf("unexpected reply class %q", rec.Class)}
}

// LoadExecutable loads an executable and its symbols.
func (e *Engine) LoadExecutable(path string) error {
	rec, err := e.Send(fmt.Sprintf("file-exec-and-symbols %s", path))
	if err != nil {
		return err
	}
	if err := e.checkReply(rec, mi.ResultDone); err != nil {
		return err
	}
	e.state.update(func(s *SessionState) { s.Executable = path })
	return nil
}

// TargetConnectRemote connects to a remote target. ^connected and ^done are
// both accepted; GDB versions differ.
func (e *Engine) TargetConnectRemote(target RemoteTarget) error {
	return e.targetSelect("remote", target)
}

// TargetConnectExtendedRemote connects to an extended-remote target.
func (e *Engine) TargetConnectExtendedRemote(target RemoteTarget) error {
	return e.targetSelect("extended-remote", target)
}

func (e *Engine) targetSelect(kind string, target RemoteTarget) error {
	rec, err := e.Send(fmt.Sprintf("target-select %s %s", kind, target))
	if err != nil {
		return err
	}
	if err := e.checkReply(rec, mi.ResultConnected, mi.ResultDone); err != nil {
		return err
	}
	e.state.update(func(s *SessionState) { s.TargetRemote = true })
	return nil
}

// TargetDisconnect disconnects from the remote target.
func (e *Engine) TargetDisconnect() error {
	rec, err := e.Send("target-disconnect")
	if err != nil {
		return err
	}
	if err := e.checkReply(rec, mi.ResultDone); err != nil {
		return err
	}
	e.state.update(func(s *SessionState) { s.TargetRemote = false })
	return nil
}

// SetArchitecture switches the target architecture.
func (e *Engine) SetArchitecture(arch string) error {
	rec, err := e.Send(fmt.Sprintf("gdb-set architecture %s", arch))
	if err != nil {
		return err
	}
	if err := e.checkReply(rec, mi.ResultDone); err != nil {
		return err
	}
	e.state.update(func(s *SessionState) { s.Architecture = arch })
	return nil
}

// BreakInsert inserts a breakpoint at location (function, file:line or
// *address) and returns the decoded breakpoint.
func (e *Engine) BreakInsert(location string, temporary bool, condition string) (*mi.Breakpoint, error) {
	command := "break-insert"
	if temporary {
		command += " -t"
	}
	if condition != "" {
		command += fmt.Sprintf(" -c %q", condition)
	}
	command += " " + location

	rec, err := e.Send(command)
	if err != nil {
		return nil, err
	}
	if err := e.checkReply(rec, mi.ResultDone); err != nil {
		return nil, err
	}
	bp := mi.DecodeBreakpoint(rec.Results)
	if bp == nil {
		return nil, &ProtocolError{Msg: "no bkpt in break-insert reply"}
	}
	return bp, nil
}

// BreakDelete deletes a breakpoint by number.
func (e *Engine) BreakDelete(number string) error {
	return e.simpleDone(fmt.Sprintf("break-delete %s", number))
}

// BreakEnable enables a breakpoint by number.
func (e *Engine) BreakEnable(number string) error {
	return e.simpleDone(fmt.Sprintf("break-enable %s", number))
}

// BreakDisable disables a breakpoint by number.
func (e *Engine) BreakDisable(number string) error {
	return e.simpleDone(fmt.Sprintf("break-disable %s", number))
}

// BreakList lists all breakpoints.
func (e *Engine) BreakList() ([]mi.Breakpoint, error) {
	rec, err := e.Send("break-list")
	if err != nil {
		return nil, err
	}
	if err := e.checkReply(rec, mi.ResultDone); err != nil {
		return nil, err
	}
	return mi.DecodeBreakpointList(rec.Results), nil
}

// WatchInsert inserts a watchpoint on an expression. The kind selects the
// break-watch flag: write (none), read (-r) or access (-a).
func (e *Engine) WatchInsert(kind mi.WatchpointKind, expression string) (*mi.Watchpoint, error) {
	command := "break-watch"
	switch kind {
	case mi.WatchRead:
		command += " -r"
	case mi.WatchAccess:
		command += " -a"
	}
	command += " " + expression

	rec, err := e.Send(command)
	if err != nil {
		return nil, err
	}
	if err := e.checkReply(rec, mi.ResultDone); err != nil {
		return nil, err
	}
	wp := mi.DecodeWatchpoint(rec.Results, kind)
	if wp == nil {
		return nil, &ProtocolError{Msg: "no watchpoint in break-watch reply"}
	}
	return wp, nil
}

// Run starts target execution from the beginning. It returns as soon as GDB
// acknowledges with ^running.
func (e *Engine) Run() error {
	rec, err := e.Send("exec-run")
	if err != nil {
		return err
	}
	if err := e.checkReply(rec, mi.ResultRunning); err != nil {
		return err
	}
	e.state.update(func(s *SessionState) { s.Running = true })
	return nil
}

// Continue resumes execution and waits until the target stops again, bounded
// by the continue timeout.
func (e *Engine) Continue() error {
	rec, err := e.Send("exec-continue")
	if err != nil {
		return err
	}
	if err := e.checkReply(rec, mi.ResultRunning); err != nil {
		return err
	}
	e.state.update(func(s *SessionState) { s.Running = true })
	return e.WaitForStop(continueTimeout)
}

// Next steps over one source line.
func (e *Engine) Next() error { return e.step("exec-next") }

// Step steps into one source line.
func (e *Engine) Step() error { return e.step("exec-step") }

// StepInstruction steps one machine instruction.
func (e *Engine) StepInstruction() error { return e.step("exec-step-instruction") }

// NextInstruction steps over one machine instruction.
func (e *Engine) NextInstruction() error { return e.step("exec-next-instruction") }

// step issues a single-step variant. A ^running reply is followed by a
// bounded wait on the stopped flag; some GDBs answer ^done when the step
// completes synchronously.
func (e *Engine) step(command string) error {
	rec, err := e.Send(command)
	if err != nil {
		return err
	}
	switch rec.Class {
	case mi.ResultRunning:
		e.state.update(func(s *SessionState) { s.Running = true })
		return e.WaitForStop(stepTimeout)
	case mi.ResultDone:
		return nil
	}
	return e.checkReply(rec, mi.ResultRunning, mi.ResultDone)
}

// Finish runs until the current function returns. It returns on ^running
// without waiting for the stop.
func (e *Engine) Finish() error {
	rec, err := e.Send("exec-finish")
	if err != nil {
		return err
	}
	if err := e.checkReply(rec, mi.ResultRunning); err != nil {
		return err
	}
	e.state.update(func(s *SessionState) { s.Running = true })
	return nil
}

// Interrupt stops a running target.
func (e *Engine) Interrupt() error {
	rec, err := e.Send("exec-interrupt")
	if err != nil {
		return err
	}
	if err := e.checkReply(rec, mi.ResultDone); err != nil {
		return err
	}
	e.state.update(func(s *SessionState) { s.Running = false })
	return nil
}

// StackListFrames returns the current call stack.
func (e *Engine) StackListFrames() ([]mi.Frame, error) {
	rec, err := e.Send("stack-list-frames")
	if err != nil {
		return nil, err
	}
	if err := e.checkReply(rec, mi.ResultDone); err != nil {
		return nil, err
	}
	return mi.DecodeStackFrames(rec.Results), nil
}

// StackInfoFrame returns the currently selected frame, if GDB reports one.
func (e *Engine) StackInfoFrame() (*mi.Frame, error) {
	rec, err := e.Send("stack-info-frame")
	if err != nil {
		return nil, err
	}
	if err := e.checkReply(rec, mi.ResultDone); err != nil {
		return nil, err
	}
	return mi.DecodeFrame(rec.Results), nil
}

// StackSelectFrame selects a frame by level.
func (e *Engine) StackSelectFrame(level uint64) error {
	rec, err := e.Send(fmt.Sprintf("stack-select-frame %d", level))
	if err != nil {
		return err
	}
	if err := e.checkReply(rec, mi.ResultDone); err != nil {
		return err
	}
	e.state.update(func(s *SessionState) {
		l := level
		s.CurrentFrame = &l
	})
	return nil
}

// ThreadListIDs lists debuggee thread ids.
func (e *Engine) ThreadListIDs() ([]string, error) {
	rec, err := e.Send("thread-list-ids")
	if err != nil {
		return nil, err
	}
	if err := e.checkReply(rec, mi.ResultDone); err != nil {
		return nil, err
	}
	return mi.DecodeThreadIDs(rec.Results), nil
}

// ThreadSelect selects a thread by id.
func (e *Engine) ThreadSelect(id string) error {
	rec, err := e.Send(fmt.Sprintf("thread-select %s", id))
	if err != nil {
		return err
	}
	if err := e.checkReply(rec, mi.ResultDone); err != nil {
		return err
	}
	e.state.update(func(s *SessionState) { s.CurrentThread = id })
	return nil
}

// ReadMemory reads count bytes starting at addr.
func (e *Engine) ReadMemory(addr string, count uint64) (*mi.MemoryContent, error) {
	rec, err := e.Send(fmt.Sprintf("data-read-memory-bytes %s %d", addr, count))
	if err != nil {
		return nil, err
	}
	if err := e.checkReply(rec, mi.ResultDone); err != nil {
		return nil, err
	}
	content := mi.DecodeMemoryContent(rec.Results)
	if content == nil {
		return nil, &ProtocolError{Msg: "no memory in data-read-memory-bytes reply"}
	}
	return content, nil
}

// WriteMemory writes a hex byte string starting at addr.
func (e *Engine) WriteMemory(addr, data string) error {
	return e.simpleDone(fmt.Sprintf("data-write-memory-bytes %s %s", addr, data))
}

// Evaluate evaluates an expression and returns its printed value.
func (e *Engine) Evaluate(expression string) (string, error) {
	rec, err := e.Send(fmt.Sprintf("data-evaluate-expression %q", expression))
	if err != nil {
		return "", err
	}
	if err := e.checkReply(rec, mi.ResultDone); err != nil {
		return "", err
	}
	value, ok := mi.FindString(rec.Results, "value")
	if !ok {
		return "", &ProtocolError{Msg: "no value in data-evaluate-expression reply"}
	}
	return value, nil
}

// RegisterNames lists register names in number order.
func (e *Engine) RegisterNames() ([]string, error) {
	rec, err := e.Send("data-list-register-names")
	if err != nil {
		return nil, err
	}
	if err := e.checkReply(rec, mi.ResultDone); err != nil {
		return nil, err
	}
	return mi.DecodeRegisterNames(rec.Results), nil
}

// RegisterValues returns available register values. Names are filled in from
// RegisterNames by callers that want them.
func (e *Engine) RegisterValues() ([]mi.Register, error) {
	rec, err := e.Send("data-list-register-values --skip-unavailable")
	if err != nil {
		return nil, err
	}
	if err := e.checkReply(rec, mi.ResultDone); err != nil {
		return nil, err
	}
	return mi.DecodeRegisterValues(rec.Results), nil
}

// SetRegister assigns a value to a register.
func (e *Engine) SetRegister(register, value string) error {
	return e.simpleDone(fmt.Sprintf("gdb-set $%s=%s", register, value))
}

// VarCreate creates a variable object for an expression.
func (e *Engine) VarCreate(expression string) (*mi.Variable, error) {
	rec, err := e.Send(fmt.Sprintf("var-create - * %q", expression))
	if err != nil {
		return nil, err
	}
	if err := e.checkReply(rec, mi.ResultDone); err != nil {
		return nil, err
	}
	return mi.DecodeVariable(rec.Results, expression), nil
}

// VarDelete deletes a variable object.
func (e *Engine) VarDelete(name string) error {
	return e.simpleDone(fmt.Sprintf("var-delete %s", name))
}

// VarEvaluate returns the current value of a variable object.
func (e *Engine) VarEvaluate(name string) (string, error) {
	rec, err := e.Send(fmt.Sprintf("var-evaluate-expression %s", name))
	if err != nil {
		return "", err
	}
	if err := e.checkReply(rec, mi.ResultDone); err != nil {
		return "", err
	}
	value, ok := mi.FindString(rec.Results, "value")
	if !ok {
		return "", &ProtocolError{Msg: "no value in var-evaluate-expression reply"}
	}
	return value, nil
}

// VarListChildren lists the children of a variable object with their values.
func (e *Engine) VarListChildren(name string) ([]mi.Variable, error) {
	rec, err := e.Send(fmt.Sprintf("var-list-children --all-values %s", name))
	if err != nil {
		return nil, err
	}
	if err := e.checkReply(rec, mi.ResultDone); err != nil {
		return nil, err
	}
	return mi.DecodeVariableChildren(rec.Results), nil
}

func (e *Engine) simpleDone(command string) error {
	rec, err := e.Send(command)
	if err != nil {
		return err
	}
	return e.checkReply(rec, mi.ResultDone)
}
