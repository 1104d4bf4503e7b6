package mcp

import (
	"context"
	"fmt"

	mcp_sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/HyphaGroup/inquisitor/internal/gdb"
	"github.com/HyphaGroup/inquisitor/internal/validation"
)

func (s *Server) registerExecTools(r *Registry) {
	Register(r, ToolDef{
		Name:        "gdb_load_file",
		Description: "Load an executable file and its symbol table into GDB for debugging.",
	}, s.handleLoadFile)

	Register(r, ToolDef{
		Name:        "gdb_target_connect",
		Description: "Connect to a remote debugging target via TCP or serial port. Supports both 'remote' and 'extended-remote' connection types.",
	}, s.handleTargetConnect)

	Register(r, ToolDef{
		Name:        "gdb_target_disconnect",
		Description: "Disconnect from the current remote debugging target.",
	}, s.handleTargetDisconnect)

	Register(r, ToolDef{
		Name:        "gdb_run",
		Description: "Start program execution from the beginning.",
	}, s.handleRun)

	Register(r, ToolDef{
		Name:        "gdb_continue",
		Description: "Continue execution until the next breakpoint or program exit. Waits for the target to stop.",
	}, s.handleContinue)

	Register(r, ToolDef{
		Name:        "gdb_next",
		Description: "Step over one source line.",
	}, s.handleNext)

	Register(r, ToolDef{
		Name:        "gdb_step",
		Description: "Step into one source line.",
	}, s.handleStep)

	Register(r, ToolDef{
		Name:        "gdb_stepi",
		Description: "Step one machine instruction.",
	}, s.handleStepi)

	Register(r, ToolDef{
		Name:        "gdb_nexti",
		Description: "Step over one machine instruction.",
	}, s.handleNexti)

	Register(r, ToolDef{
		Name:        "gdb_finish",
		Description: "Run until the current function returns.",
	}, s.handleFinish)

	Register(r, ToolDef{
		Name:        "gdb_interrupt",
		Description: "Interrupt a running program.",
	}, s.handleInterrupt)
}

// LoadFileParams are the gdb_load_file arguments.
type LoadFileParams struct {
	FilePath string `json:"file_path" description:"Path to the executable file to debug"`
}

func (s *Server) handleLoadFile(ctx context.Context, req *mcp_sdk.CallToolRequest, params LoadFileParams) (*mcp_sdk.CallToolResult, any, error) {
	if params.FilePath == "" {
		return nil, nil, fmt.Errorf("file_path is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.currentSession()
	if err != nil {
		return nil, nil, err
	}
	if err := sess.Engine.LoadExecutable(params.FilePath); err != nil {
		return nil, nil, err
	}
	return NewTextResult(fmt.Sprintf("Loaded executable: %s", params.FilePath)), nil, nil
}

// TargetConnectParams are the gdb_target_connect arguments.
type TargetConnectParams struct {
	TargetType string `json:"target_type,omitempty" description:"Connection type: remote (default) or extended-remote"`
	Host       string `json:"host,omitempty" description:"Hostname or IP address for TCP connection"`
	Port       int    `json:"port,omitempty" description:"TCP port number"`
	SerialPort string `json:"serial_port,omitempty" description:"Serial device path (e.g. /dev/ttyUSB0)"`
	BaudRate   int    `json:"baud_rate,omitempty" description:"Baud rate hint for serial connections"`
}

func (s *Server) handleTargetConnect(ctx context.Context, req *mcp_sdk.CallToolRequest, params TargetConnectParams) (*mcp_sdk.CallToolResult, any, error) {
	var target gdb.RemoteTarget
	switch {
	case params.SerialPort != "":
		target = gdb.SerialTarget(params.SerialPort, params.BaudRate)
	case params.Host != "":
		target = gdb.TCPTarget(params.Host, params.Port)
	default:
		return nil, nil, fmt.Errorf("either host/port or serial_port is required")
	}
	if err := target.Validate(); err != nil {
		return nil, nil, err
	}
	if err := validation.ValidateRemoteTarget(target.String()); err != nil {
		return nil, nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.currentSession()
	if err != nil {
		return nil, nil, err
	}

	if params.TargetType == "extended-remote" {
		err = sess.Engine.TargetConnectExtendedRemote(target)
	} else {
		err = sess.Engine.TargetConnectRemote(target)
	}
	if err != nil {
		return nil, nil, err
	}
	return NewTextResult(fmt.Sprintf("Connected to target %s", target)), nil, nil
}

func (s *Server) handleTargetDisconnect(ctx context.Context, req *mcp_sdk.CallToolRequest, params struct{}) (*mcp_sdk.CallToolResult, any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.currentSession()
	if err != nil {
		return nil, nil, err
	}
	if err := sess.Engine.TargetDisconnect(); err != nil {
		return nil, nil, err
	}
	return NewTextResult("Disconnected from target."), nil, nil
}

func (s *Server) handleRun(ctx context.Context, req *mcp_sdk.CallToolRequest, params struct{}) (*mcp_sdk.CallToolResult, any, error) {
	return s.execCommand(func(e *gdb.Engine) error { return e.Run() }, "Program started.")
}

func (s *Server) handleContinue(ctx context.Context, req *mcp_sdk.CallToolRequest, params struct{}) (*mcp_sdk.CallToolResult, any, error) {
	return s.execCommand(func(e *gdb.Engine) error { return e.Continue() }, "Execution continued until stop.")
}

func (s *Server) handleNext(ctx context.Context, req *mcp_sdk.CallToolRequest, params struct{}) (*mcp_sdk.CallToolResult, any, error) {
	return s.execCommand(func(e *gdb.Engine) error { return e.Next() }, "Stepped over one line.")
}

func (s *Server) handleStep(ctx context.Context, req *mcp_sdk.CallToolRequest, params struct{}) (*mcp_sdk.CallToolResult, any, error) {
	return s.execCommand(func(e *gdb.Engine) error { return e.Step() }, "Stepped into one line.")
}

func (s *Server) handleStepi(ctx context.Context, req *mcp_sdk.CallToolRequest, params struct{}) (*mcp_sdk.CallToolResult, any, error) {
	return s.execCommand(func(e *gdb.Engine) error { return e.StepInstruction() }, "Stepped one instruction.")
}

func (s *Server) handleNexti(ctx context.Context, req *mcp_sdk.CallToolRequest, params struct{}) (*mcp_sdk.CallToolResult, any, error) {
	return s.execCommand(func(e *gdb.Engine) error { return e.NextInstruction() }, "Stepped over one instruction.")
}

func (s *Server) handleFinish(ctx context.Context, req *mcp_sdk.CallToolRequest, params struct{}) (*mcp_sdk.CallToolResult, any, error) {
	return s.execCommand(func(e *gdb.Engine) error { return e.Finish() }, "Running until function return.")
}

func (s *Server) handleInterrupt(ctx context.Context, req *mcp_sdk.CallToolRequest, params struct{}) (*mcp_sdk.CallToolResult, any, error) {
	return s.execCommand(func(e *gdb.Engine) error { return e.Interrupt() }, "Program interrupted.")
}

// execCommand runs one engine execution method under the server lock.
func (s *Server) execCommand(fn func(*gdb.Engine) error, okText string) (*mcp_sdk.CallToolResult, any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.currentSession()
	if err != nil {
		return nil, nil, err
	}
	if err := fn(sess.Engine); err != nil {
		return nil, nil, err
	}
	return NewTextResult(okText), nil, nil
}
