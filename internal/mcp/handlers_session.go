package mcp

import (
	"context"
	"fmt"

	mcp_sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/HyphaGroup/inquisitor/internal/audit"
	"github.com/HyphaGroup/inquisitor/internal/gdb"
	"github.com/HyphaGroup/inquisitor/internal/session"
	"github.com/HyphaGroup/inquisitor/internal/validation"
)

func (s *Server) registerSessionTools(r *Registry) {
	Register(r, ToolDef{
		Name:        "gdb_start",
		Description: "Start a new GDB debugging session. Can specify the gdb path and a target architecture for cross-architecture debugging.",
	}, s.handleStart)

	Register(r, ToolDef{
		Name:        "gdb_stop",
		Description: "Stop the current GDB debugging session and clean up resources.",
	}, s.handleStop)

	Register(r, ToolDef{
		Name:        "gdb_status",
		Description: "Get the current session state: connected, running, target, architecture, executable, selected thread and frame.",
	}, s.handleStatus)

	Register(r, ToolDef{
		Name:        "gdb_events",
		Description: "Poll buffered debugger events (stopped, running, breakpoint and thread changes, program output). Pass the last index you saw to resume; -1 returns everything buffered.",
	}, s.handleEvents)

	Register(r, ToolDef{
		Name:        "gdb_raw_command",
		Description: "Send a raw MI command to GDB and return the parsed reply. For operations no dedicated tool covers.",
	}, s.handleRawCommand)
}

// StartParams are the gdb_start arguments.
type StartParams struct {
	GDBPath      string `json:"gdb_path,omitempty" description:"Path to the GDB executable (default: gdb-multiarch)"`
	Architecture string `json:"architecture,omitempty" description:"Target architecture (e.g. arm, aarch64, riscv)"`
}

func (s *Server) handleStart(ctx context.Context, req *mcp_sdk.CallToolRequest, params StartParams) (*mcp_sdk.CallToolResult, any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session != nil {
		return NewErrorResult("GDB session already running. Use gdb_stop first."), nil, nil
	}

	engineCfg := gdb.Config{
		GDBPath:      s.cfg.GDB.Path,
		GDBArgs:      s.cfg.GDB.Args,
		Timeout:      s.cfg.GDB.Timeout(),
		Architecture: s.cfg.GDB.Architecture,
	}
	if params.GDBPath != "" {
		engineCfg.GDBPath = params.GDBPath
	}
	if params.Architecture != "" {
		if err := validation.ValidateArchitecture(params.Architecture); err != nil {
			return nil, nil, err
		}
		engineCfg.Architecture = params.Architecture
	}

	engine := gdb.New(engineCfg)
	if err := engine.Start(); err != nil {
		audit.Log(&audit.Event{Operation: audit.OpSessionStart, Success: false, Error: err.Error()})
		return nil, nil, err
	}

	s.session = session.New(engine, s.cfg.Server.EventBufferSize)
	audit.Log(&audit.Event{Operation: audit.OpSessionStart, SessionID: s.session.ID, Success: true})

	return NewTextResult(fmt.Sprintf(
		"GDB session %s started. Use gdb_load_file to load a program, or gdb_target_connect for remote debugging.",
		s.session.ID)), nil, nil
}

func (s *Server) handleStop(ctx context.Context, req *mcp_sdk.CallToolRequest, params struct{}) (*mcp_sdk.CallToolResult, any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.currentSession()
	if err != nil {
		return nil, nil, err
	}
	stopErr := sess.Close()
	audit.Log(&audit.Event{Operation: audit.OpSessionStop, SessionID: sess.ID, Success: stopErr == nil})
	s.session = nil
	if stopErr != nil {
		return nil, nil, stopErr
	}
	return NewTextResult("GDB session stopped."), nil, nil
}

// StatusResult is the gdb_status payload.
type StatusResult struct {
	SessionID string           `json:"session_id,omitempty"`
	State     gdb.SessionState `json:"state"`
}

func (s *Server) handleStatus(ctx context.Context, req *mcp_sdk.CallToolRequest, params struct{}) (*mcp_sdk.CallToolResult, any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := StatusResult{}
	if s.session != nil {
		status.SessionID = s.session.ID
		status.State = s.session.Engine.State()
	}
	return NewJSONResult(status), nil, nil
}

// EventsParams are the gdb_events arguments.
type EventsParams struct {
	SinceIndex *int `json:"since_index,omitempty" description:"Return events after this index; -1 or omitted returns all buffered events"`
}

// EventsResult is the gdb_events payload.
type EventsResult struct {
	Events    []*session.BufferedEvent `json:"events"`
	LastIndex int                      `json:"last_index"`
}

func (s *Server) handleEvents(ctx context.Context, req *mcp_sdk.CallToolRequest, params EventsParams) (*mcp_sdk.CallToolResult, any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.currentSession()
	if err != nil {
		return nil, nil, err
	}

	since := -1
	if params.SinceIndex != nil {
		since = *params.SinceIndex
	}
	events, err := sess.Events().After(since)
	if err != nil {
		return nil, nil, err
	}
	return NewJSONResult(EventsResult{
		Events:    events,
		LastIndex: sess.Events().LastIndex(),
	}), nil, nil
}

// RawCommandParams are the gdb_raw_command arguments.
type RawCommandParams struct {
	Command string `json:"command" description:"MI command without the leading dash, e.g. 'break-info 1'"`
}

func (s *Server) handleRawCommand(ctx context.Context, req *mcp_sdk.CallToolRequest, params RawCommandParams) (*mcp_sdk.CallToolResult, any, error) {
	if params.Command == "" {
		return nil, nil, fmt.Errorf("command is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.currentSession()
	if err != nil {
		return nil, nil, err
	}
	rec, err := sess.Engine.Send(params.Command)
	audit.Log(&audit.Event{
		Operation: audit.OpRawCommand,
		SessionID: sess.ID,
		Command:   params.Command,
		Success:   err == nil,
	})
	if err != nil {
		return nil, nil, err
	}
	return NewJSONResult(rec), nil, nil
}
