package mcp

import (
	"context"
	"fmt"

	mcp_sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/HyphaGroup/inquisitor/internal/mi"
	"github.com/HyphaGroup/inquisitor/internal/validation"
)

func (s *Server) registerBreakpointTools(r *Registry) {
	Register(r, ToolDef{
		Name:        "gdb_break_insert",
		Description: "Insert a breakpoint. Location can be a function name, file:line, or *address.",
	}, s.handleBreakInsert)

	Register(r, ToolDef{
		Name:        "gdb_break_delete",
		Description: "Delete a breakpoint by number.",
	}, s.handleBreakDelete)

	Register(r, ToolDef{
		Name:        "gdb_break_list",
		Description: "List all breakpoints with their locations, hit counts and state.",
	}, s.handleBreakList)

	Register(r, ToolDef{
		Name:        "gdb_break_toggle",
		Description: "Enable or disable a breakpoint by number.",
	}, s.handleBreakToggle)

	Register(r, ToolDef{
		Name:        "gdb_watch_insert",
		Description: "Insert a watchpoint on an expression. Kind selects when it triggers: write (default), read, or access.",
	}, s.handleWatchInsert)

	Register(r, ToolDef{
		Name:        "gdb_watch_delete",
		Description: "Delete a watchpoint by number.",
	}, s.handleWatchDelete)
}

// BreakInsertParams are the gdb_break_insert arguments.
type BreakInsertParams struct {
	Location  string `json:"location" description:"Breakpoint location (function name, file:line, or *address)"`
	Temporary bool   `json:"temporary,omitempty" description:"Delete the breakpoint after the first hit"`
	Condition string `json:"condition,omitempty" description:"Optional condition expression"`
}

func (s *Server) handleBreakInsert(ctx context.Context, req *mcp_sdk.CallToolRequest, params BreakInsertParams) (*mcp_sdk.CallToolResult, any, error) {
	if params.Location == "" {
		return nil, nil, fmt.Errorf("location is required")
	}
	if err := validation.ValidateLocation(params.Location); err != nil {
		return nil, nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.currentSession()
	if err != nil {
		return nil, nil, err
	}
	bp, err := sess.Engine.BreakInsert(params.Location, params.Temporary, params.Condition)
	if err != nil {
		return nil, nil, err
	}
	return NewJSONResult(bp), nil, nil
}

// BreakNumberParams carry a breakpoint number.
type BreakNumberParams struct {
	Number string `json:"number" description:"Breakpoint number"`
}

func (s *Server) handleBreakDelete(ctx context.Context, req *mcp_sdk.CallToolRequest, params BreakNumberParams) (*mcp_sdk.CallToolResult, any, error) {
	if err := validation.ValidateBreakpointNumber(params.Number); err != nil {
		return nil, nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.currentSession()
	if err != nil {
		return nil, nil, err
	}
	if err := sess.Engine.BreakDelete(params.Number); err != nil {
		return nil, nil, err
	}
	return NewTextResult(fmt.Sprintf("Breakpoint %s deleted.", params.Number)), nil, nil
}

func (s *Server) handleBreakList(ctx context.Context, req *mcp_sdk.CallToolRequest, params struct{}) (*mcp_sdk.CallToolResult, any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.currentSession()
	if err != nil {
		return nil, nil, err
	}
	breakpoints, err := sess.Engine.BreakList()
	if err != nil {
		return nil, nil, err
	}
	return NewJSONResult(breakpoints), nil, nil
}

// BreakToggleParams are the gdb_break_toggle arguments.
type BreakToggleParams struct {
	Number  string `json:"number" description:"Breakpoint number"`
	Enabled bool   `json:"enabled" description:"true to enable, false to disable"`
}

func (s *Server) handleBreakToggle(ctx context.Context, req *mcp_sdk.CallToolRequest, params BreakToggleParams) (*mcp_sdk.CallToolResult, any, error) {
	if err := validation.ValidateBreakpointNumber(params.Number); err != nil {
		return nil, nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.currentSession()
	if err != nil {
		return nil, nil, err
	}
	if params.Enabled {
		err = sess.Engine.BreakEnable(params.Number)
	} else {
		err = sess.Engine.BreakDisable(params.Number)
	}
	if err != nil {
		return nil, nil, err
	}
	state := "disabled"
	if params.Enabled {
		state = "enabled"
	}
	return NewTextResult(fmt.Sprintf("Breakpoint %s %s.", params.Number, state)), nil, nil
}

// WatchInsertParams are the gdb_watch_insert arguments.
type WatchInsertParams struct {
	Expression string `json:"expression" description:"Expression or memory location to watch"`
	Kind       string `json:"kind,omitempty" description:"Trigger kind: write (default), read, or access"`
}

func (s *Server) handleWatchInsert(ctx context.Context, req *mcp_sdk.CallToolRequest, params WatchInsertParams) (*mcp_sdk.CallToolResult, any, error) {
	if params.Expression == "" {
		return nil, nil, fmt.Errorf("expression is required")
	}

	kind := mi.WatchWrite
	switch params.Kind {
	case "", "write":
	case "read":
		kind = mi.WatchRead
	case "access":
		kind = mi.WatchAccess
	default:
		return nil, nil, fmt.Errorf("invalid kind %q (want write, read, or access)", params.Kind)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.currentSession()
	if err != nil {
		return nil, nil, err
	}
	wp, err := sess.Engine.WatchInsert(kind, params.Expression)
	if err != nil {
		return nil, nil, err
	}
	return NewJSONResult(wp), nil, nil
}

func (s *Server) handleWatchDelete(ctx context.Context, req *mcp_sdk.CallToolRequest, params BreakNumberParams) (*mcp_sdk.CallToolResult, any, error) {
	if err := validation.ValidateBreakpointNumber(params.Number); err != nil {
		return nil, nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.currentSession()
	if err != nil {
		return nil, nil, err
	}
	if err := sess.Engine.BreakDelete(params.Number); err != nil {
		return nil, nil, err
	}
	return NewTextResult(fmt.Sprintf("Watchpoint %s deleted.", params.Number)), nil, nil
}
