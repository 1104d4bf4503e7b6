package mcp

import (
	"context"
	"fmt"

	mcp_sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/HyphaGroup/inquisitor/internal/mi"
	"github.com/HyphaGroup/inquisitor/internal/validation"
)

func (s *Server) registerInspectTools(r *Registry) {
	Register(r, ToolDef{
		Name:        "gdb_stack_list",
		Description: "List the call stack frames of the current thread.",
	}, s.handleStackList)

	Register(r, ToolDef{
		Name:        "gdb_stack_select",
		Description: "Select a stack frame by level.",
	}, s.handleStackSelect)

	Register(r, ToolDef{
		Name:        "gdb_stack_info",
		Description: "Get information about the currently selected frame.",
	}, s.handleStackInfo)

	Register(r, ToolDef{
		Name:        "gdb_thread_list",
		Description: "List debuggee thread ids.",
	}, s.handleThreadList)

	Register(r, ToolDef{
		Name:        "gdb_thread_select",
		Description: "Select a thread by id.",
	}, s.handleThreadSelect)

	Register(r, ToolDef{
		Name:        "gdb_memory_read",
		Description: "Read memory as a hex byte string.",
	}, s.handleMemoryRead)

	Register(r, ToolDef{
		Name:        "gdb_memory_write",
		Description: "Write a hex byte string to memory.",
	}, s.handleMemoryWrite)

	Register(r, ToolDef{
		Name:        "gdb_evaluate",
		Description: "Evaluate an expression in the current frame and return its value.",
	}, s.handleEvaluate)

	Register(r, ToolDef{
		Name:        "gdb_registers_list",
		Description: "List registers with their current values.",
	}, s.handleRegistersList)

	Register(r, ToolDef{
		Name:        "gdb_register_set",
		Description: "Set a register to a value.",
	}, s.handleRegisterSet)

	Register(r, ToolDef{
		Name:        "gdb_variable_info",
		Description: "Inspect a variable: value, type, and children for aggregates.",
	}, s.handleVariableInfo)
}

func (s *Server) handleStackList(ctx context.Context, req *mcp_sdk.CallToolRequest, params struct{}) (*mcp_sdk.CallToolResult, any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.currentSession()
	if err != nil {
		return nil, nil, err
	}
	frames, err := sess.Engine.StackListFrames()
	if err != nil {
		return nil, nil, err
	}
	return NewJSONResult(frames), nil, nil
}

// StackSelectParams are the gdb_stack_select arguments.
type StackSelectParams struct {
	Level uint64 `json:"level" description:"Frame level (0 is the innermost frame)"`
}

func (s *Server) handleStackSelect(ctx context.Context, req *mcp_sdk.CallToolRequest, params StackSelectParams) (*mcp_sdk.CallToolResult, any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.currentSession()
	if err != nil {
		return nil, nil, err
	}
	if err := sess.Engine.StackSelectFrame(params.Level); err != nil {
		return nil, nil, err
	}
	return NewTextResult(fmt.Sprintf("Selected frame %d.", params.Level)), nil, nil
}

func (s *Server) handleStackInfo(ctx context.Context, req *mcp_sdk.CallToolRequest, params struct{}) (*mcp_sdk.CallToolResult, any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.currentSession()
	if err != nil {
		return nil, nil, err
	}
	frame, err := sess.Engine.StackInfoFrame()
	if err != nil {
		return nil, nil, err
	}
	if frame == nil {
		return NewTextResult("No frame selected."), nil, nil
	}
	return NewJSONResult(frame), nil, nil
}

func (s *Server) handleThreadList(ctx context.Context, req *mcp_sdk.CallToolRequest, params struct{}) (*mcp_sdk.CallToolResult, any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.currentSession()
	if err != nil {
		return nil, nil, err
	}
	ids, err := sess.Engine.ThreadListIDs()
	if err != nil {
		return nil, nil, err
	}
	return NewJSONResult(ids), nil, nil
}

// ThreadSelectParams are the gdb_thread_select arguments.
type ThreadSelectParams struct {
	ID string `json:"id" description:"Thread id"`
}

func (s *Server) handleThreadSelect(ctx context.Context, req *mcp_sdk.CallToolRequest, params ThreadSelectParams) (*mcp_sdk.CallToolResult, any, error) {
	if params.ID == "" {
		return nil, nil, fmt.Errorf("id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.currentSession()
	if err != nil {
		return nil, nil, err
	}
	if err := sess.Engine.ThreadSelect(params.ID); err != nil {
		return nil, nil, err
	}
	return NewTextResult(fmt.Sprintf("Selected thread %s.", params.ID)), nil, nil
}

// MemoryReadParams are the gdb_memory_read arguments.
type MemoryReadParams struct {
	Address string `json:"address" description:"Start address (0x-prefixed hex)"`
	Count   uint64 `json:"count" description:"Number of bytes to read"`
}

func (s *Server) handleMemoryRead(ctx context.Context, req *mcp_sdk.CallToolRequest, params MemoryReadParams) (*mcp_sdk.CallToolResult, any, error) {
	if err := validation.ValidateAddress(params.Address); err != nil {
		return nil, nil, err
	}
	if params.Count == 0 {
		return nil, nil, fmt.Errorf("count must be positive")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.currentSession()
	if err != nil {
		return nil, nil, err
	}
	content, err := sess.Engine.ReadMemory(params.Address, params.Count)
	if err != nil {
		return nil, nil, err
	}
	return NewJSONResult(content), nil, nil
}

// MemoryWriteParams are the gdb_memory_write arguments.
type MemoryWriteParams struct {
	Address string `json:"address" description:"Start address (0x-prefixed hex)"`
	Data    string `json:"data" description:"Hex byte string to write, e.g. deadbeef"`
}

func (s *Server) handleMemoryWrite(ctx context.Context, req *mcp_sdk.CallToolRequest, params MemoryWriteParams) (*mcp_sdk.CallToolResult, any, error) {
	if err := validation.ValidateAddress(params.Address); err != nil {
		return nil, nil, err
	}
	if err := validation.ValidateHexData(params.Data); err != nil {
		return nil, nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.currentSession()
	if err != nil {
		return nil, nil, err
	}
	if err := sess.Engine.WriteMemory(params.Address, params.Data); err != nil {
		return nil, nil, err
	}
	return NewTextResult(fmt.Sprintf("Wrote data to address %s.", params.Address)), nil, nil
}

// EvaluateParams are the gdb_evaluate arguments.
type EvaluateParams struct {
	Expression string `json:"expression" description:"Expression to evaluate"`
}

func (s *Server) handleEvaluate(ctx context.Context, req *mcp_sdk.CallToolRequest, params EvaluateParams) (*mcp_sdk.CallToolResult, any, error) {
	if params.Expression == "" {
		return nil, nil, fmt.Errorf("expression is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.currentSession()
	if err != nil {
		return nil, nil, err
	}
	value, err := sess.Engine.Evaluate(params.Expression)
	if err != nil {
		return nil, nil, err
	}
	return NewTextResult(fmt.Sprintf("%s = %s", params.Expression, value)), nil, nil
}

func (s *Server) handleRegistersList(ctx context.Context, req *mcp_sdk.CallToolRequest, params struct{}) (*mcp_sdk.CallToolResult, any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.currentSession()
	if err != nil {
		return nil, nil, err
	}

	names, err := sess.Engine.RegisterNames()
	if err != nil {
		return nil, nil, err
	}
	registers, err := sess.Engine.RegisterValues()
	if err != nil {
		return nil, nil, err
	}
	for i := range registers {
		if registers[i].Number < uint64(len(names)) {
			registers[i].Name = names[registers[i].Number]
		}
	}
	return NewJSONResult(registers), nil, nil
}

// RegisterSetParams are the gdb_register_set arguments.
type RegisterSetParams struct {
	Register string `json:"register" description:"Register name, without the $ prefix"`
	Value    string `json:"value" description:"Value to assign"`
}

func (s *Server) handleRegisterSet(ctx context.Context, req *mcp_sdk.CallToolRequest, params RegisterSetParams) (*mcp_sdk.CallToolResult, any, error) {
	if err := validation.ValidateRegister(params.Register); err != nil {
		return nil, nil, err
	}
	if params.Value == "" {
		return nil, nil, fmt.Errorf("value is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.currentSession()
	if err != nil {
		return nil, nil, err
	}
	if err := sess.Engine.SetRegister(params.Register, params.Value); err != nil {
		return nil, nil, err
	}
	return NewTextResult(fmt.Sprintf("Set register %s = %s.", params.Register, params.Value)), nil, nil
}

// VariableInfoParams are the gdb_variable_info arguments.
type VariableInfoParams struct {
	Name string `json:"name" description:"Variable name or expression"`
}

// VariableInfoResult is the gdb_variable_info payload.
type VariableInfoResult struct {
	Variable *mi.Variable `json:"variable"`
	Value    string       `json:"value,omitempty"`
}

func (s *Server) handleVariableInfo(ctx context.Context, req *mcp_sdk.CallToolRequest, params VariableInfoParams) (*mcp_sdk.CallToolResult, any, error) {
	if params.Name == "" {
		return nil, nil, fmt.Errorf("name is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.currentSession()
	if err != nil {
		return nil, nil, err
	}

	variable, err := sess.Engine.VarCreate(params.Name)
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = sess.Engine.VarDelete(variable.Name) }()

	value, err := sess.Engine.VarEvaluate(variable.Name)
	if err == nil {
		variable.Value = value
	}
	if children, err := sess.Engine.VarListChildren(variable.Name); err == nil {
		variable.Children = children
	}
	return NewJSONResult(VariableInfoResult{Variable: variable, Value: variable.Value}), nil, nil
}
