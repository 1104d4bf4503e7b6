// Package mcp exposes the debugger engine as an MCP tool server. It is a
// thin adapter: every tool formats arguments, calls one engine method and
// renders the result. The engine itself lives in internal/gdb.
package mcp

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	mcp_sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/HyphaGroup/inquisitor/internal/config"
	"github.com/HyphaGroup/inquisitor/internal/logger"
	"github.com/HyphaGroup/inquisitor/internal/metrics"
	"github.com/HyphaGroup/inquisitor/internal/session"
)

// Server wraps the MCP server with the active debug session.
type Server struct {
	cfg      *config.Config
	registry *Registry

	mcpServer *mcp_sdk.Server

	// mu guards the session pointer and serializes command-sending: the
	// engine requires exclusive access for Send.
	mu      sync.Mutex
	session *session.Session
}

// NewServer creates a new MCP server instance
func NewServer(cfg *config.Config) *Server {
	s := &Server{
		cfg:      cfg,
		registry: NewRegistry(),
	}
	s.registerAllTools(s.registry)
	return s
}

// GetRegistry returns the tool registry for external access
func (s *Server) GetRegistry() *Registry {
	return s.registry
}

// Run serves MCP over stdio until the context is canceled or the client
// disconnects.
func (s *Server) Run(ctx context.Context) error {
	s.mcpServer = mcp_sdk.NewServer(&mcp_sdk.Implementation{
		Name:    "inquisitor",
		Version: "0.1.0",
	}, nil)

	s.registry.RegisterWithMCPServer(s.mcpServer)

	logger.Info("inquisitor MCP server listening on stdio")
	return s.mcpServer.Run(ctx, &mcp_sdk.StdioTransport{})
}

// ServeMetrics starts the metrics/health listener when an address is
// configured. It returns immediately.
func (s *Server) ServeMetrics(addr string) {
	if addr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	go func() {
		logger.Info("metrics listening on %s", addr)
		if err := http.ListenAndServe(addr, mux); err != nil {
			logger.Error("metrics listener: %v", err)
		}
	}()
}

// Close shuts down the active session, if any.
func (s *Server) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session != nil {
		_ = s.session.Close()
		s.session = nil
	}
}

// currentSession returns the active session. The caller must hold s.mu.
func (s *Server) currentSession() (*session.Session, error) {
	if s.session == nil {
		return nil, fmt.Errorf("GDB session not started. Use gdb_start first")
	}
	return s.session, nil
}

// registerAllTools registers all MCP tools with the registry
func (s *Server) registerAllTools(r *Registry) {
	s.registerSessionTools(r)
	s.registerExecTools(r)
	s.registerBreakpointTools(r)
	s.registerInspectTools(r)
}
