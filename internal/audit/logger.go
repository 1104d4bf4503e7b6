package audit

import (
	"encoding/json"
	"log/slog"
	"os"
	"sync"
	"time"
)

// Operation represents the type of auditable operation
type Operation string

const (
	OpSessionStart Operation = "session.start"
	OpSessionStop  Operation = "session.stop"
	OpToolCall     Operation = "tool.call"
	OpRawCommand   Operation = "command.raw"
)

// Event represents an audit log entry
type Event struct {
	Timestamp time.Time              `json:"timestamp"`
	Operation Operation              `json:"operation"`
	SessionID string                 `json:"session_id,omitempty"`
	Tool      string                 `json:"tool,omitempty"`
	Command   string                 `json:"command,omitempty"`
	Success   bool                   `json:"success"`
	Error     string                 `json:"error,omitempty"`
	Details   map[string]interface{} `json:"details,omitempty"`
}

// Logger writes audit entries as JSON lines. Entries go to the configured
// file, never stdout: on a stdio MCP server stdout carries the protocol.
type Logger struct {
	logger  *slog.Logger
	file    *os.File
	enabled bool
	mu      sync.RWMutex
}

var (
	defaultLogger *Logger
	once          sync.Once
)

// Default returns the default audit logger (disabled until Init).
func Default() *Logger {
	once.Do(func() {
		defaultLogger = &Logger{enabled: false}
	})
	return defaultLogger
}

// Init points the default logger at a JSONL file. An empty path leaves
// auditing disabled.
func Init(path string) error {
	l := Default()
	if path == "" {
		return nil
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	handler := slog.NewJSONHandler(file, &slog.HandlerOptions{Level: slog.LevelInfo})

	l.mu.Lock()
	l.logger = slog.New(handler)
	l.file = file
	l.enabled = true
	l.mu.Unlock()
	return nil
}

// Close closes the audit file.
func Close() error {
	l := Default()
	l.mu.Lock()
	defer l.mu.Unlock()
	l.enabled = false
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

// Log records an audit event
func (l *Logger) Log(event *Event) {
	l.mu.RLock()
	enabled := l.enabled
	logger := l.logger
	l.mu.RUnlock()

	if !enabled || logger == nil {
		return
	}

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	attrs := []any{
		slog.String("operation", string(event.Operation)),
		slog.Bool("success", event.Success),
	}
	if event.SessionID != "" {
		attrs = append(attrs, slog.String("session_id", event.SessionID))
	}
	if event.Tool != "" {
		attrs = append(attrs, slog.String("tool", event.Tool))
	}
	if event.Command != "" {
		attrs = append(attrs, slog.String("command", event.Command))
	}
	if event.Error != "" {
		attrs = append(attrs, slog.String("error", event.Error))
	}
	if event.Details != nil {
		detailsJSON, _ := json.Marshal(event.Details)
		attrs = append(attrs, slog.String("details", string(detailsJSON)))
	}

	logger.Info("AUDIT", attrs...)
}

// LogToolCall records an MCP tool invocation against a session.
func (l *Logger) LogToolCall(sessionID, tool string, err error) {
	event := &Event{
		Operation: OpToolCall,
		SessionID: sessionID,
		Tool:      tool,
		Success:   err == nil,
	}
	if err != nil {
		event.Error = err.Error()
	}
	l.Log(event)
}

// Convenience functions using the default logger

func Log(event *Event) {
	Default().Log(event)
}

func LogToolCall(sessionID, tool string, err error) {
	Default().LogToolCall(sessionID, tool, err)
}
