// inquisitor is an MCP server that gives model-driven clients a structured
// control surface over GDB. It speaks MCP on stdio and drives the debugger
// over its Machine Interface.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/HyphaGroup/inquisitor/internal/audit"
	"github.com/HyphaGroup/inquisitor/internal/config"
	"github.com/HyphaGroup/inquisitor/internal/logger"
	"github.com/HyphaGroup/inquisitor/internal/mcp"
)

// Version is set at build time via -ldflags "-X main.Version=v1.0.0"
var Version = "dev"

func main() {
	showVersion := flag.Bool("version", false, "Print version and exit")
	configPath := flag.String("config", defaultConfigPath(), "Path to inquisitor.jsonc")
	metricsAddr := flag.String("metrics", "", "Metrics listen address (overrides config when set; empty keeps the config value)")
	flag.Parse()

	if *showVersion {
		fmt.Printf("inquisitor %s\n", Version)
		os.Exit(0)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *metricsAddr != "" {
		cfg.Server.MetricsAddress = *metricsAddr
	}

	if err := logger.Init(cfg.Server.LogDir); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Close() }()

	if err := audit.Init(cfg.Server.AuditLog); err != nil {
		logger.Error("Failed to initialize audit log: %v", err)
	}
	defer func() { _ = audit.Close() }()

	logger.Printf("inquisitor %s - GDB debugging over MCP", Version)
	logger.Printf("gdb: %s (timeout %dms)", cfg.GDB.Path, cfg.GDB.TimeoutMS)

	server := mcp.NewServer(cfg)
	server.ServeMetrics(cfg.Server.MetricsAddress)

	// Shut the debugger down on SIGINT/SIGTERM even if the client never
	// sends gdb_stop.
	ctx, cancel := context.WithCancel(context.Background())
	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-shutdownChan
		logger.Printf("Received signal %v, shutting down", sig)
		server.Close()
		cancel()
	}()

	err = server.Run(ctx)
	server.Close()
	if err != nil && ctx.Err() == nil {
		logger.Fatalf("Server error: %v", err)
	}
}

func defaultConfigPath() string {
	if env := os.Getenv("INQUISITOR_CONFIG"); env != "" {
		return env
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "inquisitor.jsonc"
	}
	return home + "/.inquisitor/inquisitor.jsonc"
}
