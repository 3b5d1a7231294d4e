package main

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/fairooos/scanner-web/internal/scanning"
	"github.com/fairooos/scanner-web/internal/workflow"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-version" || arg == "-v" {
			fmt.Println(version)
			os.Exit(0)
		}
	}

	fs := ff.NewFlagSet("scanner-web")
	var (
		port        = fs.IntLong("port", 8080, "HTTP server port")
		dbPath      = fs.StringLong("db", "scanner-web.db", "Session store file path")
		scannerURL  = fs.StringLong("scanner-url", "http://localhost:8000/api/v1", "Scanner API base URL")
		authUser    = fs.StringLong("auth-user", "", "Basic auth username (optional)")
		authPass    = fs.StringLong("auth-pass", "", "Basic auth password (optional)")
		showVersion = fs.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("SCANNER_WEB"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	// Check version flag after parsing
	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	// Initialize session store
	slog.Info("Initializing session store...")
	store, err := workflow.NewBoltSessionStore(*dbPath)
	if err != nil {
		slog.Error("Failed to initialize session store", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	// Initialize scanner client
	slog.Info("Initializing scanner client...", "url", *scannerURL)
	scanner, err := scanning.NewClient(*scannerURL)
	if err != nil {
		slog.Error("Failed to initialize scanner client", "error", err)
		os.Exit(1)
	}
	defer scanner.Close()

	// Probe the backend so a bad URL shows up at startup instead of on
	// the first upload
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if health, err := scanner.Health(ctx); err != nil {
		slog.Warn("Scanner API is not responding", "url", *scannerURL, "error", err)
	} else {
		slog.Info("Scanner API is up", "status", health.Status, "version", health.Version)
	}
	cancel()

	// Initialize workflow
	flow := workflow.NewFlow(store, scanner)

	// Initialize server
	basicAuth := workflow.BasicAuth{
		Username: *authUser,
		Password: *authPass,
	}
	server := workflow.NewServer(flow, basicAuth)

	// Start server in goroutine
	addr := fmt.Sprintf(":%d", *port)
	go func() {
		if err := server.Start(addr); err != nil {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("Server started", "address", fmt.Sprintf("http://localhost%s", addr))
	if *authUser != "" || *authPass != "" {
		slog.Info("Basic auth enabled", "user", *authUser)
	}

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	slog.Info("Shutting down...")
}
