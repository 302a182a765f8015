// Package mcp provides an MCP (Model Context Protocol) server for cuesched.
package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/nvandessel/cuesched/internal/config"
	"github.com/nvandessel/cuesched/internal/logging"
	"github.com/nvandessel/cuesched/internal/ratelimit"
	"github.com/nvandessel/cuesched/internal/schedule"
	"github.com/nvandessel/cuesched/internal/store"
)

// Server wraps the MCP SDK server and exposes schedule generation, listing,
// inspection and export as tools.
type Server struct {
	server      *sdk.Server
	store       store.ScheduleStore
	root        string
	params      schedule.Params
	seed        int64
	logger      *slog.Logger
	attempts    *logging.AttemptLogger
	auditLogger *AuditLogger
	limiters    *ratelimit.Tools
	closeOnce   sync.Once
	closeErr    error
}

// Config holds server configuration.
type Config struct {
	Name    string // Server name (e.g., "cuesched")
	Version string // Server version
	Root    string // Project root directory; the audit log lives under it

	// Params are the generation defaults; nil means schedule.DefaultParams.
	Params *schedule.Params
	// Seed fixes the seed of every generation that does not pass one.
	Seed int64

	// Store overrides the schedule store. When nil the server opens the
	// SQLite store in ~/.cuesched and closes it on Close.
	Store store.ScheduleStore

	Logger        *slog.Logger
	AttemptLogger *logging.AttemptLogger
}

// NewServer creates a new MCP server with cuesched tools.
func NewServer(cfg *Config) (*Server, error) {
	params := schedule.DefaultParams()
	if cfg.Params != nil {
		params = *cfg.Params
	}
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("invalid generation parameters: %w", err)
	}

	scheduleStore := cfg.Store
	if scheduleStore == nil {
		dir, err := config.HomeDir()
		if err != nil {
			return nil, err
		}
		s, err := store.NewSQLiteStore(dir)
		if err != nil {
			return nil, fmt.Errorf("failed to open schedule store: %w", err)
		}
		scheduleStore = s
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	mcpServer := sdk.NewServer(&sdk.Implementation{
		Name:    cfg.Name,
		Version: cfg.Version,
	}, &sdk.ServerOptions{
		InitializedHandler: func(ctx context.Context, req *sdk.InitializedRequest) {
			logger.Debug("mcp client initialized")
		},
	})

	s := &Server{
		server:      mcpServer,
		store:       scheduleStore,
		root:        cfg.Root,
		params:      params,
		seed:        cfg.Seed,
		logger:      logger,
		attempts:    cfg.AttemptLogger,
		auditLogger: NewAuditLogger(cfg.Root),
		limiters:    ratelimit.NewTools(nil),
	}

	s.registerTools()
	s.registerResources()

	return s, nil
}

// Run starts the MCP server over stdio transport.
// This blocks until the client disconnects or the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	notifySignals(sigChan)
	go func() {
		select {
		case <-sigChan:
			cancel()
		case <-ctx.Done():
		}
	}()

	err := s.server.Run(ctx, &sdk.StdioTransport{})

	if cerr := s.Close(); err == nil {
		err = cerr
	}
	return err
}

// Close releases the store and the audit log. It is safe to call more than
// once.
func (s *Server) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.store.Close()
		if err := s.auditLogger.Close(); s.closeErr == nil {
			s.closeErr = err
		}
	})
	return s.closeErr
}
