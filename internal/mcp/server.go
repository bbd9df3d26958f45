package mcp

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/protoloop/loopcore/internal/config"
	"github.com/protoloop/loopcore/internal/evolution"
	"github.com/protoloop/loopcore/internal/logging"
	"github.com/protoloop/loopcore/internal/loop"
	"github.com/protoloop/loopcore/internal/scenario"
	"github.com/protoloop/loopcore/internal/storage"
)

// Server wraps the MCP SDK server and exposes the loop lifecycle,
// evolution insights, and scenario generation as tools.
type Server struct {
	server  *sdk.Server
	repo    storage.Repository
	manager *loop.Manager
	engine  *evolution.Engine
	gen     scenario.Generator
	events  *logging.EventLogger
	app     *config.Config
}

// Config holds server configuration.
type Config struct {
	Name    string         // Server name (e.g., "loopcore")
	Version string         // Server version
	Root    string         // Project root directory
	App     *config.Config // Application config; nil uses defaults
}

// NewServer creates a new MCP server backed by the project's SQLite
// repository.
func NewServer(cfg *Config) (*Server, error) {
	repo, err := storage.NewSQLiteRepository(cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("open repository: %w", err)
	}

	s, err := newServer(cfg, repo)
	if err != nil {
		repo.Close()
		return nil, err
	}
	return s, nil
}

// newServer wires the server over an existing repository. Tests inject
// an in-memory repository here.
func newServer(cfg *Config, repo storage.Repository) (*Server, error) {
	app := cfg.App
	if app == nil {
		app = config.Default()
	}

	mcpServer := sdk.NewServer(&sdk.Implementation{
		Name:    cfg.Name,
		Version: cfg.Version,
	}, &sdk.ServerOptions{
		InitializedHandler: func(ctx context.Context, req *sdk.InitializedRequest) {
			// Client initialized, ready to serve
		},
	})

	s := &Server{
		server:  mcpServer,
		repo:    repo,
		manager: loop.NewManager(loop.Config{DurationSeconds: app.Loop.DurationSeconds}, repo, nil),
		engine: evolution.NewEngine(evolution.Config{
			MutationThreshold:  app.Evolution.MutationThreshold,
			BreakthroughChance: app.Evolution.BreakthroughChance,
		}, rand.New(rand.NewSource(rand.Int63()))),
		gen:    buildGenerator(app),
		events: logging.NewEventLogger(filepath.Join(cfg.Root, ".loopcore"), app.Logging.Level),
		app:    app,
	}

	if err := s.registerTools(); err != nil {
		return nil, fmt.Errorf("register tools: %w", err)
	}
	if err := s.registerResources(); err != nil {
		return nil, fmt.Errorf("register resources: %w", err)
	}
	return s, nil
}

// buildGenerator assembles the scenario generator from config. The
// result is always fail-soft: generation errors serve the fallback.
func buildGenerator(app *config.Config) scenario.Generator {
	if !app.LLM.Enabled || app.LLM.Provider == "" {
		return scenario.NewFailSoft(nil)
	}
	httpGen := scenario.NewHTTPGenerator(scenario.ClientConfig{
		BaseURL: app.LLM.BaseURL,
		APIKey:  app.LLM.APIKey,
		Model:   app.LLM.Model,
		Timeout: app.LLM.Timeout,
	})
	return scenario.NewFailSoft(scenario.NewRateLimited(httpGen, nil))
}

// Run starts the MCP server over stdio transport. Blocks until the
// client disconnects or the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	notifySignals(sigChan)

	go func() {
		<-sigChan
		cancel()
	}()

	err := s.server.Run(ctx, &sdk.StdioTransport{})

	s.events.Close()
	s.repo.Close()

	return err
}

// Close closes the server and releases resources.
func (s *Server) Close() error {
	s.events.Close()
	return s.repo.Close()
}
