package mcp

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/dshills/gitctx/internal/cache"
	"github.com/dshills/gitctx/internal/config"
	"github.com/dshills/gitctx/internal/embedder"
	"github.com/dshills/gitctx/internal/store"
)

const (
	// ServerName is the MCP server name
	ServerName = "gitctx"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
)

// Server wraps the MCP server with application dependencies. The embedder
// is created once and shared across tool invocations so its LRU cache
// survives between calls; stores and artifact caches are per-repository
// and opened on demand.
type Server struct {
	mcp      *server.MCPServer
	embedder embedder.Embedder
	logger   *zap.Logger
}

// NewServer creates a new MCP server instance. The logger must write to
// stderr only: stdout carries the protocol stream.
func NewServer(logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	emb, err := embedder.NewFromEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}

	s := &Server{
		mcp:      server.NewMCPServer(ServerName, ServerVersion),
		embedder: emb,
		logger:   logger,
	}
	s.registerTools()
	return s, nil
}

// Serve starts the MCP server on stdio and blocks until shutdown
func (s *Server) Serve(ctx context.Context) error {
	defer func() { _ = s.embedder.Close() }()
	return server.ServeStdio(s.mcp)
}

// registerTools registers all MCP tools
func (s *Server) registerTools() {
	s.mcp.AddTool(indexRepositoryTool(), s.handleIndexRepository)
	s.mcp.AddTool(getStatusTool(), s.handleGetStatus)
	s.mcp.AddTool(cacheStatsTool(), s.handleCacheStats)
}

// repoResources bundles the per-repository dependencies a tool call needs.
type repoResources struct {
	cfg   *config.Config
	store *store.SQLiteStore
	cache *cache.Cache
}

func (r *repoResources) close() {
	if r.store != nil {
		_ = r.store.Close()
	}
}

// openResources loads configuration for the repository at path and opens
// its store and artifact cache.
func (s *Server) openResources(path string) (*repoResources, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	dbPath := cfg.ResolveDBPath(path)
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}
	st, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	model := cfg.Model
	if model == "" {
		model = s.embedder.Model()
	}
	artifacts, err := cache.New(cfg.ResolveCacheDir(path), model, s.logger)
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("failed to open artifact cache: %w", err)
	}

	return &repoResources{cfg: cfg, store: st, cache: artifacts}, nil
}
