package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/dshills/gitctx/internal/cache"
	"github.com/dshills/gitctx/internal/config"
	"github.com/dshills/gitctx/internal/embedder"
	"github.com/dshills/gitctx/internal/store"
)

// app bundles the dependencies a command needs for one repository.
type app struct {
	root     string
	cfg      *config.Config
	logger   *zap.Logger
	store    *store.SQLiteStore
	cache    *cache.Cache
	embedder embedder.Embedder
	model    string
}

// newApp resolves the repository root from args (default ".") and opens
// config, logger, embedder, store, and artifact cache.
func newApp(args []string) (*app, error) {
	root := "."
	if len(args) > 0 {
		root = args[0]
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path: %w", err)
	}

	cfg, err := config.Load(root)
	if err != nil {
		return nil, err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("cannot build logger: %w", err)
	}

	emb, err := newEmbedder(cfg)
	if err != nil {
		return nil, err
	}
	model := cfg.Model
	if model == "" {
		model = emb.Model()
	}

	dbPath := cfg.ResolveDBPath(root)
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("cannot create database directory: %w", err)
	}
	st, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("cannot open store: %w", err)
	}

	artifacts, err := cache.New(cfg.ResolveCacheDir(root), model, logger)
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("cannot open artifact cache: %w", err)
	}

	return &app{
		root:     root,
		cfg:      cfg,
		logger:   logger,
		store:    st,
		cache:    artifacts,
		embedder: emb,
		model:    model,
	}, nil
}

func newEmbedder(cfg *config.Config) (embedder.Embedder, error) {
	if cfg.Provider == "" {
		return embedder.NewFromEnv()
	}
	return embedder.New(embedder.Config{
		Provider:  cfg.Provider,
		CacheSize: 10000,
	})
}

func (a *app) close() {
	_ = a.store.Close()
	_ = a.embedder.Close()
	_ = a.logger.Sync()
}
