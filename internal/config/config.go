package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Default values applied before any file or environment override.
const (
	DefaultMaxBlobSize = 1 << 20 // 1 MiB
	DefaultWorkers     = 4
	DefaultBatchSize   = 32
	DefaultLogLevel    = "info"

	configName = ".gitctx"
	configType = "yaml"
	envPrefix  = "GITCTX"
)

// Config holds every tunable gitctx reads. Values come from defaults, then
// a .gitctx.yaml in the repository root or ~/.config/gitctx/, then GITCTX_*
// environment variables, highest last.
type Config struct {
	// Refs lists the refs to walk. Empty means HEAD only.
	Refs []string `mapstructure:"refs"`

	// MaxBlobSize caps accepted content size in bytes.
	MaxBlobSize int64 `mapstructure:"max_blob_size"`

	// SkipBinary drops blobs that look binary.
	SkipBinary bool `mapstructure:"skip_binary"`

	// UseGitignore excludes paths matched by head-commit gitignore rules.
	UseGitignore bool `mapstructure:"use_gitignore"`

	// CacheDir is the artifact cache root, relative paths resolve against
	// the repository root.
	CacheDir string `mapstructure:"cache_dir"`

	// DBPath is the SQLite database location, resolved like CacheDir.
	DBPath string `mapstructure:"db_path"`

	// Provider selects the embedding backend (openai, ollama, local).
	// Empty means auto-detect from the environment.
	Provider string `mapstructure:"provider"`

	// Model overrides the provider's default embedding model.
	Model string `mapstructure:"model"`

	// Workers bounds concurrent chunk+embed work.
	Workers int `mapstructure:"workers"`

	// BatchSize is the number of content records per store transaction.
	BatchSize int `mapstructure:"batch_size"`

	// LogLevel is a zap level name: debug, info, warn, error.
	LogLevel string `mapstructure:"log_level"`
}

// Load reads configuration for the repository at repoRoot.
// A missing config file is not an error; defaults and environment apply.
func Load(repoRoot string) (*Config, error) {
	v := viper.New()
	v.SetConfigName(configName)
	v.SetConfigType(configType)
	if repoRoot != "" {
		v.AddConfigPath(repoRoot)
	}
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "gitctx"))
	}

	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("refs", []string{"HEAD"})
	v.SetDefault("max_blob_size", DefaultMaxBlobSize)
	v.SetDefault("skip_binary", true)
	v.SetDefault("use_gitignore", true)
	v.SetDefault("cache_dir", filepath.Join(".gitctx", "cache"))
	v.SetDefault("db_path", filepath.Join(".gitctx", "index.db"))
	v.SetDefault("provider", "")
	v.SetDefault("model", "")
	v.SetDefault("workers", DefaultWorkers)
	v.SetDefault("batch_size", DefaultBatchSize)
	v.SetDefault("log_level", DefaultLogLevel)
}

// Validate rejects values no component can work with.
func (c *Config) Validate() error {
	if c.MaxBlobSize < 0 {
		return fmt.Errorf("max_blob_size must be non-negative, got %d", c.MaxBlobSize)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must be non-negative, got %d", c.Workers)
	}
	if c.BatchSize < 0 {
		return fmt.Errorf("batch_size must be non-negative, got %d", c.BatchSize)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log_level %q", c.LogLevel)
	}
	return nil
}

// ResolveCacheDir returns the cache root as an absolute path under repoRoot
// when configured relative.
func (c *Config) ResolveCacheDir(repoRoot string) string {
	return resolve(repoRoot, c.CacheDir)
}

// ResolveDBPath returns the database path as an absolute path under
// repoRoot when configured relative.
func (c *Config) ResolveDBPath(repoRoot string) string {
	return resolve(repoRoot, c.DBPath)
}

func resolve(root, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}
