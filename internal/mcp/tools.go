package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/dshills/gitctx/internal/filter"
	"github.com/dshills/gitctx/internal/gitrepo"
	"github.com/dshills/gitctx/internal/pipeline"
	"github.com/dshills/gitctx/internal/store"
)

// MCP error codes
const (
	ErrorCodeInvalidParams      = -32602 // Invalid method parameters
	ErrorCodeInternalError      = -32603 // Internal JSON-RPC error
	ErrorCodeRepoNotOpenable    = -32001 // Path is not a usable git repository
	ErrorCodeIndexingInProgress = -32002 // Another indexing operation is already running
)

// handleIndexRepository handles the index_repository tool invocation
func (s *Server) handleIndexRepository(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	path, err := requirePath(args)
	if err != nil {
		return nil, err
	}
	refs := getStringSlice(args, "refs")
	resume := getBoolDefault(args, "resume", false)

	repo, err := gitrepo.Open(path, s.logger)
	if err != nil {
		// Shallow and partial clones carry actionable remediation text.
		return nil, newMCPError(ErrorCodeRepoNotOpenable, "cannot index repository", map[string]interface{}{
			"error": err.Error(),
		})
	}
	defer func() { _ = repo.Close() }()

	res, err := s.openResources(path)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to open repository resources", map[string]interface{}{
			"error": err.Error(),
		})
	}
	defer res.close()

	if len(refs) == 0 {
		refs = res.cfg.Refs
	}
	var ignore filter.IgnoreMatcher
	if res.cfg.UseGitignore && !repo.Bare() {
		ignore = filter.NewGitignoreMatcher(repo.IgnorePatterns())
	}

	p := pipeline.New(res.store, res.cache, s.embedder, s.logger)
	result, err := p.IndexRepository(ctx, repo, path, pipeline.Config{
		Refs:        refs,
		MaxBlobSize: res.cfg.MaxBlobSize,
		SkipBinary:  res.cfg.SkipBinary,
		Ignore:      ignore,
		Resume:      resume,
		Model:       res.cfg.Model,
		Workers:     res.cfg.Workers,
		BatchSize:   res.cfg.BatchSize,
	})
	if errors.Is(err, pipeline.ErrIndexInProgress) {
		return nil, newMCPError(ErrorCodeIndexingInProgress, "indexing already in progress", nil)
	}
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "indexing failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	response := map[string]interface{}{
		"indexed":          true,
		"commits_seen":     result.WalkStats.CommitsSeen,
		"content_accepted": result.WalkStats.ContentAccepted,
		"content_skipped":  result.WalkStats.ContentSkipped,
		"content_stored":   result.ContentStored,
		"cache_hits":       result.CacheHits,
		"cache_misses":     result.CacheMisses,
		"chunks_embedded":  result.ChunksEmbedded,
		"tokens_used":      result.TokensUsed,
		"cost_usd":         result.CostUSD,
		"duration_ms":      result.Duration.Milliseconds(),
	}
	if n := len(result.WalkStats.Errors); n > 0 {
		limit := n
		if limit > 5 {
			limit = 5
		}
		msgs := make([]string, 0, limit)
		for _, we := range result.WalkStats.Errors[:limit] {
			msgs = append(msgs, fmt.Sprintf("%s at %s: %s", we.Category, we.CommitHash, we.Message))
		}
		response["errors"] = msgs
		response["error_count"] = n
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleGetStatus handles the get_status tool invocation
func (s *Server) handleGetStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	path, err := requirePath(args)
	if err != nil {
		return nil, err
	}

	res, err := s.openResources(path)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to open repository resources", map[string]interface{}{
			"error": err.Error(),
		})
	}
	defer res.close()

	repo, err := res.store.GetRepo(ctx, path)
	if errors.Is(err, store.ErrNotFound) {
		response := map[string]interface{}{
			"indexed": false,
			"path":    path,
			"message": "Repository not indexed. Use index_repository tool to index it.",
		}
		return mcp.NewToolResultText(formatJSON(response)), nil
	}
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to get repository", map[string]interface{}{
			"error": err.Error(),
		})
	}

	status, err := res.store.GetStatus(ctx, repo.ID)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to get status", map[string]interface{}{
			"error": err.Error(),
		})
	}

	response := map[string]interface{}{
		"indexed": true,
		"repository": map[string]interface{}{
			"path":            repo.RootPath,
			"refs":            repo.Refs,
			"index_version":   repo.IndexVersion,
			"last_indexed_at": repo.LastIndexedAt.Format("2006-01-02T15:04:05Z07:00"),
		},
		"statistics": map[string]interface{}{
			"commits_count":    status.CommitsCount,
			"contents_count":   status.ContentsCount,
			"processed_count":  status.ProcessedCount,
			"locations_count":  status.LocationsCount,
			"chunks_count":     status.ChunksCount,
			"embeddings_count": status.EmbeddingsCount,
			"index_size_mb":    fmt.Sprintf("%.2f", status.IndexSizeMB),
		},
		"health": map[string]interface{}{
			"database_accessible":  status.Health.DatabaseAccessible,
			"embeddings_available": status.Health.EmbeddingsAvailable,
		},
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleCacheStats handles the cache_stats tool invocation
func (s *Server) handleCacheStats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	path, err := requirePath(args)
	if err != nil {
		return nil, err
	}
	clear := getBoolDefault(args, "clear", false)

	res, err := s.openResources(path)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to open repository resources", map[string]interface{}{
			"error": err.Error(),
		})
	}
	defer res.close()

	cleared := false
	if clear {
		if err := res.cache.Clear(); err != nil {
			return nil, newMCPError(ErrorCodeInternalError, "failed to clear cache", map[string]interface{}{
				"error": err.Error(),
			})
		}
		cleared = true
	}

	stats, err := res.cache.GetStats()
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to read cache stats", map[string]interface{}{
			"error": err.Error(),
		})
	}

	model := res.cfg.Model
	if model == "" {
		model = s.embedder.Model()
	}
	response := map[string]interface{}{
		"dir":         stats.Dir,
		"model":       model,
		"entries":     stats.Entries,
		"total_bytes": stats.TotalBytes,
		"cleared":     cleared,
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// Helper functions

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
	// MCP errors are returned as regular errors, the framework handles encoding
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// requirePath extracts and validates the mandatory path argument.
func requirePath(args map[string]interface{}) (string, error) {
	path, ok := args["path"].(string)
	if !ok || path == "" {
		return "", newMCPError(ErrorCodeInvalidParams, "path parameter is required", map[string]interface{}{
			"param":  "path",
			"reason": "missing or empty",
		})
	}
	if err := validatePath(path); err != nil {
		return "", newMCPError(ErrorCodeInvalidParams, "invalid path", map[string]interface{}{
			"param":  "path",
			"reason": err.Error(),
		})
	}
	return path, nil
}

// validatePath checks if a path exists and is an accessible directory.
// Whether it is a usable git repository is decided by opening it.
func validatePath(path string) error {
	if !filepath.IsAbs(path) {
		return ErrPathNotAbsolute
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return ErrPathNotFound
	}
	if err != nil {
		return ErrPathNotReadable
	}
	if !info.IsDir() {
		return ErrNotDirectory
	}

	f, err := os.Open(path)
	if err != nil {
		return ErrPathNotReadable
	}
	_ = f.Close()

	return nil
}

// formatJSON formats a map as indented JSON
func formatJSON(data map[string]interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// getBoolDefault extracts a boolean parameter with a default value
func getBoolDefault(args map[string]interface{}, key string, defaultValue bool) bool {
	if val, ok := args[key].(bool); ok {
		return val
	}
	return defaultValue
}

// getStringSlice extracts a string array parameter.
func getStringSlice(args map[string]interface{}, key string) []string {
	raw, ok := args[key].([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// Validation helpers

var (
	ErrPathNotAbsolute = errors.New("path must be absolute")
	ErrPathNotFound    = errors.New("path does not exist")
	ErrPathNotReadable = errors.New("path is not readable")
	ErrNotDirectory    = errors.New("path is not a directory")
)
