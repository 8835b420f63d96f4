package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// indexRepositoryTool returns the tool definition for index_repository
func indexRepositoryTool() mcp.Tool {
	return mcp.Tool{
		Name:        "index_repository",
		Description: "Walk a git repository's full history and index every unique content blob with embeddings",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path to the git repository root (bare repositories are supported)",
				},
				"refs": map[string]interface{}{
					"type":        "array",
					"description": "Refs to walk (branch names, tags, or commit hashes). Defaults to HEAD.",
					"items": map[string]interface{}{
						"type": "string",
					},
				},
				"resume": map[string]interface{}{
					"type":        "boolean",
					"description": "If true, skip content hashes already processed in a previous run",
					"default":     false,
				},
			},
			Required: []string{"path"},
		},
	}
}

// getStatusTool returns the tool definition for get_status
func getStatusTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_status",
		Description: "Query indexing status and statistics for a git repository",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path to the git repository root",
				},
			},
			Required: []string{"path"},
		},
	}
}

// cacheStatsTool returns the tool definition for cache_stats
func cacheStatsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "cache_stats",
		Description: "Report (and optionally clear) the on-disk embedding artifact cache for a repository",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path to the git repository root",
				},
				"clear": map[string]interface{}{
					"type":        "boolean",
					"description": "If true, delete every cached artifact for the active model",
					"default":     false,
				},
			},
			Required: []string{"path"},
		},
	}
}
