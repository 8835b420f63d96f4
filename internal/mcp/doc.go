// Package mcp implements the Model Context Protocol (MCP) server for gitctx.
//
// The MCP server exposes three tools to AI coding assistants:
//   - index_repository: Walk a git repository's history and index every
//     unique content blob with embeddings
//   - get_status: Check indexing status and statistics
//   - cache_stats: Inspect or clear the on-disk embedding artifact cache
//
// # Protocol Overview
//
// MCP is a JSON-RPC 2.0 protocol over stdio transport:
//
//	Client → Server: {"method": "tools/call", "params": {...}}
//	Server → Client: {"result": {...}}
//
// The server reads protocol messages from stdin and writes responses to
// stdout. All logging goes to stderr; a single stray stdout write corrupts
// the protocol stream.
//
// # Basic Usage
//
// The MCP server is typically started via the mcp command:
//
//	gitctx mcp
//
// # Tool: index_repository
//
// Index a repository's full history:
//
//	Request:
//	{
//	  "name": "index_repository",
//	  "arguments": {
//	    "path": "/path/to/repo",
//	    "refs": ["main", "release/v2"],
//	    "resume": false
//	  }
//	}
//
//	Response:
//	{
//	  "indexed": true,
//	  "commits_seen": 1472,
//	  "content_accepted": 3911,
//	  "content_skipped": 204,
//	  "cache_hits": 3720,
//	  "cache_misses": 191,
//	  "chunks_embedded": 412,
//	  "cost_usd": 0.0041,
//	  "duration_ms": 9182
//	}
//
// Identical content bytes anywhere in history share one content hash, so a
// re-index after a provider switch or a cache wipe is the only time the
// full embedding cost is paid.
//
// # Tool: get_status
//
// Query index statistics for a repository:
//
//	Request:
//	{
//	  "name": "get_status",
//	  "arguments": {"path": "/path/to/repo"}
//	}
//
//	Response:
//	{
//	  "indexed": true,
//	  "repository": {"path": "/path/to/repo", "refs": "HEAD", ...},
//	  "statistics": {"commits_count": 1472, "contents_count": 3911, ...},
//	  "health": {"database_accessible": true, "embeddings_available": true}
//	}
//
// # Tool: cache_stats
//
// Report or clear the artifact cache for the active embedding model:
//
//	Request:
//	{
//	  "name": "cache_stats",
//	  "arguments": {"path": "/path/to/repo", "clear": false}
//	}
//
// # Error Codes
//
// Tool failures use JSON-RPC error codes: -32602 for invalid parameters,
// -32603 for internal failures, -32001 when the path is not a usable git
// repository (shallow and partial clones are rejected with remediation
// text), and -32002 when another index run is already in progress.
package mcp
