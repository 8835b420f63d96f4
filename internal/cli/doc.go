// Package cli implements the gitctx command line interface.
//
// Commands:
//
//	gitctx index [path]        walk and index a repository's history
//	gitctx status [path]       show index statistics
//	gitctx cache stats [path]  show artifact cache statistics
//	gitctx cache clear [path]  delete cached artifacts for the active model
//	gitctx mcp                 serve tools over the Model Context Protocol
//	gitctx version             print version and build info
//
// Every repository-scoped command loads configuration from .gitctx.yaml in
// the repository root (or ~/.config/gitctx/), overridable with GITCTX_*
// environment variables.
package cli
