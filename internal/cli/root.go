package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dshills/gitctx/internal/store"
)

// Version is stamped at build time via -ldflags.
var Version = "dev"

// Exit codes.
const (
	ExitSuccess      = 0
	ExitUsageError   = 2
	ExitRuntimeError = 4
)

var rootCmd = &cobra.Command{
	Use:   "gitctx",
	Short: "Index git history with content-addressed embeddings",
	Long: "gitctx walks a repository's full commit history, deduplicates file content " +
		"by blob hash, and indexes every unique blob with vector embeddings. " +
		"Identical content anywhere in history is embedded exactly once.",
	SilenceUsage: true,
}

// Run executes the root command and returns an exit code.
func Run() int {
	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(versionCmd)

	if err := rootCmd.Execute(); err != nil {
		// Cobra already prints the error
		return ExitRuntimeError
	}
	return exitCode
}

// exitCode is set by command handlers to control the process exit code.
var exitCode = ExitSuccess

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print gitctx version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(os.Stdout, "gitctx version %s (%s build, driver %s)\n",
			Version, store.BuildMode, store.DriverName)
	},
}
