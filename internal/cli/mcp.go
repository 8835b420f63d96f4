package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dshills/gitctx/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the MCP server on stdio",
	Long: "Serve gitctx tools over the Model Context Protocol. The protocol stream " +
		"uses stdout; all logging goes to stderr.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, err := newLogger("info")
		if err != nil {
			exitCode = ExitRuntimeError
			return err
		}
		defer func() { _ = logger.Sync() }()

		server, err := mcp.NewServer(logger)
		if err != nil {
			exitCode = ExitRuntimeError
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := server.Serve(ctx); err != nil {
			exitCode = ExitRuntimeError
			return err
		}
		return nil
	},
}
