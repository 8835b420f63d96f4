package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the embedding artifact cache",
}

func init() {
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheClearCmd)
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats [path]",
	Short: "Show artifact cache statistics",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(args)
		if err != nil {
			exitCode = ExitUsageError
			return err
		}
		defer a.close()

		stats, err := a.cache.GetStats()
		if err != nil {
			exitCode = ExitRuntimeError
			return fmt.Errorf("reading cache stats: %w", err)
		}
		out := map[string]interface{}{
			"dir":         stats.Dir,
			"model":       a.model,
			"entries":     stats.Entries,
			"total_bytes": stats.TotalBytes,
		}
		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			exitCode = ExitRuntimeError
			return err
		}
		fmt.Fprintln(os.Stdout, string(data))
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear [path]",
	Short: "Delete every cached artifact for the active model",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(args)
		if err != nil {
			exitCode = ExitUsageError
			return err
		}
		defer a.close()

		if err := a.cache.Clear(); err != nil {
			exitCode = ExitRuntimeError
			return fmt.Errorf("clearing cache: %w", err)
		}
		fmt.Fprintln(os.Stdout, "Cache cleared.")
		return nil
	},
}
