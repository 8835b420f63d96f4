package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dshills/gitctx/internal/store"
)

var statusCmd = &cobra.Command{
	Use:   "status [path]",
	Short: "Show index statistics for a repository",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	a, err := newApp(args)
	if err != nil {
		exitCode = ExitUsageError
		return err
	}
	defer a.close()

	ctx := cmd.Context()
	repo, err := a.store.GetRepo(ctx, a.root)
	if errors.Is(err, store.ErrNotFound) {
		fmt.Fprintf(os.Stdout, "%s is not indexed. Run 'gitctx index' first.\n", a.root)
		return nil
	}
	if err != nil {
		exitCode = ExitRuntimeError
		return err
	}

	status, err := a.store.GetStatus(ctx, repo.ID)
	if err != nil {
		exitCode = ExitRuntimeError
		return err
	}

	out := map[string]interface{}{
		"path":             repo.RootPath,
		"refs":             repo.Refs,
		"index_version":    repo.IndexVersion,
		"last_indexed_at":  repo.LastIndexedAt,
		"commits":          status.CommitsCount,
		"contents":         status.ContentsCount,
		"processed":        status.ProcessedCount,
		"locations":        status.LocationsCount,
		"chunks":           status.ChunksCount,
		"embeddings":       status.EmbeddingsCount,
		"index_size_mb":    status.IndexSizeMB,
		"embedding_model":  a.model,
		"health_db":        status.Health.DatabaseAccessible,
		"health_embedding": status.Health.EmbeddingsAvailable,
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		exitCode = ExitRuntimeError
		return err
	}
	fmt.Fprintln(os.Stdout, string(data))
	return nil
}
