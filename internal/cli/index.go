package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dshills/gitctx/internal/filter"
	"github.com/dshills/gitctx/internal/gitrepo"
	"github.com/dshills/gitctx/internal/pipeline"
	"github.com/dshills/gitctx/pkg/types"
)

var (
	flagRefs   []string
	flagResume bool
	flagQuiet  bool
)

func init() {
	indexCmd.Flags().StringSliceVar(&flagRefs, "refs", nil, "refs to walk (default: config or HEAD)")
	indexCmd.Flags().BoolVar(&flagResume, "resume", false, "skip content already processed in a previous run")
	indexCmd.Flags().BoolVarP(&flagQuiet, "quiet", "q", false, "suppress progress output")
}

var indexCmd = &cobra.Command{
	Use:   "index [path]",
	Short: "Index a repository's full history",
	Long: "Walk every configured ref back to the root commit, deduplicate file content " +
		"by blob hash, and chunk and embed each unique blob once. Previously embedded " +
		"content is served from the artifact cache at zero cost.",
	Args: cobra.MaximumNArgs(1),
	RunE: runIndex,
}

func runIndex(cmd *cobra.Command, args []string) error {
	a, err := newApp(args)
	if err != nil {
		exitCode = ExitUsageError
		return err
	}
	defer a.close()

	repo, err := gitrepo.Open(a.root, a.logger)
	if err != nil {
		exitCode = ExitRuntimeError
		return err
	}
	defer func() { _ = repo.Close() }()

	refs := flagRefs
	if len(refs) == 0 {
		refs = a.cfg.Refs
	}
	var ignore filter.IgnoreMatcher
	if a.cfg.UseGitignore && !repo.Bare() {
		ignore = filter.NewGitignoreMatcher(repo.IgnorePatterns())
	}

	var progressFn func(types.WalkProgress)
	if !flagQuiet {
		progressFn = func(p types.WalkProgress) {
			if p.CommitsSeen%100 == 0 {
				fmt.Fprintf(os.Stderr, "\rcommits %d  unique content %d", p.CommitsSeen, p.UniqueContent)
			}
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p := pipeline.New(a.store, a.cache, a.embedder, a.logger)
	result, err := p.IndexRepository(ctx, repo, a.root, pipeline.Config{
		Refs:        refs,
		MaxBlobSize: a.cfg.MaxBlobSize,
		SkipBinary:  a.cfg.SkipBinary,
		Ignore:      ignore,
		Resume:      flagResume,
		Model:       a.cfg.Model,
		Workers:     a.cfg.Workers,
		BatchSize:   a.cfg.BatchSize,
		Progress:    progressFn,
	})
	if !flagQuiet {
		fmt.Fprintln(os.Stderr)
	}
	if err != nil {
		exitCode = ExitRuntimeError
		return err
	}

	fmt.Fprintf(os.Stdout, "Indexed %s\n", a.root)
	fmt.Fprintf(os.Stdout, "  commits:          %d\n", result.WalkStats.CommitsSeen)
	fmt.Fprintf(os.Stdout, "  content accepted: %d\n", result.WalkStats.ContentAccepted)
	fmt.Fprintf(os.Stdout, "  content skipped:  %d\n", result.WalkStats.ContentSkipped)
	fmt.Fprintf(os.Stdout, "  stored:           %d\n", result.ContentStored)
	fmt.Fprintf(os.Stdout, "  cache hits:       %d\n", result.CacheHits)
	fmt.Fprintf(os.Stdout, "  cache misses:     %d\n", result.CacheMisses)
	fmt.Fprintf(os.Stdout, "  chunks embedded:  %d\n", result.ChunksEmbedded)
	fmt.Fprintf(os.Stdout, "  tokens used:      %d\n", result.TokensUsed)
	fmt.Fprintf(os.Stdout, "  cost:             $%.4f\n", result.CostUSD)
	fmt.Fprintf(os.Stdout, "  duration:         %s\n", result.Duration.Round(10*time.Millisecond))
	if n := len(result.WalkStats.Errors); n > 0 {
		fmt.Fprintf(os.Stdout, "  errors:           %d (see log)\n", n)
	}
	return nil
}
