package walker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"

	"go.uber.org/zap"

	"github.com/dshills/gitctx/internal/filter"
	"github.com/dshills/gitctx/internal/gitrepo"
	"github.com/dshills/gitctx/pkg/types"
)

// ProgressFunc receives a WalkProgress snapshot at least once per commit.
type ProgressFunc func(types.WalkProgress)

// Config controls one walk.
type Config struct {
	// Refs to walk. Empty defaults to HEAD. Multi-ref walks count each
	// commit once even when reachable from several refs.
	Refs []string

	// MaxBlobSize caps accepted content size in bytes. 0 uses the filter default.
	MaxBlobSize int64

	// SkipBinary enables the zero-byte binary heuristic.
	SkipBinary bool

	// Ignore enables gitignore-pattern exclusion when non-nil.
	Ignore filter.IgnoreMatcher

	// Resume holds content hashes already processed by an earlier run.
	// Hashes in this set are skipped before any filtering.
	Resume map[string]struct{}

	// Progress, when non-nil, is invoked after each commit is processed.
	Progress ProgressFunc
}

type refTip struct {
	ref  string
	hash string
}

// Walker traverses the commit graph from the configured refs, recurses
// trees, consults the blob filter, and aggregates one ContentRecord per
// unique accepted content hash with every (commit, path) location.
//
// All dedup state is per-instance: repeated construction in one process
// never cross-contaminates results. A Walker runs exactly one walk.
type Walker struct {
	repo   gitrepo.Repository
	filter *filter.Filter
	cfg    Config
	logger *zap.Logger

	tips []refTip

	started bool

	// Private until the traversal completes; records are immutable once
	// released to the caller.
	records map[string]*types.ContentRecord
	order   []string

	visited map[string]struct{}
	headSet map[string]struct{}
	stats   types.WalkStats
}

// New constructs a Walker and resolves the configured refs up front, so a
// bad ref fails fast instead of surfacing mid-walk.
func New(repo gitrepo.Repository, cfg Config, logger *zap.Logger) (*Walker, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	refs := cfg.Refs
	if len(refs) == 0 {
		refs = []string{"HEAD"}
	}

	tips := make([]refTip, 0, len(refs))
	for _, ref := range refs {
		hash, err := repo.ResolveRef(ref)
		if err != nil {
			return nil, fmt.Errorf("walker: %w", err)
		}
		tips = append(tips, refTip{ref: ref, hash: hash})
	}

	f := filter.New(filter.Config{
		MaxBlobSize: cfg.MaxBlobSize,
		SkipBinary:  cfg.SkipBinary,
		Ignore:      cfg.Ignore,
	})

	return &Walker{
		repo:    repo,
		filter:  f,
		cfg:     cfg,
		logger:  logger,
		tips:    tips,
		records: make(map[string]*types.ContentRecord),
		visited: make(map[string]struct{}),
		headSet: make(map[string]struct{}),
	}, nil
}

// Walk returns the walk's content records as a lazy, finite, non-restartable
// sequence. The traversal runs to completion before the first record is
// released, so every record's location list is final when the caller sees
// it. A cancelled context stops the traversal and yields nothing; Stats
// remains valid either way.
func (w *Walker) Walk(ctx context.Context) iter.Seq[*types.ContentRecord] {
	return func(yield func(*types.ContentRecord) bool) {
		if w.started {
			w.logger.Warn("walker reused; a walker runs exactly one walk")
			return
		}
		w.started = true

		w.traverse(ctx)
		if ctx.Err() != nil {
			w.logger.Info("walk interrupted",
				zap.Int("commits_seen", w.stats.CommitsSeen),
				zap.Int("content_accepted", w.stats.ContentAccepted))
			return
		}

		for _, hash := range w.order {
			if !yield(w.records[hash]) {
				return
			}
		}
	}
}

// Stats returns a snapshot of the walk statistics. Valid at any point,
// including after interruption.
func (w *Walker) Stats() types.WalkStats {
	stats := w.stats
	stats.Errors = append([]types.WalkError(nil), w.stats.Errors...)
	return stats
}

func (w *Walker) traverse(ctx context.Context) {
	w.buildHeadSet()

	for _, tip := range w.tips {
		if ctx.Err() != nil {
			return
		}
		w.walkRef(ctx, tip)
	}
}

// buildHeadSet collects the content hashes reachable from the first ref's
// tip, enabling O(1) is_head checks per location. Bare repositories have no
// checkout to compare against, so the set stays empty and is_head is always
// false there.
func (w *Walker) buildHeadSet() {
	if w.repo.Bare() || len(w.tips) == 0 {
		return
	}

	tip := w.tips[0]
	commit, err := w.repo.Commit(tip.hash)
	if err != nil {
		w.stats.AddError(types.ErrorCommitRead, tip.hash, "", fmt.Sprintf("head tree: %v", err))
		return
	}
	w.collectHeadTree(commit.TreeHash)
}

func (w *Walker) collectHeadTree(treeHash string) {
	entries, err := w.repo.TreeEntries(treeHash)
	if err != nil {
		w.stats.AddError(types.ErrorTreeRead, "", "", fmt.Sprintf("head tree %s: %v", treeHash, err))
		return
	}
	for _, entry := range entries {
		switch entry.Kind {
		case gitrepo.EntryDir:
			w.collectHeadTree(entry.Hash)
		case gitrepo.EntryFile:
			w.headSet[entry.Hash] = struct{}{}
		}
	}
}

// walkRef visits commits reachable from one ref tip, children before
// parents. The visited set spans refs, so multi-ref walks process each
// commit exactly once.
func (w *Walker) walkRef(ctx context.Context, tip refTip) {
	commits, err := w.repo.CommitsFrom(tip.hash)
	if err != nil {
		w.stats.AddError(types.ErrorCommitRead, tip.hash, "", err.Error())
		return
	}
	defer commits.Close()

	for {
		if ctx.Err() != nil {
			return
		}

		commit, err := commits.Next()
		if errors.Is(err, io.EOF) {
			return
		}
		if err != nil {
			w.stats.AddError(types.ErrorCommitRead, tip.hash, "", err.Error())
			return
		}

		if _, seen := w.visited[commit.Hash]; seen {
			continue
		}
		w.visited[commit.Hash] = struct{}{}
		w.stats.CommitsSeen++

		record := &types.CommitRecord{
			Hash:        commit.Hash,
			AuthorName:  commit.AuthorName,
			AuthorEmail: commit.AuthorEmail,
			Timestamp:   commit.When,
			Message:     commit.Message,
			IsMerge:     commit.Parents >= 2,
		}

		w.walkTree(record, commit.TreeHash, "")

		if w.cfg.Progress != nil {
			w.cfg.Progress(types.WalkProgress{
				CommitsSeen:   w.stats.CommitsSeen,
				UniqueContent: len(w.records),
				CurrentCommit: commit.Hash,
			})
		}
	}
}

// walkTree recurses into subtrees. Submodule gitlinks are skipped entirely,
// and symlink entries are skipped because a link's blob holds the target
// path, not the file's content. Only regular files reach the filter.
func (w *Walker) walkTree(commit *types.CommitRecord, treeHash, prefix string) {
	entries, err := w.repo.TreeEntries(treeHash)
	if err != nil {
		w.stats.AddError(types.ErrorTreeRead, commit.Hash, "", fmt.Sprintf("tree %s: %v", treeHash, err))
		return
	}

	for _, entry := range entries {
		path := entry.Name
		if prefix != "" {
			path = prefix + "/" + entry.Name
		}

		switch entry.Kind {
		case gitrepo.EntryDir:
			w.walkTree(commit, entry.Hash, path)
		case gitrepo.EntryFile:
			w.visitBlob(commit, entry.Hash, path)
		}
	}
}

func (w *Walker) visitBlob(commit *types.CommitRecord, hash, path string) {
	// Resume hashes are known-done work: skipped before any filtering so
	// no binary/size/ignore check is wasted on them.
	if _, done := w.cfg.Resume[hash]; done {
		return
	}

	_, head := w.headSet[hash]

	// Content already accepted in this walk: only the path-dependent rules
	// can change the outcome, so the content rules are not re-run.
	if record, ok := w.records[hash]; ok {
		if d := w.filter.DecidePath(path); d.Skip {
			w.stats.ContentSkipped++
			return
		}
		record.Locations = append(record.Locations, types.NewContentLocation(commit, path, head))
		return
	}

	content, err := w.repo.ReadBlob(hash)
	if err != nil {
		w.stats.AddError(types.ErrorBlobRead, commit.Hash, hash, err.Error())
		return
	}

	if d := w.filter.Decide(path, content); d.Skip {
		w.stats.ContentSkipped++
		return
	}

	record := &types.ContentRecord{
		Hash:      hash,
		Content:   content,
		Size:      int64(len(content)),
		Locations: []types.ContentLocation{types.NewContentLocation(commit, path, head)},
	}
	w.records[hash] = record
	w.order = append(w.order, hash)
	w.stats.ContentAccepted++
}
