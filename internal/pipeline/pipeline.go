package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dshills/gitctx/internal/cache"
	"github.com/dshills/gitctx/internal/chunker"
	"github.com/dshills/gitctx/internal/embedder"
	"github.com/dshills/gitctx/internal/filter"
	"github.com/dshills/gitctx/internal/gitrepo"
	"github.com/dshills/gitctx/internal/store"
	"github.com/dshills/gitctx/internal/walker"
	"github.com/dshills/gitctx/pkg/types"
)

const (
	defaultWorkers   = 4
	defaultBatchSize = 32
)

// ErrIndexInProgress is returned when an index run is requested while
// another run on the same Pipeline has not finished.
var ErrIndexInProgress = errors.New("indexing already in progress")

// Config controls a single index run.
type Config struct {
	// Refs to walk. Empty means HEAD only.
	Refs []string

	// MaxBlobSize in bytes. Zero applies the walker default.
	MaxBlobSize int64

	// SkipBinary drops blobs that look binary.
	SkipBinary bool

	// Ignore, when non-nil, excludes paths matching gitignore rules.
	Ignore filter.IgnoreMatcher

	// Resume seeds the walk with content hashes already processed in a
	// previous run, so only new content is chunked and embedded.
	Resume bool

	// Model overrides the embedder's default model. Must match the model
	// the artifact cache was opened with.
	Model string

	// Workers bounds concurrent chunk+embed work. Zero means defaultWorkers.
	Workers int

	// BatchSize is the number of content records committed per transaction.
	BatchSize int

	// Progress, when non-nil, receives walk progress snapshots.
	Progress walker.ProgressFunc
}

// Result summarizes an index run: the walk statistics plus the work the
// pipeline did on top of the walk.
type Result struct {
	WalkStats      types.WalkStats
	ContentStored  int
	CacheHits      int
	CacheMisses    int
	ChunksEmbedded int
	TokensUsed     int
	CostUSD        float64
	Duration       time.Duration
}

// Pipeline drives a history walk through chunking, embedding, the artifact
// cache, and the store. One Pipeline serves one database; concurrent index
// runs on the same Pipeline are rejected.
type Pipeline struct {
	store    store.Store
	cache    *cache.Cache
	chunker  *chunker.Chunker
	embedder embedder.Embedder
	logger   *zap.Logger
	lock     IndexLock
}

// New creates a pipeline over the given store, artifact cache, and embedder.
func New(st store.Store, c *cache.Cache, emb embedder.Embedder, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		store:    st,
		cache:    c,
		chunker:  chunker.New(),
		embedder: emb,
		logger:   logger,
	}
}

// processed carries one record through the parallel phase to the serial
// write phase.
type processed struct {
	record    *types.ContentRecord
	artifacts []cache.Artifact
	cacheHit  bool
}

// IndexRepository walks repo's history and persists every unique content
// blob with its locations, chunks, and embeddings. Embedding work for
// content hashes already present in the artifact cache is skipped; with
// cfg.Resume, content already marked processed in the store is skipped
// entirely.
func (p *Pipeline) IndexRepository(ctx context.Context, repo gitrepo.Repository, rootPath string, cfg Config) (*Result, error) {
	if !p.lock.TryAcquire() {
		return nil, ErrIndexInProgress
	}
	defer p.lock.Release()

	start := time.Now()
	workers := cfg.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	model := cfg.Model
	if model == "" {
		model = p.embedder.Model()
	}

	repoRow, err := p.getOrCreateRepo(ctx, rootPath)
	if err != nil {
		return nil, err
	}

	var resume map[string]struct{}
	if cfg.Resume {
		resume, err = p.store.ProcessedContentHashes(ctx, repoRow.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load processed hashes: %w", err)
		}
		p.logger.Info("resuming index",
			zap.String("root", rootPath),
			zap.Int("already_processed", len(resume)))
	}

	w, err := walker.New(repo, walker.Config{
		Refs:        cfg.Refs,
		MaxBlobSize: cfg.MaxBlobSize,
		SkipBinary:  cfg.SkipBinary,
		Ignore:      cfg.Ignore,
		Resume:      resume,
		Progress:    cfg.Progress,
	}, p.logger)
	if err != nil {
		return nil, err
	}

	var records []*types.ContentRecord
	for rec := range w.Walk(ctx) {
		records = append(records, rec)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := &Result{}
	var cacheHits, cacheMisses, chunksEmbedded, tokensUsed atomic.Int64

	// Commit upserts are idempotent, but most commits appear in many
	// locations; tracking hashes already written avoids redundant writes.
	writtenCommits := make(map[string]struct{})

	for lo := 0; lo < len(records); lo += batchSize {
		hi := lo + batchSize
		if hi > len(records) {
			hi = len(records)
		}
		batch := records[lo:hi]
		results := make([]processed, len(batch))

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(workers)
		for i, rec := range batch {
			g.Go(func() error {
				artifacts, hit, err := p.processRecord(gctx, rec, model)
				if err != nil {
					return err
				}
				if hit {
					cacheHits.Add(1)
				} else {
					cacheMisses.Add(1)
					chunksEmbedded.Add(int64(len(artifacts)))
					for _, a := range artifacts {
						tokensUsed.Add(int64(a.TokenCount))
					}
				}
				results[i] = processed{record: rec, artifacts: artifacts, cacheHit: hit}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}

		stored, cost, err := p.writeBatch(ctx, repoRow.ID, model, results, writtenCommits)
		if err != nil {
			return nil, err
		}
		result.ContentStored += stored
		result.CostUSD += cost
	}

	result.WalkStats = w.Stats()
	result.CacheHits = int(cacheHits.Load())
	result.CacheMisses = int(cacheMisses.Load())
	result.ChunksEmbedded = int(chunksEmbedded.Load())
	result.TokensUsed = int(tokensUsed.Load())
	result.Duration = time.Since(start)

	if err := p.updateRepoStats(ctx, repoRow, cfg.Refs); err != nil {
		p.logger.Warn("failed to update repo stats", zap.Error(err))
	}

	p.logger.Info("index complete",
		zap.String("root", rootPath),
		zap.Int("commits", result.WalkStats.CommitsSeen),
		zap.Int("content_stored", result.ContentStored),
		zap.Int("cache_hits", result.CacheHits),
		zap.Int("cache_misses", result.CacheMisses),
		zap.Int("chunks_embedded", result.ChunksEmbedded),
		zap.Float64("cost_usd", result.CostUSD),
		zap.Duration("duration", result.Duration))

	return result, nil
}

// processRecord produces the embedding artifacts for one content record,
// consulting the cache before chunking and embedding.
func (p *Pipeline) processRecord(ctx context.Context, rec *types.ContentRecord, model string) ([]cache.Artifact, bool, error) {
	if artifacts, ok := p.cache.Get(rec.Hash); ok {
		return artifacts, true, nil
	}

	langHint := ""
	if len(rec.Locations) > 0 {
		langHint = chunker.LanguageHint(rec.Locations[0].Path)
	}
	spans := p.chunker.Chunk(string(rec.Content), langHint)
	if len(spans) == 0 {
		return nil, false, nil
	}

	texts := make([]string, len(spans))
	for i, sp := range spans {
		texts[i] = sp.Content
	}
	resp, err := p.embedder.GenerateBatch(ctx, embedder.BatchEmbeddingRequest{Texts: texts, Model: model})
	if err != nil {
		return nil, false, fmt.Errorf("failed to embed content %s: %w", rec.Hash, err)
	}
	if len(resp.Embeddings) != len(spans) {
		return nil, false, fmt.Errorf("embedding count mismatch for %s: got %d, want %d",
			rec.Hash, len(resp.Embeddings), len(spans))
	}

	artifacts := make([]cache.Artifact, len(spans))
	for i, emb := range resp.Embeddings {
		artifacts[i] = cache.Artifact{
			ChunkIndex: spans[i].Index,
			StartLine:  spans[i].StartLine,
			EndLine:    spans[i].EndLine,
			Vector:     emb.Vector,
			Dimension:  emb.Dimension,
			TokenCount: emb.TokenCount,
			CostUSD:    chunkCost(resp.Usage, emb.TokenCount),
		}
	}

	// A failed cache write costs a re-embed on the next run, nothing more.
	if err := p.cache.Set(rec.Hash, artifacts); err != nil {
		p.logger.Warn("failed to cache artifacts",
			zap.String("hash", rec.Hash),
			zap.Error(err))
	}

	return artifacts, false, nil
}

// chunkCost apportions a batch's cost to one chunk by its token share.
func chunkCost(usage embedder.Usage, chunkTokens int) float64 {
	if usage.PromptTokens <= 0 {
		return 0
	}
	return usage.CostUSD * float64(chunkTokens) / float64(usage.PromptTokens)
}

// writeBatch persists one batch of processed records in a single
// transaction. Returns the number of records stored and their total cost.
func (p *Pipeline) writeBatch(ctx context.Context, repoID int64, model string, batch []processed, writtenCommits map[string]struct{}) (int, float64, error) {
	tx, err := p.store.BeginTx(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	stored := 0
	cost := 0.0
	for _, item := range batch {
		rec := item.record

		for _, loc := range rec.Locations {
			if _, ok := writtenCommits[loc.CommitHash]; ok {
				continue
			}
			commit := &store.Commit{
				RepoID:      repoID,
				Hash:        loc.CommitHash,
				AuthorName:  loc.AuthorName,
				AuthorEmail: loc.AuthorEmail,
				CommittedAt: loc.CommitTimestamp,
				Message:     loc.CommitMessage,
				IsMerge:     loc.IsMerge,
			}
			if err := tx.UpsertCommit(ctx, commit); err != nil {
				return stored, cost, fmt.Errorf("failed to upsert commit %s: %w", loc.CommitHash, err)
			}
			writtenCommits[loc.CommitHash] = struct{}{}
		}

		content := &store.Content{
			RepoID:      repoID,
			ContentHash: rec.Hash,
			SizeBytes:   rec.Size,
		}
		if err := tx.UpsertContent(ctx, content); err != nil {
			return stored, cost, fmt.Errorf("failed to upsert content %s: %w", rec.Hash, err)
		}
		if err := tx.InsertLocations(ctx, content.ID, rec.Locations); err != nil {
			return stored, cost, fmt.Errorf("failed to insert locations for %s: %w", rec.Hash, err)
		}

		for _, a := range item.artifacts {
			chunk := &store.Chunk{
				ContentID:  content.ID,
				ChunkIndex: a.ChunkIndex,
				StartLine:  a.StartLine,
				EndLine:    a.EndLine,
				TokenCount: a.TokenCount,
			}
			if err := tx.UpsertChunk(ctx, chunk); err != nil {
				return stored, cost, fmt.Errorf("failed to upsert chunk %d of %s: %w", a.ChunkIndex, rec.Hash, err)
			}
			emb := &store.Embedding{
				ChunkID:   chunk.ID,
				Vector:    store.SerializeVector(a.Vector),
				Dimension: a.Dimension,
				Provider:  p.embedder.Provider(),
				Model:     model,
				CostUSD:   a.CostUSD,
			}
			if err := tx.UpsertEmbedding(ctx, emb); err != nil {
				return stored, cost, fmt.Errorf("failed to upsert embedding for chunk %d of %s: %w", a.ChunkIndex, rec.Hash, err)
			}
			if !item.cacheHit {
				cost += a.CostUSD
			}
		}

		if err := tx.MarkContentProcessed(ctx, content.ID); err != nil {
			return stored, cost, fmt.Errorf("failed to mark content %s processed: %w", rec.Hash, err)
		}
		stored++
	}

	if err := tx.Commit(); err != nil {
		return stored, cost, fmt.Errorf("failed to commit transaction: %w", err)
	}
	committed = true
	return stored, cost, nil
}

// getOrCreateRepo looks up the repo row for rootPath, creating it on first
// index.
func (p *Pipeline) getOrCreateRepo(ctx context.Context, rootPath string) (*store.Repo, error) {
	repo, err := p.store.GetRepo(ctx, rootPath)
	if err == nil {
		return repo, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("failed to get repo: %w", err)
	}
	repo = &store.Repo{
		RootPath:     rootPath,
		IndexVersion: store.CurrentSchemaVersion,
	}
	if err := p.store.CreateRepo(ctx, repo); err != nil {
		return nil, fmt.Errorf("failed to create repo: %w", err)
	}
	return repo, nil
}

// updateRepoStats refreshes the repo row's counters after an index run.
func (p *Pipeline) updateRepoStats(ctx context.Context, repo *store.Repo, refs []string) error {
	status, err := p.store.GetStatus(ctx, repo.ID)
	if err != nil {
		return err
	}
	repo.Refs = strings.Join(refs, ",")
	repo.TotalContents = status.ContentsCount
	repo.TotalChunks = status.ChunksCount
	repo.IndexVersion = store.CurrentSchemaVersion
	repo.LastIndexedAt = time.Now().UTC()
	return p.store.UpdateRepo(ctx, repo)
}
