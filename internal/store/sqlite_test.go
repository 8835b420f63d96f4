package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/gitctx/pkg/types"
)

func setupTestDB(t *testing.T) *SQLiteStore {
	// Use in-memory database for testing
	s, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	require.NotNil(t, s)
	return s
}

func testRepo(t *testing.T, s *SQLiteStore) *Repo {
	t.Helper()
	repo := &Repo{
		RootPath:     "/test/repo",
		Refs:         "refs/heads/main",
		IndexVersion: CurrentSchemaVersion,
	}
	require.NoError(t, s.CreateRepo(context.Background(), repo))
	return repo
}

func TestNewSQLiteStore(t *testing.T) {
	s := setupTestDB(t)
	defer s.Close()

	assert.NotNil(t, s)
	assert.NotNil(t, s.db)
}

func TestClose(t *testing.T) {
	s := setupTestDB(t)
	err := s.Close()
	assert.NoError(t, err)
}

func TestCreateRepo(t *testing.T) {
	s := setupTestDB(t)
	defer s.Close()

	ctx := context.Background()
	repo := &Repo{
		RootPath:     "/test/repo",
		Refs:         "refs/heads/main",
		IndexVersion: "1.0.0",
	}

	err := s.CreateRepo(ctx, repo)
	require.NoError(t, err)
	assert.Greater(t, repo.ID, int64(0))

	// Try to create duplicate - should fail
	duplicate := &Repo{
		RootPath:     "/test/repo",
		IndexVersion: "1.0.0",
	}
	err = s.CreateRepo(ctx, duplicate)
	assert.Error(t, err) // Unique constraint violation
}

func TestGetRepo(t *testing.T) {
	s := setupTestDB(t)
	defer s.Close()

	ctx := context.Background()
	repo := testRepo(t, s)

	retrieved, err := s.GetRepo(ctx, "/test/repo")
	require.NoError(t, err)
	assert.Equal(t, repo.ID, retrieved.ID)
	assert.Equal(t, repo.Refs, retrieved.Refs)
	assert.Equal(t, repo.RootPath, retrieved.RootPath)
}

func TestGetRepo_NotFound(t *testing.T) {
	s := setupTestDB(t)
	defer s.Close()

	ctx := context.Background()
	_, err := s.GetRepo(ctx, "/nonexistent")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateRepo(t *testing.T) {
	s := setupTestDB(t)
	defer s.Close()

	ctx := context.Background()
	repo := testRepo(t, s)

	repo.Refs = "refs/heads/main,refs/heads/develop"
	repo.TotalContents = 42
	repo.TotalChunks = 100
	repo.LastIndexedAt = time.Now()

	err := s.UpdateRepo(ctx, repo)
	require.NoError(t, err)

	updated, err := s.GetRepo(ctx, "/test/repo")
	require.NoError(t, err)
	assert.Equal(t, "refs/heads/main,refs/heads/develop", updated.Refs)
	assert.Equal(t, 42, updated.TotalContents)
	assert.Equal(t, 100, updated.TotalChunks)
}

func TestUpsertCommit(t *testing.T) {
	s := setupTestDB(t)
	defer s.Close()

	ctx := context.Background()
	repo := testRepo(t, s)

	commit := &Commit{
		RepoID:      repo.ID,
		Hash:        "aaaa000011112222333344445555666677778888",
		AuthorName:  "Alice",
		AuthorEmail: "alice@example.com",
		CommittedAt: time.Now(),
		Message:     "initial commit",
	}
	err := s.UpsertCommit(ctx, commit)
	require.NoError(t, err)
	assert.Greater(t, commit.ID, int64(0))

	// Upsert the same hash again with changed fields
	again := &Commit{
		RepoID:      repo.ID,
		Hash:        commit.Hash,
		AuthorName:  "Alice Updated",
		AuthorEmail: "alice@example.com",
		CommittedAt: commit.CommittedAt,
		Message:     "initial commit",
		IsMerge:     true,
	}
	err = s.UpsertCommit(ctx, again)
	require.NoError(t, err)
	assert.Equal(t, commit.ID, again.ID, "Upsert should keep the same row")

	retrieved, err := s.GetCommit(ctx, repo.ID, commit.Hash)
	require.NoError(t, err)
	assert.Equal(t, "Alice Updated", retrieved.AuthorName)
	assert.True(t, retrieved.IsMerge)
}

func TestGetCommit_NotFound(t *testing.T) {
	s := setupTestDB(t)
	defer s.Close()

	repo := testRepo(t, s)
	_, err := s.GetCommit(context.Background(), repo.ID, "deadbeef")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpsertContent(t *testing.T) {
	s := setupTestDB(t)
	defer s.Close()

	ctx := context.Background()
	repo := testRepo(t, s)

	content := &Content{
		RepoID:      repo.ID,
		ContentHash: "blob0001",
		SizeBytes:   128,
	}
	err := s.UpsertContent(ctx, content)
	require.NoError(t, err)
	assert.Greater(t, content.ID, int64(0))
	assert.False(t, content.Processed)

	// Idempotent per content hash: same row, updated size
	again := &Content{
		RepoID:      repo.ID,
		ContentHash: "blob0001",
		SizeBytes:   256,
	}
	err = s.UpsertContent(ctx, again)
	require.NoError(t, err)
	assert.Equal(t, content.ID, again.ID)

	retrieved, err := s.GetContentByHash(ctx, repo.ID, "blob0001")
	require.NoError(t, err)
	assert.Equal(t, int64(256), retrieved.SizeBytes)
}

func TestMarkContentProcessed(t *testing.T) {
	s := setupTestDB(t)
	defer s.Close()

	ctx := context.Background()
	repo := testRepo(t, s)

	content := &Content{RepoID: repo.ID, ContentHash: "blob0002", SizeBytes: 10}
	require.NoError(t, s.UpsertContent(ctx, content))

	require.NoError(t, s.MarkContentProcessed(ctx, content.ID))

	retrieved, err := s.GetContentByHash(ctx, repo.ID, "blob0002")
	require.NoError(t, err)
	assert.True(t, retrieved.Processed)
	assert.False(t, retrieved.ProcessedAt.IsZero())

	// Upsert keeps the processed flag
	require.NoError(t, s.UpsertContent(ctx, &Content{RepoID: repo.ID, ContentHash: "blob0002", SizeBytes: 10}))
	retrieved, err = s.GetContentByHash(ctx, repo.ID, "blob0002")
	require.NoError(t, err)
	assert.True(t, retrieved.Processed)
}

func TestProcessedContentHashes(t *testing.T) {
	s := setupTestDB(t)
	defer s.Close()

	ctx := context.Background()
	repo := testRepo(t, s)

	hashes := []string{"blobA", "blobB", "blobC"}
	ids := make([]int64, 0, len(hashes))
	for _, h := range hashes {
		c := &Content{RepoID: repo.ID, ContentHash: h, SizeBytes: 1}
		require.NoError(t, s.UpsertContent(ctx, c))
		ids = append(ids, c.ID)
	}

	// Only the first two are processed
	require.NoError(t, s.MarkContentProcessed(ctx, ids[0]))
	require.NoError(t, s.MarkContentProcessed(ctx, ids[1]))

	processed, err := s.ProcessedContentHashes(ctx, repo.ID)
	require.NoError(t, err)
	assert.Len(t, processed, 2)
	assert.Contains(t, processed, "blobA")
	assert.Contains(t, processed, "blobB")
	assert.NotContains(t, processed, "blobC")
}

func TestInsertLocations(t *testing.T) {
	s := setupTestDB(t)
	defer s.Close()

	ctx := context.Background()
	repo := testRepo(t, s)

	content := &Content{RepoID: repo.ID, ContentHash: "blob0003", SizeBytes: 64}
	require.NoError(t, s.UpsertContent(ctx, content))

	committed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	locations := []types.ContentLocation{
		{
			CommitHash:      "commit1",
			Path:            "src/main.go",
			IsHead:          true,
			AuthorName:      "Alice",
			AuthorEmail:     "alice@example.com",
			CommitTimestamp: committed,
			CommitMessage:   "add main",
		},
		{
			CommitHash:      "commit2",
			Path:            "src/old/main.go",
			IsHead:          false,
			AuthorName:      "Bob",
			AuthorEmail:     "bob@example.com",
			CommitTimestamp: committed.Add(-24 * time.Hour),
			CommitMessage:   "original location",
			IsMerge:         true,
		},
	}

	require.NoError(t, s.InsertLocations(ctx, content.ID, locations))

	stored, err := s.ListLocationsByContent(ctx, content.ID)
	require.NoError(t, err)
	require.Len(t, stored, 2)

	// Insertion order preserved via position
	assert.Equal(t, "src/main.go", stored[0].Path)
	assert.Equal(t, "src/old/main.go", stored[1].Path)
	assert.Equal(t, 0, stored[0].Position)
	assert.Equal(t, 1, stored[1].Position)

	// Denormalized commit fields survive the round trip
	assert.Equal(t, "Alice", stored[0].AuthorName)
	assert.True(t, stored[0].IsHead)
	assert.True(t, stored[1].IsMerge)

	back := stored[1].ToContentLocation()
	assert.Equal(t, locations[1].CommitHash, back.CommitHash)
	assert.Equal(t, locations[1].CommitMessage, back.CommitMessage)
}

func TestInsertLocations_DuplicateOccurrence(t *testing.T) {
	s := setupTestDB(t)
	defer s.Close()

	ctx := context.Background()
	repo := testRepo(t, s)

	content := &Content{RepoID: repo.ID, ContentHash: "blob0004", SizeBytes: 8}
	require.NoError(t, s.UpsertContent(ctx, content))

	loc := types.ContentLocation{CommitHash: "commit1", Path: "a.txt"}
	require.NoError(t, s.InsertLocations(ctx, content.ID, []types.ContentLocation{loc}))
	// Re-inserting the same (commit, path) pair must not duplicate
	require.NoError(t, s.InsertLocations(ctx, content.ID, []types.ContentLocation{loc}))

	stored, err := s.ListLocationsByContent(ctx, content.ID)
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

func TestUpsertChunk(t *testing.T) {
	s := setupTestDB(t)
	defer s.Close()

	ctx := context.Background()
	repo := testRepo(t, s)

	content := &Content{RepoID: repo.ID, ContentHash: "blob0005", SizeBytes: 1000}
	require.NoError(t, s.UpsertContent(ctx, content))

	chunk := &Chunk{
		ContentID:  content.ID,
		ChunkIndex: 0,
		StartLine:  1,
		EndLine:    40,
		TokenCount: 250,
	}
	require.NoError(t, s.UpsertChunk(ctx, chunk))
	assert.Greater(t, chunk.ID, int64(0))

	// Upsert same index updates in place
	again := &Chunk{
		ContentID:  content.ID,
		ChunkIndex: 0,
		StartLine:  1,
		EndLine:    38,
		TokenCount: 240,
	}
	require.NoError(t, s.UpsertChunk(ctx, again))
	assert.Equal(t, chunk.ID, again.ID)

	chunks, err := s.ListChunksByContent(ctx, content.ID)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, 38, chunks[0].EndLine)
}

func TestUpsertEmbedding(t *testing.T) {
	s := setupTestDB(t)
	defer s.Close()

	ctx := context.Background()
	repo := testRepo(t, s)

	content := &Content{RepoID: repo.ID, ContentHash: "blob0006", SizeBytes: 100}
	require.NoError(t, s.UpsertContent(ctx, content))

	chunk := &Chunk{ContentID: content.ID, ChunkIndex: 0, StartLine: 1, EndLine: 10, TokenCount: 50}
	require.NoError(t, s.UpsertChunk(ctx, chunk))

	vec := []float32{0.1, -0.5, 0.25, 1.0}
	embedding := &Embedding{
		ChunkID:   chunk.ID,
		Vector:    SerializeVector(vec),
		Dimension: len(vec),
		Provider:  "local",
		Model:     "local-embeddings",
		CostUSD:   0.000004,
	}
	require.NoError(t, s.UpsertEmbedding(ctx, embedding))

	retrieved, err := s.GetEmbedding(ctx, chunk.ID)
	require.NoError(t, err)
	assert.Equal(t, len(vec), retrieved.Dimension)
	assert.Equal(t, vec, DeserializeVector(retrieved.Vector))
	assert.InDelta(t, 0.000004, retrieved.CostUSD, 1e-12)
}

func TestGetEmbedding_NotFound(t *testing.T) {
	s := setupTestDB(t)
	defer s.Close()

	_, err := s.GetEmbedding(context.Background(), 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTransaction(t *testing.T) {
	s := setupTestDB(t)
	defer s.Close()

	ctx := context.Background()
	repo := testRepo(t, s)

	t.Run("commit persists writes", func(t *testing.T) {
		tx, err := s.BeginTx(ctx)
		require.NoError(t, err)

		content := &Content{RepoID: repo.ID, ContentHash: "tx-blob-1", SizeBytes: 5}
		require.NoError(t, tx.UpsertContent(ctx, content))
		require.NoError(t, tx.InsertLocations(ctx, content.ID, []types.ContentLocation{
			{CommitHash: "c1", Path: "f.txt", IsHead: true},
		}))
		require.NoError(t, tx.Commit())

		retrieved, err := s.GetContentByHash(ctx, repo.ID, "tx-blob-1")
		require.NoError(t, err)
		locs, err := s.ListLocationsByContent(ctx, retrieved.ID)
		require.NoError(t, err)
		assert.Len(t, locs, 1)
	})

	t.Run("rollback discards writes", func(t *testing.T) {
		tx, err := s.BeginTx(ctx)
		require.NoError(t, err)

		content := &Content{RepoID: repo.ID, ContentHash: "tx-blob-2", SizeBytes: 5}
		require.NoError(t, tx.UpsertContent(ctx, content))
		require.NoError(t, tx.Rollback())

		_, err = s.GetContentByHash(ctx, repo.ID, "tx-blob-2")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("nested transactions rejected", func(t *testing.T) {
		tx, err := s.BeginTx(ctx)
		require.NoError(t, err)
		defer func() { _ = tx.Rollback() }()

		_, err = tx.BeginTx(ctx)
		assert.Error(t, err)
	})
}

func TestGetStatus(t *testing.T) {
	s := setupTestDB(t)
	defer s.Close()

	ctx := context.Background()
	repo := testRepo(t, s)

	commit := &Commit{RepoID: repo.ID, Hash: "c1", CommittedAt: time.Now()}
	require.NoError(t, s.UpsertCommit(ctx, commit))

	content := &Content{RepoID: repo.ID, ContentHash: "blob1", SizeBytes: 20}
	require.NoError(t, s.UpsertContent(ctx, content))
	require.NoError(t, s.InsertLocations(ctx, content.ID, []types.ContentLocation{
		{CommitHash: "c1", Path: "a.go", IsHead: true},
		{CommitHash: "c1", Path: "b.go", IsHead: false},
	}))
	require.NoError(t, s.MarkContentProcessed(ctx, content.ID))

	chunk := &Chunk{ContentID: content.ID, ChunkIndex: 0, StartLine: 1, EndLine: 5, TokenCount: 10}
	require.NoError(t, s.UpsertChunk(ctx, chunk))
	require.NoError(t, s.UpsertEmbedding(ctx, &Embedding{
		ChunkID:   chunk.ID,
		Vector:    SerializeVector([]float32{1, 2}),
		Dimension: 2,
		Provider:  "local",
		Model:     "local-embeddings",
	}))

	status, err := s.GetStatus(ctx, repo.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, status.CommitsCount)
	assert.Equal(t, 1, status.ContentsCount)
	assert.Equal(t, 1, status.ProcessedCount)
	assert.Equal(t, 2, status.LocationsCount)
	assert.Equal(t, 1, status.ChunksCount)
	assert.Equal(t, 1, status.EmbeddingsCount)
	assert.True(t, status.Health.DatabaseAccessible)
	assert.True(t, status.Health.EmbeddingsAvailable)
}

func TestGetStatus_NotFound(t *testing.T) {
	s := setupTestDB(t)
	defer s.Close()

	_, err := s.GetStatus(context.Background(), 12345)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSerializeVectorRoundTrip(t *testing.T) {
	vec := []float32{0, 1.5, -3.25, 1e-7, -1e7}
	blob := SerializeVector(vec)
	assert.Len(t, blob, len(vec)*4)
	assert.Equal(t, vec, DeserializeVector(blob))
}
