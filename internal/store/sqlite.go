package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dshills/gitctx/pkg/types"
)

var (
	// ErrNotFound is returned when a requested entity doesn't exist
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when trying to create a duplicate entity
	ErrAlreadyExists = errors.New("already exists")
)

// SQLiteStore implements the Store interface using SQLite
type SQLiteStore struct {
	db *sql.DB
}

// openDatabase opens a SQLite database with appropriate settings
func openDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(1) // SQLite benefits from single writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// NewSQLiteStore creates a new SQLite store instance
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := openDatabase(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Apply migrations
	if err := ApplyMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// BeginTx starts a new transaction
func (s *SQLiteStore) BeginTx(ctx context.Context) (Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &sqliteTx{tx: tx, store: s}, nil
}

// querier is an interface that both *sql.DB and *sql.Tx implement
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// sqliteTx wraps a SQL transaction
type sqliteTx struct {
	tx    *sql.Tx
	store *SQLiteStore
}

func (t *sqliteTx) Commit() error {
	return t.tx.Commit()
}

func (t *sqliteTx) Rollback() error {
	return t.tx.Rollback()
}

// querier returns the transaction querier
func (t *sqliteTx) querier() querier {
	return t.tx
}

// querier returns the DB querier
func (s *SQLiteStore) querier() querier {
	return s.db
}

// Repo operations

// createRepoWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStore) createRepoWithQuerier(ctx context.Context, q querier, repo *Repo) error {
	query := `
		INSERT INTO repos (root_path, refs, index_version, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`
	now := time.Now()
	result, err := q.ExecContext(ctx, query,
		repo.RootPath, repo.Refs, repo.IndexVersion, now, now)
	if err != nil {
		return fmt.Errorf("failed to create repo: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	repo.ID = id
	repo.CreatedAt = now
	repo.UpdatedAt = now
	return nil
}

func (s *SQLiteStore) CreateRepo(ctx context.Context, repo *Repo) error {
	return s.createRepoWithQuerier(ctx, s.querier(), repo)
}

// getRepoWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStore) getRepoWithQuerier(ctx context.Context, q querier, rootPath string) (*Repo, error) {
	query := `
		SELECT id, root_path, refs, total_contents, total_chunks,
		       index_version, last_indexed_at, created_at, updated_at
		FROM repos
		WHERE root_path = ?
	`
	var repo Repo
	var refs sql.NullString
	var lastIndexedAt sql.NullTime
	err := q.QueryRowContext(ctx, query, rootPath).Scan(
		&repo.ID, &repo.RootPath, &refs,
		&repo.TotalContents, &repo.TotalChunks, &repo.IndexVersion,
		&lastIndexedAt, &repo.CreatedAt, &repo.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if refs.Valid {
		repo.Refs = refs.String
	}
	if lastIndexedAt.Valid {
		repo.LastIndexedAt = lastIndexedAt.Time
	}
	return &repo, nil
}

func (s *SQLiteStore) GetRepo(ctx context.Context, rootPath string) (*Repo, error) {
	return s.getRepoWithQuerier(ctx, s.querier(), rootPath)
}

// updateRepoWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStore) updateRepoWithQuerier(ctx context.Context, q querier, repo *Repo) error {
	query := `
		UPDATE repos
		SET refs = ?, total_contents = ?, total_chunks = ?,
		    last_indexed_at = ?, updated_at = ?
		WHERE id = ?
	`
	now := time.Now()
	_, err := q.ExecContext(ctx, query,
		repo.Refs, repo.TotalContents, repo.TotalChunks,
		repo.LastIndexedAt, now, repo.ID)
	if err != nil {
		return fmt.Errorf("failed to update repo: %w", err)
	}
	repo.UpdatedAt = now
	return nil
}

func (s *SQLiteStore) UpdateRepo(ctx context.Context, repo *Repo) error {
	return s.updateRepoWithQuerier(ctx, s.querier(), repo)
}

// Commit operations

// upsertCommitWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStore) upsertCommitWithQuerier(ctx context.Context, q querier, commit *Commit) error {
	query := `
		INSERT INTO commits (repo_id, hash, author_name, author_email, committed_at, message, is_merge, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(repo_id, hash) DO UPDATE SET
			author_name = excluded.author_name,
			author_email = excluded.author_email,
			committed_at = excluded.committed_at,
			message = excluded.message,
			is_merge = excluded.is_merge
		RETURNING id, created_at
	`
	now := time.Now()
	err := q.QueryRowContext(ctx, query,
		commit.RepoID, commit.Hash, commit.AuthorName, commit.AuthorEmail,
		commit.CommittedAt, commit.Message, commit.IsMerge, now,
	).Scan(&commit.ID, &commit.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert commit: %w", err)
	}
	return nil
}

func (s *SQLiteStore) UpsertCommit(ctx context.Context, commit *Commit) error {
	return s.upsertCommitWithQuerier(ctx, s.querier(), commit)
}

// getCommitWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStore) getCommitWithQuerier(ctx context.Context, q querier, repoID int64, hash string) (*Commit, error) {
	query := `
		SELECT id, repo_id, hash, author_name, author_email, committed_at, message, is_merge, created_at
		FROM commits
		WHERE repo_id = ? AND hash = ?
	`
	var commit Commit
	err := q.QueryRowContext(ctx, query, repoID, hash).Scan(
		&commit.ID, &commit.RepoID, &commit.Hash,
		&commit.AuthorName, &commit.AuthorEmail, &commit.CommittedAt,
		&commit.Message, &commit.IsMerge, &commit.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &commit, nil
}

func (s *SQLiteStore) GetCommit(ctx context.Context, repoID int64, hash string) (*Commit, error) {
	return s.getCommitWithQuerier(ctx, s.querier(), repoID, hash)
}

// Content operations

// upsertContentWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStore) upsertContentWithQuerier(ctx context.Context, q querier, content *Content) error {
	query := `
		INSERT INTO contents (repo_id, content_hash, size_bytes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(repo_id, content_hash) DO UPDATE SET
			size_bytes = excluded.size_bytes,
			updated_at = excluded.updated_at
		RETURNING id, processed, created_at
	`
	now := time.Now()
	err := q.QueryRowContext(ctx, query,
		content.RepoID, content.ContentHash, content.SizeBytes, now, now,
	).Scan(&content.ID, &content.Processed, &content.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert content: %w", err)
	}
	content.UpdatedAt = now
	return nil
}

func (s *SQLiteStore) UpsertContent(ctx context.Context, content *Content) error {
	return s.upsertContentWithQuerier(ctx, s.querier(), content)
}

// getContentByHashWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStore) getContentByHashWithQuerier(ctx context.Context, q querier, repoID int64, contentHash string) (*Content, error) {
	query := `
		SELECT id, repo_id, content_hash, size_bytes, processed, processed_at, created_at, updated_at
		FROM contents
		WHERE repo_id = ? AND content_hash = ?
	`
	var content Content
	var processedAt sql.NullTime
	err := q.QueryRowContext(ctx, query, repoID, contentHash).Scan(
		&content.ID, &content.RepoID, &content.ContentHash, &content.SizeBytes,
		&content.Processed, &processedAt, &content.CreatedAt, &content.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if processedAt.Valid {
		content.ProcessedAt = processedAt.Time
	}
	return &content, nil
}

func (s *SQLiteStore) GetContentByHash(ctx context.Context, repoID int64, contentHash string) (*Content, error) {
	return s.getContentByHashWithQuerier(ctx, s.querier(), repoID, contentHash)
}

// markContentProcessedWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStore) markContentProcessedWithQuerier(ctx context.Context, q querier, contentID int64) error {
	query := `UPDATE contents SET processed = 1, processed_at = ?, updated_at = ? WHERE id = ?`
	now := time.Now()
	_, err := q.ExecContext(ctx, query, now, now, contentID)
	if err != nil {
		return fmt.Errorf("failed to mark content processed: %w", err)
	}
	return nil
}

func (s *SQLiteStore) MarkContentProcessed(ctx context.Context, contentID int64) error {
	return s.markContentProcessedWithQuerier(ctx, s.querier(), contentID)
}

// processedContentHashesWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStore) processedContentHashesWithQuerier(ctx context.Context, q querier, repoID int64) (map[string]struct{}, error) {
	query := `SELECT content_hash FROM contents WHERE repo_id = ? AND processed = 1`
	rows, err := q.QueryContext(ctx, query, repoID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	hashes := make(map[string]struct{})
	for rows.Next() {
		var hash string
		if err := rows.Scan(&hash); err != nil {
			return nil, err
		}
		hashes[hash] = struct{}{}
	}
	return hashes, rows.Err()
}

// ProcessedContentHashes returns every content hash already chunked and
// embedded for the repo. The result seeds the walker's resume set.
func (s *SQLiteStore) ProcessedContentHashes(ctx context.Context, repoID int64) (map[string]struct{}, error) {
	return s.processedContentHashesWithQuerier(ctx, s.querier(), repoID)
}

// Location operations

// insertLocationsWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStore) insertLocationsWithQuerier(ctx context.Context, q querier, contentID int64, locations []types.ContentLocation) error {
	query := `
		INSERT INTO locations (
			content_id, commit_hash, path, is_head, position,
			author_name, author_email, committed_at, message, is_merge, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(content_id, commit_hash, path) DO UPDATE SET
			is_head = excluded.is_head
	`
	now := time.Now()
	for i, loc := range locations {
		_, err := q.ExecContext(ctx, query,
			contentID, loc.CommitHash, loc.Path, loc.IsHead, i,
			loc.AuthorName, loc.AuthorEmail, loc.CommitTimestamp,
			loc.CommitMessage, loc.IsMerge, now,
		)
		if err != nil {
			return fmt.Errorf("failed to insert location %s@%s: %w", loc.Path, loc.CommitHash, err)
		}
	}
	return nil
}

func (s *SQLiteStore) InsertLocations(ctx context.Context, contentID int64, locations []types.ContentLocation) error {
	return s.insertLocationsWithQuerier(ctx, s.querier(), contentID, locations)
}

// listLocationsByContentWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStore) listLocationsByContentWithQuerier(ctx context.Context, q querier, contentID int64) ([]*Location, error) {
	query := `
		SELECT id, content_id, commit_hash, path, is_head, position,
		       author_name, author_email, committed_at, message, is_merge, created_at
		FROM locations
		WHERE content_id = ?
		ORDER BY position
	`
	rows, err := q.QueryContext(ctx, query, contentID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	locations := make([]*Location, 0)
	for rows.Next() {
		var loc Location
		err := rows.Scan(
			&loc.ID, &loc.ContentID, &loc.CommitHash, &loc.Path, &loc.IsHead, &loc.Position,
			&loc.AuthorName, &loc.AuthorEmail, &loc.CommittedAt, &loc.Message, &loc.IsMerge,
			&loc.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		locations = append(locations, &loc)
	}
	return locations, rows.Err()
}

func (s *SQLiteStore) ListLocationsByContent(ctx context.Context, contentID int64) ([]*Location, error) {
	return s.listLocationsByContentWithQuerier(ctx, s.querier(), contentID)
}

// deleteLocationsByContentWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStore) deleteLocationsByContentWithQuerier(ctx context.Context, q querier, contentID int64) error {
	query := `DELETE FROM locations WHERE content_id = ?`
	_, err := q.ExecContext(ctx, query, contentID)
	return err
}

func (s *SQLiteStore) DeleteLocationsByContent(ctx context.Context, contentID int64) error {
	return s.deleteLocationsByContentWithQuerier(ctx, s.querier(), contentID)
}

// Chunk operations

// upsertChunkWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStore) upsertChunkWithQuerier(ctx context.Context, q querier, chunk *Chunk) error {
	query := `
		INSERT INTO chunks (content_id, chunk_index, start_line, end_line, token_count, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(content_id, chunk_index) DO UPDATE SET
			start_line = excluded.start_line,
			end_line = excluded.end_line,
			token_count = excluded.token_count,
			updated_at = excluded.updated_at
		RETURNING id, created_at, updated_at
	`
	now := time.Now()
	err := q.QueryRowContext(ctx, query,
		chunk.ContentID, chunk.ChunkIndex, chunk.StartLine, chunk.EndLine,
		chunk.TokenCount, now, now,
	).Scan(&chunk.ID, &chunk.CreatedAt, &chunk.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert chunk: %w", err)
	}
	return nil
}

func (s *SQLiteStore) UpsertChunk(ctx context.Context, chunk *Chunk) error {
	return s.upsertChunkWithQuerier(ctx, s.querier(), chunk)
}

// listChunksByContentWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStore) listChunksByContentWithQuerier(ctx context.Context, q querier, contentID int64) ([]*Chunk, error) {
	query := `
		SELECT id, content_id, chunk_index, start_line, end_line, token_count, created_at, updated_at
		FROM chunks
		WHERE content_id = ?
		ORDER BY chunk_index
	`
	rows, err := q.QueryContext(ctx, query, contentID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	chunks := make([]*Chunk, 0)
	for rows.Next() {
		var chunk Chunk
		err := rows.Scan(
			&chunk.ID, &chunk.ContentID, &chunk.ChunkIndex,
			&chunk.StartLine, &chunk.EndLine, &chunk.TokenCount,
			&chunk.CreatedAt, &chunk.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, &chunk)
	}
	return chunks, rows.Err()
}

func (s *SQLiteStore) ListChunksByContent(ctx context.Context, contentID int64) ([]*Chunk, error) {
	return s.listChunksByContentWithQuerier(ctx, s.querier(), contentID)
}

// deleteChunksByContentWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStore) deleteChunksByContentWithQuerier(ctx context.Context, q querier, contentID int64) error {
	query := `DELETE FROM chunks WHERE content_id = ?`
	_, err := q.ExecContext(ctx, query, contentID)
	return err
}

func (s *SQLiteStore) DeleteChunksByContent(ctx context.Context, contentID int64) error {
	return s.deleteChunksByContentWithQuerier(ctx, s.querier(), contentID)
}

// Embedding operations

// upsertEmbeddingWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStore) upsertEmbeddingWithQuerier(ctx context.Context, q querier, embedding *Embedding) error {
	query := `
		INSERT INTO embeddings (chunk_id, vector, dimension, provider, model, cost_usd, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(chunk_id) DO UPDATE SET
			vector = excluded.vector,
			dimension = excluded.dimension,
			provider = excluded.provider,
			model = excluded.model,
			cost_usd = excluded.cost_usd
	`
	now := time.Now()
	result, err := q.ExecContext(ctx, query,
		embedding.ChunkID, embedding.Vector, embedding.Dimension,
		embedding.Provider, embedding.Model, embedding.CostUSD, now)
	if err != nil {
		return fmt.Errorf("failed to upsert embedding: %w", err)
	}

	if embedding.ID == 0 {
		id, err := result.LastInsertId()
		if err == nil {
			embedding.ID = id
		}
	}

	embedding.CreatedAt = now
	return nil
}

func (s *SQLiteStore) UpsertEmbedding(ctx context.Context, embedding *Embedding) error {
	return s.upsertEmbeddingWithQuerier(ctx, s.querier(), embedding)
}

func (s *SQLiteStore) GetEmbedding(ctx context.Context, chunkID int64) (*Embedding, error) {
	query := `
		SELECT id, chunk_id, vector, dimension, provider, model, cost_usd, created_at
		FROM embeddings
		WHERE chunk_id = ?
	`
	var embedding Embedding
	err := s.db.QueryRowContext(ctx, query, chunkID).Scan(
		&embedding.ID, &embedding.ChunkID, &embedding.Vector,
		&embedding.Dimension, &embedding.Provider, &embedding.Model,
		&embedding.CostUSD, &embedding.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &embedding, nil
}

// deleteEmbeddingWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStore) deleteEmbeddingWithQuerier(ctx context.Context, q querier, chunkID int64) error {
	query := `DELETE FROM embeddings WHERE chunk_id = ?`
	_, err := q.ExecContext(ctx, query, chunkID)
	return err
}

func (s *SQLiteStore) DeleteEmbedding(ctx context.Context, chunkID int64) error {
	return s.deleteEmbeddingWithQuerier(ctx, s.querier(), chunkID)
}

// Status operations

func (s *SQLiteStore) GetStatus(ctx context.Context, repoID int64) (*RepoStatus, error) {
	// Get repo info
	repo, err := s.getRepoByID(ctx, repoID)
	if err != nil {
		return nil, err
	}

	status := &RepoStatus{
		Repo:          repo,
		LastIndexedAt: repo.LastIndexedAt,
	}

	// Count commits
	err = s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM commits WHERE repo_id = ?", repoID).Scan(&status.CommitsCount)
	if err != nil {
		return nil, err
	}

	// Count contents and processed contents
	err = s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM contents WHERE repo_id = ?", repoID).Scan(&status.ContentsCount)
	if err != nil {
		return nil, err
	}
	err = s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM contents WHERE repo_id = ? AND processed = 1", repoID).Scan(&status.ProcessedCount)
	if err != nil {
		return nil, err
	}

	// Count locations
	err = s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM locations l
		JOIN contents c ON l.content_id = c.id
		WHERE c.repo_id = ?
	`, repoID).Scan(&status.LocationsCount)
	if err != nil {
		return nil, err
	}

	// Count chunks
	err = s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM chunks ch
		JOIN contents c ON ch.content_id = c.id
		WHERE c.repo_id = ?
	`, repoID).Scan(&status.ChunksCount)
	if err != nil {
		return nil, err
	}

	// Count embeddings
	err = s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM embeddings e
		JOIN chunks ch ON e.chunk_id = ch.id
		JOIN contents c ON ch.content_id = c.id
		WHERE c.repo_id = ?
	`, repoID).Scan(&status.EmbeddingsCount)
	if err != nil {
		return nil, err
	}

	// Calculate database size
	var pageCount, pageSize int
	err = s.db.QueryRowContext(ctx, "PRAGMA page_count").Scan(&pageCount)
	if err == nil {
		_ = s.db.QueryRowContext(ctx, "PRAGMA page_size").Scan(&pageSize)
		status.IndexSizeMB = float64(pageCount*pageSize) / (1024 * 1024)
	}

	status.Health = HealthStatus{
		DatabaseAccessible:  true,
		EmbeddingsAvailable: status.EmbeddingsCount > 0,
	}

	return status, nil
}

// getRepoByID retrieves a repo by ID
func (s *SQLiteStore) getRepoByID(ctx context.Context, repoID int64) (*Repo, error) {
	query := `
		SELECT id, root_path, refs, total_contents, total_chunks,
		       index_version, last_indexed_at, created_at, updated_at
		FROM repos
		WHERE id = ?
	`
	var repo Repo
	var refs sql.NullString
	var lastIndexedAt sql.NullTime
	err := s.db.QueryRowContext(ctx, query, repoID).Scan(
		&repo.ID, &repo.RootPath, &refs,
		&repo.TotalContents, &repo.TotalChunks, &repo.IndexVersion,
		&lastIndexedAt, &repo.CreatedAt, &repo.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if refs.Valid {
		repo.Refs = refs.String
	}
	if lastIndexedAt.Valid {
		repo.LastIndexedAt = lastIndexedAt.Time
	}
	return &repo, nil
}

// Transaction implementations

// Write operations use the internal helper that takes the transaction querier;
// read-only operations on unrelated rows delegate to the store.

func (t *sqliteTx) CreateRepo(ctx context.Context, repo *Repo) error {
	return t.store.createRepoWithQuerier(ctx, t.querier(), repo)
}

func (t *sqliteTx) GetRepo(ctx context.Context, rootPath string) (*Repo, error) {
	return t.store.getRepoWithQuerier(ctx, t.querier(), rootPath)
}

func (t *sqliteTx) UpdateRepo(ctx context.Context, repo *Repo) error {
	return t.store.updateRepoWithQuerier(ctx, t.querier(), repo)
}

func (t *sqliteTx) UpsertCommit(ctx context.Context, commit *Commit) error {
	return t.store.upsertCommitWithQuerier(ctx, t.querier(), commit)
}

func (t *sqliteTx) GetCommit(ctx context.Context, repoID int64, hash string) (*Commit, error) {
	return t.store.getCommitWithQuerier(ctx, t.querier(), repoID, hash)
}

func (t *sqliteTx) UpsertContent(ctx context.Context, content *Content) error {
	return t.store.upsertContentWithQuerier(ctx, t.querier(), content)
}

func (t *sqliteTx) GetContentByHash(ctx context.Context, repoID int64, contentHash string) (*Content, error) {
	return t.store.getContentByHashWithQuerier(ctx, t.querier(), repoID, contentHash)
}

func (t *sqliteTx) MarkContentProcessed(ctx context.Context, contentID int64) error {
	return t.store.markContentProcessedWithQuerier(ctx, t.querier(), contentID)
}

func (t *sqliteTx) ProcessedContentHashes(ctx context.Context, repoID int64) (map[string]struct{}, error) {
	return t.store.processedContentHashesWithQuerier(ctx, t.querier(), repoID)
}

func (t *sqliteTx) InsertLocations(ctx context.Context, contentID int64, locations []types.ContentLocation) error {
	return t.store.insertLocationsWithQuerier(ctx, t.querier(), contentID, locations)
}

func (t *sqliteTx) ListLocationsByContent(ctx context.Context, contentID int64) ([]*Location, error) {
	return t.store.listLocationsByContentWithQuerier(ctx, t.querier(), contentID)
}

func (t *sqliteTx) DeleteLocationsByContent(ctx context.Context, contentID int64) error {
	return t.store.deleteLocationsByContentWithQuerier(ctx, t.querier(), contentID)
}

func (t *sqliteTx) UpsertChunk(ctx context.Context, chunk *Chunk) error {
	return t.store.upsertChunkWithQuerier(ctx, t.querier(), chunk)
}

func (t *sqliteTx) ListChunksByContent(ctx context.Context, contentID int64) ([]*Chunk, error) {
	return t.store.listChunksByContentWithQuerier(ctx, t.querier(), contentID)
}

func (t *sqliteTx) DeleteChunksByContent(ctx context.Context, contentID int64) error {
	return t.store.deleteChunksByContentWithQuerier(ctx, t.querier(), contentID)
}

func (t *sqliteTx) UpsertEmbedding(ctx context.Context, embedding *Embedding) error {
	return t.store.upsertEmbeddingWithQuerier(ctx, t.querier(), embedding)
}

func (t *sqliteTx) GetEmbedding(ctx context.Context, chunkID int64) (*Embedding, error) {
	return t.store.GetEmbedding(ctx, chunkID)
}

func (t *sqliteTx) DeleteEmbedding(ctx context.Context, chunkID int64) error {
	return t.store.deleteEmbeddingWithQuerier(ctx, t.querier(), chunkID)
}

func (t *sqliteTx) GetStatus(ctx context.Context, repoID int64) (*RepoStatus, error) {
	return t.store.GetStatus(ctx, repoID)
}

func (t *sqliteTx) Close() error {
	// Transactions don't close the underlying connection
	return nil
}

func (t *sqliteTx) BeginTx(ctx context.Context) (Tx, error) {
	// SQLite does not support true nested transactions
	return nil, errors.New("nested transactions not supported")
}
