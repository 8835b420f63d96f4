package store

import (
	"context"
	"time"

	"github.com/dshills/gitctx/pkg/types"
)

// Store defines the interface for persisting indexed repository data
type Store interface {
	// Repo operations
	CreateRepo(ctx context.Context, repo *Repo) error
	GetRepo(ctx context.Context, rootPath string) (*Repo, error)
	UpdateRepo(ctx context.Context, repo *Repo) error

	// Commit operations
	UpsertCommit(ctx context.Context, commit *Commit) error
	GetCommit(ctx context.Context, repoID int64, hash string) (*Commit, error)

	// Content operations
	UpsertContent(ctx context.Context, content *Content) error
	GetContentByHash(ctx context.Context, repoID int64, contentHash string) (*Content, error)
	MarkContentProcessed(ctx context.Context, contentID int64) error
	ProcessedContentHashes(ctx context.Context, repoID int64) (map[string]struct{}, error)

	// Location operations
	InsertLocations(ctx context.Context, contentID int64, locations []types.ContentLocation) error
	ListLocationsByContent(ctx context.Context, contentID int64) ([]*Location, error)
	DeleteLocationsByContent(ctx context.Context, contentID int64) error

	// Chunk operations
	UpsertChunk(ctx context.Context, chunk *Chunk) error
	ListChunksByContent(ctx context.Context, contentID int64) ([]*Chunk, error)
	DeleteChunksByContent(ctx context.Context, contentID int64) error

	// Embedding operations
	UpsertEmbedding(ctx context.Context, embedding *Embedding) error
	GetEmbedding(ctx context.Context, chunkID int64) (*Embedding, error)
	DeleteEmbedding(ctx context.Context, chunkID int64) error

	// Status operations
	GetStatus(ctx context.Context, repoID int64) (*RepoStatus, error)

	// Database operations
	Close() error
	BeginTx(ctx context.Context) (Tx, error)
}

// Tx represents a database transaction
type Tx interface {
	Commit() error
	Rollback() error
	Store // Embed Store interface for transaction operations
}

// Repo represents an indexed git repository
type Repo struct {
	ID            int64
	RootPath      string
	Refs          string // comma-joined ref names walked at last index
	TotalContents int
	TotalChunks   int
	IndexVersion  string
	LastIndexedAt time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Commit represents one commit visited during a walk
type Commit struct {
	ID          int64
	RepoID      int64
	Hash        string
	AuthorName  string
	AuthorEmail string
	CommittedAt time.Time
	Message     string
	IsMerge     bool
	CreatedAt   time.Time
}

// Content represents one unique blob discovered across history
type Content struct {
	ID          int64
	RepoID      int64
	ContentHash string
	SizeBytes   int64
	Processed   bool // chunked and embedded
	ProcessedAt time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Location represents one (commit, path) occurrence of a content hash.
// Commit fields are denormalized so readers never join back to commits.
type Location struct {
	ID         int64
	ContentID  int64
	CommitHash string
	Path       string
	IsHead     bool
	Position   int // insertion order within the content's location list

	AuthorName  string
	AuthorEmail string
	CommittedAt time.Time
	Message     string
	IsMerge     bool
	CreatedAt   time.Time
}

// ToContentLocation converts a stored location back to the walk type.
func (l *Location) ToContentLocation() types.ContentLocation {
	return types.ContentLocation{
		CommitHash:      l.CommitHash,
		Path:            l.Path,
		IsHead:          l.IsHead,
		AuthorName:      l.AuthorName,
		AuthorEmail:     l.AuthorEmail,
		CommitTimestamp: l.CommittedAt,
		CommitMessage:   l.Message,
		IsMerge:         l.IsMerge,
	}
}

// Chunk represents a span of a content blob prepared for embedding
type Chunk struct {
	ID         int64
	ContentID  int64
	ChunkIndex int
	StartLine  int
	EndLine    int
	TokenCount int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Embedding represents a vector embedding for a chunk
type Embedding struct {
	ID        int64
	ChunkID   int64
	Vector    []byte // Serialized float32 array
	Dimension int
	Provider  string
	Model     string
	CostUSD   float64
	CreatedAt time.Time
}

// RepoStatus contains statistics about an indexed repository
type RepoStatus struct {
	Repo            *Repo
	CommitsCount    int
	ContentsCount   int
	ProcessedCount  int
	LocationsCount  int
	ChunksCount     int
	EmbeddingsCount int
	IndexSizeMB     float64
	LastIndexedAt   time.Time
	Health          HealthStatus
}

// HealthStatus represents the health of the index
type HealthStatus struct {
	DatabaseAccessible  bool
	EmbeddingsAvailable bool
}
