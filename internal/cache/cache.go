package cache

import (
	"compress/gzip"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"
)

// fileSuffix is the on-disk entry suffix: msgpack-serialized, gzip-compressed.
const fileSuffix = ".msgpack.gz"

// Artifact is one derived chunk embedding. Artifacts are keyed strictly by
// content hash, never path or commit, so identical content anywhere in
// history is computed exactly once.
type Artifact struct {
	ChunkIndex int       `msgpack:"i"`
	StartLine  int       `msgpack:"s"`
	EndLine    int       `msgpack:"e"`
	Vector     []float32 `msgpack:"v"`
	Dimension  int       `msgpack:"d"`
	TokenCount int       `msgpack:"t"`
	CostUSD    float64   `msgpack:"c"`
}

// Metadata summarizes a cache entry.
type Metadata struct {
	ArtifactCount int     `msgpack:"n"`
	TotalTokens   int     `msgpack:"tt"`
	TotalCostUSD  float64 `msgpack:"tc"`
}

// entry is the serialized payload: the artifact list plus its metadata.
type entry struct {
	Artifacts []Artifact `msgpack:"a"`
	Meta      Metadata   `msgpack:"m"`
}

// Cache is a content-addressed store of derived artifacts, one file per
// content hash under {root}/{model}/. The layout is the interchange contract
// with the pipeline and stays stable across processes sharing a model name.
//
// Entries are disposable derived data, never a source of truth: a read that
// fails to decompress or deserialize is a logged miss, not an error.
type Cache struct {
	dir    string
	logger *zap.Logger
}

// New opens (creating if needed) the cache directory for one (root, model)
// pair.
func New(root, model string, logger *zap.Logger) (*Cache, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if root == "" || model == "" {
		return nil, fmt.Errorf("cache requires a root directory and model name")
	}

	dir := filepath.Join(root, sanitizeModel(model))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}

	return &Cache{dir: dir, logger: logger}, nil
}

// Get returns the cached artifacts for hash, or (nil, false) on a miss.
// Corruption degrades to a miss with a warning log.
func (c *Cache) Get(hash string) ([]Artifact, bool) {
	path := c.entryPath(hash)
	f, err := os.Open(path)
	if err != nil {
		return nil, false
	}
	defer func() { _ = f.Close() }()

	zr, err := gzip.NewReader(f)
	if err != nil {
		c.logger.Warn("cache entry corrupted, treating as miss",
			zap.String("hash", hash), zap.Error(err))
		return nil, false
	}
	defer func() { _ = zr.Close() }()

	var e entry
	if err := msgpack.NewDecoder(zr).Decode(&e); err != nil {
		c.logger.Warn("cache entry undecodable, treating as miss",
			zap.String("hash", hash), zap.Error(err))
		return nil, false
	}

	return e.Artifacts, true
}

// Set persists the artifact list for hash, overwriting any existing entry.
// The entry is written to a temp file in the cache directory and renamed
// into place, so readers never see a partially written file.
func (c *Cache) Set(hash string, artifacts []Artifact) error {
	e := entry{
		Artifacts: artifacts,
		Meta:      buildMetadata(artifacts),
	}

	f, err := os.CreateTemp(c.dir, hash+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating cache entry: %w", err)
	}
	tmp := f.Name()

	zw := gzip.NewWriter(f)
	if err := msgpack.NewEncoder(zw).Encode(&e); err != nil {
		_ = zw.Close()
		_ = f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("encoding cache entry: %w", err)
	}
	if err := zw.Close(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("compressing cache entry: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("writing cache entry: %w", err)
	}

	if err := os.Rename(tmp, c.entryPath(hash)); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("publishing cache entry: %w", err)
	}
	return nil
}

// Stats reports on the cache directory contents.
type Stats struct {
	Dir        string `json:"dir"`
	Entries    int    `json:"entries"`
	TotalBytes int64  `json:"totalBytes"`
}

// GetStats scans the cache directory.
func (c *Cache) GetStats() (Stats, error) {
	stats := Stats{Dir: c.dir}
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return stats, nil
		}
		return stats, fmt.Errorf("reading cache directory: %w", err)
	}
	for _, e := range entries {
		if !strings.HasSuffix(e.Name(), fileSuffix) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		stats.Entries++
		stats.TotalBytes += info.Size()
	}
	return stats, nil
}

// Clear removes all entries for this (root, model) pair.
func (c *Cache) Clear() error {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading cache directory: %w", err)
	}
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), fileSuffix) {
			_ = os.Remove(filepath.Join(c.dir, e.Name()))
		}
	}
	return nil
}

// Dir returns the cache directory path.
func (c *Cache) Dir() string {
	return c.dir
}

func (c *Cache) entryPath(hash string) string {
	return filepath.Join(c.dir, hash+fileSuffix)
}

func buildMetadata(artifacts []Artifact) Metadata {
	meta := Metadata{ArtifactCount: len(artifacts)}
	for _, a := range artifacts {
		meta.TotalTokens += a.TokenCount
		meta.TotalCostUSD += a.CostUSD
	}
	return meta
}

// sanitizeModel makes a model name safe as a directory component.
func sanitizeModel(model string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':':
			return '_'
		}
		return r
	}, model)
}
