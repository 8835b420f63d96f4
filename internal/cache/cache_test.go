package cache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	c, err := New(t.TempDir(), "test-model", zap.NewNop())
	require.NoError(t, err)
	return c
}

func sampleArtifacts() []Artifact {
	return []Artifact{
		{ChunkIndex: 0, StartLine: 1, EndLine: 40, Vector: []float32{0.1, 0.2, 0.3}, Dimension: 3, TokenCount: 120, CostUSD: 0.000012},
		{ChunkIndex: 1, StartLine: 31, EndLine: 72, Vector: []float32{0.4, 0.5, 0.6}, Dimension: 3, TokenCount: 95, CostUSD: 0.0000095},
	}
}

func TestNewValidation(t *testing.T) {
	_, err := New("", "model", nil)
	assert.Error(t, err)

	_, err = New(t.TempDir(), "", nil)
	assert.Error(t, err)
}

func TestSetGetRoundTrip(t *testing.T) {
	c := newTestCache(t)
	want := sampleArtifacts()

	require.NoError(t, c.Set("abc123", want))

	got, ok := c.Get("abc123")
	require.True(t, ok)
	require.Len(t, got, 2)
	assert.Equal(t, want[0].ChunkIndex, got[0].ChunkIndex)
	assert.Equal(t, want[0].StartLine, got[0].StartLine)
	assert.Equal(t, want[1].EndLine, got[1].EndLine)
	assert.Equal(t, want[1].TokenCount, got[1].TokenCount)
	assert.InDeltaSlice(t, want[0].Vector, got[0].Vector, 1e-6)
	assert.InDelta(t, want[1].CostUSD, got[1].CostUSD, 1e-12)
}

func TestGetAbsentIsMiss(t *testing.T) {
	c := newTestCache(t)
	got, ok := c.Get("never-written")
	assert.False(t, ok)
	assert.Nil(t, got)
}

func TestCorruptedEntryIsMiss(t *testing.T) {
	c := newTestCache(t)
	require.NoError(t, c.Set("abc123", sampleArtifacts()))

	t.Run("not gzip", func(t *testing.T) {
		require.NoError(t, os.WriteFile(c.entryPath("abc123"), []byte("not gzip data"), 0o644))
		_, ok := c.Get("abc123")
		assert.False(t, ok)
	})

	t.Run("truncated gzip", func(t *testing.T) {
		require.NoError(t, c.Set("def456", sampleArtifacts()))
		path := c.entryPath("def456")
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(path, data[:len(data)/2], 0o644))
		_, ok := c.Get("def456")
		assert.False(t, ok)
	})

	t.Run("overwrite repairs the entry", func(t *testing.T) {
		require.NoError(t, c.Set("abc123", sampleArtifacts()))
		_, ok := c.Get("abc123")
		assert.True(t, ok)
	})
}

func TestSetPublishesAtomically(t *testing.T) {
	c := newTestCache(t)

	// An abandoned temp file from an interrupted write must never shadow
	// the real entry or show up in stats.
	stale := filepath.Join(c.Dir(), "abc123.tmp-crashed")
	require.NoError(t, os.WriteFile(stale, []byte("torn half-write"), 0o644))

	_, ok := c.Get("abc123")
	assert.False(t, ok)

	require.NoError(t, c.Set("abc123", sampleArtifacts()))

	got, ok := c.Get("abc123")
	require.True(t, ok)
	assert.Len(t, got, 2)

	// Only the renamed entry remains; Set leaves no temp files behind.
	entries, err := os.ReadDir(c.Dir())
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{"abc123" + fileSuffix, "abc123.tmp-crashed"}, names)

	stats, err := c.GetStats()
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Entries)
}

func TestOverwriteReplacesEntry(t *testing.T) {
	c := newTestCache(t)
	require.NoError(t, c.Set("h", sampleArtifacts()))
	require.NoError(t, c.Set("h", sampleArtifacts()[:1]))

	got, ok := c.Get("h")
	require.True(t, ok)
	assert.Len(t, got, 1)
}

func TestStatsAndClear(t *testing.T) {
	c := newTestCache(t)

	stats, err := c.GetStats()
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Entries)

	require.NoError(t, c.Set("one", sampleArtifacts()))
	require.NoError(t, c.Set("two", sampleArtifacts()))

	// Files not written by the cache are not counted.
	require.NoError(t, os.WriteFile(filepath.Join(c.Dir(), "README"), []byte("x"), 0o644))

	stats, err = c.GetStats()
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Entries)
	assert.Greater(t, stats.TotalBytes, int64(0))

	require.NoError(t, c.Clear())
	stats, err = c.GetStats()
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Entries)

	// Clear leaves foreign files alone.
	_, err = os.Stat(filepath.Join(c.Dir(), "README"))
	assert.NoError(t, err)
}

func TestModelNamespacing(t *testing.T) {
	root := t.TempDir()
	a, err := New(root, "model-a", nil)
	require.NoError(t, err)
	b, err := New(root, "model-b", nil)
	require.NoError(t, err)

	require.NoError(t, a.Set("shared-hash", sampleArtifacts()))

	_, ok := b.Get("shared-hash")
	assert.False(t, ok, "entries must not leak across model namespaces")
	_, ok = a.Get("shared-hash")
	assert.True(t, ok)
}

func TestSanitizeModel(t *testing.T) {
	c, err := New(t.TempDir(), "org/model:latest", nil)
	require.NoError(t, err)
	assert.Equal(t, "org_model_latest", filepath.Base(c.Dir()))
}
