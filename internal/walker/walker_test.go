package walker

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/gitctx/internal/filter"
	"github.com/dshills/gitctx/internal/gitrepo/gitrepotest"
	"github.com/dshills/gitctx/pkg/types"
)

var base = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func collect(t *testing.T, w *Walker) []*types.ContentRecord {
	t.Helper()
	var records []*types.ContentRecord
	for rec := range w.Walk(context.Background()) {
		require.NoError(t, rec.Validate())
		records = append(records, rec)
	}
	return records
}

func byHash(records []*types.ContentRecord) map[string]*types.ContentRecord {
	m := make(map[string]*types.ContentRecord, len(records))
	for _, r := range records {
		m[r.Hash] = r
	}
	return m
}

func TestWalkDeduplicatesContent(t *testing.T) {
	repo := gitrepotest.NewRepo()
	repo.AddCommit(gitrepotest.CommitSpec{
		Hash: "c1", When: base,
		Files: map[string]string{"a.txt": "shared content\n"},
	})
	repo.AddCommit(gitrepotest.CommitSpec{
		Hash: "c2", When: base.Add(time.Hour), Parents: []string{"c1"},
		Files: map[string]string{
			"a.txt":      "shared content\n",
			"copy/b.txt": "shared content\n",
			"unique.txt": "only here\n",
		},
	})
	repo.SetRef("HEAD", "c2")

	w, err := New(repo, Config{}, nil)
	require.NoError(t, err)
	records := collect(t, w)

	require.Len(t, records, 2)
	m := byHash(records)

	shared := m[gitrepotest.BlobHash("shared content\n")]
	require.NotNil(t, shared)
	// One occurrence per (commit, path): two paths at c2 plus one at c1.
	require.Len(t, shared.Locations, 3)
	assert.Equal(t, "a.txt", shared.Locations[0].Path)
	assert.Equal(t, "c2", shared.Locations[0].CommitHash)
	assert.Equal(t, "copy/b.txt", shared.Locations[1].Path)
	assert.Equal(t, "c1", shared.Locations[2].CommitHash)

	stats := w.Stats()
	assert.Equal(t, 2, stats.CommitsSeen)
	assert.Equal(t, 2, stats.ContentAccepted)
	assert.Empty(t, stats.Errors)
}

func TestWalkHeadFlag(t *testing.T) {
	repo := gitrepotest.NewRepo()
	repo.AddCommit(gitrepotest.CommitSpec{
		Hash: "c1", When: base,
		Files: map[string]string{
			"keep.txt":    "kept forever\n",
			"deleted.txt": "removed later\n",
		},
	})
	repo.AddCommit(gitrepotest.CommitSpec{
		Hash: "c2", When: base.Add(time.Hour), Parents: []string{"c1"},
		Files: map[string]string{"keep.txt": "kept forever\n"},
	})
	repo.SetRef("HEAD", "c2")

	w, err := New(repo, Config{}, nil)
	require.NoError(t, err)
	m := byHash(collect(t, w))

	kept := m[gitrepotest.BlobHash("kept forever\n")]
	require.NotNil(t, kept)
	for _, loc := range kept.Locations {
		assert.True(t, loc.IsHead, "content in the tip tree is head at every location")
	}

	deleted := m[gitrepotest.BlobHash("removed later\n")]
	require.NotNil(t, deleted)
	for _, loc := range deleted.Locations {
		assert.False(t, loc.IsHead)
	}
	assert.Empty(t, deleted.HeadLocations())
}

func TestWalkBareRepositoryHeadAlwaysFalse(t *testing.T) {
	repo := gitrepotest.NewRepo()
	repo.AddCommit(gitrepotest.CommitSpec{
		Hash: "c1", When: base,
		Files: map[string]string{"a.txt": "bare content\n"},
	})
	repo.SetRef("HEAD", "c1")
	repo.SetBare(true)

	w, err := New(repo, Config{}, nil)
	require.NoError(t, err)
	records := collect(t, w)

	require.Len(t, records, 1)
	for _, loc := range records[0].Locations {
		assert.False(t, loc.IsHead)
	}
}

func TestWalkMergeCommitFlag(t *testing.T) {
	repo := gitrepotest.NewRepo()
	repo.AddCommit(gitrepotest.CommitSpec{
		Hash: "c1", When: base,
		Files: map[string]string{"a.txt": "left\n"},
	})
	repo.AddCommit(gitrepotest.CommitSpec{
		Hash: "c2", When: base.Add(time.Minute),
		Files: map[string]string{"b.txt": "right\n"},
	})
	repo.AddCommit(gitrepotest.CommitSpec{
		Hash: "m", When: base.Add(time.Hour), Parents: []string{"c1", "c2"},
		Files: map[string]string{"merged.txt": "merge result\n"},
	})
	repo.SetRef("HEAD", "m")

	w, err := New(repo, Config{}, nil)
	require.NoError(t, err)
	m := byHash(collect(t, w))

	merged := m[gitrepotest.BlobHash("merge result\n")]
	require.NotNil(t, merged)
	assert.True(t, merged.Locations[0].IsMerge)

	left := m[gitrepotest.BlobHash("left\n")]
	require.NotNil(t, left)
	assert.False(t, left.Locations[0].IsMerge)

	assert.Equal(t, 3, w.Stats().CommitsSeen)
}

func TestWalkMultiRef(t *testing.T) {
	repo := gitrepotest.NewRepo()
	repo.AddCommit(gitrepotest.CommitSpec{
		Hash: "c1", When: base,
		Files: map[string]string{"shared.txt": "trunk\n"},
	})
	repo.AddCommit(gitrepotest.CommitSpec{
		Hash: "c2", When: base.Add(time.Hour), Parents: []string{"c1"},
		Files: map[string]string{"shared.txt": "trunk\n", "main.txt": "on main\n"},
	})
	repo.AddCommit(gitrepotest.CommitSpec{
		Hash: "c3", When: base.Add(time.Hour), Parents: []string{"c1"},
		Files: map[string]string{"shared.txt": "trunk\n", "feature.txt": "on feature\n"},
	})
	repo.SetRef("main", "c2")
	repo.SetRef("feature", "c3")

	w, err := New(repo, Config{Refs: []string{"main", "feature"}}, nil)
	require.NoError(t, err)
	m := byHash(collect(t, w))

	// c1 is reachable from both refs but counted once.
	assert.Equal(t, 3, w.Stats().CommitsSeen)
	assert.NotNil(t, m[gitrepotest.BlobHash("on main\n")])
	assert.NotNil(t, m[gitrepotest.BlobHash("on feature\n")])

	// Head flags come from the first ref's tip tree only.
	mainOnly := m[gitrepotest.BlobHash("on main\n")]
	assert.True(t, mainOnly.Locations[0].IsHead)
	featureOnly := m[gitrepotest.BlobHash("on feature\n")]
	assert.False(t, featureOnly.Locations[0].IsHead)
}

func TestWalkResumeSkipsBeforeFiltering(t *testing.T) {
	content := "already processed\n"
	repo := gitrepotest.NewRepo()
	repo.AddCommit(gitrepotest.CommitSpec{
		Hash: "c1", When: base,
		Files: map[string]string{"done.txt": content, "new.txt": "fresh\n"},
	})
	repo.SetRef("HEAD", "c1")

	// A blob read failure for the resumed hash must never surface: resume
	// short-circuits before any content access.
	repo.FailBlob(content, errors.New("must not be read"))

	w, err := New(repo, Config{
		Resume: map[string]struct{}{gitrepotest.BlobHash(content): {}},
	}, nil)
	require.NoError(t, err)
	records := collect(t, w)

	require.Len(t, records, 1)
	assert.Equal(t, gitrepotest.BlobHash("fresh\n"), records[0].Hash)

	stats := w.Stats()
	assert.Equal(t, 1, stats.ContentAccepted)
	assert.Equal(t, 0, stats.ContentSkipped, "resumed content is not a filter skip")
	assert.Empty(t, stats.Errors)
}

func TestWalkFilterSkipCounting(t *testing.T) {
	repo := gitrepotest.NewRepo()
	repo.AddCommit(gitrepotest.CommitSpec{
		Hash: "c1", When: base,
		Files: map[string]string{
			"ok.txt":   "text content\n",
			"tool.bin": "binary\x00content",
		},
	})
	repo.SetRef("HEAD", "c1")

	w, err := New(repo, Config{SkipBinary: true}, nil)
	require.NoError(t, err)
	records := collect(t, w)

	require.Len(t, records, 1)
	stats := w.Stats()
	assert.Equal(t, 1, stats.ContentAccepted)
	assert.Equal(t, 1, stats.ContentSkipped)
}

func TestWalkSymlinksAndSubmodulesSkipped(t *testing.T) {
	repo := gitrepotest.NewRepo()
	repo.AddCommit(gitrepotest.CommitSpec{
		Hash: "c1", When: base,
		Files:    map[string]string{"real.txt": "real content\n"},
		Symlinks: map[string]string{"link.txt": "real.txt"},
		Gitlinks: []string{"vendored-module"},
	})
	repo.SetRef("HEAD", "c1")

	w, err := New(repo, Config{}, nil)
	require.NoError(t, err)
	records := collect(t, w)

	require.Len(t, records, 1)
	assert.Equal(t, "real.txt", records[0].Locations[0].Path)
	// Symlinks and gitlinks never reach the filter, so nothing is counted skipped.
	assert.Equal(t, 0, w.Stats().ContentSkipped)
}

func TestWalkProgressMonotonic(t *testing.T) {
	repo := gitrepotest.NewRepo()
	prev := ""
	for i, hash := range []string{"c1", "c2", "c3"} {
		spec := gitrepotest.CommitSpec{
			Hash: hash, When: base.Add(time.Duration(i) * time.Hour),
			Files: map[string]string{"f.txt": "content " + hash},
		}
		if prev != "" {
			spec.Parents = []string{prev}
		}
		repo.AddCommit(spec)
		prev = hash
	}
	repo.SetRef("HEAD", "c3")

	var snapshots []types.WalkProgress
	w, err := New(repo, Config{
		Progress: func(p types.WalkProgress) { snapshots = append(snapshots, p) },
	}, nil)
	require.NoError(t, err)
	collect(t, w)

	require.Len(t, snapshots, 3)
	for i := 1; i < len(snapshots); i++ {
		assert.GreaterOrEqual(t, snapshots[i].CommitsSeen, snapshots[i-1].CommitsSeen)
		assert.GreaterOrEqual(t, snapshots[i].UniqueContent, snapshots[i-1].UniqueContent)
	}
	assert.Equal(t, 3, snapshots[len(snapshots)-1].CommitsSeen)
}

func TestWalkBlobErrorIsRecoverable(t *testing.T) {
	repo := gitrepotest.NewRepo()
	repo.AddCommit(gitrepotest.CommitSpec{
		Hash: "c1", When: base,
		Files: map[string]string{"bad.txt": "unreadable\n", "good.txt": "readable\n"},
	})
	repo.SetRef("HEAD", "c1")
	repo.FailBlob("unreadable\n", errors.New("object corrupt"))

	w, err := New(repo, Config{}, nil)
	require.NoError(t, err)
	records := collect(t, w)

	require.Len(t, records, 1)
	assert.Equal(t, gitrepotest.BlobHash("readable\n"), records[0].Hash)

	stats := w.Stats()
	require.Len(t, stats.Errors, 1)
	assert.Equal(t, types.ErrorBlobRead, stats.Errors[0].Category)
	assert.Equal(t, "c1", stats.Errors[0].CommitHash)
}

func TestWalkCancelledContext(t *testing.T) {
	repo := gitrepotest.NewRepo()
	repo.AddCommit(gitrepotest.CommitSpec{
		Hash: "c1", When: base,
		Files: map[string]string{"a.txt": "content\n"},
	})
	repo.SetRef("HEAD", "c1")

	w, err := New(repo, Config{}, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	count := 0
	for range w.Walk(ctx) {
		count++
	}
	assert.Equal(t, 0, count, "a cancelled walk yields nothing")
}

func TestWalkerRunsExactlyOnce(t *testing.T) {
	repo := gitrepotest.NewRepo()
	repo.AddCommit(gitrepotest.CommitSpec{
		Hash: "c1", When: base,
		Files: map[string]string{"a.txt": "content\n"},
	})
	repo.SetRef("HEAD", "c1")

	w, err := New(repo, Config{}, nil)
	require.NoError(t, err)

	first := collect(t, w)
	require.Len(t, first, 1)

	second := 0
	for range w.Walk(context.Background()) {
		second++
	}
	assert.Equal(t, 0, second)
}

func TestWalkRepeatedWalksAgree(t *testing.T) {
	repo := gitrepotest.NewRepo()
	repo.AddCommit(gitrepotest.CommitSpec{
		Hash: "c1", When: base,
		Files: map[string]string{"a.txt": "shared content\n", "old.txt": "dropped later\n"},
	})
	repo.AddCommit(gitrepotest.CommitSpec{
		Hash: "c2", When: base.Add(time.Minute),
		Files: map[string]string{"b.txt": "side branch\n"},
	})
	repo.AddCommit(gitrepotest.CommitSpec{
		Hash: "m", When: base.Add(time.Hour), Parents: []string{"c1", "c2"},
		Files: map[string]string{
			"a.txt":      "shared content\n",
			"copy/a.txt": "shared content\n",
			"b.txt":      "side branch\n",
		},
	})
	repo.SetRef("HEAD", "m")

	// One walk per hash: every location of a content hash, canonically ordered.
	runWalk := func() map[string][]string {
		w, err := New(repo, Config{}, nil)
		require.NoError(t, err)

		out := make(map[string][]string)
		for _, rec := range collect(t, w) {
			locs := make([]string, 0, len(rec.Locations))
			for _, loc := range rec.Locations {
				locs = append(locs, fmt.Sprintf("%s:%s:head=%t", loc.CommitHash, loc.Path, loc.IsHead))
			}
			sort.Strings(locs)
			out[rec.Hash] = locs
		}
		return out
	}

	first := runWalk()
	second := runWalk()

	require.Len(t, first, 3)
	assert.Equal(t, first, second, "walking the same repository twice yields the same hashes and locations")

	shared := first[gitrepotest.BlobHash("shared content\n")]
	assert.Len(t, shared, 3, "every (commit, path) occurrence is preserved on each walk")
}

func TestNewRejectsUnknownRef(t *testing.T) {
	repo := gitrepotest.NewRepo()
	repo.AddCommit(gitrepotest.CommitSpec{Hash: "c1", When: base})
	repo.SetRef("HEAD", "c1")

	_, err := New(repo, Config{Refs: []string{"no-such-branch"}}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no-such-branch")
}

func TestWalkGitignoreRules(t *testing.T) {
	repo := gitrepotest.NewRepo()
	repo.AddCommit(gitrepotest.CommitSpec{
		Hash: "c1", When: base,
		Files: map[string]string{
			"src/app.go":  "package app\n",
			"build/out.o": "object file\n",
		},
	})
	repo.SetRef("HEAD", "c1")

	w, err := New(repo, Config{Ignore: pathPrefixMatcher("build/")}, nil)
	require.NoError(t, err)
	records := collect(t, w)

	require.Len(t, records, 1)
	assert.Equal(t, "src/app.go", records[0].Locations[0].Path)
	assert.Equal(t, 1, w.Stats().ContentSkipped)
}

// pathPrefixMatcher is a minimal IgnoreMatcher for tests.
type pathPrefixMatcher string

func (p pathPrefixMatcher) Match(path string) bool {
	return len(path) >= len(p) && path[:len(p)] == string(p)
}

var _ filter.IgnoreMatcher = pathPrefixMatcher("")
