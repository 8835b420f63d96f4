package filter

import (
	"bytes"
	"testing"

	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
	"github.com/stretchr/testify/assert"
)

func TestDecideRuleOrder(t *testing.T) {
	ignore := NewGitignoreMatcher([]gitignore.Pattern{
		gitignore.ParsePattern("*.log", nil),
		gitignore.ParsePattern("vendor/", nil),
	})
	f := New(Config{MaxBlobSize: 100, SkipBinary: true, Ignore: ignore})

	oversized := bytes.Repeat([]byte("a"), 200)
	binary := []byte("ELF\x00binary content")
	lfs := []byte("version https://git-lfs.github.com/spec/v1\noid sha256:abc\nsize 12345\n")

	tests := []struct {
		name   string
		path   string
		data   []byte
		skip   bool
		reason SkipReason
	}{
		{"plain text accepted", "main.go", []byte("package main\n"), false, ""},
		{"vcs internal path", ".git/config", []byte("x"), true, ReasonSecurityPath},
		{"gitctx internal path", ".gitctx/index.db", []byte("x"), true, ReasonSecurityPath},
		{"gitignored file", "debug.log", []byte("x"), true, ReasonGitignored},
		{"gitignored directory", "vendor/lib/a.go", []byte("x"), true, ReasonGitignored},
		{"binary content", "tool.bin", binary, true, ReasonBinary},
		{"lfs pointer", "model.bin", lfs, true, ReasonLFSPointer},
		{"oversized content", "big.txt", oversized, true, ReasonOversized},

		// The first matching rule wins: a path rule beats any content rule.
		{"security path beats oversized", ".git/big", oversized, true, ReasonSecurityPath},
		{"ignore beats binary", "trace.log", binary, true, ReasonGitignored},
		{"binary beats oversized", "blob.dat", append(bytes.Repeat([]byte{0}, 10), oversized...), true, ReasonBinary},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := f.Decide(tt.path, tt.data)
			assert.Equal(t, tt.skip, d.Skip)
			assert.Equal(t, tt.reason, d.Reason)
		})
	}
}

func TestDecidePath(t *testing.T) {
	ignore := NewGitignoreMatcher([]gitignore.Pattern{
		gitignore.ParsePattern("*.tmp", nil),
	})
	f := New(Config{Ignore: ignore})

	assert.Equal(t, Decision{Skip: true, Reason: ReasonSecurityPath}, f.DecidePath(".git/HEAD"))
	assert.Equal(t, Decision{Skip: true, Reason: ReasonGitignored}, f.DecidePath("scratch.tmp"))
	assert.Equal(t, Decision{}, f.DecidePath("src/lib.go"))
}

func TestBinaryDetection(t *testing.T) {
	f := New(Config{SkipBinary: true})

	t.Run("zero byte past sniff window is not binary", func(t *testing.T) {
		content := append(bytes.Repeat([]byte("a"), binarySniffLen), 0)
		d := f.Decide("data.txt", content)
		assert.False(t, d.Skip)
	})

	t.Run("binary disabled passes zero bytes", func(t *testing.T) {
		off := New(Config{SkipBinary: false})
		d := off.Decide("tool.bin", []byte("has\x00zero"))
		assert.False(t, d.Skip)
	})

	t.Run("empty content is not binary", func(t *testing.T) {
		d := f.Decide("empty.txt", nil)
		assert.False(t, d.Skip)
	})
}

func TestLFSPointerAlwaysSkipped(t *testing.T) {
	// LFS pointers are skipped even with the binary heuristic off: the
	// pointer text is not the file's content.
	f := New(Config{SkipBinary: false})
	d := f.Decide("weights.bin", []byte("version https://git-lfs.github.com/spec/v1\n"))
	assert.True(t, d.Skip)
	assert.Equal(t, ReasonLFSPointer, d.Reason)
}

func TestMaxBlobSizeDefault(t *testing.T) {
	f := New(Config{})
	assert.Equal(t, int64(DefaultMaxBlobSize), f.MaxBlobSize())

	exact := bytes.Repeat([]byte("a"), int(f.MaxBlobSize()))
	assert.False(t, f.Decide("at-limit.txt", exact).Skip)
	assert.True(t, f.Decide("over-limit.txt", append(exact, 'a')).Skip)
}
