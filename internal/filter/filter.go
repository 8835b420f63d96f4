package filter

import (
	"bytes"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/format/gitignore"

	"github.com/dshills/gitctx/internal/gitrepo"
)

// SkipReason identifies which rule excluded a blob.
type SkipReason string

const (
	ReasonSecurityPath SkipReason = "security_path"
	ReasonGitignored   SkipReason = "gitignored"
	ReasonBinary       SkipReason = "binary"
	ReasonLFSPointer   SkipReason = "lfs_pointer"
	ReasonOversized    SkipReason = "oversized"
)

const (
	// binarySniffLen bounds the zero-byte scan, matching git's own heuristic.
	binarySniffLen = 8 * 1024

	// lfsPointerPrefix opens every git-lfs pointer file; the real payload
	// lives outside the repository.
	lfsPointerPrefix = "version https://git-lfs.github.com/spec/"

	// DefaultMaxBlobSize is the size limit applied when none is configured.
	DefaultMaxBlobSize = 1 << 20 // 1 MiB
)

// Decision is the outcome of filtering one (path, content) candidate.
type Decision struct {
	Skip   bool
	Reason SkipReason
}

// IgnoreMatcher answers gitignore-style path queries.
type IgnoreMatcher interface {
	Match(path string) bool
}

// Config controls which rules the filter applies.
type Config struct {
	MaxBlobSize int64         // 0 means DefaultMaxBlobSize
	SkipBinary  bool          // apply the zero-byte binary heuristic
	Ignore      IgnoreMatcher // nil disables ignore-pattern matching
}

// Filter decides whether a blob should ever be indexed. It is pure and
// deterministic given its configuration.
type Filter struct {
	maxSize    int64
	skipBinary bool
	ignore     IgnoreMatcher
}

// New builds a Filter from cfg.
func New(cfg Config) *Filter {
	maxSize := cfg.MaxBlobSize
	if maxSize <= 0 {
		maxSize = DefaultMaxBlobSize
	}
	return &Filter{
		maxSize:    maxSize,
		skipBinary: cfg.SkipBinary,
		ignore:     cfg.Ignore,
	}
}

// Decide applies the rules in fixed order, cheapest and most authoritative
// first: security path, ignore pattern, binary, LFS pointer, size limit.
// The first matching rule wins.
func (f *Filter) Decide(path string, content []byte) Decision {
	if gitrepo.IsVCSInternal(path) {
		return Decision{Skip: true, Reason: ReasonSecurityPath}
	}

	if f.ignore != nil && f.ignore.Match(path) {
		return Decision{Skip: true, Reason: ReasonGitignored}
	}

	if f.skipBinary && isBinary(content) {
		return Decision{Skip: true, Reason: ReasonBinary}
	}

	if isLFSPointer(content) {
		return Decision{Skip: true, Reason: ReasonLFSPointer}
	}

	if int64(len(content)) > f.maxSize {
		return Decision{Skip: true, Reason: ReasonOversized}
	}

	return Decision{}
}

// DecidePath applies only the path-dependent rules (security path, ignore
// pattern). Content that already passed the content rules at another path
// only needs these re-checked when it recurs.
func (f *Filter) DecidePath(path string) Decision {
	if gitrepo.IsVCSInternal(path) {
		return Decision{Skip: true, Reason: ReasonSecurityPath}
	}
	if f.ignore != nil && f.ignore.Match(path) {
		return Decision{Skip: true, Reason: ReasonGitignored}
	}
	return Decision{}
}

// MaxBlobSize returns the configured size limit.
func (f *Filter) MaxBlobSize() int64 {
	return f.maxSize
}

// isBinary reports whether content contains a zero byte within the first
// 8 KiB, git's heuristic for binary files.
func isBinary(content []byte) bool {
	sniff := content
	if len(sniff) > binarySniffLen {
		sniff = sniff[:binarySniffLen]
	}
	return bytes.IndexByte(sniff, 0) >= 0
}

// isLFSPointer reports whether content starts with a git-lfs pointer header.
func isLFSPointer(content []byte) bool {
	return bytes.HasPrefix(content, []byte(lfsPointerPrefix))
}

// gitignoreMatcher adapts go-git's gitignore matcher to IgnoreMatcher.
type gitignoreMatcher struct {
	matcher gitignore.Matcher
}

// NewGitignoreMatcher builds an IgnoreMatcher from go-git gitignore
// patterns, typically loaded from a repository's working tree.
func NewGitignoreMatcher(patterns []gitignore.Pattern) IgnoreMatcher {
	return &gitignoreMatcher{matcher: gitignore.NewMatcher(patterns)}
}

func (g *gitignoreMatcher) Match(path string) bool {
	return g.matcher.Match(strings.Split(path, "/"), false)
}
