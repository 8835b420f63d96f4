package gitrepo

import (
	"errors"
	"strings"
	"time"
)

// Structural errors raised at open time. Either condition silently yields an
// incomplete, non-reproducible index, so construction fails fast instead.
var (
	// ErrPartialClone indicates the repository is missing local objects.
	ErrPartialClone = errors.New("repository is a partial clone (missing local objects); run 'git fetch --refetch --no-filter' before indexing")
	// ErrShallowClone indicates history is truncated at a shallow boundary.
	ErrShallowClone = errors.New("repository is a shallow clone (truncated history); run 'git fetch --unshallow' before indexing")
	// ErrOpen wraps any other failure to open a repository.
	ErrOpen = errors.New("cannot open repository")
)

// EntryKind classifies a tree entry.
type EntryKind int

const (
	// EntryFile is a regular or executable blob.
	EntryFile EntryKind = iota
	// EntrySymlink is a symbolic link; its blob holds the target path, not file content.
	EntrySymlink
	// EntryDir is a subtree.
	EntryDir
	// EntrySubmodule is a gitlink to another repository.
	EntrySubmodule
	// EntryOther covers any mode the walker does not process.
	EntryOther
)

// Commit is the walker's view of one commit.
type Commit struct {
	Hash        string
	AuthorName  string
	AuthorEmail string
	When        time.Time // committer timestamp
	Message     string
	Parents     int
	TreeHash    string
}

// TreeEntry is one entry of a tree object.
type TreeEntry struct {
	Name string
	Hash string
	Kind EntryKind
}

// CommitIter iterates commits. Next returns io.EOF when exhausted.
type CommitIter interface {
	Next() (*Commit, error)
	Close()
}

// Repository is the capability set the walker needs from a repository
// backend. Abstracting it keeps the walker testable against an in-memory
// fake.
type Repository interface {
	// ResolveRef resolves a ref name (branch, tag, HEAD, hash) to a commit hash.
	ResolveRef(ref string) (string, error)

	// CommitsFrom iterates commits reachable from hash, children before
	// parents (reverse-chronological by committer time).
	CommitsFrom(hash string) (CommitIter, error)

	// Commit loads a single commit by hash.
	Commit(hash string) (*Commit, error)

	// TreeEntries lists the entries of a tree object.
	TreeEntries(treeHash string) ([]TreeEntry, error)

	// ReadBlob returns the full content of a blob.
	ReadBlob(hash string) ([]byte, error)

	// BlobSize returns a blob's size from object metadata, without reading content.
	BlobSize(hash string) (int64, error)

	// Bare reports whether the repository has no working checkout.
	Bare() bool

	Close() error
}

// reservedDirs are directories whose contents are never indexed: the VCS's
// own metadata and gitctx's cache/config directory. Non-overridable.
var reservedDirs = []string{".git", ".gitctx"}

// IsVCSInternal reports whether path lies under a reserved metadata or
// VCS-internal directory.
func IsVCSInternal(path string) bool {
	for _, part := range strings.Split(path, "/") {
		for _, reserved := range reservedDirs {
			if part == reserved {
				return true
			}
		}
	}
	return false
}
