// Package gitrepotest provides an in-memory gitrepo.Repository fake for
// tests that need controlled history without touching a real repository.
package gitrepotest

import (
	"crypto/sha256"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/dshills/gitctx/internal/gitrepo"
)

// CommitSpec describes one commit to add to a fake repository. Files maps
// repo-relative paths to file content; identical content at any path or
// commit shares one blob hash, matching real object storage.
type CommitSpec struct {
	Hash     string
	When     time.Time
	Author   string
	Email    string
	Message  string
	Parents  []string
	Files    map[string]string
	Symlinks map[string]string // path -> link target
	Gitlinks []string          // submodule paths
}

type fakeCommit struct {
	commit  *gitrepo.Commit
	parents []string
	seq     int // insertion order, tiebreaker for equal timestamps
}

// Repo is an in-memory Repository implementation built from CommitSpecs.
type Repo struct {
	refs       map[string]string
	commits    map[string]*fakeCommit
	trees      map[string][]gitrepo.TreeEntry
	blobs      map[string][]byte
	blobErrs   map[string]error
	treeErrs   map[string]error
	commitErrs map[string]error
	bare       bool
	seq        int
}

// NewRepo returns an empty fake repository.
func NewRepo() *Repo {
	return &Repo{
		refs:       make(map[string]string),
		commits:    make(map[string]*fakeCommit),
		trees:      make(map[string][]gitrepo.TreeEntry),
		blobs:      make(map[string][]byte),
		blobErrs:   make(map[string]error),
		treeErrs:   make(map[string]error),
		commitErrs: make(map[string]error),
	}
}

// AddCommit adds a commit and builds its tree objects from spec.Files.
func (r *Repo) AddCommit(spec CommitSpec) {
	if spec.Author == "" {
		spec.Author = "Test Author"
	}
	if spec.Email == "" {
		spec.Email = "test@example.com"
	}
	if spec.Message == "" {
		spec.Message = "commit " + spec.Hash
	}

	treeHash := r.buildTree(spec, "")
	r.seq++
	r.commits[spec.Hash] = &fakeCommit{
		commit: &gitrepo.Commit{
			Hash:        spec.Hash,
			AuthorName:  spec.Author,
			AuthorEmail: spec.Email,
			When:        spec.When,
			Message:     spec.Message,
			Parents:     len(spec.Parents),
			TreeHash:    treeHash,
		},
		parents: spec.Parents,
		seq:     r.seq,
	}
}

// SetRef points a ref name at a commit hash.
func (r *Repo) SetRef(name, hash string) {
	r.refs[name] = hash
}

// SetBare marks the repository as having no working checkout.
func (r *Repo) SetBare(bare bool) {
	r.bare = bare
}

// FailBlob makes ReadBlob return err for the blob holding content.
func (r *Repo) FailBlob(content string, err error) {
	r.blobErrs[BlobHash(content)] = err
}

// FailTree makes TreeEntries return err for the named commit's root tree.
func (r *Repo) FailTree(commitHash string, err error) {
	if fc, ok := r.commits[commitHash]; ok {
		r.treeErrs[fc.commit.TreeHash] = err
	}
}

// FailCommit makes Commit return err for the given hash.
func (r *Repo) FailCommit(hash string, err error) {
	r.commitErrs[hash] = err
}

// BlobHash returns the hash the fake assigns to the given file content.
func BlobHash(content string) string {
	return fmt.Sprintf("blob-%x", sha256.Sum256([]byte(content)))[:20]
}

// buildTree creates the tree objects for all files under prefix and
// returns the subtree's hash. Tree hashes derive from the entry set, so
// identical trees share a hash like real object storage.
func (r *Repo) buildTree(spec CommitSpec, prefix string) string {
	type child struct {
		name string
		kind gitrepo.EntryKind
		hash string
	}
	children := make(map[string]child)

	addEntry := func(relPath string, kind gitrepo.EntryKind, content string) {
		parts := strings.SplitN(relPath, "/", 2)
		if len(parts) == 2 {
			if _, ok := children[parts[0]]; !ok {
				children[parts[0]] = child{name: parts[0], kind: gitrepo.EntryDir}
			}
			return
		}
		var hash string
		switch kind {
		case gitrepo.EntryFile, gitrepo.EntrySymlink:
			hash = BlobHash(content)
			r.blobs[hash] = []byte(content)
		case gitrepo.EntrySubmodule:
			hash = "gitlink-" + relPath
		}
		children[relPath] = child{name: relPath, kind: kind, hash: hash}
	}

	strip := func(p string) (string, bool) {
		if prefix == "" {
			return p, true
		}
		if strings.HasPrefix(p, prefix+"/") {
			return strings.TrimPrefix(p, prefix+"/"), true
		}
		return "", false
	}

	for p, content := range spec.Files {
		if rel, ok := strip(p); ok {
			addEntry(rel, gitrepo.EntryFile, content)
		}
	}
	for p, target := range spec.Symlinks {
		if rel, ok := strip(p); ok {
			addEntry(rel, gitrepo.EntrySymlink, target)
		}
	}
	for _, p := range spec.Gitlinks {
		if rel, ok := strip(p); ok {
			addEntry(rel, gitrepo.EntrySubmodule, "")
		}
	}

	names := make([]string, 0, len(children))
	for name := range children {
		names = append(names, name)
	}
	sort.Strings(names)

	entries := make([]gitrepo.TreeEntry, 0, len(names))
	sig := sha256.New()
	for _, name := range names {
		c := children[name]
		hash := c.hash
		if c.kind == gitrepo.EntryDir {
			sub := prefix
			if sub == "" {
				sub = name
			} else {
				sub = sub + "/" + name
			}
			hash = r.buildTree(spec, sub)
		}
		entries = append(entries, gitrepo.TreeEntry{Name: name, Hash: hash, Kind: c.kind})
		fmt.Fprintf(sig, "%s\x00%s\x00%d\n", name, hash, c.kind)
	}

	treeHash := fmt.Sprintf("tree-%x", sig.Sum(nil))[:20]
	r.trees[treeHash] = entries
	return treeHash
}

// ResolveRef resolves a ref name or raw commit hash.
func (r *Repo) ResolveRef(ref string) (string, error) {
	if hash, ok := r.refs[ref]; ok {
		return hash, nil
	}
	if _, ok := r.commits[ref]; ok {
		return ref, nil
	}
	return "", fmt.Errorf("reference not found: %s", ref)
}

// CommitsFrom returns reachable commits, newest committer time first.
func (r *Repo) CommitsFrom(hash string) (gitrepo.CommitIter, error) {
	start, ok := r.commits[hash]
	if !ok {
		return nil, fmt.Errorf("commit not found: %s", hash)
	}

	seen := map[string]struct{}{}
	var reachable []*fakeCommit
	stack := []*fakeCommit{start}
	for len(stack) > 0 {
		fc := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, dup := seen[fc.commit.Hash]; dup {
			continue
		}
		seen[fc.commit.Hash] = struct{}{}
		reachable = append(reachable, fc)
		for _, p := range fc.parents {
			if pc, ok := r.commits[p]; ok {
				stack = append(stack, pc)
			}
		}
	}

	sort.Slice(reachable, func(i, j int) bool {
		if !reachable[i].commit.When.Equal(reachable[j].commit.When) {
			return reachable[i].commit.When.After(reachable[j].commit.When)
		}
		return reachable[i].seq > reachable[j].seq
	})

	commits := make([]*gitrepo.Commit, len(reachable))
	for i, fc := range reachable {
		commits[i] = fc.commit
	}
	return &sliceIter{commits: commits, errs: r.commitErrs}, nil
}

// Commit loads a single commit by hash.
func (r *Repo) Commit(hash string) (*gitrepo.Commit, error) {
	if err, ok := r.commitErrs[hash]; ok {
		return nil, err
	}
	fc, ok := r.commits[hash]
	if !ok {
		return nil, fmt.Errorf("commit not found: %s", hash)
	}
	return fc.commit, nil
}

// TreeEntries lists a tree's entries.
func (r *Repo) TreeEntries(treeHash string) ([]gitrepo.TreeEntry, error) {
	if err, ok := r.treeErrs[treeHash]; ok {
		return nil, err
	}
	entries, ok := r.trees[treeHash]
	if !ok {
		return nil, fmt.Errorf("tree not found: %s", treeHash)
	}
	return entries, nil
}

// ReadBlob returns a blob's content.
func (r *Repo) ReadBlob(hash string) ([]byte, error) {
	if err, ok := r.blobErrs[hash]; ok {
		return nil, err
	}
	content, ok := r.blobs[hash]
	if !ok {
		return nil, fmt.Errorf("blob not found: %s", hash)
	}
	return content, nil
}

// BlobSize returns a blob's size without reading it.
func (r *Repo) BlobSize(hash string) (int64, error) {
	if err, ok := r.blobErrs[hash]; ok {
		return 0, err
	}
	content, ok := r.blobs[hash]
	if !ok {
		return 0, fmt.Errorf("blob not found: %s", hash)
	}
	return int64(len(content)), nil
}

// Bare reports whether the repository has no working checkout.
func (r *Repo) Bare() bool {
	return r.bare
}

// Close is a no-op.
func (r *Repo) Close() error {
	return nil
}

type sliceIter struct {
	commits []*gitrepo.Commit
	errs    map[string]error
	pos     int
}

func (it *sliceIter) Next() (*gitrepo.Commit, error) {
	if it.pos >= len(it.commits) {
		return nil, io.EOF
	}
	c := it.commits[it.pos]
	it.pos++
	if err, ok := it.errs[c.Hash]; ok {
		return nil, err
	}
	return c, nil
}

func (it *sliceIter) Close() {}
