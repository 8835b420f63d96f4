package gitrepo

import (
	"fmt"
	"io"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
	"github.com/go-git/go-git/v5/plumbing/object"
	"go.uber.org/zap"
)

// GitRepository implements Repository on top of go-git.
type GitRepository struct {
	repo   *git.Repository
	bare   bool
	logger *zap.Logger
}

// Open opens the repository at path, detecting the .git directory from any
// subdirectory. It validates the repository before returning: partial and
// shallow clones are rejected with a remediation hint because neither can
// support a complete, reproducible walk.
func Open(path string, logger *zap.Logger) (*GitRepository, error) {
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrOpen, path, err)
	}
	return NewFromRepository(repo, logger)
}

// NewFromRepository wraps an already-open go-git repository, applying the
// same structural validation as Open.
func NewFromRepository(repo *git.Repository, logger *zap.Logger) (*GitRepository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	bare, err := validate(repo)
	if err != nil {
		return nil, err
	}

	return &GitRepository{repo: repo, bare: bare, logger: logger}, nil
}

// validate rejects partial and shallow clones and reports bareness.
func validate(repo *git.Repository) (bare bool, err error) {
	cfg, err := repo.Config()
	if err != nil {
		return false, fmt.Errorf("%w: reading config: %v", ErrOpen, err)
	}

	// A promisor remote or a partial-clone filter means objects may be
	// missing locally.
	for _, sub := range cfg.Raw.Section("remote").Subsections {
		if sub.Option("promisor") == "true" || sub.Option("partialclonefilter") != "" {
			return false, ErrPartialClone
		}
	}

	shallow, err := repo.Storer.Shallow()
	if err != nil {
		return false, fmt.Errorf("%w: reading shallow state: %v", ErrOpen, err)
	}
	if len(shallow) > 0 {
		return false, ErrShallowClone
	}

	return cfg.Core.IsBare, nil
}

// ResolveRef resolves a revision (branch, tag, HEAD, abbreviated hash) to a
// full commit hash.
func (g *GitRepository) ResolveRef(ref string) (string, error) {
	hash, err := g.repo.ResolveRevision(plumbing.Revision(ref))
	if err != nil {
		return "", fmt.Errorf("resolving ref %q: %w", ref, err)
	}
	return hash.String(), nil
}

// CommitsFrom iterates commits reachable from hash in committer-time order,
// children before parents.
func (g *GitRepository) CommitsFrom(hash string) (CommitIter, error) {
	iter, err := g.repo.Log(&git.LogOptions{
		From:  plumbing.NewHash(hash),
		Order: git.LogOrderCommitterTime,
	})
	if err != nil {
		return nil, fmt.Errorf("iterating commits from %s: %w", hash, err)
	}
	return &commitIter{iter: iter}, nil
}

// Commit loads one commit by hash.
func (g *GitRepository) Commit(hash string) (*Commit, error) {
	c, err := g.repo.CommitObject(plumbing.NewHash(hash))
	if err != nil {
		return nil, fmt.Errorf("reading commit %s: %w", hash, err)
	}
	return convertCommit(c), nil
}

// TreeEntries lists the entries of a tree object.
func (g *GitRepository) TreeEntries(treeHash string) ([]TreeEntry, error) {
	tree, err := g.repo.TreeObject(plumbing.NewHash(treeHash))
	if err != nil {
		return nil, fmt.Errorf("reading tree %s: %w", treeHash, err)
	}

	entries := make([]TreeEntry, 0, len(tree.Entries))
	for _, e := range tree.Entries {
		entries = append(entries, TreeEntry{
			Name: e.Name,
			Hash: e.Hash.String(),
			Kind: convertMode(e.Mode),
		})
	}
	return entries, nil
}

// ReadBlob returns the full content of the blob at hash.
func (g *GitRepository) ReadBlob(hash string) ([]byte, error) {
	blob, err := g.repo.BlobObject(plumbing.NewHash(hash))
	if err != nil {
		return nil, fmt.Errorf("reading blob %s: %w", hash, err)
	}

	r, err := blob.Reader()
	if err != nil {
		return nil, fmt.Errorf("opening blob %s: %w", hash, err)
	}
	defer func() { _ = r.Close() }()

	return io.ReadAll(r)
}

// BlobSize returns a blob's size from object metadata.
func (g *GitRepository) BlobSize(hash string) (int64, error) {
	blob, err := g.repo.BlobObject(plumbing.NewHash(hash))
	if err != nil {
		return 0, fmt.Errorf("reading blob %s: %w", hash, err)
	}
	return blob.Size, nil
}

// Bare reports whether the repository has no working checkout.
func (g *GitRepository) Bare() bool {
	return g.bare
}

// IgnorePatterns loads gitignore patterns from the working tree. Bare
// repositories have no checkout and return no patterns.
func (g *GitRepository) IgnorePatterns() []gitignore.Pattern {
	if g.bare {
		return nil
	}
	wt, err := g.repo.Worktree()
	if err != nil {
		g.logger.Warn("reading worktree for ignore patterns", zap.Error(err))
		return nil
	}
	patterns, err := gitignore.ReadPatterns(wt.Filesystem, nil)
	if err != nil {
		g.logger.Warn("reading gitignore patterns", zap.Error(err))
		return nil
	}
	return patterns
}

// Close releases the repository handle. go-git holds no resources that
// outlive the process, so this is a no-op kept for scoped acquisition.
func (g *GitRepository) Close() error {
	return nil
}

type commitIter struct {
	iter object.CommitIter
}

func (i *commitIter) Next() (*Commit, error) {
	c, err := i.iter.Next()
	if err != nil {
		return nil, err
	}
	return convertCommit(c), nil
}

func (i *commitIter) Close() {
	i.iter.Close()
}

func convertCommit(c *object.Commit) *Commit {
	return &Commit{
		Hash:        c.Hash.String(),
		AuthorName:  c.Author.Name,
		AuthorEmail: c.Author.Email,
		When:        c.Committer.When,
		Message:     c.Message,
		Parents:     len(c.ParentHashes),
		TreeHash:    c.TreeHash.String(),
	}
}

func convertMode(mode filemode.FileMode) EntryKind {
	switch mode {
	case filemode.Regular, filemode.Executable, filemode.Deprecated:
		return EntryFile
	case filemode.Symlink:
		return EntrySymlink
	case filemode.Dir:
		return EntryDir
	case filemode.Submodule:
		return EntrySubmodule
	default:
		return EntryOther
	}
}
