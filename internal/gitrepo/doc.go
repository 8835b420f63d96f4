// Package gitrepo abstracts repository access behind a small capability
// interface: resolve-ref, iterate-commits, read-tree, read-blob. The
// production implementation is backed by go-git; the walker's tests run
// against an in-memory fake.
//
// Construction validates the repository before any walk begins. A partial
// clone (promisor remote or partial-clone filter) or a shallow clone
// (truncated history) is rejected with ErrPartialClone or ErrShallowClone,
// each carrying a remediation hint, because a walk over either would
// silently produce an incomplete index. Bare repositories are supported.
package gitrepo
