// Package walker implements the commit and tree traversal core of gitctx.
//
// A Walker visits commits reverse-chronologically from one or more refs,
// recurses each commit's tree, consults the blob filter per regular-file
// entry, and deduplicates identical content across the whole history while
// preserving every (commit, path) location it occupies. The result is one
// aggregated ContentRecord per unique accepted content hash.
//
// # Emission Contract
//
// The same content hash can recur many commits after it is first seen, so a
// record's location list is only complete once the traversal finishes. Walk
// therefore buffers: the hash-to-record map stays private until the full
// traversal completes, and records are released afterwards as a lazy
// sequence. A streaming consumer can never observe a partially-populated
// location list, and released records are never mutated by the walker.
//
// # Failure Semantics
//
// Per-item problems (an unreadable tree or blob) become WalkError values in
// the stats and the walk continues. Structural problems are rejected before
// the walker exists: gitrepo construction fails fast on partial and shallow
// clones, and New resolves every configured ref up front.
//
// The walker is single-threaded and synchronous. Cancellation is pull-based:
// a caller that stops pulling simply stops, and partial WalkStats remain
// valid at any interruption point.
package walker
