// Package filter decides whether a blob is eligible for indexing.
//
// Decide applies five rules in a fixed order and the first match wins:
//
//  1. security path: anything under .git/ or .gitctx/ is always excluded,
//     non-overridable, so the tool never indexes its own cache or credentials
//  2. gitignored: standard gitignore glob semantics, when enabled
//  3. binary: a zero byte within the first 8 KiB
//  4. lfs_pointer: content opening with a git-lfs pointer header
//  5. oversized: content exceeding the configured size limit
//
// The filter is a pure decision function: no I/O, deterministic given its
// configuration.
package filter
