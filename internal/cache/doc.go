// Package cache provides the content-addressed artifact cache.
//
// Each entry is one file named by content hash under
// {cache_root}/{model_name}/{content_hash}.msgpack.gz: a msgpack-serialized
// artifact list behind transparent gzip, with metadata carrying per-artifact
// token counts and cost plus the total artifact count. Keying strictly by
// content hash means identical content anywhere in history is embedded
// exactly once, regardless of how many locations reference it.
//
// Cache entries are disposable derived data. A read that fails to decompress
// or deserialize is treated as a miss and logged; it is never an error,
// because every entry is rebuildable from source content. The cache performs
// no cross-process write coordination; the pipeline schedules at most one
// producer per content hash.
package cache
