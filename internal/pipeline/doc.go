// Package pipeline orchestrates a full index run: it walks repository
// history, chunks and embeds each unique content blob, and persists the
// results.
//
// The flow for each content record the walker emits:
//
//  1. Consult the artifact cache by content hash. A hit reuses the cached
//     chunk boundaries and vectors; no chunking or embedding happens.
//  2. On a miss, chunk the content, embed the chunks in one batch call,
//     apportion the batch's token cost to each chunk, and write the
//     artifacts back to the cache.
//  3. Persist commits, content, locations, chunks, and embeddings to the
//     store inside batched transactions.
//
// Chunk and embed work runs on a bounded worker pool; store writes are
// serialized per batch so a failed batch rolls back cleanly. With Resume
// enabled, content hashes already marked processed in the store never
// reach the pipeline at all.
package pipeline
