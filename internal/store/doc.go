// Package store persists indexed repository data in SQLite.
//
// The schema mirrors the walk output: one row per repository, per visited
// commit, and per unique content hash, with locations carrying denormalized
// commit fields so consumers read occurrence metadata without joins. Chunks
// and embeddings hang off contents; vectors are stored as little-endian
// float32 blobs.
//
// # Basic Usage
//
//	s, err := store.NewSQLiteStore("/path/to/index.db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer s.Close()
//
//	repo := &store.Repo{RootPath: "/path/to/repo", IndexVersion: "1.0.0"}
//	if err := s.CreateRepo(ctx, repo); err != nil { ... }
//
// # Transactions
//
// Batch writes go through BeginTx; the returned Tx exposes the full Store
// interface against the transaction:
//
//	tx, err := s.BeginTx(ctx)
//	if err != nil { ... }
//	defer tx.Rollback()
//
//	for _, rec := range records {
//	    content := &store.Content{RepoID: repo.ID, ContentHash: rec.Hash, SizeBytes: rec.Size}
//	    if err := tx.UpsertContent(ctx, content); err != nil { ... }
//	    if err := tx.InsertLocations(ctx, content.ID, rec.Locations); err != nil { ... }
//	}
//	if err := tx.Commit(); err != nil { ... }
//
// # Resume
//
// ProcessedContentHashes returns the hashes already chunked and embedded;
// the indexing pipeline seeds the walker's resume set with it so a second
// run skips blob reads for known content.
//
// # Drivers
//
// Two SQLite drivers are supported via build tags: modernc.org/sqlite
// (pure Go, the default) and mattn/go-sqlite3 (cgo, tag sqlite_cgo). See
// build_purego.go and build_cgo.go.
//
// # Migrations
//
// Schema changes are semver-versioned migrations recorded in a
// schema_version table and applied in order on open.
package store
