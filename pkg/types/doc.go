// Package types provides the shared data model for gitctx history walks.
//
// The types here are created within a single walk call and are immutable
// once emitted. Persistence is the pipeline's responsibility, never the
// walker's.
//
// # Core Types
//
// CommitRecord holds the metadata of one visited commit:
//
//	commit := &types.CommitRecord{
//	    Hash:       "4f0c...",
//	    AuthorName: "Jane Doe",
//	    IsMerge:    false,
//	}
//
// ContentRecord aggregates one unique blob with every (commit, path)
// location it occupies across history. The location list is complete by the
// time the record reaches the caller:
//
//	for _, loc := range record.Locations {
//	    fmt.Println(loc.CommitHash, loc.Path, loc.IsHead)
//	}
//
// Commit fields are denormalized onto every ContentLocation so consumers
// never join back to the commit at query time, at the cost of repeating
// invariant fields per location.
//
// # Walk Reporting
//
// WalkProgress snapshots are delivered to progress callbacks at least once
// per commit. WalkStats is the terminal summary and stays valid at any
// interruption point; recoverable per-item failures accumulate there as
// WalkError values rather than being raised.
package types
