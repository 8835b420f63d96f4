package types

import (
	"errors"
	"time"
)

// CommitRecord holds the metadata of one commit visited during a walk.
// It is created once per unique commit and never modified afterwards.
type CommitRecord struct {
	Hash        string
	AuthorName  string
	AuthorEmail string
	Timestamp   time.Time // committer timestamp, the time used for traversal ordering
	Message     string
	IsMerge     bool // true iff the commit has two or more parents
}

// ContentLocation records one (commit, path) pair at which a content hash
// was observed. Commit fields are denormalized onto every location so
// downstream consumers never need a join back to the commit.
type ContentLocation struct {
	CommitHash string
	Path       string
	IsHead     bool // content hash is present in the ref tip's tree

	// Denormalized copies of the owning CommitRecord.
	AuthorName      string
	AuthorEmail     string
	CommitTimestamp time.Time
	CommitMessage   string
	IsMerge         bool
}

// NewContentLocation builds a location for path at commit, copying the
// commit's fields onto the location.
func NewContentLocation(commit *CommitRecord, path string, isHead bool) ContentLocation {
	return ContentLocation{
		CommitHash:      commit.Hash,
		Path:            path,
		IsHead:          isHead,
		AuthorName:      commit.AuthorName,
		AuthorEmail:     commit.AuthorEmail,
		CommitTimestamp: commit.Timestamp,
		CommitMessage:   commit.Message,
		IsMerge:         commit.IsMerge,
	}
}

// ContentRecord aggregates one unique blob's content with every location it
// occupies across the walked history. A walk emits at most one ContentRecord
// per content hash, and the location list is complete by the time the record
// is handed to the caller.
type ContentRecord struct {
	Hash      string // hex blob hash; identical bytes anywhere in history share one hash
	Content   []byte
	Size      int64
	Locations []ContentLocation
}

// Validate checks structural invariants on an emitted record.
func (r *ContentRecord) Validate() error {
	if r.Hash == "" {
		return errors.New("content record requires a hash")
	}
	if len(r.Locations) == 0 {
		return errors.New("content record requires at least one location")
	}
	if r.Size != int64(len(r.Content)) {
		return errors.New("content record size does not match content length")
	}
	return nil
}

// HeadLocations returns the subset of locations still present at the ref tip.
func (r *ContentRecord) HeadLocations() []ContentLocation {
	locs := make([]ContentLocation, 0)
	for _, loc := range r.Locations {
		if loc.IsHead {
			locs = append(locs, loc)
		}
	}
	return locs
}
