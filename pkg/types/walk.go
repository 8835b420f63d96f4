package types

// ErrorCategory classifies a recoverable per-item walk failure.
type ErrorCategory string

const (
	ErrorCommitRead ErrorCategory = "commit_read"
	ErrorTreeRead   ErrorCategory = "tree_read"
	ErrorBlobRead   ErrorCategory = "blob_read"
)

// WalkError describes a single recoverable failure observed mid-walk.
// Walk errors accumulate in WalkStats; they are never raised.
type WalkError struct {
	Category    ErrorCategory
	ContentHash string // optional: the blob involved, if known
	CommitHash  string
	Message     string
}

// WalkProgress is a point-in-time snapshot reported to progress callbacks.
// CommitsSeen is monotonically non-decreasing within one walk. TotalCommits
// is nil when the commit count is unknown, which is the usual case mid-walk.
type WalkProgress struct {
	CommitsSeen   int
	TotalCommits  *int
	UniqueContent int
	CurrentCommit string
}

// WalkStats summarizes a walk. It is valid at any interruption point: a
// caller that stops pulling can still report what was processed so far.
type WalkStats struct {
	CommitsSeen     int
	ContentAccepted int
	ContentSkipped  int
	Errors          []WalkError
}

// AddError appends a recoverable error to the stats.
func (s *WalkStats) AddError(category ErrorCategory, commitHash, contentHash, message string) {
	s.Errors = append(s.Errors, WalkError{
		Category:    category,
		ContentHash: contentHash,
		CommitHash:  commitHash,
		Message:     message,
	})
}
