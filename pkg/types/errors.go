package types

import "errors"

// Domain errors for type validation
var (
	ErrEmptyContent    = errors.New("content cannot be empty")
	ErrInvalidHash     = errors.New("invalid content hash")
	ErrInvalidLocation = errors.New("location requires a commit hash and path")
)
