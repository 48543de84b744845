package compliance

import "errors"

var (
	// ErrNotFound is returned when the backend has no profile for the user.
	ErrNotFound = errors.New("not found")

	ErrRecordNotFound       = errors.New("document record not found")
	ErrInvalidAction        = errors.New("invalid review action")
	ErrTransitionNotAllowed = errors.New("review transition not allowed")
	ErrCommentRequired      = errors.New("a comment is required to reject a document")
	ErrUnsupportedFormat    = errors.New("unsupported export format")
)
