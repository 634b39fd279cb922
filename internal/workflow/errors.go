package workflow

import (
	"errors"
	"fmt"
)

// Sentinel errors callers branch on with errors.Is
var (
	// ErrNotFound indicates an operation named a document the store does
	// not track
	ErrNotFound = errors.New("no entry found")

	// ErrAlreadyReviewed indicates review was called on an entry that has
	// left the needs_review state. Review is the one-time transition out of
	// the unreviewed state; re-scoring happens only through improve.
	ErrAlreadyReviewed = errors.New("entry already reviewed")
)

// IntegrityError indicates an improvement result failed validation and was
// discarded without touching the content file or the database
type IntegrityError struct {
	Path   string
	Reason string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("improvement rejected for %s: %s", e.Path, e.Reason)
}

// IsIntegrityError reports whether err is an integrity rejection
func IsIntegrityError(err error) bool {
	var ie *IntegrityError
	return errors.As(err, &ie)
}
