package migrate

import (
	"errors"
	"fmt"

	"github.com/example/schemakit/internal/revision"
)

var (
	// ErrUnknownRevision indicates that the migration target is not present
	// in the revision store. Reported before any mutation; not retried.
	ErrUnknownRevision = revision.ErrUnknownRevision

	// ErrAmbiguousHistory indicates that more than one path exists between
	// the current revision and the target without an explicit merge
	// revision. Requires operator intervention; never auto-resolved.
	ErrAmbiguousHistory = errors.New("ambiguous revision history")

	// ErrStepFailed indicates that a revision's apply or revert step failed.
	// The enclosing transaction was rolled back and the plan abandoned.
	ErrStepFailed = errors.New("migration step failed")

	// ErrMarkerWriteUncertain indicates that a step's transaction failed at
	// commit, after the schema change and marker update were both issued.
	// The step's success state is unknown; the operator must inspect and
	// reconcile before retrying.
	ErrMarkerWriteUncertain = errors.New("schema marker state uncertain")
)

// StepError reports a failed migration step together with the revision the
// schema is still at, so the operator can resume deterministically.
type StepError struct {
	RevisionID string    // revision whose step failed
	Direction  Direction // direction being executed
	Current    string    // last successfully committed revision (Base if none)
	Err        error
}

// Error implements the error interface.
func (e *StepError) Error() string {
	current := e.Current
	if current == revision.Base {
		current = "<base>"
	}
	return fmt.Sprintf("revision %s (%s): %v (schema is at %s)", e.RevisionID, e.Direction, e.Err, current)
}

// Unwrap returns the underlying error.
func (e *StepError) Unwrap() error {
	return e.Err
}
