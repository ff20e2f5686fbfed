package revision

import "errors"

var (
	// ErrUnknownRevision indicates that a revision identifier is not present
	// in the store.
	ErrUnknownRevision = errors.New("unknown revision")

	// ErrDuplicateRevision indicates that two revisions share an identifier.
	ErrDuplicateRevision = errors.New("duplicate revision id")

	// ErrInvalidGraph indicates that the revision set does not form a valid
	// history: dangling predecessors, cycles, or more than one root.
	ErrInvalidGraph = errors.New("invalid revision graph")
)
