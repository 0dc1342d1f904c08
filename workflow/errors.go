package workflow

import "errors"

// Classified failures surfaced by the approval engine. Handlers map these to
// HTTP statuses; raw storage errors never cross the boundary uninterpreted.
var (
	// ErrNotFound: the request does not exist.
	ErrNotFound = errors.New("certification request not found")

	// ErrInvalidState: the request is not pending. Also returned when a
	// concurrent approval won the transition race first.
	ErrInvalidState = errors.New("certification request is not pending")

	// ErrConflict: a uniqueness constraint was violated while creating the
	// certification.
	ErrConflict = errors.New("certification already exists for this request")

	// ErrStorage: the underlying store failed; the request was rolled back
	// to pending.
	ErrStorage = errors.New("storage error during approval")

	// ErrRollbackFailed: the certification insert failed AND the attempt to
	// revert the request to pending also failed, leaving the request
	// approved with no certification. Requires operator attention.
	ErrRollbackFailed = errors.New("failed to roll back approval after storage error")
)
