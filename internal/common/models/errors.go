package models

import "errors"

// Domain error kinds. Services return these wrapped with %w so controllers
// can map them to HTTP statuses in a single place.
var (
	// ErrPermissionDenied is deliberately opaque: it is returned both when the
	// target group does not exist and when the caller lacks the required role,
	// so error variance does not leak group existence.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrCyclicExtension is returned when a group extension would make a group
	// (transitively) extend itself.
	ErrCyclicExtension = errors.New("cyclic group extension")

	// ErrInvalidInvite covers expired, revoked, consumed and malformed invite
	// secrets. Callers cannot distinguish which.
	ErrInvalidInvite = errors.New("invalid invite")

	// ErrCrossIssueReply is returned when a reply names a parent comment that
	// belongs to a different issue.
	ErrCrossIssueReply = errors.New("reply targets a comment on another issue")

	// ErrNotFound is a store-level absence, distinct from denial.
	ErrNotFound = errors.New("not found")

	// ErrTransientStore marks retryable store failures (network, sync). The
	// engine performs no retries itself; retry policy belongs to the caller.
	ErrTransientStore = errors.New("transient store error")
)
