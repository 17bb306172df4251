package domain

import "errors"

// Failure kinds for every external collaborator. Call sites wrap these with
// %w so errors.Is works across package boundaries.
var (
	// ErrMediaAccess: device permission or hardware failure. The call
	// degrades or aborts; the user is notified.
	ErrMediaAccess = errors.New("media access denied")

	// ErrPersistence: store CRUD failure. The operation is abandoned and
	// surfaced; no retry.
	ErrPersistence = errors.New("persistence failure")

	// ErrNotFound: entity absent. Rendered as an empty state, not fatal.
	ErrNotFound = errors.New("not found")

	// ErrAccessDenied: membership or ownership check failed.
	ErrAccessDenied = errors.New("access denied")

	// ErrUpstream: AI completion failure. Converted to a readable fallback
	// message, never propagated to the caller.
	ErrUpstream = errors.New("upstream service failure")
)
