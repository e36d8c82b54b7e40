package domain

import "errors"

// Sentinel errors for domain operations
var (
	// ErrProfileNotFound indicates no profile exists for the device
	ErrProfileNotFound = errors.New("device profile not found")

	// ErrStorageUnavailable indicates local persistence could not be
	// reached; callers degrade to memory-only operation for the session
	ErrStorageUnavailable = errors.New("local storage is unavailable")

	// ErrServerUnreachable indicates the learning server cannot be reached
	ErrServerUnreachable = errors.New("learning server is unreachable")

	// ErrSyncFailed indicates the server rejected a sync or the transport
	// failed mid-flight; local unsynced data is kept for retry
	ErrSyncFailed = errors.New("progress sync failed")

	// ErrSubjectNotFound indicates the requested subject does not exist
	ErrSubjectNotFound = errors.New("subject not found")

	// ErrLevelNotFound indicates the requested level does not exist
	ErrLevelNotFound = errors.New("level not found")

	// ErrContentNotCached indicates an offline read found no cached copy
	ErrContentNotCached = errors.New("content not cached for offline use")
)
