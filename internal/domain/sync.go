package domain

import "time"

// SyncState is the observable state of the reconciler for one device.
// Transitions: idle -> syncing -> {synced, offline, error}; a terminal
// state returns to idle once a caller observes it.
type SyncState int

const (
	SyncIdle SyncState = iota
	SyncSyncing
	SyncSynced
	SyncOffline
	SyncError
)

// String returns a human-readable representation of the sync state.
func (s SyncState) String() string {
	switch s {
	case SyncIdle:
		return "idle"
	case SyncSyncing:
		return "syncing"
	case SyncSynced:
		return "synced"
	case SyncOffline:
		return "offline"
	case SyncError:
		return "error"
	default:
		return "unknown"
	}
}

// Terminal reports whether the state ends a sync attempt.
func (s SyncState) Terminal() bool {
	return s == SyncSynced || s == SyncOffline || s == SyncError
}

// SyncStatus is a snapshot of the reconciler's state for one device,
// suitable for a non-blocking status indicator.
type SyncStatus struct {
	DeviceID   string
	State      SyncState
	Version    int       // Profile version after the last successful sync
	LastSynced time.Time // Zero until the first successful sync
	Pending    int       // Unsynced entries at the last observation
	Err        error     // Set when State is SyncError
}

// SyncObserver receives status updates as the reconciler moves through
// its states. Implementations must not block.
type SyncObserver interface {
	OnSyncStatus(status SyncStatus)
}

// NoOpObserver discards status updates.
type NoOpObserver struct{}

func (NoOpObserver) OnSyncStatus(SyncStatus) {}

// SyncResult summarizes one sync attempt.
type SyncResult struct {
	Absorbed  bool // Trigger coalesced into a sync already in flight
	Offline   bool // Reachability probe failed; nothing was sent
	Skipped   bool // Empty payload short-circuit; nothing was sent
	Pushed    int  // Entries included in the outbound payload
	Conflicts int  // Field-level merges the server performed
	Version   int  // Authoritative version after the sync
}

// SyncPayload is the batch sent to the progress endpoint: every entry
// modified since the last successful sync, plus the profile's version
// and last-updated stamp.
type SyncPayload struct {
	Entries     []ProgressEntry
	Version     int
	LastUpdated time.Time
}

// SyncResponse is the server's authoritative answer to a payload.
type SyncResponse struct {
	Entries           []ProgressEntry
	Version           int
	SyncedAt          time.Time
	ConflictsResolved int
}
