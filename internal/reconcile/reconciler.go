package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sproutlearn/sprout/internal/domain"
)

const defaultDebounce = 2 * time.Second

// Reconciler pushes locally accumulated progress to the learning server
// and folds the authoritative response back into the local store.
//
// Per device the state machine runs idle -> syncing -> {synced, offline,
// error}, with at most one sync in flight. Triggers that arrive while a
// sync is running are absorbed into a single follow-up pass, so a burst
// of level completions produces at most two round trips.
type Reconciler struct {
	store    domain.ProfileStore
	api      domain.ProgressAPI
	logger   *slog.Logger
	observer domain.SyncObserver
	debounce time.Duration

	mu       sync.Mutex
	inFlight map[string]bool
	pending  map[string]bool
	status   map[string]domain.SyncStatus
	timers   map[string]*time.Timer
}

// NewReconciler creates a reconciler over the local store and the
// server's progress endpoint.
func NewReconciler(store domain.ProfileStore, api domain.ProgressAPI, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{
		store:    store,
		api:      api,
		logger:   logger,
		observer: domain.NoOpObserver{},
		debounce: defaultDebounce,
		inFlight: make(map[string]bool),
		pending:  make(map[string]bool),
		status:   make(map[string]domain.SyncStatus),
		timers:   make(map[string]*time.Timer),
	}
}

// SetObserver registers a status listener. Must be called before syncs
// start.
func (r *Reconciler) SetObserver(obs domain.SyncObserver) {
	if obs == nil {
		obs = domain.NoOpObserver{}
	}
	r.observer = obs
}

// SetDebounce overrides the completion-trigger debounce window.
func (r *Reconciler) SetDebounce(d time.Duration) {
	if d > 0 {
		r.debounce = d
	}
}

// Sync runs one sync attempt for the device, blocking until it settles.
// If a sync for the device is already in flight the call is absorbed:
// it returns immediately and the running sync performs a follow-up pass
// once it completes, picking up whatever prompted this trigger.
func (r *Reconciler) Sync(ctx context.Context, deviceID string) (domain.SyncResult, error) {
	r.mu.Lock()
	if r.inFlight[deviceID] {
		r.pending[deviceID] = true
		r.mu.Unlock()
		return domain.SyncResult{Absorbed: true}, nil
	}
	r.inFlight[deviceID] = true
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		delete(r.inFlight, deviceID)
		r.mu.Unlock()
	}()

	var (
		result domain.SyncResult
		err    error
	)
	for {
		result, err = r.syncOnce(ctx, deviceID)

		r.mu.Lock()
		followUp := r.pending[deviceID]
		delete(r.pending, deviceID)
		r.mu.Unlock()

		// A failed or offline pass keeps the data queued locally; the
		// absorbed trigger has nothing new to gain from retrying now.
		if !followUp || err != nil || result.Offline {
			break
		}
	}
	return result, err
}

// syncOnce performs a single pass: snapshot, short-circuit, probe, push,
// write back.
func (r *Reconciler) syncOnce(ctx context.Context, deviceID string) (domain.SyncResult, error) {
	r.setStatus(deviceID, domain.SyncStatus{DeviceID: deviceID, State: domain.SyncSyncing})

	snapshot, err := r.store.Profile(deviceID)
	if err != nil {
		r.setStatus(deviceID, domain.SyncStatus{DeviceID: deviceID, State: domain.SyncError, Err: err})
		return domain.SyncResult{}, err
	}

	entries := snapshot.UnsyncedEntries()
	if len(entries) == 0 {
		// Nothing to push; no network traffic at all.
		r.setStatus(deviceID, domain.SyncStatus{
			DeviceID:   deviceID,
			State:      domain.SyncSynced,
			Version:    snapshot.Version,
			LastSynced: snapshot.LastSynced,
		})
		return domain.SyncResult{Skipped: true, Version: snapshot.Version}, nil
	}

	if err := r.api.Ping(ctx); err != nil {
		r.logger.Info("server unreachable, staying offline", "device", deviceID, "pending", len(entries))
		r.setStatus(deviceID, domain.SyncStatus{
			DeviceID:   deviceID,
			State:      domain.SyncOffline,
			Version:    snapshot.Version,
			LastSynced: snapshot.LastSynced,
			Pending:    len(entries),
		})
		return domain.SyncResult{Offline: true, Pushed: 0, Version: snapshot.Version}, nil
	}

	resp, err := r.api.SyncProgress(ctx, deviceID, domain.SyncPayload{
		Entries:     entries,
		Version:     snapshot.Version,
		LastUpdated: snapshot.LastUpdated,
	})
	if err != nil {
		if errors.Is(err, domain.ErrServerUnreachable) {
			// Connection dropped mid-flight; treat like the probe failing.
			r.setStatus(deviceID, domain.SyncStatus{
				DeviceID:   deviceID,
				State:      domain.SyncOffline,
				Version:    snapshot.Version,
				LastSynced: snapshot.LastSynced,
				Pending:    len(entries),
			})
			return domain.SyncResult{Offline: true, Version: snapshot.Version}, nil
		}
		r.logger.Error("sync rejected", "device", deviceID, "error", err)
		r.setStatus(deviceID, domain.SyncStatus{
			DeviceID:   deviceID,
			State:      domain.SyncError,
			Version:    snapshot.Version,
			LastSynced: snapshot.LastSynced,
			Pending:    len(entries),
			Err:        err,
		})
		return domain.SyncResult{}, fmt.Errorf("%w: %v", domain.ErrSyncFailed, err)
	}

	merged, err := r.store.ReplaceProgress(deviceID, snapshot, resp.Entries, resp.Version)
	if err != nil {
		r.setStatus(deviceID, domain.SyncStatus{DeviceID: deviceID, State: domain.SyncError, Err: err})
		return domain.SyncResult{}, err
	}

	r.logger.Info("progress synced",
		"device", deviceID,
		"pushed", len(entries),
		"conflicts", resp.ConflictsResolved,
		"version", merged.Version)

	r.setStatus(deviceID, domain.SyncStatus{
		DeviceID:   deviceID,
		State:      domain.SyncSynced,
		Version:    merged.Version,
		LastSynced: merged.LastSynced,
		Pending:    len(merged.UnsyncedEntries()),
	})
	return domain.SyncResult{
		Pushed:    len(entries),
		Conflicts: resp.ConflictsResolved,
		Version:   merged.Version,
	}, nil
}

// TriggerSync starts a sync in the background. Errors are logged, not
// returned; the status surface carries the outcome.
func (r *Reconciler) TriggerSync(deviceID string) {
	go func() {
		if _, err := r.Sync(context.Background(), deviceID); err != nil {
			r.logger.Warn("background sync failed", "device", deviceID, "error", err)
		}
	}()
}

// NotifyCompletion schedules a sync after the debounce window. Repeated
// calls within the window collapse into a single sync, so finishing
// several levels back to back sends one batch.
func (r *Reconciler) NotifyCompletion(deviceID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.timers[deviceID]; ok {
		t.Stop()
	}
	r.timers[deviceID] = time.AfterFunc(r.debounce, func() {
		r.mu.Lock()
		delete(r.timers, deviceID)
		r.mu.Unlock()
		r.TriggerSync(deviceID)
	})
}

// Status returns the current sync status for a device. Observing a
// terminal state acknowledges it: the next call reports idle unless a
// new sync has started.
func (r *Reconciler) Status(deviceID string) domain.SyncStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.status[deviceID]
	if !ok {
		return domain.SyncStatus{DeviceID: deviceID, State: domain.SyncIdle}
	}
	if s.State.Terminal() {
		next := s
		next.State = domain.SyncIdle
		next.Err = nil
		r.status[deviceID] = next
	}
	return s
}

// Stop cancels pending debounce timers.
func (r *Reconciler) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, t := range r.timers {
		t.Stop()
		delete(r.timers, id)
	}
}

func (r *Reconciler) setStatus(deviceID string, s domain.SyncStatus) {
	r.mu.Lock()
	r.status[deviceID] = s
	r.mu.Unlock()
	r.observer.OnSyncStatus(s)
}
