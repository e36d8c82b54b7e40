package reconcile

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sproutlearn/sprout/internal/adapter"
	"github.com/sproutlearn/sprout/internal/domain"
	"github.com/sproutlearn/sprout/internal/store"
)

// fakeAPI implements domain.ProgressAPI with a server-side merge, call
// counting and switchable reachability.
type fakeAPI struct {
	mu          sync.Mutex
	unreachable bool
	failSync    error
	pings       int
	syncs       int
	progress    map[int]domain.ProgressEntry
	version     int

	// blockCh, when set, holds SyncProgress until released.
	blockCh chan struct{}
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{progress: make(map[int]domain.ProgressEntry), version: 1}
}

func (f *fakeAPI) Ping(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pings++
	if f.unreachable {
		return domain.ErrServerUnreachable
	}
	return nil
}

func (f *fakeAPI) CreateProfile(ctx context.Context, deviceID string, avatarID int) (domain.DeviceProfile, error) {
	return domain.NewDeviceProfile(deviceID, avatarID, time.Now()), nil
}

func (f *fakeAPI) Profile(ctx context.Context, deviceID string) (domain.DeviceProfile, error) {
	return domain.DeviceProfile{}, domain.ErrProfileNotFound
}

func (f *fakeAPI) SyncProgress(ctx context.Context, deviceID string, payload domain.SyncPayload) (domain.SyncResponse, error) {
	f.mu.Lock()
	block := f.blockCh
	f.mu.Unlock()
	if block != nil {
		<-block
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.syncs++
	if f.unreachable {
		return domain.SyncResponse{}, domain.ErrServerUnreachable
	}
	if f.failSync != nil {
		return domain.SyncResponse{}, f.failSync
	}

	now := time.Now()
	result := domain.MergeProgress(f.progress, payload.Entries, payload.Version, f.version, now)
	f.progress = result.Entries
	f.version = result.Version

	entries := make([]domain.ProgressEntry, 0, len(result.Entries))
	for _, e := range result.Entries {
		entries = append(entries, e)
	}
	return domain.SyncResponse{
		Entries:           entries,
		Version:           result.Version,
		SyncedAt:          now,
		ConflictsResolved: result.ConflictsResolved,
	}, nil
}

func (f *fakeAPI) counts() (pings, syncs int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pings, f.syncs
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.NewStore("", "")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func seedProfile(t *testing.T, s *store.Store, deviceID string) domain.DeviceProfile {
	t.Helper()
	require.NoError(t, s.SaveProfile(domain.NewDeviceProfile(deviceID, 1, time.Now())))
	p, err := s.UpsertProgress(deviceID, domain.ProgressEntry{LevelID: 1, Score: 70, Attempts: 1})
	require.NoError(t, err)
	return p
}

func TestSyncPushesAndSettles(t *testing.T) {
	s := newTestStore(t)
	api := newFakeAPI()
	seedProfile(t, s, "dev-1")

	r := NewReconciler(s, api, adapter.NullLogger())

	result, err := r.Sync(context.Background(), "dev-1")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Pushed)
	assert.False(t, result.Offline)

	profile, err := s.Profile("dev-1")
	require.NoError(t, err)
	assert.Empty(t, profile.UnsyncedEntries())
	assert.Equal(t, result.Version, profile.Version)

	status := r.Status("dev-1")
	assert.Equal(t, domain.SyncSynced, status.State)
}

func TestSyncIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	api := newFakeAPI()
	seedProfile(t, s, "dev-1")

	r := NewReconciler(s, api, adapter.NullLogger())

	_, err := r.Sync(context.Background(), "dev-1")
	require.NoError(t, err)
	_, syncsAfterFirst := api.counts()
	assert.Equal(t, 1, syncsAfterFirst)

	// Nothing changed locally: the second sync short-circuits without
	// touching the network at all.
	result, err := r.Sync(context.Background(), "dev-1")
	require.NoError(t, err)
	assert.True(t, result.Skipped)

	pings, syncs := api.counts()
	assert.Equal(t, 1, pings)
	assert.Equal(t, 1, syncs)
}

func TestSyncOfflineLeavesStoreUntouched(t *testing.T) {
	s := newTestStore(t)
	api := newFakeAPI()
	api.unreachable = true
	before := seedProfile(t, s, "dev-1")

	r := NewReconciler(s, api, adapter.NullLogger())

	result, err := r.Sync(context.Background(), "dev-1")
	require.NoError(t, err, "offline is a state, not an error")
	assert.True(t, result.Offline)

	after, err := s.Profile("dev-1")
	require.NoError(t, err)
	assert.Equal(t, before.Entries, after.Entries)
	assert.Equal(t, before.Version, after.Version)
	assert.Len(t, after.UnsyncedEntries(), 1, "data stays queued for retry")

	assert.Equal(t, domain.SyncOffline, r.Status("dev-1").State)
}

func TestSyncServerRejectionKeepsLocalState(t *testing.T) {
	s := newTestStore(t)
	api := newFakeAPI()
	api.failSync = assert.AnError
	seedProfile(t, s, "dev-1")

	r := NewReconciler(s, api, adapter.NullLogger())

	_, err := r.Sync(context.Background(), "dev-1")
	assert.ErrorIs(t, err, domain.ErrSyncFailed)

	after, err := s.Profile("dev-1")
	require.NoError(t, err)
	assert.Len(t, after.UnsyncedEntries(), 1)

	status := r.Status("dev-1")
	assert.Equal(t, domain.SyncError, status.State)
	assert.Error(t, status.Err)
}

func TestConcurrentTriggersAreAbsorbed(t *testing.T) {
	s := newTestStore(t)
	api := newFakeAPI()
	api.blockCh = make(chan struct{})
	seedProfile(t, s, "dev-1")

	r := NewReconciler(s, api, adapter.NullLogger())

	done := make(chan domain.SyncResult, 1)
	go func() {
		res, _ := r.Sync(context.Background(), "dev-1")
		done <- res
	}()

	// Wait until the first sync is in flight (blocked inside the fake).
	require.Eventually(t, func() bool {
		p, _ := api.counts()
		return p == 1
	}, time.Second, 5*time.Millisecond)

	absorbed, err := r.Sync(context.Background(), "dev-1")
	require.NoError(t, err)
	assert.True(t, absorbed.Absorbed, "a trigger during an in-flight sync returns immediately")

	close(api.blockCh)
	first := <-done
	assert.False(t, first.Absorbed)

	// The absorbed trigger produced one follow-up pass at most; with
	// nothing new to push it short-circuits before the network.
	_, syncs := api.counts()
	assert.Equal(t, 1, syncs)
}

func TestStatusTerminalResetsToIdle(t *testing.T) {
	s := newTestStore(t)
	api := newFakeAPI()
	seedProfile(t, s, "dev-1")

	r := NewReconciler(s, api, adapter.NullLogger())
	_, err := r.Sync(context.Background(), "dev-1")
	require.NoError(t, err)

	first := r.Status("dev-1")
	assert.Equal(t, domain.SyncSynced, first.State)

	second := r.Status("dev-1")
	assert.Equal(t, domain.SyncIdle, second.State, "observing a terminal state acknowledges it")
	assert.Equal(t, first.Version, second.Version, "version and sync time survive the reset")
}

func TestNotifyCompletionDebounces(t *testing.T) {
	s := newTestStore(t)
	api := newFakeAPI()
	seedProfile(t, s, "dev-1")

	r := NewReconciler(s, api, adapter.NullLogger())
	r.SetDebounce(30 * time.Millisecond)

	// A burst of completions collapses into one sync.
	r.NotifyCompletion("dev-1")
	r.NotifyCompletion("dev-1")
	r.NotifyCompletion("dev-1")

	require.Eventually(t, func() bool {
		_, syncs := api.counts()
		return syncs == 1
	}, time.Second, 5*time.Millisecond)

	// And it stays at one; no trailing extra syncs fire.
	time.Sleep(100 * time.Millisecond)
	_, syncs := api.counts()
	assert.Equal(t, 1, syncs)
}

type recordingObserver struct {
	mu     sync.Mutex
	states []domain.SyncState
}

func (o *recordingObserver) OnSyncStatus(s domain.SyncStatus) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.states = append(o.states, s.State)
}

func TestObserverSeesStateMachine(t *testing.T) {
	s := newTestStore(t)
	api := newFakeAPI()
	seedProfile(t, s, "dev-1")

	obs := &recordingObserver{}
	r := NewReconciler(s, api, adapter.NullLogger())
	r.SetObserver(obs)

	_, err := r.Sync(context.Background(), "dev-1")
	require.NoError(t, err)

	obs.mu.Lock()
	defer obs.mu.Unlock()
	require.Len(t, obs.states, 2)
	assert.Equal(t, domain.SyncSyncing, obs.states[0])
	assert.Equal(t, domain.SyncSynced, obs.states[1])
}
