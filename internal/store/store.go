package store

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sproutlearn/sprout/internal/domain"
	bolt "go.etcd.io/bbolt"
)

// Bucket names
var (
	bucketProfiles = []byte("profiles")
	bucketContent  = []byte("content")
)

// Store implements domain.ProfileStore and domain.ContentCache using
// BoltDB, with an in-memory cache for hot-path reads. When the database
// cannot be opened the store runs memory-only for the session: reads and
// writes still work, nothing survives a restart.
type Store struct {
	db *bolt.DB
	mu sync.RWMutex // Protects memory cache

	// In-memory cache for hot-path reads (promoted on access)
	cache map[string][]byte

	// Serializes mutations per device so concurrent attempt writes
	// cannot lose each other's score/attempt updates
	devMu   sync.Mutex
	devices map[string]*sync.Mutex

	now func() time.Time
}

// NewStore opens (or creates) the local database under baseCacheDir,
// namespaced by server URL so switching servers never mixes progress.
// An empty baseCacheDir requests memory-only mode. When persistence
// cannot be set up, the returned store is still usable and the error
// wraps domain.ErrStorageUnavailable so callers can surface the
// degradation without aborting.
func NewStore(baseCacheDir, serverURL string) (*Store, error) {
	s := &Store{
		cache:   make(map[string][]byte),
		devices: make(map[string]*sync.Mutex),
		now:     time.Now,
	}

	if baseCacheDir == "" {
		// Memory-only mode (no persistence)
		return s, nil
	}

	dir := baseCacheDir
	if serverURL != "" {
		dir = filepath.Join(baseCacheDir, hashServerURL(serverURL))
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return s, fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}

	dbPath := filepath.Join(dir, "sprout.db")
	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return s, fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}

	// Create buckets
	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketProfiles, bucketContent} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return s, fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}

	s.db = db
	return s, nil
}

func hashServerURL(serverURL string) string {
	normalized := strings.TrimRight(strings.ToLower(serverURL), "/")
	hash := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(hash[:6])
}

// Persistent reports whether writes survive a restart.
func (s *Store) Persistent() bool { return s.db != nil }

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// deviceLock returns the mutex serializing mutations for one device.
func (s *Store) deviceLock(deviceID string) *sync.Mutex {
	s.devMu.Lock()
	defer s.devMu.Unlock()
	m, ok := s.devices[deviceID]
	if !ok {
		m = &sync.Mutex{}
		s.devices[deviceID] = m
	}
	return m
}

// === Generic helpers ===

func (s *Store) get(bucket []byte, key string, dest interface{}) bool {
	cacheKey := string(bucket) + ":" + key

	// Check memory cache first
	s.mu.RLock()
	if data, ok := s.cache[cacheKey]; ok {
		s.mu.RUnlock()
		return json.Unmarshal(data, dest) == nil
	}
	s.mu.RUnlock()

	if s.db == nil {
		return false
	}

	// Read from BoltDB
	var data []byte
	s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return nil
		}
		if v := b.Get([]byte(key)); v != nil {
			data = make([]byte, len(v))
			copy(data, v)
		}
		return nil
	})

	if data == nil {
		return false
	}

	// Promote to memory cache
	s.mu.Lock()
	s.cache[cacheKey] = data
	s.mu.Unlock()

	return json.Unmarshal(data, dest) == nil
}

func (s *Store) set(bucket []byte, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	cacheKey := string(bucket) + ":" + key

	// Update memory cache
	s.mu.Lock()
	s.cache[cacheKey] = data
	s.mu.Unlock()

	if s.db == nil {
		return nil // Memory-only mode
	}

	// Write to BoltDB
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		return b.Put([]byte(key), data)
	})
}

func (s *Store) deletePrefix(bucket []byte, prefix string) {
	// Clear from memory cache
	s.mu.Lock()
	cachePrefix := string(bucket) + ":" + prefix
	for k := range s.cache {
		if strings.HasPrefix(k, cachePrefix) {
			delete(s.cache, k)
		}
	}
	s.mu.Unlock()

	if s.db == nil {
		return
	}

	// Delete from BoltDB using prefix scan
	s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return nil
		}
		c := b.Cursor()
		prefixBytes := []byte(prefix)
		for k, _ := c.Seek(prefixBytes); k != nil && strings.HasPrefix(string(k), prefix); k, _ = c.Next() {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
}

// === Profiles ===

func (s *Store) Profile(deviceID string) (domain.DeviceProfile, error) {
	var p domain.DeviceProfile
	if !s.get(bucketProfiles, deviceID, &p) {
		return domain.DeviceProfile{}, domain.ErrProfileNotFound
	}
	if p.Entries == nil {
		p.Entries = make(map[int]domain.ProgressEntry)
	}
	return p, nil
}

func (s *Store) SaveProfile(profile domain.DeviceProfile) error {
	lock := s.deviceLock(profile.DeviceID)
	lock.Lock()
	defer lock.Unlock()
	return s.set(bucketProfiles, profile.DeviceID, profile)
}

// UpsertProgress folds a play session into the stored profile under the
// device lock, so two concurrent session writes both land.
func (s *Store) UpsertProgress(deviceID string, entry domain.ProgressEntry) (domain.DeviceProfile, error) {
	lock := s.deviceLock(deviceID)
	lock.Lock()
	defer lock.Unlock()

	p, err := s.Profile(deviceID)
	if err != nil {
		return domain.DeviceProfile{}, err
	}
	p.ApplyAttempt(entry, s.now())
	if err := s.set(bucketProfiles, deviceID, p); err != nil {
		return domain.DeviceProfile{}, err
	}
	return p, nil
}

// ReplaceProgress writes the server's authoritative set back after a
// sync. The reconcile runs against the profile as it is NOW, not the
// snapshot the payload was built from, so entries written while the
// sync was in flight survive and remain unsynced.
func (s *Store) ReplaceProgress(deviceID string, snapshot domain.DeviceProfile, authoritative []domain.ProgressEntry, version int) (domain.DeviceProfile, error) {
	lock := s.deviceLock(deviceID)
	lock.Lock()
	defer lock.Unlock()

	current, err := s.Profile(deviceID)
	if err != nil {
		return domain.DeviceProfile{}, err
	}
	merged := domain.ReconcileAfterSync(current, snapshot, authoritative, version)
	if err := s.set(bucketProfiles, deviceID, merged); err != nil {
		return domain.DeviceProfile{}, err
	}
	return merged, nil
}

// === Content cache ===

func (s *Store) Subjects() ([]domain.Subject, bool) {
	var subjects []domain.Subject
	ok := s.get(bucketContent, "subjects", &subjects)
	return subjects, ok
}

func (s *Store) SaveSubjects(subjects []domain.Subject) error {
	if err := s.set(bucketContent, "subjects", subjects); err != nil {
		return err
	}
	return s.stamp(domain.SectionSubjects)
}

func (s *Store) Levels(subjectSlug string) ([]domain.Level, bool) {
	var levels []domain.Level
	ok := s.get(bucketContent, "subject:"+subjectSlug+":levels", &levels)
	return levels, ok
}

func (s *Store) SaveLevels(subjectSlug string, levels []domain.Level) error {
	if err := s.set(bucketContent, "subject:"+subjectSlug+":levels", levels); err != nil {
		return err
	}
	return s.stamp(domain.SectionLevels)
}

func (s *Store) Level(levelID int) (domain.Level, bool) {
	var level domain.Level
	ok := s.get(bucketContent, "level:"+strconv.Itoa(levelID), &level)
	return level, ok
}

func (s *Store) SaveLevel(level domain.Level) error {
	return s.set(bucketContent, "level:"+strconv.Itoa(level.ID), level)
}

func (s *Store) Avatars() ([]domain.Avatar, bool) {
	var avatars []domain.Avatar
	ok := s.get(bucketContent, "avatars", &avatars)
	return avatars, ok
}

func (s *Store) SaveAvatars(avatars []domain.Avatar) error {
	if err := s.set(bucketContent, "avatars", avatars); err != nil {
		return err
	}
	return s.stamp(domain.SectionAvatars)
}

func (s *Store) Badges() ([]domain.Badge, bool) {
	var badges []domain.Badge
	ok := s.get(bucketContent, "badges", &badges)
	return badges, ok
}

func (s *Store) SaveBadges(badges []domain.Badge) error {
	if err := s.set(bucketContent, "badges", badges); err != nil {
		return err
	}
	return s.stamp(domain.SectionBadges)
}

// stamp records the fetch time for a content section.
func (s *Store) stamp(section string) error {
	return s.set(bucketContent, "ts:"+section, s.now().Unix())
}

// ContentFresh reports whether a section was cached within maxAge. The
// content endpoints expose no change timestamp, so freshness is
// age-based.
func (s *Store) ContentFresh(section string, maxAge time.Duration) bool {
	var fetchedAt int64
	if !s.get(bucketContent, "ts:"+section, &fetchedAt) {
		return false
	}
	return s.now().Sub(time.Unix(fetchedAt, 0)) <= maxAge
}

// InvalidateContent drops all cached content. Profiles are untouched.
func (s *Store) InvalidateContent() {
	s.deletePrefix(bucketContent, "")
}
