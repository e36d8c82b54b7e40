package domain

import (
	"sort"
	"time"
)

// ProgressEntry is the per-level progress record. One entry exists per
// (device profile, level) pair.
type ProgressEntry struct {
	LevelID        int
	Score          int // Best score, 0-100
	Attempts       int // Play sessions accumulated since the entry was created
	CompletionTime int // Seconds, most recent completion sample
	LastModified   time.Time
}

// DeviceProfile is a device-local play context: chosen avatar plus
// progress. No user accounts are involved; the device ID is the identity.
type DeviceProfile struct {
	DeviceID    string
	AvatarID    int
	Version     int       // Monotonic counter, bumped on every local mutation
	LastUpdated time.Time // Stamp of the latest local mutation
	LastSynced  time.Time // Zero until the first successful sync
	Entries     map[int]ProgressEntry
}

// NewDeviceProfile creates an empty profile for a device.
func NewDeviceProfile(deviceID string, avatarID int, now time.Time) DeviceProfile {
	return DeviceProfile{
		DeviceID:    deviceID,
		AvatarID:    avatarID,
		Version:     1,
		LastUpdated: now,
		Entries:     make(map[int]ProgressEntry),
	}
}

// Entry returns the progress record for a level.
func (p DeviceProfile) Entry(levelID int) (ProgressEntry, bool) {
	e, ok := p.Entries[levelID]
	return e, ok
}

// TotalPoints sums the best scores across all levels.
func (p DeviceProfile) TotalPoints() int {
	total := 0
	for _, e := range p.Entries {
		total += e.Score
	}
	return total
}

// CompletedLevels counts levels with at least one recorded completion.
func (p DeviceProfile) CompletedLevels() int { return len(p.Entries) }

// UnsyncedEntries returns the entries modified since the last successful
// sync, ordered by level ID. Entries are already coalesced per level by
// the map's uniqueness, so a burst of completions contributes one entry.
func (p DeviceProfile) UnsyncedEntries() []ProgressEntry {
	var out []ProgressEntry
	for _, e := range p.Entries {
		if e.LastModified.After(p.LastSynced) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LevelID < out[j].LevelID })
	return out
}

// ApplyAttempt folds a new play session into the profile: best score is
// the max of old and new, attempts are additive (independent sessions),
// and the completion time takes the newer sample. Every call bumps the
// version counter and stamps LastUpdated.
func (p *DeviceProfile) ApplyAttempt(e ProgressEntry, now time.Time) {
	if p.Entries == nil {
		p.Entries = make(map[int]ProgressEntry)
	}
	existing, ok := p.Entries[e.LevelID]
	if ok {
		if existing.Score > e.Score {
			e.Score = existing.Score
		}
		e.Attempts += existing.Attempts
	}
	e.LastModified = now
	p.Entries[e.LevelID] = e
	p.Version++
	p.LastUpdated = now
}

// AdoptAuthoritative replaces local entries with the server's merged set
// after a successful sync and records the new version and sync time.
// Adopted entries are stamped with the local sync time rather than the
// server's clock, so they compare as synced against LastSynced.
func (p *DeviceProfile) AdoptAuthoritative(entries []ProgressEntry, version int, syncedAt time.Time) {
	merged := make(map[int]ProgressEntry, len(entries))
	for _, e := range entries {
		e.LastModified = syncedAt
		merged[e.LevelID] = e
	}
	p.Entries = merged
	p.Version = version
	p.LastSynced = syncedAt
	p.LastUpdated = syncedAt
}

// Clone returns a deep copy, so callers can mutate without aliasing the
// store's cached value.
func (p DeviceProfile) Clone() DeviceProfile {
	out := p
	out.Entries = make(map[int]ProgressEntry, len(p.Entries))
	for k, v := range p.Entries {
		out.Entries[k] = v
	}
	return out
}
