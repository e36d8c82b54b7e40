package domain

import "time"

// ProfileStore is the durable device-local store for profiles and their
// progress. Writes for a given device are serialized: a second mutation
// waits for the prior one, so the additive score/attempts rules never
// lose updates.
type ProfileStore interface {
	// Profile returns the stored profile, or ErrProfileNotFound.
	Profile(deviceID string) (DeviceProfile, error)

	// SaveProfile inserts or replaces a profile wholesale.
	SaveProfile(profile DeviceProfile) error

	// UpsertProgress folds a play session into the device's entry for the
	// level (max score, additive attempts), bumps the profile version and
	// stamps LastUpdated. Returns the updated profile.
	UpsertProgress(deviceID string, entry ProgressEntry) (DeviceProfile, error)

	// ReplaceProgress writes the server's authoritative set back after a
	// successful sync. snapshot is the profile the payload was built from;
	// entries written during the flight survive and stay unsynced.
	ReplaceProgress(deviceID string, snapshot DeviceProfile, authoritative []ProgressEntry, version int) (DeviceProfile, error)

	Close() error
}

// ContentCache is the offline copy of served content. Reads return
// (value, ok); a false ok means the section was never cached or has been
// invalidated.
type ContentCache interface {
	Subjects() ([]Subject, bool)
	SaveSubjects(subjects []Subject) error

	Levels(subjectSlug string) ([]Level, bool)
	SaveLevels(subjectSlug string, levels []Level) error

	// Level detail including questions, cached for offline play.
	Level(levelID int) (Level, bool)
	SaveLevel(level Level) error

	Avatars() ([]Avatar, bool)
	SaveAvatars(avatars []Avatar) error

	Badges() ([]Badge, bool)
	SaveBadges(badges []Badge) error

	// ContentFresh reports whether the section was cached within maxAge.
	// The content endpoints expose no change timestamp, so freshness is
	// age-based rather than server-stamped.
	ContentFresh(section string, maxAge time.Duration) bool

	InvalidateContent()
}

// Cache sections for freshness checks.
const (
	SectionSubjects = "subjects"
	SectionLevels   = "levels"
	SectionAvatars  = "avatars"
	SectionBadges   = "badges"
)
