package domain

import "context"

// ProgressAPI is the server-side progress endpoint consumed by the
// reconciler. Connection failures surface as ErrServerUnreachable.
type ProgressAPI interface {
	// Ping probes reachability without touching any state.
	Ping(ctx context.Context) error

	// CreateProfile registers a device with its chosen avatar.
	CreateProfile(ctx context.Context, deviceID string, avatarID int) (DeviceProfile, error)

	// Profile fetches the server-held profile for a device.
	Profile(ctx context.Context, deviceID string) (DeviceProfile, error)

	// SyncProgress submits a payload and returns the authoritative merged
	// set with a new version. Error responses leave local state unchanged.
	SyncProgress(ctx context.Context, deviceID string, payload SyncPayload) (SyncResponse, error)
}

// ContentAPI is the read-only content delivery surface, cached locally
// for offline play.
type ContentAPI interface {
	GetSubjects(ctx context.Context) ([]Subject, error)
	GetLevels(ctx context.Context, subjectSlug string) ([]Level, error)

	// GetLevel includes the level's questions for offline caching.
	GetLevel(ctx context.Context, levelID int) (Level, error)

	GetAvatars(ctx context.Context) ([]Avatar, error)
	GetBadges(ctx context.Context) ([]Badge, error)
	GetLeaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error)

	// PushEvents queues offline actions (level completions, badge earns)
	// for asynchronous processing.
	PushEvents(ctx context.Context, deviceID string, events []SyncEvent) error
}
