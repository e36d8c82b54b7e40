package content

import (
	"context"
	"log/slog"
	"time"

	"github.com/sproutlearn/sprout/internal/domain"
)

// Content sections are considered fresh for this long; the endpoints
// expose no change timestamp to compare against.
const defaultMaxAge = 24 * time.Hour

// PrefetchProgress reports progress during a full content prefetch.
type PrefetchProgress struct {
	Stage   string // "subjects", "levels", "questions", "avatars"
	Subject string // Set during level/question stages
	Loaded  int
	Total   int
	Done    bool
	Error   error
}

// Service serves subjects, levels and avatars offline-first: cached
// content is returned immediately, the server is only consulted on a
// cache miss or an explicit refresh, and a fetch failure falls back to
// whatever the cache holds.
type Service struct {
	cache  domain.ContentCache
	api    domain.ContentAPI
	logger *slog.Logger
	maxAge time.Duration
}

// NewService creates a content service over the local cache and the
// server's content endpoints.
func NewService(cache domain.ContentCache, api domain.ContentAPI, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		cache:  cache,
		api:    api,
		logger: logger,
		maxAge: defaultMaxAge,
	}
}

// Subjects returns all subjects, from cache when fresh.
func (s *Service) Subjects(ctx context.Context) ([]domain.Subject, error) {
	if cached, ok := s.cache.Subjects(); ok && s.cache.ContentFresh(domain.SectionSubjects, s.maxAge) {
		s.logger.Debug("cache hit", "key", "subjects")
		return cached, nil
	}

	subjects, err := s.api.GetSubjects(ctx)
	if err != nil {
		// Stale cache beats no content when the server is away.
		if cached, ok := s.cache.Subjects(); ok {
			s.logger.Info("serving cached subjects, fetch failed", "error", err)
			return cached, nil
		}
		s.logger.Error("failed to get subjects", "error", err)
		return nil, err
	}

	if err := s.cache.SaveSubjects(subjects); err != nil {
		s.logger.Warn("failed to cache subjects", "error", err)
	}
	s.logger.Info("loaded subjects", "count", len(subjects))
	return subjects, nil
}

// Subject returns one subject by slug.
func (s *Service) Subject(ctx context.Context, slug string) (domain.Subject, error) {
	subjects, err := s.Subjects(ctx)
	if err != nil {
		return domain.Subject{}, err
	}
	for _, sub := range subjects {
		if sub.Slug == slug {
			return sub, nil
		}
	}
	return domain.Subject{}, domain.ErrSubjectNotFound
}

// Levels returns a subject's levels (without questions), from cache
// when available.
func (s *Service) Levels(ctx context.Context, subjectSlug string) ([]domain.Level, error) {
	if cached, ok := s.cache.Levels(subjectSlug); ok && s.cache.ContentFresh(domain.SectionLevels, s.maxAge) {
		s.logger.Debug("cache hit", "key", "levels:"+subjectSlug)
		return cached, nil
	}

	levels, err := s.api.GetLevels(ctx, subjectSlug)
	if err != nil {
		if cached, ok := s.cache.Levels(subjectSlug); ok {
			s.logger.Info("serving cached levels, fetch failed", "subject", subjectSlug, "error", err)
			return cached, nil
		}
		s.logger.Error("failed to get levels", "subject", subjectSlug, "error", err)
		return nil, err
	}

	if err := s.cache.SaveLevels(subjectSlug, levels); err != nil {
		s.logger.Warn("failed to cache levels", "subject", subjectSlug, "error", err)
	}
	s.logger.Info("loaded levels", "subject", subjectSlug, "count", len(levels))
	return levels, nil
}

// Level returns a level with its questions, suitable for playing
// offline once cached.
func (s *Service) Level(ctx context.Context, levelID int) (domain.Level, error) {
	if cached, ok := s.cache.Level(levelID); ok && cached.HasQuestions() {
		s.logger.Debug("cache hit", "key", "level", "id", levelID)
		return cached, nil
	}

	level, err := s.api.GetLevel(ctx, levelID)
	if err != nil {
		if cached, ok := s.cache.Level(levelID); ok && cached.HasQuestions() {
			return cached, nil
		}
		s.logger.Error("failed to get level", "id", levelID, "error", err)
		return domain.Level{}, err
	}

	if err := s.cache.SaveLevel(level); err != nil {
		s.logger.Warn("failed to cache level", "id", levelID, "error", err)
	}
	return level, nil
}

// Avatars returns the selectable avatar characters.
func (s *Service) Avatars(ctx context.Context) ([]domain.Avatar, error) {
	if cached, ok := s.cache.Avatars(); ok && s.cache.ContentFresh(domain.SectionAvatars, s.maxAge) {
		s.logger.Debug("cache hit", "key", "avatars")
		return cached, nil
	}

	avatars, err := s.api.GetAvatars(ctx)
	if err != nil {
		if cached, ok := s.cache.Avatars(); ok {
			return cached, nil
		}
		s.logger.Error("failed to get avatars", "error", err)
		return nil, err
	}

	if err := s.cache.SaveAvatars(avatars); err != nil {
		s.logger.Warn("failed to cache avatars", "error", err)
	}
	return avatars, nil
}

// Badges returns the earnable achievements, from cache when fresh.
func (s *Service) Badges(ctx context.Context) ([]domain.Badge, error) {
	if cached, ok := s.cache.Badges(); ok && s.cache.ContentFresh(domain.SectionBadges, s.maxAge) {
		s.logger.Debug("cache hit", "key", "badges")
		return cached, nil
	}

	badges, err := s.api.GetBadges(ctx)
	if err != nil {
		if cached, ok := s.cache.Badges(); ok {
			return cached, nil
		}
		s.logger.Error("failed to get badges", "error", err)
		return nil, err
	}

	if err := s.cache.SaveBadges(badges); err != nil {
		s.logger.Warn("failed to cache badges", "error", err)
	}
	return badges, nil
}

// Leaderboard is online-only; standings change too often to cache.
func (s *Service) Leaderboard(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	return s.api.GetLeaderboard(ctx, limit)
}

// Prefetch pulls the full content tree into the cache so every level is
// playable offline. Progress updates go to the channel, which is closed
// when the prefetch completes or aborts.
func (s *Service) Prefetch(ctx context.Context, progressCh chan<- PrefetchProgress) {
	defer close(progressCh)

	subjects, err := s.api.GetSubjects(ctx)
	if err != nil {
		progressCh <- PrefetchProgress{Stage: "subjects", Error: err}
		return
	}
	if err := s.cache.SaveSubjects(subjects); err != nil {
		s.logger.Warn("failed to cache subjects", "error", err)
	}
	progressCh <- PrefetchProgress{Stage: "subjects", Loaded: len(subjects), Total: len(subjects)}

	for _, sub := range subjects {
		levels, err := s.api.GetLevels(ctx, sub.Slug)
		if err != nil {
			progressCh <- PrefetchProgress{Stage: "levels", Subject: sub.Slug, Error: err}
			return
		}
		if err := s.cache.SaveLevels(sub.Slug, levels); err != nil {
			s.logger.Warn("failed to cache levels", "subject", sub.Slug, "error", err)
		}

		for i, lvl := range levels {
			detail, err := s.api.GetLevel(ctx, lvl.ID)
			if err != nil {
				progressCh <- PrefetchProgress{Stage: "questions", Subject: sub.Slug, Error: err}
				return
			}
			if err := s.cache.SaveLevel(detail); err != nil {
				s.logger.Warn("failed to cache level", "id", lvl.ID, "error", err)
			}
			progressCh <- PrefetchProgress{
				Stage:   "questions",
				Subject: sub.Slug,
				Loaded:  i + 1,
				Total:   len(levels),
			}
		}
	}

	avatars, err := s.api.GetAvatars(ctx)
	if err != nil {
		progressCh <- PrefetchProgress{Stage: "avatars", Error: err}
		return
	}
	if err := s.cache.SaveAvatars(avatars); err != nil {
		s.logger.Warn("failed to cache avatars", "error", err)
	}

	if badges, err := s.api.GetBadges(ctx); err == nil {
		if err := s.cache.SaveBadges(badges); err != nil {
			s.logger.Warn("failed to cache badges", "error", err)
		}
	}

	s.logger.Info("content prefetch complete", "subjects", len(subjects))
	progressCh <- PrefetchProgress{Stage: "avatars", Loaded: len(avatars), Total: len(avatars), Done: true}
}

// Refresh drops cached content so the next read refetches.
func (s *Service) Refresh() {
	s.cache.InvalidateContent()
	s.logger.Info("content cache invalidated")
}
