package api

import (
	"time"

	"github.com/sproutlearn/sprout/internal/domain"
)

func mapSubjects(dtos []subjectDTO) []domain.Subject {
	out := make([]domain.Subject, len(dtos))
	for i, d := range dtos {
		out[i] = domain.Subject{
			ID:              d.ID,
			Name:            d.Name,
			Slug:            d.Slug,
			Description:     d.Description,
			Theme:           d.Theme,
			BackgroundColor: d.BackgroundColor,
			AccentColor:     d.AccentColor,
			Order:           d.Order,
			LevelCount:      d.LevelCount,
		}
	}
	return out
}

func mapLevel(d levelDTO) domain.Level {
	lvl := domain.Level{
		ID:                    d.ID,
		SubjectSlug:           d.SubjectSlug,
		Order:                 d.Order,
		Title:                 d.Title,
		StoryText:             d.StoryText,
		ArtworkURL:            d.ArtworkURL,
		RequiredScoreToUnlock: d.RequiredScoreToUnlock,
		MinScoreToPass:        d.MinScoreToPass,
		QuestionCount:         d.QuestionCount,
		TotalPoints:           d.TotalPoints,
	}
	for _, q := range d.Questions {
		lvl.Questions = append(lvl.Questions, domain.Question{
			ID:               q.ID,
			Order:            q.Order,
			Type:             domain.QuestionType(q.QuestionType),
			Title:            q.Title,
			Payload:          q.Payload,
			CorrectAnswer:    q.CorrectAnswer,
			RewardPoints:     q.RewardPoints,
			TimeLimitSeconds: q.TimeLimitSeconds,
			HintText:         q.HintText,
			Explanation:      q.Explanation,
		})
	}
	return lvl
}

func mapLevels(dtos []levelDTO) []domain.Level {
	out := make([]domain.Level, len(dtos))
	for i, d := range dtos {
		out[i] = mapLevel(d)
	}
	return out
}

func mapAvatars(dtos []avatarDTO) []domain.Avatar {
	out := make([]domain.Avatar, len(dtos))
	for i, d := range dtos {
		out[i] = domain.Avatar{
			ID:                d.ID,
			Name:              d.Name,
			Description:       d.Description,
			ImageURL:          d.ImageURL,
			PersonalityTraits: d.PersonalityTraits,
			IsDefault:         d.IsDefault,
		}
	}
	return out
}

func mapBadges(dtos []badgeDTO) []domain.Badge {
	out := make([]domain.Badge, len(dtos))
	for i, d := range dtos {
		out[i] = domain.Badge{
			ID:           d.ID,
			Name:         d.Name,
			Description:  d.Description,
			Type:         d.BadgeType,
			Criteria:     d.Criteria,
			PointsReward: d.PointsReward,
			RarityLevel:  d.RarityLevel,
		}
	}
	return out
}

func mapLeaderboard(dtos []leaderboardEntryDTO) []domain.LeaderboardEntry {
	out := make([]domain.LeaderboardEntry, len(dtos))
	for i, d := range dtos {
		out[i] = domain.LeaderboardEntry{
			AvatarName:      d.AvatarName,
			TotalPoints:     d.TotalPoints,
			LevelsCompleted: d.LevelsCompleted,
			CurrentStreak:   d.CurrentStreak,
			BadgesEarned:    d.BadgesEarned,
			LastActivity:    d.LastActivity,
		}
	}
	return out
}

func mapEntriesToWire(entries []domain.ProgressEntry) []progressEntryDTO {
	out := make([]progressEntryDTO, len(entries))
	for i, e := range entries {
		out[i] = progressEntryDTO{
			LevelID:        e.LevelID,
			Score:          e.Score,
			Attempts:       e.Attempts,
			CompletionTime: e.CompletionTime,
			LastModified:   e.LastModified,
		}
	}
	return out
}

func mapEntriesFromWire(dtos []progressEntryDTO) []domain.ProgressEntry {
	out := make([]domain.ProgressEntry, len(dtos))
	for i, d := range dtos {
		out[i] = domain.ProgressEntry{
			LevelID:        d.LevelID,
			Score:          d.Score,
			Attempts:       d.Attempts,
			CompletionTime: d.CompletionTime,
			LastModified:   d.LastModified,
		}
	}
	return out
}

func mapProfile(d profileDTO) domain.DeviceProfile {
	p := domain.DeviceProfile{
		DeviceID: d.DeviceID,
		AvatarID: d.AvatarID,
		Version:  d.SyncVersion,
		Entries:  make(map[int]domain.ProgressEntry, len(d.ProgressEntries)),
	}
	if d.LastSynced != nil {
		p.LastSynced = *d.LastSynced
		p.LastUpdated = *d.LastSynced
	}
	for _, e := range mapEntriesFromWire(d.ProgressEntries) {
		p.Entries[e.LevelID] = e
	}
	return p
}

func mapEventsToWire(events []domain.SyncEvent) []eventDTO {
	out := make([]eventDTO, len(events))
	for i, ev := range events {
		created := ev.CreatedAt
		if created.IsZero() {
			created = time.Now()
		}
		out[i] = eventDTO{
			EventType: ev.Type,
			EventData: ev.Data,
			CreatedAt: created,
		}
	}
	return out
}
