package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// QuestionType distinguishes the interaction styles a question can use.
type QuestionType string

const (
	QuestionMultipleChoice QuestionType = "multiple_choice"
	QuestionTrueFalse      QuestionType = "true_false"
	QuestionDragDrop       QuestionType = "drag_drop"
	QuestionAudioChoice    QuestionType = "audio_choice"
	QuestionImageChoice    QuestionType = "image_choice"
	QuestionFillBlank      QuestionType = "fill_blank"
)

// Subject is a learning subject with its adventure theme.
type Subject struct {
	ID              int    // Server identifier
	Name            string // Display name
	Slug            string // URL-safe identifier, stable across renames
	Description     string
	Theme           string // "science", "math", "language", "general_knowledge"
	BackgroundColor string // Hex color
	AccentColor     string // Hex color
	Order           int    // Display order
	LevelCount      int    // Active levels in this subject
}

// ThemeTitle returns the adventure name shown for the subject's theme.
func (s Subject) ThemeTitle() string {
	switch s.Theme {
	case "science":
		return "Plant Growth Adventure"
	case "math":
		return "Mountain Trail Journey"
	case "language":
		return "Storybook Adventure"
	case "general_knowledge":
		return "World Map Explorer"
	default:
		return s.Name
	}
}

// Level is one step on a subject's adventure path.
type Level struct {
	ID                    int
	SubjectSlug           string
	Order                 int // Position within the subject (1, 2, 3...)
	Title                 string
	StoryText             string // Shown when the level starts
	ArtworkURL            string
	RequiredScoreToUnlock int // Points needed from earlier levels
	MinScoreToPass        int // Minimum score percentage to pass
	QuestionCount         int
	TotalPoints           int        // Maximum points achievable
	Questions             []Question // Populated by the detail endpoint for offline play
}

// HasQuestions reports whether the level detail (with questions) is loaded.
func (l Level) HasQuestions() bool { return len(l.Questions) > 0 }

// PointsPossible returns the maximum reward points for the level.
func (l Level) PointsPossible() int {
	if !l.HasQuestions() {
		return l.TotalPoints
	}
	total := 0
	for _, q := range l.Questions {
		total += q.RewardPoints
	}
	return total
}

// DisplayTitle returns the formatted level heading (e.g., "Level 3: Fractions").
func (l Level) DisplayTitle() string {
	return fmt.Sprintf("Level %d: %s", l.Order, l.Title)
}

// Question is a single prompt within a level.
type Question struct {
	ID               int
	Order            int
	Type             QuestionType
	Title            string
	Payload          map[string]any  // Type-specific content (choices, items, audio URL)
	CorrectAnswer    json.RawMessage // Format depends on Type
	RewardPoints     int
	TimeLimitSeconds int // 0 = no limit
	HintText         string
	Explanation      string // Shown after answering
}

// Choices extracts the option list from the payload for choice-style questions.
func (q Question) Choices() []string {
	raw, ok := q.Payload["choices"].([]any)
	if !ok {
		return nil
	}
	choices := make([]string, 0, len(raw))
	for _, c := range raw {
		if s, ok := c.(string); ok {
			choices = append(choices, s)
		}
	}
	return choices
}

// Avatar is a character a child can pick for their device profile.
type Avatar struct {
	ID                int
	Name              string
	Description       string
	ImageURL          string
	PersonalityTraits []string
	IsDefault         bool
}

// Badge is an achievement that can be earned through play.
type Badge struct {
	ID           int
	Name         string
	Description  string
	Type         string // "completion", "streak", "performance", "special"
	Criteria     map[string]any
	PointsReward int
	RarityLevel  int // 1=Common, 5=Legendary
}

// LeaderboardEntry is one row of the global leaderboard, identified by
// avatar only (device IDs never leave the server).
type LeaderboardEntry struct {
	AvatarName      string
	TotalPoints     int
	LevelsCompleted int
	CurrentStreak   int
	BadgesEarned    int
	LastActivity    time.Time
}

// Sync event types queued for offline actions.
const (
	EventLevelCompleted  = "level_completed"
	EventBadgeEarned     = "badge_earned"
	EventProgressUpdated = "progress_updated"
	EventAvatarChanged   = "avatar_changed"
)

// SyncEvent is a queued offline action reported to the server alongside
// progress sync.
type SyncEvent struct {
	Type      string
	Data      map[string]any
	CreatedAt time.Time
}

// UnlockStates reports, for the levels of a single subject (ordered by
// Level.Order), which are unlocked for the given profile. The first level
// is always unlocked; later levels unlock once the passed-score points
// accumulated from earlier levels reach RequiredScoreToUnlock.
func UnlockStates(levels []Level, profile DeviceProfile) map[int]bool {
	unlocked := make(map[int]bool, len(levels))
	accumulated := 0
	for _, lvl := range levels {
		unlocked[lvl.ID] = lvl.Order == 1 || accumulated >= lvl.RequiredScoreToUnlock
		if entry, ok := profile.Entry(lvl.ID); ok && entry.Score >= lvl.MinScoreToPass {
			accumulated += entry.Score
		}
	}
	return unlocked
}
