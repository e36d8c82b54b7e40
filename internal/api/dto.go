package api

import (
	"encoding/json"
	"time"
)

// Wire types for the learning server's JSON API. Field names follow the
// server's snake_case convention.

type subjectDTO struct {
	ID              int    `json:"id"`
	Name            string `json:"name"`
	Slug            string `json:"slug"`
	Description     string `json:"description"`
	Theme           string `json:"theme"`
	BackgroundColor string `json:"background_color"`
	AccentColor     string `json:"accent_color"`
	Order           int    `json:"order"`
	LevelCount      int    `json:"level_count"`
}

type questionDTO struct {
	ID               int             `json:"id"`
	Order            int             `json:"order"`
	QuestionType     string          `json:"question_type"`
	Title            string          `json:"title"`
	Payload          map[string]any  `json:"payload"`
	CorrectAnswer    json.RawMessage `json:"correct_answer"`
	RewardPoints     int             `json:"reward_points"`
	TimeLimitSeconds int             `json:"time_limit_seconds"`
	HintText         string          `json:"hint_text"`
	Explanation      string          `json:"explanation"`
}

type levelDTO struct {
	ID                    int           `json:"id"`
	SubjectSlug           string        `json:"subject_slug"`
	Order                 int           `json:"order"`
	Title                 string        `json:"title"`
	StoryText             string        `json:"story_text"`
	ArtworkURL            string        `json:"artwork_url"`
	RequiredScoreToUnlock int           `json:"required_score_to_unlock"`
	MinScoreToPass        int           `json:"min_score_to_pass"`
	QuestionCount         int           `json:"question_count"`
	TotalPoints           int           `json:"total_points"`
	Questions             []questionDTO `json:"questions,omitempty"`
}

type avatarDTO struct {
	ID                int      `json:"id"`
	Name              string   `json:"name"`
	Description       string   `json:"description"`
	ImageURL          string   `json:"avatar_image"`
	PersonalityTraits []string `json:"personality_traits"`
	IsDefault         bool     `json:"is_default"`
}

type badgeDTO struct {
	ID           int            `json:"id"`
	Name         string         `json:"name"`
	Description  string         `json:"description"`
	BadgeType    string         `json:"badge_type"`
	Criteria     map[string]any `json:"criteria"`
	PointsReward int            `json:"points_reward"`
	RarityLevel  int            `json:"rarity_level"`
}

type leaderboardEntryDTO struct {
	AvatarName      string    `json:"avatar_name"`
	TotalPoints     int       `json:"total_points"`
	LevelsCompleted int       `json:"levels_completed"`
	CurrentStreak   int       `json:"current_streak"`
	BadgesEarned    int       `json:"badges_earned"`
	LastActivity    time.Time `json:"last_activity"`
}

type progressEntryDTO struct {
	LevelID        int       `json:"level_id"`
	Score          int       `json:"score"`
	Attempts       int       `json:"attempts"`
	CompletionTime int       `json:"completion_time"`
	LastModified   time.Time `json:"last_modified"`
}

type profileDTO struct {
	DeviceID        string             `json:"device_id"`
	AvatarID        int                `json:"avatar_id"`
	SyncVersion     int                `json:"sync_version"`
	LastSynced      *time.Time         `json:"last_synced"`
	ProgressEntries []progressEntryDTO `json:"progress_entries"`
}

type createProfileRequest struct {
	DeviceID string `json:"device_id"`
	AvatarID int    `json:"avatar_id"`
}

type syncProgressRequest struct {
	ProgressEntries []progressEntryDTO `json:"progress_entries"`
	Version         int                `json:"version"`
	LastUpdated     time.Time          `json:"last_updated"`
}

type syncResultDTO struct {
	ConflictsResolved int       `json:"conflicts_resolved"`
	ServerVersion     int       `json:"server_version"`
	SyncedAt          time.Time `json:"synced_at"`
}

type syncProgressResponse struct {
	profileDTO
	SyncResult syncResultDTO `json:"sync_result"`
}

type eventDTO struct {
	EventType string         `json:"event_type"`
	EventData map[string]any `json:"event_data"`
	CreatedAt time.Time      `json:"created_at"`
}

type pushEventsRequest struct {
	DeviceID string     `json:"device_id"`
	Events   []eventDTO `json:"events"`
}
