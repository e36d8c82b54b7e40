package server

import (
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/sproutlearn/sprout/internal/domain"
)

// Database models for the reference learning server.

type SubjectModel struct {
	ID              int    `gorm:"primaryKey"`
	Name            string `gorm:"size:100"`
	Slug            string `gorm:"size:50;uniqueIndex"`
	Description     string
	Theme           string `gorm:"size:20"`
	BackgroundColor string `gorm:"size:7"`
	AccentColor     string `gorm:"size:7"`
	DisplayOrder    int
	IsActive        bool `gorm:"default:true"`
	Levels          []LevelModel `gorm:"foreignKey:SubjectID"`
}

func (SubjectModel) TableName() string { return "subjects" }

type LevelModel struct {
	ID                    int `gorm:"primaryKey"`
	SubjectID             int `gorm:"index"`
	SubjectSlug           string
	DisplayOrder          int
	Title                 string `gorm:"size:200"`
	StoryText             string
	ArtworkURL            string
	RequiredScoreToUnlock int
	MinScoreToPass        int  `gorm:"default:70"`
	IsActive              bool `gorm:"default:true"`
	Questions             []QuestionModel `gorm:"foreignKey:LevelID"`
}

func (LevelModel) TableName() string { return "levels" }

type QuestionModel struct {
	ID               int `gorm:"primaryKey"`
	LevelID          int `gorm:"index"`
	DisplayOrder     int
	QuestionType     string         `gorm:"size:20"`
	Title            string         `gorm:"size:500"`
	Payload          map[string]any `gorm:"serializer:json"`
	CorrectAnswer    any            `gorm:"serializer:json"`
	RewardPoints     int            `gorm:"default:10"`
	TimeLimitSeconds int
	HintText         string
	Explanation      string
}

func (QuestionModel) TableName() string { return "questions" }

type AvatarModel struct {
	ID                int    `gorm:"primaryKey"`
	Name              string `gorm:"size:50"`
	Description       string
	ImageURL          string
	PersonalityTraits []string `gorm:"serializer:json"`
	IsDefault         bool
	IsActive          bool `gorm:"default:true"`
}

func (AvatarModel) TableName() string { return "avatars" }

type BadgeModel struct {
	ID           int    `gorm:"primaryKey"`
	Name         string `gorm:"size:100"`
	Description  string
	BadgeType    string         `gorm:"size:20"`
	Criteria     map[string]any `gorm:"serializer:json"`
	PointsReward int
	RarityLevel  int `gorm:"default:1"`
	IsActive     bool `gorm:"default:true"`
}

func (BadgeModel) TableName() string { return "badges" }

type ProfileModel struct {
	DeviceID    string                        `gorm:"primaryKey;size:64"`
	AvatarID    int
	Progress    map[int]domain.ProgressEntry  `gorm:"serializer:json"`
	SyncVersion int                           `gorm:"default:1"`
	LastSynced  *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (ProfileModel) TableName() string { return "device_profiles" }

type LeaderboardModel struct {
	DeviceID        string `gorm:"primaryKey;size:64"`
	AvatarName      string
	TotalPoints     int `gorm:"index:idx_leaderboard_points,sort:desc"`
	LevelsCompleted int
	CurrentStreak   int
	BadgesEarned    int
	LastActivity    time.Time
}

func (LeaderboardModel) TableName() string { return "leaderboard_entries" }

type SyncEventModel struct {
	ID          uint   `gorm:"primaryKey"`
	DeviceID    string `gorm:"index;size:64"`
	EventType   string `gorm:"size:30"`
	EventData   map[string]any `gorm:"serializer:json"`
	CreatedAt   time.Time
	IsProcessed bool `gorm:"default:false;index"`
}

func (SyncEventModel) TableName() string { return "sync_events" }

// OpenDB opens the sqlite database and migrates the schema. Path
// ":memory:" gives an ephemeral database for tests.
func OpenDB(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.AutoMigrate(
		&SubjectModel{},
		&LevelModel{},
		&QuestionModel{},
		&AvatarModel{},
		&BadgeModel{},
		&ProfileModel{},
		&LeaderboardModel{},
		&SyncEventModel{},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}

	return db, nil
}
