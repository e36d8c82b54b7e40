package server

import (
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/sproutlearn/sprout/internal/domain"
)

// Wire types. Field names follow the API's snake_case convention.

type subjectWire struct {
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

type questionWire struct {
	ID               int            `json:"id"`
	Order            int            `json:"order"`
	QuestionType     string         `json:"question_type"`
	Title            string         `json:"title"`
	Payload          map[string]any `json:"payload"`
	CorrectAnswer    any            `json:"correct_answer"`
	RewardPoints     int            `json:"reward_points"`
	TimeLimitSeconds int            `json:"time_limit_seconds"`
	HintText         string         `json:"hint_text"`
	Explanation      string         `json:"explanation"`
}

type levelWire struct {
	ID                    int            `json:"id"`
	SubjectSlug           string         `json:"subject_slug"`
	Order                 int            `json:"order"`
	Title                 string         `json:"title"`
	StoryText             string         `json:"story_text"`
	ArtworkURL            string         `json:"artwork_url"`
	RequiredScoreToUnlock int            `json:"required_score_to_unlock"`
	MinScoreToPass        int            `json:"min_score_to_pass"`
	QuestionCount         int            `json:"question_count"`
	TotalPoints           int            `json:"total_points"`
	Questions             []questionWire `json:"questions,omitempty"`
}

type avatarWire struct {
	ID                int      `json:"id"`
	Name              string   `json:"name"`
	Description       string   `json:"description"`
	ImageURL          string   `json:"avatar_image"`
	PersonalityTraits []string `json:"personality_traits"`
	IsDefault         bool     `json:"is_default"`
}

type badgeWire struct {
	ID           int            `json:"id"`
	Name         string         `json:"name"`
	Description  string         `json:"description"`
	BadgeType    string         `json:"badge_type"`
	Criteria     map[string]any `json:"criteria"`
	PointsReward int            `json:"points_reward"`
	RarityLevel  int            `json:"rarity_level"`
}

type leaderboardWire struct {
	AvatarName      string    `json:"avatar_name"`
	TotalPoints     int       `json:"total_points"`
	LevelsCompleted int       `json:"levels_completed"`
	CurrentStreak   int       `json:"current_streak"`
	BadgesEarned    int       `json:"badges_earned"`
	LastActivity    time.Time `json:"last_activity"`
}

type entryWire struct {
	LevelID        int       `json:"level_id"`
	Score          int       `json:"score"`
	Attempts       int       `json:"attempts"`
	CompletionTime int       `json:"completion_time"`
	LastModified   time.Time `json:"last_modified"`
}

type profileWire struct {
	DeviceID        string      `json:"device_id"`
	AvatarID        int         `json:"avatar_id"`
	SyncVersion     int         `json:"sync_version"`
	LastSynced      *time.Time  `json:"last_synced"`
	ProgressEntries []entryWire `json:"progress_entries"`
}

type createProfileWire struct {
	DeviceID string `json:"device_id"`
	AvatarID int    `json:"avatar_id"`
}

type syncRequestWire struct {
	ProgressEntries []entryWire `json:"progress_entries"`
	Version         int         `json:"version"`
	LastUpdated     time.Time   `json:"last_updated"`
}

type syncResponseWire struct {
	profileWire
	SyncResult struct {
		ConflictsResolved int       `json:"conflicts_resolved"`
		ServerVersion     int       `json:"server_version"`
		SyncedAt          time.Time `json:"synced_at"`
	} `json:"sync_result"`
}

type eventWire struct {
	EventType string         `json:"event_type"`
	EventData map[string]any `json:"event_data"`
	CreatedAt time.Time      `json:"created_at"`
}

type pushEventsWire struct {
	DeviceID string      `json:"device_id"`
	Events   []eventWire `json:"events"`
}

type handlers struct {
	db     *gorm.DB
	logger *slog.Logger
	now    func() time.Time
}

func registerAPI(e *echo.Echo, db *gorm.DB, logger *slog.Logger) {
	h := &handlers{db: db, logger: logger, now: time.Now}

	g := e.Group("/api")
	g.GET("/health", h.health)

	g.GET("/subjects", h.listSubjects)
	g.GET("/subjects/:slug/levels", h.listLevels)
	g.GET("/levels/:id", h.getLevel)
	g.GET("/avatars", h.listAvatars)
	g.GET("/badges", h.listBadges)
	g.GET("/leaderboard", h.leaderboard)

	g.POST("/device/profiles", h.createProfile)
	g.GET("/device/profiles/:device_id", h.getProfile)
	g.PATCH("/device/profiles/:device_id/sync_progress", h.syncProgress)

	g.POST("/sync/events", h.pushEvents)
}

func (h *handlers) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// === Content ===

func (h *handlers) listSubjects(c echo.Context) error {
	var subjects []SubjectModel
	if err := h.db.Where("is_active = ?", true).Order("display_order").Find(&subjects).Error; err != nil {
		return err
	}

	out := make([]subjectWire, len(subjects))
	for i, s := range subjects {
		var count int64
		h.db.Model(&LevelModel{}).Where("subject_id = ? AND is_active = ?", s.ID, true).Count(&count)
		out[i] = subjectWire{
			ID:              s.ID,
			Name:            s.Name,
			Slug:            s.Slug,
			Description:     s.Description,
			Theme:           s.Theme,
			BackgroundColor: s.BackgroundColor,
			AccentColor:     s.AccentColor,
			Order:           s.DisplayOrder,
			LevelCount:      int(count),
		}
	}
	return c.JSON(http.StatusOK, out)
}

func (h *handlers) listLevels(c echo.Context) error {
	slug := c.Param("slug")

	var subject SubjectModel
	if err := h.db.Where("slug = ? AND is_active = ?", slug, true).First(&subject).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "subject not found")
		}
		return err
	}

	var levels []LevelModel
	if err := h.db.Preload("Questions").
		Where("subject_id = ? AND is_active = ?", subject.ID, true).
		Order("display_order").Find(&levels).Error; err != nil {
		return err
	}

	out := make([]levelWire, len(levels))
	for i, l := range levels {
		// Listing omits the questions themselves; the detail endpoint
		// carries them for offline caching.
		w := mapLevelWire(l, false)
		out[i] = w
	}
	return c.JSON(http.StatusOK, out)
}

func (h *handlers) getLevel(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid level id")
	}

	var level LevelModel
	if err := h.db.Preload("Questions", func(db *gorm.DB) *gorm.DB {
		return db.Order("display_order")
	}).Where("id = ? AND is_active = ?", id, true).First(&level).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "level not found")
		}
		return err
	}

	return c.JSON(http.StatusOK, mapLevelWire(level, true))
}

func mapLevelWire(l LevelModel, withQuestions bool) levelWire {
	w := levelWire{
		ID:                    l.ID,
		SubjectSlug:           l.SubjectSlug,
		Order:                 l.DisplayOrder,
		Title:                 l.Title,
		StoryText:             l.StoryText,
		ArtworkURL:            l.ArtworkURL,
		RequiredScoreToUnlock: l.RequiredScoreToUnlock,
		MinScoreToPass:        l.MinScoreToPass,
		QuestionCount:         len(l.Questions),
	}
	for _, q := range l.Questions {
		w.TotalPoints += q.RewardPoints
		if withQuestions {
			w.Questions = append(w.Questions, questionWire{
				ID:               q.ID,
				Order:            q.DisplayOrder,
				QuestionType:     q.QuestionType,
				Title:            q.Title,
				Payload:          q.Payload,
				CorrectAnswer:    q.CorrectAnswer,
				RewardPoints:     q.RewardPoints,
				TimeLimitSeconds: q.TimeLimitSeconds,
				HintText:         q.HintText,
				Explanation:      q.Explanation,
			})
		}
	}
	return w
}

func (h *handlers) listAvatars(c echo.Context) error {
	var avatars []AvatarModel
	if err := h.db.Where("is_active = ?", true).Order("id").Find(&avatars).Error; err != nil {
		return err
	}

	out := make([]avatarWire, len(avatars))
	for i, a := range avatars {
		out[i] = avatarWire{
			ID:                a.ID,
			Name:              a.Name,
			Description:       a.Description,
			ImageURL:          a.ImageURL,
			PersonalityTraits: a.PersonalityTraits,
			IsDefault:         a.IsDefault,
		}
	}
	return c.JSON(http.StatusOK, out)
}

func (h *handlers) listBadges(c echo.Context) error {
	var badges []BadgeModel
	if err := h.db.Where("is_active = ?", true).Order("rarity_level, name").Find(&badges).Error; err != nil {
		return err
	}

	out := make([]badgeWire, len(badges))
	for i, b := range badges {
		out[i] = badgeWire{
			ID:           b.ID,
			Name:         b.Name,
			Description:  b.Description,
			BadgeType:    b.BadgeType,
			Criteria:     b.Criteria,
			PointsReward: b.PointsReward,
			RarityLevel:  b.RarityLevel,
		}
	}
	return c.JSON(http.StatusOK, out)
}

func (h *handlers) leaderboard(c echo.Context) error {
	limit := 10
	if raw := c.QueryParam("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}

	q := h.db.Order("total_points DESC").Limit(limit)
	// period narrows standings to recently active players; the default
	// is all-time.
	switch c.QueryParam("period") {
	case "weekly":
		q = q.Where("last_activity >= ?", h.now().AddDate(0, 0, -7))
	case "monthly":
		q = q.Where("last_activity >= ?", h.now().AddDate(0, 0, -30))
	}

	var rows []LeaderboardModel
	if err := q.Find(&rows).Error; err != nil {
		return err
	}

	out := make([]leaderboardWire, len(rows))
	for i, r := range rows {
		out[i] = leaderboardWire{
			AvatarName:      r.AvatarName,
			TotalPoints:     r.TotalPoints,
			LevelsCompleted: r.LevelsCompleted,
			CurrentStreak:   r.CurrentStreak,
			BadgesEarned:    r.BadgesEarned,
			LastActivity:    r.LastActivity,
		}
	}
	return c.JSON(http.StatusOK, out)
}

// === Profiles and progress ===

func (h *handlers) createProfile(c echo.Context) error {
	var req createProfileWire
	if err := c.Bind(&req); err != nil {
		return err
	}
	if req.DeviceID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "device_id is required")
	}

	profile := ProfileModel{
		DeviceID:    req.DeviceID,
		AvatarID:    req.AvatarID,
		Progress:    make(map[int]domain.ProgressEntry),
		SyncVersion: 1,
	}
	// Re-registering an existing device keeps its progress; only the
	// avatar choice is updated.
	err := h.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "device_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"avatar_id", "updated_at"}),
	}).Create(&profile).Error
	if err != nil {
		return err
	}

	var stored ProfileModel
	if err := h.db.First(&stored, "device_id = ?", req.DeviceID).Error; err != nil {
		return err
	}

	h.logger.Info("profile registered", "device", req.DeviceID, "avatar", req.AvatarID)
	return c.JSON(http.StatusCreated, mapProfileWire(stored))
}

func (h *handlers) getProfile(c echo.Context) error {
	var profile ProfileModel
	if err := h.db.First(&profile, "device_id = ?", c.Param("device_id")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "device profile not found")
		}
		return err
	}
	return c.JSON(http.StatusOK, mapProfileWire(profile))
}

// syncProgress merges a client's batch into the stored progress and
// returns the authoritative set with a new version.
func (h *handlers) syncProgress(c echo.Context) error {
	deviceID := c.Param("device_id")

	var profile ProfileModel
	if err := h.db.First(&profile, "device_id = ?", deviceID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "device profile not found")
		}
		return err
	}

	var req syncRequestWire
	if err := c.Bind(&req); err != nil {
		return err
	}

	submitted := make([]domain.ProgressEntry, len(req.ProgressEntries))
	for i, e := range req.ProgressEntries {
		submitted[i] = domain.ProgressEntry{
			LevelID:        e.LevelID,
			Score:          e.Score,
			Attempts:       e.Attempts,
			CompletionTime: e.CompletionTime,
			LastModified:   e.LastModified,
		}
	}

	now := h.now()
	result := domain.MergeProgress(profile.Progress, submitted, req.Version, profile.SyncVersion, now)

	profile.Progress = result.Entries
	profile.SyncVersion = result.Version
	profile.LastSynced = &now
	if err := h.db.Save(&profile).Error; err != nil {
		return err
	}

	h.updateLeaderboard(profile, now)

	h.logger.Info("progress synced",
		"device", deviceID,
		"entries", len(submitted),
		"conflicts", result.ConflictsResolved,
		"version", result.Version)

	resp := syncResponseWire{profileWire: mapProfileWire(profile)}
	resp.SyncResult.ConflictsResolved = result.ConflictsResolved
	resp.SyncResult.ServerVersion = result.Version
	resp.SyncResult.SyncedAt = now
	return c.JSON(http.StatusOK, resp)
}

func (h *handlers) updateLeaderboard(profile ProfileModel, now time.Time) {
	total := 0
	for _, e := range profile.Progress {
		total += e.Score
	}

	avatarName := "Anonymous"
	var avatar AvatarModel
	if err := h.db.First(&avatar, "id = ?", profile.AvatarID).Error; err == nil {
		avatarName = avatar.Name
	}

	row := LeaderboardModel{
		DeviceID:        profile.DeviceID,
		AvatarName:      avatarName,
		TotalPoints:     total,
		LevelsCompleted: len(profile.Progress),
		LastActivity:    now,
	}
	err := h.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "device_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"avatar_name", "total_points", "levels_completed", "last_activity",
		}),
	}).Create(&row).Error
	if err != nil {
		h.logger.Error("failed to update leaderboard", "device", profile.DeviceID, "error", err)
	}
}

// === Sync events ===

func (h *handlers) pushEvents(c echo.Context) error {
	var req pushEventsWire
	if err := c.Bind(&req); err != nil {
		return err
	}
	if req.DeviceID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "device_id is required")
	}

	for _, ev := range req.Events {
		created := ev.CreatedAt
		if created.IsZero() {
			created = h.now()
		}
		row := SyncEventModel{
			DeviceID:  req.DeviceID,
			EventType: ev.EventType,
			EventData: ev.EventData,
			CreatedAt: created,
		}
		if err := h.db.Create(&row).Error; err != nil {
			return err
		}
		h.processEvent(&row)
	}

	return c.JSON(http.StatusCreated, map[string]int{"accepted": len(req.Events)})
}

// processEvent applies side effects of queued events. The queue exists
// so offline clients can replay actions in order; processing is cheap
// enough to do inline on receipt.
func (h *handlers) processEvent(ev *SyncEventModel) {
	switch ev.EventType {
	case domain.EventBadgeEarned:
		h.db.Model(&LeaderboardModel{}).
			Where("device_id = ?", ev.DeviceID).
			Updates(map[string]any{
				"badges_earned": gorm.Expr("badges_earned + 1"),
				"last_activity": ev.CreatedAt,
			})
	case domain.EventLevelCompleted:
		h.db.Model(&LeaderboardModel{}).
			Where("device_id = ?", ev.DeviceID).
			Update("last_activity", ev.CreatedAt)
	}

	ev.IsProcessed = true
	h.db.Save(ev)
}

// sortEntries returns a profile's entries ordered by level ID for a
// stable wire representation.
func sortEntries(progress map[int]domain.ProgressEntry) []entryWire {
	out := make([]entryWire, 0, len(progress))
	for _, e := range progress {
		out = append(out, entryWire{
			LevelID:        e.LevelID,
			Score:          e.Score,
			Attempts:       e.Attempts,
			CompletionTime: e.CompletionTime,
			LastModified:   e.LastModified,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LevelID < out[j].LevelID })
	return out
}

func mapProfileWire(p ProfileModel) profileWire {
	return profileWire{
		DeviceID:        p.DeviceID,
		AvatarID:        p.AvatarID,
		SyncVersion:     p.SyncVersion,
		LastSynced:      p.LastSynced,
		ProgressEntries: sortEntries(p.Progress),
	}
}
