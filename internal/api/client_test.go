package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sproutlearn/sprout/internal/adapter"
	"github.com/sproutlearn/sprout/internal/domain"
)

func TestPingUsesHealthEndpoint(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`{"status":"ok"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, adapter.NullLogger())
	require.NoError(t, c.Ping(context.Background()))
	assert.Equal(t, "/api/health/", gotPath)
}

func TestConnectionErrorMapsToServerUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // Nothing is listening anymore.

	c := NewClient(srv.URL, adapter.NullLogger())
	err := c.Ping(context.Background())
	assert.ErrorIs(t, err, domain.ErrServerUnreachable)
}

func TestGetSubjects(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/subjects/", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"id":1,"name":"Science","slug":"science","theme":"science","background_color":"#10B981","accent_color":"#34D399","order":1,"level_count":5}
		]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, adapter.NullLogger())
	subjects, err := c.GetSubjects(context.Background())
	require.NoError(t, err)
	require.Len(t, subjects, 1)
	assert.Equal(t, "science", subjects[0].Slug)
	assert.Equal(t, 5, subjects[0].LevelCount)
	assert.Equal(t, "Plant Growth Adventure", subjects[0].ThemeTitle())
}

func TestGetLevelMapsQuestions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/levels/7/", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id":7,"subject_slug":"science","order":2,"title":"First Sprout",
			"required_score_to_unlock":15,"min_score_to_pass":70,
			"questions":[
				{"id":11,"order":1,"question_type":"true_false","title":"Plants grow toward the light.",
				 "payload":{"statement":"Plants grow toward the light"},"correct_answer":true,"reward_points":15}
			]
		}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, adapter.NullLogger())
	level, err := c.GetLevel(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "First Sprout", level.Title)
	require.True(t, level.HasQuestions())
	assert.Equal(t, domain.QuestionTrueFalse, level.Questions[0].Type)
	assert.Equal(t, 15, level.Questions[0].RewardPoints)
}

func TestGetLevelNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"level not found"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, adapter.NullLogger())
	_, err := c.GetLevel(context.Background(), 999)
	assert.ErrorIs(t, err, domain.ErrLevelNotFound)
}

func TestSyncProgressWireFormat(t *testing.T) {
	now := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/api/device/profiles/dev-1/sync_progress/", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.EqualValues(t, 3, body["version"])
		entries := body["progress_entries"].([]any)
		require.Len(t, entries, 1)
		entry := entries[0].(map[string]any)
		assert.EqualValues(t, 7, entry["level_id"])
		assert.EqualValues(t, 70, entry["score"])
		assert.EqualValues(t, 2, entry["attempts"])

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"device_id":"dev-1","avatar_id":1,"sync_version":6,"last_synced":"2026-08-25T12:00:01Z",
			"progress_entries":[{"level_id":7,"score":85,"attempts":3,"completion_time":0,"last_modified":"2026-08-25T12:00:01Z"}],
			"sync_result":{"conflicts_resolved":1,"server_version":6,"synced_at":"2026-08-25T12:00:01Z"}
		}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, adapter.NullLogger())
	resp, err := c.SyncProgress(context.Background(), "dev-1", domain.SyncPayload{
		Entries:     []domain.ProgressEntry{{LevelID: 7, Score: 70, Attempts: 2, LastModified: now}},
		Version:     3,
		LastUpdated: now,
	})
	require.NoError(t, err)

	assert.Equal(t, 6, resp.Version)
	assert.Equal(t, 1, resp.ConflictsResolved)
	require.Len(t, resp.Entries, 1)
	assert.Equal(t, 85, resp.Entries[0].Score)
	assert.Equal(t, 3, resp.Entries[0].Attempts)
}

func TestSyncProgressRejectionMapsToSyncFailed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"bad payload"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, adapter.NullLogger())
	_, err := c.SyncProgress(context.Background(), "dev-1", domain.SyncPayload{})
	assert.ErrorIs(t, err, domain.ErrSyncFailed)
}

func TestGetLeaderboardLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/leaderboard/", r.URL.Path)
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"avatar_name":"Mango the Explorer","total_points":230,"levels_completed":3}]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, adapter.NullLogger())
	entries, err := c.GetLeaderboard(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 230, entries[0].TotalPoints)
}

func TestPushEventsSkipsEmptyBatch(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	c := NewClient(srv.URL, adapter.NullLogger())
	require.NoError(t, c.PushEvents(context.Background(), "dev-1", nil))
	assert.False(t, called)
}
