package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sproutlearn/sprout/internal/domain"
)

const (
	defaultTimeout = 30 * time.Second
	userAgent      = "Sprout/1.0"
)

// Client implements domain.ProgressAPI and domain.ContentAPI against the
// learning server's JSON API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a new learning server API client
func NewClient(baseURL string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		logger: logger,
	}
}

// doRequest performs an HTTP request with an optional JSON body.
// Connection-level failures map to domain.ErrServerUnreachable so
// callers can distinguish "offline" from a server-side rejection.
func (c *Client) doRequest(ctx context.Context, method, path string, query url.Values, payload interface{}) ([]byte, error) {
	reqURL := fmt.Sprintf("%s%s", c.baseURL, path)
	if query != nil {
		reqURL = fmt.Sprintf("%s?%s", reqURL, query.Encode())
	}

	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debug("api request", "method", method, "url", reqURL)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("api request failed", "error", err)
		return nil, domain.ErrServerUnreachable
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, domain.ErrProfileNotFound
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Error("api request error", "status", resp.StatusCode, "body", string(body))
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	return body, nil
}

// === Reachability ===

// Ping probes the health endpoint without touching any state.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.doRequest(ctx, http.MethodGet, "/api/health/", nil, nil)
	return err
}

// === Profiles and progress ===

func (c *Client) CreateProfile(ctx context.Context, deviceID string, avatarID int) (domain.DeviceProfile, error) {
	body, err := c.doRequest(ctx, http.MethodPost, "/api/device/profiles/", nil, createProfileRequest{
		DeviceID: deviceID,
		AvatarID: avatarID,
	})
	if err != nil {
		return domain.DeviceProfile{}, err
	}

	var dto profileDTO
	if err := json.Unmarshal(body, &dto); err != nil {
		return domain.DeviceProfile{}, fmt.Errorf("failed to parse response: %w", err)
	}
	return mapProfile(dto), nil
}

func (c *Client) Profile(ctx context.Context, deviceID string) (domain.DeviceProfile, error) {
	body, err := c.doRequest(ctx, http.MethodGet, "/api/device/profiles/"+deviceID+"/", nil, nil)
	if err != nil {
		return domain.DeviceProfile{}, err
	}

	var dto profileDTO
	if err := json.Unmarshal(body, &dto); err != nil {
		return domain.DeviceProfile{}, fmt.Errorf("failed to parse response: %w", err)
	}
	return mapProfile(dto), nil
}

// SyncProgress submits unsynced entries and returns the server's merged
// authoritative set. A non-2xx response maps to domain.ErrSyncFailed so
// local state stays queued for retry.
func (c *Client) SyncProgress(ctx context.Context, deviceID string, payload domain.SyncPayload) (domain.SyncResponse, error) {
	path := "/api/device/profiles/" + deviceID + "/sync_progress/"
	body, err := c.doRequest(ctx, http.MethodPatch, path, nil, syncProgressRequest{
		ProgressEntries: mapEntriesToWire(payload.Entries),
		Version:         payload.Version,
		LastUpdated:     payload.LastUpdated,
	})
	if err != nil {
		if err == domain.ErrServerUnreachable {
			return domain.SyncResponse{}, err
		}
		return domain.SyncResponse{}, fmt.Errorf("%w: %v", domain.ErrSyncFailed, err)
	}

	var dto syncProgressResponse
	if err := json.Unmarshal(body, &dto); err != nil {
		return domain.SyncResponse{}, fmt.Errorf("%w: %v", domain.ErrSyncFailed, err)
	}

	return domain.SyncResponse{
		Entries:           mapEntriesFromWire(dto.ProgressEntries),
		Version:           dto.SyncResult.ServerVersion,
		SyncedAt:          dto.SyncResult.SyncedAt,
		ConflictsResolved: dto.SyncResult.ConflictsResolved,
	}, nil
}

// === Content ===

func (c *Client) GetSubjects(ctx context.Context) ([]domain.Subject, error) {
	body, err := c.doRequest(ctx, http.MethodGet, "/api/subjects/", nil, nil)
	if err != nil {
		return nil, err
	}

	var dtos []subjectDTO
	if err := json.Unmarshal(body, &dtos); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return mapSubjects(dtos), nil
}

func (c *Client) GetLevels(ctx context.Context, subjectSlug string) ([]domain.Level, error) {
	body, err := c.doRequest(ctx, http.MethodGet, "/api/subjects/"+subjectSlug+"/levels/", nil, nil)
	if err != nil {
		return nil, err
	}

	var dtos []levelDTO
	if err := json.Unmarshal(body, &dtos); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return mapLevels(dtos), nil
}

func (c *Client) GetLevel(ctx context.Context, levelID int) (domain.Level, error) {
	body, err := c.doRequest(ctx, http.MethodGet, "/api/levels/"+strconv.Itoa(levelID)+"/", nil, nil)
	if err != nil {
		if err == domain.ErrProfileNotFound {
			return domain.Level{}, domain.ErrLevelNotFound
		}
		return domain.Level{}, err
	}

	var dto levelDTO
	if err := json.Unmarshal(body, &dto); err != nil {
		return domain.Level{}, fmt.Errorf("failed to parse response: %w", err)
	}
	return mapLevel(dto), nil
}

func (c *Client) GetAvatars(ctx context.Context) ([]domain.Avatar, error) {
	body, err := c.doRequest(ctx, http.MethodGet, "/api/avatars/", nil, nil)
	if err != nil {
		return nil, err
	}

	var dtos []avatarDTO
	if err := json.Unmarshal(body, &dtos); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return mapAvatars(dtos), nil
}

func (c *Client) GetBadges(ctx context.Context) ([]domain.Badge, error) {
	body, err := c.doRequest(ctx, http.MethodGet, "/api/badges/", nil, nil)
	if err != nil {
		return nil, err
	}

	var dtos []badgeDTO
	if err := json.Unmarshal(body, &dtos); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return mapBadges(dtos), nil
}

func (c *Client) GetLeaderboard(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	body, err := c.doRequest(ctx, http.MethodGet, "/api/leaderboard/", query, nil)
	if err != nil {
		return nil, err
	}

	var dtos []leaderboardEntryDTO
	if err := json.Unmarshal(body, &dtos); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return mapLeaderboard(dtos), nil
}

func (c *Client) PushEvents(ctx context.Context, deviceID string, events []domain.SyncEvent) error {
	if len(events) == 0 {
		return nil
	}
	_, err := c.doRequest(ctx, http.MethodPost, "/api/sync/events/", nil, pushEventsRequest{
		DeviceID: deviceID,
		Events:   mapEventsToWire(events),
	})
	return err
}
