// Package repo holds the HTTP clients for the systems the engine talks to:
// the compliance archive that persists learning artifacts and the platform
// gateway that feeds recent error events.
package repo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/caresignal/recovery-engine/internal/cache"
	"github.com/caresignal/recovery-engine/internal/models"
)

const snapshotCacheKey = "archive:snapshot:latest"

// ArchiveClient persists patterns, outcomes, and snapshots to the compliance
// archive and restores the latest snapshot on warm start. An unconfigured
// endpoint turns every operation into a no-op so local development does not
// need an archive running.
type ArchiveClient struct {
	endpoint    string
	apiKey      string
	httpClient  *http.Client
	cache       cache.Provider
	snapshotTTL time.Duration
}

// NewArchiveClient constructs an archive client. A nil cache provider
// disables snapshot caching rather than failing.
func NewArchiveClient(endpoint, apiKey string, timeout time.Duration, cacheProvider cache.Provider, snapshotTTL time.Duration) *ArchiveClient {
	if cacheProvider == nil {
		cacheProvider = cache.NoopProvider{}
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if snapshotTTL < 0 {
		snapshotTTL = 0
	}
	return &ArchiveClient{
		endpoint:    strings.TrimRight(endpoint, "/"),
		apiKey:      apiKey,
		httpClient:  &http.Client{Timeout: timeout},
		cache:       cacheProvider,
		snapshotTTL: snapshotTTL,
	}
}

// Enabled reports whether an archive endpoint is configured.
func (c *ArchiveClient) Enabled() bool {
	return c != nil && c.endpoint != ""
}

// StorePattern archives one observed pattern.
func (c *ArchiveClient) StorePattern(ctx context.Context, pattern models.ErrorPattern) error {
	if c == nil {
		return fmt.Errorf("archive client not initialised")
	}
	if c.endpoint == "" {
		return nil
	}
	return c.postJSON(ctx, "/v1/archive/patterns", pattern)
}

// StoreOutcome archives one recorded outcome.
func (c *ArchiveClient) StoreOutcome(ctx context.Context, record models.OutcomeRecord) error {
	if c == nil {
		return fmt.Errorf("archive client not initialised")
	}
	if c.endpoint == "" {
		return nil
	}
	return c.postJSON(ctx, "/v1/archive/outcomes", record)
}

// StoreSnapshot archives the full learning state and refreshes the local
// snapshot cache.
func (c *ArchiveClient) StoreSnapshot(ctx context.Context, snap models.Snapshot) error {
	if c == nil {
		return fmt.Errorf("archive client not initialised")
	}
	if c.endpoint == "" {
		return nil
	}
	if err := c.postJSON(ctx, "/v1/archive/snapshot", snap); err != nil {
		return err
	}
	if c.snapshotTTL > 0 {
		if payload, err := json.Marshal(snap); err == nil {
			_ = c.cache.Set(ctx, snapshotCacheKey, payload, c.snapshotTTL)
		}
	}
	return nil
}

// FetchSnapshot returns the most recent archived snapshot. The second return
// reports whether one existed; a missing snapshot is not an error.
func (c *ArchiveClient) FetchSnapshot(ctx context.Context) (*models.Snapshot, bool, error) {
	if c == nil {
		return nil, false, fmt.Errorf("archive client not initialised")
	}
	if c.endpoint == "" {
		return nil, false, nil
	}

	if c.snapshotTTL > 0 {
		if data, err := c.cache.Get(ctx, snapshotCacheKey); err == nil {
			var snap models.Snapshot
			if err := json.Unmarshal(data, &snap); err == nil {
				return &snap, true, nil
			}
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"/v1/archive/snapshot", nil)
	if err != nil {
		return nil, false, err
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, false, nil
	}
	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		return nil, false, fmt.Errorf("fetch snapshot failed: %s", strings.TrimSpace(string(data)))
	}

	var snap models.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		return nil, false, fmt.Errorf("decode snapshot: %w", err)
	}
	if c.snapshotTTL > 0 {
		if payload, err := json.Marshal(snap); err == nil {
			_ = c.cache.Set(ctx, snapshotCacheKey, payload, c.snapshotTTL)
		}
	}
	return &snap, true, nil
}

func (c *ArchiveClient) postJSON(ctx context.Context, path string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("archive %s returned %s: %s", path, resp.Status, strings.TrimSpace(string(data)))
	}
	return nil
}

func (c *ArchiveClient) authorize(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}
