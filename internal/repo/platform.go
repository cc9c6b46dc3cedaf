package repo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/caresignal/recovery-engine/internal/cache"
	"github.com/caresignal/recovery-engine/internal/models"
)

// PlatformClient pulls recent error events from the clinical platform's
// gateway. Responses are cached per minute bucket so aggressive sync
// schedules do not hammer the gateway.
type PlatformClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	cache      cache.Provider
	eventsTTL  time.Duration
}

// NewPlatformClient constructs a platform client.
func NewPlatformClient(baseURL, apiKey string, timeout time.Duration, cacheProvider cache.Provider, eventsTTL time.Duration) *PlatformClient {
	if cacheProvider == nil {
		cacheProvider = cache.NoopProvider{}
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if eventsTTL < 0 {
		eventsTTL = 0
	}
	return &PlatformClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		cache:      cacheProvider,
		eventsTTL:  eventsTTL,
	}
}

// RecentErrors fetches error events observed since the given time. With no
// base URL configured it returns a small synthetic batch so the full
// ingest-cluster-recommend loop can run locally without the platform.
func (c *PlatformClient) RecentErrors(ctx context.Context, since time.Time, limit int) ([]models.PlatformErrorEvent, error) {
	if c == nil {
		return nil, fmt.Errorf("platform client not initialised")
	}
	if limit <= 0 {
		limit = 50
	}
	if c.baseURL == "" {
		return syntheticErrorEvents(since, limit), nil
	}

	cacheKey := ""
	if c.eventsTTL > 0 {
		cacheKey = cacheRecentErrorsKey(since, limit)
		if data, err := c.cache.Get(ctx, cacheKey); err == nil {
			var cached []models.PlatformErrorEvent
			if err := json.Unmarshal(data, &cached); err == nil {
				return cached, nil
			}
		}
	}

	payload := map[string]interface{}{
		"since": since.UTC().Format(time.RFC3339),
		"limit": limit,
	}
	var response struct {
		Events []models.PlatformErrorEvent `json:"events"`
	}
	if err := c.postJSON(ctx, "/api/v1/errors/recent", payload, &response); err != nil {
		return nil, fmt.Errorf("platform recent errors request failed: %w", err)
	}

	if c.eventsTTL > 0 && cacheKey != "" && len(response.Events) > 0 {
		if data, err := json.Marshal(response.Events); err == nil {
			_ = c.cache.Set(ctx, cacheKey, data, c.eventsTTL)
		}
	}
	return response.Events, nil
}

func (c *PlatformClient) postJSON(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("platform returned %s", resp.Status)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func cacheRecentErrorsKey(since time.Time, limit int) string {
	bucket := since.UTC().Truncate(time.Minute).Format(time.RFC3339)
	return fmt.Sprintf("platform:errors:%s:%d", bucket, limit)
}

// syntheticErrorEvents fabricates a representative slice of clinical error
// traffic: a PHI access violation, an infrastructure failure, a claims batch
// failure, and a routine timeout.
func syntheticErrorEvents(since time.Time, limit int) []models.PlatformErrorEvent {
	base := since
	if base.IsZero() {
		base = time.Now().UTC().Add(-10 * time.Minute)
	}
	events := []models.PlatformErrorEvent{
		{
			EventID:        "synthetic-phi-access",
			OccurredAt:     base.Add(1 * time.Minute),
			Category:       "unauthorized_data_access",
			Code:           "AUTHZ-403",
			Severity:       "critical",
			Endpoint:       "/api/patients/records",
			UserRole:       "billing_clerk",
			ResourceType:   "patient_record",
			ContainsPHI:    true,
			ComplianceRisk: true,
			WorkflowStage:  "chart_review",
		},
		{
			EventID:       "synthetic-db-failover",
			OccurredAt:    base.Add(2 * time.Minute),
			Category:      "database_error",
			Code:          "DB-CONN-RESET",
			Severity:      "high",
			Endpoint:      "/api/orders",
			ResourceType:  "lab_order",
			WorkflowStage: "order_entry",
		},
		{
			EventID:       "synthetic-claims-batch",
			OccurredAt:    base.Add(3 * time.Minute),
			Category:      "batch_failure",
			Code:          "CLAIMS-EXPORT-17",
			Severity:      "medium",
			Endpoint:      "/jobs/claims-export",
			ResourceType:  "claim",
			WorkflowStage: "billing",
		},
		{
			EventID:       "synthetic-timeout",
			OccurredAt:    base.Add(4 * time.Minute),
			Category:      "network_timeout",
			Code:          "GW-504",
			Severity:      "low",
			Endpoint:      "/api/schedule",
			ResourceType:  "appointment",
			WorkflowStage: "scheduling",
		},
	}
	if limit < len(events) {
		events = events[:limit]
	}
	return events
}
