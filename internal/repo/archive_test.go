package repo

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/caresignal/recovery-engine/internal/cache"
	"github.com/caresignal/recovery-engine/internal/models"
)

func TestArchiveStorePatternNoEndpoint(t *testing.T) {
	c := NewArchiveClient("", "", time.Second, cache.NoopProvider{}, 0)
	p := models.ErrorPattern{ID: "p-1", Timestamp: time.Now(), Category: "network_timeout", Severity: models.SeverityLow}
	if err := c.StorePattern(context.Background(), p); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
}

func TestArchiveStoreOutcomeNoEndpoint(t *testing.T) {
	c := NewArchiveClient("", "", time.Second, cache.NoopProvider{}, 0)
	rec := models.OutcomeRecord{StrategyID: "retry_with_backoff", PatternID: "p-1", ClusterID: "default", Outcome: models.OutcomeSuccess, RecordedAt: time.Now()}
	if err := c.StoreOutcome(context.Background(), rec); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
}

func TestArchiveFetchSnapshotNoEndpoint(t *testing.T) {
	c := NewArchiveClient("", "", time.Second, cache.NoopProvider{}, 0)
	snap, ok, err := c.FetchSnapshot(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok || snap != nil {
		t.Fatalf("expected no snapshot without an endpoint, got ok=%v snap=%+v", ok, snap)
	}
}

func TestArchiveFetchSnapshotMissing(t *testing.T) {
	c := NewArchiveClient("https://archive.test", "", time.Second, cache.NoopProvider{}, 0)
	c.httpClient = newTestClient(roundTripFunc(func(req *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusNotFound,
			Body:       io.NopCloser(bytes.NewReader(nil)),
			Header:     make(http.Header),
		}, nil
	}))

	snap, ok, err := c.FetchSnapshot(context.Background())
	if err != nil {
		t.Fatalf("missing snapshot should not be an error, got %v", err)
	}
	if ok || snap != nil {
		t.Fatalf("expected ok=false for 404, got ok=%v snap=%+v", ok, snap)
	}
}

func TestArchiveFetchSnapshotCachesResults(t *testing.T) {
	var hits int
	cacheStub := newStubCache()
	c := NewArchiveClient("https://archive.test", "secret", time.Second, cacheStub, time.Minute)
	c.httpClient = newTestClient(roundTripFunc(func(req *http.Request) (*http.Response, error) {
		hits++
		if req.URL.Path != "/v1/archive/snapshot" {
			t.Fatalf("unexpected path: %s", req.URL.Path)
		}
		if got := req.Header.Get("Authorization"); got != "Bearer secret" {
			t.Fatalf("unexpected authorization header: %q", got)
		}
		payload, err := json.Marshal(models.Snapshot{
			ExportedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
			Patterns:   []models.ErrorPattern{{ID: "p-1", Timestamp: time.Now(), Category: "database_error", Severity: models.SeverityHigh}},
		})
		if err != nil {
			t.Fatalf("marshal fixture: %v", err)
		}
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(bytes.NewReader(payload)),
			Header:     make(http.Header),
		}, nil
	}))

	ctx := context.Background()
	first, ok, err := c.FetchSnapshot(ctx)
	if err != nil {
		t.Fatalf("unexpected error on first fetch: %v", err)
	}
	if !ok || first == nil || len(first.Patterns) != 1 {
		t.Fatalf("unexpected snapshot payload: ok=%v snap=%+v", ok, first)
	}
	if hits != 1 {
		t.Fatalf("expected one upstream call, got %d", hits)
	}

	second, ok, err := c.FetchSnapshot(ctx)
	if err != nil {
		t.Fatalf("unexpected error on cached fetch: %v", err)
	}
	if !ok || second == nil || len(second.Patterns) != 1 {
		t.Fatalf("unexpected cached payload: ok=%v snap=%+v", ok, second)
	}
	if hits != 1 {
		t.Fatalf("cache miss triggered network call; hits=%d", hits)
	}
}

func TestArchiveStoreSnapshotRefreshesCache(t *testing.T) {
	var hits int
	cacheStub := newStubCache()
	c := NewArchiveClient("https://archive.test", "", time.Second, cacheStub, time.Minute)
	c.httpClient = newTestClient(roundTripFunc(func(req *http.Request) (*http.Response, error) {
		hits++
		if req.Method != http.MethodPost || req.URL.Path != "/v1/archive/snapshot" {
			t.Fatalf("unexpected request: %s %s", req.Method, req.URL.Path)
		}
		return &http.Response{
			StatusCode: http.StatusCreated,
			Body:       io.NopCloser(bytes.NewReader(nil)),
			Header:     make(http.Header),
		}, nil
	}))

	ctx := context.Background()
	snap := models.Snapshot{
		ExportedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		Clusters:   []models.PatternCluster{{ID: "cluster-1", Category: "database_error", Centroid: []float64{1}, Confidence: 0.5, Frequency: 1}},
	}
	if err := c.StoreSnapshot(ctx, snap); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hits != 1 {
		t.Fatalf("expected one upstream call, got %d", hits)
	}

	// The fetch that follows a store should be answered from cache.
	restored, ok, err := c.FetchSnapshot(ctx)
	if err != nil || !ok {
		t.Fatalf("expected cached snapshot, got ok=%v err=%v", ok, err)
	}
	if len(restored.Clusters) != 1 || restored.Clusters[0].ID != "cluster-1" {
		t.Fatalf("unexpected cached snapshot: %+v", restored)
	}
	if hits != 1 {
		t.Fatalf("fetch after store hit upstream; hits=%d", hits)
	}
}

func TestArchiveStorePatternUpstreamFailure(t *testing.T) {
	c := NewArchiveClient("https://archive.test", "", time.Second, cache.NoopProvider{}, 0)
	c.httpClient = newTestClient(roundTripFunc(func(req *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusInternalServerError,
			Status:     "500 Internal Server Error",
			Body:       io.NopCloser(bytes.NewReader([]byte("archive unavailable"))),
			Header:     make(http.Header),
		}, nil
	}))

	p := models.ErrorPattern{ID: "p-1", Timestamp: time.Now(), Category: "network_timeout", Severity: models.SeverityLow}
	if err := c.StorePattern(context.Background(), p); err == nil {
		t.Fatalf("expected error for upstream failure")
	}
}
