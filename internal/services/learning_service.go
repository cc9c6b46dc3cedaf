// Package services wires the learning engine to its upstream dependencies
// and exposes the operation surface the HTTP layer serves.
package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/caresignal/recovery-engine/internal/learning"
	"github.com/caresignal/recovery-engine/internal/metrics"
	"github.com/caresignal/recovery-engine/internal/models"
	"github.com/caresignal/recovery-engine/internal/utils"
)

const latencyLogEvery = 20

// Archive is the persistence surface the service writes learning artifacts
// to. Writes are best effort; the learning state is authoritative in memory.
type Archive interface {
	StorePattern(ctx context.Context, pattern models.ErrorPattern) error
	StoreOutcome(ctx context.Context, record models.OutcomeRecord) error
	StoreSnapshot(ctx context.Context, snap models.Snapshot) error
	FetchSnapshot(ctx context.Context) (*models.Snapshot, bool, error)
}

// EventSource supplies recent error events from the host platform.
type EventSource interface {
	RecentErrors(ctx context.Context, since time.Time, limit int) ([]models.PlatformErrorEvent, error)
}

// InsightMiner derives observations from the learning state.
type InsightMiner interface {
	Mine() []models.Insight
}

// Options carries the service-level tuning that is not learning math.
type Options struct {
	Retention  time.Duration
	SyncWindow time.Duration
	SyncLimit  int
}

// LearningService is the facade over the engine, archive, and platform feed.
type LearningService struct {
	engine    *learning.Engine
	archive   Archive
	events    EventSource
	miner     InsightMiner
	logger    *slog.Logger
	latencies *utils.LatencyTracker
	opts      Options
}

// NewLearningService constructs the service facade. Archive, events, and
// miner may be nil; the corresponding operations degrade to no-ops or
// explicit errors.
func NewLearningService(engine *learning.Engine, archive Archive, events EventSource, miner InsightMiner, opts Options, logger *slog.Logger) *LearningService {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.SyncWindow <= 0 {
		opts.SyncWindow = 15 * time.Minute
	}
	if opts.SyncLimit <= 0 {
		opts.SyncLimit = 200
	}
	return &LearningService{
		engine:    engine,
		archive:   archive,
		events:    events,
		miner:     miner,
		logger:    logger,
		latencies: utils.NewLatencyTracker(1024),
		opts:      opts,
	}
}

// ObservePattern ingests one pattern: defaults, validation, cluster
// assignment, metrics, and a best-effort archive write.
func (s *LearningService) ObservePattern(ctx context.Context, p models.ErrorPattern) (*models.AssignmentResult, error) {
	start := time.Now()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Timestamp.IsZero() {
		p.Timestamp = time.Now().UTC()
	}
	p.Severity = models.Severity(strings.ToLower(string(p.Severity)))

	res, err := s.engine.Observe(p)
	metrics.ObserveDuration("observe_pattern", time.Since(start))
	if err != nil {
		return nil, err
	}
	metrics.ObservePattern(res.Category, res.Created, s.engine.ClusterCount())

	if s.archive != nil {
		if err := s.archive.StorePattern(ctx, p); err != nil {
			s.logger.Warn("archive pattern write failed",
				slog.String("pattern_id", p.ID), slog.Any("error", err))
		}
	}
	return res, nil
}

// Recommend returns the ranked strategy pick for a stored pattern.
func (s *LearningService) Recommend(ctx context.Context, patternID string) (*models.Recommendation, error) {
	start := time.Now()
	rec, err := s.engine.Recommend(patternID)
	duration := time.Since(start)
	metrics.ObserveDuration("recommend", duration)

	switch {
	case err == nil:
	case errors.Is(err, learning.ErrPatternNotFound):
		metrics.ObserveRecommendation(metrics.RecommendationNotFound)
		return nil, err
	case errors.Is(err, learning.ErrNoApplicableStrategy):
		metrics.ObserveRecommendation(metrics.RecommendationNoStrategy)
		return nil, err
	default:
		metrics.ObserveRecommendation(metrics.RecommendationError)
		s.logger.Error("recommendation failed", slog.String("pattern_id", patternID), slog.Any("error", err))
		return nil, err
	}

	metrics.ObserveRecommendation(metrics.RecommendationOK)
	s.latencies.Observe(duration)
	if count := s.latencies.Count(); count >= latencyLogEvery && count%latencyLogEvery == 0 {
		s.logger.Info("recommendation latency",
			slog.Duration("p95", s.latencies.Percentile(95)),
			slog.Duration("avg", s.latencies.Average()),
			slog.Int("samples", count),
		)
	}
	return rec, nil
}

// RecordOutcome folds a strategy execution result into the statistics and
// archives the resulting record best effort.
func (s *LearningService) RecordOutcome(ctx context.Context, req models.OutcomeRequest) (*models.OutcomeRecord, error) {
	start := time.Now()
	record, err := s.engine.RecordOutcome(req)
	metrics.ObserveDuration("record_outcome", time.Since(start))
	if err != nil {
		return nil, err
	}
	metrics.ObserveOutcome(string(record.Outcome))

	if s.archive != nil {
		if err := s.archive.StoreOutcome(ctx, *record); err != nil {
			s.logger.Warn("archive outcome write failed",
				slog.String("strategy_id", record.StrategyID), slog.Any("error", err))
		}
	}
	return record, nil
}

// SyncFromPlatform pulls the recent error feed and ingests every event that
// is not already known. Duplicates are skipped, invalid events rejected. A
// zero since falls back to the configured window behind now, a non-positive
// limit to the configured limit, so callers can backfill selectively.
func (s *LearningService) SyncFromPlatform(ctx context.Context, since time.Time, limit int) (*models.SyncSummary, error) {
	if s.events == nil {
		return nil, utils.NewAppError("SyncFromPlatform", "no platform feed configured", nil)
	}
	start := time.Now()
	defer func() { metrics.ObserveDuration("sync", time.Since(start)) }()

	if since.IsZero() {
		since = time.Now().UTC().Add(-s.opts.SyncWindow)
	}
	if limit <= 0 {
		limit = s.opts.SyncLimit
	}
	events, err := s.events.RecentErrors(ctx, since, limit)
	if err != nil {
		return nil, utils.NewAppError("SyncFromPlatform", "platform feed unavailable", err)
	}

	summary := &models.SyncSummary{}
	for _, ev := range events {
		if _, err := s.ObservePattern(ctx, patternFromEvent(ev)); err != nil {
			if errors.Is(err, learning.ErrDuplicatePattern) {
				summary.Skipped++
				continue
			}
			summary.Rejected++
			s.logger.Warn("platform event rejected",
				slog.String("event_id", ev.EventID), slog.Any("error", err))
			continue
		}
		summary.Ingested++
	}

	metrics.ObserveSync(summary.Ingested, summary.Skipped, summary.Rejected)
	s.logger.Info("platform sync completed",
		slog.Int("ingested", summary.Ingested),
		slog.Int("skipped", summary.Skipped),
		slog.Int("rejected", summary.Rejected),
	)
	return summary, nil
}

// Insights mines the current learning state. Without a miner it returns an
// empty slice.
func (s *LearningService) Insights(ctx context.Context) []models.Insight {
	if s.miner == nil {
		return []models.Insight{}
	}
	start := time.Now()
	out := s.miner.Mine()
	metrics.ObserveDuration("insights", time.Since(start))
	return out
}

// Export returns the full learning state, optionally persisting it to the
// archive as a side effect. A failed persist is logged, not returned; the
// caller still gets their snapshot.
func (s *LearningService) Export(ctx context.Context, persist bool) models.Snapshot {
	snap := s.engine.Export()
	if persist && s.archive != nil {
		if err := s.archive.StoreSnapshot(ctx, snap); err != nil {
			s.logger.Warn("archive snapshot write failed", slog.Any("error", err))
		}
	}
	return snap
}

// Import replaces the learning state from a snapshot.
func (s *LearningService) Import(ctx context.Context, snap models.Snapshot) error {
	start := time.Now()
	err := s.engine.Import(snap)
	metrics.ObserveDuration("import", time.Since(start))
	return err
}

// Sweep removes state older than the horizon; a non-positive horizon uses
// the configured retention.
func (s *LearningService) Sweep(ctx context.Context, horizon time.Duration) models.SweepResult {
	if horizon <= 0 {
		horizon = s.opts.Retention
	}
	res := s.engine.Sweep(horizon)
	metrics.ObserveSweep(res.RemovedPatterns, res.RemovedClusters, s.engine.ClusterCount())
	return res
}

// RestoreFromArchive warm-starts the engine from the latest archived
// snapshot, reporting whether one was found.
func (s *LearningService) RestoreFromArchive(ctx context.Context) (bool, error) {
	if s.archive == nil {
		return false, nil
	}
	snap, found, err := s.archive.FetchSnapshot(ctx)
	if err != nil {
		return false, utils.NewAppError("RestoreFromArchive", "snapshot fetch failed", err)
	}
	if !found {
		return false, nil
	}
	if err := s.engine.Import(*snap); err != nil {
		return false, utils.NewAppError("RestoreFromArchive", "archived snapshot rejected", err)
	}
	return true, nil
}

// PersistSnapshot writes the current state to the archive, used on shutdown.
func (s *LearningService) PersistSnapshot(ctx context.Context) error {
	if s.archive == nil {
		return nil
	}
	return s.archive.StoreSnapshot(ctx, s.engine.Export())
}

// Pattern returns one stored pattern.
func (s *LearningService) Pattern(ctx context.Context, id string) (*models.ErrorPattern, error) {
	return s.engine.Pattern(id)
}

// Cluster returns one cluster.
func (s *LearningService) Cluster(ctx context.Context, id string) (*models.PatternCluster, error) {
	return s.engine.Cluster(id)
}

// Clusters lists clusters, optionally filtered by category.
func (s *LearningService) Clusters(ctx context.Context, category string) []*models.PatternCluster {
	return s.engine.Clusters(category)
}

// Strategies lists the catalog ordered by priority.
func (s *LearningService) Strategies(ctx context.Context) []*models.RecoveryStrategy {
	return s.engine.Strategies()
}

func patternFromEvent(ev models.PlatformErrorEvent) models.ErrorPattern {
	extra := make(map[string]string, len(ev.Attributes))
	for k, v := range ev.Attributes {
		extra[k] = v
	}
	pctx := models.PatternContext{
		Endpoint:     ev.Endpoint,
		UserRole:     ev.UserRole,
		ResourceType: ev.ResourceType,
	}
	if v, ok := extra["component"]; ok {
		pctx.Component = v
		delete(extra, "component")
	}
	if v, ok := extra["facility_id"]; ok {
		pctx.FacilityID = v
		delete(extra, "facility_id")
	}
	if len(extra) > 0 {
		pctx.Extra = extra
	}
	return models.ErrorPattern{
		ID:             ev.EventID,
		Timestamp:      ev.OccurredAt,
		Category:       ev.Category,
		Code:           ev.Code,
		Severity:       models.Severity(strings.ToLower(ev.Severity)),
		Context:        pctx,
		ContainsPHI:    ev.ContainsPHI,
		ComplianceRisk: ev.ComplianceRisk,
		WorkflowStage:  ev.WorkflowStage,
	}
}
