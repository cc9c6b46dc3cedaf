// Package learning implements the adaptive recovery engine: it clusters
// incoming error patterns by feature similarity, ranks recovery strategies
// against the pattern's cluster, and folds recorded outcomes back into the
// per-cluster statistics that drive future rankings.
//
// Clustering is greedy and online. Each pattern is assigned to the best
// matching existing centroid or seeds a new cluster, and assignments are
// never revisited, so observation order can influence the final shape.
package learning

import (
	"log/slog"
	"sort"
	"sync"

	"github.com/caresignal/recovery-engine/internal/models"
)

// Tuning defaults. Callers may override any of them through
// models.LearningParams; zero values fall back to these.
const (
	defaultSimilarityThreshold    = 0.85
	defaultLearningRate           = 0.1
	defaultConfidenceIncrement    = 0.05
	defaultConfidenceNudge        = 0.02
	defaultMinRecommendationScore = 0.3
	defaultSuccessWeight          = 0.4
	defaultCostWeight             = 0.3
	defaultRiskWeight             = 0.3
	defaultSafetyBonus            = 0.1
	defaultCriticalBonus          = 0.15
	defaultMaxAlternates          = 3
)

// Fresh-cluster and first-contact baselines.
const (
	initialClusterConfidence  = 0.5
	baselineSuccessRate       = 0.5
	baselineCostEffectiveness = 0.5
)

// DefaultParams returns the stock tuning knobs.
func DefaultParams() models.LearningParams {
	return models.LearningParams{
		SimilarityThreshold:    defaultSimilarityThreshold,
		LearningRate:           defaultLearningRate,
		ConfidenceIncrement:    defaultConfidenceIncrement,
		ConfidenceNudge:        defaultConfidenceNudge,
		MinRecommendationScore: defaultMinRecommendationScore,
		SuccessWeight:          defaultSuccessWeight,
		CostWeight:             defaultCostWeight,
		RiskWeight:             defaultRiskWeight,
		SafetyBonus:            defaultSafetyBonus,
		CriticalBonus:          defaultCriticalBonus,
		MaxAlternates:          defaultMaxAlternates,
	}
}

// normaliseParams fills unset knobs with defaults so partially configured
// params behave predictably.
func normaliseParams(p models.LearningParams) models.LearningParams {
	d := DefaultParams()
	if p.SimilarityThreshold <= 0 {
		p.SimilarityThreshold = d.SimilarityThreshold
	}
	if p.LearningRate <= 0 {
		p.LearningRate = d.LearningRate
	}
	if p.ConfidenceIncrement <= 0 {
		p.ConfidenceIncrement = d.ConfidenceIncrement
	}
	if p.ConfidenceNudge <= 0 {
		p.ConfidenceNudge = d.ConfidenceNudge
	}
	if p.MinRecommendationScore <= 0 {
		p.MinRecommendationScore = d.MinRecommendationScore
	}
	if p.SuccessWeight <= 0 {
		p.SuccessWeight = d.SuccessWeight
	}
	if p.CostWeight <= 0 {
		p.CostWeight = d.CostWeight
	}
	if p.RiskWeight <= 0 {
		p.RiskWeight = d.RiskWeight
	}
	if p.SafetyBonus <= 0 {
		p.SafetyBonus = d.SafetyBonus
	}
	if p.CriticalBonus <= 0 {
		p.CriticalBonus = d.CriticalBonus
	}
	if p.MaxAlternates <= 0 {
		p.MaxAlternates = d.MaxAlternates
	}
	return p
}

// Engine owns the pattern store and applies the clustering, recommendation,
// and outcome-learning rules to it. All exported methods are safe for
// concurrent use; a single RWMutex serializes writers.
type Engine struct {
	mu     sync.RWMutex
	store  *store
	params models.LearningParams
	logger *slog.Logger
}

// NewEngine builds an engine with the given tuning and seeds the catalog.
// Catalog entries that fail validation are skipped with a warning rather
// than rejecting the whole catalog.
func NewEngine(params models.LearningParams, catalog []models.RecoveryStrategy, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Engine{
		store:  newStore(),
		params: normaliseParams(params),
		logger: logger,
	}
	for i := range catalog {
		s := catalog[i]
		if err := s.Validate(); err != nil {
			logger.Warn("skipping invalid catalog strategy", "strategy_id", s.ID, "error", err)
			continue
		}
		e.store.strategies[s.ID] = s.Clone()
	}
	return e
}

// Params returns the effective tuning knobs after normalization.
func (e *Engine) Params() models.LearningParams {
	return e.params
}

// Pattern returns a copy of the stored pattern.
func (e *Engine) Pattern(id string) (*models.ErrorPattern, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	p, ok := e.store.patterns[id]
	if !ok {
		return nil, ErrPatternNotFound
	}
	return p.Clone(), nil
}

// Cluster returns a copy of the cluster with the given ID.
func (e *Engine) Cluster(id string) (*models.PatternCluster, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	c, ok := e.store.clusters[id]
	if !ok {
		return nil, ErrClusterNotFound
	}
	return c.Clone(), nil
}

// Clusters returns copies of all clusters, optionally filtered by cluster
// category, ordered by ID.
func (e *Engine) Clusters(category string) []*models.PatternCluster {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]*models.PatternCluster, 0, len(e.store.clusters))
	for _, id := range e.store.sortedClusterIDs() {
		c := e.store.clusters[id]
		if category != "" && c.Category != category {
			continue
		}
		out = append(out, c.Clone())
	}
	return out
}

// Strategies returns catalog copies ordered by descending priority, then ID.
func (e *Engine) Strategies() []*models.RecoveryStrategy {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]*models.RecoveryStrategy, 0, len(e.store.strategies))
	for _, s := range e.store.strategies {
		out = append(out, s.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority > out[j].Priority
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Performance returns a copy of the tracked record for the pair, if any.
func (e *Engine) Performance(strategyID, clusterID string) (*models.StrategyPerformance, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	perf, ok := e.store.performance[perfKey(strategyID, clusterID)]
	if !ok {
		return nil, false
	}
	return perf.Clone(), true
}

// PatternCount reports how many patterns are stored.
func (e *Engine) PatternCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.store.patterns)
}

// ClusterCount reports how many clusters exist.
func (e *Engine) ClusterCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.store.clusters)
}
