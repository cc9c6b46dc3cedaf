package learning

import (
	"sort"
	"strings"

	"github.com/caresignal/recovery-engine/internal/models"
)

// store holds every learned artifact in plain maps. It carries no locking of
// its own; the owning Engine serializes access.
type store struct {
	patterns    map[string]*models.ErrorPattern
	clusters    map[string]*models.PatternCluster
	strategies  map[string]*models.RecoveryStrategy
	performance map[string]*models.StrategyPerformance
}

func newStore() *store {
	return &store{
		patterns:    make(map[string]*models.ErrorPattern),
		clusters:    make(map[string]*models.PatternCluster),
		strategies:  make(map[string]*models.RecoveryStrategy),
		performance: make(map[string]*models.StrategyPerformance),
	}
}

// perfKey joins strategy and cluster into the performance map key. Outcomes
// recorded before any cluster exists for the pattern land in the "default"
// bucket.
func perfKey(strategyID, clusterID string) string {
	if clusterID == "" {
		clusterID = "default"
	}
	return strategyID + "|" + clusterID
}

// clusterFor returns the cluster holding the given pattern, or nil.
func (s *store) clusterFor(patternID string) *models.PatternCluster {
	for _, c := range s.clusters {
		if c.Contains(patternID) {
			return c
		}
	}
	return nil
}

// ensurePerformance returns the tracked record for the pair, creating it
// with neutral baselines on first use.
func (s *store) ensurePerformance(strategyID, clusterID string) *models.StrategyPerformance {
	key := perfKey(strategyID, clusterID)
	if perf, ok := s.performance[key]; ok {
		return perf
	}
	if clusterID == "" {
		clusterID = "default"
	}
	perf := &models.StrategyPerformance{
		StrategyID:        strategyID,
		ClusterID:         clusterID,
		SuccessRate:       baselineSuccessRate,
		CostEffectiveness: baselineCostEffectiveness,
		PatientImpact:     models.ImpactNone,
		ComplianceScore:   1.0,
	}
	s.performance[key] = perf
	return perf
}

// sortedClusterIDs returns cluster IDs in lexical order for stable iteration
// where output ordering is visible to callers.
func (s *store) sortedClusterIDs() []string {
	ids := make([]string, 0, len(s.clusters))
	for id := range s.clusters {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// splitPerfKey recovers the strategy and cluster halves of a performance key.
func splitPerfKey(key string) (strategyID, clusterID string) {
	if i := strings.IndexByte(key, '|'); i >= 0 {
		return key[:i], key[i+1:]
	}
	return key, ""
}
