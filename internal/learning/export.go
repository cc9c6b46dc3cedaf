package learning

import (
	"fmt"
	"sort"
	"time"

	"github.com/caresignal/recovery-engine/internal/models"
)

// Export returns a deep copy of the full learning state. Collections are
// sorted by ID so successive exports of the same state are byte-identical
// once serialized.
func (e *Engine) Export() models.Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()

	snap := models.Snapshot{
		ExportedAt:  time.Now().UTC(),
		Params:      e.params,
		Patterns:    make([]models.ErrorPattern, 0, len(e.store.patterns)),
		Clusters:    make([]models.PatternCluster, 0, len(e.store.clusters)),
		Strategies:  make([]models.RecoveryStrategy, 0, len(e.store.strategies)),
		Performance: make([]models.StrategyPerformance, 0, len(e.store.performance)),
	}
	for _, p := range e.store.patterns {
		snap.Patterns = append(snap.Patterns, *p.Clone())
	}
	for _, c := range e.store.clusters {
		snap.Clusters = append(snap.Clusters, *c.Clone())
	}
	for _, s := range e.store.strategies {
		snap.Strategies = append(snap.Strategies, *s.Clone())
	}
	for _, perf := range e.store.performance {
		snap.Performance = append(snap.Performance, *perf.Clone())
	}

	sort.Slice(snap.Patterns, func(i, j int) bool { return snap.Patterns[i].ID < snap.Patterns[j].ID })
	sort.Slice(snap.Clusters, func(i, j int) bool { return snap.Clusters[i].ID < snap.Clusters[j].ID })
	sort.Slice(snap.Strategies, func(i, j int) bool { return snap.Strategies[i].ID < snap.Strategies[j].ID })
	sort.Slice(snap.Performance, func(i, j int) bool {
		if snap.Performance[i].StrategyID != snap.Performance[j].StrategyID {
			return snap.Performance[i].StrategyID < snap.Performance[j].StrategyID
		}
		return snap.Performance[i].ClusterID < snap.Performance[j].ClusterID
	})
	return snap
}

// Import replaces the learning state with the snapshot's collections. Every
// record is validated before anything is touched; a single invalid record
// rejects the whole snapshot and leaves the current state intact. The
// snapshot's params are informational and do not override the engine's
// configured tuning.
func (e *Engine) Import(snap models.Snapshot) error {
	for i := range snap.Patterns {
		if err := snap.Patterns[i].Validate(); err != nil {
			return fmt.Errorf("import pattern %d: %w", i, err)
		}
	}
	clusterIDs := make(map[string]struct{}, len(snap.Clusters))
	for i := range snap.Clusters {
		if err := snap.Clusters[i].Validate(); err != nil {
			return fmt.Errorf("import cluster %d: %w", i, err)
		}
		clusterIDs[snap.Clusters[i].ID] = struct{}{}
	}
	for i := range snap.Strategies {
		if err := snap.Strategies[i].Validate(); err != nil {
			return fmt.Errorf("import strategy %d: %w", i, err)
		}
	}
	for i := range snap.Performance {
		perf := &snap.Performance[i]
		if err := perf.Validate(); err != nil {
			return fmt.Errorf("import performance %d: %w", i, err)
		}
		if perf.ClusterID != "default" {
			if _, ok := clusterIDs[perf.ClusterID]; !ok {
				return fmt.Errorf("import performance %d: %w: unknown cluster %s",
					i, models.ErrInvalid, perf.ClusterID)
			}
		}
	}

	next := newStore()
	for i := range snap.Patterns {
		next.patterns[snap.Patterns[i].ID] = snap.Patterns[i].Clone()
	}
	for i := range snap.Clusters {
		next.clusters[snap.Clusters[i].ID] = snap.Clusters[i].Clone()
	}
	for i := range snap.Strategies {
		next.strategies[snap.Strategies[i].ID] = snap.Strategies[i].Clone()
	}
	for i := range snap.Performance {
		perf := snap.Performance[i].Clone()
		next.performance[perfKey(perf.StrategyID, perf.ClusterID)] = perf
	}

	e.mu.Lock()
	e.store = next
	e.mu.Unlock()

	e.logger.Info("learning state imported",
		"patterns", len(snap.Patterns),
		"clusters", len(snap.Clusters),
		"strategies", len(snap.Strategies),
		"performance_records", len(snap.Performance),
	)
	return nil
}
