package learning

import (
	"time"

	"github.com/caresignal/recovery-engine/internal/models"
)

// Sweep removes patterns older than the horizon and clusters whose last
// activity predates it. Cluster membership lists are pruned of removed
// patterns; performance records survive sweeps so long-lived strategies keep
// their history. A non-positive horizon disables the sweep.
func (e *Engine) Sweep(horizon time.Duration) models.SweepResult {
	if horizon <= 0 {
		return models.SweepResult{}
	}
	cutoff := time.Now().UTC().Add(-horizon)

	e.mu.Lock()
	defer e.mu.Unlock()

	removed := make(map[string]struct{})
	for id, p := range e.store.patterns {
		if p.Timestamp.Before(cutoff) {
			removed[id] = struct{}{}
			delete(e.store.patterns, id)
		}
	}

	result := models.SweepResult{RemovedPatterns: len(removed), Cutoff: cutoff}
	for id, c := range e.store.clusters {
		if len(removed) > 0 {
			kept := c.PatternIDs[:0]
			for _, pid := range c.PatternIDs {
				if _, gone := removed[pid]; !gone {
					kept = append(kept, pid)
				}
			}
			c.PatternIDs = kept
		}
		if c.LastSeen.Before(cutoff) || len(c.PatternIDs) == 0 {
			delete(e.store.clusters, id)
			result.RemovedClusters++
		}
	}

	if result.RemovedPatterns > 0 || result.RemovedClusters > 0 {
		e.logger.Info("sweep completed",
			"removed_patterns", result.RemovedPatterns,
			"removed_clusters", result.RemovedClusters,
			"cutoff", cutoff,
		)
	}
	return result
}
