package insights

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/caresignal/recovery-engine/internal/models"
	"github.com/caresignal/recovery-engine/internal/utils"
)

// Mining thresholds.
const (
	recurringMinFrequency = 5
	risingWindowHours     = 24.0
	risingMinFrequency    = 3
	strategyUsageFloor    = 3
	topStrategyLimit      = 3
	criticalShareFloor    = 0.5
	criticalMinTotal      = 5
)

// Miner turns a learning snapshot into ranked insights.
type Miner struct {
	source Source
	logger *slog.Logger
}

// NewMiner wires a miner to its snapshot source.
func NewMiner(source Source, logger *slog.Logger) *Miner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Miner{source: source, logger: logger}
}

// Mine inspects the current learning state and returns insights ordered by
// descending score. An empty state yields an empty slice, never an error.
func (m *Miner) Mine() []models.Insight {
	snap := m.source.Export()
	now := time.Now().UTC()

	var out []models.Insight
	out = append(out, m.recurringCategories(snap, now)...)
	out = append(out, m.risingClusters(snap, now)...)
	out = append(out, m.effectiveStrategies(snap, now)...)
	out = append(out, m.criticalPressure(snap, now)...)

	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	m.logger.Debug("insights mined", "count", len(out))
	return out
}

// recurringCategories surfaces cluster categories whose combined frequency
// crosses the recurrence floor.
func (m *Miner) recurringCategories(snap models.Snapshot, now time.Time) []models.Insight {
	frequency := make(map[string]int)
	evidence := make(map[string][]string)
	for i := range snap.Clusters {
		c := &snap.Clusters[i]
		frequency[c.Category] += c.Frequency
		evidence[c.Category] = append(evidence[c.Category], c.ID)
	}

	categories := make([]string, 0, len(frequency))
	for cat := range frequency {
		categories = append(categories, cat)
	}
	sort.Strings(categories)

	var out []models.Insight
	for _, cat := range categories {
		total := frequency[cat]
		if total < recurringMinFrequency {
			continue
		}
		score := float64(total) / 20.0
		if score > 1 {
			score = 1
		}
		sort.Strings(evidence[cat])
		out = append(out, models.Insight{
			Type:        "recurring_category",
			Summary:     fmt.Sprintf("category %q recurred %d times across %d clusters", cat, total, len(evidence[cat])),
			Score:       score,
			Evidence:    evidence[cat],
			GeneratedAt: now,
		})
	}
	return out
}

// risingClusters surfaces clusters active within the last day that have
// already accumulated meaningful frequency.
func (m *Miner) risingClusters(snap models.Snapshot, now time.Time) []models.Insight {
	var out []models.Insight
	for i := range snap.Clusters {
		c := &snap.Clusters[i]
		age := utils.HoursSince(c.LastSeen)
		if age > risingWindowHours || c.Frequency < risingMinFrequency {
			continue
		}
		score := c.Confidence * (1 - age/risingWindowHours)
		out = append(out, models.Insight{
			Type: "rising_cluster",
			Summary: fmt.Sprintf("cluster %s (%s) saw %d patterns, last %.1fh ago",
				c.ID, c.Category, c.Frequency, age),
			Score:       score,
			Evidence:    []string{c.ID},
			GeneratedAt: now,
		})
	}
	return out
}

// criticalPressure fires when clusters dominated by critical-severity
// patterns account for at least half of everything observed.
func (m *Miner) criticalPressure(snap models.Snapshot, now time.Time) []models.Insight {
	var total, critical int
	var evidence []string
	for i := range snap.Clusters {
		c := &snap.Clusters[i]
		total += c.Frequency
		if c.Characteristics.DominantSeverity == models.SeverityCritical {
			critical += c.Frequency
			evidence = append(evidence, c.ID)
		}
	}
	if total < criticalMinTotal || critical == 0 {
		return nil
	}
	share := float64(critical) / float64(total)
	if share < criticalShareFloor {
		return nil
	}
	sort.Strings(evidence)
	return []models.Insight{{
		Type:        "critical_pressure",
		Summary:     fmt.Sprintf("critical-severity clusters carry %.0f%% of %d observed patterns", share*100, total),
		Score:       share,
		Evidence:    evidence,
		GeneratedAt: now,
	}}
}

// effectiveStrategies surfaces the strategies with the best tracked success
// rate, ignoring pairs with too little usage to trust.
func (m *Miner) effectiveStrategies(snap models.Snapshot, now time.Time) []models.Insight {
	perfs := make([]*models.StrategyPerformance, 0, len(snap.Performance))
	for i := range snap.Performance {
		p := &snap.Performance[i]
		if p.UsageCount >= strategyUsageFloor {
			perfs = append(perfs, p)
		}
	}
	sort.SliceStable(perfs, func(i, j int) bool {
		if perfs[i].SuccessRate != perfs[j].SuccessRate {
			return perfs[i].SuccessRate > perfs[j].SuccessRate
		}
		return perfs[i].StrategyID < perfs[j].StrategyID
	})
	if len(perfs) > topStrategyLimit {
		perfs = perfs[:topStrategyLimit]
	}

	out := make([]models.Insight, 0, len(perfs))
	for _, p := range perfs {
		out = append(out, models.Insight{
			Type: "effective_strategy",
			Summary: fmt.Sprintf("strategy %s succeeded %.0f%% of %d runs against cluster %s",
				p.StrategyID, p.SuccessRate*100, p.UsageCount, p.ClusterID),
			Score:       p.SuccessRate,
			Evidence:    []string{p.StrategyID, p.ClusterID},
			GeneratedAt: now,
		})
	}
	return out
}
