package insights

import (
	"strings"
	"testing"
	"time"

	"github.com/caresignal/recovery-engine/internal/models"
)

func fixedSource(snap models.Snapshot) Source {
	return SourceFunc(func() models.Snapshot { return snap })
}

func TestMineEmptyState(t *testing.T) {
	m := NewMiner(fixedSource(models.Snapshot{}), nil)
	if got := m.Mine(); len(got) != 0 {
		t.Fatalf("expected no insights for empty state, got %d", len(got))
	}
}

func TestMineRecurringCategories(t *testing.T) {
	now := time.Now().UTC()
	snap := models.Snapshot{
		Clusters: []models.PatternCluster{
			{ID: "cluster-a", Category: "phi_security", Frequency: 4, Confidence: 0.6, LastSeen: now.Add(-100 * time.Hour)},
			{ID: "cluster-b", Category: "phi_security", Frequency: 3, Confidence: 0.5, LastSeen: now.Add(-90 * time.Hour)},
			{ID: "cluster-c", Category: "network_timeout", Frequency: 2, Confidence: 0.5, LastSeen: now.Add(-80 * time.Hour)},
		},
	}

	insights := NewMiner(fixedSource(snap), nil).Mine()
	var recurring []models.Insight
	for _, in := range insights {
		if in.Type == "recurring_category" {
			recurring = append(recurring, in)
		}
	}
	if len(recurring) != 1 {
		t.Fatalf("expected one recurring category, got %d", len(recurring))
	}
	in := recurring[0]
	if !strings.Contains(in.Summary, "phi_security") {
		t.Fatalf("unexpected summary: %q", in.Summary)
	}
	// Combined frequency 7 over a denominator of 20.
	if in.Score < 0.34 || in.Score > 0.36 {
		t.Fatalf("unexpected score: %v", in.Score)
	}
	if len(in.Evidence) != 2 || in.Evidence[0] != "cluster-a" || in.Evidence[1] != "cluster-b" {
		t.Fatalf("unexpected evidence: %v", in.Evidence)
	}
}

func TestMineRisingClusters(t *testing.T) {
	now := time.Now().UTC()
	snap := models.Snapshot{
		Clusters: []models.PatternCluster{
			{ID: "cluster-hot", Category: "database_error", Frequency: 6, Confidence: 0.8, LastSeen: now.Add(-time.Hour)},
			{ID: "cluster-cold", Category: "database_error", Frequency: 6, Confidence: 0.8, LastSeen: now.Add(-72 * time.Hour)},
			{ID: "cluster-quiet", Category: "batch_failure", Frequency: 1, Confidence: 0.5, LastSeen: now.Add(-time.Hour)},
		},
	}

	insights := NewMiner(fixedSource(snap), nil).Mine()
	var rising []models.Insight
	for _, in := range insights {
		if in.Type == "rising_cluster" {
			rising = append(rising, in)
		}
	}
	if len(rising) != 1 {
		t.Fatalf("expected one rising cluster, got %d", len(rising))
	}
	if rising[0].Evidence[0] != "cluster-hot" {
		t.Fatalf("unexpected rising cluster: %v", rising[0].Evidence)
	}
	if rising[0].Score <= 0 || rising[0].Score > 0.8 {
		t.Fatalf("score should decay from confidence with age, got %v", rising[0].Score)
	}
}

func TestMineEffectiveStrategies(t *testing.T) {
	now := time.Now().UTC()
	snap := models.Snapshot{
		Performance: []models.StrategyPerformance{
			{StrategyID: "failover_to_replica", ClusterID: "cluster-1", SuccessRate: 0.9, UsageCount: 8, LastUsed: now},
			{StrategyID: "retry_with_backoff", ClusterID: "cluster-1", SuccessRate: 0.7, UsageCount: 5, LastUsed: now},
			{StrategyID: "cache_served_response", ClusterID: "cluster-2", SuccessRate: 0.95, UsageCount: 1, LastUsed: now},
			{StrategyID: "manual_data_correction", ClusterID: "default", SuccessRate: 0.6, UsageCount: 4, LastUsed: now},
			{StrategyID: "escalate_to_oncall", ClusterID: "cluster-3", SuccessRate: 0.5, UsageCount: 12, LastUsed: now},
		},
	}

	insights := NewMiner(fixedSource(snap), nil).Mine()
	var effective []models.Insight
	for _, in := range insights {
		if in.Type == "effective_strategy" {
			effective = append(effective, in)
		}
	}
	if len(effective) != 3 {
		t.Fatalf("expected top 3 strategies, got %d", len(effective))
	}
	if effective[0].Evidence[0] != "failover_to_replica" {
		t.Fatalf("expected highest success rate first, got %v", effective[0].Evidence)
	}
	for _, in := range effective {
		if in.Evidence[0] == "cache_served_response" {
			t.Fatalf("low-usage pair must be ignored")
		}
	}
}

func TestMineCriticalPressure(t *testing.T) {
	now := time.Now().UTC()
	critical := models.ClusterCharacteristics{DominantSeverity: models.SeverityCritical}
	snap := models.Snapshot{
		Clusters: []models.PatternCluster{
			{ID: "cluster-z", Category: "phi_security", Frequency: 4, LastSeen: now.Add(-60 * time.Hour), Characteristics: critical},
			{ID: "cluster-y", Category: "compliance_risk", Frequency: 3, LastSeen: now.Add(-50 * time.Hour), Characteristics: critical},
			{ID: "cluster-x", Category: "network_timeout", Frequency: 3, LastSeen: now.Add(-40 * time.Hour)},
		},
	}

	insights := NewMiner(fixedSource(snap), nil).Mine()
	var pressure []models.Insight
	for _, in := range insights {
		if in.Type == "critical_pressure" {
			pressure = append(pressure, in)
		}
	}
	if len(pressure) != 1 {
		t.Fatalf("expected one critical pressure insight, got %d", len(pressure))
	}
	in := pressure[0]
	// 7 of 10 observed patterns sit in critical-dominant clusters.
	if in.Score < 0.69 || in.Score > 0.71 {
		t.Fatalf("unexpected share: %v", in.Score)
	}
	if len(in.Evidence) != 2 || in.Evidence[0] != "cluster-y" || in.Evidence[1] != "cluster-z" {
		t.Fatalf("unexpected evidence: %v", in.Evidence)
	}

	// Below half the traffic, the signal stays quiet.
	snap.Clusters[0].Frequency = 1
	snap.Clusters[1].Frequency = 1
	for _, in := range NewMiner(fixedSource(snap), nil).Mine() {
		if in.Type == "critical_pressure" {
			t.Fatalf("pressure insight should need a majority share")
		}
	}
}

func TestMineOrdersByScore(t *testing.T) {
	now := time.Now().UTC()
	snap := models.Snapshot{
		Clusters: []models.PatternCluster{
			{ID: "cluster-a", Category: "phi_security", Frequency: 25, Confidence: 0.4, LastSeen: now.Add(-12 * time.Hour)},
		},
		Performance: []models.StrategyPerformance{
			{StrategyID: "phi_access_lockdown", ClusterID: "cluster-a", SuccessRate: 0.85, UsageCount: 6, LastUsed: now},
		},
	}

	insights := NewMiner(fixedSource(snap), nil).Mine()
	if len(insights) < 2 {
		t.Fatalf("expected several insights, got %d", len(insights))
	}
	for i := 1; i < len(insights); i++ {
		if insights[i].Score > insights[i-1].Score {
			t.Fatalf("insights out of order at %d: %v > %v", i, insights[i].Score, insights[i-1].Score)
		}
	}
}
