package learning

import (
	"errors"
	"testing"

	"github.com/caresignal/recovery-engine/internal/models"
)

func TestZeroParamsFallBackToDefaults(t *testing.T) {
	e := NewEngine(models.LearningParams{}, nil, nil)
	if e.Params() != DefaultParams() {
		t.Fatalf("expected defaults, got %+v", e.Params())
	}
}

func TestPartialParamsKeepOverrides(t *testing.T) {
	e := NewEngine(models.LearningParams{LearningRate: 0.2, MaxAlternates: 5}, nil, nil)
	p := e.Params()
	if p.LearningRate != 0.2 {
		t.Fatalf("override lost: %v", p.LearningRate)
	}
	if p.MaxAlternates != 5 {
		t.Fatalf("override lost: %v", p.MaxAlternates)
	}
	if p.SimilarityThreshold != defaultSimilarityThreshold {
		t.Fatalf("unset knob should default, got %v", p.SimilarityThreshold)
	}
}

func TestStrategiesOrderedByPriority(t *testing.T) {
	e := newTestEngine()
	strategies := e.Strategies()
	if len(strategies) != len(DefaultCatalog()) {
		t.Fatalf("expected %d strategies, got %d", len(DefaultCatalog()), len(strategies))
	}
	if strategies[0].ID != "phi_access_lockdown" {
		t.Fatalf("expected highest priority first, got %s", strategies[0].ID)
	}
	for i := 1; i < len(strategies); i++ {
		if strategies[i].Priority > strategies[i-1].Priority {
			t.Fatalf("strategies out of order at %d: %d > %d", i, strategies[i].Priority, strategies[i-1].Priority)
		}
	}
}

func TestNewEngineSkipsInvalidCatalogEntries(t *testing.T) {
	catalog := []models.RecoveryStrategy{
		{
			ID: "valid", Name: "Valid", Type: models.StrategyManual,
			Actions: []string{"act"}, RiskLevel: models.RiskLow,
		},
		{
			ID: "invalid", Name: "Invalid", Type: "bogus",
			Actions: []string{"act"}, RiskLevel: models.RiskLow,
		},
	}
	e := NewEngine(DefaultParams(), catalog, nil)
	strategies := e.Strategies()
	if len(strategies) != 1 || strategies[0].ID != "valid" {
		t.Fatalf("expected only the valid entry, got %+v", strategies)
	}
}

func TestClusterLookupMissing(t *testing.T) {
	e := newTestEngine()
	_, err := e.Cluster("cluster-missing")
	if !errors.Is(err, ErrClusterNotFound) {
		t.Fatalf("expected ErrClusterNotFound, got %v", err)
	}
}

func TestPatternLookupMissing(t *testing.T) {
	e := newTestEngine()
	_, err := e.Pattern("p-missing")
	if !errors.Is(err, ErrPatternNotFound) {
		t.Fatalf("expected ErrPatternNotFound, got %v", err)
	}
}
