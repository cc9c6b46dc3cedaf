package learning

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/caresignal/recovery-engine/internal/models"
)

func TestRecordOutcomeSuccessRaisesSuccessRate(t *testing.T) {
	e := newTestEngine()
	res, err := e.Observe(phiAccessPattern("p-1", time.Date(2025, 6, 2, 14, 0, 0, 0, time.UTC), models.SeverityCritical))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	prev := baselineSuccessRate
	for i := 0; i < 10; i++ {
		if _, err := e.RecordOutcome(models.OutcomeRequest{
			StrategyID: "phi_access_lockdown",
			PatternID:  "p-1",
			Outcome:    models.OutcomeSuccess,
		}); err != nil {
			t.Fatalf("unexpected error on outcome %d: %v", i, err)
		}
		perf, ok := e.Performance("phi_access_lockdown", res.ClusterID)
		if !ok {
			t.Fatalf("expected performance record after outcome %d", i)
		}
		if perf.SuccessRate <= prev {
			t.Fatalf("success rate should rise monotonically: %v -> %v", prev, perf.SuccessRate)
		}
		prev = perf.SuccessRate
	}
	if prev > 1 {
		t.Fatalf("success rate exceeded 1: %v", prev)
	}
	if prev < 0.8 {
		t.Fatalf("ten straight successes should push the rate past 0.8, got %v", prev)
	}
}

func TestRecordOutcomeFailureLowersSuccessRate(t *testing.T) {
	e := newTestEngine()
	res, err := e.Observe(phiAccessPattern("p-1", time.Date(2025, 6, 2, 14, 0, 0, 0, time.UTC), models.SeverityCritical))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	prev := baselineSuccessRate
	for i := 0; i < 5; i++ {
		if _, err := e.RecordOutcome(models.OutcomeRequest{
			StrategyID:    "phi_access_lockdown",
			PatternID:     "p-1",
			Outcome:       models.OutcomeFailure,
			PatientImpact: 1.0,
		}); err != nil {
			t.Fatalf("unexpected error on outcome %d: %v", i, err)
		}
		perf, ok := e.Performance("phi_access_lockdown", res.ClusterID)
		if !ok {
			t.Fatalf("expected performance record after outcome %d", i)
		}
		if perf.SuccessRate >= prev {
			t.Fatalf("success rate should fall monotonically: %v -> %v", prev, perf.SuccessRate)
		}
		prev = perf.SuccessRate
	}

	perf, _ := e.Performance("phi_access_lockdown", res.ClusterID)
	if perf.WorstImpact != 1.0 {
		t.Fatalf("worst impact should track the maximum, got %v", perf.WorstImpact)
	}
	if perf.PatientImpact != models.ImpactSevere {
		t.Fatalf("expected severe impact label, got %q", perf.PatientImpact)
	}
	if perf.UsageCount != 5 {
		t.Fatalf("expected 5 usages, got %d", perf.UsageCount)
	}
}

func TestRecordOutcomeShapesReward(t *testing.T) {
	e := newTestEngine()
	if _, err := e.Observe(phiAccessPattern("p-1", time.Date(2025, 6, 2, 14, 0, 0, 0, time.UTC), models.SeverityCritical)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Full time, cost, and half impact penalties: 1.0 - 0.1 - 0.1 - 0.15.
	rec, err := e.RecordOutcome(models.OutcomeRequest{
		StrategyID:          "phi_access_lockdown",
		PatternID:           "p-1",
		Outcome:             models.OutcomeSuccess,
		RecoveryTimeSeconds: 3600,
		Cost:                1000,
		PatientImpact:       0.5,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !almost(rec.Reward, 0.65) {
		t.Fatalf("expected shaped reward 0.65, got %v", rec.Reward)
	}
	if rec.Outcome != models.OutcomeSuccess {
		t.Fatalf("record should echo the outcome, got %s", rec.Outcome)
	}
}

func TestRecordOutcomeNudgesClusterConfidence(t *testing.T) {
	e := newTestEngine()
	res, err := e.Observe(phiAccessPattern("p-1", time.Date(2025, 6, 2, 14, 0, 0, 0, time.UTC), models.SeverityCritical))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := e.RecordOutcome(models.OutcomeRequest{
		StrategyID: "phi_access_lockdown", PatternID: "p-1", Outcome: models.OutcomeSuccess,
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cluster, err := e.Cluster(res.ClusterID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !almost(cluster.Confidence, 0.52) {
		t.Fatalf("full-reward success should nudge confidence to 0.52, got %v", cluster.Confidence)
	}

	if _, err := e.RecordOutcome(models.OutcomeRequest{
		StrategyID: "phi_access_lockdown", PatternID: "p-1", Outcome: models.OutcomeFailure,
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cluster, err = e.Cluster(res.ClusterID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !almost(cluster.Confidence, 0.52) {
		t.Fatalf("zero-reward failure should leave confidence at 0.52, got %v", cluster.Confidence)
	}

	if _, err := e.RecordOutcome(models.OutcomeRequest{
		StrategyID: "phi_access_lockdown", PatternID: "p-1", Outcome: models.OutcomePartial,
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cluster, err = e.Cluster(res.ClusterID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !almost(cluster.Confidence, 0.53) {
		t.Fatalf("half-reward partial should nudge confidence to 0.53, got %v", cluster.Confidence)
	}
}

func TestRecordOutcomeCapsFeedbackLog(t *testing.T) {
	e := newTestEngine()
	if _, err := e.Observe(phiAccessPattern("p-1", time.Date(2025, 6, 2, 14, 0, 0, 0, time.UTC), models.SeverityCritical)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	total := models.MaxFeedbackEntries + 5
	for i := 0; i < total; i++ {
		if _, err := e.RecordOutcome(models.OutcomeRequest{
			StrategyID: "phi_access_lockdown",
			PatternID:  "p-1",
			Outcome:    models.OutcomeSuccess,
			Notes:      fmt.Sprintf("run-%d", i),
		}); err != nil {
			t.Fatalf("unexpected error on outcome %d: %v", i, err)
		}
	}

	clusters := e.Clusters("phi_security")
	if len(clusters) != 1 {
		t.Fatalf("expected one cluster, got %d", len(clusters))
	}
	perf, ok := e.Performance("phi_access_lockdown", clusters[0].ID)
	if !ok {
		t.Fatalf("expected performance record")
	}
	if len(perf.Feedback) != models.MaxFeedbackEntries {
		t.Fatalf("feedback log should cap at %d, got %d", models.MaxFeedbackEntries, len(perf.Feedback))
	}
	if perf.Feedback[0].Notes != "run-5" {
		t.Fatalf("oldest entries should be evicted first, got %q", perf.Feedback[0].Notes)
	}
	if perf.UsageCount != total {
		t.Fatalf("usage count should keep the full tally, got %d", perf.UsageCount)
	}
}

func TestRecordOutcomeForSweptPatternUsesDefaultBucket(t *testing.T) {
	e := newTestEngine()
	rec, err := e.RecordOutcome(models.OutcomeRequest{
		StrategyID: "retry_with_backoff",
		PatternID:  "never-observed",
		Outcome:    models.OutcomePartial,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.ClusterID != "default" {
		t.Fatalf("expected default bucket, got %q", rec.ClusterID)
	}
	perf, ok := e.Performance("retry_with_backoff", "")
	if !ok {
		t.Fatalf("expected default-bucket performance record")
	}
	if perf.ClusterID != "default" || perf.UsageCount != 1 {
		t.Fatalf("unexpected performance record: %+v", perf)
	}
}

func TestRecordOutcomeUnknownStrategy(t *testing.T) {
	e := newTestEngine()
	_, err := e.RecordOutcome(models.OutcomeRequest{
		StrategyID: "not-in-catalog",
		PatternID:  "p-1",
		Outcome:    models.OutcomeSuccess,
	})
	if !errors.Is(err, ErrStrategyNotFound) {
		t.Fatalf("expected ErrStrategyNotFound, got %v", err)
	}
}

func TestRecordOutcomeRejectsInvalidRequest(t *testing.T) {
	e := newTestEngine()
	_, err := e.RecordOutcome(models.OutcomeRequest{
		StrategyID:    "retry_with_backoff",
		PatternID:     "p-1",
		Outcome:       models.OutcomeSuccess,
		PatientImpact: 2.0,
	})
	if !errors.Is(err, models.ErrInvalid) {
		t.Fatalf("expected ErrInvalid for out-of-range impact, got %v", err)
	}
}
