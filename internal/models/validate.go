package models

import (
	"errors"
	"fmt"
)

// ErrInvalid marks a record that failed schema validation. Validation runs
// before any store mutation, so a failing record never reaches the learning
// state.
var ErrInvalid = errors.New("invalid record")

// MaxFeedbackEntries caps the per-performance feedback log; the oldest
// entries are evicted first.
const MaxFeedbackEntries = 100

// Validate checks the pattern before ingestion.
func (p ErrorPattern) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("%w: pattern id is required", ErrInvalid)
	}
	if p.Category == "" {
		return fmt.Errorf("%w: pattern category is required", ErrInvalid)
	}
	if p.Severity.Rank() == 0 {
		return fmt.Errorf("%w: unknown severity %q", ErrInvalid, p.Severity)
	}
	if p.Timestamp.IsZero() {
		return fmt.Errorf("%w: pattern timestamp is required", ErrInvalid)
	}
	return nil
}

// Validate checks a catalog entry.
func (s RecoveryStrategy) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("%w: strategy id is required", ErrInvalid)
	}
	if s.Name == "" {
		return fmt.Errorf("%w: strategy %s has no name", ErrInvalid, s.ID)
	}
	switch s.Type {
	case StrategyImmediate, StrategyDelayed, StrategyEscalation, StrategyFallback, StrategyManual:
	default:
		return fmt.Errorf("%w: strategy %s has unknown type %q", ErrInvalid, s.ID, s.Type)
	}
	switch s.RiskLevel {
	case RiskLow, RiskMedium, RiskHigh:
	default:
		return fmt.Errorf("%w: strategy %s has unknown risk level %q", ErrInvalid, s.ID, s.RiskLevel)
	}
	if len(s.Actions) == 0 {
		return fmt.Errorf("%w: strategy %s has no actions", ErrInvalid, s.ID)
	}
	if s.EstimatedCost < 0 || s.EstimatedTimeSeconds < 0 {
		return fmt.Errorf("%w: strategy %s has negative estimates", ErrInvalid, s.ID)
	}
	return nil
}

// Validate checks a cluster record, typically on import.
func (c PatternCluster) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("%w: cluster id is required", ErrInvalid)
	}
	if c.Category == "" {
		return fmt.Errorf("%w: cluster %s has no category", ErrInvalid, c.ID)
	}
	if len(c.Centroid) == 0 {
		return fmt.Errorf("%w: cluster %s has an empty centroid", ErrInvalid, c.ID)
	}
	if c.Confidence < 0 || c.Confidence > 1 {
		return fmt.Errorf("%w: cluster %s confidence %.3f outside [0,1]", ErrInvalid, c.ID, c.Confidence)
	}
	if c.Frequency < 1 {
		return fmt.Errorf("%w: cluster %s frequency must be positive", ErrInvalid, c.ID)
	}
	return nil
}

// Validate checks a performance record, typically on import.
func (p StrategyPerformance) Validate() error {
	if p.StrategyID == "" || p.ClusterID == "" {
		return fmt.Errorf("%w: performance record needs strategy and cluster ids", ErrInvalid)
	}
	if p.SuccessRate < 0 || p.SuccessRate > 1 {
		return fmt.Errorf("%w: performance %s/%s success rate outside [0,1]", ErrInvalid, p.StrategyID, p.ClusterID)
	}
	if p.CostEffectiveness < 0 || p.CostEffectiveness > 1 {
		return fmt.Errorf("%w: performance %s/%s cost effectiveness outside [0,1]", ErrInvalid, p.StrategyID, p.ClusterID)
	}
	if p.UsageCount < 0 {
		return fmt.Errorf("%w: performance %s/%s usage count is negative", ErrInvalid, p.StrategyID, p.ClusterID)
	}
	if len(p.Feedback) > MaxFeedbackEntries {
		return fmt.Errorf("%w: performance %s/%s feedback log exceeds %d entries", ErrInvalid, p.StrategyID, p.ClusterID, MaxFeedbackEntries)
	}
	return nil
}

// Validate checks an outcome report before it is folded into the statistics.
func (r OutcomeRequest) Validate() error {
	if r.StrategyID == "" {
		return fmt.Errorf("%w: strategy_id is required", ErrInvalid)
	}
	if r.PatternID == "" {
		return fmt.Errorf("%w: pattern_id is required", ErrInvalid)
	}
	switch r.Outcome {
	case OutcomeSuccess, OutcomePartial, OutcomeFailure:
	default:
		return fmt.Errorf("%w: unknown outcome %q", ErrInvalid, r.Outcome)
	}
	if r.RecoveryTimeSeconds < 0 || r.Cost < 0 {
		return fmt.Errorf("%w: outcome metrics must be non-negative", ErrInvalid)
	}
	if r.PatientImpact < 0 || r.PatientImpact > 1 {
		return fmt.Errorf("%w: patient_impact %.3f outside [0,1]", ErrInvalid, r.PatientImpact)
	}
	return nil
}
