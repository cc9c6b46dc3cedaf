package models

import "time"

// Outcome classifies the result of applying a recovery strategy.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomePartial Outcome = "partial"
	OutcomeFailure Outcome = "failure"
)

// Reward returns the base reward for the outcome before adjustments.
func (o Outcome) Reward() float64 {
	switch o {
	case OutcomeSuccess:
		return 1.0
	case OutcomePartial:
		return 0.5
	default:
		return 0.0
	}
}

// Patient impact labels derived from the worst observed impact score.
const (
	ImpactNone     = "none"
	ImpactMinor    = "minor"
	ImpactModerate = "moderate"
	ImpactSevere   = "severe"
)

// ImpactLabel buckets a [0,1] patient impact score into a qualitative label.
func ImpactLabel(impact float64) string {
	switch {
	case impact <= 0:
		return ImpactNone
	case impact <= 0.3:
		return ImpactMinor
	case impact <= 0.7:
		return ImpactModerate
	default:
		return ImpactSevere
	}
}

// FeedbackEntry records a single reported outcome.
type FeedbackEntry struct {
	Timestamp           time.Time `json:"timestamp"`
	Outcome             Outcome   `json:"outcome"`
	Reward              float64   `json:"reward"`
	RecoveryTimeSeconds float64   `json:"recovery_time_seconds,omitempty"`
	Cost                float64   `json:"cost,omitempty"`
	PatientImpact       float64   `json:"patient_impact,omitempty"`
	Notes               string    `json:"notes,omitempty"`
}

// StrategyPerformance holds the learned effectiveness statistics for one
// (strategy, cluster) pairing. ClusterID is "default" when a pattern had no
// matching cluster at recommendation time.
type StrategyPerformance struct {
	StrategyID             string          `json:"strategy_id"`
	ClusterID              string          `json:"cluster_id"`
	SuccessRate            float64         `json:"success_rate"`
	CostEffectiveness      float64         `json:"cost_effectiveness"`
	AvgRecoveryTimeSeconds float64         `json:"avg_recovery_time_seconds"`
	UsageCount             int             `json:"usage_count"`
	LastUsed               time.Time       `json:"last_used,omitempty"`
	PatientImpact          string          `json:"patient_impact"`
	WorstImpact            float64         `json:"worst_impact"`
	ComplianceScore        float64         `json:"compliance_score"`
	Feedback               []FeedbackEntry `json:"feedback,omitempty"`
}

// Clone returns a deep copy of the performance record.
func (p StrategyPerformance) Clone() *StrategyPerformance {
	out := p
	out.Feedback = append([]FeedbackEntry(nil), p.Feedback...)
	return &out
}
