package models

import "time"

// LearningParams tunes the online learning behaviour. Zero values fall back
// to engine defaults.
type LearningParams struct {
	SimilarityThreshold    float64 `json:"similarity_threshold"`
	LearningRate           float64 `json:"learning_rate"`
	ConfidenceIncrement    float64 `json:"confidence_increment"`
	ConfidenceNudge        float64 `json:"confidence_nudge"`
	MinRecommendationScore float64 `json:"min_recommendation_score"`
	SuccessWeight          float64 `json:"success_weight"`
	CostWeight             float64 `json:"cost_weight"`
	RiskWeight             float64 `json:"risk_weight"`
	SafetyBonus            float64 `json:"safety_bonus"`
	CriticalBonus          float64 `json:"critical_bonus"`
	MaxAlternates          int     `json:"max_alternates"`
}

// Snapshot serialises the four learning collections plus the active params.
// Import restores the collections; the params are informational.
type Snapshot struct {
	ExportedAt  time.Time             `json:"exported_at"`
	Params      LearningParams        `json:"params"`
	Patterns    []ErrorPattern        `json:"patterns"`
	Clusters    []PatternCluster      `json:"clusters"`
	Strategies  []RecoveryStrategy    `json:"strategies"`
	Performance []StrategyPerformance `json:"performance"`
}

// SweepResult reports what a maintenance sweep removed.
type SweepResult struct {
	RemovedPatterns int       `json:"removed_patterns"`
	RemovedClusters int       `json:"removed_clusters"`
	Cutoff          time.Time `json:"cutoff"`
}
