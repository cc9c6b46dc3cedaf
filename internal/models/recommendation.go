package models

import "time"

// AssignmentResult reports where Observe placed a pattern.
type AssignmentResult struct {
	PatternID  string  `json:"pattern_id"`
	ClusterID  string  `json:"cluster_id"`
	Category   string  `json:"cluster_category"`
	Created    bool    `json:"cluster_created"`
	Similarity float64 `json:"similarity"`
	Confidence float64 `json:"cluster_confidence"`
}

// RankedStrategy is a lightweight alternate candidate in a recommendation.
type RankedStrategy struct {
	StrategyID string  `json:"strategy_id"`
	Name       string  `json:"name"`
	Score      float64 `json:"score"`
}

// Recommendation is the scored strategy pick for a pattern, with alternates
// and a human-readable justification.
type Recommendation struct {
	PatternID         string           `json:"pattern_id"`
	ClusterID         string           `json:"cluster_id,omitempty"`
	ClusterConfidence float64          `json:"cluster_confidence,omitempty"`
	Strategy          RecoveryStrategy `json:"strategy"`
	Score             float64          `json:"score"`
	Alternates        []RankedStrategy `json:"alternates,omitempty"`
	Justification     string           `json:"justification"`
	GeneratedAt       time.Time        `json:"generated_at"`
}

// Insight is one mined observation about the learned state.
type Insight struct {
	Type        string    `json:"type"`
	Summary     string    `json:"summary"`
	Score       float64   `json:"score"`
	Evidence    []string  `json:"evidence,omitempty"`
	GeneratedAt time.Time `json:"generated_at"`
}
