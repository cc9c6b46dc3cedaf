package models

import "time"

// OutcomeRequest reports how applying a strategy to a pattern went.
type OutcomeRequest struct {
	StrategyID          string  `json:"strategy_id"`
	PatternID           string  `json:"pattern_id"`
	Outcome             Outcome `json:"outcome"`
	RecoveryTimeSeconds float64 `json:"recovery_time_seconds,omitempty"`
	Cost                float64 `json:"cost,omitempty"`
	PatientImpact       float64 `json:"patient_impact,omitempty"`
	Notes               string  `json:"notes,omitempty"`
}

// OutcomeRecord is the audit shape written to the archive after an outcome
// has been folded into the performance statistics.
type OutcomeRecord struct {
	StrategyID string    `json:"strategy_id"`
	PatternID  string    `json:"pattern_id"`
	ClusterID  string    `json:"cluster_id"`
	Outcome    Outcome   `json:"outcome"`
	Reward     float64   `json:"reward"`
	RecordedAt time.Time `json:"recorded_at"`
}

// PlatformErrorEvent is one entry from the host platform's recent-errors feed.
type PlatformErrorEvent struct {
	EventID        string            `json:"event_id"`
	OccurredAt     time.Time         `json:"occurred_at"`
	Category       string            `json:"category"`
	Code           string            `json:"code,omitempty"`
	Severity       string            `json:"severity"`
	Endpoint       string            `json:"endpoint,omitempty"`
	UserRole       string            `json:"user_role,omitempty"`
	ResourceType   string            `json:"resource_type,omitempty"`
	ContainsPHI    bool              `json:"contains_phi"`
	ComplianceRisk bool              `json:"compliance_risk"`
	WorkflowStage  string            `json:"workflow_stage,omitempty"`
	Attributes     map[string]string `json:"attributes,omitempty"`
}

// SyncSummary totals one pull from the platform error feed.
type SyncSummary struct {
	Ingested int `json:"ingested"`
	Skipped  int `json:"skipped"`
	Rejected int `json:"rejected"`
}
