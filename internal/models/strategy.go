package models

// StrategyType enumerates how quickly a remediation strategy acts.
type StrategyType string

const (
	StrategyImmediate  StrategyType = "immediate"
	StrategyDelayed    StrategyType = "delayed"
	StrategyEscalation StrategyType = "escalation"
	StrategyFallback   StrategyType = "fallback"
	StrategyManual     StrategyType = "manual"
)

// RiskLevel is the qualitative execution risk of a strategy.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Score converts the qualitative level into a [0,1] risk score.
func (r RiskLevel) Score() float64 {
	switch r {
	case RiskLow:
		return 0.2
	case RiskMedium:
		return 0.5
	case RiskHigh:
		return 0.8
	default:
		return 0.5
	}
}

// StrategyConditions narrows where a strategy applies. Empty fields match
// everything.
type StrategyConditions struct {
	Categories  []string `json:"categories,omitempty" yaml:"categories"`
	MinSeverity Severity `json:"min_severity,omitempty" yaml:"minSeverity"`
}

// RecoveryStrategy is a catalog entry describing one remediation option with
// its static cost, risk, and safety attributes.
type RecoveryStrategy struct {
	ID                   string             `json:"id" yaml:"id"`
	Name                 string             `json:"name" yaml:"name"`
	Type                 StrategyType       `json:"type" yaml:"type"`
	Actions              []string           `json:"actions" yaml:"actions"`
	Priority             int                `json:"priority" yaml:"priority"`
	HIPAACompliant       bool               `json:"hipaa_compliant" yaml:"hipaaCompliant"`
	PHISafe              bool               `json:"phi_safe" yaml:"phiSafe"`
	EstimatedCost        float64            `json:"estimated_cost" yaml:"estimatedCost"`
	EstimatedTimeSeconds float64            `json:"estimated_time_seconds" yaml:"estimatedTimeSeconds"`
	RiskLevel            RiskLevel          `json:"risk_level" yaml:"riskLevel"`
	Conditions           StrategyConditions `json:"conditions,omitempty" yaml:"conditions"`
}

// Clone returns a deep copy of the strategy.
func (s RecoveryStrategy) Clone() *RecoveryStrategy {
	out := s
	out.Actions = append([]string(nil), s.Actions...)
	out.Conditions.Categories = append([]string(nil), s.Conditions.Categories...)
	return &out
}
