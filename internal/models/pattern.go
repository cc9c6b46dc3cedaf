package models

import "time"

// Severity captures the impact level of a recorded error.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Rank maps a severity onto its ordinal scale (1-4). Unknown values rank 0.
func (s Severity) Rank() int {
	switch s {
	case SeverityLow:
		return 1
	case SeverityMedium:
		return 2
	case SeverityHigh:
		return 3
	case SeverityCritical:
		return 4
	default:
		return 0
	}
}

// PatternContext is the typed context bag attached to an error observation.
// The named fields are the documented key set; Extra carries anything the
// caller needs beyond that.
type PatternContext struct {
	Endpoint     string            `json:"endpoint,omitempty"`
	Component    string            `json:"component,omitempty"`
	UserRole     string            `json:"user_role,omitempty"`
	ResourceType string            `json:"resource_type,omitempty"`
	FacilityID   string            `json:"facility_id,omitempty"`
	Extra        map[string]string `json:"extra,omitempty"`
}

// KeyCount returns the number of populated context keys.
func (c PatternContext) KeyCount() int {
	count := len(c.Extra)
	for _, v := range []string{c.Endpoint, c.Component, c.UserRole, c.ResourceType, c.FacilityID} {
		if v != "" {
			count++
		}
	}
	return count
}

// Clone returns a copy with its own Extra map.
func (c PatternContext) Clone() PatternContext {
	out := c
	if c.Extra != nil {
		out.Extra = make(map[string]string, len(c.Extra))
		for k, v := range c.Extra {
			out.Extra[k] = v
		}
	}
	return out
}

// ErrorPattern is a single recorded error observation. It is immutable once
// recorded; only the time-based sweep removes it.
type ErrorPattern struct {
	ID             string         `json:"id"`
	Timestamp      time.Time      `json:"timestamp"`
	Category       string         `json:"category"`
	Code           string         `json:"code,omitempty"`
	Severity       Severity       `json:"severity"`
	Context        PatternContext `json:"context"`
	ContainsPHI    bool           `json:"contains_phi"`
	ComplianceRisk bool           `json:"compliance_risk"`
	WorkflowStage  string         `json:"workflow_stage,omitempty"`
}

// Clone returns a deep copy of the pattern.
func (p ErrorPattern) Clone() *ErrorPattern {
	out := p
	out.Context = p.Context.Clone()
	return &out
}

// ClusterCharacteristics summarises the patterns grouped under a cluster.
type ClusterCharacteristics struct {
	DominantSeverity Severity `json:"dominant_severity"`
	ContainsPHI      bool     `json:"contains_phi"`
	ComplianceRisk   bool     `json:"compliance_risk"`
	WorkflowStages   []string `json:"workflow_stages,omitempty"`
}

// PatternCluster is a dynamically grown group of similar patterns represented
// by a running centroid vector.
type PatternCluster struct {
	ID              string                 `json:"id"`
	Category        string                 `json:"category"`
	Centroid        []float64              `json:"centroid"`
	PatternIDs      []string               `json:"pattern_ids"`
	Confidence      float64                `json:"confidence"`
	Frequency       int                    `json:"frequency"`
	FirstSeen       time.Time              `json:"first_seen"`
	LastSeen        time.Time              `json:"last_seen"`
	Characteristics ClusterCharacteristics `json:"characteristics"`
}

// Clone returns a deep copy of the cluster.
func (c PatternCluster) Clone() *PatternCluster {
	out := c
	out.Centroid = append([]float64(nil), c.Centroid...)
	out.PatternIDs = append([]string(nil), c.PatternIDs...)
	out.Characteristics.WorkflowStages = append([]string(nil), c.Characteristics.WorkflowStages...)
	return &out
}

// Contains reports whether the cluster holds the given pattern id.
func (c PatternCluster) Contains(patternID string) bool {
	for _, id := range c.PatternIDs {
		if id == patternID {
			return true
		}
	}
	return false
}
