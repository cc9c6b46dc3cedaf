package learning

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/caresignal/recovery-engine/internal/models"
)

type catalogFile struct {
	Strategies []models.RecoveryStrategy `yaml:"strategies"`
}

// LoadCatalog reads a strategy catalog from a YAML file. Every entry must
// validate; a single bad strategy fails the whole load so operators notice
// broken catalogs at startup instead of at recommendation time.
func LoadCatalog(path string) ([]models.RecoveryStrategy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	if len(f.Strategies) == 0 {
		return nil, fmt.Errorf("catalog %s contains no strategies", path)
	}
	seen := make(map[string]struct{}, len(f.Strategies))
	for i := range f.Strategies {
		s := &f.Strategies[i]
		if err := s.Validate(); err != nil {
			return nil, fmt.Errorf("catalog %s strategy %q: %w", path, s.ID, err)
		}
		if _, dup := seen[s.ID]; dup {
			return nil, fmt.Errorf("catalog %s: duplicate strategy id %q", path, s.ID)
		}
		seen[s.ID] = struct{}{}
	}
	return f.Strategies, nil
}

// DefaultCatalog returns the built-in recovery playbook used when no catalog
// file is configured.
func DefaultCatalog() []models.RecoveryStrategy {
	return []models.RecoveryStrategy{
		{
			ID:   "retry_with_backoff",
			Name: "Retry with exponential backoff",
			Type: models.StrategyDelayed,
			Actions: []string{
				"requeue the failed operation with exponential backoff",
				"cap retries at three attempts before escalating",
			},
			Priority:             50,
			HIPAACompliant:       true,
			PHISafe:              false,
			EstimatedCost:        5,
			EstimatedTimeSeconds: 120,
			RiskLevel:            models.RiskLow,
		},
		{
			ID:   "phi_access_lockdown",
			Name: "PHI access lockdown",
			Type: models.StrategyImmediate,
			Actions: []string{
				"revoke active sessions touching the affected resource",
				"suspend the implicated credentials pending review",
				"snapshot the audit trail for investigators",
			},
			Priority:             100,
			HIPAACompliant:       true,
			PHISafe:              true,
			EstimatedCost:        50,
			EstimatedTimeSeconds: 300,
			RiskLevel:            models.RiskLow,
			Conditions: models.StrategyConditions{
				Categories: []string{
					"unauthorized_data_access",
					"phi_exposure",
					"data_breach",
				},
				MinSeverity: models.SeverityHigh,
			},
		},
		{
			ID:   "failover_to_replica",
			Name: "Fail over to standby replica",
			Type: models.StrategyImmediate,
			Actions: []string{
				"promote the standby replica",
				"redirect traffic to the replica endpoint",
			},
			Priority:             80,
			HIPAACompliant:       true,
			PHISafe:              true,
			EstimatedCost:        100,
			EstimatedTimeSeconds: 60,
			RiskLevel:            models.RiskMedium,
			Conditions: models.StrategyConditions{
				Categories: []string{
					"database_error",
					"service_unavailable",
					"storage_degraded",
				},
			},
		},
		{
			ID:   "cache_served_response",
			Name: "Serve cached response",
			Type: models.StrategyFallback,
			Actions: []string{
				"serve the last known good response from cache",
				"flag the response as possibly stale",
			},
			Priority:             40,
			HIPAACompliant:       true,
			PHISafe:              false,
			EstimatedCost:        1,
			EstimatedTimeSeconds: 5,
			RiskLevel:            models.RiskMedium,
			Conditions: models.StrategyConditions{
				Categories: []string{
					"service_unavailable",
					"network_timeout",
				},
			},
		},
		{
			ID:   "batch_retry_after_window",
			Name: "Replay batch after maintenance window",
			Type: models.StrategyDelayed,
			Actions: []string{
				"hold failed jobs until the maintenance window closes",
				"replay held jobs in original order",
			},
			Priority:             30,
			HIPAACompliant:       true,
			PHISafe:              false,
			EstimatedCost:        20,
			EstimatedTimeSeconds: 3600,
			RiskLevel:            models.RiskLow,
			Conditions: models.StrategyConditions{
				Categories: []string{
					"batch_failure",
					"export_failure",
				},
			},
		},
		{
			ID:   "escalate_to_oncall",
			Name: "Escalate to on-call engineer",
			Type: models.StrategyEscalation,
			Actions: []string{
				"page the on-call engineer",
				"open a priority incident with the pattern context attached",
			},
			Priority:             90,
			HIPAACompliant:       true,
			PHISafe:              true,
			EstimatedCost:        200,
			EstimatedTimeSeconds: 900,
			RiskLevel:            models.RiskLow,
			Conditions: models.StrategyConditions{
				MinSeverity: models.SeverityHigh,
			},
		},
		{
			ID:   "notify_compliance_team",
			Name: "Notify compliance team",
			Type: models.StrategyEscalation,
			Actions: []string{
				"notify the compliance officer",
				"start the breach assessment timeline",
			},
			Priority:             95,
			HIPAACompliant:       true,
			PHISafe:              true,
			EstimatedCost:        150,
			EstimatedTimeSeconds: 1800,
			RiskLevel:            models.RiskLow,
			Conditions: models.StrategyConditions{
				Categories: []string{
					"unauthorized_data_access",
					"phi_exposure",
					"data_breach",
					"consent_violation",
				},
			},
		},
		{
			ID:   "manual_data_correction",
			Name: "Manual data correction",
			Type: models.StrategyManual,
			Actions: []string{
				"queue the affected record for manual review",
				"apply the correction with dual sign-off",
			},
			Priority:             20,
			HIPAACompliant:       true,
			PHISafe:              true,
			EstimatedCost:        300,
			EstimatedTimeSeconds: 7200,
			RiskLevel:            models.RiskLow,
		},
	}
}
