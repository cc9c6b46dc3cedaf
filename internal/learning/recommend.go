package learning

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/caresignal/recovery-engine/internal/features"
	"github.com/caresignal/recovery-engine/internal/models"
)

// Recommend ranks the catalog against the pattern's cluster history and
// returns the best strategy plus up to MaxAlternates runners-up. Strategies
// that violate the pattern's safety flags are excluded before scoring, and
// candidates below MinRecommendationScore are discarded. When nothing
// survives, ErrNoApplicableStrategy is returned.
func (e *Engine) Recommend(patternID string) (*models.Recommendation, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	p, ok := e.store.patterns[patternID]
	if !ok {
		return nil, fmt.Errorf("recommend for pattern %s: %w", patternID, ErrPatternNotFound)
	}

	var clusterID string
	var clusterConfidence float64
	if c := e.store.clusterFor(patternID); c != nil {
		clusterID = c.ID
		clusterConfidence = c.Confidence
	}

	type candidate struct {
		strategy *models.RecoveryStrategy
		score    float64
	}
	candidates := make([]candidate, 0, len(e.store.strategies))
	for _, s := range e.store.strategies {
		if !safetyCompatible(s, p) || !conditionsAllow(s, p) {
			continue
		}
		perf := e.store.ensurePerformance(s.ID, clusterID)
		score := e.scoreStrategy(s, perf, p)
		if score < e.params.MinRecommendationScore {
			continue
		}
		candidates = append(candidates, candidate{strategy: s, score: score})
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("recommend for pattern %s: %w", patternID, ErrNoApplicableStrategy)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		if candidates[i].strategy.Priority != candidates[j].strategy.Priority {
			return candidates[i].strategy.Priority > candidates[j].strategy.Priority
		}
		return candidates[i].strategy.ID < candidates[j].strategy.ID
	})

	top := candidates[0]
	alternates := make([]models.RankedStrategy, 0, e.params.MaxAlternates)
	for _, c := range candidates[1:] {
		if len(alternates) == e.params.MaxAlternates {
			break
		}
		alternates = append(alternates, models.RankedStrategy{
			StrategyID: c.strategy.ID,
			Name:       c.strategy.Name,
			Score:      c.score,
		})
	}

	perf := e.store.ensurePerformance(top.strategy.ID, clusterID)
	return &models.Recommendation{
		PatternID:         patternID,
		ClusterID:         clusterID,
		ClusterConfidence: clusterConfidence,
		Strategy:          *top.strategy.Clone(),
		Score:             top.score,
		Alternates:        alternates,
		Justification:     buildJustification(top.strategy, perf, p, clusterID, clusterConfidence),
		GeneratedAt:       time.Now().UTC(),
	}, nil
}

// scoreStrategy combines tracked performance with the strategy's inherent
// risk. Low-risk strategies start ahead, so a risky runbook has to earn its
// rank through recorded successes.
func (e *Engine) scoreStrategy(s *models.RecoveryStrategy, perf *models.StrategyPerformance, p *models.ErrorPattern) float64 {
	score := perf.SuccessRate*e.params.SuccessWeight +
		perf.CostEffectiveness*e.params.CostWeight +
		(1-s.RiskLevel.Score())*e.params.RiskWeight

	if p.ContainsPHI && s.PHISafe {
		score += e.params.SafetyBonus
	}
	if p.Severity == models.SeverityCritical && s.Type == models.StrategyImmediate {
		score += e.params.CriticalBonus
	}
	return features.Clamp01(score)
}

// safetyCompatible enforces the hard gates: PHI incidents only accept
// PHI-safe strategies, and compliance-risk incidents only accept
// HIPAA-compliant ones. These are filters, never score adjustments.
func safetyCompatible(s *models.RecoveryStrategy, p *models.ErrorPattern) bool {
	if p.ContainsPHI && !s.PHISafe {
		return false
	}
	if p.ComplianceRisk && !s.HIPAACompliant {
		return false
	}
	return true
}

// conditionsAllow applies the strategy's own applicability constraints.
func conditionsAllow(s *models.RecoveryStrategy, p *models.ErrorPattern) bool {
	if len(s.Conditions.Categories) > 0 && !containsString(s.Conditions.Categories, p.Category) {
		return false
	}
	if s.Conditions.MinSeverity != "" && p.Severity.Rank() < s.Conditions.MinSeverity.Rank() {
		return false
	}
	return true
}

func buildJustification(s *models.RecoveryStrategy, perf *models.StrategyPerformance, p *models.ErrorPattern, clusterID string, confidence float64) string {
	var b strings.Builder
	if clusterID != "" {
		fmt.Fprintf(&b, "cluster %s (confidence %.2f): ", clusterID, confidence)
	}
	if perf.UsageCount > 0 {
		fmt.Fprintf(&b, "%q succeeded %.0f%% of %d attempts on similar errors", s.Name, perf.SuccessRate*100, perf.UsageCount)
	} else {
		fmt.Fprintf(&b, "%q is untried here; ranked on cost posture and %s risk", s.Name, s.RiskLevel)
	}
	if p.ContainsPHI && s.PHISafe {
		b.WriteString("; PHI-safe handling required and satisfied")
	}
	if p.ComplianceRisk && s.HIPAACompliant {
		b.WriteString("; HIPAA-compliant path required and satisfied")
	}
	if p.Severity == models.SeverityCritical && s.Type == models.StrategyImmediate {
		b.WriteString("; immediate action favored for critical severity")
	}
	return b.String()
}
