package learning

import (
	"fmt"
	"time"

	"github.com/caresignal/recovery-engine/internal/features"
	"github.com/caresignal/recovery-engine/internal/models"
)

// Reward shaping. The base reward from the outcome label is reduced by how
// long recovery took, what it cost, and how hard it hit patient care, each
// normalized to [0, 1] before weighting.
const (
	timePenaltyWeight   = 0.1
	costPenaltyWeight   = 0.1
	impactPenaltyWeight = 0.3
	maxRecoverySeconds  = 3600.0
	maxCostDollars      = 1000.0
)

// Compliance contribution per outcome label; failures drag the tracked
// compliance score toward 0.4 rather than zero so one bad run does not
// blacklist a strategy.
func complianceValue(o models.Outcome) float64 {
	switch o {
	case models.OutcomeSuccess:
		return 1.0
	case models.OutcomePartial:
		return 0.7
	default:
		return 0.4
	}
}

// RecordOutcome folds an executed strategy's result into the tracked
// statistics for the (strategy, cluster) pair and nudges the cluster's
// confidence upward in proportion to the shaped reward. The returned record
// carries the reward actually applied.
func (e *Engine) RecordOutcome(req models.OutcomeRequest) (*models.OutcomeRecord, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("record outcome: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.store.strategies[req.StrategyID]; !ok {
		return nil, fmt.Errorf("record outcome for strategy %s: %w", req.StrategyID, ErrStrategyNotFound)
	}

	// A pattern that was swept (or never observed) still produces a usable
	// signal; it just lands in the strategy's default bucket.
	var cluster *models.PatternCluster
	if _, ok := e.store.patterns[req.PatternID]; ok {
		cluster = e.store.clusterFor(req.PatternID)
	}
	var clusterID string
	if cluster != nil {
		clusterID = cluster.ID
	}

	now := time.Now().UTC()
	reward := shapeReward(req)
	perf := e.store.ensurePerformance(req.StrategyID, clusterID)

	rate := e.params.LearningRate
	perf.SuccessRate = features.Blend(perf.SuccessRate, reward, rate)
	perf.CostEffectiveness = features.Blend(perf.CostEffectiveness, reward, rate)
	if perf.UsageCount == 0 {
		perf.AvgRecoveryTimeSeconds = req.RecoveryTimeSeconds
	} else {
		perf.AvgRecoveryTimeSeconds = features.Blend(perf.AvgRecoveryTimeSeconds, req.RecoveryTimeSeconds, rate)
	}
	if req.PatientImpact > perf.WorstImpact {
		perf.WorstImpact = req.PatientImpact
	}
	perf.PatientImpact = models.ImpactLabel(perf.WorstImpact)
	perf.ComplianceScore = features.Blend(perf.ComplianceScore, complianceValue(req.Outcome), rate)
	perf.UsageCount++
	perf.LastUsed = now

	perf.Feedback = append(perf.Feedback, models.FeedbackEntry{
		Timestamp:           now,
		Outcome:             req.Outcome,
		Reward:              reward,
		RecoveryTimeSeconds: req.RecoveryTimeSeconds,
		Cost:                req.Cost,
		PatientImpact:       req.PatientImpact,
		Notes:               req.Notes,
	})
	if excess := len(perf.Feedback) - models.MaxFeedbackEntries; excess > 0 {
		perf.Feedback = perf.Feedback[excess:]
	}

	if cluster != nil {
		cluster.Confidence = features.Clamp01(cluster.Confidence + e.params.ConfidenceNudge*reward)
	}

	e.logger.Debug("outcome recorded",
		"strategy_id", req.StrategyID,
		"pattern_id", req.PatternID,
		"cluster_id", clusterID,
		"outcome", req.Outcome,
		"reward", reward,
		"usage_count", perf.UsageCount,
	)

	return &models.OutcomeRecord{
		StrategyID: req.StrategyID,
		PatternID:  req.PatternID,
		ClusterID:  perf.ClusterID,
		Outcome:    req.Outcome,
		Reward:     reward,
		RecordedAt: now,
	}, nil
}

// shapeReward converts an outcome report into the net reward in [0, 1].
func shapeReward(req models.OutcomeRequest) float64 {
	reward := req.Outcome.Reward()
	reward -= features.Clamp01(req.RecoveryTimeSeconds/maxRecoverySeconds) * timePenaltyWeight
	reward -= features.Clamp01(req.Cost/maxCostDollars) * costPenaltyWeight
	reward -= features.Clamp01(req.PatientImpact) * impactPenaltyWeight
	return features.Clamp01(reward)
}
