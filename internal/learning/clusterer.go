package learning

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/caresignal/recovery-engine/internal/features"
	"github.com/caresignal/recovery-engine/internal/models"
)

// Categories that collapse into the phi_security cluster family when the
// pattern touches PHI.
var phiSensitiveCategories = map[string]struct{}{
	"unauthorized_data_access": {},
	"phi_exposure":             {},
	"data_breach":              {},
	"consent_violation":        {},
}

// Observe validates and stores a pattern, then assigns it to the closest
// existing cluster of the same category or seeds a new one. Assignments are
// final; later observations never move a pattern between clusters.
func (e *Engine) Observe(p models.ErrorPattern) (*models.AssignmentResult, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("observe pattern: %w", err)
	}

	vector := features.Extract(p)
	category := clusterCategory(p)

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.store.patterns[p.ID]; ok {
		return nil, fmt.Errorf("observe pattern %s: %w", p.ID, ErrDuplicatePattern)
	}
	e.store.patterns[p.ID] = p.Clone()

	best, similarity := e.closestCluster(category, vector)
	if best != nil && similarity >= e.params.SimilarityThreshold {
		e.absorb(best, p, vector)
		e.logger.Debug("pattern joined cluster",
			"pattern_id", p.ID,
			"cluster_id", best.ID,
			"similarity", similarity,
			"frequency", best.Frequency,
		)
		return &models.AssignmentResult{
			PatternID:  p.ID,
			ClusterID:  best.ID,
			Category:   category,
			Created:    false,
			Similarity: similarity,
			Confidence: best.Confidence,
		}, nil
	}

	created := e.seedCluster(category, p, vector)
	e.logger.Debug("pattern seeded cluster",
		"pattern_id", p.ID,
		"cluster_id", created.ID,
		"category", category,
	)
	return &models.AssignmentResult{
		PatternID:  p.ID,
		ClusterID:  created.ID,
		Category:   category,
		Created:    true,
		Similarity: 1,
		Confidence: created.Confidence,
	}, nil
}

// closestCluster scans clusters in the given category and returns the one
// with the highest centroid similarity. Ties keep the lexically smaller ID
// so repeated runs over the same input agree.
func (e *Engine) closestCluster(category string, vector []float64) (*models.PatternCluster, float64) {
	var best *models.PatternCluster
	bestSim := -1.0
	for _, id := range e.store.sortedClusterIDs() {
		c := e.store.clusters[id]
		if c.Category != category {
			continue
		}
		if sim := features.Cosine(vector, c.Centroid); sim > bestSim {
			best, bestSim = c, sim
		}
	}
	return best, bestSim
}

// absorb folds the pattern into an existing cluster: membership, frequency,
// centroid blend, confidence bump, and characteristic rollup.
func (e *Engine) absorb(c *models.PatternCluster, p models.ErrorPattern, vector []float64) {
	c.PatternIDs = append(c.PatternIDs, p.ID)
	c.Frequency++
	if p.Timestamp.After(c.LastSeen) {
		c.LastSeen = p.Timestamp
	}
	c.Centroid = features.BlendVector(c.Centroid, vector, e.params.LearningRate)
	c.Confidence = features.Clamp01(c.Confidence + e.params.ConfidenceIncrement)
	mergeCharacteristics(&c.Characteristics, p)
}

func (e *Engine) seedCluster(category string, p models.ErrorPattern, vector []float64) *models.PatternCluster {
	centroid := make([]float64, len(vector))
	copy(centroid, vector)

	c := &models.PatternCluster{
		ID:         "cluster-" + uuid.NewString(),
		Category:   category,
		Centroid:   centroid,
		PatternIDs: []string{p.ID},
		Confidence: initialClusterConfidence,
		Frequency:  1,
		FirstSeen:  p.Timestamp,
		LastSeen:   p.Timestamp,
	}
	mergeCharacteristics(&c.Characteristics, p)
	e.store.clusters[c.ID] = c
	return c
}

// clusterCategory decides which cluster family a pattern belongs to. PHI
// incidents with access or exposure semantics collapse into phi_security so
// that lockdown strategies learn from every variant; compliance risks group
// next; everything else clusters by its raw category.
func clusterCategory(p models.ErrorPattern) string {
	if p.ContainsPHI {
		if _, ok := phiSensitiveCategories[p.Category]; ok {
			return "phi_security"
		}
		if strings.Contains(p.Category, "access") ||
			strings.Contains(p.Category, "breach") ||
			strings.Contains(p.Category, "auth") {
			return "phi_security"
		}
	}
	if p.ComplianceRisk {
		return "compliance_risk"
	}
	return p.Category
}

// mergeCharacteristics keeps the rollup in step with a newly absorbed
// pattern. Dominant severity only ever escalates.
func mergeCharacteristics(ch *models.ClusterCharacteristics, p models.ErrorPattern) {
	if p.Severity.Rank() > ch.DominantSeverity.Rank() {
		ch.DominantSeverity = p.Severity
	}
	ch.ContainsPHI = ch.ContainsPHI || p.ContainsPHI
	ch.ComplianceRisk = ch.ComplianceRisk || p.ComplianceRisk
	if p.WorkflowStage != "" && !containsString(ch.WorkflowStages, p.WorkflowStage) {
		ch.WorkflowStages = append(ch.WorkflowStages, p.WorkflowStage)
	}
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
