// Package features converts error observations into fixed-length numeric
// vectors and provides the similarity and blending primitives the clusterer
// and outcome statistics share.
package features

import (
	"hash/fnv"

	"github.com/caresignal/recovery-engine/internal/models"
)

// VectorDim is the fixed feature vector length.
const VectorDim = 7

// Vector dimension indexes.
const (
	dimCategory = iota
	dimSeverity
	dimContextKeys
	dimPHIFlag
	dimComplianceFlag
	dimHourOfDay
	dimDayOfWeek
)

const categoryHashBuckets = 1000

// Extract maps a pattern onto its feature vector. It is deterministic, has
// no side effects, and always succeeds; missing optional fields contribute
// zeros.
func Extract(p models.ErrorPattern) []float64 {
	v := make([]float64, VectorDim)
	v[dimCategory] = float64(hashCategory(p.Category))
	v[dimSeverity] = float64(p.Severity.Rank())
	v[dimContextKeys] = float64(p.Context.KeyCount())
	if p.ContainsPHI {
		v[dimPHIFlag] = 1
	}
	if p.ComplianceRisk {
		v[dimComplianceFlag] = 1
	}
	v[dimHourOfDay] = float64(p.Timestamp.Hour())
	v[dimDayOfWeek] = float64(p.Timestamp.Weekday())
	return v
}

func hashCategory(category string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(category))
	return h.Sum32() % categoryHashBuckets
}
