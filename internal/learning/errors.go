package learning

import "errors"

// Sentinel errors returned by Engine operations. Callers branch on these
// with errors.Is to map them onto transport-level responses.
var (
	// ErrPatternNotFound reports a lookup for a pattern ID the store has
	// never seen (or has since swept).
	ErrPatternNotFound = errors.New("pattern not found")

	// ErrClusterNotFound reports a lookup for a cluster ID that does not
	// exist (or was swept).
	ErrClusterNotFound = errors.New("cluster not found")

	// ErrStrategyNotFound reports an outcome submitted for a strategy that
	// is not in the catalog.
	ErrStrategyNotFound = errors.New("strategy not found")

	// ErrNoApplicableStrategy reports that every catalog strategy was
	// filtered or scored below the recommendation floor.
	ErrNoApplicableStrategy = errors.New("no applicable recovery strategy")

	// ErrDuplicatePattern reports an observation whose ID is already stored.
	ErrDuplicatePattern = errors.New("pattern already observed")
)
