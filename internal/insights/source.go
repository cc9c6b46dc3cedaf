// Package insights derives operator-facing observations from the learning
// state: recurring error families, clusters gaining momentum, and strategies
// with a proven record.
package insights

import "github.com/caresignal/recovery-engine/internal/models"

// Source supplies the learning state that insights are mined from.
type Source interface {
	Export() models.Snapshot
}

// SourceFunc adapts a plain function to the Source interface.
type SourceFunc func() models.Snapshot

// Export implements Source.
func (f SourceFunc) Export() models.Snapshot { return f() }
