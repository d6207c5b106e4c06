// Package classify maps discovered form controls to semantic field kinds using
// an ordered list of pluggable matching strategies.
package classify

import (
	"github.com/jonathan/apply-pilot/internal/types"
)

// MinConfidence is the minimum confidence a strategy result needs to win.
const MinConfidence = 0.5

// Strategy is a single field-classification heuristic. Implementations must be
// pure functions of the field's observable attributes: identical attributes
// always produce an identical result, and no strategy touches the live page.
type Strategy interface {
	// Name identifies the strategy in verbose output.
	Name() string
	// Classify returns a kind and confidence for the field, or ok=false when
	// the strategy has no opinion.
	Classify(field *types.FormField) (kind types.FieldKind, confidence float64, ok bool)
}

// Registry holds an ordered strategy list. Vendor-specific strategies are
// registered ahead of the generic ones so that an ATS-aware match wins over a
// generic attribute match. The first strategy producing a result at or above
// MinConfidence decides the classification.
type Registry struct {
	strategies []Strategy
}

// NewRegistry builds a registry with the given strategies in priority order.
func NewRegistry(strategies ...Strategy) *Registry {
	return &Registry{strategies: strategies}
}

// DefaultRegistry returns the standard strategy ordering: known ATS vendors
// first, then generic attribute heuristics. Adding support for a new ATS means
// registering a new strategy here, never branching in the engine.
func DefaultRegistry(board types.JobBoardType) *Registry {
	strategies := make([]Strategy, 0, 8)
	if vendor := vendorStrategy(board); vendor != nil {
		strategies = append(strategies, vendor)
	}
	strategies = append(strategies,
		&AutocompleteStrategy{},
		&InputTypeStrategy{},
		&LabelStrategy{},
		&NamePatternStrategy{},
		&ContextStrategy{},
	)
	return NewRegistry(strategies...)
}

// Register appends a strategy at the end of the list.
func (r *Registry) Register(s Strategy) {
	r.strategies = append(r.strategies, s)
}

// Classify assigns a kind and confidence to the field. Fields no strategy can
// place confidently come back as KindUnknown with confidence 0; the caller
// skips them rather than guessing.
func (r *Registry) Classify(field *types.FormField) (types.FieldKind, float64) {
	for _, s := range r.strategies {
		kind, confidence, ok := s.Classify(field)
		if ok && confidence >= MinConfidence {
			return kind, confidence
		}
	}
	return types.KindUnknown, 0
}
