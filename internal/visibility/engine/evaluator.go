package engine

import (
	"context"

	documentdomain "startup-dataroom/backend/internal/document/domain"
	"startup-dataroom/backend/internal/visibility"
)

// Evaluator decides document visibility using Rego or other engines.
type Evaluator interface {
	// IsVisible reports whether a viewer of the given tier may see the document.
	IsVisible(ctx context.Context, doc *documentdomain.Document, tier visibility.Tier) (bool, error)
}

// StaticEvaluator applies the built-in tier ordering. It is the default
// evaluator and the fallback when Rego evaluation fails.
type StaticEvaluator struct{}

// NewStaticEvaluator returns the built-in tier-ordering evaluator.
func NewStaticEvaluator() *StaticEvaluator {
	return &StaticEvaluator{}
}

// IsVisible applies the fixed tier ordering. Never returns an error.
func (e *StaticEvaluator) IsVisible(ctx context.Context, doc *documentdomain.Document, tier visibility.Tier) (bool, error) {
	if doc == nil {
		return false, nil
	}
	return visibility.IsVisible(doc.Visibility, tier), nil
}
