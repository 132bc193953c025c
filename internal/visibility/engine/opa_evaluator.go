package engine

import (
	"context"
	"fmt"
	"log"

	"github.com/open-policy-agent/opa/v1/ast"
	"github.com/open-policy-agent/opa/v1/rego"

	documentdomain "startup-dataroom/backend/internal/document/domain"
	"startup-dataroom/backend/internal/visibility"
)

// Default Rego policy matching the built-in tier ordering. Custom policies can
// replace it per deployment (e.g. to carve out category-level exceptions).
const defaultRegoPolicy = `package dataroom.visibility

default visible = false

tier_rank := {"public": 0, "investors": 1, "team": 2, "private": 3}

visible if {
	doc := tier_rank[input.document.visibility]
	viewer := tier_rank[input.viewer.tier]
	doc <= viewer
}

visible if {
	not tier_rank[input.document.visibility]
	input.viewer.tier == "private"
}
`

// OPAEvaluator evaluates document visibility using OPA Rego.
// Evaluation failures fall back to the static tier ordering and are logged;
// visibility checks must never fail a read.
type OPAEvaluator struct {
	policies []string
	fallback *StaticEvaluator
}

// NewOPAEvaluator returns an OPA-based visibility evaluator. policies are Rego
// modules in the dataroom.visibility package; when empty the default policy is used.
func NewOPAEvaluator(policies []string) *OPAEvaluator {
	return &OPAEvaluator{policies: policies, fallback: NewStaticEvaluator()}
}

// HealthCheck verifies that the in-process Rego engine can compile and evaluate
// the default policy. Returns nil on success.
func (e *OPAEvaluator) HealthCheck(ctx context.Context) error {
	modules := map[string]string{"policy_0.rego": defaultRegoPolicy}
	compiler, err := ast.CompileModules(modules)
	if err != nil {
		return fmt.Errorf("compile default policy: %w", err)
	}
	q := rego.New(
		rego.Query("data.dataroom.visibility.visible"),
		rego.Compiler(compiler),
		rego.Input(map[string]interface{}{
			"document": map[string]interface{}{"visibility": "public"},
			"viewer":   map[string]interface{}{"tier": "public"},
		}),
	)
	rs, err := q.Eval(ctx)
	if err != nil {
		return fmt.Errorf("eval default policy: %w", err)
	}
	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return fmt.Errorf("policy query returned no result")
	}
	return nil
}

// IsVisible evaluates the configured Rego policies for the document and tier.
func (e *OPAEvaluator) IsVisible(ctx context.Context, doc *documentdomain.Document, tier visibility.Tier) (bool, error) {
	if doc == nil {
		return false, nil
	}

	policies := e.policies
	if len(policies) == 0 {
		policies = []string{defaultRegoPolicy}
	}

	modules := make(map[string]string)
	for i, policy := range policies {
		modules[fmt.Sprintf("policy_%d.rego", i)] = policy
	}
	compiler, err := ast.CompileModules(modules)
	if err != nil {
		log.Printf("visibility: policy compile failed: %v, using static ordering", err)
		return e.fallback.IsVisible(ctx, doc, tier)
	}

	input := map[string]interface{}{
		"document": map[string]interface{}{
			"id":         doc.ID,
			"category":   doc.Category,
			"visibility": string(doc.Visibility),
		},
		"viewer": map[string]interface{}{
			"tier": string(tier),
		},
	}

	q := rego.New(
		rego.Query("data.dataroom.visibility.visible"),
		rego.Compiler(compiler),
		rego.Input(input),
	)
	rs, err := q.Eval(ctx)
	if err != nil || len(rs) == 0 || len(rs[0].Expressions) == 0 {
		log.Printf("visibility: policy evaluation failed: %v, using static ordering", err)
		return e.fallback.IsVisible(ctx, doc, tier)
	}
	if v, ok := rs[0].Expressions[0].Value.(bool); ok {
		return v, nil
	}
	return e.fallback.IsVisible(ctx, doc, tier)
}
