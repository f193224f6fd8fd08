package engine

import (
	"context"
	"fmt"

	"github.com/open-policy-agent/opa/v1/rego"
)

const ownershipQuery = "data.notesmk.notes.allow"

// OwnershipPolicy grants list and create to any authenticated subject and update or delete only
// to the owner of the note.
const OwnershipPolicy = `package notesmk.notes

default allow := false

authenticated if input.subject.id != ""

allow if {
	authenticated
	input.action in {"list", "create"}
}

allow if {
	authenticated
	input.action in {"update", "delete"}
	input.resource.owner_id == input.subject.id
}
`

// OPAEvaluator evaluates a prepared Rego query. Safe for concurrent use.
type OPAEvaluator struct {
	query rego.PreparedEvalQuery
}

// NewOPAEvaluator compiles module (OwnershipPolicy when empty) and prepares the allow query.
func NewOPAEvaluator(ctx context.Context, module string) (*OPAEvaluator, error) {
	if module == "" {
		module = OwnershipPolicy
	}
	pq, err := rego.New(
		rego.Query(ownershipQuery),
		rego.Module("notes.rego", module),
	).PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("policy: prepare: %w", err)
	}
	return &OPAEvaluator{query: pq}, nil
}

// Allow evaluates the policy for req. An undefined result is a denial.
func (e *OPAEvaluator) Allow(ctx context.Context, req Request) (bool, error) {
	input := map[string]interface{}{
		"subject":  map[string]interface{}{"id": req.SubjectID},
		"action":   string(req.Action),
		"resource": map[string]interface{}{"owner_id": req.OwnerID},
	}
	rs, err := e.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return false, fmt.Errorf("policy: eval: %w", err)
	}
	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return false, nil
	}
	allowed, ok := rs[0].Expressions[0].Value.(bool)
	return ok && allowed, nil
}

// HealthCheck evaluates a fixed owner request and fails unless it is allowed.
func (e *OPAEvaluator) HealthCheck(ctx context.Context) error {
	ok, err := e.Allow(ctx, Request{SubjectID: "health", Action: ActionUpdate, OwnerID: "health"})
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("policy: owner request denied")
	}
	return nil
}
