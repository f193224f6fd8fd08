// Package engine decides note access with an OPA Rego policy.
package engine

import "context"

// Action is an operation on notes.
type Action string

const (
	ActionList   Action = "list"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Request is the input of one access decision. OwnerID is empty for list and create.
type Request struct {
	SubjectID string
	Action    Action
	OwnerID   string
}

// Evaluator decides whether a subject may perform an action on a note.
type Evaluator interface {
	Allow(ctx context.Context, req Request) (bool, error)
}
