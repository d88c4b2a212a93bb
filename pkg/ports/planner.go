package ports

import (
	"context"

	"github.com/aretw0/bramble/pkg/schema"
)

// PlanStatus tags one result emitted by an anytime planner.
type PlanStatus string

const (
	// StatusIntermediate marks a candidate plan; better ones may follow.
	StatusIntermediate PlanStatus = "intermediate"
	// StatusFinal marks the planner's last answer.
	StatusFinal PlanStatus = "final"
	// StatusUnsolvable means the planner proved there is no plan.
	StatusUnsolvable PlanStatus = "unsolvable"
	// StatusTimeout means the wall-clock budget expired before a final
	// answer.
	StatusTimeout PlanStatus = "timeout"
	// StatusError means the planner failed.
	StatusError PlanStatus = "error"
)

// Terminal reports whether no further results will follow this status.
func (s PlanStatus) Terminal() bool {
	return s != StatusIntermediate
}

// PlanResult is one emission of an anytime planner.
type PlanResult struct {
	Status PlanStatus
	Plan   *schema.PlanDoc // nil unless Status is intermediate or final
	Detail string          // engine message, populated on error
}

// Planner produces plans for a problem document. Anytime planners emit
// intermediate results on the channel and always end with a terminal
// status; the channel is closed after the terminal result.
type Planner interface {
	Solve(ctx context.Context, problem *schema.ProblemDoc) (<-chan PlanResult, error)
}
