package model

import (
	"fmt"
	"strings"
)

// ActionInstance is a lifted action plus ground parameters.
type ActionInstance struct {
	Action *Action
	Params []*Node
}

func (ai ActionInstance) String() string {
	if len(ai.Params) == 0 {
		return ai.Action.Name()
	}
	parts := make([]string, len(ai.Params))
	for i, p := range ai.Params {
		parts[i] = p.String()
	}
	return ai.Action.Name() + "(" + strings.Join(parts, ", ") + ")"
}

// SequentialPlan is an ordered list of action instances applied one at a
// time.
type SequentialPlan struct {
	Actions []ActionInstance
}

func (p *SequentialPlan) String() string {
	parts := make([]string, len(p.Actions))
	for i, a := range p.Actions {
		parts[i] = a.String()
	}
	return "[" + strings.Join(parts, "; ") + "]"
}

// TimedActionInstance schedules an action instance at an absolute start
// time with an actual duration (zero for instantaneous actions).
type TimedActionInstance struct {
	Start    float64
	Instance ActionInstance
	Duration float64
}

func (t TimedActionInstance) String() string {
	return fmt.Sprintf("%g: %s [%g]", t.Start, t.Instance, t.Duration)
}

// TimeTriggeredPlan is a schedule of timed action instances, sorted by
// start time.
type TimeTriggeredPlan struct {
	Steps []TimedActionInstance
}

func (p *TimeTriggeredPlan) String() string {
	parts := make([]string, len(p.Steps))
	for i, s := range p.Steps {
		parts[i] = s.String()
	}
	return "[" + strings.Join(parts, "; ") + "]"
}
