package schema

import "time"

// ProblemDoc is the YAML document declaring a planning problem.
type ProblemDoc struct {
	Name    string      `yaml:"name" mapstructure:"name"`
	Types   []string    `yaml:"types,omitempty" mapstructure:"types"`
	Objects []ObjectDoc `yaml:"objects,omitempty" mapstructure:"objects"`
	Fluents []FluentDoc `yaml:"fluents" mapstructure:"fluents"`
	Actions []ActionDoc `yaml:"actions" mapstructure:"actions"`
	// Init maps ground fluent expressions to literal values,
	// e.g. "robot_at(l0)": true.
	Init  map[string]any `yaml:"init,omitempty" mapstructure:"init"`
	Goals []string       `yaml:"goals" mapstructure:"goals"`
}

// ObjectDoc declares one typed object of the problem.
type ObjectDoc struct {
	Name string `yaml:"name" mapstructure:"name"`
	Type string `yaml:"type" mapstructure:"type"`
}

// ParamDoc declares a typed parameter of a fluent or action.
type ParamDoc struct {
	Name string `yaml:"name" mapstructure:"name"`
	Type string `yaml:"type" mapstructure:"type"`
}

// FluentDoc declares a state variable. Type is "bool", "int", "real" or a
// declared user type. Default seeds every ground instance the init section
// does not mention.
type FluentDoc struct {
	Name    string     `yaml:"name" mapstructure:"name"`
	Type    string     `yaml:"type" mapstructure:"type"`
	Params  []ParamDoc `yaml:"params,omitempty" mapstructure:"params"`
	Default any        `yaml:"default,omitempty" mapstructure:"default"`
}

// DurationDoc bounds a durative action's length. Fixed is shorthand for
// equal bounds; Lower/Upper are expressions over static fluents.
type DurationDoc struct {
	Fixed *float64 `yaml:"fixed,omitempty" mapstructure:"fixed"`
	Lower string   `yaml:"lower,omitempty" mapstructure:"lower"`
	Upper string   `yaml:"upper,omitempty" mapstructure:"upper"`
}

// ConditionDoc attaches a condition to a durative action. Over is "start",
// "end" or "all" (the whole interval, closed).
type ConditionDoc struct {
	Expr string `yaml:"expr" mapstructure:"expr"`
	Over string `yaml:"over,omitempty" mapstructure:"over"`
}

// EffectDoc declares one effect. Kind is "assign" (default), "increase" or
// "decrease". When is "start" (default) or "end" and only meaningful on
// durative actions. Condition gates the effect when present.
type EffectDoc struct {
	Target    string `yaml:"target" mapstructure:"target"`
	Value     any    `yaml:"value" mapstructure:"value"`
	Kind      string `yaml:"kind,omitempty" mapstructure:"kind"`
	When      string `yaml:"when,omitempty" mapstructure:"when"`
	Condition string `yaml:"condition,omitempty" mapstructure:"condition"`
}

// ActionDoc declares a lifted action. A nil Duration means instantaneous.
type ActionDoc struct {
	Name          string         `yaml:"name" mapstructure:"name"`
	Params        []ParamDoc     `yaml:"params,omitempty" mapstructure:"params"`
	Duration      *DurationDoc   `yaml:"duration,omitempty" mapstructure:"duration"`
	Preconditions []string       `yaml:"preconditions,omitempty" mapstructure:"preconditions"`
	Conditions    []ConditionDoc `yaml:"conditions,omitempty" mapstructure:"conditions"`
	Effects       []EffectDoc    `yaml:"effects" mapstructure:"effects"`
}

// StepDoc is one step of a plan. Params are object names. Start and
// Duration matter only in time-triggered plans.
type StepDoc struct {
	Action   string   `json:"action" yaml:"action" mapstructure:"action"`
	Params   []string `json:"params,omitempty" yaml:"params,omitempty" mapstructure:"params"`
	Start    float64  `json:"start,omitempty" yaml:"start,omitempty" mapstructure:"start"`
	Duration float64  `json:"duration,omitempty" yaml:"duration,omitempty" mapstructure:"duration"`
}

// PlanDoc is the YAML document for a plan. Kind is "sequential" (default)
// or "temporal".
type PlanDoc struct {
	Problem string    `json:"problem,omitempty" yaml:"problem,omitempty" mapstructure:"problem"`
	Kind    string    `json:"kind,omitempty" yaml:"kind,omitempty" mapstructure:"kind"`
	Steps   []StepDoc `json:"steps" yaml:"steps" mapstructure:"steps"`
}

// Snapshot is the serializable record of a simulation session: the problem
// name, the steps applied so far and the flattened fluent valuation, both
// sides rendered in expression syntax.
type Snapshot struct {
	Session   string            `json:"session" yaml:"session"`
	Problem   string            `json:"problem" yaml:"problem"`
	Steps     []StepDoc         `json:"steps,omitempty" yaml:"steps,omitempty"`
	Values    map[string]string `json:"values" yaml:"values"`
	UpdatedAt time.Time         `json:"updated_at" yaml:"updated_at"`
}

// Clone deep-copies the snapshot so stores can hand out isolated records.
func (s *Snapshot) Clone() *Snapshot {
	out := *s
	out.Steps = make([]StepDoc, len(s.Steps))
	copy(out.Steps, s.Steps)
	out.Values = make(map[string]string, len(s.Values))
	for k, v := range s.Values {
		out.Values[k] = v
	}
	// Params slices are never mutated after decode; sharing them is fine.
	return &out
}
