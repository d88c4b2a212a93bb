package bramble

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/aretw0/bramble/internal/logging"
	"github.com/aretw0/bramble/pkg/model"
	"github.com/aretw0/bramble/pkg/schema"
	"github.com/aretw0/bramble/pkg/simulator"
	"github.com/aretw0/bramble/pkg/state"
)

// Engine is the high-level entry point for the library. It wraps a problem
// together with its sequential and temporal simulators and provides plan
// replay on top of them.
type Engine struct {
	problem  *model.Problem
	seq      *simulator.SequentialSimulator
	temporal *simulator.TemporalSimulator
	logger   *slog.Logger
	simOpts  []simulator.Option
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks on both simulators.
func WithLifecycleHooks(hooks simulator.LifecycleHooks) Option {
	return func(e *Engine) {
		e.simOpts = append(e.simOpts, simulator.WithHooks(hooks))
	}
}

// WithGrounder replaces the default parameter grounder.
func WithGrounder(g simulator.Grounder) Option {
	return func(e *Engine) {
		e.simOpts = append(e.simOpts, simulator.WithGrounder(g))
	}
}

// WithMaxAncestors overrides the state condensation threshold.
func WithMaxAncestors(n int) Option {
	return func(e *Engine) {
		e.simOpts = append(e.simOpts, simulator.WithMaxAncestors(n))
	}
}

// New initializes an Engine over an already-built problem.
func New(problem *model.Problem, opts ...Option) (*Engine, error) {
	if problem == nil {
		return nil, fmt.Errorf("problem must not be nil")
	}

	eng := &Engine{problem: problem}
	for _, opt := range opts {
		opt(eng)
	}
	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}
	eng.logger = eng.logger.With("problem", problem.Name())

	simOpts := append([]simulator.Option{simulator.WithLogger(eng.logger)}, eng.simOpts...)

	seq, err := simulator.NewSequentialSimulator(problem, simOpts...)
	if err != nil {
		return nil, err
	}
	temporal, err := simulator.NewTemporalSimulator(problem, simOpts...)
	if err != nil {
		return nil, err
	}

	eng.seq = seq
	eng.temporal = temporal
	return eng, nil
}

// Load decodes a YAML problem document, builds the model and wraps it in an
// Engine. Validation failures come back as a schema.AggregateError listing
// every problem found.
func Load(source []byte, opts ...Option) (*Engine, error) {
	doc, err := schema.DecodeProblem(source)
	if err != nil {
		return nil, err
	}
	problem, err := schema.BuildProblem(doc)
	if err != nil {
		return nil, err
	}
	return New(problem, opts...)
}

// LoadFile reads and loads a YAML problem document from disk.
func LoadFile(path string, opts ...Option) (*Engine, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read problem file: %w", err)
	}
	return Load(data, opts...)
}

// Problem returns the underlying problem.
func (e *Engine) Problem() *model.Problem {
	return e.problem
}

// Sequential returns the sequential simulator.
func (e *Engine) Sequential() *simulator.SequentialSimulator {
	return e.seq
}

// Temporal returns the temporal simulator.
func (e *Engine) Temporal() *simulator.TemporalSimulator {
	return e.temporal
}

// StepReport describes the step where a plan replay stopped.
type StepReport struct {
	// Index is the position of the failing step in the plan.
	Index int
	// Step renders the failing action instance or event group.
	Step string
	// Unsatisfied lists the conditions that did not hold, when known.
	Unsatisfied []string
}

// Report is the outcome of replaying a plan from the initial state.
type Report struct {
	// Valid is true when every step applied.
	Valid bool
	// GoalReached is true when the final state satisfies all goals.
	GoalReached bool
	// Applied counts the steps that were applied.
	Applied int
	// Failure describes the first failing step; nil when Valid.
	Failure *StepReport
	// UnsatisfiedGoals lists goals the final state misses.
	UnsatisfiedGoals []string
	// Values is the final flattened valuation rendered in expression
	// syntax.
	Values map[string]string
}

// SimulatePlan replays a plan document from the initial state and reports
// how far it got. The plan's Kind selects the engine: "temporal" uses the
// time-triggered replay, anything else the sequential one.
func (e *Engine) SimulatePlan(ctx context.Context, plan *schema.PlanDoc) (*Report, error) {
	if plan == nil {
		return nil, fmt.Errorf("plan must not be nil")
	}
	if plan.Kind == "temporal" {
		return e.simulateTemporal(ctx, plan)
	}
	return e.simulateSequential(ctx, plan)
}

// ValidatePlan replays the plan and returns an error unless every step
// applies and the goal is reached.
func (e *Engine) ValidatePlan(ctx context.Context, plan *schema.PlanDoc) error {
	report, err := e.SimulatePlan(ctx, plan)
	if err != nil {
		return err
	}
	if !report.Valid {
		return fmt.Errorf("step %d (%s) is not applicable: %s",
			report.Failure.Index, report.Failure.Step,
			strings.Join(report.Failure.Unsatisfied, "; "))
	}
	if !report.GoalReached {
		return fmt.Errorf("plan ends short of the goal: %s",
			strings.Join(report.UnsatisfiedGoals, "; "))
	}
	return nil
}

func (e *Engine) simulateSequential(ctx context.Context, doc *schema.PlanDoc) (*Report, error) {
	plan, err := schema.BuildSequentialPlan(e.problem, doc)
	if err != nil {
		return nil, err
	}

	st, err := e.seq.InitialState()
	if err != nil {
		return nil, err
	}

	report := &Report{Valid: true}
	for i, ai := range plan.Actions {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		next, err := e.seq.Apply(st, ai.Action, ai.Params...)
		if err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i, ai, err)
		}
		if next == nil {
			unsat, err := e.seq.UnsatisfiedConditions(st, ai.Action, ai.Params, false)
			if err != nil {
				return nil, fmt.Errorf("step %d (%s): %w", i, ai, err)
			}
			report.Valid = false
			report.Failure = &StepReport{Index: i, Step: ai.String(), Unsatisfied: renderNodes(unsat)}
			break
		}
		st = next
		report.Applied++
	}

	if report.Valid {
		goals, err := e.seq.UnsatisfiedGoals(st, false)
		if err != nil {
			return nil, err
		}
		report.GoalReached = len(goals) == 0
		report.UnsatisfiedGoals = renderNodes(goals)
	}
	report.Values = renderValues(st.Flattened())
	return report, nil
}

// timedEvent places one decomposition event on the plan's absolute
// timeline.
type timedEvent struct {
	time float64
	step int
	ev   *model.TemporalEvent
}

func (e *Engine) simulateTemporal(ctx context.Context, doc *schema.PlanDoc) (*Report, error) {
	plan, err := schema.BuildTimeTriggeredPlan(e.problem, doc)
	if err != nil {
		return nil, err
	}

	timeline, err := e.buildTimeline(plan)
	if err != nil {
		return nil, err
	}

	st, err := e.temporal.InitialState()
	if err != nil {
		return nil, err
	}

	report := &Report{Valid: true}
	for i := 0; i < len(timeline); {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		// Events sharing a timestamp apply as one simultaneous group.
		j := i + 1
		for j < len(timeline) && timeline[j].time == timeline[i].time {
			j++
		}
		group := make([]*model.TemporalEvent, 0, j-i)
		for _, te := range timeline[i:j] {
			group = append(group, te.ev)
		}

		next, err := e.temporal.Apply(st, group...)
		if err != nil {
			return nil, fmt.Errorf("t=%g: %w", timeline[i].time, err)
		}
		if next == nil {
			report.Valid = false
			report.Failure = e.temporalFailure(st, timeline[i].step, timeline[i].time, group)
			break
		}
		st = next
		report.Applied++
		i = j
	}

	if report.Valid {
		goal, err := e.temporal.IsGoal(st)
		if err != nil {
			return nil, err
		}
		report.GoalReached = goal
		if !goal {
			goals, err := e.temporal.UnsatisfiedGoals(st, false)
			if err != nil {
				return nil, err
			}
			report.UnsatisfiedGoals = renderNodes(goals)
		}
	}
	report.Values = renderValues(st.Flattened())
	return report, nil
}

// buildTimeline expands every plan step into its decomposition events at
// absolute times: start-anchored events fire at start+delay, end-anchored
// ones at start+duration+delay.
func (e *Engine) buildTimeline(plan *model.TimeTriggeredPlan) ([]timedEvent, error) {
	var timeline []timedEvent
	for i, step := range plan.Steps {
		events, err := e.temporal.Events(step.Instance.Action, step.Instance.Params...)
		if err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i, step.Instance, err)
		}
		for _, ev := range events {
			at := step.Start + ev.Timing().Delay()
			if ev.Timing().Kind() == model.EndTimepoint {
				at = step.Start + step.Duration + ev.Timing().Delay()
			}
			timeline = append(timeline, timedEvent{time: at, step: i, ev: ev})
		}
	}
	// Stable keeps each instance's decomposition order within a timestamp.
	sort.SliceStable(timeline, func(a, b int) bool {
		return timeline[a].time < timeline[b].time
	})
	return timeline, nil
}

func (e *Engine) temporalFailure(st *state.TemporalState, step int,
	at float64, group []*model.TemporalEvent) *StepReport {

	parts := make([]string, len(group))
	var unsat []string
	for i, ev := range group {
		parts[i] = ev.String()
		failed, err := e.temporal.UnsatisfiedConditions(st, ev, false)
		if err != nil {
			e.logger.Warn("failed to explain rejected event", "event", ev.String(), "err", err)
			continue
		}
		unsat = append(unsat, renderNodes(failed)...)
	}
	return &StepReport{
		Index:       step,
		Step:        fmt.Sprintf("t=%g: [%s]", at, strings.Join(parts, "; ")),
		Unsatisfied: unsat,
	}
}

func renderNodes(nodes []*model.Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.String()
	}
	return out
}

func renderValues(flat map[*model.Node]*model.Node) map[string]string {
	out := make(map[string]string, len(flat))
	for k, v := range flat {
		out[k.String()] = v.String()
	}
	return out
}
