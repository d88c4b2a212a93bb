/*
Package bramble is a planning-problem modeling and plan-simulation library.

It models typed planning problems (fluents, objects, instantaneous and
durative actions) over a hash-consing expression factory, and replays plans
against them with persistent, cheaply-forkable states. Two engines are
provided: a sequential simulator for instantaneous actions and a temporal
simulator that decomposes durative actions into timed events checked against
a simple temporal network.

# Usage

Problems can be built programmatically through pkg/model or loaded from a
YAML document:

	eng, err := bramble.LoadFile("problem.yaml")
	if err != nil {
		log.Fatal(err)
	}

	plan, err := schema.DecodePlan(planSource)
	if err != nil {
		log.Fatal(err)
	}

	report, err := eng.SimulatePlan(ctx, plan)
	if err != nil {
		log.Fatal(err)
	}
	if !report.GoalReached {
		log.Printf("plan falls short: %v", report.UnsatisfiedGoals)
	}

The simulators themselves are exposed for step-by-step exploration
(Sequential/Temporal), and pkg/session plus the storage adapters keep
long-running simulation sessions across processes.
*/
package bramble
