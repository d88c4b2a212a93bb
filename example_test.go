package bramble_test

import (
	"context"
	"fmt"
	"log"

	"github.com/aretw0/bramble"
	"github.com/aretw0/bramble/pkg/dsl"
	"github.com/aretw0/bramble/pkg/schema"
)

// ExampleNew demonstrates defining a problem with the fluent builder and
// replaying a plan against it.
func ExampleNew() {
	b := dsl.New("corridor")
	b.Objects("location", "l0", "l1")
	b.BoolFluent("robot_at", false, b.Param("l", "location"))

	move := b.Action("move")
	from := move.Param("from", "location")
	to := move.Param("to", "location")
	move.Pre(b.Ref("robot_at", from)).
		Effect(b.Ref("robot_at", from), false).
		Effect(b.Ref("robot_at", to), true)

	b.Init(b.Ref("robot_at", b.Obj("l0")), true)
	b.Goal(b.Ref("robot_at", b.Obj("l1")))

	problem, err := b.Build()
	if err != nil {
		log.Fatal(err)
	}

	engine, err := bramble.New(problem)
	if err != nil {
		log.Fatal(err)
	}

	plan := &schema.PlanDoc{Steps: []schema.StepDoc{
		{Action: "move", Params: []string{"l0", "l1"}},
	}}
	report, err := engine.SimulatePlan(context.Background(), plan)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println("valid:", report.Valid)
	fmt.Println("goal reached:", report.GoalReached)
	// Output:
	// valid: true
	// goal reached: true
}

// ExampleLoad demonstrates loading a problem from a YAML document.
func ExampleLoad() {
	document := `
name: toggle
fluents:
  - {name: lit, type: bool}
actions:
  - name: flip
    preconditions: [not lit]
    effects:
      - {target: lit, value: true}
init:
  lit: false
goals:
  - lit
`
	engine, err := bramble.Load([]byte(document))
	if err != nil {
		log.Fatal(err)
	}

	report, err := engine.SimulatePlan(context.Background(), &schema.PlanDoc{
		Steps: []schema.StepDoc{{Action: "flip"}},
	})
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println("steps applied:", report.Applied)
	fmt.Println("lit:", report.Values["lit"])
	// Output:
	// steps applied: 1
	// lit: true
}
