/*
Package dsl provides a fluent Go builder for constructing planning problems
programmatically, as an alternative to YAML documents.

It is particularly useful for generated models, unit tests, and for features
a declarative document cannot express, such as black-box simulated effects.
Errors are accumulated: the first failure sticks, later calls become no-ops,
and Build reports it, so a definition reads as a straight-line chain without
intermediate error checks.

Example usage:

	b := dsl.New("logistics")
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
*/
package dsl
