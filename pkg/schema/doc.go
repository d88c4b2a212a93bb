// Package schema defines the YAML document formats for problems, plans and
// session snapshots, and builds the in-memory model from them.
//
// Documents are deliberately plain: expressions are written as strings
// ("robot_at(from) && connected(from, to)") and compiled against the
// declared fluents, objects and action parameters. Validation failures are
// collected into an AggregateError listing every problem found, not just
// the first.
package schema
