// Package model defines the planning-domain data model: typed expression
// nodes built through a hash-consing Factory, fluents, actions, effects,
// timed events and problems.
//
// Every entity belongs to exactly one Environment. The Environment owns the
// type system and the expression Factory; two structurally equal expressions
// built through the same Factory are the same *Node, so pointer comparison
// is expression equality.
package model
