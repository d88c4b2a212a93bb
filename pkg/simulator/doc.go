// Package simulator provides the engines that execute grounded actions over
// persistent states: a sequential simulator applying whole instantaneous
// actions atomically, and a temporal simulator decomposing durative actions
// into timed events tracked through a simple temporal network.
package simulator
