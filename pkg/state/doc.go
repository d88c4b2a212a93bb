// Package state provides the persistent world states the simulators advance:
// an immutable snapshot with a parent chain and bounded-depth condensation,
// and a temporal extension carrying running-event bookkeeping plus a
// persistent simple temporal network.
package state
