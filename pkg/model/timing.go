package model

import (
	"fmt"
	"strconv"
)

// TimepointKind anchors a timing to one end of a durative action.
type TimepointKind uint8

const (
	// StartTimepoint is relative to the start of the enclosing action.
	StartTimepoint TimepointKind = iota + 1
	// EndTimepoint is relative to the end of the enclosing action.
	EndTimepoint
)

// Timing is a timepoint with a constant offset, e.g. "start+2" or "end".
// Timing is a comparable value type and may be used as a map key.
type Timing struct {
	kind  TimepointKind
	delay float64
}

// StartTiming is the action start timepoint.
func StartTiming() Timing { return Timing{kind: StartTimepoint} }

// EndTiming is the action end timepoint.
func EndTiming() Timing { return Timing{kind: EndTimepoint} }

// StartTimingDelay is the action start timepoint offset by delay.
func StartTimingDelay(delay float64) Timing {
	return Timing{kind: StartTimepoint, delay: delay}
}

// EndTimingDelay is the action end timepoint offset by delay.
func EndTimingDelay(delay float64) Timing {
	return Timing{kind: EndTimepoint, delay: delay}
}

// Kind returns the anchoring timepoint.
func (t Timing) Kind() TimepointKind { return t.kind }

// Delay returns the constant offset from the anchor.
func (t Timing) Delay() float64 { return t.delay }

// IsStart reports whether the timing is exactly the action start.
func (t Timing) IsStart() bool { return t.kind == StartTimepoint && t.delay == 0 }

// IsEnd reports whether the timing is exactly the action end.
func (t Timing) IsEnd() bool { return t.kind == EndTimepoint && t.delay == 0 }

func (t Timing) String() string {
	base := "start"
	if t.kind == EndTimepoint {
		base = "end"
	}
	if t.delay == 0 {
		return base
	}
	if t.delay > 0 {
		return base + "+" + strconv.FormatFloat(t.delay, 'g', -1, 64)
	}
	return base + strconv.FormatFloat(t.delay, 'g', -1, 64)
}

// TimeInterval is a (possibly open-ended) span between two timings.
// TimeInterval is comparable and may be used as a map key.
type TimeInterval struct {
	Lower     Timing
	Upper     Timing
	LeftOpen  bool
	RightOpen bool
}

// PointInterval is the degenerate closed interval [t, t].
func PointInterval(t Timing) TimeInterval {
	return TimeInterval{Lower: t, Upper: t}
}

// ClosedInterval is [lower, upper].
func ClosedInterval(lower, upper Timing) TimeInterval {
	return TimeInterval{Lower: lower, Upper: upper}
}

// OpenInterval is (lower, upper).
func OpenInterval(lower, upper Timing) TimeInterval {
	return TimeInterval{Lower: lower, Upper: upper, LeftOpen: true, RightOpen: true}
}

// IsPoint reports whether the interval covers a single inclusive timepoint.
func (iv TimeInterval) IsPoint() bool {
	return iv.Lower == iv.Upper && !iv.LeftOpen && !iv.RightOpen
}

func (iv TimeInterval) String() string {
	l, r := "[", "]"
	if iv.LeftOpen {
		l = "("
	}
	if iv.RightOpen {
		r = ")"
	}
	return fmt.Sprintf("%s%s, %s%s", l, iv.Lower, iv.Upper, r)
}

// Duration bounds the length of a durative action: lower <= end-start <= upper,
// with optional strict ends. Bounds are expressions so durations may depend
// on static fluents; they must evaluate to numeric constants at start time.
type Duration struct {
	Lower     *Node
	Upper     *Node
	LeftOpen  bool
	RightOpen bool
}

// IsFixed reports whether the duration is a single exact value.
func (d Duration) IsFixed() bool {
	return d.Lower == d.Upper && !d.LeftOpen && !d.RightOpen
}

func (d Duration) String() string {
	l, r := "[", "]"
	if d.LeftOpen {
		l = "("
	}
	if d.RightOpen {
		r = ")"
	}
	return fmt.Sprintf("%s%s, %s%s", l, d.Lower, d.Upper, r)
}
