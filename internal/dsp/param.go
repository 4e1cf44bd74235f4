package dsp

import "math"

type rampKind int

const (
	rampSet rampKind = iota
	rampLinear
	rampExp
)

type paramEvent struct {
	kind  rampKind
	value float64
	time  float64
}

// Param is an automatable value on a note-local timeline, following the
// AudioParam model: discrete sets plus linear and exponential ramps that
// start at the previous event.
type Param struct {
	initial float64
	events  []paramEvent
}

// NewParam returns a param that holds v until its first event.
func NewParam(v float64) *Param {
	return &Param{initial: v}
}

// Const returns a param that never changes.
func Const(v float64) *Param { return NewParam(v) }

func (p *Param) SetValueAtTime(v, t float64) *Param {
	p.events = append(p.events, paramEvent{kind: rampSet, value: v, time: t})
	return p
}

func (p *Param) LinearRampToValueAtTime(v, t float64) *Param {
	p.events = append(p.events, paramEvent{kind: rampLinear, value: v, time: t})
	return p
}

func (p *Param) ExponentialRampToValueAtTime(v, t float64) *Param {
	p.events = append(p.events, paramEvent{kind: rampExp, value: v, time: t})
	return p
}

// ValueAt evaluates the timeline at local time t. Events must have been
// added in non-decreasing time order.
func (p *Param) ValueAt(t float64) float64 {
	prevT, prevV := 0.0, p.initial
	for _, e := range p.events {
		if t < e.time {
			switch e.kind {
			case rampLinear:
				if e.time <= prevT {
					return e.value
				}
				return prevV + (e.value-prevV)*(t-prevT)/(e.time-prevT)
			case rampExp:
				if e.time <= prevT {
					return e.value
				}
				// a ramp from zero or across a sign change holds
				if prevV == 0 || prevV*e.value <= 0 {
					return prevV
				}
				return prevV * math.Pow(e.value/prevV, (t-prevT)/(e.time-prevT))
			default:
				return prevV
			}
		}
		prevT, prevV = e.time, e.value
	}
	return prevV
}

// End returns the time of the last event, or 0 when there are none.
func (p *Param) End() float64 {
	if len(p.events) == 0 {
		return 0
	}
	return p.events[len(p.events)-1].time
}
