package dsp

import "math"

const twoPi = math.Pi * 2

type Waveform int

const (
	Sine Waveform = iota
	Square
	Sawtooth
	Triangle
)

func (w Waveform) String() string {
	switch w {
	case Sine:
		return "sine"
	case Square:
		return "square"
	case Sawtooth:
		return "sawtooth"
	case Triangle:
		return "triangle"
	default:
		return "unknown"
	}
}

// Oscillator is a band-limited periodic source with an automatable
// frequency. It stops producing at StopAt (seconds, note-local).
type Oscillator struct {
	Wave   Waveform
	Freq   *Param
	StopAt float64

	dt    float64
	phase float64
}

func NewOscillator(wave Waveform, sampleRate float64, freq *Param, stopAt float64) *Oscillator {
	return &Oscillator{Wave: wave, Freq: freq, StopAt: stopAt, dt: 1 / sampleRate}
}

// At returns the next sample for local time t and false once stopped.
func (o *Oscillator) At(t float64) (float64, bool) {
	if t >= o.StopAt {
		return 0, false
	}
	inc := o.Freq.ValueAt(t) * o.dt
	if inc < 0 {
		inc = -inc
	}
	v := o.shape(o.phase, inc)
	o.phase += inc
	o.phase -= math.Floor(o.phase)
	return v, true
}

func (o *Oscillator) shape(p, inc float64) float64 {
	switch o.Wave {
	case Square:
		out := -1.0
		if p < 0.5 {
			out = 1
		}
		out += polyBLEP(p, inc)
		out -= polyBLEP(math.Mod(p+0.5, 1), inc)
		return out
	case Sawtooth:
		// zero-crossing start, rising
		q := math.Mod(p+0.5, 1)
		return 2*q - 1 - polyBLEP(q, inc)
	case Triangle:
		return 1 - 4*math.Abs(math.Mod(p+0.25, 1)-0.5)
	default:
		return math.Sin(twoPi * p)
	}
}

// polyBLEP reduces aliasing at waveform discontinuities.
// t is the phase position [0,1), dt is the phase increment per sample.
func polyBLEP(t, dt float64) float64 {
	if dt <= 0 {
		return 0
	}
	if t < dt {
		t /= dt
		return t + t - t*t - 1
	}
	if t > 1-dt {
		t = (t - 1) / dt
		return t*t + t + t + 1
	}
	return 0
}
