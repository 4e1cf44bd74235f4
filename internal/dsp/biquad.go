package dsp

import "math"

type FilterType int

const (
	LowPass FilterType = iota
	HighPass
	BandPass
)

// Biquad is an RBJ-cookbook second order filter whose cutoff can follow a
// Param. Low-pass and high-pass Q is a resonance in dB; band-pass Q is linear.
type Biquad struct {
	Type FilterType
	Freq *Param
	Q    float64

	sampleRate float64
	lastFreq   float64
	b0, b1, b2 float64
	a1, a2     float64
	x1, x2     float64
	y1, y2     float64
}

func NewBiquad(typ FilterType, sampleRate float64, freq *Param, q float64) *Biquad {
	return &Biquad{Type: typ, Freq: freq, Q: q, sampleRate: sampleRate, lastFreq: -1}
}

// Process filters one sample at local time t.
func (f *Biquad) Process(x, t float64) float64 {
	if freq := f.Freq.ValueAt(t); freq != f.lastFreq {
		f.design(freq)
	}
	y := f.b0*x + f.b1*f.x1 + f.b2*f.x2 - f.a1*f.y1 - f.a2*f.y2
	f.x2, f.x1 = f.x1, x
	f.y2, f.y1 = f.y1, y
	return y
}

func (f *Biquad) design(freq float64) {
	f.lastFreq = freq
	nyq := f.sampleRate / 2
	if freq < 1 {
		freq = 1
	}
	if freq > nyq*0.999 {
		freq = nyq * 0.999
	}
	w0 := twoPi * freq / f.sampleRate
	cosw, sinw := math.Cos(w0), math.Sin(w0)
	var alpha, b0, b1, b2 float64
	switch f.Type {
	case HighPass:
		alpha = sinw / (2 * math.Pow(10, f.Q/20))
		b0 = (1 + cosw) / 2
		b1 = -(1 + cosw)
		b2 = (1 + cosw) / 2
	case BandPass:
		q := f.Q
		if q <= 0 {
			q = 0.0001
		}
		alpha = sinw / (2 * q)
		b0 = alpha
		b1 = 0
		b2 = -alpha
	default:
		alpha = sinw / (2 * math.Pow(10, f.Q/20))
		b0 = (1 - cosw) / 2
		b1 = 1 - cosw
		b2 = (1 - cosw) / 2
	}
	a0 := 1 + alpha
	f.b0, f.b1, f.b2 = b0/a0, b1/a0, b2/a0
	f.a1, f.a2 = -2*cosw/a0, (1-alpha)/a0
}
