package effects

import (
	"math"
	"sync/atomic"
)

// CurveLength is the number of points in a distortion transfer curve.
const CurveLength = 44100

const oversample = 4

// DistortionCurve builds the waveshaper transfer curve for amount k. An
// amount of 0 yields the identity ramp, which is also the disabled curve.
func DistortionCurve(amount float64) []float32 {
	curve := make([]float32, CurveLength)
	n := float64(CurveLength)
	for i := range curve {
		x := 2*float64(i)/n - 1
		if amount == 0 {
			curve[i] = float32(x)
			continue
		}
		curve[i] = float32((3 + amount) * x * 20 * (math.Pi / 180) / (math.Pi + amount*math.Abs(x)))
	}
	return curve
}

// WaveShaper maps samples through a transfer curve at 4x oversampling.
// The curve is swapped atomically so the render thread never blocks.
type WaveShaper struct {
	curve atomic.Pointer[[]float32]
	prev  float32
}

func NewWaveShaper() *WaveShaper {
	ws := &WaveShaper{}
	ws.SetCurve(DistortionCurve(0))
	return ws
}

func (ws *WaveShaper) SetCurve(curve []float32) {
	ws.curve.Store(&curve)
}

func (ws *WaveShaper) Curve() []float32 {
	return *ws.curve.Load()
}

func (ws *WaveShaper) Process(x float32) float32 {
	curve := *ws.curve.Load()
	var sum float32
	for j := 1; j <= oversample; j++ {
		in := ws.prev + (x-ws.prev)*float32(j)/oversample
		sum += shape(curve, in)
	}
	ws.prev = x
	return sum / oversample
}

func (ws *WaveShaper) Reset() {
	ws.prev = 0
}

// shape looks x up in curve with linear interpolation; inputs outside
// [-1,1] take the end values.
func shape(curve []float32, x float32) float32 {
	n := len(curve)
	if n == 0 {
		return x
	}
	v := float32(n-1) * (x + 1) / 2
	if v <= 0 {
		return curve[0]
	}
	if v >= float32(n-1) {
		return curve[n-1]
	}
	i := int(v)
	frac := v - float32(i)
	return curve[i] + (curve[i+1]-curve[i])*frac
}
