package dsp

import "math/rand"

// NoiseBuffer plays a pre-rendered buffer once, like a one-shot buffer source.
type NoiseBuffer struct {
	buf []float32
	pos int
}

func NewNoiseBuffer(buf []float32) *NoiseBuffer {
	return &NoiseBuffer{buf: buf}
}

func (n *NoiseBuffer) At(float64) (float64, bool) {
	if n.pos >= len(n.buf) {
		return 0, false
	}
	v := n.buf[n.pos]
	n.pos++
	return float64(v), true
}

func (n *NoiseBuffer) Len() int { return len(n.buf) }

// WhiteNoise fills seconds of uniform noise in [-1, 1).
func WhiteNoise(sampleRate, seconds float64) []float32 {
	buf := make([]float32, Frames(sampleRate, seconds))
	for i := range buf {
		buf[i] = float32(rand.Float64()*2 - 1)
	}
	return buf
}

// Frames converts a duration to a whole number of frames.
func Frames(sampleRate, seconds float64) int {
	n := int(sampleRate * seconds)
	if n < 1 {
		n = 1
	}
	return n
}
