package effects

import (
	"math"
	"sync/atomic"
)

// MaxDelaySeconds bounds the delay line.
const MaxDelaySeconds = 2.0

// FeedbackDelay is a mono delay line whose output is fed back into its own
// input through a feedback gain. Time and feedback are read atomically on
// every sample.
type FeedbackDelay struct {
	buf        []float32
	pos        int
	sampleRate float32
	time       atomic.Uint32 // float32 bits, seconds
	feedback   atomic.Uint32 // float32 bits
}

func NewFeedbackDelay(sampleRate int, seconds, feedback float32) *FeedbackDelay {
	d := &FeedbackDelay{
		buf:        make([]float32, int(MaxDelaySeconds*float64(sampleRate))+2),
		sampleRate: float32(sampleRate),
	}
	d.SetTime(seconds)
	d.SetFeedback(feedback)
	return d
}

func (d *FeedbackDelay) SetTime(seconds float32) {
	d.time.Store(math.Float32bits(clamp(seconds, 0, MaxDelaySeconds)))
}

func (d *FeedbackDelay) Time() float32 {
	return math.Float32frombits(d.time.Load())
}

func (d *FeedbackDelay) SetFeedback(g float32) {
	d.feedback.Store(math.Float32bits(g))
}

func (d *FeedbackDelay) Feedback() float32 {
	return math.Float32frombits(d.feedback.Load())
}

// Process writes x into the line and returns the delayed signal.
func (d *FeedbackDelay) Process(x float32) float32 {
	delay := d.Time() * d.sampleRate
	if delay < 1 {
		delay = 1
	}
	n := len(d.buf)
	read := float32(d.pos) - delay
	for read < 0 {
		read += float32(n)
	}
	i := int(read)
	frac := read - float32(i)
	a := d.buf[i%n]
	b := d.buf[(i+1)%n]
	out := a + (b-a)*frac

	d.buf[d.pos] = x + out*d.Feedback()
	d.pos++
	if d.pos >= n {
		d.pos = 0
	}
	return out
}

func (d *FeedbackDelay) Reset() {
	for i := range d.buf {
		d.buf[i] = 0
	}
	d.pos = 0
}

func clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
