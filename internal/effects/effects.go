package effects

import (
	"math"
	"sync/atomic"
)

// MasterGain is the fixed output level after the dry/wet sum.
const MasterGain = 0.6

// Effector processes mono audio one sample at a time.
type Effector interface {
	Process(x float32) float32
	Reset()
}

// Chain is the fixed master path: mix bus -> shaper, then shaper -> dry
// gain and shaper -> delay -> wet gain, summed into the master gain. The
// topology never changes; Update only re-targets parameters.
type Chain struct {
	shaper *WaveShaper
	delay  *FeedbackDelay
	dry    atomic.Uint32 // float32 bits
	wet    atomic.Uint32
}

func NewChain(sampleRate int) *Chain {
	c := &Chain{
		shaper: NewWaveShaper(),
		delay:  NewFeedbackDelay(sampleRate, 0.3, 0),
	}
	c.Update(DefaultSettings())
	return c
}

// Update clamps s and applies it. A disabled stage is bypassed by its
// parameters rather than by rewiring: the identity curve for distortion,
// zero wet and feedback with unity dry for the delay.
func (c *Chain) Update(s Settings) {
	s = s.Clamp()
	if s.Distortion.Enabled {
		c.shaper.SetCurve(DistortionCurve(s.Distortion.Amount))
	} else {
		c.shaper.SetCurve(DistortionCurve(0))
	}
	if s.Delay.Enabled {
		c.delay.SetTime(float32(math.Max(0.01, s.Delay.Time)))
		c.delay.SetFeedback(float32(s.Delay.Feedback))
		c.wet.Store(math.Float32bits(float32(s.Delay.Mix)))
		c.dry.Store(math.Float32bits(float32(1 - s.Delay.Mix/2)))
	} else {
		c.delay.SetFeedback(0)
		c.wet.Store(math.Float32bits(0))
		c.dry.Store(math.Float32bits(1))
	}
}

func (c *Chain) Process(x float32) float32 {
	s := c.shaper.Process(x)
	d := c.delay.Process(s)
	dry := math.Float32frombits(c.dry.Load())
	wet := math.Float32frombits(c.wet.Load())
	return (s*dry + d*wet) * MasterGain
}

func (c *Chain) Reset() {
	c.shaper.Reset()
	c.delay.Reset()
}

// Gains reports the current dry, wet and feedback levels.
func (c *Chain) Gains() (dry, wet, feedback float32) {
	return math.Float32frombits(c.dry.Load()), math.Float32frombits(c.wet.Load()), c.delay.Feedback()
}

func (c *Chain) DelayTime() float32 { return c.delay.Time() }

func (c *Chain) Curve() []float32 { return c.shaper.Curve() }
