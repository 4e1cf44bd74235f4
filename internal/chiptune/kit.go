// Package chiptune synthesizes the 8-bit drum kit: pulse kick, LFSR noise
// percussion, triangle bass and a square lead, all with short linear
// release envelopes.
package chiptune

import (
	"math/rand"

	"github.com/cbegin/beatstation-go/internal/dsp"
	"github.com/cbegin/beatstation-go/internal/pattern"
)

var (
	BassPitches  = [4]float64{110.00, 130.81, 146.83, 164.81}
	SynthPitches = [4]float64{440.00, 523.25, 659.25, 783.99}
)

type noiseHit struct {
	name     string
	level    float64
	duration float64
	filter   dsp.FilterType
	cutoff   float64
}

var noiseHits = map[pattern.Kind]noiseHit{
	pattern.Snare: {name: "snare", level: 1, duration: 0.1, filter: dsp.LowPass, cutoff: 3000},
	pattern.HiHat: {name: "hihat", level: 0.8, duration: 0.05, filter: dsp.HighPass, cutoff: 1000},
	pattern.Clap:  {name: "clap", level: 1, duration: 0.15, filter: dsp.BandPass, cutoff: 1500},
}

type Kit struct {
	sampleRate float64
	pick       func(n int) int
	lfsr       uint16
}

func New(sampleRate int) *Kit {
	return &Kit{sampleRate: float64(sampleRate), pick: rand.Intn, lfsr: 0xACE1}
}

// Hit builds one self-contained note of the given kind. vol must already
// be clamped to [0,1].
func (k *Kit) Hit(kind pattern.Kind, vol float64) *dsp.Note {
	switch kind {
	case pattern.Kick:
		return k.kick(vol)
	case pattern.Snare, pattern.HiHat, pattern.Clap:
		return k.noise(kind, vol)
	case pattern.Bass:
		return k.tone("bass", dsp.Triangle, BassPitches[k.pick(len(BassPitches))], vol, 0.2, 0.25)
	case pattern.Synth:
		return k.tone("synth", dsp.Square, SynthPitches[k.pick(len(SynthPitches))], vol*0.8, 0.1, 0.12)
	default:
		return nil
	}
}

func (k *Kit) kick(vol float64) *dsp.Note {
	freq := dsp.NewParam(440).
		SetValueAtTime(150, 0).
		ExponentialRampToValueAtTime(50, 0.1)
	gain := dsp.NewParam(1).
		SetValueAtTime(vol, 0).
		LinearRampToValueAtTime(0, 0.12)
	osc := dsp.NewOscillator(dsp.Square, k.sampleRate, freq, 0.12)
	return dsp.NewNote("kick", k.sampleRate, &dsp.Layer{Sources: []dsp.Source{osc}, Gain: gain})
}

func (k *Kit) noise(kind pattern.Kind, vol float64) *dsp.Note {
	h := noiseHits[kind]
	gain := dsp.NewParam(1).
		SetValueAtTime(vol*h.level, 0).
		LinearRampToValueAtTime(0, h.duration)
	return dsp.NewNote(h.name, k.sampleRate, &dsp.Layer{
		Sources: []dsp.Source{dsp.NewNoiseBuffer(k.lfsrNoise(h.duration))},
		Filter:  dsp.NewBiquad(h.filter, k.sampleRate, dsp.Const(h.cutoff), 1),
		Gain:    gain,
	})
}

// tone holds level until hold, then releases linearly to silence at stop.
func (k *Kit) tone(name string, wave dsp.Waveform, pitch, level, hold, stop float64) *dsp.Note {
	osc := dsp.NewOscillator(wave, k.sampleRate, dsp.Const(pitch), stop)
	gain := dsp.NewParam(1).
		SetValueAtTime(level, 0).
		SetValueAtTime(level, hold).
		LinearRampToValueAtTime(0, stop)
	n := dsp.NewNote(name, k.sampleRate, &dsp.Layer{Sources: []dsp.Source{osc}, Gain: gain})
	n.Pitch = pitch
	return n
}

// lfsrNoise renders seconds of +/-1 noise from a 15-bit feedback shift
// register, one shift per sample. The register carries over between hits.
func (k *Kit) lfsrNoise(seconds float64) []float32 {
	buf := make([]float32, dsp.Frames(k.sampleRate, seconds))
	for i := range buf {
		bit := (k.lfsr ^ (k.lfsr >> 1)) & 1
		k.lfsr = (k.lfsr >> 1) | (bit << 14)
		if k.lfsr&1 == 1 {
			buf[i] = 1
		} else {
			buf[i] = -1
		}
	}
	return buf
}
