// Package analog synthesizes the analog-style drum kit: swept sine kick,
// noise-and-tone snare, filtered noise hats and claps, saw bass and a
// detuned two-oscillator lead.
package analog

import (
	"math/rand"

	"github.com/cbegin/beatstation-go/internal/dsp"
	"github.com/cbegin/beatstation-go/internal/pattern"
)

// Sub-bass and lead pitch sets in Hz (C1 Eb1 F1 G1, C4 Eb4 G4 Bb4).
var (
	BassPitches  = [4]float64{32.70, 38.89, 43.65, 49.00}
	SynthPitches = [4]float64{261.63, 311.13, 392.00, 466.16}
)

type Kit struct {
	sampleRate float64
	pick       func(n int) int
}

func New(sampleRate int) *Kit {
	return &Kit{sampleRate: float64(sampleRate), pick: rand.Intn}
}

// Hit builds one self-contained note of the given kind. vol must already
// be clamped to [0,1].
func (k *Kit) Hit(kind pattern.Kind, vol float64) *dsp.Note {
	switch kind {
	case pattern.Kick:
		return k.kick(vol)
	case pattern.Snare:
		return k.snare(vol)
	case pattern.HiHat:
		return k.hihat(vol)
	case pattern.Clap:
		return k.clap(vol)
	case pattern.Bass:
		return k.bass(vol)
	case pattern.Synth:
		return k.synth(vol)
	default:
		return nil
	}
}

func (k *Kit) kick(vol float64) *dsp.Note {
	freq := dsp.NewParam(440).
		SetValueAtTime(150, 0).
		ExponentialRampToValueAtTime(0.01, 0.5)
	gain := dsp.NewParam(1).
		SetValueAtTime(vol, 0).
		ExponentialRampToValueAtTime(0.001, 0.5)
	osc := dsp.NewOscillator(dsp.Sine, k.sampleRate, freq, 0.5)
	return dsp.NewNote("kick", k.sampleRate, &dsp.Layer{Sources: []dsp.Source{osc}, Gain: gain})
}

func (k *Kit) snare(vol float64) *dsp.Note {
	tone := dsp.NewOscillator(dsp.Triangle, k.sampleRate, dsp.NewParam(440).SetValueAtTime(250, 0), 0.1)
	toneGain := dsp.NewParam(1).
		SetValueAtTime(vol*0.5, 0).
		ExponentialRampToValueAtTime(0.01, 0.1)

	noise := dsp.NewNoiseBuffer(dsp.WhiteNoise(k.sampleRate, 0.2))
	noiseGain := dsp.NewParam(1).
		SetValueAtTime(vol, 0).
		ExponentialRampToValueAtTime(0.01, 0.2)

	return dsp.NewNote("snare", k.sampleRate,
		&dsp.Layer{Sources: []dsp.Source{tone}, Gain: toneGain},
		&dsp.Layer{
			Sources: []dsp.Source{noise},
			Filter:  dsp.NewBiquad(dsp.HighPass, k.sampleRate, dsp.Const(1000), 1),
			Gain:    noiseGain,
		},
	)
}

func (k *Kit) hihat(vol float64) *dsp.Note {
	noise := dsp.NewNoiseBuffer(dsp.WhiteNoise(k.sampleRate, 0.1))
	gain := dsp.NewParam(1).
		SetValueAtTime(vol*0.8, 0).
		ExponentialRampToValueAtTime(0.01, 0.05)
	return dsp.NewNote("hihat", k.sampleRate, &dsp.Layer{
		Sources: []dsp.Source{noise},
		Filter:  dsp.NewBiquad(dsp.HighPass, k.sampleRate, dsp.Const(5000), 1),
		Gain:    gain,
	})
}

// clap re-opens the envelope once after the first transient before the
// final decay.
func (k *Kit) clap(vol float64) *dsp.Note {
	noise := dsp.NewNoiseBuffer(dsp.WhiteNoise(k.sampleRate, 0.2))
	gain := dsp.NewParam(1).
		SetValueAtTime(0, 0).
		LinearRampToValueAtTime(vol, 0.01).
		ExponentialRampToValueAtTime(0.1, 0.03).
		LinearRampToValueAtTime(vol, 0.04).
		ExponentialRampToValueAtTime(0.001, 0.15)
	return dsp.NewNote("clap", k.sampleRate, &dsp.Layer{
		Sources: []dsp.Source{noise},
		Filter:  dsp.NewBiquad(dsp.BandPass, k.sampleRate, dsp.Const(900), 1),
		Gain:    gain,
	})
}

func (k *Kit) bass(vol float64) *dsp.Note {
	pitch := BassPitches[k.pick(len(BassPitches))]
	osc := dsp.NewOscillator(dsp.Sawtooth, k.sampleRate, dsp.NewParam(440).SetValueAtTime(pitch, 0), 0.4)
	cutoff := dsp.NewParam(350).
		SetValueAtTime(200, 0).
		ExponentialRampToValueAtTime(50, 0.3)
	gain := dsp.NewParam(1).
		SetValueAtTime(vol*0.9, 0).
		LinearRampToValueAtTime(vol*0.7, 0.1).
		ExponentialRampToValueAtTime(0.001, 0.4)
	n := dsp.NewNote("bass", k.sampleRate, &dsp.Layer{
		Sources: []dsp.Source{osc},
		Filter:  dsp.NewBiquad(dsp.LowPass, k.sampleRate, cutoff, 1),
		Gain:    gain,
	})
	n.Pitch = pitch
	return n
}

func (k *Kit) synth(vol float64) *dsp.Note {
	pitch := SynthPitches[k.pick(len(SynthPitches))]
	sq := dsp.NewOscillator(dsp.Square, k.sampleRate, dsp.Const(pitch), 0.6)
	saw := dsp.NewOscillator(dsp.Sawtooth, k.sampleRate, dsp.Const(pitch*1.01), 0.6)
	cutoff := dsp.NewParam(350).
		SetValueAtTime(400, 0).
		ExponentialRampToValueAtTime(2000, 0.05).
		ExponentialRampToValueAtTime(200, 0.5)
	gain := dsp.NewParam(1).
		SetValueAtTime(0, 0).
		LinearRampToValueAtTime(vol*0.5, 0.02).
		ExponentialRampToValueAtTime(0.001, 0.6)
	n := dsp.NewNote("synth", k.sampleRate, &dsp.Layer{
		Sources: []dsp.Source{sq, saw},
		Filter:  dsp.NewBiquad(dsp.LowPass, k.sampleRate, cutoff, 2),
		Gain:    gain,
	})
	n.Pitch = pitch
	return n
}
