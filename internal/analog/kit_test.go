package analog

import (
	"testing"

	"github.com/cbegin/beatstation-go/internal/dsp"
	"github.com/cbegin/beatstation-go/internal/pattern"
)

func render(n *dsp.Note) (frames int, energy float64) {
	for frames < 48000*2 {
		v, done := n.Sample()
		frames++
		energy += v * v
		if done {
			break
		}
	}
	return frames, energy
}

func TestHitsTerminateWithEnergy(t *testing.T) {
	want := map[pattern.Kind]float64{
		pattern.Kick:  0.5,
		pattern.Snare: 0.2,
		pattern.HiHat: 0.1,
		pattern.Clap:  0.2,
		pattern.Bass:  0.4,
		pattern.Synth: 0.6,
	}
	k := New(48000)
	for _, kind := range pattern.Kinds() {
		t.Run(kind.String(), func(t *testing.T) {
			frames, energy := render(k.Hit(kind, 1))
			if energy <= 0 {
				t.Fatalf("%s produced silence", kind)
			}
			secs := float64(frames) / 48000
			if secs < want[kind]-0.01 || secs > want[kind]+0.01 {
				t.Errorf("%s lasted %.3fs, want %.3fs", kind, secs, want[kind])
			}
		})
	}
}

func TestZeroVolumeIsSilent(t *testing.T) {
	k := New(48000)
	for _, kind := range []pattern.Kind{pattern.Kick, pattern.HiHat, pattern.Bass} {
		_, energy := render(k.Hit(kind, 0))
		if energy != 0 {
			t.Errorf("%s at volume 0 has energy %g", kind, energy)
		}
	}
}

func TestPitchedHitsPickFromSet(t *testing.T) {
	k := New(48000)
	for i := range BassPitches {
		k.pick = func(int) int { return i }
		if got := k.Hit(pattern.Bass, 1).Pitch; got != BassPitches[i] {
			t.Errorf("bass pick %d = %v, want %v", i, got, BassPitches[i])
		}
		if got := k.Hit(pattern.Synth, 1).Pitch; got != SynthPitches[i] {
			t.Errorf("synth pick %d = %v, want %v", i, got, SynthPitches[i])
		}
	}
	if got := k.Hit(pattern.Kick, 1).Pitch; got != 0 {
		t.Errorf("kick pitch = %v, want 0", got)
	}
}

func TestUnknownKind(t *testing.T) {
	if n := New(48000).Hit(pattern.Kind(42), 1); n != nil {
		t.Errorf("unknown kind produced %v", n.Name)
	}
}
