package effects

import (
	"math"
	"testing"
)

func TestDistortionCurveIdentityAtZero(t *testing.T) {
	curve := DistortionCurve(0)
	if len(curve) != CurveLength {
		t.Fatalf("len = %d, want %d", len(curve), CurveLength)
	}
	for _, i := range []int{0, 1, 22050, CurveLength - 1} {
		want := float32(2*float64(i)/CurveLength - 1)
		if curve[i] != want {
			t.Errorf("curve[%d] = %v, want %v", i, curve[i], want)
		}
	}
}

func TestDistortionCurveFormula(t *testing.T) {
	k := 50.0
	curve := DistortionCurve(k)
	i := 33075
	x := 2*float64(i)/CurveLength - 1
	want := (3 + k) * x * 20 * (math.Pi / 180) / (math.Pi + k*math.Abs(x))
	if math.Abs(float64(curve[i])-want) > 1e-6 {
		t.Errorf("curve[%d] = %v, want %v", i, curve[i], want)
	}
	if curve[0] >= 0 || curve[CurveLength-1] <= 0 {
		t.Error("curve should be odd around the midpoint")
	}
}

func TestDisabledDistortionMatchesAmountZero(t *testing.T) {
	off := NewChain(44100)
	s := DefaultSettings()
	s.Distortion = Distortion{Enabled: false, Amount: 80}
	off.Update(s)

	zero := NewChain(44100)
	s.Distortion = Distortion{Enabled: true, Amount: 0}
	zero.Update(s)

	a, b := off.Curve(), zero.Curve()
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("curves differ at %d: %v vs %v", i, a[i], b[i])
		}
	}
}

func TestDisabledDelayForcesGains(t *testing.T) {
	c := NewChain(44100)
	c.Update(Settings{Delay: Delay{Enabled: false, Time: 0.5, Feedback: 0.8, Mix: 1}})
	dry, wet, fb := c.Gains()
	if dry != 1 || wet != 0 || fb != 0 {
		t.Errorf("gains = dry %v wet %v fb %v, want 1 0 0", dry, wet, fb)
	}
}

func TestEnabledDelayGains(t *testing.T) {
	tests := []struct {
		name      string
		in        Delay
		time, dry float32
		wet, fb   float32
	}{
		{"plain", Delay{Enabled: true, Time: 0.3, Feedback: 0.4, Mix: 0.5}, 0.3, 0.75, 0.5, 0.4},
		{"floor", Delay{Enabled: true, Time: 0, Feedback: 0.2, Mix: 0.2}, 0.01, 0.9, 0.2, 0.2},
		{"clamped", Delay{Enabled: true, Time: 5, Feedback: 3, Mix: 2}, 1, 0.5, 1, 0.9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewChain(44100)
			c.Update(Settings{Delay: tt.in})
			dry, wet, fb := c.Gains()
			if c.DelayTime() != tt.time {
				t.Errorf("time = %v, want %v", c.DelayTime(), tt.time)
			}
			if math.Abs(float64(dry-tt.dry)) > 1e-6 || wet != tt.wet || math.Abs(float64(fb-tt.fb)) > 1e-6 {
				t.Errorf("gains = %v %v %v, want %v %v %v", dry, wet, fb, tt.dry, tt.wet, tt.fb)
			}
		})
	}
}

func TestSettingsClamp(t *testing.T) {
	s := Settings{
		Distortion: Distortion{Amount: 150},
		Delay:      Delay{Time: -1, Feedback: math.NaN(), Mix: -0.5},
	}.Clamp()
	if s.Distortion.Amount != 100 || s.Delay.Time != 0.01 || s.Delay.Feedback != 0 || s.Delay.Mix != 0 {
		t.Errorf("clamped = %+v", s)
	}
}

func TestDelayEcho(t *testing.T) {
	d := NewFeedbackDelay(1000, 0.1, 0.5)
	if out := d.Process(1); out != 0 {
		t.Fatalf("immediate output = %v", out)
	}
	var echo, second float32
	for i := 1; i <= 200; i++ {
		out := d.Process(0)
		switch i {
		case 100:
			echo = out
		case 200:
			second = out
		}
	}
	if echo != 1 {
		t.Errorf("first echo = %v, want 1", echo)
	}
	if second != 0.5 {
		t.Errorf("second echo = %v, want 0.5", second)
	}
}

func TestChainMasterGainOnDryPath(t *testing.T) {
	c := NewChain(44100)
	var out float32
	for i := 0; i < 8; i++ {
		out = c.Process(0.5)
	}
	want := float32(0.5-1.5/CurveLength) * MasterGain
	if math.Abs(float64(out-want)) > 1e-4 {
		t.Errorf("dry output = %v, want %v", out, want)
	}
}

func TestWaveShaperBounded(t *testing.T) {
	ws := NewWaveShaper()
	ws.SetCurve(DistortionCurve(100))
	for _, x := range []float32{-4, -1, 0.3, 1, 4} {
		if y := ws.Process(x); y < -1 || y > 1 {
			t.Errorf("shape(%v) = %v out of range", x, y)
		}
	}
}
