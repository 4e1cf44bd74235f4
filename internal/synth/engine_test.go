package synth

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/cbegin/beatstation-go/internal/audio"
	"github.com/cbegin/beatstation-go/internal/effects"
	"github.com/cbegin/beatstation-go/internal/pattern"
	"github.com/cbegin/beatstation-go/internal/sequencer"
)

const testRate = 8000

type fakeOutput struct {
	plays, pauses, closes int
}

func (o *fakeOutput) Play()        { o.plays++ }
func (o *fakeOutput) Pause()       { o.pauses++ }
func (o *fakeOutput) Close() error { o.closes++; return nil }

func countingOpener(out *fakeOutput, opens *int) audio.Opener {
	return func(int, audio.SampleSource) (audio.Output, error) {
		*opens++
		return out, nil
	}
}

func render(e *Engine, seconds float64) []float32 {
	buf := make([]float32, int(seconds*testRate)*2)
	e.Process(buf)
	return buf
}

func peak(buf []float32) float64 {
	var m float64
	for _, s := range buf {
		if a := math.Abs(float64(s)); a > m {
			m = a
		}
	}
	return m
}

func TestInitIsIdempotent(t *testing.T) {
	out := &fakeOutput{}
	opens := 0
	e := New(testRate, WithOutput(countingOpener(out, &opens)))
	for i := 0; i < 3; i++ {
		if err := e.Init(); err != nil {
			t.Fatalf("Init #%d: %v", i, err)
		}
	}
	if opens != 1 {
		t.Errorf("opened output %d times, want 1", opens)
	}
	if out.plays != 1 {
		t.Errorf("Play called %d times, want 1", out.plays)
	}
}

func TestClockIsZeroWithoutGraph(t *testing.T) {
	e := New(testRate)
	if got := e.ClockTime(); got != 0 {
		t.Fatalf("ClockTime before Init = %v, want 0", got)
	}
	buf := render(e, 0.1)
	if got := e.ClockTime(); got != 0 {
		t.Errorf("Process without graph moved the clock to %v", got)
	}
	if peak(buf) != 0 {
		t.Error("Process without graph wrote non-silent samples")
	}
}

func TestProcessAdvancesClock(t *testing.T) {
	e := New(testRate)
	if err := e.Init(); err != nil {
		t.Fatal(err)
	}
	render(e, 0.25)
	if got := e.ClockTime(); math.Abs(got-0.25) > 1e-9 {
		t.Errorf("ClockTime = %v, want 0.25", got)
	}
}

func TestTriggerInitializesLazily(t *testing.T) {
	out := &fakeOutput{}
	opens := 0
	e := New(testRate, WithOutput(countingOpener(out, &opens)))
	e.Trigger(pattern.Kick, 1, 0)
	if opens != 1 {
		t.Fatalf("Trigger opened output %d times, want 1", opens)
	}
	if got := e.ActiveVoiceCount(); got != 1 {
		t.Errorf("ActiveVoiceCount = %d, want 1", got)
	}
	if peak(render(e, 0.05)) == 0 {
		t.Error("kick triggered now rendered silence")
	}
}

func TestTriggerStartsAtScheduledFrame(t *testing.T) {
	var hits []Hit
	e := New(testRate, WithTriggerTap(func(h Hit) { hits = append(hits, h) }))
	if err := e.Init(); err != nil {
		t.Fatal(err)
	}
	e.Trigger(pattern.Kick, 1, 0.1)

	before := render(e, 0.1)
	if p := peak(before); p > 0.01 {
		t.Errorf("output before the scheduled start peaked at %f", p)
	}
	if p := peak(render(e, 0.05)); p < 0.1 {
		t.Errorf("output after the scheduled start peaked at only %f", p)
	}
	if len(hits) != 1 || math.Abs(hits[0].At-0.1) > 1e-9 {
		t.Fatalf("tap saw %+v, want one hit at 0.1", hits)
	}
}

func TestTriggerInThePastStartsNow(t *testing.T) {
	var got Hit
	e := New(testRate, WithTriggerTap(func(h Hit) { got = h }))
	if err := e.Init(); err != nil {
		t.Fatal(err)
	}
	render(e, 0.5)
	e.Trigger(pattern.Snare, 0.8, 0.2)
	if math.Abs(got.At-0.5) > 1e-9 {
		t.Errorf("late hit starts at %v, want 0.5", got.At)
	}
}

func TestVoicesAreReclaimed(t *testing.T) {
	e := New(testRate)
	if err := e.Init(); err != nil {
		t.Fatal(err)
	}
	for _, k := range pattern.Kinds() {
		e.Trigger(k, 1, 0)
	}
	if got := e.ActiveVoiceCount(); got != pattern.NumTracks {
		t.Fatalf("ActiveVoiceCount = %d, want %d", got, pattern.NumTracks)
	}
	render(e, 1)
	if got := e.ActiveVoiceCount(); got != 0 {
		t.Errorf("ActiveVoiceCount after 1s = %d, want 0", got)
	}
}

func TestTriggerClampsVolume(t *testing.T) {
	var hits []Hit
	e := New(testRate, WithTriggerTap(func(h Hit) { hits = append(hits, h) }))
	e.Trigger(pattern.HiHat, 3, 0)
	e.Trigger(pattern.HiHat, -1, 0)
	e.Trigger(pattern.Kind(42), 1, 0)
	if len(hits) != 2 {
		t.Fatalf("tap saw %d hits, want 2", len(hits))
	}
	if hits[0].Volume != 1 || hits[1].Volume != 0 {
		t.Errorf("volumes = %v, %v, want 1, 0", hits[0].Volume, hits[1].Volume)
	}
}

func TestVoicingModeAppliesToLaterHits(t *testing.T) {
	var hits []Hit
	e := New(testRate, WithTriggerTap(func(h Hit) { hits = append(hits, h) }))
	e.Trigger(pattern.Bass, 1, 0)
	e.SetVoicingMode(true)
	e.Trigger(pattern.Bass, 1, 0)
	e.SetVoicingMode(false)
	e.Trigger(pattern.Kick, 1, 0)

	want := []bool{false, true, false}
	for i, h := range hits {
		if h.Chiptune != want[i] {
			t.Errorf("hit %d chiptune = %v, want %v", i, h.Chiptune, want[i])
		}
	}
	if hits[0].Pitch == 0 || hits[1].Pitch == 0 {
		t.Error("bass hits carry no pitch")
	}
	if hits[2].Pitch != 0 {
		t.Errorf("kick pitch = %v, want 0", hits[2].Pitch)
	}
}

func TestFailedOpenLeavesEngineSilent(t *testing.T) {
	boom := errors.New("no device")
	calls := 0
	e := New(testRate, WithOutput(func(int, audio.SampleSource) (audio.Output, error) {
		calls++
		return nil, boom
	}))
	if err := e.Init(); !errors.Is(err, boom) {
		t.Fatalf("Init error = %v, want %v", err, boom)
	}
	if err := e.Init(); !errors.Is(err, boom) {
		t.Fatalf("second Init error = %v, want %v", err, boom)
	}
	if calls != 1 {
		t.Errorf("opener called %d times, want 1", calls)
	}
	e.Trigger(pattern.Kick, 1, 0)
	if got := e.ActiveVoiceCount(); got != 0 {
		t.Errorf("ActiveVoiceCount = %d, want 0", got)
	}
	if e.ClockTime() != 0 {
		t.Error("clock moved on a failed engine")
	}
}

func TestShutdownResetsClock(t *testing.T) {
	out := &fakeOutput{}
	opens := 0
	e := New(testRate, WithOutput(countingOpener(out, &opens)))
	if err := e.Init(); err != nil {
		t.Fatal(err)
	}
	render(e, 0.5)
	if err := e.Shutdown(); err != nil {
		t.Fatal(err)
	}
	if out.closes != 1 {
		t.Errorf("Close called %d times, want 1", out.closes)
	}
	if e.ClockTime() != 0 {
		t.Errorf("ClockTime after Shutdown = %v, want 0", e.ClockTime())
	}
	if err := e.Init(); err != nil {
		t.Fatal(err)
	}
	if opens != 2 {
		t.Errorf("reopened %d times, want 2", opens)
	}
	if e.ClockTime() != 0 {
		t.Errorf("fresh graph clock = %v, want 0", e.ClockTime())
	}
}

func TestUpdateEffectsWithoutGraph(t *testing.T) {
	e := New(testRate)
	fx := effects.DefaultSettings()
	fx.Delay.Enabled = true
	e.UpdateEffects(fx) // must not panic
	if err := e.Init(); err != nil {
		t.Fatal(err)
	}
	g := e.g.Load()
	if _, wet, _ := g.chain.Gains(); wet != 0 {
		t.Errorf("update before Init reached the new graph: wet = %v", wet)
	}
	e.UpdateEffects(fx)
	if _, wet, _ := g.chain.Gains(); wet == 0 {
		t.Error("update after Init did not reach the chain")
	}
}

type allKicks struct{}

func (allKicks) Snapshot() (pattern.Pattern, int) {
	p := pattern.New()
	for i := range p.Tracks[0].Steps {
		p.Tracks[0].Steps[i] = true
	}
	return p, 120
}

// A device that asks for half a second per pull must still see steps land
// one sixteenth apart: the stream reader hands it one small block at a time
// and the scheduler ticks between blocks.
func TestDevicePullsKeepStepSpacing(t *testing.T) {
	var starts []float64
	e := New(testRate, WithTriggerTap(func(h Hit) { starts = append(starts, h.At) }))
	if err := e.Init(); err != nil {
		t.Fatal(err)
	}
	sched := sequencer.New(e, e, allKicks{}, sequencer.Options{Interval: time.Hour})
	sched.Start()
	defer sched.Stop()

	r := audio.NewStreamReader(e, audio.BufferFrames(testRate))
	pull := make([]byte, testRate/2*8)
	for e.ClockTime() < 2 {
		if _, err := r.Read(pull); err != nil {
			t.Fatal(err)
		}
		sched.Tick()
	}

	if len(starts) < 12 {
		t.Fatalf("scheduled %d steps in 2s, want at least 12", len(starts))
	}
	if math.Abs(starts[0]-0.1) > 1e-9 {
		t.Errorf("first step at %.4f, want 0.1", starts[0])
	}
	for i := 1; i < len(starts); i++ {
		if gap := starts[i] - starts[i-1]; math.Abs(gap-0.125) > 1.0/testRate {
			t.Fatalf("steps %d and %d are %.4fs apart, want 0.125 (starts %v)", i-1, i, gap, starts)
		}
	}
}
