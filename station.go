// Package beatstation is a 16-step, 6-track drum machine. A Station owns the
// pattern, tempo, effect settings and voicing, drives a look-ahead scheduler
// against the audio clock and renders every sound synthetically.
package beatstation

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cbegin/beatstation-go/internal/audio"
	"github.com/cbegin/beatstation-go/internal/debug"
	"github.com/cbegin/beatstation-go/internal/effects"
	"github.com/cbegin/beatstation-go/internal/pattern"
	"github.com/cbegin/beatstation-go/internal/sequencer"
	"github.com/cbegin/beatstation-go/internal/synth"
)

// ErrGenerateFailed is returned for any pattern generator failure. The
// station state is left as it was.
var ErrGenerateFailed = errors.New("pattern generation failed")

// Generator produces a pattern from a text prompt. A nil result with a nil
// error means the generator had nothing to offer.
type Generator interface {
	Generate(ctx context.Context, prompt string) (*pattern.Generated, error)
}

// StepEvent is sent from Watch on every scheduled step and on start/stop.
type StepEvent struct {
	Step    int
	Playing bool
}

type Option func(*stationConfig)

type stationConfig struct {
	sampleRate int
	output     audio.Opener
	generator  Generator
	tap        func(synth.Hit)
	interval   time.Duration
	bpm        int
	fx         effects.Settings
	chiptune   bool
}

func defaultStationConfig() stationConfig {
	return stationConfig{
		sampleRate: 48000,
		interval:   sequencer.DefaultInterval,
		bpm:        pattern.DefaultBPM,
		fx:         effects.DefaultSettings(),
	}
}

func WithSampleRate(sampleRate int) Option {
	return func(cfg *stationConfig) {
		cfg.sampleRate = sampleRate
	}
}

// WithOutput opens audio through open. Without it the station is headless.
func WithOutput(open audio.Opener) Option {
	return func(cfg *stationConfig) {
		cfg.output = open
	}
}

func WithGenerator(g Generator) Option {
	return func(cfg *stationConfig) {
		cfg.generator = g
	}
}

// WithTriggerTap installs a callback invoked for every hit handed to the
// engine, on the scheduler goroutine.
func WithTriggerTap(tap func(synth.Hit)) Option {
	return func(cfg *stationConfig) {
		cfg.tap = tap
	}
}

// WithTickInterval overrides the scheduler's 25ms timer period.
func WithTickInterval(d time.Duration) Option {
	return func(cfg *stationConfig) {
		cfg.interval = d
	}
}

// WithInitialState seeds tempo, effects and voicing.
func WithInitialState(bpm int, fx effects.Settings, chiptune bool) Option {
	return func(cfg *stationConfig) {
		cfg.bpm = bpm
		cfg.fx = fx
		cfg.chiptune = chiptune
	}
}

type Station struct {
	mu       sync.Mutex
	pat      pattern.Pattern
	bpm      int
	fx       effects.Settings
	chiptune bool

	engine *synth.Engine
	sched  *sequencer.Scheduler
	gen    Generator
	step   atomic.Int32

	watchMu sync.Mutex
	watch   chan StepEvent
}

func New(opts ...Option) *Station {
	cfg := defaultStationConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.sampleRate <= 0 {
		cfg.sampleRate = 48000
	}
	var engineOpts []synth.Option
	if cfg.output != nil {
		engineOpts = append(engineOpts, synth.WithOutput(cfg.output))
	}
	if cfg.tap != nil {
		engineOpts = append(engineOpts, synth.WithTriggerTap(cfg.tap))
	}
	s := &Station{
		pat:      pattern.Default(),
		bpm:      pattern.ClampBPM(cfg.bpm),
		fx:       cfg.fx.Clamp(),
		chiptune: cfg.chiptune,
		engine:   synth.New(cfg.sampleRate, engineOpts...),
		gen:      cfg.generator,
	}
	s.engine.SetVoicingMode(cfg.chiptune)
	s.sched = sequencer.New(s.engine, s.engine, s, sequencer.Options{
		Interval: cfg.interval,
		OnStart:  s.prepareEngine,
		OnStep:   s.onStep,
	})
	return s
}

// Engine exposes the synthesis engine for rendering and diagnostics.
func (s *Station) Engine() *synth.Engine { return s.engine }

// Snapshot returns the pattern and tempo the scheduler plays.
func (s *Station) Snapshot() (pattern.Pattern, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pat, s.bpm
}

func (s *Station) SetTempo(bpm int) {
	s.mu.Lock()
	s.bpm = pattern.ClampBPM(bpm)
	s.mu.Unlock()
}

func (s *Station) Tempo() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bpm
}

func (s *Station) ToggleStep(kind pattern.Kind, i int) {
	s.mu.Lock()
	s.pat.ToggleStep(kind, i)
	s.mu.Unlock()
}

func (s *Station) SetPattern(p pattern.Pattern) {
	p.Normalize()
	s.mu.Lock()
	s.pat = p
	s.mu.Unlock()
}

// Pattern returns a copy of the current pattern.
func (s *Station) Pattern() pattern.Pattern {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pat
}

// Clear turns every step off, stops playback and rewinds the cursor.
func (s *Station) Clear() {
	s.mu.Lock()
	s.pat.Clear()
	s.mu.Unlock()
	s.Stop()
	s.step.Store(0)
	s.notify(StepEvent{Step: 0, Playing: false})
}

func (s *Station) SetTrackMute(kind pattern.Kind, muted bool) {
	s.mu.Lock()
	s.pat.SetMute(kind, muted)
	s.mu.Unlock()
}

func (s *Station) ToggleMute(kind pattern.Kind) {
	s.mu.Lock()
	if t := s.pat.Track(kind); t != nil {
		t.Muted = !t.Muted
	}
	s.mu.Unlock()
}

func (s *Station) SetTrackVolume(kind pattern.Kind, v float64) {
	s.mu.Lock()
	s.pat.SetVolume(kind, v)
	s.mu.Unlock()
}

// SetEffects clamps fx, stores it and re-targets the running chain.
func (s *Station) SetEffects(fx effects.Settings) {
	fx = fx.Clamp()
	s.mu.Lock()
	s.fx = fx
	s.mu.Unlock()
	s.engine.UpdateEffects(fx)
}

func (s *Station) Effects() effects.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fx
}

// SetVoicingMode switches kits. Hits already scheduled keep their voicing.
func (s *Station) SetVoicingMode(chiptune bool) {
	s.mu.Lock()
	s.chiptune = chiptune
	s.mu.Unlock()
	s.engine.SetVoicingMode(chiptune)
}

func (s *Station) Chiptune() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chiptune
}

// Init brings the audio engine up and applies the current effects. Call it
// from the first user gesture.
func (s *Station) Init() error {
	err := s.engine.Resume()
	s.engine.UpdateEffects(s.Effects())
	return err
}

func (s *Station) prepareEngine() {
	if err := s.Init(); err != nil {
		debug.Log("station", "engine unavailable: %v", err)
	}
}

func (s *Station) onStep(step int) {
	s.step.Store(int32(step))
	s.notify(StepEvent{Step: step, Playing: true})
}

func (s *Station) Start() {
	if s.sched.Running() {
		return
	}
	s.sched.Start()
	s.notify(StepEvent{Step: s.CurrentStep(), Playing: true})
}

func (s *Station) Stop() {
	if !s.sched.Running() {
		return
	}
	s.sched.Stop()
	s.notify(StepEvent{Step: s.CurrentStep(), Playing: false})
}

func (s *Station) TogglePlay() {
	if s.sched.Running() {
		s.Stop()
		return
	}
	s.Start()
}

func (s *Station) Playing() bool { return s.sched.Running() }

// CurrentStep is the most recently scheduled step.
func (s *Station) CurrentStep() int { return int(s.step.Load()) }

// Shutdown stops playback and releases the audio device.
func (s *Station) Shutdown() error {
	s.Stop()
	return s.engine.Shutdown()
}

// Preview plays one hit of kind now at its track volume, muted or not.
func (s *Station) Preview(kind pattern.Kind) {
	s.mu.Lock()
	t := s.pat.Track(kind)
	vol := 1.0
	if t != nil {
		vol = t.Volume
	}
	s.mu.Unlock()
	if t == nil {
		return
	}
	s.engine.Trigger(kind, vol, 0)
}

// Generate stops playback, asks the generator for a pattern and merges it.
// Any failure returns ErrGenerateFailed with the state untouched.
func (s *Station) Generate(ctx context.Context, prompt string) error {
	s.Stop()
	if s.gen == nil {
		debug.Log("station", "generate: no generator configured")
		return ErrGenerateFailed
	}
	g, err := s.gen.Generate(ctx, prompt)
	if err != nil {
		debug.Log("station", "generate: %v", err)
		return ErrGenerateFailed
	}
	if g == nil {
		return nil
	}
	s.ApplyGenerated(*g)
	return nil
}

// ApplyGenerated merges g into the pattern and takes its clamped tempo.
func (s *Station) ApplyGenerated(g pattern.Generated) {
	s.mu.Lock()
	s.pat, s.bpm = pattern.Merge(s.pat, g)
	s.mu.Unlock()
}

// Watch returns a channel of step events. Only the most recent Watch channel
// receives events; sends never block and are dropped when the buffer is full.
func (s *Station) Watch() <-chan StepEvent {
	ch := make(chan StepEvent, 32)
	s.watchMu.Lock()
	s.watch = ch
	s.watchMu.Unlock()
	return ch
}

func (s *Station) notify(ev StepEvent) {
	s.watchMu.Lock()
	ch := s.watch
	s.watchMu.Unlock()
	if ch == nil {
		return
	}
	select {
	case ch <- ev:
	default:
	}
}
