// Package synth owns the persistent audio graph: the voice mixer, the
// master effects chain and the audio clock. Voices are built on the caller's
// goroutine and handed to the render thread through a small inbox.
package synth

import (
	"math"
	"sync"
	"sync/atomic"

	"github.com/cbegin/beatstation-go/internal/analog"
	"github.com/cbegin/beatstation-go/internal/audio"
	"github.com/cbegin/beatstation-go/internal/chiptune"
	"github.com/cbegin/beatstation-go/internal/debug"
	"github.com/cbegin/beatstation-go/internal/dsp"
	"github.com/cbegin/beatstation-go/internal/effects"
	"github.com/cbegin/beatstation-go/internal/pattern"
)

// Hit describes one accepted trigger.
type Hit struct {
	Kind     pattern.Kind
	Volume   float64
	At       float64 // clock seconds the voice starts at
	Chiptune bool
	Pitch    float64 // Hz, 0 for unpitched kinds
}

// Option configures an Engine.
type Option func(*Engine)

// WithOutput sets the device opener used by Init. Without one the engine is
// headless and the clock only moves when Process is called directly.
func WithOutput(open audio.Opener) Option {
	return func(e *Engine) {
		e.open = open
	}
}

// WithTriggerTap installs a callback invoked for every accepted trigger. It
// runs on the triggering goroutine after the voice is queued.
func WithTriggerTap(tap func(Hit)) Option {
	return func(e *Engine) {
		e.tap = tap
	}
}

type kit interface {
	Hit(kind pattern.Kind, vol float64) *dsp.Note
}

type voice struct {
	src   dsp.Voice
	start int64
}

type graph struct {
	chain  *effects.Chain
	voices []voice // render thread only
}

// Engine is the persistent audio graph: a voice mixer feeding the master
// effects chain, and the audio clock counted in rendered frames. Trigger and
// the setters are safe from any goroutine; Process is the render thread.
type Engine struct {
	sampleRate int
	open       audio.Opener
	tap        func(Hit)
	chiptune   atomic.Bool

	mu     sync.Mutex
	analog kit
	chip   kit
	inbox  []voice
	out    audio.Output
	err    error

	g      atomic.Pointer[graph]
	frames atomic.Int64
	active atomic.Int64
}

// New returns an engine with no graph. Nothing is opened until Init or the
// first Trigger.
func New(sampleRate int, opts ...Option) *Engine {
	e := &Engine{
		sampleRate: sampleRate,
		analog:     analog.New(sampleRate),
		chip:       chiptune.New(sampleRate),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) SampleRate() int { return e.sampleRate }

// Init builds the graph once and opens the output. After a failed open the
// engine stays silent and keeps returning the first error until Shutdown.
func (e *Engine) Init() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.initLocked()
}

func (e *Engine) initLocked() error {
	if e.err != nil {
		return e.err
	}
	if e.g.Load() != nil {
		return nil
	}
	g := &graph{chain: effects.NewChain(e.sampleRate)}
	e.frames.Store(0)
	e.active.Store(0)
	e.inbox = nil
	if e.open != nil {
		out, err := e.open(e.sampleRate, e)
		if err != nil {
			e.err = err
			debug.Log("audio", "open output: %v", err)
			return err
		}
		e.out = out
	}
	e.g.Store(g)
	if e.out != nil {
		e.out.Play()
	}
	debug.Log("audio", "graph ready at %d Hz", e.sampleRate)
	return nil
}

// Resume initializes if needed and restarts a paused output.
func (e *Engine) Resume() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.initLocked(); err != nil {
		return err
	}
	if e.out != nil {
		e.out.Play()
	}
	return nil
}

// Shutdown closes the output and drops the graph. A later Init starts a
// fresh graph with the clock back at zero.
func (e *Engine) Shutdown() error {
	e.mu.Lock()
	out := e.out
	e.out = nil
	e.err = nil
	e.inbox = nil
	e.g.Store(nil)
	e.active.Store(0)
	e.mu.Unlock()
	if out == nil {
		return nil
	}
	// Close outside the lock: the backend may be blocked in Process.
	return out.Close()
}

// Trigger queues a voice of kind to start at clock time at. Volume is
// clamped to [0,1]. A time of zero or in the past starts the voice on the
// next rendered frame. Without a usable graph the call does nothing.
func (e *Engine) Trigger(kind pattern.Kind, vol, at float64) {
	if !kind.Valid() {
		return
	}
	vol = pattern.ClampVolume(vol)

	e.mu.Lock()
	if e.g.Load() == nil {
		if err := e.initLocked(); err != nil {
			e.mu.Unlock()
			return
		}
	}
	chip := e.chiptune.Load()
	k := e.analog
	if chip {
		k = e.chip
	}
	note := k.Hit(kind, vol)
	now := e.frames.Load()
	start := int64(math.Round(at * float64(e.sampleRate)))
	if at <= 0 || start < now {
		start = now
	}
	e.inbox = append(e.inbox, voice{src: note, start: start})
	e.mu.Unlock()

	if e.tap != nil {
		e.tap(Hit{
			Kind:     kind,
			Volume:   vol,
			At:       float64(start) / float64(e.sampleRate),
			Chiptune: chip,
			Pitch:    note.Pitch,
		})
	}
}

// UpdateEffects re-targets the master chain. Without a graph it does nothing.
func (e *Engine) UpdateEffects(s effects.Settings) {
	if g := e.g.Load(); g != nil {
		g.chain.Update(s)
	}
}

// SetVoicingMode selects the chiptune kit for hits triggered after the call.
// Voices already queued keep the kit they were built with.
func (e *Engine) SetVoicingMode(chiptune bool) {
	e.chiptune.Store(chiptune)
}

func (e *Engine) Chiptune() bool { return e.chiptune.Load() }

// ClockTime returns seconds of audio rendered by the current graph, or 0
// when there is none.
func (e *Engine) ClockTime() float64 {
	if e.g.Load() == nil {
		return 0
	}
	return float64(e.frames.Load()) / float64(e.sampleRate)
}

// ActiveVoiceCount reports voices still sounding or waiting to start.
func (e *Engine) ActiveVoiceCount() int {
	e.mu.Lock()
	pending := len(e.inbox)
	e.mu.Unlock()
	return int(e.active.Load()) + pending
}

// Process renders interleaved stereo frames into dst and advances the clock.
// It is the render thread entry point; without a graph it writes silence
// and the clock stays put.
func (e *Engine) Process(dst []float32) {
	e.mu.Lock()
	g := e.g.Load()
	pending := e.inbox
	e.inbox = nil
	e.mu.Unlock()

	if g == nil {
		clear(dst)
		return
	}
	g.voices = append(g.voices, pending...)

	base := e.frames.Load()
	n := len(dst) / 2
	for i := 0; i < n; i++ {
		frame := base + int64(i)
		var mix float64
		live := g.voices[:0]
		for _, v := range g.voices {
			if v.start > frame {
				live = append(live, v)
				continue
			}
			s, done := v.src.Sample()
			mix += s
			if !done {
				live = append(live, v)
			}
		}
		clear(g.voices[len(live):])
		g.voices = live
		out := g.chain.Process(float32(mix))
		dst[2*i] = out
		dst[2*i+1] = out
	}
	e.frames.Add(int64(n))
	e.active.Store(int64(len(g.voices)))
}
