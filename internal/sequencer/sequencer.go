// Package sequencer schedules pattern steps against the audio clock. A
// coarse wall-clock ticker wakes the scheduler, and every step that falls
// inside the look-ahead window is handed to the engine with its exact clock
// time, so timing accuracy comes from the audio clock rather than the timer.
package sequencer

import (
	"sync"
	"time"

	"github.com/cbegin/beatstation-go/internal/debug"
	"github.com/cbegin/beatstation-go/internal/pattern"
)

// Clock reports the audio clock in seconds. Zero means no clock is running.
type Clock interface {
	ClockTime() float64
}

// Dispatcher starts a voice at clock time at.
type Dispatcher interface {
	Trigger(kind pattern.Kind, vol, at float64)
}

// Source supplies the pattern and tempo. It is read once per step so edits
// apply from the next step on.
type Source interface {
	Snapshot() (pattern.Pattern, int)
}

// Options tunes a Scheduler. Zero values take the defaults below.
type Options struct {
	Interval   time.Duration // timer period, default 25ms
	LookAhead  float64       // seconds, default 0.1
	StartDelay float64       // seconds from Start to step 0, default 0.1
	OnStep     func(step int)
	OnStart    func() // runs at the top of Start, before the cursor is reset
}

const (
	DefaultInterval   = 25 * time.Millisecond
	DefaultLookAhead  = 0.1
	DefaultStartDelay = 0.1
)

// Scheduler walks the 16-step cursor against a Clock, handing each active
// track's hit to the Dispatcher ahead of time. It reads the Source once per
// step and never sleeps on the audio path.
type Scheduler struct {
	clock Clock
	out   Dispatcher
	src   Source
	opts  Options

	mu      sync.Mutex
	running bool
	step    int
	next    float64
	stop    chan struct{}
	done    chan struct{}
}

// New returns a stopped scheduler. The cursor starts at step 0.
func New(clock Clock, out Dispatcher, src Source, opts Options) *Scheduler {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.LookAhead <= 0 {
		opts.LookAhead = DefaultLookAhead
	}
	if opts.StartDelay <= 0 {
		opts.StartDelay = DefaultStartDelay
	}
	return &Scheduler{clock: clock, out: out, src: src, opts: opts}
}

// SecondsPerStep is the length of one sixteenth note at bpm.
func SecondsPerStep(bpm int) float64 {
	return 60 / float64(pattern.ClampBPM(bpm)) / 4
}

// Start resets the cursor to step 0, runs one tick immediately and starts
// the timer loop. It does nothing while already running. OnStart and
// OnStep must not call back into the scheduler.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	if s.opts.OnStart != nil {
		s.opts.OnStart()
	}
	s.running = true
	s.step = 0
	s.next = s.clock.ClockTime() + s.opts.StartDelay
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	debug.Log("sched", "start at %.3f", s.next)
	s.tickLocked()
	go s.loop(s.stop, s.done)
}

// Stop halts the timer loop and waits for it to exit. Voices already handed
// to the dispatcher keep sounding.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stop)
	done := s.done
	s.mu.Unlock()
	<-done
	debug.Log("sched", "stopped")
}

func (s *Scheduler) loop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(s.opts.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.Tick()
		}
	}
}

// Tick is one timer callback: dispatch every step due before the end of the
// look-ahead window. It is a no-op while stopped or while the clock reads 0.
func (s *Scheduler) Tick() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tickLocked()
}

func (s *Scheduler) tickLocked() {
	if !s.running {
		return
	}
	now := s.clock.ClockTime()
	if now == 0 {
		return
	}
	for s.next < now+s.opts.LookAhead {
		p, bpm := s.src.Snapshot()
		for _, tr := range p.Tracks {
			if tr.Active(s.step) {
				s.out.Trigger(tr.Kind, tr.Volume, s.next)
			}
		}
		if s.opts.OnStep != nil {
			s.opts.OnStep(s.step)
		}
		s.next += SecondsPerStep(bpm)
		s.step = (s.step + 1) % pattern.Steps
	}
}

func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Step returns the index of the next step to be scheduled.
func (s *Scheduler) Step() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.step
}

// NextStepTime returns the clock time of the next step to be scheduled.
func (s *Scheduler) NextStepTime() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.next
}
