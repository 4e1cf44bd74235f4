// Package midiout mirrors scheduled hits to an external MIDI port so a
// hardware drum machine can play along.
package midiout

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // register MIDI driver

	"github.com/cbegin/beatstation-go/internal/debug"
	"github.com/cbegin/beatstation-go/internal/pattern"
	"github.com/cbegin/beatstation-go/internal/synth"
)

// General MIDI percussion notes per kind; pitched kinds follow the hit.
var drumNotes = map[pattern.Kind]uint8{
	pattern.Kick:  36,
	pattern.Snare: 38,
	pattern.HiHat: 42,
	pattern.Clap:  39,
}

const gate = 20 * time.Millisecond

// Sender writes one MIDI message.
type Sender func(gomidi.Message) error

// Mirror queues hits and sends them when the audio clock reaches them.
type Mirror struct {
	channel uint8
	clock   func() float64
	queue   chan synth.Hit

	mu      sync.Mutex // serializes send; note-offs fire from timers
	send    Sender
	pending sync.WaitGroup
}

// Open finds an output port whose name contains portName (case-insensitive).
func Open(portName string) (Sender, error) {
	want := strings.ToLower(portName)
	for _, port := range gomidi.GetOutPorts() {
		if strings.Contains(strings.ToLower(port.String()), want) {
			send, err := gomidi.SendTo(port)
			if err != nil {
				return nil, fmt.Errorf("open midi port %q: %w", port.String(), err)
			}
			return send, nil
		}
	}
	return nil, fmt.Errorf("midi port %q not found", portName)
}

// Close releases the MIDI driver.
func Close() { gomidi.CloseDriver() }

// New returns a mirror on channel (1-16) that reads the engine clock.
func New(send Sender, channel int, clock func() float64) *Mirror {
	if channel < 1 || channel > 16 {
		channel = 10
	}
	return &Mirror{
		send:    send,
		channel: uint8(channel - 1),
		clock:   clock,
		queue:   make(chan synth.Hit, 64),
	}
}

// Enqueue is the engine trigger tap. It never blocks; hits are dropped
// when the queue is full.
func (m *Mirror) Enqueue(h synth.Hit) {
	select {
	case m.queue <- h:
	default:
		debug.Log("midi", "queue full, dropped %s", h.Kind)
	}
}

// Run sends queued hits at their scheduled time until ctx is done. Note-offs
// follow each note-on after a short gate without holding up the queue, so
// hits sharing a step go out together. Pending note-offs are flushed before
// Run returns.
func (m *Mirror) Run(ctx context.Context) {
	defer m.pending.Wait()
	for {
		select {
		case <-ctx.Done():
			return
		case h := <-m.queue:
			if wait := time.Duration((h.At - m.clock()) * float64(time.Second)); wait > 0 {
				timer := time.NewTimer(wait)
				select {
				case <-ctx.Done():
					timer.Stop()
					return
				case <-timer.C:
				}
			}
			m.play(h)
		}
	}
}

func (m *Mirror) play(h synth.Hit) {
	note := Note(h)
	vel := Velocity(h.Volume)
	if vel == 0 {
		return
	}
	if err := m.emit(gomidi.NoteOn(m.channel, note, vel)); err != nil {
		debug.Log("midi", "note on: %v", err)
		return
	}
	m.pending.Add(1)
	time.AfterFunc(gate, func() {
		defer m.pending.Done()
		if err := m.emit(gomidi.NoteOff(m.channel, note)); err != nil {
			debug.Log("midi", "note off: %v", err)
		}
	})
}

func (m *Mirror) emit(msg gomidi.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.send(msg)
}

// Note maps a hit to a MIDI note number.
func Note(h synth.Hit) uint8 {
	if n, ok := drumNotes[h.Kind]; ok {
		return n
	}
	if h.Pitch <= 0 {
		return 60
	}
	n := math.Round(69 + 12*math.Log2(h.Pitch/440))
	return uint8(math.Max(0, math.Min(127, n)))
}

// Velocity scales a [0,1] volume to 0-127.
func Velocity(vol float64) uint8 {
	return uint8(math.Round(pattern.ClampVolume(vol) * 127))
}
