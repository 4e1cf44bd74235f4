// Package audio connects a sample source to the platform audio device. Two
// backends are available: ebiten's audio context (default) and a direct oto
// stream.
package audio

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"
)

// SampleSource renders interleaved stereo float32 frames into dst.
type SampleSource interface {
	Process(dst []float32)
}

// Output is an open audio device stream.
type Output interface {
	Play()
	Pause()
	Close() error
}

// Opener opens an Output that pulls from src at sampleRate.
type Opener func(sampleRate int, src SampleSource) (Output, error)

const (
	BackendEbiten = "ebiten"
	BackendOto    = "oto"
)

// OpenerFor returns the opener for a backend name. An empty name selects
// the ebiten backend.
func OpenerFor(backend string) (Opener, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", BackendEbiten:
		return OpenEbiten, nil
	case BackendOto:
		return OpenOto, nil
	default:
		return nil, fmt.Errorf("unknown audio backend %q", backend)
	}
}

// BufferDuration is the device buffer both backends request. The engine
// clock only moves when the device pulls, so a pull must stay well inside
// the scheduler's look-ahead window or late steps collapse onto one frame.
const BufferDuration = 10 * time.Millisecond

const bytesPerFrame = 8 // stereo float32

// BufferFrames is BufferDuration at sampleRate, at least one frame.
func BufferFrames(sampleRate int) int {
	n := int(int64(sampleRate) * int64(BufferDuration) / int64(time.Second))
	if n < 1 {
		n = 1
	}
	return n
}

// BufferBytes is BufferFrames in the float32 stereo byte format.
func BufferBytes(sampleRate int) int { return BufferFrames(sampleRate) * bytesPerFrame }

// StreamReader renders a SampleSource into the little-endian float32 byte
// stream both backends consume. Each Read renders at most one block, so a
// device asking for a large buffer still sees the clock advance in small
// steps between its reads.
type StreamReader struct {
	mu     sync.Mutex
	source SampleSource
	block  int
	buf    []float32
}

// NewStreamReader reads source in blocks of at most blockFrames frames.
// A non-positive blockFrames leaves reads unbounded.
func NewStreamReader(source SampleSource, blockFrames int) *StreamReader {
	return &StreamReader{source: source, block: blockFrames}
}

func (r *StreamReader) Read(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	frames := len(p) / bytesPerFrame
	if r.block > 0 && frames > r.block {
		frames = r.block
	}
	if frames == 0 {
		return 0, nil
	}
	samples := frames * 2
	if cap(r.buf) < samples {
		r.buf = make([]float32, samples)
	}
	r.buf = r.buf[:samples]
	r.source.Process(r.buf)
	for i, v := range r.buf {
		binary.LittleEndian.PutUint32(p[i*4:], math.Float32bits(v))
	}
	return frames * bytesPerFrame, nil
}

func (r *StreamReader) Close() error { return nil }
