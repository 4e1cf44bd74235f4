package audio

import (
	"encoding/binary"
	"math"
	"testing"
	"time"
)

type rampSource struct{ calls int }

func (s *rampSource) Process(dst []float32) {
	s.calls++
	for i := range dst {
		dst[i] = float32(i) * 0.25
	}
}

func TestStreamReaderEncodesFrames(t *testing.T) {
	src := &rampSource{}
	r := NewStreamReader(src, 0)
	p := make([]byte, 8*3+5)
	n, err := r.Read(p)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if n != 24 {
		t.Fatalf("n = %d, want 24 (whole frames only)", n)
	}
	for i := 0; i < 6; i++ {
		got := math.Float32frombits(binary.LittleEndian.Uint32(p[i*4:]))
		if got != float32(i)*0.25 {
			t.Errorf("sample %d = %v, want %v", i, got, float32(i)*0.25)
		}
	}
}

func TestStreamReaderShortBuffer(t *testing.T) {
	src := &rampSource{}
	n, err := NewStreamReader(src, 0).Read(make([]byte, 7))
	if n != 0 || err != nil || src.calls != 0 {
		t.Errorf("short read = %d, %v, calls %d", n, err, src.calls)
	}
}

func TestOpenerFor(t *testing.T) {
	for _, name := range []string{"", "ebiten", "OTO"} {
		if _, err := OpenerFor(name); err != nil {
			t.Errorf("OpenerFor(%q): %v", name, err)
		}
	}
	if _, err := OpenerFor("alsa"); err == nil {
		t.Error("expected error for unknown backend")
	}
}

func TestStreamReaderCapsLargeReads(t *testing.T) {
	src := &rampSource{}
	r := NewStreamReader(src, BufferFrames(48000))
	p := make([]byte, 48000/2*8) // half a second, as a default device buffer asks
	n, err := r.Read(p)
	if err != nil {
		t.Fatal(err)
	}
	if n != BufferBytes(48000) {
		t.Errorf("read %d bytes, want one %d byte block", n, BufferBytes(48000))
	}
	if src.calls != 1 {
		t.Errorf("source rendered %d times, want 1", src.calls)
	}
}

func TestBufferFitsLookAhead(t *testing.T) {
	// One device pull has to fit inside the 100ms look-ahead minus the
	// 25ms scheduler period.
	if BufferDuration > 75*time.Millisecond/2 {
		t.Errorf("BufferDuration %v too large for the scheduler window", BufferDuration)
	}
	tests := []struct {
		rate, frames int
	}{
		{48000, 480},
		{44100, 441},
		{8000, 80},
		{10, 1},
	}
	for _, tt := range tests {
		if got := BufferFrames(tt.rate); got != tt.frames {
			t.Errorf("BufferFrames(%d) = %d, want %d", tt.rate, got, tt.frames)
		}
	}
}
