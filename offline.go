package beatstation

import (
	"bytes"
	"encoding/binary"
	"time"

	"github.com/cbegin/beatstation-go/internal/effects"
	"github.com/cbegin/beatstation-go/internal/pattern"
	"github.com/cbegin/beatstation-go/internal/sequencer"
	"github.com/cbegin/beatstation-go/internal/synth"
)

// offlineBlock matches the scheduler's timer period so offline renders
// schedule exactly like live playback.
const offlineBlock = sequencer.DefaultInterval

type fixedSource struct {
	p   pattern.Pattern
	bpm int
}

func (f fixedSource) Snapshot() (pattern.Pattern, int) { return f.p, f.bpm }

// RenderPattern plays p from step 0 for seconds on a headless engine and
// returns interleaved stereo float32 samples.
func RenderPattern(p pattern.Pattern, bpm int, fx effects.Settings, chiptune bool, sampleRate int, seconds float64) []float32 {
	p.Normalize()
	engine := synth.New(sampleRate)
	_ = engine.Init() // headless init cannot fail
	engine.SetVoicingMode(chiptune)
	engine.UpdateEffects(fx)

	sched := sequencer.New(engine, engine, fixedSource{p: p, bpm: pattern.ClampBPM(bpm)}, sequencer.Options{
		Interval: time.Hour, // driven by the render loop below
	})
	sched.Start()
	defer sched.Stop()

	frames := int(float64(sampleRate) * seconds)
	out := make([]float32, frames*2)
	block := int(float64(sampleRate) * offlineBlock.Seconds())
	if block < 1 {
		block = 1
	}
	for pos := 0; pos < frames; pos += block {
		end := pos + block
		if end > frames {
			end = frames
		}
		engine.Process(out[pos*2 : end*2])
		sched.Tick()
	}
	return out
}

// wavHeader is the canonical 44-byte RIFF header for IEEE float PCM.
type wavHeader struct {
	Riff       [4]byte
	ChunkSize  uint32
	Wave       [4]byte
	Fmt        [4]byte
	FmtSize    uint32
	Format     uint16
	Channels   uint16
	SampleRate uint32
	ByteRate   uint32
	BlockAlign uint16
	Bits       uint16
	Data       [4]byte
	DataSize   uint32
}

const wavFormatFloat = 3

// EncodeWAVFloat32LE wraps interleaved float32 samples in a WAV container.
func EncodeWAVFloat32LE(samples []float32, sampleRate int, channels int) []byte {
	dataSize := uint32(len(samples) * 4)
	hdr := wavHeader{
		Riff:       [4]byte{'R', 'I', 'F', 'F'},
		ChunkSize:  36 + dataSize,
		Wave:       [4]byte{'W', 'A', 'V', 'E'},
		Fmt:        [4]byte{'f', 'm', 't', ' '},
		FmtSize:    16,
		Format:     wavFormatFloat,
		Channels:   uint16(channels),
		SampleRate: uint32(sampleRate),
		ByteRate:   uint32(sampleRate * channels * 4),
		BlockAlign: uint16(channels * 4),
		Bits:       32,
		Data:       [4]byte{'d', 'a', 't', 'a'},
		DataSize:   dataSize,
	}
	var buf bytes.Buffer
	buf.Grow(44 + int(dataSize))
	// Writes to a bytes.Buffer cannot fail.
	_ = binary.Write(&buf, binary.LittleEndian, hdr)
	_ = binary.Write(&buf, binary.LittleEndian, samples)
	return buf.Bytes()
}
