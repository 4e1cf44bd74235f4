package audio

import (
	"fmt"
	"io"
	"sync"

	ebitaudio "github.com/hajimehoshi/ebiten/v2/audio"
)

// Player streams a SampleSource through ebiten's shared audio context.
type Player struct {
	player *ebitaudio.Player
	reader io.ReadCloser
}

// ebiten allows one audio context per process, fixed at its first rate.
var ebitenContext struct {
	once sync.Once
	ctx  *ebitaudio.Context
	rate int
}

func sharedAudioContext(sampleRate int) (*ebitaudio.Context, error) {
	c := &ebitenContext
	c.once.Do(func() {
		c.rate = sampleRate
		c.ctx = ebitaudio.NewContext(sampleRate)
	})
	if c.rate != sampleRate {
		return nil, fmt.Errorf("ebiten audio already running at %d Hz, cannot open at %d Hz", c.rate, sampleRate)
	}
	return c.ctx, nil
}

// NewPlayer opens a player with a BufferDuration device buffer.
func NewPlayer(sampleRate int, source SampleSource) (*Player, error) {
	ctx, err := sharedAudioContext(sampleRate)
	if err != nil {
		return nil, err
	}
	reader := NewStreamReader(source, BufferFrames(sampleRate))
	pl, err := ctx.NewPlayerF32(reader)
	if err != nil {
		return nil, err
	}
	pl.SetBufferSize(BufferDuration)
	return &Player{player: pl, reader: reader}, nil
}

// OpenEbiten is the Opener for the ebiten backend.
func OpenEbiten(sampleRate int, source SampleSource) (Output, error) {
	return NewPlayer(sampleRate, source)
}

func (p *Player) Play()  { p.player.Play() }
func (p *Player) Pause() { p.player.Pause() }

func (p *Player) Close() error {
	p.player.Pause()
	if err := p.player.Close(); err != nil {
		return err
	}
	return p.reader.Close()
}
