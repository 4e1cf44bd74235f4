package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	beatstation "github.com/cbegin/beatstation-go"
	"github.com/cbegin/beatstation-go/internal/audio"
	"github.com/cbegin/beatstation-go/internal/config"
	"github.com/cbegin/beatstation-go/internal/debug"
	"github.com/cbegin/beatstation-go/internal/generator"
	"github.com/cbegin/beatstation-go/internal/midiout"
	"github.com/cbegin/beatstation-go/internal/tui"
)

func main() {
	var (
		configPath = flag.String("config", "", "config file (default ~/.config/beatstation/config.json)")
		sampleRate = flag.Int("sample-rate", 0, "output sample rate (overrides config)")
		backend    = flag.String("backend", "", "audio backend: ebiten|oto (overrides config)")
		bpm        = flag.Int("bpm", 0, "tempo 60-180 (overrides config)")
		chiptune   = flag.Bool("chiptune", false, "start with the 8-bit kit")
		prompt     = flag.String("prompt", "", "generate the starting pattern from a description")
		renderPath = flag.String("render", "", "render the pattern to a WAV file instead of playing")
		seconds    = flag.Float64("seconds", 8, "length of -render output")
		midiPort   = flag.String("midi", "", "mirror hits to a MIDI output port (overrides config)")
		debugLog   = flag.Bool("debug", false, "write a debug log next to the config file")
		saveConfig = flag.Bool("save-config", false, "write the effective settings back to the config file")
	)
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatal(err)
	}
	if *sampleRate > 0 {
		cfg.Audio.SampleRate = *sampleRate
	}
	if *backend != "" {
		cfg.Audio.Backend = *backend
	}
	if *bpm > 0 {
		cfg.Tempo = *bpm
	}
	if *chiptune {
		cfg.Chiptune = true
	}
	if *midiPort != "" {
		cfg.MIDI.PortName = *midiPort
	}

	if *debugLog {
		if dir, err := config.Dir(); err == nil {
			if err := debug.Enable(filepath.Join(dir, "debug.log")); err != nil {
				log.Printf("debug log: %v", err)
			}
		}
		defer debug.Disable()
	}

	if *saveConfig {
		if err := saveTo(cfg, *configPath); err != nil {
			log.Fatal(err)
		}
	}

	gen := generator.NewClient(cfg.Generator.Endpoint, cfg.Generator.Model, cfg.APIKey())
	opts := []beatstation.Option{
		beatstation.WithSampleRate(cfg.Audio.SampleRate),
		beatstation.WithGenerator(gen),
		beatstation.WithInitialState(cfg.Tempo, cfg.Effects, cfg.Chiptune),
	}

	if *renderPath != "" {
		st := beatstation.New(opts...)
		if err := applyPrompt(st, *prompt); err != nil {
			log.Fatal(err)
		}
		p, tempo := st.Snapshot()
		samples := beatstation.RenderPattern(p, tempo, st.Effects(), st.Chiptune(), cfg.Audio.SampleRate, *seconds)
		wav := beatstation.EncodeWAVFloat32LE(samples, cfg.Audio.SampleRate, 2)
		if err := os.WriteFile(*renderPath, wav, 0644); err != nil {
			log.Fatal(err)
		}
		fmt.Printf("wrote %s (%.1fs at %d bpm)\n", *renderPath, *seconds, tempo)
		return
	}

	open, err := audio.OpenerFor(cfg.Audio.Backend)
	if err != nil {
		log.Fatal(err)
	}
	opts = append(opts, beatstation.WithOutput(open))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	var st *beatstation.Station
	if cfg.MIDI.PortName != "" {
		send, err := midiout.Open(cfg.MIDI.PortName)
		if err != nil {
			log.Fatal(err)
		}
		defer midiout.Close()
		mirror := midiout.New(send, cfg.MIDI.Channel, func() float64 { return st.Engine().ClockTime() })
		go mirror.Run(ctx)
		opts = append(opts, beatstation.WithTriggerTap(mirror.Enqueue))
	}
	st = beatstation.New(opts...)
	defer st.Shutdown()

	if err := applyPrompt(st, *prompt); err != nil {
		log.Fatal(err)
	}

	if term.IsTerminal(int(os.Stdout.Fd())) {
		p := tea.NewProgram(tui.NewModel(st), tea.WithAltScreen(), tea.WithContext(ctx))
		if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
			log.Fatal(err)
		}
		return
	}
	runPlain(ctx, st)
}

// runPlain plays until interrupted and prints one line per bar.
func runPlain(ctx context.Context, st *beatstation.Station) {
	ch := st.Watch()
	st.Start()
	fmt.Printf("playing at %d bpm, ctrl+c to stop\n", st.Tempo())
	bars := 0
	for {
		select {
		case <-ctx.Done():
			st.Stop()
			return
		case ev := <-ch:
			if ev.Playing && ev.Step == 0 {
				bars++
				fmt.Printf("bar %d\n", bars)
			}
		}
	}
}

func applyPrompt(st *beatstation.Station, prompt string) error {
	if prompt == "" {
		return nil
	}
	if err := st.Generate(context.Background(), prompt); err != nil {
		return fmt.Errorf("generate %q: %w", prompt, err)
	}
	return nil
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load()
}

func saveTo(cfg *config.Config, path string) error {
	if path != "" {
		return cfg.SaveFile(path)
	}
	return cfg.Save()
}
