// Package config loads and saves user preferences from
// ~/.config/beatstation/config.json.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/cbegin/beatstation-go/internal/effects"
	"github.com/cbegin/beatstation-go/internal/pattern"
)

// AudioConfig selects the output device path.
type AudioConfig struct {
	SampleRate int    `json:"sampleRate,omitempty"`
	Backend    string `json:"backend,omitempty"` // "ebiten" or "oto"
}

// GeneratorConfig configures the prompt-driven pattern generator.
type GeneratorConfig struct {
	Model    string `json:"model,omitempty"`
	Endpoint string `json:"endpoint,omitempty"`
	APIKey   string `json:"apiKey,omitempty"`
}

// MIDIConfig names an output port that mirrors every hit. Empty disables it.
type MIDIConfig struct {
	PortName string `json:"portName,omitempty"`
	Channel  int    `json:"channel,omitempty"` // 1-16
}

type Config struct {
	Audio     AudioConfig      `json:"audio"`
	Tempo     int              `json:"tempo,omitempty"`
	Chiptune  bool             `json:"chiptune,omitempty"`
	Effects   effects.Settings `json:"effects"`
	Generator GeneratorConfig  `json:"generator"`
	MIDI      MIDIConfig       `json:"midi"`
}

const (
	DefaultSampleRate = 48000
	DefaultModel      = "gemini-2.5-flash"
	DefaultEndpoint   = "https://generativelanguage.googleapis.com/"
)

func DefaultConfig() *Config {
	return &Config{
		Audio:     AudioConfig{SampleRate: DefaultSampleRate, Backend: "ebiten"},
		Tempo:     pattern.DefaultBPM,
		Effects:   effects.DefaultSettings(),
		Generator: GeneratorConfig{Model: DefaultModel, Endpoint: DefaultEndpoint},
		MIDI:      MIDIConfig{Channel: 10},
	}
}

// Dir returns ~/.config/beatstation.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "beatstation"), nil
}

// Path returns the full path to config.json.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads the default config file, or returns defaults if there is none.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return DefaultConfig(), nil
	}
	return LoadFile(path)
}

// LoadFile reads path over the defaults. A missing file is not an error.
func LoadFile(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	cfg.normalize()
	return cfg, nil
}

// Save writes the config to the default path.
func (c *Config) Save() error {
	path, err := Path()
	if err != nil {
		return err
	}
	return c.SaveFile(path)
}

func (c *Config) SaveFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// APIKey returns the configured generator key, falling back to the
// GEMINI_API_KEY and API_KEY environment variables.
func (c *Config) APIKey() string {
	if c.Generator.APIKey != "" {
		return c.Generator.APIKey
	}
	if k := os.Getenv("GEMINI_API_KEY"); k != "" {
		return k
	}
	return os.Getenv("API_KEY")
}

func (c *Config) normalize() {
	if c.Audio.SampleRate <= 0 {
		c.Audio.SampleRate = DefaultSampleRate
	}
	if c.Tempo == 0 {
		c.Tempo = pattern.DefaultBPM
	}
	c.Tempo = pattern.ClampBPM(c.Tempo)
	c.Effects = c.Effects.Clamp()
	if c.Generator.Model == "" {
		c.Generator.Model = DefaultModel
	}
	if c.Generator.Endpoint == "" {
		c.Generator.Endpoint = DefaultEndpoint
	}
	if c.MIDI.Channel < 1 || c.MIDI.Channel > 16 {
		c.MIDI.Channel = 10
	}
}
