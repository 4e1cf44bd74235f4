// Package generator asks a Gemini model for a drum pattern matching a text
// prompt, constrained by a JSON response schema.
package generator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/cbegin/beatstation-go/internal/debug"
	"github.com/cbegin/beatstation-go/internal/pattern"
)

var ErrNoAPIKey = errors.New("generator: no API key configured")

const promptTemplate = `Generate a 16-step electronic music drum pattern based on this description: %q.
Ensure there are exactly 6 tracks corresponding to KICK, SNARE, HIHAT, CLAP, BASS, SYNTH.
The steps array must have exactly 16 items (0 or 1).`

// Client generates patterns through the Gemini API.
type Client struct {
	Endpoint    string // API base URL; empty uses the SDK default
	Model       string
	APIKey      string
	Temperature float32
	HTTP        *http.Client
}

func NewClient(endpoint, model, apiKey string) *Client {
	return &Client{
		Endpoint:    endpoint,
		Model:       model,
		APIKey:      apiKey,
		Temperature: 0.7,
		HTTP:        &http.Client{Timeout: 60 * time.Second},
	}
}

var responseSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"bpm": {Type: genai.TypeInteger, Description: "The tempo of the beat between 60 and 180"},
		"tracks": {
			Type:        genai.TypeArray,
			Description: "List of 6 tracks (KICK, SNARE, HIHAT, CLAP, BASS, SYNTH)",
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"type": {Type: genai.TypeString, Description: "Must be one of: KICK, SNARE, HIHAT, CLAP, BASS, SYNTH"},
					"steps": {
						Type:        genai.TypeArray,
						Description: "Array of exactly 16 integers, where 1 is active and 0 is silent",
						Items:       &genai.Schema{Type: genai.TypeInteger},
					},
				},
				Required: []string{"type", "steps"},
			},
		},
	},
	Required: []string{"bpm", "tracks"},
}

func (c *Client) connect(ctx context.Context) (*genai.Client, error) {
	cfg := &genai.ClientConfig{
		APIKey:     c.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: c.HTTP,
	}
	if c.Endpoint != "" {
		cfg.HTTPOptions.BaseURL = c.Endpoint
	}
	return genai.NewClient(ctx, cfg)
}

// Generate returns the model's pattern for prompt, or nil when the model
// returned no text.
func (c *Client) Generate(ctx context.Context, prompt string) (*pattern.Generated, error) {
	if c.APIKey == "" {
		return nil, ErrNoAPIKey
	}
	client, err := c.connect(ctx)
	if err != nil {
		return nil, fmt.Errorf("generator: %w", err)
	}
	debug.Log("gen", "generateContent model=%s", c.Model)
	resp, err := client.Models.GenerateContent(ctx, c.Model,
		genai.Text(fmt.Sprintf(promptTemplate, prompt)),
		&genai.GenerateContentConfig{
			ResponseMIMEType: "application/json",
			ResponseSchema:   responseSchema,
			Temperature:      genai.Ptr(c.Temperature),
		})
	if err != nil {
		return nil, fmt.Errorf("generator: %w", err)
	}
	return parseText(resp.Text())
}

func parseText(text string) (*pattern.Generated, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}
	var g pattern.Generated
	if err := json.Unmarshal([]byte(text), &g); err != nil {
		return nil, fmt.Errorf("generator: decode pattern: %w", err)
	}
	return &g, nil
}
