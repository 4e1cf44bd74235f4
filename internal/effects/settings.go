package effects

import "math"

// Distortion parameters. Amount is the waveshaper drive in [0,100].
type Distortion struct {
	Enabled bool    `json:"enabled"`
	Amount  float64 `json:"amount"`
}

// Delay parameters. Time is seconds in [0.01,1], Feedback in [0,0.9],
// Mix in [0,1].
type Delay struct {
	Enabled  bool    `json:"enabled"`
	Time     float64 `json:"time"`
	Feedback float64 `json:"feedback"`
	Mix      float64 `json:"mix"`
}

type Settings struct {
	Distortion Distortion `json:"distortion"`
	Delay      Delay      `json:"delay"`
}

func DefaultSettings() Settings {
	return Settings{
		Distortion: Distortion{Amount: 0},
		Delay:      Delay{Time: 0.3, Feedback: 0.3, Mix: 0.2},
	}
}

// Clamp returns s with every numeric field forced into its range.
func (s Settings) Clamp() Settings {
	s.Distortion.Amount = clamp64(s.Distortion.Amount, 0, 100)
	s.Delay.Time = clamp64(s.Delay.Time, 0.01, 1)
	s.Delay.Feedback = clamp64(s.Delay.Feedback, 0, 0.9)
	s.Delay.Mix = clamp64(s.Delay.Mix, 0, 1)
	return s
}

func clamp64(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
