package pattern

import "strings"

const (
	// Steps is the fixed length of every track.
	Steps = 16
	// NumTracks is the fixed number of tracks, one per Kind.
	NumTracks = 6

	MinBPM     = 60
	MaxBPM     = 180
	DefaultBPM = 120
)

// Kind identifies one of the six instruments.
type Kind int

const (
	Kick Kind = iota
	Snare
	HiHat
	Clap
	Bass
	Synth
)

var kindNames = [NumTracks]string{"KICK", "SNARE", "HIHAT", "CLAP", "BASS", "SYNTH"}

var analogLabels = [NumTracks]string{"BD-808", "SD-ANLG", "CH-909", "CP-RETRO", "BASS-303", "LEAD-FM"}

var chipLabels = [NumTracks]string{"NES-KICK", "NOISE-SD", "BIT-HAT", "BIT-CLAP", "TRI-BASS", "PULSE-LD"}

var hues = [NumTracks]string{"#ef4444", "#eab308", "#06b6d4", "#d946ef", "#8b5cf6", "#10b981"}

// Kinds lists every kind in track order.
func Kinds() [NumTracks]Kind {
	return [NumTracks]Kind{Kick, Snare, HiHat, Clap, Bass, Synth}
}

func (k Kind) Valid() bool { return k >= Kick && k <= Synth }

func (k Kind) String() string {
	if !k.Valid() {
		return "UNKNOWN"
	}
	return kindNames[k]
}

// Label returns the panel name for the kind under the given voicing.
func (k Kind) Label(chiptune bool) string {
	if !k.Valid() {
		return ""
	}
	if chiptune {
		return chipLabels[k]
	}
	return analogLabels[k]
}

// Hue returns the display color for the kind as a hex string.
func (k Kind) Hue() string {
	if !k.Valid() {
		return "#ffffff"
	}
	return hues[k]
}

// ParseKind matches a kind name case-insensitively.
func ParseKind(name string) (Kind, bool) {
	name = strings.ToUpper(strings.TrimSpace(name))
	for i, n := range kindNames {
		if n == name {
			return Kind(i), true
		}
	}
	return 0, false
}

// Track is one row of the grid.
type Track struct {
	Kind   Kind
	Steps  [Steps]bool
	Muted  bool
	Volume float64
}

// Active reports whether the track sounds on step i.
func (t Track) Active(i int) bool {
	if i < 0 || i >= Steps || t.Muted {
		return false
	}
	return t.Steps[i]
}

// Pattern holds exactly one track per kind, in kind order.
type Pattern struct {
	Tracks [NumTracks]Track
}

// New returns an empty pattern with full-volume tracks.
func New() Pattern {
	var p Pattern
	for i, k := range Kinds() {
		p.Tracks[i] = Track{Kind: k, Volume: 1}
	}
	return p
}

// Default returns the power-on pattern: four-on-the-floor kick and
// eighth-note hats.
func Default() Pattern {
	p := New()
	vols := [NumTracks]float64{0.9, 0.8, 0.7, 0.8, 0.8, 0.7}
	for i := range p.Tracks {
		p.Tracks[i].Volume = vols[i]
	}
	for _, s := range []int{0, 4, 8, 12} {
		p.Tracks[Kick].Steps[s] = true
	}
	for s := 0; s < Steps; s += 2 {
		p.Tracks[HiHat].Steps[s] = true
	}
	return p
}

// Track returns a pointer to the track for kind, or nil if kind is invalid.
func (p *Pattern) Track(k Kind) *Track {
	if !k.Valid() {
		return nil
	}
	return &p.Tracks[k]
}

// ToggleStep flips step i of the kind's track. Out-of-range input is ignored.
func (p *Pattern) ToggleStep(k Kind, i int) {
	t := p.Track(k)
	if t == nil || i < 0 || i >= Steps {
		return
	}
	t.Steps[i] = !t.Steps[i]
}

func (p *Pattern) SetMute(k Kind, muted bool) {
	if t := p.Track(k); t != nil {
		t.Muted = muted
	}
}

func (p *Pattern) SetVolume(k Kind, v float64) {
	if t := p.Track(k); t != nil {
		t.Volume = ClampVolume(v)
	}
}

// Clear turns every step off, leaving mute and volume alone.
func (p *Pattern) Clear() {
	for i := range p.Tracks {
		p.Tracks[i].Steps = [Steps]bool{}
	}
}

// Normalize restores the structural invariants after a caller built a
// Pattern by hand: kinds in order and volumes in range.
func (p *Pattern) Normalize() {
	for i, k := range Kinds() {
		p.Tracks[i].Kind = k
		p.Tracks[i].Volume = ClampVolume(p.Tracks[i].Volume)
	}
}

// ClampBPM pins a tempo into [MinBPM, MaxBPM].
func ClampBPM(bpm int) int {
	if bpm < MinBPM {
		return MinBPM
	}
	if bpm > MaxBPM {
		return MaxBPM
	}
	return bpm
}

// ClampVolume pins a volume into [0, 1]. NaN maps to 0.
func ClampVolume(v float64) float64 {
	if !(v > 0) {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
