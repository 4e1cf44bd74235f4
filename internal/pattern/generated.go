package pattern

// Generated is the shape produced by the prompt-driven pattern generator.
type Generated struct {
	BPM    int              `json:"bpm"`
	Tracks []GeneratedTrack `json:"tracks"`
}

// GeneratedTrack carries one instrument's steps as 0/1 values.
type GeneratedTrack struct {
	Type  string `json:"type"`
	Steps []int  `json:"steps"`
}

// Merge applies g onto p and returns the merged pattern and clamped tempo.
// Tracks in g that are missing, of the wrong length, non-binary or of an
// unknown kind leave the corresponding track of p untouched.
func Merge(p Pattern, g Generated) (Pattern, int) {
	seen := make(map[Kind]bool, NumTracks)
	for _, gt := range g.Tracks {
		k, ok := ParseKind(gt.Type)
		if !ok || seen[k] {
			continue
		}
		seen[k] = true
		steps, ok := binarySteps(gt.Steps)
		if !ok {
			continue
		}
		p.Tracks[k].Steps = steps
	}
	return p, ClampBPM(g.BPM)
}

func binarySteps(values []int) ([Steps]bool, bool) {
	var out [Steps]bool
	if len(values) != Steps {
		return out, false
	}
	for i, v := range values {
		switch v {
		case 0:
		case 1:
			out[i] = true
		default:
			return out, false
		}
	}
	return out, true
}
