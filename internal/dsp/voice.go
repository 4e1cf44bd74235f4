package dsp

// Voice is one triggered note. Sample returns the next mono sample and
// true once the voice has finished; a finished voice is dropped by the mixer.
type Voice interface {
	Sample() (float64, bool)
}

// Source is a raw signal generator on a note-local timeline.
type Source interface {
	At(t float64) (float64, bool)
}

// Layer is sources summed, optionally filtered, then scaled by a gain
// envelope: the osc -> filter -> gain chain of a single hit.
type Layer struct {
	Sources []Source
	Filter  *Biquad
	Gain    *Param

	done bool
}

func (l *Layer) at(t float64) float64 {
	if l.done {
		return 0
	}
	var sum float64
	live := false
	for _, s := range l.Sources {
		v, ok := s.At(t)
		if ok {
			live = true
			sum += v
		}
	}
	if !live {
		l.done = true
		return 0
	}
	if l.Filter != nil {
		sum = l.Filter.Process(sum, t)
	}
	return sum * l.Gain.ValueAt(t)
}

// Note is a self-terminating voice built from layers. It owns all of its
// nodes and keeps no reference back to the engine.
type Note struct {
	Name   string
	Pitch  float64 // Hz for pitched hits, 0 otherwise
	Layers []*Layer

	t  float64
	dt float64
}

func NewNote(name string, sampleRate float64, layers ...*Layer) *Note {
	return &Note{Name: name, Layers: layers, dt: 1 / sampleRate}
}

func (n *Note) Sample() (float64, bool) {
	var sum float64
	done := true
	for _, l := range n.Layers {
		sum += l.at(n.t)
		if !l.done {
			done = false
		}
	}
	n.t += n.dt
	return sum, done
}

// Elapsed returns the note-local time of the next sample.
func (n *Note) Elapsed() float64 { return n.t }
