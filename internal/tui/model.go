// Package tui is the terminal front end: a step grid with a playhead, track
// labels per voicing and key bindings for every station operation.
package tui

import (
	"context"
	"fmt"
	"math"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	beatstation "github.com/cbegin/beatstation-go"
	"github.com/cbegin/beatstation-go/internal/pattern"
)

// StepMsg carries one station step event into the update loop.
type StepMsg beatstation.StepEvent

// GeneratedMsg reports the end of a prompt generation.
type GeneratedMsg struct{ Err error }

type Model struct {
	Station *beatstation.Station
	events  <-chan beatstation.StepEvent

	track    int
	step     int
	playhead int
	playing  bool

	prompting  bool
	prompt     string
	generating bool
	status     string
	quitting   bool
}

func NewModel(st *beatstation.Station) Model {
	return Model{Station: st, events: st.Watch(), playhead: -1}
}

func ListenForSteps(events <-chan beatstation.StepEvent) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return nil
		}
		return StepMsg(ev)
	}
}

func generate(st *beatstation.Station, prompt string) tea.Cmd {
	return func() tea.Msg {
		return GeneratedMsg{Err: st.Generate(context.Background(), prompt)}
	}
}

func (m Model) Init() tea.Cmd {
	return ListenForSteps(m.events)
}

func (m Model) kind() pattern.Kind { return pattern.Kinds()[m.track] }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.prompting {
			return m.updatePrompt(msg)
		}
		return m.updateKeys(msg)

	case StepMsg:
		m.playing = msg.Playing
		m.playhead = msg.Step
		if !msg.Playing {
			m.playhead = -1
		}
		return m, ListenForSteps(m.events)

	case GeneratedMsg:
		m.generating = false
		if msg.Err != nil {
			m.status = "generation failed"
		} else {
			m.status = "pattern generated"
		}
	}
	return m, nil
}

func (m Model) updatePrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.prompting = false
		m.prompt = ""
	case tea.KeyEnter:
		m.prompting = false
		prompt := strings.TrimSpace(m.prompt)
		m.prompt = ""
		if prompt == "" || m.generating {
			return m, nil
		}
		m.generating = true
		m.status = "generating..."
		return m, generate(m.Station, prompt)
	case tea.KeyBackspace:
		if r := []rune(m.prompt); len(r) > 0 {
			m.prompt = string(r[:len(r)-1])
		}
	case tea.KeySpace:
		m.prompt += " "
	case tea.KeyRunes:
		m.prompt += string(msg.Runes)
	case tea.KeyCtrlC:
		m.quitting = true
		m.Station.Stop()
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	st := m.Station
	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		st.Stop()
		return m, tea.Quit
	case " ":
		st.TogglePlay()
	case "up", "k":
		m.track = (m.track + pattern.NumTracks - 1) % pattern.NumTracks
	case "down", "j":
		m.track = (m.track + 1) % pattern.NumTracks
	case "left", "h":
		m.step = (m.step + pattern.Steps - 1) % pattern.Steps
	case "right", "l":
		m.step = (m.step + 1) % pattern.Steps
	case "enter", "x":
		st.ToggleStep(m.kind(), m.step)
	case "m":
		st.ToggleMute(m.kind())
	case "p":
		st.Preview(m.kind())
	case "+", "=":
		st.SetTempo(st.Tempo() + 5)
	case "-", "_":
		st.SetTempo(st.Tempo() - 5)
	case "]":
		m.nudgeVolume(0.1)
	case "[":
		m.nudgeVolume(-0.1)
	case "c":
		st.SetVoicingMode(!st.Chiptune())
	case "C":
		st.Clear()
		m.playhead = -1
	case "d":
		fx := st.Effects()
		fx.Distortion.Enabled = !fx.Distortion.Enabled
		st.SetEffects(fx)
	case ">", ".":
		fx := st.Effects()
		fx.Distortion.Amount += 10
		st.SetEffects(fx)
	case "<", ",":
		fx := st.Effects()
		fx.Distortion.Amount -= 10
		st.SetEffects(fx)
	case "e":
		fx := st.Effects()
		fx.Delay.Enabled = !fx.Delay.Enabled
		st.SetEffects(fx)
	case ")":
		fx := st.Effects()
		fx.Delay.Mix += 0.1
		st.SetEffects(fx)
	case "(":
		fx := st.Effects()
		fx.Delay.Mix -= 0.1
		st.SetEffects(fx)
	case "g":
		if !m.generating {
			m.prompting = true
		}
	}
	return m, nil
}

func (m Model) nudgeVolume(delta float64) {
	t := m.Station.Pattern().Tracks[m.track]
	v := math.Round((t.Volume+delta)*10) / 10
	m.Station.SetTrackVolume(t.Kind, v)
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	st := m.Station
	p := st.Pattern()
	chip := st.Chiptune()
	fx := st.Effects()

	accent := lipgloss.Color("#f97316")
	headerStyle := lipgloss.NewStyle().Foreground(accent).Bold(true)
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6b7280"))
	cursorStyle := lipgloss.NewStyle().Reverse(true)

	playState := "STOP"
	if m.playing {
		playState = "PLAY"
	}
	voicing := "ANALOG"
	if chip {
		voicing = "8-BIT"
	}
	step := 0
	if m.playhead >= 0 {
		step = m.playhead
	}
	header := headerStyle.Render(fmt.Sprintf("BEATSTATION  %s  %3dbpm  step:%02d  %s", playState, st.Tempo(), step, voicing))

	var grid strings.Builder
	for i, tr := range p.Tracks {
		hue := lipgloss.NewStyle().Foreground(lipgloss.Color(tr.Kind.Hue()))
		label := fmt.Sprintf("%-9s", tr.Kind.Label(chip))
		if i == m.track {
			label = cursorStyle.Render(label)
		}
		mute := " "
		if tr.Muted {
			mute = "M"
		}
		grid.WriteString(hue.Render(label))
		grid.WriteString(dimStyle.Render(fmt.Sprintf(" %s %3.0f%% ", mute, tr.Volume*100)))
		for j := 0; j < pattern.Steps; j++ {
			cell := cellRune(tr.Steps[j], j == m.playhead, i == m.track && j == m.step)
			style := dimStyle
			if tr.Steps[j] && !tr.Muted {
				style = hue
			}
			if j%4 == 0 {
				grid.WriteString(" ")
			}
			grid.WriteString(style.Render(string(cell)))
		}
		grid.WriteString("\n")
	}

	dist := "off"
	if fx.Distortion.Enabled {
		dist = fmt.Sprintf("%.0f", fx.Distortion.Amount)
	}
	delay := "off"
	if fx.Delay.Enabled {
		delay = fmt.Sprintf("%.2fs fb %.1f mix %.1f", fx.Delay.Time, fx.Delay.Feedback, fx.Delay.Mix)
	}
	fxLine := dimStyle.Render(fmt.Sprintf("DIST %s   DELAY %s", dist, delay))

	help := dimStyle.Render("space:play  hjkl:move  x:step  m:mute  p:preview  [/]:vol  +/-:tempo  c:voicing  d/e:fx  C:clear  g:generate  q:quit")

	var out strings.Builder
	out.WriteString("\n")
	out.WriteString(header)
	out.WriteString("\n\n")
	out.WriteString(grid.String())
	out.WriteString("\n")
	out.WriteString(fxLine)
	out.WriteString("\n")
	out.WriteString(help)
	if m.prompting {
		out.WriteString("\n")
		out.WriteString(headerStyle.Render("prompt> ") + m.prompt)
	} else if m.status != "" {
		out.WriteString("\n")
		out.WriteString(dimStyle.Render(m.status))
	}
	return out.String()
}

func cellRune(active, playhead, cursor bool) rune {
	switch {
	case cursor && playhead:
		return '▷'
	case cursor && active:
		return '◉'
	case cursor:
		return '○'
	case playhead:
		return '▶'
	case active:
		return '●'
	default:
		return '·'
	}
}
