package tui

import (
	"fmt"
	"geos4/audio"
	"geos4/playback"
	"geos4/sequencer"
	"math/rand"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/pkg/errors"
)

const (
	minGridSteps  = 4
	maxGridSteps  = 32
	minGridTracks = 1
	maxGridTracks = 8

	// How long the playhead column stays highlighted after a step fired.
	flashDuration = 90 * time.Millisecond
)

// stepMsg is delivered whenever the player advanced to a new step.
type stepMsg playback.StepEvent

// flashOffMsg reverts the step flash that was switched on by stepMsg.
type flashOffMsg struct {
	step int
}

type Model struct {
	Grid   *sequencer.Grid
	Player *playback.Player
	Engine *audio.Engine

	steps chan playback.StepEvent
	rng   *rand.Rand

	cursorTrack int
	cursorStep  int
	playhead    int
	flashStep   int
	status      string
	quitting    bool
}

func NewModel(grid *sequencer.Grid, player *playback.Player, engine *audio.Engine) Model {
	steps := make(chan playback.StepEvent, 16)

	// The callback runs on the player's timer goroutine, so it must never
	// block. A skipped frame is invisible, a stalled beat is not.
	player.OnStep(func(event playback.StepEvent) {
		select {
		case steps <- event:
		default:
		}
	})

	return Model{
		Grid:      grid,
		Player:    player,
		Engine:    engine,
		steps:     steps,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
		playhead:  -1,
		flashStep: -1,
	}
}

// Run drives the model until the user quits.
func Run(model Model) error {
	program := tea.NewProgram(model, tea.WithAltScreen())

	_, err := program.Run()
	if err != nil {
		return errors.Wrap(err, "Error running the terminal UI")
	}

	return nil
}

// listenForSteps waits for the next step event from the player. The command
// re-arms itself by being returned again from Update.
func listenForSteps(steps <-chan playback.StepEvent) tea.Cmd {
	return func() tea.Msg {
		return stepMsg(<-steps)
	}
}

// flashOff schedules the revert of the step highlight. It deliberately uses
// its own one-shot timer instead of the beat timer, so slow tempos still get
// a short flash.
func flashOff(step int) tea.Cmd {
	return tea.Tick(flashDuration, func(time.Time) tea.Msg {
		return flashOffMsg{step: step}
	})
}

func (m Model) Init() tea.Cmd {
	return listenForSteps(m.steps)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case stepMsg:
		m.playhead = msg.Step
		m.flashStep = msg.Step
		return m, tea.Batch(listenForSteps(m.steps), flashOff(msg.Step))

	case flashOffMsg:
		if m.flashStep == msg.step {
			m.flashStep = -1
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		m.Player.Stop()
		return m, tea.Quit

	case " ":
		if m.Player.Playing() {
			m.Player.Stop()
			m.playhead = -1
			m.flashStep = -1
		} else {
			m.Player.Play()
		}

	case "+", "=":
		m.Player.SetBPM(m.Player.BPM() + 5)

	case "-", "_":
		m.Player.SetBPM(m.Player.BPM() - 5)

	case "up", "k":
		m.cursorTrack--

	case "down", "j":
		m.cursorTrack++

	case "left", "h":
		m.cursorStep--

	case "right", "l":
		m.cursorStep++

	case "enter", "t":
		if m.Grid.ToggleStep(m.cursorTrack, m.cursorStep) {
			m.Engine.Trigger(m.Grid.TrackSound(m.cursorTrack))
		}

	case "c":
		m.Grid.Clear()

	case "r":
		m.Grid.Randomize(m.rng, 0.3)

	case "s":
		m = m.cycleTrackSound()

	case "[":
		m = m.resizeGrid(m.Grid.NumSteps()-1, m.Grid.NumTracks())

	case "]":
		m = m.resizeGrid(m.Grid.NumSteps()+1, m.Grid.NumTracks())

	case "{":
		m = m.resizeGrid(m.Grid.NumSteps(), m.Grid.NumTracks()-1)

	case "}":
		m = m.resizeGrid(m.Grid.NumSteps(), m.Grid.NumTracks()+1)

	case "w":
		m = m.toggleRecording()
	}

	return m.clampCursor(), nil
}

func (m Model) cycleTrackSound() Model {
	kinds := sequencer.AllSoundKinds()
	next := kinds[(int(m.Grid.TrackSound(m.cursorTrack))+1)%len(kinds)]

	m.Grid.SetTrackSound(m.cursorTrack, next)
	m.Engine.Trigger(next)

	return m
}

func (m Model) resizeGrid(numSteps int, numTracks int) Model {
	numSteps = min(max(numSteps, minGridSteps), maxGridSteps)
	numTracks = min(max(numTracks, minGridTracks), maxGridTracks)

	err := m.Grid.SetDimensions(numSteps, numTracks)
	if err != nil {
		m.status = err.Error()
	}

	return m
}

func (m Model) toggleRecording() Model {
	if m.Engine.Recording() {
		path := fmt.Sprintf("geos4-%s.wav", time.Now().Format("20060102-150405"))

		err := m.Engine.StopRecording(path)
		if err != nil {
			m.status = "recording failed: " + err.Error()
			return m
		}

		m.status = "wrote " + path
		return m
	}

	err := m.Engine.StartRecording()
	if err != nil {
		m.status = "recording failed: " + err.Error()
		return m
	}

	m.status = "recording, press w again to save"
	return m
}

func (m Model) clampCursor() Model {
	m.cursorTrack = min(max(m.cursorTrack, 0), m.Grid.NumTracks()-1)
	m.cursorStep = min(max(m.cursorStep, 0), m.Grid.NumSteps()-1)
	return m
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	snapshot := m.Grid.Snapshot()

	// Styles
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	playheadStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("229"))
	flashStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("231"))
	recordStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("203"))

	playState := "⏸ stopped"
	if m.Player.Playing() {
		playState = "▶ playing"
	}

	header := headerStyle.Render(fmt.Sprintf("geos4  %s  %3dbpm  %dx%d  %s",
		playState, m.Player.BPM(), snapshot.NumSteps, snapshot.NumTracks, snapshot.State))

	var out strings.Builder
	out.WriteString(header)
	out.WriteString("\n\n")

	for t, track := range snapshot.Tracks {
		labelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(track.Color))
		out.WriteString(labelStyle.Render(fmt.Sprintf("%-11s", track.Name)))

		for s, cell := range track.Cells {
			out.WriteString(m.renderCell(cell, t, s, playheadStyle, flashStyle))
			out.WriteString(" ")
			if (s+1)%4 == 0 {
				out.WriteString(" ")
			}
		}

		out.WriteString("\n")
	}

	out.WriteString("\n")
	out.WriteString(dimStyle.Render(m.datasetLine(snapshot)))
	out.WriteString("\n")

	if m.Engine.Recording() {
		out.WriteString(recordStyle.Render("● rec"))
		out.WriteString("\n")
	}
	if m.status != "" {
		out.WriteString(m.status)
		out.WriteString("\n")
	}

	out.WriteString("\n")
	out.WriteString(dimStyle.Render("space:play  enter:toggle  hjkl:move  s:sound  r:random  c:clear  +/-:bpm  [/]:steps  {/}:tracks  w:record  q:quit"))
	out.WriteString("\n")

	return out.String()
}

func (m Model) renderCell(cell sequencer.Cell, track int, step int, playheadStyle lipgloss.Style, flashStyle lipgloss.Style) string {
	symbol := "·"
	if cell.Active {
		symbol = "●"
	}

	if track == m.cursorTrack && step == m.cursorStep {
		if cell.Active {
			return "◉"
		}
		return "○"
	}

	switch step {
	case m.flashStep:
		return flashStyle.Render(symbol)
	case m.playhead:
		return playheadStyle.Render(symbol)
	}

	return symbol
}

func (m Model) datasetLine(snapshot sequencer.Snapshot) string {
	if snapshot.Bounds == nil {
		return "no dataset loaded"
	}

	return fmt.Sprintf("%d points  lng %.4f..%.4f  lat %.4f..%.4f",
		len(snapshot.Points),
		snapshot.Bounds.MinLng, snapshot.Bounds.MaxLng,
		snapshot.Bounds.MinLat, snapshot.Bounds.MaxLat)
}
