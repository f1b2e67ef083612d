package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/slavadubrov/anything2anki/internal/workflow"
)

var (
	spinnerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8BC34A"))
	labelStyle   = lipgloss.NewStyle().Faint(true)
)

// phaseMsg updates the progress label; doneMsg ends the program.
type phaseMsg struct {
	label string
}

type doneMsg struct{}

type progressModel struct {
	spinner  spinner.Model
	label    string
	quitting bool
}

func newProgressModel() progressModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = spinnerStyle
	return progressModel{spinner: sp, label: "generating cards..."}
}

func (m progressModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case phaseMsg:
		m.label = msg.label
		return m, nil
	case doneMsg:
		m.quitting = true
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m progressModel) View() string {
	if m.quitting {
		return ""
	}
	return fmt.Sprintf("%s %s\n", m.spinner.View(), labelStyle.Render(m.label))
}

// progress runs the one-line spinner UI and translates engine transitions
// into label updates. It writes to stderr so the summary on stdout stays
// clean, and takes no input: Ctrl+C keeps flowing to the signal handler.
type progress struct {
	program *tea.Program
	cycles  int
	cycle   int
	done    chan struct{}
}

func newProgress(maxReflections int) *progress {
	return &progress{
		program: tea.NewProgram(newProgressModel(), tea.WithInput(nil), tea.WithOutput(os.Stderr)),
		cycles:  maxReflections,
		done:    make(chan struct{}),
	}
}

func (p *progress) Start() {
	go func() {
		defer close(p.done)
		_, _ = p.program.Run()
	}()
}

// Stop ends the UI and waits for the terminal to be restored.
func (p *progress) Stop() {
	p.program.Send(doneMsg{})
	<-p.done
}

// Observe is the engine's transition hook. It runs on the run's goroutine;
// Send is safe to call from outside the UI loop.
func (p *progress) Observe(tr workflow.Transition) {
	if label := p.labelFor(tr); label != "" {
		p.program.Send(phaseMsg{label: label})
	}
}

func (p *progress) labelFor(tr workflow.Transition) string {
	switch tr.To {
	case workflow.StateGenerated:
		if p.cycles == 0 {
			return "cards generated"
		}
		return "cards generated, reviewing..."
	case workflow.StateReflecting:
		p.cycle++
		return fmt.Sprintf("cycle %d/%d: reviewing cards...", p.cycle, p.cycles)
	case workflow.StateImproved:
		return fmt.Sprintf("cycle %d/%d: cards improved", p.cycle, p.cycles)
	case workflow.StateDone:
		return "writing deck..."
	case workflow.StateFailed:
		return "failed"
	}
	return ""
}
