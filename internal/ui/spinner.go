// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ui shows progress on the terminal while an API call is outstanding.
package ui

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	spinnerColor = lipgloss.AdaptiveColor{Light: "#7C3AED", Dark: "#A78BFA"}
	mutedColor   = lipgloss.AdaptiveColor{Light: "#9CA3AF", Dark: "#6C7086"}
)

// doneMsg tells the model the call has returned.
type doneMsg struct{}

// Model is a single-line spinner with a message and elapsed time.
type Model struct {
	spinner spinner.Model
	message string
	start   time.Time
	done    bool
}

// NewModel returns a spinner model showing message.
func NewModel(message string) Model {
	s := spinner.New()
	s.Spinner = spinner.Spinner{
		Frames: []string{"|", "/", "-", "\\"},
		FPS:    time.Second / 10,
	}
	s.Style = lipgloss.NewStyle().Foreground(spinnerColor)
	return Model{spinner: s, message: message, start: time.Now()}
}

// Init starts the animation.
func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update advances the animation and quits once the call is done.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case doneMsg:
		m.done = true
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View renders the spinner line; it is empty once done so the line clears.
func (m Model) View() string {
	if m.done {
		return ""
	}
	elapsed := lipgloss.NewStyle().Foreground(mutedColor).
		Render(fmt.Sprintf(" (%s)", formatElapsed(time.Since(m.start))))
	return m.spinner.View() + " " + m.message + "..." + elapsed
}

func formatElapsed(d time.Duration) string {
	seconds := int(d.Seconds())
	if seconds < 60 {
		return fmt.Sprintf("%ds", seconds)
	}
	return fmt.Sprintf("%dm %ds", seconds/60, seconds%60)
}

// Run calls fn, showing a spinner on out while it runs when enabled.
// The spinner never reads input and installs no signal handler; cancel
// ctx to abandon the call.
func Run[T any](ctx context.Context, out io.Writer, enabled bool, message string, fn func(context.Context) (T, error)) (T, error) {
	if !enabled {
		return fn(ctx)
	}

	type result struct {
		v   T
		err error
	}
	results := make(chan result, 1)

	p := tea.NewProgram(NewModel(message),
		tea.WithOutput(out),
		tea.WithInput(nil),
		tea.WithoutSignalHandler(),
	)

	go func() {
		v, err := fn(ctx)
		results <- result{v, err}
		p.Send(doneMsg{})
	}()

	if _, err := p.Run(); err != nil {
		// The spinner is cosmetic; a terminal problem must not lose the result.
		p.Kill()
	}
	r := <-results
	return r.v, r.err
}
