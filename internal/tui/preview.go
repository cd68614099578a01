/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * Licensed under the Apache License, Version 2.0.
 */

// Package tui shows a script as the timed, one-section-at-a-time preview in the terminal.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"scriptdesk/internal/script"
)

// EmptyText is shown instead of a preview when the script has no sections.
const EmptyText = "Generate a script to see a preview"

// tickMsg advances the preview. gen ties a tick to the schedule that produced it so a manual
// step restarts the countdown instead of racing an older tick.
type tickMsg struct{ gen int }

// Model is the Bubble Tea model of the preview.
type Model struct {
	title    string
	cycle    *script.Cycle
	interval time.Duration
	paused   bool
	gen      int
	width    int
	height   int
	help     help.Model
}

// NewModel previews doc, advancing every interval (<= 0 means script.DefaultCycleInterval).
func NewModel(title string, doc script.Document, interval time.Duration) Model {
	if interval <= 0 {
		interval = script.DefaultCycleInterval
	}
	h := help.New()
	h.Styles.ShortKey = styleHelpKey
	h.Styles.ShortDesc = styleHelp
	return Model{title: title, cycle: script.NewCycle(doc), interval: interval, width: 60, help: h}
}

// Run shows the preview until the user quits or ctx ends.
func Run(ctx context.Context, title string, doc script.Document, interval time.Duration) error {
	p := tea.NewProgram(NewModel(title, doc, interval), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}

func (m Model) tick() tea.Cmd {
	gen := m.gen
	return tea.Tick(m.interval, func(time.Time) tea.Msg { return tickMsg{gen: gen} })
}

// Init starts the cycle timer.
func (m Model) Init() tea.Cmd {
	if m.cycle.Len() < 2 {
		return nil
	}
	return m.tick()
}

// Update handles keys, window sizes and ticks.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tickMsg:
		if msg.gen != m.gen || m.paused || m.cycle.Len() < 2 {
			return m, nil
		}
		m.cycle.Next()
		return m, m.tick()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, keys.Next):
			m.cycle.Next()
			return m.restart()
		case key.Matches(msg, keys.Prev):
			m.cycle.Prev()
			return m.restart()
		case key.Matches(msg, keys.Pause):
			m.paused = !m.paused
			return m.restart()
		}
	}
	return m, nil
}

func (m Model) restart() (tea.Model, tea.Cmd) {
	m.gen++
	if m.paused || m.cycle.Len() < 2 {
		return m, nil
	}
	return m, m.tick()
}

// Index is the shown section.
func (m Model) Index() int { return m.cycle.Index() }

// Paused reports whether auto-advance is off.
func (m Model) Paused() bool { return m.paused }

// View renders the progress bars, the framed section and the status line.
func (m Model) View() string {
	seg, ok := m.cycle.Current()
	if !ok {
		return lipgloss.JoinVertical(lipgloss.Left, styleTitle.Render(m.title), styleEmpty.Render(EmptyText))
	}
	inner := max(m.frameWidth()-6, 10)
	frame := styleFrame.Width(inner).Render(
		lipgloss.JoinVertical(lipgloss.Center, styleName.Render(seg.Name), "", seg.Body),
	)

	status := m.cycle.Caption()
	if seg.Timing != "" {
		status += "  ·  " + seg.Timing
	}
	if m.paused {
		status += "  ·  paused"
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		styleTitle.Render(m.title),
		m.progress(),
		frame,
		styleStatus.Render(status),
		m.help.View(keys),
	)
}

func (m Model) frameWidth() int {
	return min(max(m.width, 20), 72)
}

// progress draws one bar per section, the shown one bright.
func (m Model) progress() string {
	n := m.cycle.Len()
	width := m.frameWidth()
	seg := max((width-(n-1))/n, 1)
	parts := make([]string, n)
	for i := range parts {
		bar := strings.Repeat("━", seg)
		if i == m.cycle.Index() {
			parts[i] = styleBarOn.Render(bar)
		} else {
			parts[i] = styleBarOff.Render(bar)
		}
	}
	return strings.Join(parts, " ")
}
