/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * Licensed under the Apache License, Version 2.0.
 */

package tui

import "github.com/charmbracelet/lipgloss"

var (
	colorPrimary = lipgloss.Color("12")  // bright blue
	colorDim     = lipgloss.Color("240") // gray
	colorBar     = lipgloss.Color("238")

	styleTitle = lipgloss.NewStyle().
			Foreground(colorDim).
			Bold(true)

	styleBarOn  = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	styleBarOff = lipgloss.NewStyle().Foreground(colorBar)

	styleName = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary)

	styleFrame = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorPrimary).
			Padding(1, 2).
			Align(lipgloss.Center)

	styleEmpty = lipgloss.NewStyle().
			Foreground(colorDim).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBar).
			Padding(2, 4)

	styleStatus = lipgloss.NewStyle().
			Foreground(colorDim)

	styleHelpKey = lipgloss.NewStyle().
			Foreground(colorPrimary)

	styleHelp = lipgloss.NewStyle().
			Foreground(colorDim).
			Italic(true)
)
