package main

import "github.com/charmbracelet/lipgloss"

const (
	barWidth   = 40
	maxBars    = 32
	minShownP  = 1e-9
	labelWidth = 10
)

var (
	programStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#bb9af7")).
			Padding(0, 1)

	histogramStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#7aa2f7")).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ff9e64"))

	cursorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ff9e64")).
			Bold(true)

	barStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#73daca"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#7dcfff"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#565f89"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#f7768e")).
			Bold(true)
)
