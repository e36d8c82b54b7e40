package main

import (
	"time"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	okStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	storyStyle    = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("250"))
	questionStyle = lipgloss.NewStyle().Bold(true)

	openMark   = okStyle.Render("●")
	lockedMark = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Render("○")
)

func timeNow() time.Time { return time.Now() }

func secondsToDuration(s int) time.Duration { return time.Duration(s) * time.Second }
