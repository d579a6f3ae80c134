// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/chatbi-tui/internal/ui/styles"
)

// =============================================================================
// STATUS BAR
// =============================================================================

// KeyHint is one "key description" pair shown on the right of the bar.
type KeyHint struct {
	Key  string
	Desc string
}

// StatusBar is the bottom line of the screen.
type StatusBar struct {
	Width    int
	Busy     bool
	Elapsed  time.Duration
	Messages int
	Backend  string
	Notice   string
	Hints    []KeyHint
}

// Render draws the bar, dropping hints from the right when space runs out.
func (s StatusBar) Render(theme *styles.Theme) string {
	var left string
	if s.Busy {
		left = theme.StatusBusy.Render(fmt.Sprintf("querying %.1fs", s.Elapsed.Seconds()))
	} else {
		left = theme.StatusDesc.Render("ready")
	}
	left += theme.StatusDesc.Render(fmt.Sprintf(" | %d msg", s.Messages))
	if s.Backend != "" {
		left += theme.StatusDesc.Render(" | " + s.Backend)
	}
	if s.Notice != "" {
		left += theme.StatusDesc.Render(" | ") + theme.StatusKey.Render(s.Notice)
	}

	hints := make([]string, 0, len(s.Hints))
	for _, h := range s.Hints {
		hints = append(hints, theme.StatusKey.Render(h.Key)+theme.StatusDesc.Render(" "+h.Desc))
	}

	inner := s.Width - theme.StatusBar.GetHorizontalFrameSize()
	for len(hints) > 0 {
		right := strings.Join(hints, theme.StatusDesc.Render("  "))
		gap := inner - lipgloss.Width(left) - lipgloss.Width(right)
		if gap >= 1 || s.Width <= 0 {
			return theme.StatusBar.Width(max(s.Width, 0)).Render(left + theme.StatusDesc.Render(strings.Repeat(" ", max(gap, 1))) + right)
		}
		hints = hints[:len(hints)-1]
	}
	if s.Width <= 0 {
		return theme.StatusBar.Render(left)
	}
	return theme.StatusBar.Width(s.Width).Render(left)
}
