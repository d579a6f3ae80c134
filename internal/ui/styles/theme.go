// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme modes accepted by NewTheme.
const (
	ModeAuto  = "auto"
	ModeDark  = "dark"
	ModeLight = "light"
)

// Theme holds every style the UI renders with.
type Theme struct {
	IsDark       bool
	ColorProfile termenv.Profile

	// ==========================================================================
	// LAYOUT
	// ==========================================================================

	App         lipgloss.Style
	Header      lipgloss.Style
	HeaderTitle lipgloss.Style
	HeaderInfo  lipgloss.Style

	// ==========================================================================
	// MESSAGES
	// ==========================================================================

	UserLabel        lipgloss.Style
	AssistantLabel   lipgloss.Style
	Timestamp        lipgloss.Style
	UserMessage      lipgloss.Style
	AssistantMessage lipgloss.Style
	FailedMessage    lipgloss.Style
	ResultMeta       lipgloss.Style
	SQLBox           lipgloss.Style
	Chart            lipgloss.Style

	// ==========================================================================
	// TABLE
	// ==========================================================================

	TableHeader lipgloss.Style
	TableCell   lipgloss.Style
	TableRule   lipgloss.Style

	// ==========================================================================
	// INPUT AND STATUS
	// ==========================================================================

	InputBox      lipgloss.Style
	InputDisabled lipgloss.Style
	Spinner       lipgloss.Style
	StatusBar     lipgloss.Style
	StatusKey     lipgloss.Style
	StatusDesc    lipgloss.Style
	StatusBusy    lipgloss.Style

	// ==========================================================================
	// TEMPLATE PANEL
	// ==========================================================================

	ListItem         lipgloss.Style
	ListItemSelected lipgloss.Style
	FormLabel        lipgloss.Style
	FormLabelFocused lipgloss.Style
	FormBox          lipgloss.Style

	// ==========================================================================
	// NOTICES
	// ==========================================================================

	Success lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style
	Muted   lipgloss.Style
}

// NewTheme builds a theme for mode. Unknown modes behave like "auto".
func NewTheme(mode string) *Theme {
	t := &Theme{ColorProfile: termenv.ColorProfile()}

	switch strings.ToLower(strings.TrimSpace(mode)) {
	case ModeDark:
		t.IsDark = true
		lipgloss.SetHasDarkBackground(true)
	case ModeLight:
		t.IsDark = false
		lipgloss.SetHasDarkBackground(false)
	default:
		t.IsDark = termenv.HasDarkBackground()
	}

	t.initStyles()
	return t
}

// GlamourStyle returns the glamour standard style matching the background.
func (t *Theme) GlamourStyle() string {
	if t.IsDark {
		return "dark"
	}
	return "light"
}

func (t *Theme) initStyles() {
	t.App = lipgloss.NewStyle().Padding(0, 1)

	t.Header = lipgloss.NewStyle().
		Background(SurfaceDim).
		Padding(0, 1)
	t.HeaderTitle = lipgloss.NewStyle().Bold(true).Foreground(Cyan)
	t.HeaderInfo = lipgloss.NewStyle().Foreground(TextSecondary)

	// Messages
	t.UserLabel = lipgloss.NewStyle().Bold(true).Foreground(Cyan)
	t.AssistantLabel = lipgloss.NewStyle().Bold(true).Foreground(Purple)
	t.Timestamp = lipgloss.NewStyle().Foreground(TextMuted)

	t.UserMessage = lipgloss.NewStyle().
		Foreground(TextPrimary).
		BorderStyle(lipgloss.NormalBorder()).
		BorderLeft(true).
		BorderForeground(UserBorder).
		PaddingLeft(1)

	t.AssistantMessage = lipgloss.NewStyle().
		Foreground(TextPrimary).
		BorderStyle(lipgloss.NormalBorder()).
		BorderLeft(true).
		BorderForeground(AssistantBorder).
		PaddingLeft(1)

	t.FailedMessage = t.AssistantMessage.
		Foreground(Rose).
		BorderForeground(FailureBorder)

	t.ResultMeta = lipgloss.NewStyle().Foreground(TextMuted).Italic(true)

	t.SQLBox = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(OverlayDim).
		Padding(0, 1)

	t.Chart = lipgloss.NewStyle().Foreground(TextPrimary)

	// Table
	t.TableHeader = lipgloss.NewStyle().Bold(true).Foreground(Cyan)
	t.TableCell = lipgloss.NewStyle().Foreground(TextPrimary)
	t.TableRule = lipgloss.NewStyle().Foreground(OverlayDim)

	// Input and status
	t.InputBox = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Purple).
		Padding(0, 1)
	t.InputDisabled = t.InputBox.BorderForeground(OverlayDim)

	t.Spinner = lipgloss.NewStyle().Foreground(Amber)

	t.StatusBar = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Background(SurfaceDim).
		Padding(0, 1)
	t.StatusKey = lipgloss.NewStyle().Bold(true).Foreground(Cyan).Background(SurfaceDim)
	t.StatusDesc = lipgloss.NewStyle().Foreground(TextMuted).Background(SurfaceDim)
	t.StatusBusy = lipgloss.NewStyle().Bold(true).Foreground(Amber).Background(SurfaceDim)

	// Template panel
	t.ListItem = lipgloss.NewStyle().Foreground(TextPrimary).PaddingLeft(2)
	t.ListItemSelected = lipgloss.NewStyle().
		Bold(true).
		Foreground(TextInverse).
		Background(Purple).
		PaddingLeft(1).
		PaddingRight(1)
	t.FormLabel = lipgloss.NewStyle().Foreground(TextSecondary)
	t.FormLabelFocused = lipgloss.NewStyle().Bold(true).Foreground(Purple)
	t.FormBox = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Overlay).
		Padding(0, 1)

	// Notices
	t.Success = lipgloss.NewStyle().Foreground(Emerald)
	t.Error = lipgloss.NewStyle().Bold(true).Foreground(Rose)
	t.Warning = lipgloss.NewStyle().Foreground(Amber)
	t.Muted = lipgloss.NewStyle().Foreground(TextMuted)
}
