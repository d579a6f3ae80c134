// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
)

func TestNewTheme_Modes(t *testing.T) {
	tests := []struct {
		mode   string
		isDark bool
		glam   string
	}{
		{"dark", true, "dark"},
		{"DARK", true, "dark"},
		{"light", false, "light"},
		{" light ", false, "light"},
	}
	for _, tt := range tests {
		t.Run(tt.mode, func(t *testing.T) {
			theme := NewTheme(tt.mode)
			assert.Equal(t, tt.isDark, theme.IsDark)
			assert.Equal(t, tt.glam, theme.GlamourStyle())
			assert.Equal(t, tt.isDark, lipgloss.HasDarkBackground())
		})
	}
}

func TestNewTheme_AutoDoesNotPanic(t *testing.T) {
	theme := NewTheme("auto")
	assert.NotNil(t, theme)
	assert.NotNil(t, NewTheme("neon"))
}

func TestThemeStylesRender(t *testing.T) {
	theme := NewTheme("dark")

	styles := []struct {
		name  string
		style lipgloss.Style
	}{
		{"Header", theme.Header},
		{"UserMessage", theme.UserMessage},
		{"AssistantMessage", theme.AssistantMessage},
		{"FailedMessage", theme.FailedMessage},
		{"SQLBox", theme.SQLBox},
		{"InputBox", theme.InputBox},
		{"StatusBar", theme.StatusBar},
		{"FormBox", theme.FormBox},
	}
	for _, s := range styles {
		out := s.style.Render("test")
		assert.True(t, strings.Contains(out, "test"), "%s style lost its content", s.name)
	}
}

func TestBorderedStylesAddWidth(t *testing.T) {
	theme := NewTheme("light")
	plain := lipgloss.Width("abc")
	assert.Greater(t, lipgloss.Width(theme.SQLBox.Render("abc")), plain)
	assert.Greater(t, lipgloss.Width(theme.UserMessage.Render("abc")), plain)
}
