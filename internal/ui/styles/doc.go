// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles holds the chatbi palette and the lipgloss styles built
// from it.
//
// Colors are lipgloss.AdaptiveColor values so the same palette works on dark
// and light terminals. NewTheme picks the background mode from the ui.theme
// setting ("auto" asks the terminal through termenv).
package styles
