// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package templates

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/chatbi-tui/internal/ui/components"
	"github.com/jeranaias/chatbi-tui/internal/util"
)

// View renders the panel.
func (m *Model) View() string {
	var body string
	switch m.mode {
	case modeForm:
		body = m.viewForm()
	case modeConfirmDelete:
		body = m.viewList() + "\n\n" + m.theme.Warning.Render(
			fmt.Sprintf("Delete template #%d %q? y / n", m.pendingDelete.ID, m.pendingDelete.Name))
	default:
		body = m.viewList()
	}

	parts := []string{m.viewHeader(), body}
	if m.notice != "" {
		style := m.theme.Success
		if m.noticeErr {
			style = m.theme.Error
		}
		parts = append(parts, style.Render(m.notice))
	}
	parts = append(parts, m.viewHelp())
	return m.theme.App.Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

func (m *Model) viewHeader() string {
	info := fmt.Sprintf("  %d template(s)", len(m.panel.Templates()))
	if m.loading {
		info += " | loading…"
	}
	switch m.mode {
	case modeForm:
		if id, ok := m.panel.Editing(); ok {
			info += fmt.Sprintf(" | editing #%d", id)
		} else {
			info += " | new template"
		}
	}
	width := m.width - 2
	if width < 20 {
		width = 20
	}
	return m.theme.Header.Width(width).Render(m.theme.HeaderTitle.Render("SQL Templates") + m.theme.HeaderInfo.Render(info))
}

func (m *Model) viewList() string {
	list := m.panel.Templates()
	if len(list) == 0 {
		if !m.panel.Loaded() {
			return m.theme.Muted.Render("templates not loaded yet (r to retry)")
		}
		return m.theme.Muted.Render("no templates, press n to create one")
	}

	width := m.width - 6
	if width < 20 {
		width = 20
	}

	lines := make([]string, 0, len(list))
	for i, t := range list {
		line := util.Truncate(fmt.Sprintf("#%-3d %s · %s", t.ID, t.Name, util.SingleLine(t.Description)), width)
		if i == m.cursor {
			lines = append(lines, m.theme.ListItemSelected.Render(line))
		} else {
			lines = append(lines, m.theme.ListItem.Render(line))
		}
	}
	out := strings.Join(lines, "\n")

	if m.cursor < len(list) {
		out += "\n\n" + components.NewSQLBlock(list[m.cursor].SQL, m.width-2).Render(m.theme)
	}
	return out
}

func (m *Model) viewForm() string {
	label := func(text string, field int) string {
		if m.focus == field {
			return m.theme.FormLabelFocused.Render(text)
		}
		return m.theme.FormLabel.Render(text)
	}
	rows := []string{
		label("Name", fieldName),
		m.name.View(),
		"",
		label("Description", fieldDescription),
		m.desc.View(),
		"",
		label("SQL", fieldSQL),
		m.sql.View(),
	}
	return m.theme.FormBox.Render(strings.Join(rows, "\n"))
}

func (m *Model) viewHelp() string {
	bindings := m.keys.listHelp()
	if m.mode == modeForm {
		bindings = m.keys.formHelp()
	}
	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		parts = append(parts, helpEntry(m, b))
	}
	return strings.Join(parts, m.theme.Muted.Render("  "))
}

func helpEntry(m *Model, b key.Binding) string {
	h := b.Help()
	return m.theme.StatusKey.Render(h.Key) + m.theme.Muted.Render(" "+h.Desc)
}
