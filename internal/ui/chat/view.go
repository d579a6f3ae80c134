// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/chatbi-tui/internal/chart"
	"github.com/jeranaias/chatbi-tui/internal/dispatch"
	"github.com/jeranaias/chatbi-tui/internal/model"
	"github.com/jeranaias/chatbi-tui/internal/ui/components"
	"github.com/jeranaias/chatbi-tui/internal/util"
)

// Fixed layout rows around the viewport.
const (
	headerHeight = 1
	inputHeight  = 3
	statusHeight = 1
)

// =============================================================================
// VIEW
// =============================================================================

// View renders the chat screen.
func (m *Model) View() string {
	parts := []string{
		m.renderHeader(),
		m.viewport.View(),
		m.renderInput(),
		m.renderStatus(),
	}
	return m.theme.App.Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

func (m *Model) renderHeader() string {
	title := m.theme.HeaderTitle.Render("ChatBI")
	info := fmt.Sprintf("  session %s", shortID(m.store.ID()))
	if m.label != "" {
		info += " | " + m.label
	}
	return m.theme.Header.Width(m.contentWidth()).Render(title + m.theme.HeaderInfo.Render(info))
}

func (m *Model) renderInput() string {
	width := m.contentWidth() - 2
	if m.confirmingClear {
		return m.theme.InputBox.Width(width).Render(m.theme.Warning.Render("Clear the conversation? y / n"))
	}
	if m.Busy() {
		elapsed := time.Since(m.started).Round(100 * time.Millisecond)
		line := m.spinner.View() + m.theme.Muted.Render(fmt.Sprintf(" waiting for answer (%s), esc to cancel", elapsed))
		return m.theme.InputDisabled.Width(width).Render(line)
	}
	return m.theme.InputBox.Width(width).Render(m.input.View())
}

func (m *Model) renderStatus() string {
	hints := make([]components.KeyHint, 0, 5)
	for _, b := range m.keys.ShortHelp() {
		h := b.Help()
		hints = append(hints, components.KeyHint{Key: h.Key, Desc: h.Desc})
	}
	notice := m.notice
	if m.noticeErr && notice != "" {
		notice = "! " + notice
	}
	bar := components.StatusBar{
		Width:    m.contentWidth(),
		Busy:     m.Busy(),
		Elapsed:  time.Since(m.started),
		Messages: m.store.Len(),
		Backend:  m.apiCfg.Contract,
		Notice:   notice,
		Hints:    hints,
	}
	return bar.Render(m.theme)
}

// =============================================================================
// CONVERSATION
// =============================================================================

func (m *Model) renderConversation(msgs []model.Message) string {
	if len(msgs) == 0 {
		return m.renderWelcome()
	}
	blocks := make([]string, 0, len(msgs))
	for _, msg := range msgs {
		blocks = append(blocks, m.renderMessage(msg))
	}
	return strings.Join(blocks, "\n\n")
}

func (m *Model) renderWelcome() string {
	lines := []string{
		m.theme.HeaderTitle.Render("Ask a question about your business data."),
		"",
		m.theme.Muted.Render("Examples:"),
		m.theme.Muted.Render("  monthly sales trend"),
		m.theme.Muted.Render("  sales by region"),
		m.theme.Muted.Render("  product revenue"),
		"",
		m.theme.Muted.Render("/help lists commands, ctrl+t opens the template panel."),
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderMessage(msg model.Message) string {
	width := m.contentWidth() - 2

	var label string
	if msg.Role == model.RoleUser {
		label = m.theme.UserLabel.Render(msg.Role.DisplayName())
	} else {
		label = m.theme.AssistantLabel.Render(msg.Role.DisplayName())
	}
	label += "  " + m.theme.Timestamp.Render(msg.FormatTime())

	var body string
	switch {
	case msg.Role == model.RoleUser:
		body = m.theme.UserMessage.Width(width).Render(msg.Content)
	case msg.Result == nil && msg.Content == dispatch.FailureMessage:
		body = m.theme.FailedMessage.Width(width).Render(msg.Content)
	default:
		inner := m.md.Render(msg.Content, width-2)
		if msg.Result != nil {
			inner += "\n\n" + m.renderResult(msg.Result, width-2)
		}
		body = m.theme.AssistantMessage.Width(width).Render(inner)
	}
	return label + "\n" + body
}

// renderResult draws the chart (when the descriptor maps to one), the
// rows, the SQL and a meta line.
func (m *Model) renderResult(res *model.QueryResult, width int) string {
	var parts []string

	if cfg := chart.BuildFromResult(res); !cfg.IsEmpty() {
		chartWidth := width
		if m.ui.ChartWidth > 0 && m.ui.ChartWidth < chartWidth {
			chartWidth = m.ui.ChartWidth
		}
		parts = append(parts, m.theme.Chart.Render(chart.Render(cfg, chartWidth)))
	}

	if res.HasRows() {
		table := components.Table{Rows: res.Rows, MaxRows: m.ui.MaxTableRows, MaxWidth: width}
		parts = append(parts, table.Render(m.theme))
	}

	if m.ui.ShowSQL && strings.TrimSpace(res.SQL) != "" {
		parts = append(parts, components.NewSQLBlock(res.SQL, width).Render(m.theme))
	}

	meta := []string{fmt.Sprintf("%d record(s)", res.RecordCount)}
	if res.Chart.Kind != "" {
		meta = append(meta, string(res.Chart.Kind))
	}
	if res.QueryID != "" {
		meta = append(meta, "id "+res.QueryID, "+/- to rate")
	}
	parts = append(parts, m.theme.ResultMeta.Render(strings.Join(meta, " | ")))

	return strings.Join(parts, "\n\n")
}

// =============================================================================
// OVERLAYS
// =============================================================================

func (m *Model) renderHelp() string {
	var sb strings.Builder
	sb.WriteString(m.theme.HeaderTitle.Render("Keys"))
	sb.WriteString("\n")
	for _, group := range m.keys.FullHelp() {
		for _, b := range group {
			h := b.Help()
			sb.WriteString(fmt.Sprintf("  %s %s\n", m.theme.StatusKey.Render(util.PadRight(h.Key, 8)), h.Desc))
		}
	}
	sb.WriteString("\n")
	sb.WriteString(m.theme.HeaderTitle.Render("Commands"))
	sb.WriteString("\n")
	for _, c := range Commands() {
		usage := "/" + c.Name
		if c.Args != "" {
			usage += " " + c.Args
		}
		sb.WriteString(fmt.Sprintf("  %s %s\n", m.theme.StatusKey.Render(util.PadRight(usage, 26)), c.Usage))
	}
	sb.WriteString("\n")
	sb.WriteString(m.theme.Muted.Render("esc closes this panel"))
	return sb.String()
}

func (m *Model) renderHistory(keyword string, entries []model.HistoryEntry) string {
	var sb strings.Builder
	title := "History"
	if keyword != "" {
		title += fmt.Sprintf(" matching %q", keyword)
	}
	sb.WriteString(m.theme.HeaderTitle.Render(title))
	sb.WriteString("\n\n")

	if len(entries) == 0 {
		sb.WriteString(m.theme.Muted.Render("no queries recorded"))
	}
	width := m.contentWidth()
	for _, e := range entries {
		rating := string(e.Satisfaction)
		if rating == "" {
			rating = "-"
		}
		head := fmt.Sprintf("%s  %s  %s", m.theme.Timestamp.Render(e.CreatedAt), m.theme.UserLabel.Render(util.Truncate(e.Question, width-40)), m.theme.Muted.Render(rating))
		sb.WriteString(head)
		sb.WriteString("\n")
		if e.SQL != "" {
			sb.WriteString("  ")
			sb.WriteString(m.theme.Muted.Render(util.Truncate(util.SingleLine(e.SQL), width-4)))
			sb.WriteString("\n")
		}
	}
	sb.WriteString("\n")
	sb.WriteString(m.theme.Muted.Render("esc closes this panel"))
	return sb.String()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
