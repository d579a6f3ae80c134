// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chart

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/chatbi-tui/internal/model"
	"github.com/jeranaias/chatbi-tui/internal/util"
)

const (
	minRenderWidth = 20
	maxLabelWidth  = 18
	barRune        = "█"
)

var sparkRunes = []rune("▁▂▃▄▅▆▇█")

// pieColors cycles through slices.
var pieColors = []string{"#3b82f6", "#10b981", "#f59e0b", "#ef4444", "#8b5cf6", "#06b6d4", "#ec4899", "#84cc16"}

// Render draws cfg as text no wider than width columns. The empty Config
// renders as the empty string.
func Render(cfg Config, width int) string {
	if cfg.IsEmpty() {
		return ""
	}
	if width < minRenderWidth {
		width = minRenderWidth
	}

	series := cfg.Series[0]
	switch cfg.Kind {
	case model.ChartBar:
		return renderBars(series, width)
	case model.ChartLine:
		return renderLine(series, width)
	case model.ChartPie:
		return renderPie(series, width)
	default:
		return ""
	}
}

// =============================================================================
// BAR
// =============================================================================

func renderBars(s Series, width int) string {
	labelW := labelWidth(s.Names())
	values, maxVal := floats(s.Values())
	valueStrs := make([]string, len(values))
	valueW := 0
	for i, p := range s.Data {
		valueStrs[i] = util.FormatValue(p.Value)
		valueW = max(valueW, util.Width(valueStrs[i]))
	}

	barW := width - labelW - valueW - 3
	if barW < 1 {
		barW = 1
	}

	style := lipgloss.NewStyle().Foreground(lipgloss.Color(s.Color))
	var b strings.Builder
	b.WriteString(s.Name)
	b.WriteByte('\n')
	for i, p := range s.Data {
		n := scaled(values[i], maxVal, barW)
		b.WriteString(util.PadRight(p.Name, labelW))
		b.WriteString(" ")
		b.WriteString(style.Render(strings.Repeat(barRune, n)))
		b.WriteString(strings.Repeat(" ", barW-n+1))
		b.WriteString(util.PadLeft(valueStrs[i], valueW))
		if i < len(s.Data)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// =============================================================================
// LINE
// =============================================================================

func renderLine(s Series, width int) string {
	values, _ := floats(s.Values())
	if len(values) == 0 {
		return s.Name
	}

	lo, hi := values[0], values[0]
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}

	points := values
	if len(points) > width {
		points = points[len(points)-width:]
	}

	spark := make([]rune, len(points))
	for i, v := range points {
		idx := 0
		if hi > lo {
			idx = int(math.Round((v - lo) / (hi - lo) * float64(len(sparkRunes)-1)))
		}
		spark[i] = sparkRunes[idx]
	}

	names := s.Names()
	first, last := names[len(names)-len(points)], names[len(names)-1]
	gap := len(points) - util.Width(first) - util.Width(last)
	axis := first
	if gap > 0 {
		axis += strings.Repeat(" ", gap) + last
	} else if first != last {
		axis += " .. " + last
	}

	style := lipgloss.NewStyle().Foreground(lipgloss.Color(s.Color))
	return fmt.Sprintf("%s\n%s\n%s\nmin %s  max %s",
		s.Name,
		style.Render(string(spark)),
		util.Truncate(axis, width),
		util.FormatFloat(lo), util.FormatFloat(hi))
}

// =============================================================================
// PIE
// =============================================================================

func renderPie(s Series, width int) string {
	values, _ := floats(s.Values())
	total := 0.0
	for _, v := range values {
		total += math.Max(v, 0)
	}

	labelW := labelWidth(s.Names())
	barW := width - labelW - 9
	if barW < 1 {
		barW = 1
	}

	var b strings.Builder
	b.WriteString(s.Name)
	b.WriteByte('\n')
	for i, p := range s.Data {
		share := 0.0
		if total > 0 {
			share = math.Max(values[i], 0) / total
		}
		n := int(math.Round(share * float64(barW)))
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(pieColors[i%len(pieColors)]))

		b.WriteString(util.PadRight(p.Name, labelW))
		b.WriteString(" ")
		b.WriteString(style.Render(strings.Repeat(barRune, n)))
		b.WriteString(strings.Repeat(" ", barW-n+1))
		b.WriteString(fmt.Sprintf("%5.1f%%", share*100))
		if i < len(s.Data)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// =============================================================================
// HELPERS
// =============================================================================

func labelWidth(names []string) int {
	w := 1
	for _, n := range names {
		w = max(w, util.Width(n))
	}
	return min(w, maxLabelWidth)
}

// floats converts values for drawing; non-numeric values draw as zero.
func floats(values []any) ([]float64, float64) {
	out := make([]float64, len(values))
	maxVal := 0.0
	for i, v := range values {
		f, _ := util.ToFloat(v)
		out[i] = f
		maxVal = math.Max(maxVal, f)
	}
	return out, maxVal
}

func scaled(v, maxVal float64, width int) int {
	if maxVal <= 0 || v <= 0 {
		return 0
	}
	n := int(math.Round(v / maxVal * float64(width)))
	return min(n, width)
}
