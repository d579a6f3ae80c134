// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jeranaias/chatbi-tui/internal/model"
	"github.com/jeranaias/chatbi-tui/internal/ui/styles"
)

func testTheme() *styles.Theme {
	return styles.NewTheme("dark")
}

// =============================================================================
// SQL BLOCK TESTS
// =============================================================================

func TestSQLBlock_Empty(t *testing.T) {
	assert.Empty(t, NewSQLBlock("   ", 80).Render(testTheme()))
}

func TestSQLBlock_KeepsTokens(t *testing.T) {
	out := NewSQLBlock("SELECT region, SUM(amount) FROM sales GROUP BY region", 80).Render(testTheme())
	for _, tok := range []string{"SELECT", "region", "sales", "GROUP"} {
		assert.Contains(t, out, tok)
	}
}

func TestSQLBlock_LineNumbers(t *testing.T) {
	b := NewSQLBlock("SELECT 1\nFROM dual", 80)
	b.LineNumbers = true
	out := b.Render(testTheme())
	assert.Contains(t, out, "1")
	assert.Contains(t, out, "2")
}

func TestHighlightCode_UnknownStyleFallsBack(t *testing.T) {
	out := highlightCode("SELECT 1", "sql", "no-such-style")
	assert.Contains(t, out, "SELECT")
}

// =============================================================================
// TABLE TESTS
// =============================================================================

func salesRows() []model.Row {
	return []model.Row{
		model.NewRow("region", "North", "amount", 1200.5),
		model.NewRow("region", "South", "amount", 980),
		model.NewRow("region", "East", "amount", 45),
	}
}

func TestTable_Empty(t *testing.T) {
	assert.Contains(t, Table{}.Render(testTheme()), "no rows")
}

func TestTable_ColumnsInWireOrder(t *testing.T) {
	out := Table{Rows: salesRows()}.Render(testTheme())
	lines := strings.Split(out, "\n")
	assert.Len(t, lines, 5)
	assert.Less(t, strings.Index(lines[0], "region"), strings.Index(lines[0], "amount"))
	assert.Contains(t, out, "1200.5")
	assert.Contains(t, out, "North")
}

func TestTable_MaxRows(t *testing.T) {
	out := Table{Rows: salesRows(), MaxRows: 2}.Render(testTheme())
	assert.Contains(t, out, "North")
	assert.NotContains(t, out, "East")
	assert.Contains(t, out, "1 more row(s)")
}

func TestTable_NumericRightAligned(t *testing.T) {
	out := Table{Rows: salesRows()}.Render(testTheme())
	assert.Contains(t, out, "    45")
}

func TestFitWidths(t *testing.T) {
	tests := []struct {
		name     string
		widths   []int
		maxWidth int
		want     []int
	}{
		{"unbounded", []int{10, 20}, 0, []int{10, 20}},
		{"fits", []int{10, 20}, 40, []int{10, 20}},
		{"shrinks widest", []int{10, 20}, 24, []int{10, 12}},
		{"stops at minimum", []int{4, 4}, 3, []int{4, 4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := append([]int(nil), tt.widths...)
			fitWidths(w, tt.maxWidth)
			assert.Equal(t, tt.want, w)
		})
	}
}

// =============================================================================
// MARKDOWN TESTS
// =============================================================================

func TestMarkdown_RendersText(t *testing.T) {
	md := NewMarkdown("dark")
	out := md.Render("Total sales: **42** record(s) found.", 60)
	assert.Contains(t, out, "42")
	assert.Contains(t, out, "record")
}

func TestMarkdown_BlankPassesThrough(t *testing.T) {
	assert.Equal(t, "  ", NewMarkdown("light").Render("  ", 60))
}

func TestMarkdown_ReusesRendererForSameWidth(t *testing.T) {
	md := NewMarkdown("dark")
	md.Render("one", 50)
	first := md.renderer
	md.Render("two", 50)
	assert.Same(t, first, md.renderer)
	md.Render("three", 70)
	assert.NotSame(t, first, md.renderer)
}

// =============================================================================
// STATUS BAR TESTS
// =============================================================================

func TestStatusBar(t *testing.T) {
	theme := testTheme()

	idle := StatusBar{Width: 100, Messages: 3, Backend: "chat", Hints: []KeyHint{{"enter", "send"}}}.Render(theme)
	assert.Contains(t, idle, "ready")
	assert.Contains(t, idle, "3 msg")
	assert.Contains(t, idle, "enter")

	busy := StatusBar{Width: 100, Busy: true, Elapsed: 1500 * time.Millisecond}.Render(theme)
	assert.Contains(t, busy, "querying 1.5s")
}

func TestStatusBar_DropsHintsWhenNarrow(t *testing.T) {
	bar := StatusBar{
		Width:    30,
		Messages: 1,
		Hints:    []KeyHint{{"enter", "send"}, {"ctrl+t", "templates"}, {"f1", "help"}},
	}
	out := bar.Render(testTheme())
	assert.NotContains(t, out, "help")
}
