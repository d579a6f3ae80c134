// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"strings"

	"github.com/jeranaias/chatbi-tui/internal/model"
	"github.com/jeranaias/chatbi-tui/internal/ui/styles"
	"github.com/jeranaias/chatbi-tui/internal/util"
)

// maxColumnWidth caps a single column so one long value cannot push the
// rest of the table off screen.
const maxColumnWidth = 28

// Table renders result rows as an aligned text table.
type Table struct {
	Rows     []model.Row
	MaxRows  int // <= 0 shows every row
	MaxWidth int // <= 0 means unbounded
}

// Render draws the table. Columns come from the first row in wire order;
// numeric cells are right-aligned.
func (t Table) Render(theme *styles.Theme) string {
	if len(t.Rows) == 0 {
		return theme.Muted.Render("(no rows)")
	}

	cols := t.Rows[0].Keys()
	shown := t.Rows
	if t.MaxRows > 0 && len(shown) > t.MaxRows {
		shown = shown[:t.MaxRows]
	}

	cells := make([][]string, len(shown))
	numeric := make([]bool, len(cols))
	for i := range numeric {
		numeric[i] = true
	}
	widths := make([]int, len(cols))
	for i, c := range cols {
		widths[i] = util.Width(c)
	}
	for r, row := range shown {
		cells[r] = make([]string, len(cols))
		for i, c := range cols {
			v, _ := row.Get(c)
			if _, ok := util.ToFloat(v); !ok && v != nil {
				numeric[i] = false
			}
			s := util.SingleLine(util.FormatValue(v))
			cells[r][i] = s
			if w := util.Width(s); w > widths[i] {
				widths[i] = w
			}
		}
	}
	for i := range widths {
		if widths[i] > maxColumnWidth {
			widths[i] = maxColumnWidth
		}
	}
	fitWidths(widths, t.MaxWidth)

	var sb strings.Builder
	header := make([]string, len(cols))
	rule := make([]string, len(cols))
	for i, c := range cols {
		header[i] = theme.TableHeader.Render(util.PadRight(c, widths[i]))
		rule[i] = strings.Repeat("─", widths[i])
	}
	sb.WriteString(strings.Join(header, "  "))
	sb.WriteString("\n")
	sb.WriteString(theme.TableRule.Render(strings.Join(rule, "──")))

	for _, row := range cells {
		sb.WriteString("\n")
		out := make([]string, len(row))
		for i, s := range row {
			if numeric[i] {
				out[i] = util.PadLeft(s, widths[i])
			} else {
				out[i] = util.PadRight(s, widths[i])
			}
		}
		sb.WriteString(theme.TableCell.Render(strings.Join(out, "  ")))
	}

	if hidden := len(t.Rows) - len(shown); hidden > 0 {
		sb.WriteString("\n")
		sb.WriteString(theme.Muted.Render(fmt.Sprintf("… %d more row(s)", hidden)))
	}
	return sb.String()
}

// fitWidths shrinks the widest columns until the row fits maxWidth. Every
// column keeps at least four cells.
func fitWidths(widths []int, maxWidth int) {
	if maxWidth <= 0 || len(widths) == 0 {
		return
	}
	total := func() int {
		sum := 2 * (len(widths) - 1)
		for _, w := range widths {
			sum += w
		}
		return sum
	}
	for total() > maxWidth {
		widest := 0
		for i, w := range widths {
			if w > widths[widest] {
				widest = i
			}
		}
		if widths[widest] <= 4 {
			return
		}
		widths[widest]--
	}
}
