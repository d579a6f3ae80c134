// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strconv"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	chromaStyles "github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/jeranaias/chatbi-tui/internal/ui/styles"
)

// =============================================================================
// SQL BLOCK
// =============================================================================

// SQLBlock is a highlighted, boxed SQL statement.
type SQLBlock struct {
	SQL         string
	MaxWidth    int
	LineNumbers bool
}

// NewSQLBlock creates a block for sql.
func NewSQLBlock(sql string, maxWidth int) SQLBlock {
	return SQLBlock{SQL: sql, MaxWidth: maxWidth}
}

// Render draws the block with theme. Empty SQL renders nothing.
func (b SQLBlock) Render(theme *styles.Theme) string {
	code := strings.TrimSpace(b.SQL)
	if code == "" {
		return ""
	}

	body := HighlightSQL(code, theme)
	if b.LineNumbers {
		lines := strings.Split(body, "\n")
		num := lipgloss.NewStyle().Foreground(styles.TextMuted).Width(3).Align(lipgloss.Right).MarginRight(1)
		for i, line := range lines {
			lines[i] = num.Render(strconv.Itoa(i+1)) + line
		}
		body = strings.Join(lines, "\n")
	}

	width := b.MaxWidth - 2
	if width < 20 {
		width = 20
	}
	return theme.SQLBox.MaxWidth(width).Render(body)
}

// =============================================================================
// SYNTAX HIGHLIGHTING
// =============================================================================

// HighlightSQL colors code with chroma's SQL lexer. Terminals without color
// support get the code unchanged.
func HighlightSQL(code string, theme *styles.Theme) string {
	if theme != nil && theme.ColorProfile == termenv.Ascii {
		return code
	}
	styleName := "monokai"
	if theme != nil && !theme.IsDark {
		styleName = "github"
	}
	return highlightCode(code, "sql", styleName)
}

// highlightCode falls back to the plain code whenever chroma cannot lex or
// format it.
func highlightCode(code, language, styleName string) string {
	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Analyse(code)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	style := chromaStyles.Get(styleName)
	if style == nil {
		style = chromaStyles.Fallback
	}

	formatter := formatters.Get("terminal256")
	if formatter == nil {
		formatter = formatters.Fallback
	}

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return code
	}

	var buf strings.Builder
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return code
	}
	return strings.TrimRight(buf.String(), "\n")
}
