// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jeranaias/chatbi-tui/internal/chart"
	"github.com/jeranaias/chatbi-tui/internal/model"
	"github.com/jeranaias/chatbi-tui/internal/ui/components"
	"github.com/jeranaias/chatbi-tui/internal/ui/styles"
)

// =============================================================================
// JSON OUTPUT
// =============================================================================

// JSONResponse is the envelope every command prints under --json.
type JSONResponse struct {
	Success   bool    `json:"success"`
	Data      any     `json:"data"`
	Error     *string `json:"error"`
	Timestamp string  `json:"timestamp"`
	Command   string  `json:"command,omitempty"`
}

// NewJSONResponse wraps data from a successful command.
func NewJSONResponse(command string, data any) *JSONResponse {
	return &JSONResponse{
		Success:   true,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Command:   command,
	}
}

// NewJSONErrorResponse wraps a failure.
func NewJSONErrorResponse(command string, err error) *JSONResponse {
	msg := err.Error()
	return &JSONResponse{
		Error:     &msg,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Command:   command,
	}
}

// Print writes the response as indented JSON.
func (r *JSONResponse) Print(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// =============================================================================
// HUMAN OUTPUT
// =============================================================================

func errorPrefix() string {
	return "error: "
}

// resultPrinter renders answers for the terminal.
type resultPrinter struct {
	theme      *styles.Theme
	width      int
	chartWidth int
	maxRows    int
	showSQL    bool
	md         *components.Markdown
}

// printAnswer writes the answer text, chart, table and SQL.
func (p *resultPrinter) printAnswer(w io.Writer, answer string, res *model.QueryResult) {
	fmt.Fprintln(w, p.md.Render(answer, p.width))
	if res == nil {
		return
	}

	if cfg := chart.BuildFromResult(res); !cfg.IsEmpty() {
		width := p.width
		if p.chartWidth > 0 && p.chartWidth < width {
			width = p.chartWidth
		}
		fmt.Fprintln(w)
		fmt.Fprintln(w, chart.Render(cfg, width))
	}
	if res.HasRows() {
		fmt.Fprintln(w)
		fmt.Fprintln(w, components.Table{Rows: res.Rows, MaxRows: p.maxRows, MaxWidth: p.width}.Render(p.theme))
	}
	if p.showSQL && strings.TrimSpace(res.SQL) != "" {
		fmt.Fprintln(w)
		fmt.Fprintln(w, components.NewSQLBlock(res.SQL, p.width).Render(p.theme))
	}

	meta := []string{fmt.Sprintf("%d record(s)", res.RecordCount)}
	if res.Chart.Kind != "" {
		meta = append(meta, "chart "+string(res.Chart.Kind))
	}
	if res.QueryID != "" {
		meta = append(meta, "query "+res.QueryID)
	}
	fmt.Fprintln(w, p.theme.ResultMeta.Render(strings.Join(meta, " | ")))
}

func (e *env) printer() *resultPrinter {
	theme := e.theme()
	return &resultPrinter{
		theme:      theme,
		width:      TerminalWidth() - 2,
		chartWidth: e.cfg.UI.ChartWidth,
		maxRows:    e.cfg.UI.MaxTableRows,
		showSQL:    e.cfg.UI.ShowSQL,
		md:         components.NewMarkdown(theme.GlamourStyle()),
	}
}
