// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/jeranaias/chatbi-tui/internal/model"
	"github.com/jeranaias/chatbi-tui/internal/util"
)

// =============================================================================
// MARKDOWN EXPORTER
// =============================================================================

// MarkdownExporter exports transcripts to Markdown.
type MarkdownExporter struct {
	options *Options
}

// NewMarkdownExporter creates a new Markdown exporter.
func NewMarkdownExporter(opts *Options) *MarkdownExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &MarkdownExporter{options: opts}
}

// Export renders t as Markdown with a YAML front matter header.
func (e *MarkdownExporter) Export(t *Transcript) ([]byte, error) {
	if err := t.validate(); err != nil {
		return nil, err
	}

	var sb strings.Builder

	sb.WriteString("---\n")
	fmt.Fprintf(&sb, "session: %s\n", escapeYAML(t.SessionID))
	fmt.Fprintf(&sb, "started: %s\n", t.StartedAt.Format(time.RFC3339))
	fmt.Fprintf(&sb, "exported: %s\n", t.ExportedAt.Format(time.RFC3339))
	fmt.Fprintf(&sb, "messages: %d\n", len(t.Messages))
	sb.WriteString("generator: chatbi\n")
	sb.WriteString("---\n\n")

	sb.WriteString("# ChatBI Session\n\n")

	for i, msg := range t.Messages {
		if e.options.IncludeTimestamps {
			fmt.Fprintf(&sb, "### %s <sub>%s</sub>\n\n", msg.Role.DisplayName(), msg.FormatTime())
		} else {
			fmt.Fprintf(&sb, "### %s\n\n", msg.Role.DisplayName())
		}

		sb.WriteString(strings.TrimSpace(msg.Content))
		sb.WriteString("\n\n")

		if msg.Result != nil {
			e.writeResult(&sb, msg.Result)
		}

		if i < len(t.Messages)-1 {
			sb.WriteString("---\n\n")
		}
	}

	return []byte(sb.String()), nil
}

func (e *MarkdownExporter) FileExtension() string { return ".md" }
func (e *MarkdownExporter) MimeType() string      { return "text/markdown" }

func (e *MarkdownExporter) writeResult(sb *strings.Builder, res *model.QueryResult) {
	if res.SQL != "" {
		fmt.Fprintf(sb, "```sql\n%s\n```\n\n", strings.TrimSpace(res.SQL))
	}

	var meta []string
	if res.QueryID != "" {
		meta = append(meta, "Query: `"+res.QueryID+"`")
	}
	meta = append(meta, fmt.Sprintf("Records: %d", res.RecordCount))
	if res.Chart.Kind != "" {
		meta = append(meta, "Chart: "+string(res.Chart.Kind))
	}
	fmt.Fprintf(sb, "<sub>%s</sub>\n\n", strings.Join(meta, " | "))

	if res.HasRows() {
		sb.WriteString(e.table(res))
		sb.WriteString("\n")
	}
}

// table renders result rows as a pipe table.
func (e *MarkdownExporter) table(res *model.QueryResult) string {
	cols := res.Columns()
	if len(cols) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("|")
	for _, c := range cols {
		sb.WriteString(" " + escapeCell(c) + " |")
	}
	sb.WriteString("\n|")
	for range cols {
		sb.WriteString(" --- |")
	}
	sb.WriteString("\n")

	rows := res.Rows
	if limit := e.options.MaxRows; limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	for _, row := range rows {
		sb.WriteString("|")
		for _, c := range cols {
			v, _ := row.Get(c)
			sb.WriteString(" " + escapeCell(util.FormatValue(v)) + " |")
		}
		sb.WriteString("\n")
	}
	if hidden := len(res.Rows) - len(rows); hidden > 0 {
		fmt.Fprintf(&sb, "\n*%d more row(s) not shown*\n", hidden)
	}
	return sb.String()
}

// =============================================================================
// ESCAPING HELPERS
// =============================================================================

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	return util.SingleLine(s)
}

// escapeYAML quotes values that would break the front matter.
func escapeYAML(s string) string {
	if strings.ContainsAny(s, ":#|>@`\"'[]{}!%&*\n\r\\") || strings.HasPrefix(s, " ") || strings.HasSuffix(s, " ") {
		s = strings.ReplaceAll(s, "\\", "\\\\")
		s = strings.ReplaceAll(s, "\"", "\\\"")
		s = strings.ReplaceAll(s, "\n", "\\n")
		s = strings.ReplaceAll(s, "\r", "\\r")
		return fmt.Sprintf("\"%s\"", s)
	}
	return s
}
