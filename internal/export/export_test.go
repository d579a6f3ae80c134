// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/chatbi-tui/internal/model"
	"github.com/jeranaias/chatbi-tui/internal/session"
)

func sampleTranscript() *Transcript {
	ts := time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)
	return &Transcript{
		SessionID:  "sess_abc123",
		StartedAt:  ts,
		ExportedAt: ts.Add(time.Minute),
		Messages: []model.Message{
			{ID: "m1", Role: model.RoleUser, Content: "sales by month", Timestamp: ts},
			{
				ID: "m2", Role: model.RoleAssistant, Content: "Here are monthly sales.", Timestamp: ts,
				Result: &model.QueryResult{
					QueryID:     "q-1",
					Answer:      "Here are monthly sales.",
					SQL:         "SELECT month, sales FROM t",
					RecordCount: 2,
					Rows: []model.Row{
						model.NewRow("month", "Jan", "sales", 10),
						model.NewRow("month", "Feb", "sales", 20),
					},
					Chart: model.ChartDescriptor{Kind: model.ChartBar},
				},
			},
		},
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatMarkdown, false},
		{"markdown", FormatMarkdown, false},
		{".md", FormatMarkdown, false},
		{"JSON", FormatJSON, false},
		{"yml", FormatYAML, false},
		{"html", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEmptyTranscriptRejected(t *testing.T) {
	for _, f := range Formats {
		exp, err := New(f, nil)
		require.NoError(t, err)

		_, err = exp.Export(&Transcript{SessionID: "s"})
		assert.ErrorIs(t, err, ErrEmptyTranscript, string(f))
		_, err = exp.Export(nil)
		assert.ErrorIs(t, err, ErrEmptyTranscript, string(f))
	}
}

func TestMarkdownExport(t *testing.T) {
	out, err := NewMarkdownExporter(nil).Export(sampleTranscript())
	require.NoError(t, err)
	md := string(out)

	assert.True(t, strings.HasPrefix(md, "---\nsession: sess_abc123\n"))
	assert.Contains(t, md, "### You <sub>09:30:00</sub>")
	assert.Contains(t, md, "### ChatBI")
	assert.Contains(t, md, "```sql\nSELECT month, sales FROM t\n```")
	assert.Contains(t, md, "Chart: bar")
	assert.Contains(t, md, "| month | sales |")
	assert.Contains(t, md, "| Jan | 10 |")
	assert.Contains(t, md, "| Feb | 20 |")
}

func TestMarkdownRowLimit(t *testing.T) {
	tr := sampleTranscript()
	out, err := NewMarkdownExporter(&Options{MaxRows: 1}).Export(tr)
	require.NoError(t, err)
	md := string(out)

	assert.Contains(t, md, "| Jan | 10 |")
	assert.NotContains(t, md, "| Feb | 20 |")
	assert.Contains(t, md, "1 more row(s) not shown")
	assert.NotContains(t, md, "<sub>09:30:00</sub>")
}

func TestMarkdownEscaping(t *testing.T) {
	tr := sampleTranscript()
	tr.SessionID = "a: b\nc"
	tr.Messages[1].Result.Rows = []model.Row{model.NewRow("note", "x|y")}

	out, err := NewMarkdownExporter(nil).Export(tr)
	require.NoError(t, err)
	md := string(out)

	assert.Contains(t, md, `session: "a: b\nc"`)
	assert.Contains(t, md, `| x\|y |`)
}

func TestJSONExportKeepsColumnOrder(t *testing.T) {
	tr := sampleTranscript()
	tr.Messages[1].Result.Rows = []model.Row{model.NewRow("zeta", 1, "alpha", 2)}

	out, err := NewJSONExporter().Export(tr)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"zeta": 1`)
	assert.Less(t, strings.Index(string(out), `"zeta"`), strings.Index(string(out), `"alpha"`))

	var back Transcript
	require.NoError(t, json.Unmarshal(out, &back))
	assert.Equal(t, "sess_abc123", back.SessionID)
	require.Len(t, back.Messages, 2)
	assert.Equal(t, []string{"zeta", "alpha"}, back.Messages[1].Result.Columns())
}

func TestYAMLExportKeepsColumnOrder(t *testing.T) {
	tr := sampleTranscript()
	tr.Messages[1].Result.Rows = []model.Row{model.NewRow("zeta", 1, "alpha", "x")}

	out, err := NewYAMLExporter().Export(tr)
	require.NoError(t, err)
	y := string(out)

	assert.Contains(t, y, "session_id: sess_abc123")
	assert.Contains(t, y, "query_id: q-1")
	assert.Contains(t, y, "zeta: 1")
	assert.Contains(t, y, "alpha: x")
	assert.Less(t, strings.Index(y, "zeta:"), strings.Index(y, "alpha:"))
}

func TestToFile(t *testing.T) {
	dir := t.TempDir()

	path, err := ToFile(sampleTranscript(), FormatJSON, "", &Options{OutputDir: dir})
	require.NoError(t, err)
	assert.Equal(t, dir, filepath.Dir(path))
	assert.Equal(t, "chatbi_sess_abc123_20250301_093100.json", filepath.Base(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, json.Valid(data))

	explicit := filepath.Join(dir, "nested", "out.yaml")
	path, err = ToFile(sampleTranscript(), FormatYAML, explicit, nil)
	require.NoError(t, err)
	assert.Equal(t, explicit, path)
	assert.FileExists(t, explicit)
}

func TestFromStore(t *testing.T) {
	s := session.NewStore()
	_, err := s.AppendMessage(model.RoleUser, "hi", nil)
	require.NoError(t, err)

	tr := FromStore(s)
	assert.Equal(t, s.ID(), tr.SessionID)
	assert.Len(t, tr.Messages, 1)
	assert.False(t, tr.ExportedAt.IsZero())
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "a-b_c", sanitizeFilename("a/b c"))
	assert.Equal(t, "session", sanitizeFilename(""))
	assert.Len(t, []rune(sanitizeFilename(strings.Repeat("x", 80))), 50)
}
