// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/chatbi-tui/internal/api"
	"github.com/jeranaias/chatbi-tui/internal/config"
	"github.com/jeranaias/chatbi-tui/internal/devserver"
	"github.com/jeranaias/chatbi-tui/internal/dispatch"
	"github.com/jeranaias/chatbi-tui/internal/model"
	tpl "github.com/jeranaias/chatbi-tui/internal/templates"
)

// =============================================================================
// HELPERS
// =============================================================================

// isolate points the config directory at a temp dir and disables color.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("CHATBI_HOME", t.TempDir())
	t.Setenv("NO_COLOR", "1")
}

// newBackend starts a seeded development backend and returns its API URL.
func newBackend(t *testing.T) string {
	t.Helper()
	ctx := context.Background()
	store, err := devserver.OpenStore(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	require.NoError(t, store.Seed(ctx))

	ts := httptest.NewServer(devserver.New(store, devserver.Options{}).Handler())
	t.Cleanup(ts.Close)
	return ts.URL + "/api"
}

// execute runs the root command with args and captures its output.
func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	root := NewRootCommand()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), errOut.String(), err
}

// decode parses a --json envelope, decoding data into v.
func decode(t *testing.T, out string, v any) JSONResponse {
	t.Helper()
	var resp struct {
		JSONResponse
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	if v != nil {
		require.NoError(t, json.Unmarshal(resp.Data, v))
	}
	return resp.JSONResponse
}

// =============================================================================
// ASK
// =============================================================================

func TestAskPrintsAnswerAndTable(t *testing.T) {
	isolate(t)
	url := newBackend(t)

	out, _, err := execute(t, "", "--api-url", url, "ask", "monthly", "sales", "trend")
	require.NoError(t, err)
	assert.Contains(t, out, "6 record(s)")
	assert.Contains(t, out, "chart line")
	assert.Contains(t, out, "total_sales")
}

func TestAskJSON(t *testing.T) {
	isolate(t)
	url := newBackend(t)

	out, _, err := execute(t, "", "--api-url", url, "--json", "ask", "sales by region")
	require.NoError(t, err)

	var data askData
	resp := decode(t, out, &data)
	assert.True(t, resp.Success)
	assert.Equal(t, "ask", resp.Command)
	assert.Equal(t, "sales by region", data.Question)
	require.NotNil(t, data.Result)
	assert.NotEmpty(t, data.Result.QueryID)
	assert.Equal(t, model.ChartPie, data.Result.Chart.Kind)
	assert.Equal(t, devserver.SeedTemplates[1].SQL, data.Result.SQL)
}

func TestAskFailurePrintsFailureMessage(t *testing.T) {
	isolate(t)
	url := newBackend(t)

	out, _, err := execute(t, "", "--api-url", url, "ask", "weather forecast tomorrow")
	require.Error(t, err)
	assert.Contains(t, out, dispatch.FailureMessage)
	assert.True(t, api.IsBusiness(err))
}

func TestAskUnreachableBackend(t *testing.T) {
	isolate(t)
	ts := httptest.NewServer(nil)
	url := ts.URL
	ts.Close()

	_, _, err := execute(t, "", "--api-url", url+"/api", "ask", "anything")
	require.Error(t, err)
	assert.ErrorIs(t, err, api.ErrUnreachable)
}

// =============================================================================
// TEMPLATES
// =============================================================================

func TestTemplatesLifecycle(t *testing.T) {
	isolate(t)
	url := newBackend(t)

	out, _, err := execute(t, "", "--api-url", url, "--json", "templates", "add",
		"--name", "orders per region",
		"--description", "order count by region",
		"--sql", "SELECT region, COUNT(*) AS orders FROM sales GROUP BY region")
	require.NoError(t, err)
	var created model.Template
	decode(t, out, &created)
	assert.Equal(t, len(devserver.SeedTemplates)+1, created.ID)
	assert.Equal(t, "orders per region", created.Name)

	out, _, err = execute(t, "", "--api-url", url, "templates", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "orders per region")
	assert.Contains(t, out, devserver.SeedTemplates[0].Name)

	id := strconv.Itoa(created.ID)
	_, _, err = execute(t, "", "--api-url", url, "templates", "edit", id, "--name", "orders by region")
	require.NoError(t, err)

	out, _, err = execute(t, "", "--api-url", url, "--json", "templates", "show", id)
	require.NoError(t, err)
	var shown model.Template
	decode(t, out, &shown)
	assert.Equal(t, "orders by region", shown.Name)
	assert.Equal(t, created.Description, shown.Description, "unset flags keep their values")
	assert.Equal(t, created.SQL, shown.SQL)

	_, _, err = execute(t, "", "--api-url", url, "--json", "templates", "rm", id)
	assert.ErrorIs(t, err, ErrConfirmationRequired)

	out, _, err = execute(t, "", "--api-url", url, "templates", "rm", id, "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, "deleted template "+id)

	_, _, err = execute(t, "", "--api-url", url, "templates", "show", id)
	assert.ErrorIs(t, err, tpl.ErrUnknownTemplate)
}

func TestTemplatesAddReadsSQLFromStdin(t *testing.T) {
	isolate(t)
	url := newBackend(t)

	sql := "SELECT product, SUM(amount) AS total FROM sales GROUP BY product"
	out, _, err := execute(t, sql, "--api-url", url, "--json", "templates", "add",
		"--name", "totals", "--description", "product totals", "--sql-file", "-")
	require.NoError(t, err)
	var created model.Template
	decode(t, out, &created)
	assert.Equal(t, sql, created.SQL)
}

func TestTemplatesAddIncomplete(t *testing.T) {
	isolate(t)
	url := newBackend(t)

	_, _, err := execute(t, "", "--api-url", url, "templates", "add", "--name", "only a name")
	require.Error(t, err)
	assert.ErrorIs(t, err, tpl.ErrIncompleteTemplate)
	assert.Contains(t, err.Error(), "description")
}

func TestTemplatesBadID(t *testing.T) {
	isolate(t)
	url := newBackend(t)

	for _, arg := range []string{"abc", "0", "-3"} {
		_, _, err := execute(t, "", "--api-url", url, "templates", "show", "--", arg)
		require.Error(t, err, arg)
		assert.Contains(t, err.Error(), "invalid template id")
	}
}

// =============================================================================
// FEEDBACK AND HISTORY
// =============================================================================

func TestFeedbackShowsInHistory(t *testing.T) {
	isolate(t)
	url := newBackend(t)

	out, _, err := execute(t, "", "--api-url", url, "--json", "ask", "product revenue")
	require.NoError(t, err)
	var data askData
	decode(t, out, &data)
	queryID := data.Result.QueryID

	out, _, err = execute(t, "", "--api-url", url, "feedback", queryID, "unsatisfied")
	require.NoError(t, err)
	assert.Contains(t, out, "recorded unsatisfied")

	out, _, err = execute(t, "", "--api-url", url, "--json", "history", "--keyword", "product")
	require.NoError(t, err)
	var entries []model.HistoryEntry
	decode(t, out, &entries)
	require.Len(t, entries, 1)
	assert.Equal(t, queryID, entries[0].QueryID)
	assert.Equal(t, model.Unsatisfied, entries[0].Satisfaction)

	out, _, err = execute(t, "", "--api-url", url, "history")
	require.NoError(t, err)
	assert.Contains(t, out, "product revenue")
}

func TestFeedbackRejectsUnknownLevel(t *testing.T) {
	isolate(t)

	_, _, err := execute(t, "", "--api-url", "http://127.0.0.1:1/api", "feedback", "q1", "ecstatic")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown satisfaction level")
}

func TestHistoryValidatesDates(t *testing.T) {
	isolate(t)

	_, _, err := execute(t, "", "--api-url", "http://127.0.0.1:1/api", "history", "--since", "last week")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--since")
}

// =============================================================================
// CONFIG AND VERSION
// =============================================================================

func TestConfigSetThenGet(t *testing.T) {
	isolate(t)

	out, _, err := execute(t, "", "config", "set", "ui.max_table_rows", "12")
	require.NoError(t, err)
	assert.Contains(t, out, "ui.max_table_rows = 12")

	out, _, err = execute(t, "", "config", "get", "ui.max_table_rows")
	require.NoError(t, err)
	assert.Equal(t, "12\n", out)

	path, err := config.ResolvedPath()
	require.NoError(t, err)
	out, _, err = execute(t, "", "config", "path")
	require.NoError(t, err)
	assert.Equal(t, path+"\n", out)
}

func TestConfigRejectsUnknownKey(t *testing.T) {
	isolate(t)

	_, _, err := execute(t, "", "config", "get", "ui.nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown field")
}

func TestAPIURLFlagOverridesConfig(t *testing.T) {
	isolate(t)

	out, _, err := execute(t, "", "--api-url", "http://example.test/api", "config", "get", "api.base_url")
	require.NoError(t, err)
	assert.Equal(t, "http://example.test/api\n", out)
}

func TestVersionJSON(t *testing.T) {
	isolate(t)

	out, _, err := execute(t, "", "--json", "version")
	require.NoError(t, err)
	var data map[string]string
	resp := decode(t, out, &data)
	assert.True(t, resp.Success)
	assert.Equal(t, Version, data["version"])
}

// =============================================================================
// CONFIRMATION
// =============================================================================

func TestRequireConfirmation(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		opts    confirmOptions
		want    bool
		wantErr error
	}{
		{"yes flag", "", confirmOptions{Yes: true}, true, nil},
		{"json mode", "", confirmOptions{JSONMode: true, Interactive: true}, false, ErrConfirmationRequired},
		{"not a terminal", "y\n", confirmOptions{}, false, ErrConfirmationRequired},
		{"answered yes", "yes\n", confirmOptions{Interactive: true}, true, nil},
		{"answered y without newline", "Y", confirmOptions{Interactive: true}, true, nil},
		{"answered no", "n\n", confirmOptions{Interactive: true}, false, nil},
		{"empty answer", "\n", confirmOptions{Interactive: true}, false, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			got, err := requireConfirmation(strings.NewReader(tt.input), &out, "Delete it", tt.opts)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// =============================================================================
// REPL
// =============================================================================

// scriptedInput feeds prompts from a fixed list, then returns io.EOF.
type scriptedInput struct {
	lines   []string
	prompts []string
}

func (s *scriptedInput) Prompt(prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	if len(s.lines) == 0 {
		return "", io.EOF
	}
	line := s.lines[0]
	s.lines = s.lines[1:]
	return line, nil
}

func newTestREPL(t *testing.T, lines ...string) (*repl, *scriptedInput, *bytes.Buffer) {
	t.Helper()
	isolate(t)
	url := newBackend(t)

	cfg := config.Default()
	cfg.UI.ConfirmClear = true
	cfg.UI.ShowSQL = false
	e := &env{cfg: cfg}

	in := &scriptedInput{lines: lines}
	var out bytes.Buffer
	client := api.NewClientWithConfig(&api.ClientConfig{BaseURL: url, Timeout: 5 * time.Second})
	return newREPL(context.Background(), e, in, &out, client), in, &out
}

func TestREPLAsksAndRates(t *testing.T) {
	r, _, out := newTestREPL(t, "monthly sales trend", "+", "/history monthly")
	require.NoError(t, r.run())

	text := out.String()
	assert.Contains(t, text, "6 record(s)")
	assert.Contains(t, text, "recorded satisfied")
	assert.Contains(t, text, "monthly sales trend")
	assert.Equal(t, 2, r.store.Len())
}

func TestREPLFailureAndUnknownCommand(t *testing.T) {
	r, _, out := newTestREPL(t, "weather forecast tomorrow", "/bogus", "-")
	require.NoError(t, r.run())

	text := out.String()
	assert.Contains(t, text, dispatch.FailureMessage)
	assert.Contains(t, text, "unknown command /bogus")
	assert.Contains(t, text, "no answer to rate yet")
}

func TestREPLClearAsksFirst(t *testing.T) {
	r, in, out := newTestREPL(t, "product revenue", "/clear", "n", "/clear", "y", "/quit", "never read")
	require.NoError(t, r.run())

	assert.Contains(t, out.String(), "kept")
	assert.Contains(t, out.String(), "conversation cleared")
	assert.Zero(t, r.store.Len())
	assert.Equal(t, []string{"never read"}, in.lines, "/quit stops reading")
}

func TestREPLToggleSQLAndHelp(t *testing.T) {
	r, _, out := newTestREPL(t, "/sql", "/help")
	require.NoError(t, r.run())

	assert.True(t, r.printer.showSQL)
	assert.Contains(t, out.String(), "SQL shown")
	assert.Contains(t, out.String(), "/export [md|json|yaml] [path]")
	assert.NotContains(t, out.String(), "/exit")
}

func TestREPLExport(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/chat.json"
	r, _, out := newTestREPL(t, "sales by region", "/export json "+path)
	require.NoError(t, r.run())
	assert.Contains(t, out.String(), "exported to "+path)
}

func TestAPIURLFlagIsValidated(t *testing.T) {
	isolate(t)

	_, _, err := execute(t, "", "--api-url", "localhost:8000", "config", "show")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api.base_url")
}
