// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/chatbi-tui/internal/api"
	"github.com/jeranaias/chatbi-tui/internal/config"
	"github.com/jeranaias/chatbi-tui/internal/dispatch"
	"github.com/jeranaias/chatbi-tui/internal/model"
	"github.com/jeranaias/chatbi-tui/internal/session"
	"github.com/jeranaias/chatbi-tui/internal/ui/styles"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

type rating struct {
	queryID string
	level   model.Satisfaction
}

type fakeBackend struct {
	mu      sync.Mutex
	ratings []rating
	history []model.HistoryEntry
	filter  api.HistoryFilter
}

func (f *fakeBackend) SubmitSatisfaction(ctx context.Context, queryID string, level model.Satisfaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ratings = append(f.ratings, rating{queryID, level})
	return nil
}

func (f *fakeBackend) History(ctx context.Context, filter api.HistoryFilter) ([]model.HistoryEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.filter = filter
	return f.history, nil
}

func regionResult() *model.QueryResult {
	return &model.QueryResult{
		QueryID:     "q-1",
		Answer:      "Sales by region: 2 record(s) found.",
		SQL:         "SELECT region, SUM(amount) AS total FROM sales GROUP BY region",
		RecordCount: 2,
		Rows: []model.Row{
			model.NewRow("region", "North", "total", 120),
			model.NewRow("region", "South", "total", 80),
		},
		Chart: model.ChartDescriptor{Kind: model.ChartBar, Fields: model.FieldMapping{XField: "region", YField: "total"}},
	}
}

func newTestModel(t *testing.T, asker dispatch.Asker) (*Model, *fakeBackend) {
	t.Helper()
	store := session.NewStore()
	backend := &fakeBackend{}
	m := New(context.Background(), Options{
		Dispatcher: dispatch.New(store, asker),
		Backend:    backend,
		Config:     config.Default(),
		Theme:      styles.NewTheme("dark"),
	})
	m.copyFn = func(string) error { return nil }
	m.SetSize(100, 40)
	t.Cleanup(m.Close)
	return m, backend
}

func answering(res *model.QueryResult) dispatch.Asker {
	return dispatch.AskerFunc(func(ctx context.Context, q string) (*model.QueryResult, error) {
		return res, nil
	})
}

// runCmd executes cmd and flattens batches into their messages.
func runCmd(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, runCmd(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

func findMsg[T tea.Msg](msgs []tea.Msg) (T, bool) {
	for _, msg := range msgs {
		if v, ok := msg.(T); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}

func press(m *Model, k tea.KeyMsg) tea.Cmd {
	_, cmd := m.Update(k)
	return cmd
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

var enter = tea.KeyMsg{Type: tea.KeyEnter}

// =============================================================================
// QUERY TESTS
// =============================================================================

func TestSubmitQuestion(t *testing.T) {
	m, _ := newTestModel(t, answering(regionResult()))

	m.input.SetValue("sales by region")
	cmd := press(m, enter)
	require.NotNil(t, cmd)
	assert.True(t, m.Busy())
	assert.Empty(t, m.input.Value())

	done, ok := findMsg[queryDoneMsg](runCmd(cmd))
	require.True(t, ok)
	require.NoError(t, done.Err)
	m.Update(done)

	assert.False(t, m.Busy())
	msgs := m.store.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "sales by region", msgs[0].Content)
	assert.Equal(t, "q-1", msgs[1].Result.QueryID)

	out := m.renderConversation(msgs)
	assert.Contains(t, out, "North")
	assert.Contains(t, out, "2 record(s)")
	assert.Contains(t, out, "id q-1")
}

func TestSubmitEmptyDoesNothing(t *testing.T) {
	m, _ := newTestModel(t, answering(regionResult()))
	m.input.SetValue("   ")
	assert.Nil(t, press(m, enter))
	assert.Equal(t, 0, m.store.Len())
}

func TestInputDisabledWhileBusy(t *testing.T) {
	m, _ := newTestModel(t, answering(regionResult()))

	m.input.SetValue("sales by region")
	cmd := press(m, enter)
	require.True(t, m.Busy())

	press(m, runes("x"))
	assert.Empty(t, m.input.Value())
	assert.Nil(t, m.submit("another question"))
	assert.Contains(t, m.notice, "already in progress")

	done, _ := findMsg[queryDoneMsg](runCmd(cmd))
	m.Update(done)
	press(m, runes("x"))
	assert.Equal(t, "x", m.input.Value())
}

func TestFailureShowsFixedMessage(t *testing.T) {
	m, _ := newTestModel(t, dispatch.AskerFunc(func(ctx context.Context, q string) (*model.QueryResult, error) {
		return nil, errors.New("boom")
	}))

	m.input.SetValue("sales")
	done, _ := findMsg[queryDoneMsg](runCmd(press(m, enter)))
	m.Update(done)

	msgs := m.store.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, dispatch.FailureMessage, msgs[1].Content)
	assert.True(t, m.noticeErr)
	assert.Contains(t, m.renderConversation(msgs), dispatch.FailureMessage)
}

func TestEscCancelsInFlightQuery(t *testing.T) {
	started := make(chan struct{})
	m, _ := newTestModel(t, dispatch.AskerFunc(func(ctx context.Context, q string) (*model.QueryResult, error) {
		close(started)
		<-ctx.Done()
		return nil, ctx.Err()
	}))

	m.input.SetValue("slow question")
	cmd := press(m, enter)

	result := make(chan []tea.Msg, 1)
	go func() { result <- runCmd(cmd) }()
	<-started

	press(m, tea.KeyMsg{Type: tea.KeyEsc})
	done, ok := findMsg[queryDoneMsg](<-result)
	require.True(t, ok)
	m.Update(done)

	msgs := m.store.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, dispatch.FailureMessage, msgs[1].Content)
	assert.False(t, m.Busy())
}

func TestClearDuringQueryDropsAnswer(t *testing.T) {
	started := make(chan struct{})
	m, _ := newTestModel(t, dispatch.AskerFunc(func(ctx context.Context, q string) (*model.QueryResult, error) {
		close(started)
		<-ctx.Done()
		return nil, ctx.Err()
	}))
	m.ui.ConfirmClear = false

	m.input.SetValue("slow question")
	cmd := press(m, enter)
	result := make(chan []tea.Msg, 1)
	go func() { result <- runCmd(cmd) }()
	<-started

	m.runCommand("/clear")
	done, _ := findMsg[queryDoneMsg](<-result)
	m.Update(done)

	assert.Equal(t, 0, m.store.Len())
	assert.Equal(t, "conversation cleared", m.notice)
}

// =============================================================================
// COMMAND TESTS
// =============================================================================

func seedAnswer(t *testing.T, m *Model) {
	t.Helper()
	_, err := m.store.AppendMessage(model.RoleUser, "sales by region", nil)
	require.NoError(t, err)
	_, err = m.store.AppendMessage(model.RoleAssistant, "Sales by region", regionResult())
	require.NoError(t, err)
}

func TestClearAsksForConfirmation(t *testing.T) {
	m, _ := newTestModel(t, answering(regionResult()))
	seedAnswer(t, m)

	m.runCommand("/clear")
	assert.True(t, m.confirmingClear)
	press(m, runes("n"))
	assert.False(t, m.confirmingClear)
	assert.Equal(t, 2, m.store.Len())

	m.runCommand("/clear")
	press(m, runes("y"))
	assert.Equal(t, 0, m.store.Len())
}

func TestClearWithoutConfirmation(t *testing.T) {
	m, _ := newTestModel(t, answering(regionResult()))
	m.ui.ConfirmClear = false
	seedAnswer(t, m)

	m.runCommand("/clear")
	assert.False(t, m.confirmingClear)
	assert.Equal(t, 0, m.store.Len())
}

func TestUnknownCommand(t *testing.T) {
	m, _ := newTestModel(t, answering(regionResult()))
	assert.Nil(t, m.runCommand("/frobnicate"))
	assert.True(t, m.noticeErr)
	assert.Contains(t, m.notice, "/frobnicate")
}

func TestSQLToggle(t *testing.T) {
	m, _ := newTestModel(t, answering(regionResult()))
	seedAnswer(t, m)
	require.True(t, m.ui.ShowSQL)
	assert.Contains(t, m.renderConversation(m.store.Messages()), "GROUP")

	m.runCommand("/sql")
	assert.False(t, m.ui.ShowSQL)
	assert.NotContains(t, m.renderConversation(m.store.Messages()), "GROUP")
}

func TestTemplatesShortcut(t *testing.T) {
	m, _ := newTestModel(t, answering(regionResult()))

	for _, cmd := range []tea.Cmd{press(m, tea.KeyMsg{Type: tea.KeyCtrlT}), m.runCommand("/templates")} {
		require.NotNil(t, cmd)
		_, ok := cmd().(OpenTemplatesMsg)
		assert.True(t, ok)
	}
}

func TestExportCommand(t *testing.T) {
	m, _ := newTestModel(t, answering(regionResult()))
	seedAnswer(t, m)

	path := filepath.Join(t.TempDir(), "out", "session.json")
	msgs := runCmd(m.runCommand("/export json " + path))
	done, ok := findMsg[exportDoneMsg](msgs)
	require.True(t, ok)
	require.NoError(t, done.Err)
	m.Update(done)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"q-1"`)
	assert.Contains(t, m.notice, path)
}

func TestExportBadFormat(t *testing.T) {
	m, _ := newTestModel(t, answering(regionResult()))
	assert.Nil(t, m.runCommand("/export pdf"))
	assert.True(t, m.noticeErr)
}

func TestHistoryOverlay(t *testing.T) {
	m, backend := newTestModel(t, answering(regionResult()))
	backend.history = []model.HistoryEntry{{
		QueryID: "q-9", Question: "sales by region", SQL: "SELECT 1", Satisfaction: model.Satisfied, CreatedAt: "2025-01-02 10:00:00",
	}}

	done, ok := findMsg[historyMsg](runCmd(m.runCommand("/history sales")))
	require.True(t, ok)
	assert.Equal(t, "sales", backend.filter.Keyword)

	m.Update(done)
	assert.Contains(t, m.overlay, "sales by region")
	assert.Contains(t, m.overlay, "satisfied")

	press(m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Empty(t, m.overlay)
}

func TestHelpOverlayListsCommands(t *testing.T) {
	m, _ := newTestModel(t, answering(regionResult()))
	press(m, tea.KeyMsg{Type: tea.KeyF1})
	for _, c := range Commands() {
		assert.Contains(t, m.overlay, "/"+c.Name)
	}
	press(m, tea.KeyMsg{Type: tea.KeyF1})
	assert.Empty(t, m.overlay)
}

// =============================================================================
// FEEDBACK AND CLIPBOARD TESTS
// =============================================================================

func TestRatingKeys(t *testing.T) {
	m, backend := newTestModel(t, answering(regionResult()))
	seedAnswer(t, m)

	runCmd(press(m, runes("+")))
	runCmd(press(m, runes("-")))

	assert.Equal(t, []rating{{"q-1", model.Satisfied}, {"q-1", model.Unsatisfied}}, backend.ratings)
}

func TestRatingKeysTypeWhenInputNotEmpty(t *testing.T) {
	m, backend := newTestModel(t, answering(regionResult()))
	seedAnswer(t, m)

	m.input.SetValue("a")
	press(m, runes("+"))
	assert.Equal(t, "a+", m.input.Value())
	assert.Empty(t, backend.ratings)
}

func TestRatingWithoutAnswer(t *testing.T) {
	m, _ := newTestModel(t, answering(regionResult()))
	assert.Nil(t, press(m, runes("+")))
	assert.Equal(t, "no answer to rate", m.notice)
}

func TestCopySQL(t *testing.T) {
	m, _ := newTestModel(t, answering(regionResult()))
	var copied string
	m.copyFn = func(s string) error { copied = s; return nil }

	press(m, tea.KeyMsg{Type: tea.KeyCtrlY})
	assert.Equal(t, "no SQL to copy", m.notice)

	seedAnswer(t, m)
	press(m, tea.KeyMsg{Type: tea.KeyCtrlY})
	assert.Equal(t, regionResult().SQL, copied)
	assert.Equal(t, "SQL copied", m.notice)

	m.copyFn = func(string) error { return errors.New("no display") }
	press(m, tea.KeyMsg{Type: tea.KeyCtrlY})
	assert.True(t, m.noticeErr)
}

// =============================================================================
// STORE AND CONFIG TESTS
// =============================================================================

func TestStoreEventsReachTheView(t *testing.T) {
	m, _ := newTestModel(t, answering(regionResult()))

	_, err := m.store.AppendMessage(model.RoleUser, "hello from elsewhere", nil)
	require.NoError(t, err)

	msg := m.waitForEvent()()
	ev, ok := msg.(storeEventMsg)
	require.True(t, ok)
	assert.Equal(t, session.EventAppended, ev.Event.Kind)

	_, cmd := m.Update(ev)
	assert.NotNil(t, cmd)
	assert.Contains(t, m.View(), "hello from elsewhere")
}

func TestConfigReloaded(t *testing.T) {
	m, _ := newTestModel(t, answering(regionResult()))
	cfg := config.Default()
	cfg.UI.ShowSQL = false
	cfg.UI.MaxTableRows = 1

	m.Update(ConfigReloadedMsg{Config: cfg})
	assert.False(t, m.ui.ShowSQL)
	assert.Equal(t, 1, m.ui.MaxTableRows)
	assert.Equal(t, "config reloaded", m.notice)
}

func TestConfigReloadKeepsActiveContract(t *testing.T) {
	m, _ := newTestModel(t, answering(regionResult()))
	cfg := config.Default()
	cfg.API.Contract = "legacy"

	m.Update(ConfigReloadedMsg{Config: cfg})
	assert.Equal(t, "chat", m.apiCfg.Contract, "queries still use the client built at startup")
	assert.Contains(t, m.notice, "API changes apply after restart")
	assert.Contains(t, m.View(), "chat")
	assert.NotContains(t, m.View(), "legacy")
}

func TestQuitClosesSubscription(t *testing.T) {
	m, _ := newTestModel(t, answering(regionResult()))
	cmd := press(m, tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	_, ok := cmd().(tea.QuitMsg)
	assert.True(t, ok)
	assert.Nil(t, m.unsubscribe)
}
