// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"

	"github.com/jeranaias/chatbi-tui/internal/api"
	"github.com/jeranaias/chatbi-tui/internal/config"
	"github.com/jeranaias/chatbi-tui/internal/dispatch"
	"github.com/jeranaias/chatbi-tui/internal/model"
	"github.com/jeranaias/chatbi-tui/internal/session"
	"github.com/jeranaias/chatbi-tui/internal/ui/components"
	"github.com/jeranaias/chatbi-tui/internal/ui/styles"
)

// feedbackTimeout bounds satisfaction and history calls.
const feedbackTimeout = 10 * time.Second

// eventBuffer is the store notification queue length. Events are only
// re-render triggers, so dropping some under load is harmless.
const eventBuffer = 64

// Backend is the part of the API client the chat view uses directly.
// Queries go through the dispatcher instead.
type Backend interface {
	SubmitSatisfaction(ctx context.Context, queryID string, level model.Satisfaction) error
	History(ctx context.Context, filter api.HistoryFilter) ([]model.HistoryEntry, error)
}

// Options wires the chat view.
type Options struct {
	Dispatcher *dispatch.Dispatcher
	Backend    Backend
	Config     *config.Config
	Theme      *styles.Theme
	// BackendLabel is shown in the header, usually the API base URL.
	BackendLabel string
}

// =============================================================================
// MODEL
// =============================================================================

// Model is the chat view.
type Model struct {
	ctx   context.Context
	store *session.Store
	disp  *dispatch.Dispatcher
	api   Backend

	ui config.UIConfig
	// apiCfg is what the dispatcher's client was built from. It is fixed
	// for the life of the view.
	apiCfg config.APIConfig
	label    string
	theme    *styles.Theme
	keys     KeyMap
	md       *components.Markdown

	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model
	width    int
	height   int

	events      chan session.Event
	unsubscribe func()

	// Set while a Submit call is running.
	pending     bool
	started     time.Time
	cancelQuery context.CancelFunc

	// The answer of the in-flight query will be dropped by the store.
	dropped bool

	confirmingClear bool
	overlay         string
	notice          string
	noticeErr       bool

	copyFn func(string) error
}

// New creates the chat view. ctx bounds every request the view starts.
func New(ctx context.Context, opts Options) *Model {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	theme := opts.Theme
	if theme == nil {
		theme = styles.NewTheme(cfg.UI.Theme)
	}

	ti := textinput.New()
	ti.Placeholder = "Ask about your data, e.g. monthly sales trend"
	ti.Prompt = "❯ "
	ti.CharLimit = 1000
	ti.Focus()

	sp := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(theme.Spinner),
	)

	m := &Model{
		ctx:      ctx,
		store:    opts.Dispatcher.Store(),
		disp:     opts.Dispatcher,
		api:      opts.Backend,
		ui:       cfg.UI,
		apiCfg:   cfg.API,
		label:    opts.BackendLabel,
		theme:    theme,
		keys:     DefaultKeyMap(),
		md:       components.NewMarkdown(theme.GlamourStyle()),
		input:    ti,
		viewport: viewport.New(80, 20),
		spinner:  sp,
		width:    80,
		height:   24,
		events:   make(chan session.Event, eventBuffer),
		copyFn:   clipboard.WriteAll,
	}

	events := m.events
	m.unsubscribe = m.store.Subscribe(func(ev session.Event) {
		select {
		case events <- ev:
		default:
		}
	})

	m.refresh(true)
	return m
}

// Init starts the cursor blink and the store listener.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.waitForEvent())
}

// waitForEvent blocks on the next store notification.
func (m *Model) waitForEvent() tea.Cmd {
	events := m.events
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return nil
		}
		return storeEventMsg{Event: ev}
	}
}

// Close cancels any in-flight query and detaches from the store.
func (m *Model) Close() {
	if m.cancelQuery != nil {
		m.cancelQuery()
		m.cancelQuery = nil
	}
	if m.unsubscribe != nil {
		m.unsubscribe()
		m.unsubscribe = nil
	}
}

// Busy reports whether a query is in flight.
func (m *Model) Busy() bool {
	return m.pending || m.store.Busy()
}

// =============================================================================
// UPDATE
// =============================================================================

// Update handles a message.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		return m, m.handleKey(msg)

	case storeEventMsg:
		m.refresh(msg.Event.Kind != session.EventBusyChanged)
		return m, m.waitForEvent()

	case queryDoneMsg:
		return m, m.finishQuery(msg)

	case feedbackDoneMsg:
		if msg.Err != nil {
			log.Warn().Err(msg.Err).Str("query_id", msg.QueryID).Msg("satisfaction submit failed")
		}
		return m, nil

	case historyMsg:
		if msg.Err != nil {
			m.setNotice("history: "+msg.Err.Error(), true)
			return m, nil
		}
		m.overlay = m.renderHistory(msg.Keyword, msg.Entries)
		m.refresh(false)
		m.viewport.GotoTop()
		return m, nil

	case exportDoneMsg:
		if msg.Err != nil {
			m.setNotice("export: "+msg.Err.Error(), true)
		} else {
			m.setNotice("exported to "+msg.Path, false)
		}
		return m, nil

	case NoticeMsg:
		m.setNotice(msg.Text, msg.IsError)
		return m, nil

	case ConfigReloadedMsg:
		m.applyConfig(msg.Config)
		return m, nil

	case spinner.TickMsg:
		if !m.pending {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if key.Matches(msg, m.keys.Quit) {
		m.Close()
		return tea.Quit
	}

	if m.confirmingClear {
		m.confirmingClear = false
		if s := msg.String(); s == "y" || s == "Y" {
			m.clear()
			m.setNotice("conversation cleared", false)
		} else {
			m.setNotice("clear cancelled", false)
		}
		return nil
	}

	switch {
	case key.Matches(msg, m.keys.Cancel):
		if m.overlay != "" {
			m.overlay = ""
			m.refresh(true)
			return nil
		}
		if m.cancelQuery != nil {
			m.cancelQuery()
			m.setNotice("query cancelled", false)
		}
		return nil

	case key.Matches(msg, m.keys.Help):
		if m.overlay != "" {
			m.overlay = ""
			m.refresh(true)
		} else {
			m.overlay = m.renderHelp()
			m.refresh(false)
			m.viewport.GotoTop()
		}
		return nil

	case key.Matches(msg, m.keys.Templates):
		return openTemplates

	case key.Matches(msg, m.keys.CopySQL):
		m.copySQL()
		return nil

	case key.Matches(msg, m.keys.PageUp):
		m.viewport.HalfViewUp()
		return nil
	case key.Matches(msg, m.keys.PageDown):
		m.viewport.HalfViewDown()
		return nil
	case key.Matches(msg, m.keys.Top):
		m.viewport.GotoTop()
		return nil
	case key.Matches(msg, m.keys.Bottom):
		m.viewport.GotoBottom()
		return nil
	}

	// Input is disabled while a query is in flight.
	if m.Busy() {
		return nil
	}

	if m.input.Value() == "" {
		switch {
		case key.Matches(msg, m.keys.RateUp):
			return m.rate(model.Satisfied)
		case key.Matches(msg, m.keys.RateDown):
			return m.rate(model.Unsatisfied)
		}
	}

	if key.Matches(msg, m.keys.Submit) {
		text := m.input.Value()
		m.input.Reset()
		return m.submit(text)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return cmd
}

func openTemplates() tea.Msg { return OpenTemplatesMsg{} }

// submit runs a slash command or dispatches a question.
func (m *Model) submit(text string) tea.Cmd {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if strings.HasPrefix(text, "/") {
		return m.runCommand(text)
	}
	if m.Busy() {
		m.setNotice(dispatch.ErrBusy.Error(), true)
		return nil
	}

	m.overlay = ""
	m.notice = ""
	ctx, cancel := context.WithCancel(m.ctx)
	m.cancelQuery = cancel
	m.pending = true
	m.started = time.Now()
	m.input.Blur()

	disp := m.disp
	query := func() tea.Msg {
		out, err := disp.Submit(ctx, text)
		return queryDoneMsg{Outcome: out, Err: err}
	}
	return tea.Batch(query, m.spinner.Tick)
}

func (m *Model) finishQuery(msg queryDoneMsg) tea.Cmd {
	if m.cancelQuery != nil {
		m.cancelQuery()
		m.cancelQuery = nil
	}
	m.pending = false
	dropped := m.dropped
	m.dropped = false

	switch {
	case errors.Is(msg.Err, dispatch.ErrBusy), errors.Is(msg.Err, dispatch.ErrEmptyQuestion):
		m.setNotice(msg.Err.Error(), true)
	case msg.Outcome.Failed() && !dropped:
		m.setNotice("query failed", true)
	}

	m.refresh(true)
	return m.input.Focus()
}

// clear empties the store. A query still in flight is cancelled and its
// answer dropped by the store.
func (m *Model) clear() {
	if m.cancelQuery != nil {
		m.cancelQuery()
		m.dropped = true
	}
	m.overlay = ""
	m.store.Clear()
	m.refresh(true)
}

// rate sends satisfaction for the latest answer. Failures are only logged.
func (m *Model) rate(level model.Satisfaction) tea.Cmd {
	last, ok := m.store.LastResult()
	if !ok || last.Result == nil || last.Result.QueryID == "" {
		m.setNotice("no answer to rate", true)
		return nil
	}
	if m.api == nil {
		return nil
	}

	queryID := last.Result.QueryID
	m.setNotice(fmt.Sprintf("rated %s: %s", queryID, level), false)

	backend, parent := m.api, m.ctx
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(parent, feedbackTimeout)
		defer cancel()
		err := backend.SubmitSatisfaction(ctx, queryID, level)
		return feedbackDoneMsg{QueryID: queryID, Level: level, Err: err}
	}
}

func (m *Model) copySQL() {
	last, ok := m.store.LastResult()
	if !ok || last.Result == nil || strings.TrimSpace(last.Result.SQL) == "" {
		m.setNotice("no SQL to copy", true)
		return
	}
	if err := m.copyFn(last.Result.SQL); err != nil {
		log.Warn().Err(err).Msg("clipboard write failed")
		m.setNotice("clipboard unavailable", true)
		return
	}
	m.setNotice("SQL copied", false)
}

func (m *Model) applyConfig(cfg *config.Config) {
	if cfg == nil {
		return
	}
	m.ui = cfg.UI
	m.refresh(false)
	if cfg.API != m.apiCfg {
		log.Info().Str("contract", cfg.API.Contract).Str("base_url", cfg.API.BaseURL).Msg("api settings changed; restart to apply")
		m.setNotice("config reloaded; API changes apply after restart", false)
		return
	}
	m.setNotice("config reloaded", false)
}

func (m *Model) setNotice(text string, isErr bool) {
	m.notice = text
	m.noticeErr = isErr
}

// SetSize resizes the view.
func (m *Model) SetSize(width, height int) {
	m.width, m.height = width, height

	vpHeight := height - headerHeight - inputHeight - statusHeight
	if vpHeight < 3 {
		vpHeight = 3
	}
	m.viewport.Width = m.contentWidth()
	m.viewport.Height = vpHeight
	m.input.Width = m.contentWidth() - 6
	m.refresh(false)
}

func (m *Model) contentWidth() int {
	w := m.width - m.theme.App.GetHorizontalFrameSize()
	if w < 20 {
		w = 20
	}
	return w
}

// refresh re-renders the viewport from the store, or the overlay if one is
// open.
func (m *Model) refresh(toBottom bool) {
	if m.overlay != "" {
		m.viewport.SetContent(m.overlay)
		return
	}
	atBottom := m.viewport.AtBottom()
	m.viewport.SetContent(m.renderConversation(m.store.Messages()))
	if toBottom || atBottom {
		m.viewport.GotoBottom()
	}
}
