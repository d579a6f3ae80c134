// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package app is the root bubbletea model of the chatbi TUI. It owns the
// chat view and the template panel, routes keys to whichever is active and
// forwards everything else to both.
package app

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/jeranaias/chatbi-tui/internal/config"
	"github.com/jeranaias/chatbi-tui/internal/dispatch"
	"github.com/jeranaias/chatbi-tui/internal/session"
	tpl "github.com/jeranaias/chatbi-tui/internal/templates"
	"github.com/jeranaias/chatbi-tui/internal/ui/chat"
	"github.com/jeranaias/chatbi-tui/internal/ui/styles"
	tplview "github.com/jeranaias/chatbi-tui/internal/ui/templates"
)

// startupTimeout bounds the initial reachability check and template fetch.
const startupTimeout = 5 * time.Second

// Backend is everything the TUI needs from the Chat-BI API. *api.Client
// implements it.
type Backend interface {
	dispatch.Asker
	chat.Backend
	tpl.Service
	CheckReachable(ctx context.Context) error
}

// Options wires the TUI.
type Options struct {
	Backend Backend
	Config  *config.Config
	// ConfigPath enables hot reload when non-empty.
	ConfigPath string
	// BackendLabel is shown in the chat header.
	BackendLabel string
}

type screen int

const (
	screenChat screen = iota
	screenTemplates
)

// startupMsg reports the initial checks.
type startupMsg struct {
	ReachErr     error
	TemplatesErr error
}

// =============================================================================
// MODEL
// =============================================================================

// Model is the root model.
type Model struct {
	ctx     context.Context
	backend Backend
	store   *session.Store
	panel   *tpl.Panel

	chat      *chat.Model
	templates *tplview.Model
	active    screen
}

// New builds the root model and its views.
func New(ctx context.Context, opts Options) *Model {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	theme := styles.NewTheme(cfg.UI.Theme)
	store := session.NewStore()
	panel := tpl.NewPanel(opts.Backend)

	disp := dispatch.New(store, opts.Backend, dispatch.WithTimeout(cfg.Timeout()))

	return &Model{
		ctx:     ctx,
		backend: opts.Backend,
		store:   store,
		panel:   panel,
		chat: chat.New(ctx, chat.Options{
			Dispatcher:   disp,
			Backend:      opts.Backend,
			Config:       cfg,
			Theme:        theme,
			BackendLabel: opts.BackendLabel,
		}),
		templates: tplview.New(ctx, panel, theme),
	}
}

// Store returns the session store behind the chat view.
func (m *Model) Store() *session.Store {
	return m.store
}

// Init starts the chat view and the startup checks.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.chat.Init(), m.startup())
}

// startup checks the backend and preloads templates concurrently.
func (m *Model) startup() tea.Cmd {
	backend, panel, parent := m.backend, m.panel, m.ctx
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(parent, startupTimeout)
		defer cancel()

		// An unreachable backend cancels the template preload.
		var msg startupMsg
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			msg.ReachErr = backend.CheckReachable(ctx)
			return msg.ReachErr
		})
		g.Go(func() error {
			msg.TemplatesErr = panel.Refresh(gctx)
			return msg.TemplatesErr
		})
		if err := g.Wait(); err != nil {
			log.Debug().Err(err).Msg("startup checks failed")
		}
		return msg
	}
}

// Update routes a message.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.chat.SetSize(msg.Width, msg.Height)
		m.templates.SetSize(msg.Width, msg.Height)
		return m, nil

	case startupMsg:
		if msg.ReachErr != nil {
			log.Warn().Err(msg.ReachErr).Msg("backend unreachable at startup")
			return m.forwardChat(chat.NoticeMsg{Text: "backend unreachable: " + msg.ReachErr.Error(), IsError: true})
		}
		if msg.TemplatesErr != nil {
			log.Warn().Err(msg.TemplatesErr).Msg("template preload failed")
		}
		return m, nil

	case chat.OpenTemplatesMsg:
		m.active = screenTemplates
		return m, m.templates.Open()

	case tplview.CloseMsg:
		m.active = screenChat
		if msg.Notice != "" {
			return m.forwardChat(chat.NoticeMsg{Text: msg.Notice})
		}
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.chat.Close()
			return m, tea.Quit
		}
		if m.active == screenTemplates {
			_, cmd := m.templates.Update(msg)
			return m, cmd
		}
		return m.forwardChat(msg)
	}

	// Async results belong to one view or the other; each ignores the
	// other's messages.
	_, chatCmd := m.chat.Update(msg)
	_, tplCmd := m.templates.Update(msg)
	return m, tea.Batch(chatCmd, tplCmd)
}

func (m *Model) forwardChat(msg tea.Msg) (tea.Model, tea.Cmd) {
	_, cmd := m.chat.Update(msg)
	return m, cmd
}

// View renders the active screen.
func (m *Model) View() string {
	if m.active == screenTemplates {
		return m.templates.View()
	}
	return m.chat.View()
}

// =============================================================================
// PROGRAM
// =============================================================================

// Run starts the full-screen TUI and blocks until it exits or ctx ends.
func Run(ctx context.Context, opts Options) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m := New(ctx, opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))

	if opts.ConfigPath != "" {
		w, err := config.NewWatcher(opts.ConfigPath, 0, func(cfg *config.Config) {
			p.Send(chat.ConfigReloadedMsg{Config: cfg})
		})
		if err != nil {
			log.Warn().Err(err).Str("path", opts.ConfigPath).Msg("config hot reload disabled")
		} else {
			go w.Run(ctx)
		}
	}

	_, err := p.Run()
	m.chat.Close()
	if err != nil && ctx.Err() != nil {
		// Killed by context cancellation, e.g. SIGINT.
		return nil
	}
	return err
}
