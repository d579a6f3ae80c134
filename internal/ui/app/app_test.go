// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/chatbi-tui/internal/api"
	"github.com/jeranaias/chatbi-tui/internal/config"
	"github.com/jeranaias/chatbi-tui/internal/model"
	"github.com/jeranaias/chatbi-tui/internal/ui/chat"
	tplview "github.com/jeranaias/chatbi-tui/internal/ui/templates"
)

type fakeBackend struct {
	reachErr  error
	templates []model.Template
	// blockList makes ListTemplates wait for its context.
	blockList bool
}

func (f *fakeBackend) Ask(ctx context.Context, q string) (*model.QueryResult, error) {
	return &model.QueryResult{QueryID: "q-1", Answer: "answer to " + q}, nil
}

func (f *fakeBackend) SubmitSatisfaction(ctx context.Context, id string, level model.Satisfaction) error {
	return nil
}

func (f *fakeBackend) History(ctx context.Context, filter api.HistoryFilter) ([]model.HistoryEntry, error) {
	return nil, nil
}

func (f *fakeBackend) ListTemplates(ctx context.Context) ([]model.Template, error) {
	if f.blockList {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return f.templates, nil
}

func (f *fakeBackend) CreateTemplate(ctx context.Context, t model.Template) (model.Template, error) {
	return t, nil
}

func (f *fakeBackend) UpdateTemplate(ctx context.Context, t model.Template) (model.Template, error) {
	return t, nil
}

func (f *fakeBackend) DeleteTemplate(ctx context.Context, id int) error { return nil }

func (f *fakeBackend) CheckReachable(ctx context.Context) error { return f.reachErr }

func newTestApp(t *testing.T, backend *fakeBackend) *Model {
	t.Helper()
	cfg := config.Default()
	cfg.UI.Theme = "dark"
	m := New(context.Background(), Options{Backend: backend, Config: cfg})
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	t.Cleanup(m.chat.Close)
	return m
}

func TestStartupPreloadsTemplates(t *testing.T) {
	backend := &fakeBackend{templates: []model.Template{{ID: 1, Name: "Monthly sales", Description: "d", SQL: "SELECT 1"}}}
	m := newTestApp(t, backend)

	msg := m.startup()()
	start, ok := msg.(startupMsg)
	require.True(t, ok)
	assert.NoError(t, start.ReachErr)
	assert.NoError(t, start.TemplatesErr)
	assert.True(t, m.panel.Loaded())
	assert.Len(t, m.panel.Templates(), 1)
}

func TestStartupReportsUnreachableBackend(t *testing.T) {
	m := newTestApp(t, &fakeBackend{reachErr: errors.New("connection refused")})

	m.Update(m.startup()())
	assert.Contains(t, m.View(), "backend unreachable")
}

func TestUnreachableBackendCancelsTemplatePreload(t *testing.T) {
	reachErr := errors.New("connection refused")
	m := newTestApp(t, &fakeBackend{reachErr: reachErr, blockList: true})

	start, ok := m.startup()().(startupMsg)
	require.True(t, ok)
	assert.ErrorIs(t, start.ReachErr, reachErr)
	assert.ErrorIs(t, start.TemplatesErr, context.Canceled)
	assert.False(t, m.panel.Loaded())
}

func TestSwitchBetweenScreens(t *testing.T) {
	backend := &fakeBackend{templates: []model.Template{{ID: 7, Name: "Sales by region", Description: "d", SQL: "SELECT 1"}}}
	m := newTestApp(t, backend)

	_, cmd := m.Update(chat.OpenTemplatesMsg{})
	assert.Equal(t, screenTemplates, m.active)
	require.NotNil(t, cmd)
	m.Update(cmd())
	assert.Contains(t, m.View(), "Sales by region")

	// Keys now go to the template panel: esc closes it.
	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	closeMsg, ok := cmd().(tplview.CloseMsg)
	require.True(t, ok)

	m.Update(closeMsg)
	assert.Equal(t, screenChat, m.active)
	assert.Contains(t, m.View(), "ChatBI")
}

func TestCtrlCQuitsFromAnyScreen(t *testing.T) {
	m := newTestApp(t, &fakeBackend{})
	m.Update(chat.OpenTemplatesMsg{})

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	_, ok := cmd().(tea.QuitMsg)
	assert.True(t, ok)
}
