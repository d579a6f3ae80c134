// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package templates

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/chatbi-tui/internal/model"
	tpl "github.com/jeranaias/chatbi-tui/internal/templates"
	"github.com/jeranaias/chatbi-tui/internal/ui/styles"
)

type mode int

const (
	modeList mode = iota
	modeForm
	modeConfirmDelete
)

// Form field indexes, in tab order.
const (
	fieldName = iota
	fieldDescription
	fieldSQL
	fieldCount
)

// =============================================================================
// MESSAGES
// =============================================================================

// CloseMsg asks the parent to leave the panel.
type CloseMsg struct {
	Notice string
}

type refreshedMsg struct{ Err error }

type savedMsg struct {
	Template model.Template
	Err      error
}

type deletedMsg struct {
	ID  int
	Err error
}

// =============================================================================
// MODEL
// =============================================================================

// Model is the template panel view.
type Model struct {
	ctx   context.Context
	panel *tpl.Panel
	theme *styles.Theme
	keys  KeyMap

	mode          mode
	cursor        int
	pendingDelete model.Template
	loading       bool

	name  textinput.Model
	desc  textinput.Model
	sql   textarea.Model
	focus int

	notice    string
	noticeErr bool
	width     int
	height    int
}

// New creates the view over panel.
func New(ctx context.Context, panel *tpl.Panel, theme *styles.Theme) *Model {
	name := textinput.New()
	name.Placeholder = "Monthly sales trend"
	name.CharLimit = 200

	desc := textinput.New()
	desc.Placeholder = "What the query answers"
	desc.CharLimit = 500

	sql := textarea.New()
	sql.Placeholder = "SELECT ..."
	sql.ShowLineNumbers = true
	sql.CharLimit = 0
	sql.SetHeight(8)

	return &Model{
		ctx:    ctx,
		panel:  panel,
		theme:  theme,
		keys:   DefaultKeyMap(),
		name:   name,
		desc:   desc,
		sql:    sql,
		width:  80,
		height: 24,
	}
}

// Init loads the list.
func (m *Model) Init() tea.Cmd {
	return m.refresh()
}

// Open shows the list and reloads it.
func (m *Model) Open() tea.Cmd {
	m.mode = modeList
	m.notice = ""
	return m.refresh()
}

// SetSize resizes the view.
func (m *Model) SetSize(width, height int) {
	m.width, m.height = width, height
	inner := width - 8
	if inner < 20 {
		inner = 20
	}
	m.name.Width = inner
	m.desc.Width = inner
	m.sql.SetWidth(inner)
	h := height - 14
	if h < 4 {
		h = 4
	}
	if h > 16 {
		h = 16
	}
	m.sql.SetHeight(h)
}

func (m *Model) refresh() tea.Cmd {
	m.loading = true
	panel, ctx := m.panel, m.ctx
	return func() tea.Msg {
		return refreshedMsg{Err: panel.Refresh(ctx)}
	}
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

	case refreshedMsg:
		m.loading = false
		if msg.Err != nil {
			m.setNotice("reload failed: "+msg.Err.Error(), true)
		}
		m.clampCursor()
		return m, nil

	case savedMsg:
		return m, m.handleSaved(msg)

	case deletedMsg:
		m.loading = false
		switch {
		case msg.Err == nil:
			m.setNotice(fmt.Sprintf("template #%d deleted", msg.ID), false)
		case errors.Is(msg.Err, tpl.ErrFetch):
			m.setNotice("deleted, but reload failed: "+msg.Err.Error(), true)
		default:
			m.setNotice("delete failed: "+msg.Err.Error(), true)
		}
		m.clampCursor()
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case modeConfirmDelete:
			return m, m.handleConfirmKey(msg)
		case modeForm:
			return m, m.handleFormKey(msg)
		default:
			return m, m.handleListKey(msg)
		}
	}

	if m.mode == modeForm {
		return m, m.updateFocused(msg)
	}
	return m, nil
}

func (m *Model) handleListKey(msg tea.KeyMsg) tea.Cmd {
	list := m.panel.Templates()
	switch {
	case key.Matches(msg, m.keys.Back):
		notice := ""
		if !m.noticeErr {
			notice = m.notice
		}
		return func() tea.Msg { return CloseMsg{Notice: notice} }
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(list)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Refresh):
		return m.refresh()
	case key.Matches(msg, m.keys.New):
		m.panel.ResetForm()
		return m.openForm()
	case key.Matches(msg, m.keys.Edit):
		if len(list) == 0 {
			return nil
		}
		if err := m.panel.Edit(list[m.cursor].ID); err != nil {
			m.setNotice(err.Error(), true)
			return nil
		}
		return m.openForm()
	case key.Matches(msg, m.keys.Delete):
		if len(list) == 0 {
			return nil
		}
		m.pendingDelete = list[m.cursor]
		m.mode = modeConfirmDelete
	}
	return nil
}

func (m *Model) handleConfirmKey(msg tea.KeyMsg) tea.Cmd {
	m.mode = modeList
	if s := msg.String(); s != "y" && s != "Y" {
		m.setNotice("delete cancelled", false)
		return nil
	}
	id := m.pendingDelete.ID
	m.loading = true
	panel, ctx := m.panel, m.ctx
	return func() tea.Msg {
		return deletedMsg{ID: id, Err: panel.Delete(ctx, id)}
	}
}

func (m *Model) handleFormKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Back):
		m.panel.ResetForm()
		m.mode = modeList
		m.notice = ""
		return nil
	case key.Matches(msg, m.keys.NextField):
		return m.setFocus((m.focus + 1) % fieldCount)
	case key.Matches(msg, m.keys.PrevField):
		return m.setFocus((m.focus + fieldCount - 1) % fieldCount)
	case key.Matches(msg, m.keys.Save):
		return m.save()
	}
	return m.updateFocused(msg)
}

// updateFocused forwards msg to the focused widget and mirrors the widgets
// into the panel form.
func (m *Model) updateFocused(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch m.focus {
	case fieldName:
		m.name, cmd = m.name.Update(msg)
	case fieldDescription:
		m.desc, cmd = m.desc.Update(msg)
	case fieldSQL:
		m.sql, cmd = m.sql.Update(msg)
	}
	m.syncForm()
	return cmd
}

func (m *Model) syncForm() {
	name, desc, sql := m.name.Value(), m.desc.Value(), m.sql.Value()
	m.panel.UpdateForm(func(f *tpl.Form) {
		f.Name, f.Description, f.SQL = name, desc, sql
	})
}

// save validates locally first so an incomplete form never reaches the
// backend.
func (m *Model) save() tea.Cmd {
	m.syncForm()
	if err := m.panel.Validate(); err != nil {
		var inc *tpl.IncompleteError
		if errors.As(err, &inc) {
			m.setNotice(inc.Error(), true)
		} else {
			m.setNotice(err.Error(), true)
		}
		return nil
	}
	m.loading = true
	panel, ctx := m.panel, m.ctx
	return func() tea.Msg {
		saved, err := panel.Save(ctx)
		return savedMsg{Template: saved, Err: err}
	}
}

func (m *Model) handleSaved(msg savedMsg) tea.Cmd {
	m.loading = false
	if msg.Template.ID == 0 && msg.Err != nil {
		// Nothing was saved; the form keeps the user's input.
		m.setNotice("save failed: "+msg.Err.Error(), true)
		return nil
	}

	m.mode = modeList
	m.blurAll()
	if msg.Err != nil {
		m.setNotice(fmt.Sprintf("saved %q, but reload failed: %v", msg.Template.Name, msg.Err), true)
	} else {
		m.setNotice(fmt.Sprintf("saved %q", msg.Template.Name), false)
	}
	for i, t := range m.panel.Templates() {
		if t.ID == msg.Template.ID {
			m.cursor = i
		}
	}
	return nil
}

// openForm loads the panel form into the widgets and focuses the name.
func (m *Model) openForm() tea.Cmd {
	f := m.panel.Form()
	m.name.SetValue(f.Name)
	m.name.CursorEnd()
	m.desc.SetValue(f.Description)
	m.desc.CursorEnd()
	m.sql.SetValue(f.SQL)
	m.mode = modeForm
	m.notice = ""
	return m.setFocus(fieldName)
}

func (m *Model) setFocus(field int) tea.Cmd {
	m.blurAll()
	m.focus = field
	switch field {
	case fieldName:
		return m.name.Focus()
	case fieldDescription:
		return m.desc.Focus()
	default:
		return m.sql.Focus()
	}
}

func (m *Model) blurAll() {
	m.name.Blur()
	m.desc.Blur()
	m.sql.Blur()
}

func (m *Model) clampCursor() {
	n := len(m.panel.Templates())
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *Model) setNotice(text string, isErr bool) {
	m.notice = text
	m.noticeErr = isErr
}
