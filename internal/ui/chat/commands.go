// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"fmt"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/chatbi-tui/internal/api"
	"github.com/jeranaias/chatbi-tui/internal/export"
)

// =============================================================================
// SLASH COMMANDS
// =============================================================================

// Command is one slash command.
type Command struct {
	Name  string
	Args  string
	Usage string
	run   func(m *Model, args []string) tea.Cmd
}

// commands is the registry, keyed by name without the slash. It is filled
// in init because the help command renders the registry itself.
var commands map[string]Command

func init() {
	commands = map[string]Command{
		"help": {
			Name: "help", Usage: "show key bindings and commands",
			run: func(m *Model, _ []string) tea.Cmd {
				m.overlay = m.renderHelp()
				m.refresh(false)
				m.viewport.GotoTop()
				return nil
			},
		},
		"clear": {
			Name: "clear", Usage: "empty the conversation",
			run: func(m *Model, _ []string) tea.Cmd {
				if m.store.Len() == 0 {
					m.setNotice("nothing to clear", false)
					return nil
				}
				if m.ui.ConfirmClear {
					m.confirmingClear = true
					m.setNotice("clear conversation? (y/n)", false)
					return nil
				}
				m.clear()
				m.setNotice("conversation cleared", false)
				return nil
			},
		},
		"export": {
			Name: "export", Args: "[md|json|yaml] [path]", Usage: "write the transcript to a file",
			run: (*Model).exportCmd,
		},
		"templates": {
			Name: "templates", Usage: "open the template panel",
			run: func(*Model, []string) tea.Cmd { return openTemplates },
		},
		"history": {
			Name: "history", Args: "[keyword]", Usage: "list recent queries from the backend",
			run: (*Model).historyCmd,
		},
		"sql": {
			Name: "sql", Usage: "toggle SQL under answers",
			run: func(m *Model, _ []string) tea.Cmd {
				m.ui.ShowSQL = !m.ui.ShowSQL
				m.refresh(false)
				if m.ui.ShowSQL {
					m.setNotice("SQL shown", false)
				} else {
					m.setNotice("SQL hidden", false)
				}
				return nil
			},
		},
		"quit": {
			Name: "quit", Usage: "exit chatbi",
			run: func(m *Model, _ []string) tea.Cmd {
				m.Close()
				return tea.Quit
			},
		},
	}
}

// Commands returns the registry sorted by name.
func Commands() []Command {
	out := make([]Command, 0, len(commands))
	for _, c := range commands {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// runCommand parses and runs a "/name args..." line.
func (m *Model) runCommand(line string) tea.Cmd {
	fields := strings.Fields(strings.TrimPrefix(line, "/"))
	if len(fields) == 0 {
		return nil
	}
	name := strings.ToLower(fields[0])
	if name == "q" || name == "exit" {
		name = "quit"
	}
	cmd, ok := commands[name]
	if !ok {
		m.setNotice(fmt.Sprintf("unknown command /%s (try /help)", name), true)
		return nil
	}
	return cmd.run(m, fields[1:])
}

func (m *Model) exportCmd(args []string) tea.Cmd {
	format := export.FormatMarkdown
	path := ""
	if len(args) > 0 {
		f, err := export.ParseFormat(args[0])
		if err != nil {
			m.setNotice(err.Error(), true)
			return nil
		}
		format = f
	}
	if len(args) > 1 {
		path = args[1]
	}

	// Snapshot now so later messages are not included.
	transcript := export.FromStore(m.store)
	opts := export.DefaultOptions()
	opts.MaxRows = m.ui.MaxTableRows
	return func() tea.Msg {
		written, err := export.ToFile(transcript, format, path, opts)
		return exportDoneMsg{Path: written, Err: err}
	}
}

func (m *Model) historyCmd(args []string) tea.Cmd {
	if m.api == nil {
		return nil
	}
	keyword := strings.Join(args, " ")
	backend, parent := m.api, m.ctx
	m.setNotice("loading history…", false)
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(parent, feedbackTimeout)
		defer cancel()
		entries, err := backend.History(ctx, api.HistoryFilter{Keyword: keyword})
		return historyMsg{Keyword: keyword, Entries: entries, Err: err}
	}
}
