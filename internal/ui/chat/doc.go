// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat is the conversation view of the chatbi TUI.
//
// The view never mutates the conversation itself. Questions go through a
// dispatch.Dispatcher on a tea.Cmd goroutine; the session store notifies
// the view of every append, clear and busy change, and the view re-renders
// from a store snapshot. The input is disabled while a query is in flight.
//
// Slash commands:
//
//	/help                 show key bindings and commands
//	/clear                empty the conversation
//	/export [fmt] [path]  write the transcript (md, json, yaml)
//	/templates            open the template panel
//	/history [keyword]    list recent queries from the backend
//	/sql                  toggle SQL under answers
//	/quit                 exit
package chat
