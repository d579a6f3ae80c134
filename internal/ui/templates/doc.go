// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package templates is the TUI front end of the SQL template panel.
//
// It renders the list held by a templates.Panel and an edit form made of
// two text inputs and a SQL text area. All state that matters (the list,
// the form, validation) lives in the panel; this package only mirrors the
// widgets into it and runs the network calls as commands.
package templates
