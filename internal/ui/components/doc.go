// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components renders the pieces of the chatbi screen that are not
// bubbles widgets: highlighted SQL, result tables, markdown answers and the
// status bar. Everything here is a pure string renderer so the chat and
// template views can compose them freely.
package components
