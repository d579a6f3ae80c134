// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/jeranaias/chatbi-tui/internal/config"
	"github.com/jeranaias/chatbi-tui/internal/dispatch"
	"github.com/jeranaias/chatbi-tui/internal/model"
	"github.com/jeranaias/chatbi-tui/internal/session"
)

// =============================================================================
// OUTBOUND MESSAGES
// =============================================================================

// OpenTemplatesMsg asks the parent to switch to the template panel.
type OpenTemplatesMsg struct{}

// ConfigReloadedMsg carries a configuration reloaded from disk.
type ConfigReloadedMsg struct {
	Config *config.Config
}

// =============================================================================
// INTERNAL MESSAGES
// =============================================================================

// storeEventMsg wraps a session store notification.
type storeEventMsg struct {
	Event session.Event
}

// queryDoneMsg settles one Submit call.
type queryDoneMsg struct {
	Outcome dispatch.Outcome
	Err     error
}

// feedbackDoneMsg settles a satisfaction call.
type feedbackDoneMsg struct {
	QueryID string
	Level   model.Satisfaction
	Err     error
}

// historyMsg carries the result of /history.
type historyMsg struct {
	Keyword string
	Entries []model.HistoryEntry
	Err     error
}

// exportDoneMsg reports the written transcript path.
type exportDoneMsg struct {
	Path string
	Err  error
}

// NoticeMsg sets the status bar notice, e.g. after returning from the
// template panel.
type NoticeMsg struct {
	Text    string
	IsError bool
}
