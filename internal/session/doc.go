// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session holds the chat session store: the ordered message log and
// the busy flag that every view reads from.
//
// # Key Types
//
//   - Store: the message log plus busy flag, safe for concurrent use
//   - Event: change notification delivered to subscribers
//
// # Usage
//
//	store := session.NewStore()
//	unsubscribe := store.Subscribe(func(ev session.Event) { redraw() })
//	defer unsubscribe()
//
//	id, err := store.AppendMessage(model.RoleUser, "sales by month", nil)
//	store.SetBusy(true)
//
// The store lives for one program run. Nothing is persisted; Clear is the
// only way to empty it, and asking the user first is the caller's job.
package session
