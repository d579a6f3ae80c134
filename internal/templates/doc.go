// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package templates implements the SQL template panel: a cached template
// list plus an edit form, backed by the template CRUD endpoints.
//
// The cached list only ever changes on a successful list fetch, and every
// successful create, update or delete is followed by a full refetch.
// Nothing is patched locally. Saving validates the form before any
// network call. Deleting the template that is loaded in the form resets
// the form.
//
// # Usage
//
//	panel := templates.NewPanel(client)
//	_ = panel.Refresh(ctx)
//	_ = panel.Edit(7)
//	panel.UpdateForm(func(f *templates.Form) { f.SQL = "SELECT ..." })
//	saved, err := panel.Save(ctx)
package templates
