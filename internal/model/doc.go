// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures exchanged between the chat
// session, the BI backend client and the views.
//
// # Key Types
//
//   - Message: one entry of the chat log (role, content, timestamp, optional result)
//   - QueryResult: the answer, SQL, rows and chart descriptor of one query
//   - Row: a result record that keeps its column order from the wire
//   - ChartKind, FieldMapping: the declarative chart descriptor
//   - Template: a named SQL template in display shape
//
// # Usage
//
//	msg := model.NewMessage(model.RoleUser, "monthly sales by region")
//	rows, _ := model.ParseRows([]byte(`[{"month":"Jan","sales":10}]`))
//	v, _ := rows[0].Get("sales")
//
// Messages are values. Once a Message has been handed to the session store
// neither it nor its Result is modified again.
package model
