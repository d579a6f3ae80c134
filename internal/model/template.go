// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

// Template is a named, reusable SQL query as shown in the template panel.
// The backend calls the name "scenario" and the SQL "sql_text"; the api
// package owns that translation.
type Template struct {
	ID          int    `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name" validate:"required"`
	Description string `json:"description" yaml:"description" validate:"required"`
	SQL         string `json:"sql" yaml:"sql" validate:"required"`
}

// HistoryEntry is one row of the backend's query history.
type HistoryEntry struct {
	QueryID      string       `json:"query_id"`
	Question     string       `json:"user_input"`
	SQL          string       `json:"sql_query"`
	Satisfaction Satisfaction `json:"satisfaction_level,omitempty"`
	CreatedAt    string       `json:"created_at"`
}
