// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"encoding/json"

	"github.com/jeranaias/chatbi-tui/internal/model"
)

// =============================================================================
// ENVELOPE
// =============================================================================

// envelope is the {success, data, error} wrapper used by /chat. Success is
// a pointer so that a missing field can be told apart from false.
type envelope struct {
	Success *bool           `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *envelopeError  `json:"error"`
}

type envelopeError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// errorBody covers the error shapes returned alongside non-2xx statuses.
type errorBody struct {
	Detail  any            `json:"detail"`
	Message string         `json:"message"`
	Error   *envelopeError `json:"error"`
}

// =============================================================================
// REQUEST TYPES
// =============================================================================

// ChatRequest is the request body for POST /chat.
type ChatRequest struct {
	Question  string `json:"question"`
	SessionID string `json:"session_id,omitempty"`
}

// QueryRequest is the request body for the legacy POST /query.
type QueryRequest struct {
	UserInput string `json:"user_input"`
}

// SatisfactionRequest is the request body for POST /satisfaction.
type SatisfactionRequest struct {
	QueryID           string             `json:"query_id"`
	SatisfactionLevel model.Satisfaction `json:"satisfaction_level"`
}

// HistoryFilter narrows GET /history. Dates are passed through verbatim;
// the backend compares them against created_at.
type HistoryFilter struct {
	StartDate string
	EndDate   string
	Keyword   string
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// ChatResponse is the data payload of a successful /chat call.
type ChatResponse struct {
	QueryID     string    `json:"query_id"`
	Answer      string    `json:"answer"`
	SQL         string    `json:"sql"`
	RecordCount int       `json:"record_count"`
	ChartData   ChartData `json:"chart_data"`
}

// ChartData is the chart descriptor plus rows carried by ChatResponse.
type ChartData struct {
	Type   string             `json:"type"`
	Data   []model.Row        `json:"data"`
	Config model.FieldMapping `json:"config"`
}

// LegacyQueryResponse is the flat body returned by the legacy /query.
type LegacyQueryResponse struct {
	Status                 string      `json:"status"`
	QueryID                string      `json:"query_id"`
	SQLQuery               string      `json:"sql_query"`
	Data                   []model.Row `json:"data"`
	SuggestedVisualization string      `json:"suggested_visualization"`
	Message                string      `json:"message,omitempty"`
}

// TemplateWire is a SQL template as the backend stores it.
type TemplateWire struct {
	ID          int    `json:"id,omitempty"`
	Scenario    string `json:"scenario"`
	Description string `json:"description"`
	SQLText     string `json:"sql_text"`
}

// ToModel maps the wire shape to the display shape.
func (w TemplateWire) ToModel() model.Template {
	return model.Template{ID: w.ID, Name: w.Scenario, Description: w.Description, SQL: w.SQLText}
}

// TemplateToWire maps the display shape to the wire shape.
func TemplateToWire(t model.Template) TemplateWire {
	return TemplateWire{ID: t.ID, Scenario: t.Name, Description: t.Description, SQLText: t.SQL}
}
