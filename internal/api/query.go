// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/jeranaias/chatbi-tui/internal/chart"
	"github.com/jeranaias/chatbi-tui/internal/model"
)

// =============================================================================
// QUERY OPERATIONS
// =============================================================================

// Ask sends a question using the configured contract and returns the
// canonical result.
func (c *Client) Ask(ctx context.Context, question string) (*model.QueryResult, error) {
	if c.config.Contract == ContractLegacy {
		return c.Query(ctx, question)
	}
	return c.Chat(ctx, question)
}

// Chat sends a question to POST /chat.
func (c *Client) Chat(ctx context.Context, question string) (*model.QueryResult, error) {
	req := ChatRequest{Question: question, SessionID: c.config.SessionID}

	var resp ChatResponse
	if err := c.do(ctx, http.MethodPost, "/chat", nil, req, &resp); err != nil {
		return nil, err
	}
	return resp.ToResult(), nil
}

// Query sends a question to the legacy POST /query and adapts the answer.
func (c *Client) Query(ctx context.Context, question string) (*model.QueryResult, error) {
	req := QueryRequest{UserInput: question}

	var resp LegacyQueryResponse
	if err := c.do(ctx, http.MethodPost, "/query", nil, req, &resp); err != nil {
		return nil, err
	}
	return resp.ToResult()
}

// =============================================================================
// ADAPTERS
// =============================================================================

// ToResult converts a /chat payload into the canonical result. A missing
// chart type is inferred from the rows.
func (r ChatResponse) ToResult() *model.QueryResult {
	kind := model.ParseChartKind(r.ChartData.Type)
	if kind == "" {
		kind = chart.Suggest(r.ChartData.Data)
	}
	count := r.RecordCount
	if count == 0 {
		count = len(r.ChartData.Data)
	}
	return &model.QueryResult{
		QueryID:     r.QueryID,
		Answer:      r.Answer,
		SQL:         r.SQL,
		RecordCount: count,
		Rows:        r.ChartData.Data,
		Chart: model.ChartDescriptor{
			Kind:   kind,
			Fields: r.ChartData.Config,
		},
	}
}

// ToResult converts a legacy /query body into the canonical result. The
// legacy shape has no answer text or field mapping, so both are derived.
func (r LegacyQueryResponse) ToResult() (*model.QueryResult, error) {
	if !strings.EqualFold(r.Status, "success") {
		msg := r.Message
		if msg == "" {
			msg = fmt.Sprintf("query status %q", r.Status)
		}
		return nil, &ClientError{Type: ErrTypeBusiness, Message: msg}
	}

	kind := model.ParseChartKind(r.SuggestedVisualization)
	if kind == "" {
		kind = chart.Suggest(r.Data)
	}

	answer := r.Message
	if answer == "" {
		answer = fmt.Sprintf("Query returned %d record(s).", len(r.Data))
	}

	return &model.QueryResult{
		QueryID:     r.QueryID,
		Answer:      answer,
		SQL:         r.SQLQuery,
		RecordCount: len(r.Data),
		Rows:        r.Data,
		Chart: model.ChartDescriptor{
			Kind:   kind,
			Fields: chart.DefaultFields(kind, r.Data),
		},
	}, nil
}
