// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/jeranaias/chatbi-tui/internal/model"
)

// SubmitSatisfaction records the user's rating of a query. No response
// body is consumed.
func (c *Client) SubmitSatisfaction(ctx context.Context, queryID string, level model.Satisfaction) error {
	if queryID == "" {
		return errors.New("query id is required")
	}
	req := SatisfactionRequest{QueryID: queryID, SatisfactionLevel: level}
	return c.do(ctx, http.MethodPost, "/satisfaction", nil, req, nil)
}

// History fetches past queries matching the filter.
func (c *Client) History(ctx context.Context, filter HistoryFilter) ([]model.HistoryEntry, error) {
	q := url.Values{}
	if filter.StartDate != "" {
		q.Set("start_date", filter.StartDate)
	}
	if filter.EndDate != "" {
		q.Set("end_date", filter.EndDate)
	}
	if filter.Keyword != "" {
		q.Set("keyword", filter.Keyword)
	}

	var entries []model.HistoryEntry
	if err := c.do(ctx, http.MethodGet, "/history", q, nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}
