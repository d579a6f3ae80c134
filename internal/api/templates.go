// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/jeranaias/chatbi-tui/internal/model"
)

// =============================================================================
// TEMPLATE OPERATIONS
// =============================================================================

// ListTemplates fetches every SQL template.
func (c *Client) ListTemplates(ctx context.Context) ([]model.Template, error) {
	var wire []TemplateWire
	if err := c.do(ctx, http.MethodGet, "/templates/", nil, nil, &wire); err != nil {
		return nil, err
	}
	out := make([]model.Template, len(wire))
	for i, w := range wire {
		out[i] = w.ToModel()
	}
	return out, nil
}

// CreateTemplate stores a new template and returns it with its ID.
func (c *Client) CreateTemplate(ctx context.Context, t model.Template) (model.Template, error) {
	body := TemplateToWire(t)
	body.ID = 0

	var created TemplateWire
	if err := c.do(ctx, http.MethodPost, "/templates/", nil, body, &created); err != nil {
		return model.Template{}, err
	}
	return created.ToModel(), nil
}

// UpdateTemplate replaces the template with t.ID.
func (c *Client) UpdateTemplate(ctx context.Context, t model.Template) (model.Template, error) {
	body := TemplateToWire(t)
	body.ID = 0

	var updated TemplateWire
	if err := c.do(ctx, http.MethodPut, "/templates/"+strconv.Itoa(t.ID), nil, body, &updated); err != nil {
		return model.Template{}, err
	}
	if updated.ID == 0 {
		updated.ID = t.ID
	}
	return updated.ToModel(), nil
}

// DeleteTemplate removes the template with the given ID.
func (c *Client) DeleteTemplate(ctx context.Context, id int) error {
	return c.do(ctx, http.MethodDelete, "/templates/"+strconv.Itoa(id), nil, nil, nil)
}
