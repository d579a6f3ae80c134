// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api provides the HTTP client for the Chat-BI backend.
//
// The canonical query contract is POST /chat, which answers with the
// {success, data, error} envelope. Older backends expose POST /query with a
// flat {status, sql_query, data, suggested_visualization} body; that shape
// is translated into the same model.QueryResult by an adapter and never
// leaks past this package.
//
// # Key Types
//
//   - Client: chat, legacy query, templates, satisfaction and history calls
//   - ClientError: typed error with ErrorType for handling
//   - Contract: which query endpoint Ask uses
//
// # Usage
//
//	client := api.NewClientWithConfig(&api.ClientConfig{BaseURL: "http://localhost:13000/api"})
//	res, err := client.Ask(ctx, "monthly sales by region")
//	if err != nil {
//	    var ce *api.ClientError
//	    if errors.As(err, &ce) && ce.Type == api.ErrTypeBusiness { ... }
//	}
package api
