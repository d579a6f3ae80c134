// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package devserver is a small Chat-BI backend for local use and tests.
//
// Endpoints (all under /api):
//   - POST /chat           - enveloped question answering
//   - POST /query          - legacy flat question answering
//   - POST /satisfaction   - record feedback for a query id
//   - GET  /history        - query history, filtered by date and keyword
//   - GET|POST /templates/ - list and create SQL templates
//   - GET|PUT|DELETE /templates/{id}
//   - GET  /health
//
// Questions are answered by matching stored templates on keyword overlap.
// There is no language model: templates with {param} placeholders are
// rejected instead of being filled in. Only single SELECT statements run.
package devserver
