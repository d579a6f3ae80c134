// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chart turns a chart descriptor plus result rows into a
// declarative chart configuration, and draws that configuration in the
// terminal.
//
// # Key Functions
//
//   - BuildConfig: pure (kind, rows, fields) -> Config mapping
//   - Suggest: pick a chart kind for rows that arrived without one
//   - DefaultFields: derive a field mapping from the first row's columns
//   - Render: draw a Config as text bars, a sparkline or share bars
//
// # Field fallback
//
// When a configured field is missing from a row (or was never
// configured), the first column of that row is used as the category or
// label and the second column as the value. Table and unknown kinds map
// to an empty Config, which renders as nothing.
//
// # Usage
//
//	cfg := chart.BuildConfig(model.ChartBar, rows, model.FieldMapping{XField: "month", YField: "sales"})
//	fmt.Println(chart.Render(cfg, 60))
package chart
