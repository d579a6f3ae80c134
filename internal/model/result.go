// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import "strings"

// =============================================================================
// CHART DESCRIPTOR
// =============================================================================

// ChartKind is the visualization suggested by the backend.
type ChartKind string

const (
	ChartBar   ChartKind = "bar"
	ChartLine  ChartKind = "line"
	ChartPie   ChartKind = "pie"
	ChartTable ChartKind = "table"
)

// ParseChartKind normalizes a wire value. Unknown kinds are returned as-is
// so that chart mapping can treat them as "render nothing".
func ParseChartKind(s string) ChartKind {
	return ChartKind(strings.ToLower(strings.TrimSpace(s)))
}

// Known reports whether the kind is one of bar, line, pie or table.
func (k ChartKind) Known() bool {
	switch k {
	case ChartBar, ChartLine, ChartPie, ChartTable:
		return true
	}
	return false
}

// FieldMapping says which columns feed which chart dimension. Bar and line
// charts use XField/YField; pie charts use ColorField/AngleField.
type FieldMapping struct {
	XField     string `json:"xField,omitempty" yaml:"x_field,omitempty"`
	YField     string `json:"yField,omitempty" yaml:"y_field,omitempty"`
	AngleField string `json:"angleField,omitempty" yaml:"angle_field,omitempty"`
	ColorField string `json:"colorField,omitempty" yaml:"color_field,omitempty"`
}

// IsZero reports whether no field is configured.
func (f FieldMapping) IsZero() bool {
	return f == FieldMapping{}
}

// ChartDescriptor is the declarative kind plus field mapping of a result.
type ChartDescriptor struct {
	Kind   ChartKind    `json:"type" yaml:"type"`
	Fields FieldMapping `json:"config" yaml:"fields,omitempty"`
}

// =============================================================================
// QUERY RESULT
// =============================================================================

// QueryResult is the canonical payload of a successful query, independent
// of which backend contract produced it.
type QueryResult struct {
	QueryID     string          `json:"query_id" yaml:"query_id"`
	Answer      string          `json:"answer" yaml:"answer"`
	SQL         string          `json:"sql" yaml:"sql"`
	RecordCount int             `json:"record_count" yaml:"record_count"`
	Rows        []Row           `json:"rows" yaml:"rows"`
	Chart       ChartDescriptor `json:"chart" yaml:"chart"`
}

// Columns returns the column names of the first row, in wire order.
func (r *QueryResult) Columns() []string {
	if r == nil || len(r.Rows) == 0 {
		return nil
	}
	return r.Rows[0].Keys()
}

// HasRows reports whether the result carries any data rows.
func (r *QueryResult) HasRows() bool {
	return r != nil && len(r.Rows) > 0
}

// =============================================================================
// SATISFACTION
// =============================================================================

// Satisfaction is the user's feedback on a query result.
type Satisfaction string

const (
	Satisfied   Satisfaction = "satisfied"
	Neutral     Satisfaction = "neutral"
	Unsatisfied Satisfaction = "unsatisfied"
)

// ParseSatisfaction accepts the wire values plus a few shorthands.
func ParseSatisfaction(s string) (Satisfaction, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "satisfied", "up", "+", "good":
		return Satisfied, true
	case "neutral", "meh", "0":
		return Neutral, true
	case "unsatisfied", "down", "-", "bad":
		return Unsatisfied, true
	}
	return "", false
}
