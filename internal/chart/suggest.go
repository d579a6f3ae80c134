// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chart

import (
	"strings"

	"github.com/jeranaias/chatbi-tui/internal/model"
	"github.com/jeranaias/chatbi-tui/internal/util"
)

// timeHints mark a column as a time dimension.
var timeHints = []string{"time", "date", "year", "month", "day", "时间", "日期", "年", "月"}

// Suggest picks a chart kind for rows. No rows gives a table; two columns
// with exactly one numeric gives a pie; a time-like column gives a line;
// any all-numeric column gives a bar; anything else stays a table.
func Suggest(rows []model.Row) model.ChartKind {
	if len(rows) == 0 {
		return model.ChartTable
	}

	columns := rows[0].Keys()
	numeric := make([]bool, len(columns))
	numericCount := 0
	for i, col := range columns {
		numeric[i] = columnIsNumeric(rows, col)
		if numeric[i] {
			numericCount++
		}
	}

	if len(columns) == 2 && numericCount == 1 {
		return model.ChartPie
	}
	if len(columns) > 1 {
		for _, col := range columns {
			if isTimeColumn(col) {
				return model.ChartLine
			}
		}
	}
	if numericCount > 0 {
		return model.ChartBar
	}
	return model.ChartTable
}

// DefaultFields derives a field mapping from the first row: the first
// non-numeric column is the category and the first numeric column the
// value, falling back to columns one and two.
func DefaultFields(kind model.ChartKind, rows []model.Row) model.FieldMapping {
	if len(rows) == 0 {
		return model.FieldMapping{}
	}

	columns := rows[0].Keys()
	label, value := "", ""
	for _, col := range columns {
		if columnIsNumeric(rows, col) {
			if value == "" {
				value = col
			}
		} else if label == "" {
			label = col
		}
	}
	if label == "" && len(columns) > 0 {
		label = columns[0]
	}
	if value == "" && len(columns) > 1 {
		value = columns[1]
	}

	switch kind {
	case model.ChartPie:
		return model.FieldMapping{ColorField: label, AngleField: value}
	case model.ChartBar, model.ChartLine:
		return model.FieldMapping{XField: label, YField: value}
	default:
		return model.FieldMapping{}
	}
}

func columnIsNumeric(rows []model.Row, col string) bool {
	seen := false
	for _, row := range rows {
		v, ok := row.Get(col)
		if !ok || v == nil {
			continue
		}
		if _, isStr := v.(string); isStr {
			return false
		}
		if _, ok := util.ToFloat(v); !ok {
			return false
		}
		seen = true
	}
	return seen
}

func isTimeColumn(col string) bool {
	lower := strings.ToLower(col)
	for _, hint := range timeHints {
		if strings.Contains(lower, hint) {
			return true
		}
	}
	return false
}
