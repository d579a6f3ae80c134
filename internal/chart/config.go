// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chart

import (
	"github.com/jeranaias/chatbi-tui/internal/model"
	"github.com/jeranaias/chatbi-tui/internal/util"
)

// Series colors and labels used for generated configurations.
const (
	BarColor  = "#3b82f6"
	LineColor = "#10b981"

	DefaultSeriesName = "Value"
	PieSeriesName     = "Share"
	PieRadius         = "60%"
)

// =============================================================================
// CONFIG TYPES
// =============================================================================

// Config is a declarative chart description in the shape of an ECharts
// option object. The zero value is the empty configuration.
type Config struct {
	Kind    model.ChartKind `json:"-"`
	Tooltip *Tooltip        `json:"tooltip,omitempty"`
	Legend  *Legend         `json:"legend,omitempty"`
	XAxis   *Axis           `json:"xAxis,omitempty"`
	YAxis   *Axis           `json:"yAxis,omitempty"`
	Series  []Series        `json:"series,omitempty"`
}

// Tooltip configures hover behaviour.
type Tooltip struct {
	Trigger   string `json:"trigger"`
	Formatter string `json:"formatter,omitempty"`
}

// Legend configures the series legend.
type Legend struct {
	Type   string `json:"type"`
	Orient string `json:"orient"`
	Bottom int    `json:"bottom"`
}

// Axis is a category or value axis.
type Axis struct {
	Type string   `json:"type"`
	Data []string `json:"data,omitempty"`
}

// Series is one plotted series.
type Series struct {
	Name   string      `json:"name"`
	Type   string      `json:"type"`
	Data   []DataPoint `json:"data"`
	Smooth bool        `json:"smooth,omitempty"`
	Radius string      `json:"radius,omitempty"`
	Color  string      `json:"color,omitempty"`
}

// DataPoint is one value of a series. Name is the category for bar and
// line charts and the slice label for pie charts.
type DataPoint struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

// IsEmpty reports whether the configuration draws nothing.
func (c Config) IsEmpty() bool {
	return len(c.Series) == 0
}

// Categories returns the category axis labels, if any.
func (c Config) Categories() []string {
	if c.XAxis == nil {
		return nil
	}
	return c.XAxis.Data
}

// Values returns the raw values of the series in order.
func (s Series) Values() []any {
	out := make([]any, len(s.Data))
	for i, p := range s.Data {
		out[i] = p.Value
	}
	return out
}

// Names returns the point names of the series in order.
func (s Series) Names() []string {
	out := make([]string, len(s.Data))
	for i, p := range s.Data {
		out[i] = p.Name
	}
	return out
}

// =============================================================================
// MAPPING
// =============================================================================

// BuildConfig maps a chart kind, result rows and a field mapping to a chart
// configuration. It has no side effects. Table and unknown kinds yield the
// empty Config.
func BuildConfig(kind model.ChartKind, rows []model.Row, fields model.FieldMapping) Config {
	switch kind {
	case model.ChartBar, model.ChartLine:
		return cartesian(kind, rows, fields)
	case model.ChartPie:
		return pie(rows, fields)
	default:
		return Config{}
	}
}

// BuildFromResult is BuildConfig for a query result's own descriptor.
func BuildFromResult(res *model.QueryResult) Config {
	if res == nil {
		return Config{}
	}
	return BuildConfig(res.Chart.Kind, res.Rows, res.Chart.Fields)
}

func cartesian(kind model.ChartKind, rows []model.Row, fields model.FieldMapping) Config {
	categories := make([]string, len(rows))
	points := make([]DataPoint, len(rows))
	for i, row := range rows {
		label := lookup(row, fields.XField, 0)
		categories[i] = util.FormatValue(label)
		points[i] = DataPoint{Name: categories[i], Value: lookup(row, fields.YField, 1)}
	}

	name := fields.YField
	if name == "" {
		name = DefaultSeriesName
	}

	cfg := Config{
		Kind:    kind,
		Tooltip: &Tooltip{Trigger: "axis"},
		Legend:  defaultLegend(),
		XAxis:   &Axis{Type: "category", Data: categories},
		YAxis:   &Axis{Type: "value"},
	}
	series := Series{Name: name, Type: string(kind), Data: points, Color: BarColor}
	if kind == model.ChartLine {
		series.Smooth = true
		series.Color = LineColor
	}
	cfg.Series = []Series{series}
	return cfg
}

func pie(rows []model.Row, fields model.FieldMapping) Config {
	points := make([]DataPoint, len(rows))
	for i, row := range rows {
		points[i] = DataPoint{
			Name:  util.FormatValue(lookup(row, fields.ColorField, 0)),
			Value: lookup(row, fields.AngleField, 1),
		}
	}
	return Config{
		Kind:    model.ChartPie,
		Tooltip: &Tooltip{Trigger: "item", Formatter: "{a} <br/>{b}: {c} ({d}%)"},
		Legend:  defaultLegend(),
		Series: []Series{{
			Name:   PieSeriesName,
			Type:   string(model.ChartPie),
			Radius: PieRadius,
			Data:   points,
		}},
	}
}

// lookup returns row[field], or the value at position pos when the field
// is unset or absent from this row.
func lookup(row model.Row, field string, pos int) any {
	if field != "" {
		if v, ok := row.Get(field); ok {
			return v
		}
	}
	_, v, _ := row.At(pos)
	return v
}

func defaultLegend() *Legend {
	return &Legend{Type: "scroll", Orient: "horizontal", Bottom: 0}
}
