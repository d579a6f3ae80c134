// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"bytes"
	"encoding/json"
	"fmt"

	orderedmap "github.com/wk8/go-ordered-map/v2"
	"gopkg.in/yaml.v3"
)

// Row is one result record. It preserves the column order of the JSON
// object it was decoded from, which the chart fallback depends on.
type Row struct {
	m *orderedmap.OrderedMap[string, any]
}

// NewRow builds a row from alternating key/value pairs.
//
//	model.NewRow("month", "Jan", "sales", 10)
func NewRow(kv ...any) Row {
	r := Row{m: orderedmap.New[string, any]()}
	for i := 0; i+1 < len(kv); i += 2 {
		r.m.Set(fmt.Sprint(kv[i]), kv[i+1])
	}
	return r
}

// RowFromColumns builds a row from parallel column and value slices.
func RowFromColumns(columns []string, values []any) Row {
	r := Row{m: orderedmap.New[string, any]()}
	for i, col := range columns {
		var v any
		if i < len(values) {
			v = values[i]
		}
		r.m.Set(col, v)
	}
	return r
}

// Get returns the value for key and whether the key is present.
func (r Row) Get(key string) (any, bool) {
	if r.m == nil {
		return nil, false
	}
	return r.m.Get(key)
}

// Has reports whether the row has the column key.
func (r Row) Has(key string) bool {
	_, ok := r.Get(key)
	return ok
}

// Len returns the number of columns.
func (r Row) Len() int {
	if r.m == nil {
		return 0
	}
	return r.m.Len()
}

// At returns the column at position i.
func (r Row) At(i int) (string, any, bool) {
	if r.m == nil || i < 0 {
		return "", nil, false
	}
	n := 0
	for pair := r.m.Oldest(); pair != nil; pair = pair.Next() {
		if n == i {
			return pair.Key, pair.Value, true
		}
		n++
	}
	return "", nil, false
}

// Keys returns the column names in order.
func (r Row) Keys() []string {
	if r.m == nil {
		return nil
	}
	keys := make([]string, 0, r.m.Len())
	for pair := r.m.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}

// Values returns the values in column order.
func (r Row) Values() []any {
	if r.m == nil {
		return nil
	}
	values := make([]any, 0, r.m.Len())
	for pair := r.m.Oldest(); pair != nil; pair = pair.Next() {
		values = append(values, pair.Value)
	}
	return values
}

// MarshalJSON writes the row as a JSON object in column order.
func (r Row) MarshalJSON() ([]byte, error) {
	if r.m == nil {
		return []byte("{}"), nil
	}
	return r.m.MarshalJSON()
}

// UnmarshalJSON reads a JSON object, keeping key order. null decodes to an
// empty row.
func (r *Row) UnmarshalJSON(data []byte) error {
	if string(bytes.TrimSpace(data)) == "null" {
		r.m = nil
		return nil
	}
	m := orderedmap.New[string, any]()
	if err := m.UnmarshalJSON(data); err != nil {
		return err
	}
	r.m = m
	return nil
}

// MarshalYAML writes the row as a YAML mapping in column order.
func (r Row) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	if r.m == nil {
		return node, nil
	}
	for pair := r.m.Oldest(); pair != nil; pair = pair.Next() {
		var val yaml.Node
		if err := val.Encode(pair.Value); err != nil {
			return nil, fmt.Errorf("encode column %q: %w", pair.Key, err)
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: pair.Key},
			&val,
		)
	}
	return node, nil
}

// ParseRows decodes a JSON array of objects into rows.
func ParseRows(data []byte) ([]Row, error) {
	var rows []Row
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("decode rows: %w", err)
	}
	return rows, nil
}
