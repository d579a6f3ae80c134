// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package devserver

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/chatbi-tui/internal/model"
)

func openTestStore(t *testing.T, seed bool) *Store {
	t.Helper()
	s, err := OpenStore(context.Background(), filepath.Join(t.TempDir(), "dev.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	if seed {
		require.NoError(t, s.Seed(context.Background()))
	}
	return s
}

func TestSeedIsIdempotent(t *testing.T) {
	s := openTestStore(t, true)
	ctx := context.Background()
	require.NoError(t, s.Seed(ctx))

	list, err := s.ListTemplates(ctx)
	require.NoError(t, err)
	assert.Len(t, list, len(SeedTemplates))

	rows, err := s.RunQuery(ctx, "SELECT COUNT(*) AS n FROM sales")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	n, _ := rows[0].Get("n")
	assert.EqualValues(t, len(seedMonths)*len(seedRegions)*len(seedProducts), n)
}

func TestMemoryStore(t *testing.T) {
	s, err := OpenStore(context.Background(), ":memory:")
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.Seed(context.Background()))

	list, err := s.ListTemplates(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, list)
}

func TestTemplateCRUD(t *testing.T) {
	s := openTestStore(t, false)
	ctx := context.Background()

	created, err := s.CreateTemplate(ctx, model.Template{Name: "a", Description: "b", SQL: "SELECT 1"})
	require.NoError(t, err)
	assert.Equal(t, 1, created.ID)

	got, err := s.GetTemplate(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)

	created.Description = "changed"
	_, err = s.UpdateTemplate(ctx, created)
	require.NoError(t, err)
	got, err = s.GetTemplate(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "changed", got.Description)

	require.NoError(t, s.DeleteTemplate(ctx, created.ID))
	_, err = s.GetTemplate(ctx, created.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.DeleteTemplate(ctx, created.ID), ErrNotFound)
	_, err = s.UpdateTemplate(ctx, created)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRunQueryKeepsColumnOrder(t *testing.T) {
	s := openTestStore(t, true)

	rows, err := s.RunQuery(context.Background(),
		"SELECT region, SUM(amount) AS total, COUNT(*) AS orders FROM sales GROUP BY region ORDER BY region")
	require.NoError(t, err)
	require.Len(t, rows, len(seedRegions))

	assert.Equal(t, []string{"region", "total", "orders"}, rows[0].Keys())
	region, _ := rows[0].Get("region")
	assert.Equal(t, "East", region)
	orders, _ := rows[0].Get("orders")
	assert.EqualValues(t, len(seedMonths)*len(seedProducts), orders)
}

func TestHistory(t *testing.T) {
	s := openTestStore(t, false)
	ctx := context.Background()

	day1 := time.Date(2025, 1, 10, 8, 0, 0, 0, time.UTC)
	day2 := time.Date(2025, 1, 12, 23, 30, 0, 0, time.UTC)
	require.NoError(t, s.RecordHistory(ctx, "q1", "monthly sales", "SELECT month FROM sales", day1))
	require.NoError(t, s.RecordHistory(ctx, "q2", "sales by region", "SELECT region FROM sales", day2))

	require.NoError(t, s.SetSatisfaction(ctx, "q1", model.Satisfied))
	assert.ErrorIs(t, s.SetSatisfaction(ctx, "missing", model.Satisfied), ErrNotFound)

	tests := []struct {
		name   string
		filter HistoryQuery
		want   []string
	}{
		{"all newest first", HistoryQuery{}, []string{"q2", "q1"}},
		{"keyword in question", HistoryQuery{Keyword: "region"}, []string{"q2"}},
		{"keyword in sql", HistoryQuery{Keyword: "month"}, []string{"q1"}},
		{"start date", HistoryQuery{StartDate: "2025-01-11"}, []string{"q2"}},
		{"end date inclusive", HistoryQuery{EndDate: "2025-01-12"}, []string{"q2", "q1"}},
		{"end date excludes later", HistoryQuery{EndDate: "2025-01-11"}, []string{"q1"}},
		{"limit", HistoryQuery{Limit: 1}, []string{"q2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, err := s.ListHistory(ctx, tt.filter)
			require.NoError(t, err)
			ids := make([]string, len(entries))
			for i, e := range entries {
				ids[i] = e.QueryID
			}
			assert.Equal(t, tt.want, ids)
		})
	}

	entries, err := s.ListHistory(ctx, HistoryQuery{Keyword: "monthly"})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, model.Satisfied, entries[0].Satisfaction)
	assert.Equal(t, "2025-01-10 08:00:00", entries[0].CreatedAt)

	_, err = s.ListHistory(ctx, HistoryQuery{StartDate: "10/01/2025"})
	assert.ErrorIs(t, err, ErrBadFilter)
}
