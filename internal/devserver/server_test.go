// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package devserver

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/chatbi-tui/internal/api"
	"github.com/jeranaias/chatbi-tui/internal/model"
)

func newTestServer(t *testing.T, opts Options) (*Server, *api.Client) {
	t.Helper()
	store := openTestStore(t, true)
	srv := New(store, opts)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	client := api.NewClientWithConfig(&api.ClientConfig{BaseURL: ts.URL + "/api", Timeout: 5 * time.Second})
	return srv, client
}

func TestChatAnswersFromTemplate(t *testing.T) {
	_, client := newTestServer(t, Options{CacheTTL: time.Minute})
	ctx := context.Background()

	res, err := client.Chat(ctx, "monthly sales trend")
	require.NoError(t, err)

	assert.NotEmpty(t, res.QueryID)
	assert.Equal(t, SeedTemplates[0].SQL, res.SQL)
	assert.Equal(t, len(seedMonths), res.RecordCount)
	assert.Equal(t, model.ChartLine, res.Chart.Kind)
	assert.Equal(t, model.FieldMapping{XField: "month", YField: "total_sales"}, res.Chart.Fields)
	assert.Equal(t, []string{"month", "total_sales", "orders"}, res.Columns())
	assert.Contains(t, res.Answer, "6 record(s)")
}

func TestChatCacheStillRecordsHistory(t *testing.T) {
	srv, client := newTestServer(t, Options{CacheTTL: time.Minute})
	ctx := context.Background()

	first, err := client.Chat(ctx, "sales by region")
	require.NoError(t, err)
	second, err := client.Chat(ctx, "Sales per REGION?")
	require.NoError(t, err)

	assert.NotEqual(t, first.QueryID, second.QueryID)
	assert.Equal(t, first.SQL, second.SQL)
	assert.Equal(t, 1, srv.cache.ItemCount())

	entries, err := client.History(ctx, api.HistoryFilter{})
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestChatBusinessFailures(t *testing.T) {
	_, client := newTestServer(t, Options{})
	ctx := context.Background()

	tests := []struct {
		name     string
		question string
		contains string
	}{
		{"no template", "weather forecast tomorrow", "No SQL template matches"},
		{"unresolved parameters", "region sales for a given month", "needs parameters: month"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := client.Chat(ctx, tt.question)
			require.Error(t, err)
			assert.True(t, api.IsBusiness(err))
			assert.Contains(t, err.Error(), tt.contains)
		})
	}
}

func TestChatRejectsEmptyQuestion(t *testing.T) {
	_, client := newTestServer(t, Options{})

	_, err := client.Chat(context.Background(), "   ")
	var ce *api.ClientError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, http.StatusBadRequest, ce.StatusCode)
}

func TestLegacyQuery(t *testing.T) {
	_, client := newTestServer(t, Options{})
	ctx := context.Background()

	res, err := client.Query(ctx, "sales by region")
	require.NoError(t, err)
	assert.Equal(t, model.ChartPie, res.Chart.Kind)
	assert.Equal(t, model.FieldMapping{ColorField: "region", AngleField: "total_sales"}, res.Chart.Fields)
	assert.Equal(t, len(seedRegions), res.RecordCount)

	_, err = client.Query(ctx, "weather forecast")
	require.Error(t, err)
	assert.True(t, api.IsBusiness(err))
}

func TestSatisfactionAndHistory(t *testing.T) {
	_, client := newTestServer(t, Options{})
	ctx := context.Background()

	res, err := client.Chat(ctx, "product revenue")
	require.NoError(t, err)
	assert.Equal(t, model.ChartBar, res.Chart.Kind)

	require.NoError(t, client.SubmitSatisfaction(ctx, res.QueryID, model.Unsatisfied))

	entries, err := client.History(ctx, api.HistoryFilter{Keyword: "revenue"})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, res.QueryID, entries[0].QueryID)
	assert.Equal(t, model.Unsatisfied, entries[0].Satisfaction)

	err = client.SubmitSatisfaction(ctx, "no-such-query", model.Satisfied)
	assert.ErrorIs(t, err, api.ErrNotFound)

	_, err = client.History(ctx, api.HistoryFilter{StartDate: "yesterday"})
	var ce *api.ClientError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, http.StatusBadRequest, ce.StatusCode)
}

func TestTemplateEndpoints(t *testing.T) {
	srv, client := newTestServer(t, Options{CacheTTL: time.Minute})
	ctx := context.Background()

	list, err := client.ListTemplates(ctx)
	require.NoError(t, err)
	assert.Len(t, list, len(SeedTemplates))
	assert.Equal(t, SeedTemplates[0].Name, list[0].Name)

	_, err = client.Chat(ctx, "product revenue")
	require.NoError(t, err)
	assert.Equal(t, 1, srv.cache.ItemCount())

	created, err := client.CreateTemplate(ctx, model.Template{
		Name:        "top regions",
		Description: "Regions ranked by sales",
		SQL:         "SELECT region, SUM(amount) AS total FROM sales GROUP BY region ORDER BY total DESC",
	})
	require.NoError(t, err)
	assert.Equal(t, len(SeedTemplates)+1, created.ID)
	assert.Zero(t, srv.cache.ItemCount(), "template changes flush cached answers")

	created.Description = "Regions ranked by total sales"
	updated, err := client.UpdateTemplate(ctx, created)
	require.NoError(t, err)
	assert.Equal(t, created, updated)

	require.NoError(t, client.DeleteTemplate(ctx, created.ID))
	assert.ErrorIs(t, client.DeleteTemplate(ctx, created.ID), api.ErrNotFound)

	_, err = client.UpdateTemplate(ctx, created)
	assert.ErrorIs(t, err, api.ErrNotFound)

	_, err = client.CreateTemplate(ctx, model.Template{Name: "x"})
	var ce *api.ClientError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, http.StatusUnprocessableEntity, ce.StatusCode)
}

func TestTemplateRoutesWithoutTrailingSlash(t *testing.T) {
	srv, _ := newTestServer(t, Options{})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/templates", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/templates/abc", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRateLimit(t *testing.T) {
	srv, _ := newTestServer(t, Options{RatePerMinute: 2})

	codes := make([]int, 3)
	for i := range codes {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
		req.RemoteAddr = "203.0.113.7:5555"
		srv.Handler().ServeHTTP(rec, req)
		codes[i] = rec.Code
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	// A different client has its own allowance.
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.RemoteAddr = "203.0.113.8:5555"
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name   string
		remote string
		xff    string
		want   string
	}{
		{"direct public", "203.0.113.1:80", "", "203.0.113.1"},
		{"public ignores forwarded", "203.0.113.1:80", "198.51.100.9", "203.0.113.1"},
		{"proxy forwards", "127.0.0.1:80", "198.51.100.9, 10.0.0.1", "198.51.100.9"},
		{"proxy bad header", "10.1.2.3:80", "not-an-ip", "10.1.2.3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			assert.Equal(t, tt.want, clientIP(req))
		})
	}
}

func TestServeShutsDownOnCancel(t *testing.T) {
	store := openTestStore(t, true)
	srv := New(store, Options{ShutdownTimeout: time.Second})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	client := api.NewClientWithConfig(&api.ClientConfig{BaseURL: "http://" + ln.Addr().String() + "/api", Timeout: 2 * time.Second})
	require.Eventually(t, func() bool {
		return client.CheckReachable(context.Background()) == nil
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestRequestBodyLimits(t *testing.T) {
	srv, _ := newTestServer(t, Options{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader("{not json"))
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "detail")
}
