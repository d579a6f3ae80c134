// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package devserver

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/jeranaias/chatbi-tui/internal/model"
)

var (
	// ErrNotFound is returned when a template or history row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrBadFilter is returned for malformed history filter dates.
	ErrBadFilter = errors.New("invalid history filter")
)

// timeLayout is how created_at is stored; it sorts lexically.
const timeLayout = "2006-01-02 15:04:05"

// Schema creates the system tables plus the demo business table.
const Schema = `
CREATE TABLE IF NOT EXISTS sql_templates (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	scenario TEXT NOT NULL,
	description TEXT NOT NULL,
	sql_text TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS query_history (
	query_id TEXT PRIMARY KEY,
	user_input TEXT NOT NULL,
	sql_query TEXT NOT NULL,
	satisfaction_level TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_history_created ON query_history(created_at);

CREATE TABLE IF NOT EXISTS sales (
	month TEXT NOT NULL,
	region TEXT NOT NULL,
	product TEXT NOT NULL,
	amount REAL NOT NULL
);
`

// =============================================================================
// STORE
// =============================================================================

// Store is the sqlite database behind the development backend.
type Store struct {
	db *sql.DB
}

// OpenStore opens (creating if needed) the database at path. ":memory:"
// gives a private in-memory database.
func OpenStore(ctx context.Context, path string) (*Store, error) {
	memory := path == ":memory:"
	dsn := path
	if !memory {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
		dsn = "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if memory {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(8)
		db.SetMaxIdleConns(2)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// =============================================================================
// TEMPLATES
// =============================================================================

// ListTemplates returns all templates ordered by id.
func (s *Store) ListTemplates(ctx context.Context) ([]model.Template, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, scenario, description, sql_text FROM sql_templates ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer rows.Close()

	var out []model.Template
	for rows.Next() {
		var t model.Template
		if err := rows.Scan(&t.ID, &t.Name, &t.Description, &t.SQL); err != nil {
			return nil, fmt.Errorf("scan template: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// GetTemplate returns one template.
func (s *Store) GetTemplate(ctx context.Context, id int) (model.Template, error) {
	var t model.Template
	err := s.db.QueryRowContext(ctx,
		`SELECT id, scenario, description, sql_text FROM sql_templates WHERE id = ?`, id,
	).Scan(&t.ID, &t.Name, &t.Description, &t.SQL)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Template{}, ErrNotFound
	}
	if err != nil {
		return model.Template{}, fmt.Errorf("get template %d: %w", id, err)
	}
	return t, nil
}

// CreateTemplate inserts t and returns it with its new id.
func (s *Store) CreateTemplate(ctx context.Context, t model.Template) (model.Template, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO sql_templates (scenario, description, sql_text) VALUES (?, ?, ?)`,
		t.Name, t.Description, t.SQL)
	if err != nil {
		return model.Template{}, fmt.Errorf("create template: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Template{}, fmt.Errorf("create template: %w", err)
	}
	t.ID = int(id)
	return t, nil
}

// UpdateTemplate overwrites the template with t.ID.
func (s *Store) UpdateTemplate(ctx context.Context, t model.Template) (model.Template, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE sql_templates SET scenario = ?, description = ?, sql_text = ? WHERE id = ?`,
		t.Name, t.Description, t.SQL, t.ID)
	if err != nil {
		return model.Template{}, fmt.Errorf("update template %d: %w", t.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.Template{}, ErrNotFound
	}
	return t, nil
}

// DeleteTemplate removes the template with id.
func (s *Store) DeleteTemplate(ctx context.Context, id int) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sql_templates WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete template %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// =============================================================================
// HISTORY
// =============================================================================

// HistoryQuery filters ListHistory. Dates are YYYY-MM-DD and inclusive.
type HistoryQuery struct {
	StartDate string
	EndDate   string
	Keyword   string
	Limit     int
}

// RecordHistory stores one answered question.
func (s *Store) RecordHistory(ctx context.Context, queryID, question, sqlText string, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO query_history (query_id, user_input, sql_query, created_at) VALUES (?, ?, ?, ?)`,
		queryID, question, sqlText, at.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("record history: %w", err)
	}
	return nil
}

// SetSatisfaction records feedback for a history row.
func (s *Store) SetSatisfaction(ctx context.Context, queryID string, level model.Satisfaction) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE query_history SET satisfaction_level = ? WHERE query_id = ?`, string(level), queryID)
	if err != nil {
		return fmt.Errorf("set satisfaction: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListHistory returns matching history rows, newest first.
func (s *Store) ListHistory(ctx context.Context, q HistoryQuery) ([]model.HistoryEntry, error) {
	var (
		where []string
		args  []any
	)
	if q.StartDate != "" {
		start, err := time.Parse(time.DateOnly, q.StartDate)
		if err != nil {
			return nil, fmt.Errorf("%w: start_date %q is not YYYY-MM-DD", ErrBadFilter, q.StartDate)
		}
		where = append(where, "created_at >= ?")
		args = append(args, start.Format(timeLayout))
	}
	if q.EndDate != "" {
		end, err := time.Parse(time.DateOnly, q.EndDate)
		if err != nil {
			return nil, fmt.Errorf("%w: end_date %q is not YYYY-MM-DD", ErrBadFilter, q.EndDate)
		}
		where = append(where, "created_at < ?")
		args = append(args, end.AddDate(0, 0, 1).Format(timeLayout))
	}
	if kw := strings.TrimSpace(q.Keyword); kw != "" {
		where = append(where, "(user_input LIKE ? OR sql_query LIKE ?)")
		args = append(args, "%"+kw+"%", "%"+kw+"%")
	}

	query := `SELECT query_id, user_input, sql_query, satisfaction_level, created_at FROM query_history`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	limit := q.Limit
	if limit <= 0 {
		limit = 100
	}
	query += " ORDER BY created_at DESC, rowid DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	out := []model.HistoryEntry{}
	for rows.Next() {
		var (
			e     model.HistoryEntry
			level string
		)
		if err := rows.Scan(&e.QueryID, &e.Question, &e.SQL, &level, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		e.Satisfaction = model.Satisfaction(level)
		out = append(out, e)
	}
	return out, rows.Err()
}

// =============================================================================
// QUERY EXECUTION
// =============================================================================

// RunQuery executes a validated SELECT and returns rows in column order.
func (s *Store) RunQuery(ctx context.Context, sqlText string) ([]model.Row, error) {
	rows, err := s.db.QueryContext(ctx, sqlText)
	if err != nil {
		return nil, fmt.Errorf("execute query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}

	out := []model.Row{}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		out = append(out, model.RowFromColumns(cols, values))
	}
	return out, rows.Err()
}

// =============================================================================
// SEED DATA
// =============================================================================

// SeedTemplates are loaded into an empty template table.
var SeedTemplates = []model.Template{
	{
		Name:        "monthly sales trend",
		Description: "Total sales amount and order count per month",
		SQL:         "SELECT month, SUM(amount) AS total_sales, COUNT(*) AS orders FROM sales GROUP BY month ORDER BY month",
	},
	{
		Name:        "sales by region",
		Description: "Share of total sales for each region",
		SQL:         "SELECT region, SUM(amount) AS total_sales FROM sales GROUP BY region ORDER BY region",
	},
	{
		Name:        "product revenue",
		Description: "Revenue, order count and average order value per product",
		SQL:         "SELECT product, SUM(amount) AS revenue, COUNT(*) AS orders, AVG(amount) AS avg_order FROM sales GROUP BY product ORDER BY revenue DESC",
	},
	{
		Name:        "region sales for a month",
		Description: "Sales per region in one given month",
		SQL:         "SELECT region, SUM(amount) AS total_sales FROM sales WHERE month = '{month}' GROUP BY region",
	},
}

var (
	seedMonths   = []string{"2024-01", "2024-02", "2024-03", "2024-04", "2024-05", "2024-06"}
	seedRegions  = []string{"North", "South", "East", "West"}
	seedProducts = []string{"Widget", "Gadget", "Gizmo"}
)

// Seed fills empty tables with demo data. Tables that already have rows
// are left alone.
func (s *Store) Seed(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed: %w", err)
	}
	defer tx.Rollback()

	var n int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM sales`).Scan(&n); err != nil {
		return fmt.Errorf("count sales: %w", err)
	}
	if n == 0 {
		for mi, month := range seedMonths {
			for ri, region := range seedRegions {
				for pi, product := range seedProducts {
					amount := float64(1000 + 150*mi + 320*ri + 75*pi*(mi+1))
					if _, err := tx.ExecContext(ctx,
						`INSERT INTO sales (month, region, product, amount) VALUES (?, ?, ?, ?)`,
						month, region, product, amount); err != nil {
						return fmt.Errorf("seed sales: %w", err)
					}
				}
			}
		}
	}

	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM sql_templates`).Scan(&n); err != nil {
		return fmt.Errorf("count templates: %w", err)
	}
	if n == 0 {
		for _, t := range SeedTemplates {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO sql_templates (scenario, description, sql_text) VALUES (?, ?, ?)`,
				t.Name, t.Description, t.SQL); err != nil {
				return fmt.Errorf("seed templates: %w", err)
			}
		}
	}

	return tx.Commit()
}
