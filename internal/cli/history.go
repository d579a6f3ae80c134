// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jeranaias/chatbi-tui/internal/api"
	"github.com/jeranaias/chatbi-tui/internal/model"
	"github.com/jeranaias/chatbi-tui/internal/ui/components"
)

const dateLayout = "2006-01-02"

func historyRows(entries []model.HistoryEntry) []model.Row {
	rows := make([]model.Row, 0, len(entries))
	for _, h := range entries {
		rating := string(h.Satisfaction)
		if rating == "" {
			rating = "-"
		}
		rows = append(rows, model.NewRow(
			"query_id", h.QueryID,
			"question", h.Question,
			"rating", rating,
			"asked", h.CreatedAt,
		))
	}
	return rows
}

// checkDate accepts an empty string or a YYYY-MM-DD date.
func checkDate(flag, value string) error {
	if value == "" {
		return nil
	}
	if _, err := time.Parse(dateLayout, value); err != nil {
		return fmt.Errorf("--%s: want YYYY-MM-DD, got %q", flag, value)
	}
	return nil
}

func newHistoryCommand(e *env) *cobra.Command {
	var filter api.HistoryFilter
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List past queries from the backend",
		Example: `  chatbi history --keyword sales
  chatbi history --since 2025-01-01 --until 2025-01-31`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkDate("since", filter.StartDate); err != nil {
				return err
			}
			if err := checkDate("until", filter.EndDate); err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), e.cfg.Timeout())
			defer cancel()
			entries, err := e.client().History(ctx, filter)
			if err != nil {
				return fmt.Errorf("history: %w", err)
			}

			w := cmd.OutOrStdout()
			if e.jsonOut {
				return NewJSONResponse("history", entries).Print(w)
			}
			theme := e.theme()
			if len(entries) == 0 {
				fmt.Fprintln(w, theme.Muted.Render("no matching queries"))
				return nil
			}
			table := components.Table{Rows: historyRows(entries), MaxWidth: TerminalWidth()}
			fmt.Fprintln(w, table.Render(theme))
			return nil
		},
	}
	cmd.Flags().StringVarP(&filter.Keyword, "keyword", "k", "", "only questions containing this text")
	cmd.Flags().StringVar(&filter.StartDate, "since", "", "earliest date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&filter.EndDate, "until", "", "latest date (YYYY-MM-DD)")
	return cmd
}
