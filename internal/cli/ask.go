// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeranaias/chatbi-tui/internal/dispatch"
	"github.com/jeranaias/chatbi-tui/internal/model"
	"github.com/jeranaias/chatbi-tui/internal/session"
)

// askData is the --json payload of "chatbi ask".
type askData struct {
	Question   string             `json:"question"`
	Answer     string             `json:"answer"`
	Result     *model.QueryResult `json:"result,omitempty"`
	DurationMs int64              `json:"duration_ms"`
}

func newAskCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "ask <question...>",
		Short: "Ask a single question and print the answer",
		Example: `  chatbi ask "total sales by region"
  chatbi ask --json monthly revenue trend`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext(cmd.Context())
			defer stop()

			d := dispatch.New(session.NewStore(), e.client(), dispatch.WithTimeout(e.cfg.Timeout()))
			out, err := d.Submit(ctx, strings.Join(args, " "))
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if out.Failed() {
				if e.jsonOut {
					NewJSONErrorResponse("ask", out.Err).Print(w)
				} else {
					fmt.Fprintln(w, dispatch.FailureMessage)
				}
				return fmt.Errorf("query failed: %w", out.Err)
			}

			if e.jsonOut {
				return NewJSONResponse("ask", askData{
					Question:   out.Question,
					Answer:     out.Result.Answer,
					Result:     out.Result,
					DurationMs: out.Duration.Milliseconds(),
				}).Print(w)
			}
			e.printer().printAnswer(w, out.Result.Answer, out.Result)
			return nil
		},
	}
}
