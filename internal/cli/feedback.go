// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jeranaias/chatbi-tui/internal/model"
)

func newFeedbackCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "feedback <query_id> <satisfied|neutral|unsatisfied>",
		Short: "Rate an answer",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			queryID := args[0]
			level, ok := model.ParseSatisfaction(args[1])
			if !ok {
				return fmt.Errorf("unknown satisfaction level %q (want satisfied, neutral or unsatisfied)", args[1])
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), feedbackTimeout)
			defer cancel()
			if err := e.client().SubmitSatisfaction(ctx, queryID, level); err != nil {
				return fmt.Errorf("feedback: %w", err)
			}

			w := cmd.OutOrStdout()
			if e.jsonOut {
				return NewJSONResponse("feedback", map[string]string{
					"query_id":           queryID,
					"satisfaction_level": string(level),
				}).Print(w)
			}
			fmt.Fprintln(w, e.theme().Success.Render(fmt.Sprintf("recorded %s for %s", level, queryID)))
			return nil
		},
	}
}
