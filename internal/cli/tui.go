// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/jeranaias/chatbi-tui/internal/ui/app"
)

// ErrNoTerminal is returned when the TUI is started without a terminal.
var ErrNoTerminal = errors.New("the full-screen UI needs a terminal; use 'chatbi ask' or 'chatbi chat' instead")

func newTUICommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Open the full-screen chat (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, e)
		},
	}
}

func runTUI(cmd *cobra.Command, e *env) error {
	if !IsTTY() || !IsStdoutTTY() {
		return ErrNoTerminal
	}

	ctx, stop := signalContext(cmd.Context())
	defer stop()

	client := e.client()
	return app.Run(ctx, app.Options{
		Backend:      client,
		Config:       e.cfg,
		ConfigPath:   e.cfgPath,
		BackendLabel: client.BaseURL(),
	})
}
