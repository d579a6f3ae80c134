// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jeranaias/chatbi-tui/internal/config"
)

func newConfigCommand(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change settings",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the effective configuration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				if e.jsonOut {
					return NewJSONResponse("config show", e.cfg).Print(cmd.OutOrStdout())
				}
				fmt.Fprintln(cmd.OutOrStdout(), e.cfg.String())
				return nil
			},
		},
		&cobra.Command{
			Use:       "get <key>",
			Short:     "Print one value, e.g. api.base_url",
			Args:      cobra.ExactArgs(1),
			ValidArgs: config.Keys(),
			RunE: func(cmd *cobra.Command, args []string) error {
				value, err := e.cfg.Get(args[0])
				if err != nil {
					return err
				}
				if e.jsonOut {
					return NewJSONResponse("config get", map[string]any{args[0]: value}).Print(cmd.OutOrStdout())
				}
				fmt.Fprintln(cmd.OutOrStdout(), value)
				return nil
			},
		},
		&cobra.Command{
			Use:       "set <key> <value>",
			Short:     "Change one value and save the config file",
			Args:      cobra.ExactArgs(2),
			ValidArgs: config.Keys(),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := e.cfg.Set(args[0], args[1]); err != nil {
					return err
				}
				if err := e.cfg.Validate(); err != nil {
					return err
				}
				if err := config.SaveTo(e.cfg, e.cfgPath); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s = %s (saved to %s)\n", args[0], args[1], e.cfgPath)
				return nil
			},
		},
		&cobra.Command{
			Use:   "path",
			Short: "Print the config file location",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				path := e.configPath
				if path == "" {
					var err error
					if path, err = config.ResolvedPath(); err != nil {
						return err
					}
				}
				fmt.Fprintln(cmd.OutOrStdout(), path)
				return nil
			},
		},
	)
	return cmd
}
