// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/jeranaias/chatbi-tui/internal/config"
	"github.com/jeranaias/chatbi-tui/internal/devserver"
)

// devserverDB resolves the sqlite path: flag, then config, then the
// config directory.
func devserverDB(flag string, cfg config.DevServerConfig) (string, error) {
	if flag != "" {
		return flag, nil
	}
	if cfg.DBPath != "" {
		return cfg.DBPath, nil
	}
	if err := config.EnsureConfigDir(); err != nil {
		return "", err
	}
	dir, err := config.ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "devserver.db"), nil
}

func newServeCommand(e *env) *cobra.Command {
	var (
		addr   string
		dbPath string
		seed   bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the local development backend",
		Long: `Run a small Chat-BI backend over sqlite for development and demos.

It answers questions by matching them against stored templates, records
history and satisfaction, and serves the template CRUD endpoints.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext(cmd.Context())
			defer stop()

			dsCfg := e.cfg.DevServer
			if addr != "" {
				dsCfg.Addr = addr
			}
			path, err := devserverDB(dbPath, dsCfg)
			if err != nil {
				return err
			}

			store, err := devserver.OpenStore(ctx, path)
			if err != nil {
				return err
			}
			defer store.Close()

			if seed || dsCfg.Seed {
				if err := store.Seed(ctx); err != nil {
					return err
				}
			}

			log.Info().Str("db", path).Msg("development backend starting")
			return devserver.New(store, devserver.OptionsFromConfig(dsCfg)).Run(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	cmd.Flags().StringVar(&dbPath, "db", "", "sqlite database path")
	cmd.Flags().BoolVar(&seed, "seed", false, "load demo data into an empty database")
	return cmd
}
