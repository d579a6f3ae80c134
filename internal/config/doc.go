// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for chatbi.
//
// Supports both TOML and JSON configuration formats, with defaults, .env
// files, environment variable overrides, validation and hot reload.
//
// Configuration file locations (in order of precedence):
//   - the path given with --config
//   - $CHATBI_HOME/config.toml or ~/.chatbi/config.toml
//   - $CHATBI_HOME/config.json or ~/.chatbi/config.json
//   - built-in defaults
//
// # Usage
//
//	cfg, err := config.Load()
//	client := api.NewClientWithConfig(cfg.ClientConfig())
//
//	w, _ := config.NewWatcher(path, 200*time.Millisecond, func(c *config.Config) { ... })
//	go w.Run(ctx)
package config
