// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logging configures the global zerolog logger.
//
// Logs go to a size-rotated file so that nothing is written over the
// terminal UI. Console output to stderr can be added for the CLI and the
// development server.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/jeranaias/chatbi-tui/internal/config"
)

// Options adjusts Setup beyond the config file.
type Options struct {
	// Console also writes human-readable lines to Stderr.
	Console bool
	// Level overrides cfg.Level when non-empty.
	Level string
	// Stderr is the console destination (default os.Stderr).
	Stderr io.Writer
}

// Setup installs the global logger described by cfg and returns a closer
// for the log file.
func Setup(cfg config.LogConfig, opts Options) (io.Closer, error) {
	levelName := cfg.Level
	if opts.Level != "" {
		levelName = opts.Level
	}
	level, err := zerolog.ParseLevel(levelName)
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}

	path := cfg.File
	if path == "" {
		dir, err := config.ConfigDir()
		if err != nil {
			return nil, err
		}
		path = filepath.Join(dir, "chatbi.log")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}

	file := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   true,
	}

	var w io.Writer = file
	if opts.Console {
		stderr := opts.Stderr
		if stderr == nil {
			stderr = os.Stderr
		}
		console := zerolog.ConsoleWriter{Out: stderr, TimeFormat: time.Kitchen}
		w = zerolog.MultiLevelWriter(file, console)
	}

	zerolog.SetGlobalLevel(level)
	log.Logger = zerolog.New(w).With().Timestamp().Logger()

	log.Debug().Str("file", path).Str("level", level.String()).Msg("logging initialized")
	return file, nil
}

// Discard silences the global logger. Used by commands that must not
// create a log file.
func Discard() {
	log.Logger = zerolog.Nop()
}
