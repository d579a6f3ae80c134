// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/chatbi-tui/internal/config"
)

func restoreGlobal(t *testing.T) {
	prevLogger, prevLevel := log.Logger, zerolog.GlobalLevel()
	t.Cleanup(func() {
		log.Logger = prevLogger
		zerolog.SetGlobalLevel(prevLevel)
	})
}

func TestSetup_WritesToFile(t *testing.T) {
	restoreGlobal(t)
	path := filepath.Join(t.TempDir(), "logs", "chatbi.log")

	closer, err := Setup(config.LogConfig{Level: "info", File: path, MaxSizeMB: 1}, Options{})
	require.NoError(t, err)

	log.Info().Str("query_id", "q-1").Msg("query answered")
	log.Debug().Msg("hidden at info")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"query_id":"q-1"`)
	assert.NotContains(t, string(data), "hidden at info")
}

func TestSetup_ConsoleAndLevelOverride(t *testing.T) {
	restoreGlobal(t)
	var stderr bytes.Buffer
	path := filepath.Join(t.TempDir(), "chatbi.log")

	closer, err := Setup(config.LogConfig{Level: "error", File: path}, Options{Console: true, Level: "debug", Stderr: &stderr})
	require.NoError(t, err)
	defer closer.Close()

	log.Debug().Msg("visible")
	assert.True(t, strings.Contains(stderr.String(), "visible"))
}

func TestSetup_BadLevel(t *testing.T) {
	restoreGlobal(t)
	_, err := Setup(config.LogConfig{Level: "chatty"}, Options{})
	assert.Error(t, err)
}
