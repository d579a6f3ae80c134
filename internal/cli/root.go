// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/jeranaias/chatbi-tui/internal/api"
	"github.com/jeranaias/chatbi-tui/internal/config"
	"github.com/jeranaias/chatbi-tui/internal/logging"
	"github.com/jeranaias/chatbi-tui/internal/ui/styles"
)

// Version information, set at build time with -ldflags.
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// =============================================================================
// SHARED STATE
// =============================================================================

// env holds what the persistent flags resolve to. One env exists per root
// command, so tests can build independent command trees.
type env struct {
	configPath string
	apiURL     string
	logLevel   string
	logConsole bool
	jsonOut    bool

	cfg       *config.Config
	cfgPath   string
	logCloser io.Closer
}

// load reads the config and applies flag overrides.
func (e *env) load() error {
	var err error
	if e.configPath != "" {
		e.cfg, err = config.LoadFromPath(e.configPath)
		e.cfgPath = e.configPath
	} else {
		e.cfg, err = config.Load()
		if err == nil {
			e.cfgPath, err = config.ResolvedPath()
		}
	}
	if err != nil {
		return err
	}
	if e.apiURL != "" {
		e.cfg.API.BaseURL = e.apiURL
		return e.cfg.Validate()
	}
	return nil
}

// setupLogging starts the file logger. console adds stderr output.
func (e *env) setupLogging(console bool) error {
	closer, err := logging.Setup(e.cfg.Log, logging.Options{
		Console: console || e.logConsole,
		Level:   e.logLevel,
	})
	if err != nil {
		return err
	}
	e.logCloser = closer
	return nil
}

func (e *env) close() {
	if e.logCloser != nil {
		e.logCloser.Close()
		e.logCloser = nil
	}
}

func (e *env) client() *api.Client {
	return api.NewClientWithConfig(e.cfg.ClientConfig())
}

func (e *env) theme() *styles.Theme {
	applyColorProfile()
	return styles.NewTheme(e.cfg.UI.Theme)
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// =============================================================================
// ROOT COMMAND
// =============================================================================

// NewRootCommand builds the chatbi command tree.
func NewRootCommand() *cobra.Command {
	e := &env{}

	root := &cobra.Command{
		Use:           "chatbi",
		Short:         "Ask business questions in plain language and get tables and charts back",
		Version:       fmt.Sprintf("%s (commit %s, built %s)", Version, GitCommit, BuildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if skipsSetup(cmd) {
				return nil
			}
			if err := e.load(); err != nil {
				return err
			}
			return e.setupLogging(cmd.Name() == "serve")
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			log.Debug().Str("command", cmd.CommandPath()).Msg("command finished")
			e.close()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, e)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&e.configPath, "config", "", "config file (default ~/.chatbi/config.toml)")
	flags.StringVar(&e.apiURL, "api-url", "", "Chat-BI API base URL, e.g. http://localhost:8000/api")
	flags.StringVar(&e.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	flags.BoolVar(&e.logConsole, "log-console", false, "also log to stderr")
	flags.BoolVar(&e.jsonOut, "json", false, "print machine-readable JSON")

	root.AddCommand(
		newTUICommand(e),
		newAskCommand(e),
		newChatCommand(e),
		newTemplatesCommand(e),
		newFeedbackCommand(e),
		newHistoryCommand(e),
		newConfigCommand(e),
		newServeCommand(e),
		newVersionCommand(e),
	)
	return root
}

// skipsSetup reports commands that must work without a valid config.
func skipsSetup(cmd *cobra.Command) bool {
	switch cmd.Name() {
	case "version", "path", "help":
		return true
	}
	return false
}

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	root := NewRootCommand()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorPrefix()+err.Error())
		return 1
	}
	return 0
}
