// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/peterh/liner"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/jeranaias/chatbi-tui/internal/api"
	"github.com/jeranaias/chatbi-tui/internal/config"
	"github.com/jeranaias/chatbi-tui/internal/dispatch"
	"github.com/jeranaias/chatbi-tui/internal/export"
	"github.com/jeranaias/chatbi-tui/internal/model"
	"github.com/jeranaias/chatbi-tui/internal/session"
	"github.com/jeranaias/chatbi-tui/internal/ui/components"
)

const (
	chatPrompt      = "chatbi> "
	historyFileName = "chat_history"
	feedbackTimeout = 10 * time.Second
)

// =============================================================================
// LINE INPUT
// =============================================================================

// prompter reads one line of input.
type prompter interface {
	Prompt(prompt string) (string, error)
}

// lineReader wraps liner with a history file in the config directory.
type lineReader struct {
	line        *liner.State
	historyFile string
}

func newLineReader() *lineReader {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	r := &lineReader{line: line}
	if dir, err := config.ConfigDir(); err == nil {
		r.historyFile = filepath.Join(dir, historyFileName)
		if f, err := os.Open(r.historyFile); err == nil {
			line.ReadHistory(f)
			f.Close()
		}
	}
	return r
}

// Prompt reads a line and records non-empty input in the history.
func (r *lineReader) Prompt(prompt string) (string, error) {
	input, err := r.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		r.line.AppendHistory(input)
	}
	return input, nil
}

// Close saves the history and restores the terminal.
func (r *lineReader) Close() error {
	defer r.line.Close()
	if r.historyFile == "" {
		return nil
	}
	if err := config.EnsureConfigDir(); err != nil {
		return err
	}
	f, err := os.OpenFile(r.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = r.line.WriteHistory(f)
	return err
}

// =============================================================================
// REPL
// =============================================================================

// replBackend is what the REPL needs beyond asking questions.
type replBackend interface {
	dispatch.Asker
	SubmitSatisfaction(ctx context.Context, queryID string, level model.Satisfaction) error
	History(ctx context.Context, filter api.HistoryFilter) ([]model.HistoryEntry, error)
}

// replCommand is a slash command. run returns true to leave the REPL.
type replCommand struct {
	args  string
	usage string
	run   func(r *repl, args []string) (bool, error)
}

var replCommands map[string]replCommand

func init() {
	replCommands = map[string]replCommand{
		"help":    {usage: "show commands", run: (*repl).help},
		"clear":   {usage: "start a new conversation", run: (*repl).clear},
		"export":  {args: "[md|json|yaml] [path]", usage: "write the transcript to a file", run: (*repl).export},
		"sql":     {usage: "toggle SQL display", run: (*repl).toggleSQL},
		"history": {args: "[keyword]", usage: "list recent queries from the backend", run: (*repl).history},
		"rate":    {args: "+|-", usage: "rate the last answer", run: (*repl).rateCmd},
		"quit":    {usage: "leave", run: (*repl).quit},
	}
	replCommands["exit"] = replCommands["quit"]
	replCommands["q"] = replCommands["quit"]
}

// repl is the line-mode chat loop.
type repl struct {
	ctx          context.Context
	in           prompter
	out          io.Writer
	backend      replBackend
	disp         *dispatch.Dispatcher
	store        *session.Store
	printer      *resultPrinter
	confirmClear bool
	maxRows      int
}

func newREPL(ctx context.Context, e *env, in prompter, out io.Writer, backend replBackend) *repl {
	store := session.NewStore()
	return &repl{
		ctx:          ctx,
		in:           in,
		out:          out,
		backend:      backend,
		disp:         dispatch.New(store, backend, dispatch.WithTimeout(e.cfg.Timeout())),
		store:        store,
		printer:      e.printer(),
		confirmClear: e.cfg.UI.ConfirmClear,
		maxRows:      e.cfg.UI.MaxTableRows,
	}
}

// run reads lines until /quit, EOF or Ctrl+C at the prompt.
func (r *repl) run() error {
	fmt.Fprintln(r.out, r.printer.theme.Muted.Render("Ask a question, or /help for commands. Ctrl+C cancels a running query."))
	for {
		line, err := r.in.Prompt(chatPrompt)
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				fmt.Fprintln(r.out)
				return nil
			}
			return err
		}

		quit, err := r.handle(strings.TrimSpace(line))
		if err != nil {
			fmt.Fprintln(r.out, r.printer.theme.Error.Render(errorPrefix()+err.Error()))
		}
		if quit {
			return nil
		}
	}
}

func (r *repl) handle(line string) (bool, error) {
	switch {
	case line == "":
		return false, nil
	case line == "+" || line == "-":
		return false, r.rate(line)
	case strings.HasPrefix(line, "/"):
		fields := strings.Fields(line[1:])
		if len(fields) == 0 {
			return false, nil
		}
		cmd, ok := replCommands[strings.ToLower(fields[0])]
		if !ok {
			return false, fmt.Errorf("unknown command /%s (try /help)", fields[0])
		}
		return cmd.run(r, fields[1:])
	}
	return false, r.ask(line)
}

// ask dispatches one question. Ctrl+C while it runs cancels only the query.
func (r *repl) ask(question string) error {
	ctx, stop := signal.NotifyContext(r.ctx, os.Interrupt)
	defer stop()

	out, err := r.disp.Submit(ctx, question)
	if err != nil {
		return err
	}
	if out.Failed() {
		fmt.Fprintln(r.out, r.printer.theme.FailedMessage.Render(dispatch.FailureMessage))
		log.Debug().Err(out.Err).Msg("repl query failed")
		return nil
	}
	r.printer.printAnswer(r.out, out.Result.Answer, out.Result)
	return nil
}

func (r *repl) help(args []string) (bool, error) {
	names := make([]string, 0, len(replCommands))
	for name := range replCommands {
		if name == "exit" || name == "q" {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		cmd := replCommands[name]
		usage := "/" + name
		if cmd.args != "" {
			usage += " " + cmd.args
		}
		fmt.Fprintf(r.out, "  %-28s %s\n", usage, cmd.usage)
	}
	fmt.Fprintf(r.out, "  %-28s %s\n", "+ / -", "rate the last answer")
	return false, nil
}

func (r *repl) clear(args []string) (bool, error) {
	if r.store.Len() == 0 {
		return false, nil
	}
	if r.confirmClear {
		answer, err := r.in.Prompt("Clear the conversation? [y/N] ")
		if err != nil || !isYes(answer) {
			fmt.Fprintln(r.out, r.printer.theme.Muted.Render("kept"))
			return false, nil
		}
	}
	r.store.Clear()
	fmt.Fprintln(r.out, r.printer.theme.Success.Render("conversation cleared"))
	return false, nil
}

func (r *repl) export(args []string) (bool, error) {
	format := export.FormatMarkdown
	path := ""
	if len(args) > 0 {
		f, err := export.ParseFormat(args[0])
		if err != nil {
			return false, err
		}
		format = f
	}
	if len(args) > 1 {
		path = args[1]
	}

	opts := export.DefaultOptions()
	opts.MaxRows = r.maxRows
	written, err := export.ToFile(export.FromStore(r.store), format, path, opts)
	if err != nil {
		return false, err
	}
	fmt.Fprintln(r.out, r.printer.theme.Success.Render("exported to "+written))
	return false, nil
}

func (r *repl) toggleSQL(args []string) (bool, error) {
	r.printer.showSQL = !r.printer.showSQL
	state := "hidden"
	if r.printer.showSQL {
		state = "shown"
	}
	fmt.Fprintln(r.out, r.printer.theme.Muted.Render("SQL "+state))
	return false, nil
}

func (r *repl) history(args []string) (bool, error) {
	ctx, cancel := context.WithTimeout(r.ctx, feedbackTimeout)
	defer cancel()

	entries, err := r.backend.History(ctx, api.HistoryFilter{Keyword: strings.Join(args, " ")})
	if err != nil {
		return false, fmt.Errorf("history: %w", err)
	}
	if len(entries) == 0 {
		fmt.Fprintln(r.out, r.printer.theme.Muted.Render("no matching queries"))
		return false, nil
	}
	table := components.Table{Rows: historyRows(entries), MaxRows: r.maxRows, MaxWidth: r.printer.width}
	fmt.Fprintln(r.out, table.Render(r.printer.theme))
	return false, nil
}

func (r *repl) rateCmd(args []string) (bool, error) {
	if len(args) != 1 {
		return false, errors.New("usage: /rate +|-")
	}
	return false, r.rate(args[0])
}

// rate sends satisfaction for the newest answer that has a query ID.
func (r *repl) rate(arg string) error {
	level, ok := model.ParseSatisfaction(arg)
	if !ok {
		return fmt.Errorf("unknown rating %q", arg)
	}
	msg, ok := r.store.LastResult()
	if !ok || msg.Result.QueryID == "" {
		return errors.New("no answer to rate yet")
	}

	ctx, cancel := context.WithTimeout(r.ctx, feedbackTimeout)
	defer cancel()
	if err := r.backend.SubmitSatisfaction(ctx, msg.Result.QueryID, level); err != nil {
		log.Warn().Err(err).Str("query_id", msg.Result.QueryID).Msg("feedback failed")
		return fmt.Errorf("feedback: %w", err)
	}
	fmt.Fprintln(r.out, r.printer.theme.Success.Render("thanks, recorded "+string(level)))
	return nil
}

func (r *repl) quit(args []string) (bool, error) {
	return true, nil
}

// =============================================================================
// COMMAND
// =============================================================================

func newChatCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Line-mode chat with input history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in := newLineReader()
			defer func() {
				if err := in.Close(); err != nil {
					log.Warn().Err(err).Msg("saving chat history failed")
				}
			}()

			r := newREPL(cmd.Context(), e, in, cmd.OutOrStdout(), e.client())
			return r.run()
		},
	}
}
