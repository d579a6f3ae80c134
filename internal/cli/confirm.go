// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// =============================================================================
// CONFIRMATION
// =============================================================================

// ErrConfirmationRequired is returned when a destructive command cannot
// prompt and --yes was not given.
var ErrConfirmationRequired = errors.New("confirmation required: re-run with --yes")

// confirmOptions describes how a destructive command may be confirmed.
type confirmOptions struct {
	// Yes is the --yes flag.
	Yes bool
	// JSONMode disables prompting.
	JSONMode bool
	// Interactive reports whether in is a terminal.
	Interactive bool
}

// requireConfirmation asks "action? [y/N]" unless --yes was given. JSON
// mode and non-interactive input never prompt and need --yes instead.
func requireConfirmation(in io.Reader, out io.Writer, action string, opts confirmOptions) (bool, error) {
	if opts.Yes {
		return true, nil
	}
	if opts.JSONMode || !opts.Interactive {
		return false, ErrConfirmationRequired
	}

	fmt.Fprintf(out, "%s? [y/N] ", action)
	answer, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	return isYes(answer), nil
}

func isYes(answer string) bool {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	}
	return false
}
