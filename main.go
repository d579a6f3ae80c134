// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chatbi is a terminal client for Chat-BI backends.
package main

import (
	"os"

	"github.com/jeranaias/chatbi-tui/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
