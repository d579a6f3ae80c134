// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the chatbi command line.
//
// Usage:
//
//	chatbi [tui]                       full-screen chat (default)
//	chatbi ask <question...>           one question, printed answer
//	chatbi chat                        line-mode chat
//	chatbi templates list|show|add|edit|rm
//	chatbi feedback <query-id> <level>
//	chatbi history [--keyword k] [--since d] [--until d]
//	chatbi config show|get|set|path
//	chatbi serve                       local development backend
//	chatbi version
//
// Global flags: --config, --api-url, --log-level, --log-console, --json.
package cli
