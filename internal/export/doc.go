// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes a chat session transcript to disk.
//
// # Supported Formats
//
//   - Markdown: readable transcript with SQL blocks and result tables
//   - JSON: the full message log including result rows
//   - YAML: same content as JSON, rows keep their column order
//
// Files are written atomically. Exports are one-way; nothing here is read
// back into a session.
//
// # Usage
//
//	tr := export.FromStore(store)
//	path, err := export.ToFile(tr, export.FormatMarkdown, "", nil)
package export
