// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared by the chatbi packages.
//
// # Key Functions
//
//   - AtomicWriteFile: crash-safe file writing with fsync
//   - Truncate, PadRight, Width: display-width aware text helpers
//   - FormatValue, ToFloat: rendering of loosely typed JSON cell values
//
// # Usage
//
//	cell := util.PadRight(util.Truncate(util.FormatValue(v), 20), 20)
//	err := util.AtomicWriteFile(path, data, 0600)
package util
