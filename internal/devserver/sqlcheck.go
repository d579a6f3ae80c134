// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package devserver

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	// ErrNotSelect is returned for anything other than a single read query.
	ErrNotSelect = errors.New("only SELECT queries are allowed")

	// ErrUnresolvedParams is returned for templates with {param} placeholders.
	ErrUnresolvedParams = errors.New("template has unresolved parameters")
)

var (
	placeholderRe  = regexp.MustCompile(`\{(\w+)\}`)
	lineCommentRe  = regexp.MustCompile(`--[^\n]*`)
	blockCommentRe = regexp.MustCompile(`(?s)/\*.*?\*/`)
	wordRe         = regexp.MustCompile(`[A-Za-z_]+`)
)

// writeKeywords may not appear anywhere in a read query.
var writeKeywords = map[string]bool{
	"INSERT": true, "UPDATE": true, "DELETE": true, "DROP": true,
	"ALTER": true, "CREATE": true, "REPLACE": true, "ATTACH": true,
	"DETACH": true, "PRAGMA": true, "VACUUM": true, "REINDEX": true,
}

// Placeholders returns the distinct {name} parameters in sqlText, in order
// of first appearance.
func Placeholders(sqlText string) []string {
	var names []string
	seen := map[string]bool{}
	for _, m := range placeholderRe.FindAllStringSubmatch(sqlText, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			names = append(names, m[1])
		}
	}
	return names
}

// ValidateSelect accepts a single SELECT (or WITH ... SELECT) statement.
// A trailing semicolon is allowed.
func ValidateSelect(sqlText string) error {
	stripped := blockCommentRe.ReplaceAllString(sqlText, " ")
	stripped = lineCommentRe.ReplaceAllString(stripped, " ")
	stripped = strings.TrimSpace(stripped)
	stripped = strings.TrimSpace(strings.TrimSuffix(stripped, ";"))

	if stripped == "" {
		return fmt.Errorf("%w: empty statement", ErrNotSelect)
	}
	if strings.Contains(stripLiterals(stripped), ";") {
		return fmt.Errorf("%w: multiple statements", ErrNotSelect)
	}

	words := wordRe.FindAllString(stripLiterals(stripped), -1)
	if len(words) == 0 {
		return ErrNotSelect
	}
	first := strings.ToUpper(words[0])
	if first != "SELECT" && first != "WITH" {
		return fmt.Errorf("%w: statement starts with %s", ErrNotSelect, first)
	}
	for _, w := range words {
		if writeKeywords[strings.ToUpper(w)] {
			return fmt.Errorf("%w: contains %s", ErrNotSelect, strings.ToUpper(w))
		}
	}
	return nil
}

// stripLiterals blanks out quoted strings so their contents are not
// mistaken for keywords or separators.
func stripLiterals(s string) string {
	var sb strings.Builder
	var quote rune
	for _, r := range s {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
			sb.WriteRune(' ')
		case r == '\'' || r == '"' || r == '`':
			quote = r
			sb.WriteRune(' ')
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
