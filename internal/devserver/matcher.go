// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package devserver

import (
	"strings"
	"unicode"

	"github.com/jeranaias/chatbi-tui/internal/model"
)

// stopWords carry no meaning for template matching.
var stopWords = map[string]bool{
	"a": true, "an": true, "the": true, "of": true, "by": true, "for": true,
	"in": true, "on": true, "and": true, "to": true, "me": true, "show": true,
	"what": true, "is": true, "are": true, "per": true, "each": true,
	"all": true, "give": true, "list": true, "how": true, "much": true,
	"many": true, "please": true, "get": true, "our": true, "with": true,
}

// tokenize lowercases s, splits it into words and drops stop words. A
// trailing plural "s" is removed so "sales" and "sale" match.
func tokenize(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := fields[:0]
	for _, f := range fields {
		if stopWords[f] {
			continue
		}
		if len(f) > 3 && strings.HasSuffix(f, "s") && !strings.HasSuffix(f, "ss") {
			f = strings.TrimSuffix(f, "s")
		}
		out = append(out, f)
	}
	return out
}

// normalizeQuestion is the cache key for a question.
func normalizeQuestion(q string) string {
	return strings.Join(tokenize(q), " ")
}

// matchTemplate picks the template whose scenario and description share
// the most words with the question. Ties go to the lowest id. Words made of
// non-ASCII letters also match as substrings, since such scripts are not
// space separated.
func matchTemplate(question string, templates []model.Template) (model.Template, int, bool) {
	qTokens := tokenize(question)
	qText := strings.ToLower(question)

	var (
		best      model.Template
		bestScore int
	)
	for _, t := range templates {
		vocab := map[string]bool{}
		for _, tok := range tokenize(t.Name + " " + t.Description) {
			vocab[tok] = true
		}

		score := 0
		seen := map[string]bool{}
		for _, tok := range qTokens {
			if vocab[tok] && !seen[tok] {
				seen[tok] = true
				score++
			}
		}
		for tok := range vocab {
			if !seen[tok] && !isASCII(tok) && len([]rune(tok)) >= 2 && strings.Contains(qText, tok) {
				seen[tok] = true
				score++
			}
		}

		if score > bestScore || (score == bestScore && score > 0 && t.ID < best.ID) {
			best, bestScore = t, score
		}
	}
	return best, bestScore, bestScore > 0
}

func isASCII(s string) bool {
	for _, r := range s {
		if r > unicode.MaxASCII {
			return false
		}
	}
	return true
}
