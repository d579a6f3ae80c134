// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/jeranaias/chatbi-tui/internal/model"
	"github.com/jeranaias/chatbi-tui/internal/session"
	"github.com/jeranaias/chatbi-tui/internal/util"
)

// ErrEmptyTranscript is returned when there is nothing to export.
var ErrEmptyTranscript = errors.New("session has no messages")

// =============================================================================
// TRANSCRIPT
// =============================================================================

// Transcript is a snapshot of a chat session.
type Transcript struct {
	SessionID  string          `json:"session_id" yaml:"session_id"`
	StartedAt  time.Time       `json:"started_at" yaml:"started_at"`
	ExportedAt time.Time       `json:"exported_at" yaml:"exported_at"`
	Messages   []model.Message `json:"messages" yaml:"messages"`
}

// FromStore snapshots the current session.
func FromStore(s *session.Store) *Transcript {
	return &Transcript{
		SessionID:  s.ID(),
		StartedAt:  s.StartTime(),
		ExportedAt: time.Now(),
		Messages:   s.Messages(),
	}
}

func (t *Transcript) validate() error {
	if t == nil || len(t.Messages) == 0 {
		return ErrEmptyTranscript
	}
	return nil
}

// =============================================================================
// FORMATS
// =============================================================================

// Format is an export file format.
type Format string

const (
	FormatMarkdown Format = "md"
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
)

// Formats lists the supported formats.
var Formats = []Format{FormatMarkdown, FormatJSON, FormatYAML}

// ParseFormat accepts a format name or a common alias.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")) {
	case "", "md", "markdown":
		return FormatMarkdown, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported export format: %s", s)
	}
}

// Exporter renders a transcript in one format.
type Exporter interface {
	Export(t *Transcript) ([]byte, error)
	FileExtension() string
	MimeType() string
}

// New returns the exporter for f.
func New(f Format, opts *Options) (Exporter, error) {
	switch f {
	case FormatMarkdown:
		return NewMarkdownExporter(opts), nil
	case FormatJSON:
		return NewJSONExporter(), nil
	case FormatYAML:
		return NewYAMLExporter(), nil
	default:
		return nil, fmt.Errorf("unsupported export format: %s", f)
	}
}

// =============================================================================
// OPTIONS
// =============================================================================

// Options configures export behavior.
type Options struct {
	// OutputDir is used when no explicit path is given.
	OutputDir string

	// IncludeTimestamps adds per-message times to Markdown output.
	IncludeTimestamps bool

	// MaxRows caps the result table rows in Markdown output. Zero means all.
	MaxRows int
}

// DefaultOptions returns default export options.
func DefaultOptions() *Options {
	return &Options{
		OutputDir:         ".",
		IncludeTimestamps: true,
		MaxRows:           50,
	}
}

// =============================================================================
// FILE OUTPUT
// =============================================================================

// ToFile exports t in format f. An empty path writes a generated file name
// under opts.OutputDir. Returns the written path.
func ToFile(t *Transcript, f Format, path string, opts *Options) (string, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	exp, err := New(f, opts)
	if err != nil {
		return "", err
	}
	content, err := exp.Export(t)
	if err != nil {
		return "", fmt.Errorf("export failed: %w", err)
	}

	if path == "" {
		path = filepath.Join(opts.OutputDir, DefaultFilename(t, exp.FileExtension()))
	}
	if err := util.AtomicWriteFileWithDir(path, content, 0644, 0755); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	return path, nil
}

// DefaultFilename builds chatbi_<session>_<timestamp><ext>.
func DefaultFilename(t *Transcript, ext string) string {
	ts := t.ExportedAt
	if ts.IsZero() {
		ts = time.Now()
	}
	return fmt.Sprintf("chatbi_%s_%s%s", sanitizeFilename(t.SessionID), ts.Format("20060102_150405"), ext)
}

// sanitizeFilename replaces characters that are invalid in file names.
func sanitizeFilename(s string) string {
	runes := []rune(s)
	if len(runes) > 50 {
		runes = runes[:50]
	}

	out := make([]rune, 0, len(runes))
	for _, r := range runes {
		switch {
		case strings.ContainsRune(`/\:*?"<>|`, r):
			out = append(out, '-')
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			out = append(out, '_')
		case r < 32 || r == 127:
			out = append(out, '-')
		default:
			out = append(out, r)
		}
	}
	if len(out) == 0 {
		return "session"
	}
	return string(out)
}
