// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package dispatch turns a submitted question into exactly one backend
// call and exactly one assistant message in the session store.
//
// A submission appends the user message, sets the busy flag, calls the
// backend, then appends either the result or FailureMessage and clears the
// busy flag. Empty questions and submissions made while busy are rejected
// before anything is appended.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jeranaias/chatbi-tui/internal/model"
	"github.com/jeranaias/chatbi-tui/internal/session"
)

// FailureMessage is the assistant reply for every failed query.
const FailureMessage = "Sorry, an error occurred processing your request."

var (
	// ErrEmptyQuestion is returned for empty or whitespace-only input.
	ErrEmptyQuestion = errors.New("question is empty")

	// ErrBusy is returned when a question is submitted while another is
	// still in flight.
	ErrBusy = errors.New("a query is already in progress")
)

// Asker performs the network call for one question.
type Asker interface {
	Ask(ctx context.Context, question string) (*model.QueryResult, error)
}

// AskerFunc adapts a function to Asker.
type AskerFunc func(ctx context.Context, question string) (*model.QueryResult, error)

// Ask calls f.
func (f AskerFunc) Ask(ctx context.Context, question string) (*model.QueryResult, error) {
	return f(ctx, question)
}

// Outcome describes one settled submission.
type Outcome struct {
	Question    string
	UserID      string
	AssistantID string
	Result      *model.QueryResult // nil on failure
	Err         error              // the underlying failure, for logging
	Duration    time.Duration
}

// Failed reports whether the query failed.
func (o Outcome) Failed() bool {
	return o.Err != nil
}

// Dispatcher serializes questions against one session store.
type Dispatcher struct {
	store   *session.Store
	asker   Asker
	timeout time.Duration
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithTimeout bounds each call. Zero leaves only the caller's context and
// the HTTP client's own timeout in effect.
func WithTimeout(timeout time.Duration) Option {
	return func(d *Dispatcher) { d.timeout = timeout }
}

// New creates a dispatcher for store backed by asker.
func New(store *session.Store, asker Asker, opts ...Option) *Dispatcher {
	d := &Dispatcher{store: store, asker: asker}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Store returns the session store the dispatcher writes to.
func (d *Dispatcher) Store() *session.Store {
	return d.store
}

// Submit dispatches question and blocks until it settles. The returned
// error is only ErrEmptyQuestion or ErrBusy, in which case nothing was
// appended and no call was made; backend failures are reported through
// Outcome.Err and the failure message in the log.
func (d *Dispatcher) Submit(ctx context.Context, question string) (Outcome, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return Outcome{}, ErrEmptyQuestion
	}

	epoch, ok := d.store.TryBegin()
	if !ok {
		return Outcome{}, ErrBusy
	}
	defer d.store.End(epoch)

	out := Outcome{Question: question}
	userID, err := d.store.AppendInEpoch(epoch, model.RoleUser, question, nil)
	if err != nil {
		// Cleared between TryBegin and here.
		return out, nil
	}
	out.UserID = userID

	start := time.Now()
	out.Result, out.Err = d.call(ctx, question)
	out.Duration = time.Since(start)

	content := FailureMessage
	if out.Err == nil {
		content = out.Result.Answer
		log.Info().
			Str("query_id", out.Result.QueryID).
			Int("records", out.Result.RecordCount).
			Str("chart", string(out.Result.Chart.Kind)).
			Dur("elapsed", out.Duration).
			Msg("query answered")
	} else {
		log.Warn().Err(out.Err).Str("question", question).Dur("elapsed", out.Duration).Msg("query failed")
	}

	out.AssistantID, err = d.store.AppendInEpoch(epoch, model.RoleAssistant, content, out.Result)
	if errors.Is(err, session.ErrStaleEpoch) {
		log.Debug().Str("question", question).Msg("session cleared before answer arrived")
	}
	return out, nil
}

// call runs the asker, converting panics and nil results into errors.
func (d *Dispatcher) call(ctx context.Context, question string) (res *model.QueryResult, err error) {
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			res, err = nil, fmt.Errorf("query panicked: %v", r)
		}
	}()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res, err = d.asker.Ask(ctx, question)
	if err == nil && res == nil {
		err = errors.New("backend returned no result")
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}
