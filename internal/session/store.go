// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/chatbi-tui/internal/model"
)

var (
	// ErrInvalidRole is returned when a message is appended with an empty
	// or unknown role.
	ErrInvalidRole = errors.New("invalid message role")

	// ErrStaleEpoch is returned by AppendInEpoch after the session was
	// cleared.
	ErrStaleEpoch = errors.New("session was cleared")
)

// =============================================================================
// EVENTS
// =============================================================================

// EventKind identifies the mutation that produced an Event.
type EventKind int

const (
	EventAppended EventKind = iota
	EventBusyChanged
	EventCleared
)

// String returns the event kind name.
func (k EventKind) String() string {
	switch k {
	case EventAppended:
		return "appended"
	case EventBusyChanged:
		return "busy"
	case EventCleared:
		return "cleared"
	default:
		return "unknown"
	}
}

// Event describes one store mutation.
type Event struct {
	Kind    EventKind
	Message model.Message // set for EventAppended
	Busy    bool          // busy flag after the mutation
	Len     int           // message count after the mutation
}

// =============================================================================
// STORE
// =============================================================================

// Store is the single source of truth for the message log and the
// request-in-flight flag.
type Store struct {
	mu sync.RWMutex

	id        string
	startTime time.Time

	messages []model.Message
	busy     bool
	epoch    uint64 // incremented by Clear

	subMu   sync.Mutex
	nextSub int
	subs    map[int]func(Event)
}

// NewStore creates an empty session.
func NewStore() *Store {
	return &Store{
		id:        "sess_" + uuid.NewString()[:8],
		startTime: time.Now(),
		subs:      make(map[int]func(Event)),
	}
}

// ID returns the session identifier.
func (s *Store) ID() string {
	return s.id
}

// StartTime returns when the session was created.
func (s *Store) StartTime() time.Time {
	return s.startTime
}

// =============================================================================
// MUTATIONS
// =============================================================================

// AppendMessage adds a message with a fresh ID and the current time to the
// end of the log and returns its ID. Content may be empty.
func (s *Store) AppendMessage(role model.Role, content string, result *model.QueryResult) (string, error) {
	return s.append(nil, role, content, result)
}

// AppendInEpoch is AppendMessage that fails with ErrStaleEpoch if Clear
// ran since epoch was read. Responses to questions asked before a clear
// use it so they do not land in the fresh log.
func (s *Store) AppendInEpoch(epoch uint64, role model.Role, content string, result *model.QueryResult) (string, error) {
	return s.append(&epoch, role, content, result)
}

func (s *Store) append(epoch *uint64, role model.Role, content string, result *model.QueryResult) (string, error) {
	if !role.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}

	msg := model.NewMessage(role, content)
	msg.Result = result

	s.mu.Lock()
	if epoch != nil && *epoch != s.epoch {
		s.mu.Unlock()
		return "", ErrStaleEpoch
	}
	s.messages = append(s.messages, msg)
	ev := Event{Kind: EventAppended, Message: msg, Busy: s.busy, Len: len(s.messages)}
	s.mu.Unlock()

	s.notify(ev)
	return msg.ID, nil
}

// SetBusy sets the loading flag. Subscribers are only notified on change.
func (s *Store) SetBusy(busy bool) {
	s.mu.Lock()
	changed := s.busy != busy
	s.busy = busy
	ev := Event{Kind: EventBusyChanged, Busy: busy, Len: len(s.messages)}
	s.mu.Unlock()

	if changed {
		s.notify(ev)
	}
}

// TryBegin sets the busy flag if it is clear. It returns the current epoch
// and whether the flag was set; this is the check-and-set used to reject
// overlapping submissions.
func (s *Store) TryBegin() (uint64, bool) {
	s.mu.Lock()
	if s.busy {
		epoch := s.epoch
		s.mu.Unlock()
		return epoch, false
	}
	s.busy = true
	epoch := s.epoch
	ev := Event{Kind: EventBusyChanged, Busy: true, Len: len(s.messages)}
	s.mu.Unlock()

	s.notify(ev)
	return epoch, true
}

// End clears the busy flag set by TryBegin, unless Clear already reset it
// (in which case a newer request may own the flag).
func (s *Store) End(epoch uint64) {
	s.mu.Lock()
	if epoch != s.epoch || !s.busy {
		s.mu.Unlock()
		return
	}
	s.busy = false
	ev := Event{Kind: EventBusyChanged, Busy: false, Len: len(s.messages)}
	s.mu.Unlock()

	s.notify(ev)
}

// Clear empties the log and resets the busy flag in one step.
func (s *Store) Clear() {
	s.mu.Lock()
	s.messages = nil
	s.busy = false
	s.epoch++
	s.mu.Unlock()

	s.notify(Event{Kind: EventCleared})
}

// =============================================================================
// READS
// =============================================================================

// Messages returns a snapshot of the log in insertion order. The returned
// slice is owned by the caller.
func (s *Store) Messages() []model.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Message returns the message with the given ID.
func (s *Store) Message(id string) (model.Message, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, m := range s.messages {
		if m.ID == id {
			return m, true
		}
	}
	return model.Message{}, false
}

// LastResult returns the most recent assistant message that carries a
// query result.
func (s *Store) LastResult() (model.Message, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := len(s.messages) - 1; i >= 0; i-- {
		if s.messages[i].Result != nil {
			return s.messages[i], true
		}
	}
	return model.Message{}, false
}

// Epoch returns how many times the session has been cleared.
func (s *Store) Epoch() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.epoch
}

// Len returns the number of messages.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages)
}

// Busy reports whether a request is in flight.
func (s *Store) Busy() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.busy
}

// =============================================================================
// SUBSCRIPTIONS
// =============================================================================

// Subscribe registers fn to be called after every mutation. Callbacks run
// on the mutating goroutine, outside the store lock, so they may read the
// store. The returned function removes the subscription.
func (s *Store) Subscribe(fn func(Event)) func() {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

func (s *Store) notify(ev Event) {
	s.subMu.Lock()
	fns := make([]func(Event), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}
