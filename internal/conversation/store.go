// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package conversation

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/parley/internal/completion"
	"github.com/jeranaias/parley/internal/model"
)

// ErrorPrefix is prepended to every failure reason stored in LastError.
const ErrorPrefix = "Error: "

// DefaultTimeout bounds a single completion request.
const DefaultTimeout = 60 * time.Second

// =============================================================================
// STATE
// =============================================================================

// State is a point-in-time copy of a session.
type State struct {
	Messages   []model.Message
	DraftInput string
	Pending    bool
	LastError  string
}

// Idle reports whether no request is outstanding.
func (s State) Idle() bool { return !s.Pending }

// HasError reports whether the last request failed.
func (s State) HasError() bool { return s.LastError != "" }

func (s State) clone() State {
	out := s
	out.Messages = make([]model.Message, len(s.Messages))
	copy(out.Messages, s.Messages)
	return out
}

// =============================================================================
// STORE
// =============================================================================

// Option configures a Store.
type Option func(*Store)

// WithTimeout sets the per-request deadline. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(s *Store) { s.timeout = d }
}

// WithLogger sets the logger for state transitions.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithSessionID overrides the generated session identifier.
func WithSessionID(id string) Option {
	return func(s *Store) {
		if id != "" {
			s.sessionID = id
		}
	}
}

type subscriber struct {
	id int
	fn func(State)
}

// Store owns a session's messages, draft, pending flag and last error.
type Store struct {
	completer completion.Completer
	timeout   time.Duration
	logger    *slog.Logger
	sessionID string

	mu     sync.Mutex
	state  State
	nextID int

	// inflight is the generation of the outstanding request, 0 if none.
	generation uint64
	inflight   uint64

	subs     []subscriber
	nextSub  int
	queue    []State
	draining bool
}

// New creates an idle Store that sends prompts to completer.
func New(completer completion.Completer, opts ...Option) *Store {
	s := &Store{
		completer: completer,
		timeout:   DefaultTimeout,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		sessionID: uuid.NewString(),
		state:     State{Messages: []model.Message{}},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("session", s.sessionID)
	return s
}

// SessionID returns the session identifier.
func (s *Store) SessionID() string { return s.sessionID }

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// Pending reports whether a request is outstanding.
func (s *Store) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Pending
}

// Submit appends input as a user message and starts a completion request
// for it. Blank input, or any input while a request is pending, is ignored
// and reported as false.
func (s *Store) Submit(input string) (*Task, bool) {
	if strings.TrimSpace(input) == "" {
		return nil, false
	}

	s.mu.Lock()
	if s.state.Pending {
		s.mu.Unlock()
		s.logger.Debug("submit ignored while pending")
		return nil, false
	}
	msg := s.appendLocked(model.OriginUser, input)
	s.state.DraftInput = ""
	s.state.Pending = true
	s.state.LastError = ""
	s.generation++
	gen := s.generation
	s.inflight = gen
	s.enqueueLocked()
	s.mu.Unlock()

	s.logger.Info("message submitted", "message_id", msg.ID, "bytes", len(input))
	// The user message must reach subscribers before the request starts.
	s.flush()

	ctx, cancel := s.requestContext()
	task := &Task{id: gen, done: make(chan struct{}), cancel: cancel}
	go s.run(ctx, task, input)
	return task, true
}

func (s *Store) requestContext() (context.Context, context.CancelFunc) {
	if s.timeout > 0 {
		return context.WithTimeout(context.Background(), s.timeout)
	}
	return context.WithCancel(context.Background())
}

func (s *Store) run(ctx context.Context, task *Task, prompt string) {
	defer task.cancel()

	res := s.completer.Complete(ctx, prompt)
	task.result = res

	s.mu.Lock()
	if s.inflight != task.id {
		s.mu.Unlock()
		s.logger.Debug("dropping result for settled request", "request", task.id)
		close(task.done)
		return
	}
	if res.OK() {
		s.succeedLocked(res.Text())
	} else {
		s.failLocked(res.Reason())
	}
	s.mu.Unlock()

	s.logSettled(res)
	s.flush()
	close(task.done)
}

func (s *Store) logSettled(res completion.Result) {
	if res.OK() {
		s.logger.Info("completion received", "bytes", len(res.Text()))
		return
	}
	s.logger.Warn("completion failed", "kind", res.Kind().String(), "reason", res.Reason())
}

// OnCompletionSuccess appends text as an assistant message and returns the
// session to idle.
func (s *Store) OnCompletionSuccess(text string) {
	s.mu.Lock()
	s.succeedLocked(text)
	s.mu.Unlock()
	s.flush()
}

// OnCompletionFailure records reason as the last error and returns the
// session to idle. No message is appended.
func (s *Store) OnCompletionFailure(reason string) {
	s.mu.Lock()
	s.failLocked(reason)
	s.mu.Unlock()
	s.flush()
}

// SetDraftInput replaces the draft text.
func (s *Store) SetDraftInput(text string) {
	s.mu.Lock()
	s.state.DraftInput = text
	s.enqueueLocked()
	s.mu.Unlock()
	s.flush()
}

func (s *Store) succeedLocked(text string) {
	s.appendLocked(model.OriginAssistant, text)
	s.state.Pending = false
	s.state.LastError = ""
	s.inflight = 0
	s.enqueueLocked()
}

func (s *Store) failLocked(reason string) {
	s.state.Pending = false
	s.state.LastError = ErrorPrefix + reason
	s.inflight = 0
	s.enqueueLocked()
}

func (s *Store) appendLocked(origin model.Origin, content string) model.Message {
	msg := model.NewMessage(s.nextID, origin, content)
	s.nextID++
	s.state.Messages = append(s.state.Messages, msg)
	return msg
}

// =============================================================================
// SUBSCRIPTIONS
// =============================================================================

// Subscribe registers fn to receive a snapshot after every transition.
// Calls never overlap and arrive in transition order. fn may call back into
// the Store; the resulting snapshot is delivered after fn returns.
func (s *Store) Subscribe(fn func(State)) (unsubscribe func()) {
	s.mu.Lock()
	s.nextSub++
	id := s.nextSub
	s.subs = append(s.subs, subscriber{id: id, fn: fn})
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			for i, sub := range s.subs {
				if sub.id == id {
					s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
					return
				}
			}
		})
	}
}

func (s *Store) enqueueLocked() {
	if len(s.subs) == 0 {
		return
	}
	s.queue = append(s.queue, s.state.clone())
}

// flush delivers queued snapshots. Only one goroutine drains at a time;
// others leave their snapshots for the active drainer.
func (s *Store) flush() {
	s.mu.Lock()
	if s.draining {
		s.mu.Unlock()
		return
	}
	s.draining = true
	for len(s.queue) > 0 {
		snap := s.queue[0]
		s.queue = s.queue[1:]
		subs := make([]subscriber, len(s.subs))
		copy(subs, s.subs)
		s.mu.Unlock()

		for _, sub := range subs {
			sub.fn(snap)
		}

		s.mu.Lock()
	}
	s.queue = nil
	s.draining = false
	s.mu.Unlock()
}
