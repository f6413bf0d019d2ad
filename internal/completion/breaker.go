// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package completion

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"
)

// Default circuit breaker settings.
const (
	defaultBreakerFailures uint32        = 5
	defaultBreakerCooldown time.Duration = 30 * time.Second
	defaultBreakerInterval time.Duration = 60 * time.Second
)

// BreakerConfig configures BreakerCompleter.
type BreakerConfig struct {
	// MaxFailures is the number of consecutive transport failures that opens the circuit.
	MaxFailures uint32
	// Cooldown is how long the circuit stays open before a probe is let through.
	Cooldown time.Duration
	// Interval clears failure counts while closed. 0 uses the default.
	Interval time.Duration
}

// BreakerCompleter wraps a Completer with a circuit breaker. While the circuit
// is open calls fail fast as transport failures without reaching the endpoint.
// It never retries.
type BreakerCompleter struct {
	inner   Completer
	breaker *gobreaker.CircuitBreaker[Result]
	logger  *slog.Logger
}

// NewBreakerCompleter wraps inner. Zero config values use defaults.
func NewBreakerCompleter(inner Completer, name string, cfg BreakerConfig, logger *slog.Logger) *BreakerCompleter {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	maxFailures := cfg.MaxFailures
	if maxFailures == 0 {
		maxFailures = defaultBreakerFailures
	}
	cooldown := cfg.Cooldown
	if cooldown == 0 {
		cooldown = defaultBreakerCooldown
	}
	interval := cfg.Interval
	if interval == 0 {
		interval = defaultBreakerInterval
	}

	cb := gobreaker.NewCircuitBreaker[Result](gobreaker.Settings{
		Name:        "completion:" + name,
		MaxRequests: 1, // one probe in half-open state
		Interval:    interval,
		Timeout:     cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
		// A user cancelling a request says nothing about endpoint health.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	})

	return &BreakerCompleter{inner: inner, breaker: cb, logger: logger}
}

// Complete implements Completer.
func (b *BreakerCompleter) Complete(ctx context.Context, prompt string) Result {
	res, err := b.breaker.Execute(func() (Result, error) {
		r := b.inner.Complete(ctx, prompt)
		// Only transport failures count against the endpoint; a parse
		// failure means it answered.
		if r.Kind() == TransportFailure {
			return r, r.Err()
		}
		return r, nil
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return errResult(TransportFailure, "circuit open", err)
	}
	return res
}

// State returns the current breaker state for status display.
func (b *BreakerCompleter) State() gobreaker.State {
	return b.breaker.State()
}

// Compile-time interface check.
var _ Completer = (*BreakerCompleter)(nil)
