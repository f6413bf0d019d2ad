// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package conversation

import (
	"context"

	"github.com/jeranaias/parley/internal/completion"
)

// Task tracks the completion request started by one Submit.
type Task struct {
	id     uint64
	done   chan struct{}
	cancel context.CancelFunc
	result completion.Result
}

// Done is closed once the request has resolved and its outcome has been
// applied to the Store.
func (t *Task) Done() <-chan struct{} { return t.done }

// Wait blocks until the request resolves or ctx ends. ctx bounds only the
// wait; use Cancel to abandon the request itself.
func (t *Task) Wait(ctx context.Context) (completion.Result, error) {
	select {
	case <-t.done:
		return t.result, nil
	case <-ctx.Done():
		return completion.Result{}, ctx.Err()
	}
}

// Cancel aborts the request. The Store records it as a transport failure.
func (t *Task) Cancel() { t.cancel() }

// Result blocks until the request resolves and returns its outcome.
func (t *Task) Result() completion.Result {
	<-t.done
	return t.result
}
