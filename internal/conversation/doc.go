// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package conversation holds the state of a single chat session and the
// rules for moving it between idle and awaiting-response.
//
// # Key Types
//
//   - Store: the session's single source of truth
//   - State: an immutable snapshot handed to renderers
//   - Task: handle for the completion request started by Submit
//
// # Lifecycle
//
// A session starts idle with no messages. Submit appends the user's message,
// marks the session pending and starts exactly one completion request. When
// that request resolves the Store either appends the assistant's reply or
// records "Error: <reason>", and the session is idle again. Submissions made
// while a request is pending, or with blank input, change nothing.
//
// # Usage
//
//	store := conversation.New(client, conversation.WithTimeout(time.Minute))
//	unsubscribe := store.Subscribe(func(s conversation.State) { render(s) })
//	defer unsubscribe()
//
//	if task, ok := store.Submit(input); ok {
//	    task.Wait(ctx)
//	}
//
// # Thread Safety
//
// Every method is safe for concurrent use. Subscribers are called outside
// the Store's lock, one snapshot at a time, in the order the transitions
// happened.
package conversation
