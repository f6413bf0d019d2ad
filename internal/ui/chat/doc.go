// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package chat provides the Bubble Tea chat screen for parley.

The screen is a thin view over a conversation.Store. It never mutates
conversation state itself: keystrokes become Store operations and every Store
change comes back as a stateMsg carrying a full snapshot.

# Layout

	+-----------+---------------------------------+
	| History   | parley                          |
	|  Chat 1   |                                 |
	|  Chat 2   |  You                            |
	|  Chat 3   |  | hello                        |
	|           |  Assistant                      |
	|           |  | Hi there.                    |
	|           |                                 |
	|           |  Error: fetch error: ...        |
	|           | +-----------------------------+ |
	|           | | draft input                 | |
	|           | +-----------------------------+ |
	+-----------+---------------------------------+

The sidebar lists configured history titles and is display only.

# Keys

	enter   submit the draft (ignored while a request is pending)
	ctrl+j  insert a newline
	esc     cancel the pending request
	ctrl+t  toggle dark/light theme
	pgup/pgdown  scroll the transcript
	ctrl+c  quit

# Subscription

The Store calls subscribers synchronously. The model's subscriber pushes into
a one-slot channel and replaces any unread snapshot, so a slow render never
blocks the Store and the UI always catches up to the latest state.
*/
package chat
