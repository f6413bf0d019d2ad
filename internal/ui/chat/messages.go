// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/parley/internal/conversation"
)

// stateMsg delivers a Store snapshot to the update loop.
type stateMsg struct {
	State conversation.State
}

// waitForState blocks until the subscriber publishes a snapshot.
func waitForState(updates <-chan conversation.State) tea.Cmd {
	return func() tea.Msg {
		s, ok := <-updates
		if !ok {
			return nil
		}
		return stateMsg{State: s}
	}
}

// publishLatest hands s to the update loop without blocking. An unread
// snapshot is replaced since s supersedes it.
func publishLatest(updates chan conversation.State, s conversation.State) {
	for {
		select {
		case updates <- s:
			return
		default:
		}
		select {
		case <-updates:
		default:
		}
	}
}
