// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import "fmt"

// HistoryEntry is a read-only sidebar item. Selecting one does nothing;
// the list is display data sourced from configuration.
type HistoryEntry struct {
	ID    int    `toml:"id" json:"id"`
	Title string `toml:"title" json:"title"`
}

// DefaultHistory returns the placeholder history shown when none is configured.
func DefaultHistory() []HistoryEntry {
	entries := make([]HistoryEntry, 0, 3)
	for i := 1; i <= 3; i++ {
		entries = append(entries, HistoryEntry{ID: i, Title: fmt.Sprintf("Chat %d", i)})
	}
	return entries
}
