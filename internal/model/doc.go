// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for chat messages.
//
// # Key Types
//
//   - Message: one entry in a conversation, with a sequence ID and an Origin
//   - Origin: who wrote a message (user or assistant)
//   - HistoryEntry: a static sidebar item sourced from configuration
//
// Messages are created by the conversation store; callers only read them.
//
//	msg := model.NewUserMessage(0, "Hello!")
//	fmt.Printf("%s: %s\n", msg.Origin.DisplayName(), msg.Preview(40))
package model
