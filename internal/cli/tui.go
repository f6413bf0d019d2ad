// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/parley/internal/completion"
	"github.com/jeranaias/parley/internal/config"
	"github.com/jeranaias/parley/internal/conversation"
	"github.com/jeranaias/parley/internal/ui/chat"
	"github.com/jeranaias/parley/internal/ui/styles"
)

// NewChatModel builds the chat screen over a fresh conversation.
func NewChatModel(cfg *config.Config, completer completion.Completer, logger *slog.Logger) chat.Model {
	store := conversation.New(completer,
		conversation.WithTimeout(cfg.RequestTimeout()),
		conversation.WithLogger(logger),
	)
	logger.Info("session started", "session", store.SessionID(), "endpoint", cfg.Endpoint.URL)

	return chat.New(store, chat.Options{
		History:  cfg.UI.History,
		Theme:    styles.ParseMode(cfg.UI.Theme),
		Markdown: cfg.UI.Markdown,
		Logger:   logger,
	})
}

// HandleTUI runs the full-screen chat until the user quits or ctx ends.
func HandleTUI(ctx context.Context, cfg *config.Config, completer completion.Completer, logger *slog.Logger) error {
	m := NewChatModel(cfg, completer, logger)

	p := tea.NewProgram(m,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)
	final, err := p.Run()
	if fm, ok := final.(chat.Model); ok {
		fm.Close()
	} else {
		m.Close()
	}
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return NewCommandError("tui", "run", "terminal program failed", err)
	}
	return nil
}
