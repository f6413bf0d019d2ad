// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// ask.go - one-shot prompt command.
//
// Command: ask [--json] [prompt]
//
// Examples:
//   parley ask "What is the capital of France?"
//   cat notes.md | parley ask --json
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/jeranaias/parley/internal/completion"
	"github.com/jeranaias/parley/internal/config"
	"github.com/jeranaias/parley/internal/conversation"
)

// maxStdinPrompt bounds a prompt read from a pipe.
const maxStdinPrompt = 1 << 20

// AskResult is the --json payload for ask.
type AskResult struct {
	Session    string `json:"session"`
	Prompt     string `json:"prompt"`
	Completion string `json:"completion,omitempty"`
}

// HandleAsk sends one prompt through a fresh conversation and prints the
// reply. A failed request returns a *CompletionError.
func HandleAsk(ctx context.Context, args Args, cfg *config.Config, completer completion.Completer, logger *slog.Logger, streams Streams) error {
	prompt, err := resolvePrompt(args.Query, streams)
	if err != nil {
		return err
	}

	store := conversation.New(completer,
		conversation.WithTimeout(cfg.RequestTimeout()),
		conversation.WithLogger(logger),
	)

	task, ok := store.Submit(prompt)
	if !ok {
		return ErrEmptyPrompt
	}
	if _, err := task.Wait(ctx); err != nil {
		task.Cancel()
		<-task.Done()
	}

	state := store.Snapshot()
	result := AskResult{Session: store.SessionID(), Prompt: prompt}

	if state.HasError() {
		if args.JSON {
			if err := NewJSONErrorResponse("ask", state.LastError, result).Write(streams.Out); err != nil {
				return err
			}
		}
		return &CompletionError{Message: state.LastError}
	}

	reply := lastAssistantText(state)
	result.Completion = reply
	if args.JSON {
		return NewJSONResponse("ask", result).Write(streams.Out)
	}

	_, err = fmt.Fprintln(streams.Out, renderReply(reply, cfg, streams, logger))
	return err
}

// resolvePrompt prefers the argument and falls back to piped stdin.
func resolvePrompt(query string, streams Streams) (string, error) {
	if strings.TrimSpace(query) != "" {
		return query, nil
	}
	if streams.InIsTTY || streams.In == nil {
		return "", ErrEmptyPrompt
	}
	data, err := io.ReadAll(io.LimitReader(streams.In, maxStdinPrompt))
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	prompt := strings.TrimRight(string(data), "\r\n")
	if strings.TrimSpace(prompt) == "" {
		return "", ErrEmptyPrompt
	}
	return prompt, nil
}

func lastAssistantText(state conversation.State) string {
	for i := len(state.Messages) - 1; i >= 0; i-- {
		if !state.Messages[i].IsUser() {
			return state.Messages[i].Content
		}
	}
	return ""
}

// renderReply renders markdown for terminals and passes text through
// unchanged when stdout is piped.
func renderReply(reply string, cfg *config.Config, streams Streams, logger *slog.Logger) string {
	if !cfg.UI.Markdown || !streams.OutIsTTY {
		return reply
	}
	width := streams.Width
	if width <= 0 {
		width = DefaultTerminalWidth
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		logger.Debug("markdown renderer unavailable", "error", err)
		return reply
	}
	out, err := r.Render(reply)
	if err != nil {
		logger.Debug("markdown render failed", "error", err)
		return reply
	}
	return strings.TrimRight(out, "\n")
}
