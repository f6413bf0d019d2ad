// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/jeranaias/parley/internal/model"
)

// View renders the chat screen.
func (m Model) View() string {
	if !m.ready {
		return "Starting parley..."
	}

	main := lipgloss.JoinVertical(lipgloss.Left,
		m.theme.Header.Render("parley"),
		m.viewport.View(),
		m.renderStatus(),
		m.renderInput(),
		m.renderHelp(),
	)
	if !m.showSidebar() {
		return main
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, m.renderSidebar(), main)
}

// =============================================================================
// SIDEBAR
// =============================================================================

func (m Model) renderSidebar() string {
	inner := sidebarWidth - 1
	lines := []string{m.theme.SidebarTitle.Render("History")}
	for _, entry := range m.history {
		lines = append(lines, m.theme.SidebarItem.Render(truncateTitle(entry.Title, inner-3)))
	}
	return m.theme.Sidebar.
		Width(inner).
		Height(m.height).
		Render(strings.Join(lines, "\n"))
}

// truncateTitle shortens s to width terminal cells.
func truncateTitle(s string, width int) string {
	s = strings.Join(strings.Fields(s), " ")
	if width <= 0 {
		return ""
	}
	return runewidth.Truncate(s, width, "…")
}

// =============================================================================
// TRANSCRIPT
// =============================================================================

func (m Model) renderTranscript() string {
	if len(m.state.Messages) == 0 {
		return m.theme.Empty.Render("No messages yet. Type below and press enter.")
	}
	width := m.mainWidth() - 2
	parts := make([]string, 0, len(m.state.Messages))
	for _, msg := range m.state.Messages {
		parts = append(parts, m.renderMessage(msg, width))
	}
	return strings.Join(parts, "\n\n")
}

func (m Model) renderMessage(msg model.Message, width int) string {
	if msg.IsUser() {
		label := m.theme.UserLabel.Render(msg.Origin.DisplayName())
		return label + "\n" + m.theme.UserBubble.Width(width).Render(msg.Content)
	}

	label := m.theme.AssistantLabel.Render(msg.Origin.DisplayName())
	body := msg.Content
	if m.renderer != nil {
		if out, err := m.renderer.Render(msg.Content); err == nil {
			body = strings.Trim(out, "\n")
		} else {
			m.logger.Debug("markdown render failed", "message_id", msg.ID, "error", err)
		}
	}
	return label + "\n" + m.theme.AssistantBubble.Width(width).Render(body)
}

// =============================================================================
// STATUS, INPUT, HELP
// =============================================================================

// renderStatus shows the spinner while a reply is pending, otherwise the last
// error, otherwise nothing.
func (m Model) renderStatus() string {
	switch {
	case m.state.Pending:
		return m.spinner.View() + " " + m.theme.StatusBar.Render("Waiting for reply (esc to cancel)")
	case m.state.HasError():
		return m.theme.ErrorLine.Render(m.state.LastError)
	default:
		return ""
	}
}

func (m Model) renderInput() string {
	style := m.theme.Input
	if m.state.Pending {
		style = m.theme.InputPending
	}
	return style.Render(m.input.View())
}

func (m Model) renderHelp() string {
	bindings := m.keys.ShortHelp()
	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		parts = append(parts, m.theme.ShortcutKey.Render(h.Key)+" "+m.theme.ShortcutDesc.Render(h.Desc))
	}
	return strings.Join(parts, m.theme.ShortcutDesc.Render(" · "))
}
