// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case stateMsg:
		return m.handleState(msg)

	case spinner.TickMsg:
		// The spinner stops itself once the store is idle.
		if !m.store.Pending() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.Close()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Cancel):
		if m.task != nil {
			m.logger.Debug("cancel requested")
			m.task.Cancel()
		}
		return m, nil

	case key.Matches(msg, m.keys.ToggleTheme):
		m.theme = m.theme.Toggled()
		m.applyTheme()
		m.buildRenderer()
		m.refresh()
		return m, nil

	case key.Matches(msg, m.keys.PageUp), key.Matches(msg, m.keys.PageDown):
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case key.Matches(msg, m.keys.Submit):
		return m.submit()
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if after := m.input.Value(); after != before {
		m.store.SetDraftInput(after)
	}
	return m, cmd
}

// submit hands the draft to the store. The draft is kept when the store
// refuses it, either because it is blank or a reply is still pending.
func (m Model) submit() (tea.Model, tea.Cmd) {
	task, ok := m.store.Submit(m.input.Value())
	if !ok {
		return m, nil
	}
	m.task = task
	m.input.Reset()
	return m, m.spinner.Tick
}

func (m Model) handleState(msg stateMsg) (tea.Model, tea.Cmd) {
	m.state = msg.State
	if m.task != nil {
		// Snapshots can lag a submit, so only a finished task is dropped.
		select {
		case <-m.task.Done():
			m.task = nil
		default:
		}
	}
	m.refresh()
	return m, waitForState(m.updates)
}
