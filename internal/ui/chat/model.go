// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"log/slog"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/parley/internal/conversation"
	"github.com/jeranaias/parley/internal/logging"
	"github.com/jeranaias/parley/internal/model"
	"github.com/jeranaias/parley/internal/ui/styles"
)

// =============================================================================
// LAYOUT CONSTANTS
// =============================================================================

const (
	sidebarWidth     = 24
	minSidebarScreen = 60 // below this width the sidebar is hidden
	inputLines       = 3
	inputCharLimit   = 8000

	// header + status + footer + input border
	chromeLines = 5
)

// =============================================================================
// MODEL
// =============================================================================

// Options configures the chat screen.
type Options struct {
	History  []model.HistoryEntry
	Theme    styles.Mode
	Markdown bool
	Logger   *slog.Logger
}

// Model is the Bubble Tea model for the chat screen.
type Model struct {
	store       *conversation.Store
	updates     chan conversation.State
	unsubscribe func()

	// state is the last snapshot received from the store.
	state conversation.State
	task  *conversation.Task

	keys     KeyMap
	theme    *styles.Theme
	input    textarea.Model
	viewport viewport.Model
	spinner  spinner.Model
	renderer *glamour.TermRenderer
	markdown bool
	history  []model.HistoryEntry
	logger   *slog.Logger

	width  int
	height int
	ready  bool
}

// New creates the chat screen and subscribes it to store.
func New(store *conversation.Store, opts Options) Model {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	m := Model{
		store:    store,
		updates:  make(chan conversation.State, 1),
		state:    store.Snapshot(),
		keys:     DefaultKeyMap(),
		theme:    styles.NewTheme(opts.Theme),
		markdown: opts.Markdown,
		history:  opts.History,
		logger:   logger,
	}

	ta := textarea.New()
	ta.Placeholder = "Send a message..."
	ta.ShowLineNumbers = false
	ta.Prompt = ""
	ta.CharLimit = inputCharLimit
	ta.SetHeight(inputLines)
	ta.KeyMap.InsertNewline = key.NewBinding(key.WithKeys("ctrl+j"))
	ta.SetValue(m.state.DraftInput)
	ta.Focus()
	m.input = ta

	m.spinner = spinner.New(spinner.WithSpinner(spinner.Dot))
	m.viewport = viewport.New(0, 0)
	m.applyTheme()

	updates := m.updates
	m.unsubscribe = store.Subscribe(func(s conversation.State) {
		publishLatest(updates, s)
	})
	return m
}

// Init starts the cursor blink and the store subscription loop.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textarea.Blink, waitForState(m.updates)}
	if m.state.Pending {
		cmds = append(cmds, m.spinner.Tick)
	}
	return tea.Batch(cmds...)
}

// Close cancels any in-flight request and detaches from the store.
func (m Model) Close() {
	if m.task != nil {
		m.task.Cancel()
	}
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
}

// State returns the last snapshot the screen rendered.
func (m Model) State() conversation.State { return m.state }

// Theme returns the active theme.
func (m Model) Theme() *styles.Theme { return m.theme }

// =============================================================================
// LAYOUT AND THEME
// =============================================================================

func (m Model) showSidebar() bool {
	return m.width >= minSidebarScreen
}

func (m Model) mainWidth() int {
	w := m.width
	if m.showSidebar() {
		w -= sidebarWidth + 2 // border + padding
	}
	if w < 10 {
		w = 10
	}
	return w
}

func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height
	m.ready = true

	w := m.mainWidth()
	m.input.SetWidth(w - 2)

	h := height - chromeLines - inputLines
	if h < 1 {
		h = 1
	}
	m.viewport.Width = w
	m.viewport.Height = h

	m.buildRenderer()
	m.refresh()
}

func (m *Model) applyTheme() {
	p := m.theme.Palette
	m.spinner.Style = m.theme.Spinner
	m.input.FocusedStyle.Placeholder = lipgloss.NewStyle().Foreground(p.TextMuted)
	m.input.BlurredStyle.Placeholder = lipgloss.NewStyle().Foreground(p.TextMuted)
	m.input.FocusedStyle.Text = lipgloss.NewStyle().Foreground(p.Text)
	m.input.FocusedStyle.CursorLine = lipgloss.NewStyle()
}

// buildRenderer recreates the markdown renderer for the current width and
// theme. On failure assistant text is shown as plain text.
func (m *Model) buildRenderer() {
	m.renderer = nil
	if !m.markdown || !m.ready {
		return
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(m.theme.Mode.String()),
		glamour.WithWordWrap(m.mainWidth()-4),
	)
	if err != nil {
		m.logger.Warn("markdown renderer unavailable", "error", err)
		return
	}
	m.renderer = r
}

// refresh re-renders the transcript into the viewport.
func (m *Model) refresh() {
	m.viewport.SetContent(m.renderTranscript())
	m.viewport.GotoBottom()
}
