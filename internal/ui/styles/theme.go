// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// =============================================================================
// MODE
// =============================================================================

// Mode selects a palette.
type Mode int

const (
	ModeDark Mode = iota
	ModeLight
)

// String returns "dark" or "light". The value doubles as a glamour standard
// style name.
func (m Mode) String() string {
	if m == ModeLight {
		return "light"
	}
	return "dark"
}

// Toggle returns the opposite mode.
func (m Mode) Toggle() Mode {
	if m == ModeLight {
		return ModeDark
	}
	return ModeLight
}

// detectDark is replaced in tests.
var detectDark = termenv.HasDarkBackground

// ParseMode maps a config value to a Mode. "auto" and unknown values query
// the terminal background.
func ParseMode(s string) Mode {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "dark":
		return ModeDark
	case "light":
		return ModeLight
	}
	if detectDark() {
		return ModeDark
	}
	return ModeLight
}

// =============================================================================
// THEME
// =============================================================================

// Theme holds every style the chat screen draws with.
type Theme struct {
	Mode    Mode
	Palette Palette

	// Sidebar
	Sidebar         lipgloss.Style
	SidebarTitle    lipgloss.Style
	SidebarItem     lipgloss.Style
	SidebarSelected lipgloss.Style

	// Conversation
	Header          lipgloss.Style
	UserLabel       lipgloss.Style
	AssistantLabel  lipgloss.Style
	UserBubble      lipgloss.Style
	AssistantBubble lipgloss.Style
	ErrorLine       lipgloss.Style
	Spinner         lipgloss.Style
	Empty           lipgloss.Style

	// Input and footer
	Input        lipgloss.Style
	InputPending lipgloss.Style
	StatusBar    lipgloss.Style
	ShortcutKey  lipgloss.Style
	ShortcutDesc lipgloss.Style
}

// NewTheme builds a theme for the given mode.
func NewTheme(mode Mode) *Theme {
	t := &Theme{Mode: mode, Palette: DarkPalette}
	if mode == ModeLight {
		t.Palette = LightPalette
	}
	t.initStyles()
	return t
}

// Toggled returns a new theme with the opposite palette.
func (t *Theme) Toggled() *Theme {
	return NewTheme(t.Mode.Toggle())
}

func (t *Theme) initStyles() {
	p := t.Palette

	t.Sidebar = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderRight(true).
		BorderForeground(p.Overlay).
		PaddingRight(1)
	t.SidebarTitle = lipgloss.NewStyle().
		Foreground(p.Brand).
		Bold(true).
		MarginBottom(1)
	t.SidebarItem = lipgloss.NewStyle().
		Foreground(p.TextDim).
		PaddingLeft(1)
	t.SidebarSelected = t.SidebarItem.
		Foreground(p.Text).
		Background(p.SurfaceHi).
		Bold(true)

	t.Header = lipgloss.NewStyle().
		Foreground(p.Brand).
		Bold(true)
	t.UserLabel = lipgloss.NewStyle().
		Foreground(p.Brand).
		Bold(true)
	t.AssistantLabel = lipgloss.NewStyle().
		Foreground(p.Accent).
		Bold(true)
	t.UserBubble = lipgloss.NewStyle().
		Foreground(p.Text).
		BorderStyle(lipgloss.ThickBorder()).
		BorderLeft(true).
		BorderForeground(p.Brand).
		PaddingLeft(1)
	t.AssistantBubble = lipgloss.NewStyle().
		Foreground(p.Text).
		BorderStyle(lipgloss.ThickBorder()).
		BorderLeft(true).
		BorderForeground(p.Accent).
		PaddingLeft(1)
	t.ErrorLine = lipgloss.NewStyle().
		Foreground(p.Error).
		Bold(true)
	t.Spinner = lipgloss.NewStyle().
		Foreground(p.Accent)
	t.Empty = lipgloss.NewStyle().
		Foreground(p.TextMuted).
		Italic(true)

	t.Input = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(p.Accent)
	t.InputPending = t.Input.
		BorderForeground(p.Overlay)
	t.StatusBar = lipgloss.NewStyle().
		Foreground(p.TextMuted)
	t.ShortcutKey = lipgloss.NewStyle().
		Foreground(p.Brand)
	t.ShortcutDesc = lipgloss.NewStyle().
		Foreground(p.TextMuted)
}
