// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import "github.com/charmbracelet/lipgloss"

// =============================================================================
// PALETTE
// =============================================================================

// Palette is one concrete set of colors. The UI can switch between the dark
// and light palettes at runtime, so colors are resolved here instead of
// through lipgloss.AdaptiveColor.
type Palette struct {
	Accent    lipgloss.Color // assistant label, focus
	Brand     lipgloss.Color // user label, header
	Success   lipgloss.Color
	Error     lipgloss.Color
	Warning   lipgloss.Color
	Surface   lipgloss.Color
	SurfaceHi lipgloss.Color // bubbles, selected sidebar row
	Overlay   lipgloss.Color // borders
	Text      lipgloss.Color
	TextDim   lipgloss.Color
	TextMuted lipgloss.Color
}

// DarkPalette is used on dark terminal backgrounds.
var DarkPalette = Palette{
	Accent:    "#A78BFA",
	Brand:     "#22D3EE",
	Success:   "#34D399",
	Error:     "#FB7185",
	Warning:   "#FBBF24",
	Surface:   "#1E1E2E",
	SurfaceHi: "#313244",
	Overlay:   "#45475A",
	Text:      "#CDD6F4",
	TextDim:   "#A6ADC8",
	TextMuted: "#6C7086",
}

// LightPalette is used on light terminal backgrounds.
var LightPalette = Palette{
	Accent:    "#7C3AED",
	Brand:     "#0891B2",
	Success:   "#059669",
	Error:     "#E11D48",
	Warning:   "#D97706",
	Surface:   "#FFFFFF",
	SurfaceHi: "#F5F5F5",
	Overlay:   "#D4D4D4",
	Text:      "#1F2937",
	TextDim:   "#6B7280",
	TextMuted: "#9CA3AF",
}
