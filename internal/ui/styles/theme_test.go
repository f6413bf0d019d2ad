// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
)

func TestParseMode(t *testing.T) {
	orig := detectDark
	t.Cleanup(func() { detectDark = orig })

	detectDark = func() bool { return false }
	assert.Equal(t, ModeDark, ParseMode("dark"))
	assert.Equal(t, ModeLight, ParseMode(" Light "))
	assert.Equal(t, ModeLight, ParseMode("auto"))

	detectDark = func() bool { return true }
	assert.Equal(t, ModeDark, ParseMode("auto"))
	assert.Equal(t, ModeDark, ParseMode(""))
}

func TestModeToggle(t *testing.T) {
	assert.Equal(t, ModeLight, ModeDark.Toggle())
	assert.Equal(t, ModeDark, ModeLight.Toggle())
	assert.Equal(t, "dark", ModeDark.String())
	assert.Equal(t, "light", ModeLight.String())
}

func TestNewTheme_Palette(t *testing.T) {
	dark := NewTheme(ModeDark)
	assert.Equal(t, DarkPalette, dark.Palette)
	assert.Equal(t, lipgloss.TerminalColor(DarkPalette.Error), dark.ErrorLine.GetForeground())

	light := dark.Toggled()
	assert.Equal(t, ModeLight, light.Mode)
	assert.Equal(t, LightPalette, light.Palette)
	assert.Equal(t, lipgloss.TerminalColor(LightPalette.Error), light.ErrorLine.GetForeground())
	assert.Equal(t, ModeDark, dark.Mode, "Toggled must not mutate the receiver")
}

func TestThemeRendersText(t *testing.T) {
	theme := NewTheme(ModeDark)
	assert.Contains(t, theme.ErrorLine.Render("Error: boom"), "Error: boom")
	assert.Contains(t, theme.UserBubble.Render("hello"), "hello")
}
