// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the colors and Lip Gloss styles for the parley TUI.
//
// Two fixed palettes exist, DarkPalette and LightPalette. A Theme is built
// from one of them and can be swapped for its opposite at runtime:
//
//	theme := styles.NewTheme(styles.ParseMode(cfg.UI.Theme))
//	theme = theme.Toggled()
//
// ParseMode resolves "auto" by asking termenv whether the terminal has a dark
// background.
package styles
