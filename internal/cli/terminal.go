// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"io"
	"os"

	"golang.org/x/term"
)

const (
	// DefaultTerminalWidth is the fallback width when detection fails
	DefaultTerminalWidth = 80

	// MinTerminalWidth is the minimum width we'll use for wrapping
	MinTerminalWidth = 40
)

// Streams bundles the process's standard streams and what is known about
// them. Handlers take a Streams so tests can substitute buffers.
type Streams struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer

	InIsTTY  bool
	OutIsTTY bool
	Width    int
}

// StdStreams returns Streams for os.Stdin, os.Stdout and os.Stderr.
func StdStreams() Streams {
	return Streams{
		In:       os.Stdin,
		Out:      os.Stdout,
		Err:      os.Stderr,
		InIsTTY:  term.IsTerminal(int(os.Stdin.Fd())),
		OutIsTTY: term.IsTerminal(int(os.Stdout.Fd())),
		Width:    terminalWidth(),
	}
}

// terminalWidth returns the stdout width clamped to MinTerminalWidth, or
// DefaultTerminalWidth when it cannot be determined.
func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return DefaultTerminalWidth
	}
	if width < MinTerminalWidth {
		return MinTerminalWidth
	}
	return width
}
