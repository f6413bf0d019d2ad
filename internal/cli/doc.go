// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements parley's command line: argument parsing, wiring of
// config, logging and tracing, and the tui, ask, proxy and config commands.
//
// Parsing is hand-rolled. Global flags may appear anywhere; the first other
// word selects the command, and no command means tui.
package cli
