// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jeranaias/parley/internal/config"
	"github.com/jeranaias/parley/internal/logging"
	"github.com/jeranaias/parley/internal/tracer"
)

// Exit codes.
const (
	ExitOK    = 0
	ExitError = 1
	ExitUsage = 2
)

// Run parses argv, wires the ambient stack and dispatches to a handler. It
// returns the process exit code.
func Run(ctx context.Context, argv []string, streams Streams) int {
	cmd, args := Parse(argv)

	switch cmd {
	case CmdHelp:
		if args.Unknown != "" {
			fmt.Fprintf(streams.Err, "Error: unknown command %q\n\n", args.Unknown)
			PrintUsage(streams.Err)
			return ExitUsage
		}
		PrintUsage(streams.Out)
		return ExitOK
	case CmdVersion:
		if args.JSON {
			_ = NewJSONResponse("version", map[string]string{
				"version":    Version,
				"git_commit": GitCommit,
				"build_date": BuildDate,
			}).Write(streams.Out)
			return ExitOK
		}
		PrintVersion(streams.Out)
		return ExitOK
	}

	cfg, err := LoadConfig(args)
	if err != nil {
		fmt.Fprintf(streams.Err, "Error: %v\n", err)
		return ExitError
	}

	logger, closeLog, err := newLogger(cmd, cfg)
	if err != nil {
		fmt.Fprintf(streams.Err, "Error: %v\n", err)
		return ExitError
	}
	defer closeLog()

	tracing := tracer.Config{
		Enabled:  cfg.Tracing.Enabled,
		Exporter: cfg.Tracing.Exporter,
		Writer:   streams.Err,
	}
	if cmd == CmdTUI && tracing.Enabled {
		logger.Warn("tracing export is disabled in the full-screen UI")
		tracing.Enabled = false
	}
	shutdownTracing, err := tracer.Setup(ctx, tracing)
	if err != nil {
		fmt.Fprintf(streams.Err, "Error: %v\n", err)
		return ExitError
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Warn("tracer shutdown failed", "error", err)
		}
	}()

	logger.Debug("starting", "command", cmd.String(), "version", Version)

	switch cmd {
	case CmdTUI:
		err = HandleTUI(ctx, cfg, NewCompleter(cfg, logger), logger)
	case CmdAsk:
		err = HandleAsk(ctx, args, cfg, NewCompleter(cfg, logger), logger, streams)
	case CmdProxy:
		err = HandleProxy(ctx, args, cfg, logger)
	case CmdConfig:
		err = HandleConfig(args, cfg, streams)
	}
	return reportError(streams, err)
}

func newLogger(cmd Command, cfg *config.Config) (*slog.Logger, func() error, error) {
	if cmd == CmdTUI {
		return logging.ForTUI(cfg.Log)
	}
	return logging.New(cfg.Log)
}

// reportError prints err and maps it to an exit code.
func reportError(streams Streams, err error) int {
	if err == nil {
		return ExitOK
	}

	var cerr *CompletionError
	switch {
	case errors.As(err, &cerr):
		fmt.Fprintln(streams.Err, cerr.Message)
		return ExitError
	case errors.Is(err, ErrEmptyPrompt):
		fmt.Fprintf(streams.Err, "Error: %v\n", err)
		return ExitUsage
	default:
		fmt.Fprintf(streams.Err, "Error: %v\n", err)
		return ExitError
	}
}
