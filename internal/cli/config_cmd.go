// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/parley/internal/config"
)

// HandleConfig runs `parley config show|path|init|get`.
func HandleConfig(args Args, cfg *config.Config, streams Streams) error {
	path := args.ConfigPath
	if path == "" {
		p, err := config.ConfigPath()
		if err != nil {
			return NewCommandError("config", args.Subcommand, "cannot locate config directory", err)
		}
		path = p
	}

	switch args.Subcommand {
	case "", "show":
		if args.JSON {
			return NewJSONResponse("config show", cfg).Write(streams.Out)
		}
		return toml.NewEncoder(streams.Out).Encode(cfg)

	case "path":
		if args.JSON {
			return NewJSONResponse("config path", map[string]string{"path": path}).Write(streams.Out)
		}
		_, err := fmt.Fprintln(streams.Out, path)
		return err

	case "init":
		if _, err := os.Stat(path); err == nil {
			return NewCommandError("config", "init", path+" already exists", nil)
		} else if !errors.Is(err, os.ErrNotExist) {
			return NewCommandError("config", "init", "cannot stat "+path, err)
		}
		if err := config.SaveTOML(config.Default(), path); err != nil {
			return NewCommandError("config", "init", "write failed", err)
		}
		_, err := fmt.Fprintf(streams.Out, "Wrote %s\n", path)
		return err

	case "get":
		if args.ConfigKey == "" {
			return NewCommandError("config", "get", "missing KEY (e.g. endpoint.url)", nil)
		}
		v, err := cfg.Get(args.ConfigKey)
		if err != nil {
			return NewCommandError("config", "get", "unknown key", err)
		}
		if args.JSON {
			return NewJSONResponse("config get", map[string]interface{}{"key": args.ConfigKey, "value": v}).Write(streams.Out)
		}
		_, err = fmt.Fprintln(streams.Out, config.FormatValue(v))
		return err

	default:
		return NewCommandError("config", args.Subcommand, "unknown subcommand (show, path, init, get)", nil)
	}
}
