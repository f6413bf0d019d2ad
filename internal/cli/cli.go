// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"runtime"
	"strings"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdAsk
	CmdProxy
	CmdConfig
	CmdVersion
	CmdHelp
)

// String returns the command name as typed on the command line.
func (c Command) String() string {
	switch c {
	case CmdTUI:
		return "tui"
	case CmdAsk:
		return "ask"
	case CmdProxy:
		return "proxy"
	case CmdConfig:
		return "config"
	case CmdVersion:
		return "version"
	case CmdHelp:
		return "help"
	default:
		return fmt.Sprintf("command(%d)", int(c))
	}
}

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	ConfigPath string
	Endpoint   string
	Verbose    bool
	JSON       bool

	// Command-specific
	Query      string
	Listen     string
	Subcommand string
	ConfigKey  string

	// Unknown is set when the first word is not a command.
	Unknown string

	// Raw args (remaining after flag parsing)
	Raw []string
}

const usageText = `parley - terminal chat client for a completion endpoint
Version: %s

USAGE:
  parley [global flags] [command] [args]

COMMANDS:
  tui                    Full-screen chat (default)
  ask [--json] PROMPT    Send one prompt and print the reply.
                         Reads the prompt from stdin when it is piped.
  proxy [--listen ADDR]  Serve a local endpoint that holds the real API key
  config show            Print the effective configuration
  config path            Print the config file path
  config init            Write a default config file
  config get KEY         Print one setting, e.g. endpoint.url
  version                Print version information
  help                   Show this help

GLOBAL FLAGS:
  --config PATH          Use PATH instead of ~/.parley/config.toml
  --endpoint URL         Override endpoint.url
  --json                 Machine-readable output (ask, config, version)
  -v, --verbose          Debug logging

ENVIRONMENT:
  PARLEY_HOME            Config directory (default ~/.parley)
  PARLEY_ENDPOINT        Override endpoint.url
  PARLEY_API_KEY_ENV     Name of the variable holding the client credential
  PARLEY_TIMEOUT         Override endpoint.timeout
  PARLEY_THEME           dark, light or auto
  PARLEY_LOG_LEVEL       debug, info, warn or error
  PARLEY_PROXY_LISTEN    Override proxy.listen
  PARLEY_TRACING         true enables OpenTelemetry export

A .env file in the working directory or config directory is loaded first.

EXAMPLES:
  parley
  parley ask "Summarize RFC 9110 in one paragraph"
  git diff | parley ask --json
  ANTHROPIC_API_KEY=... parley proxy --listen 127.0.0.1:8787
`

// PrintUsage prints the usage/help text.
func PrintUsage(w io.Writer) {
	fmt.Fprintf(w, usageText, Version)
}

// PrintVersion prints version information.
func PrintVersion(w io.Writer) {
	fmt.Fprintf(w, "parley version %s\n", Version)
	fmt.Fprintf(w, "  Git commit: %s\n", GitCommit)
	fmt.Fprintf(w, "  Build date: %s\n", BuildDate)
	fmt.Fprintf(w, "  Go: %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

// Parse parses argv (without the program name) and returns the command and args.
func Parse(argv []string) (Command, Args) {
	remaining, parsed := parseGlobalFlags(argv)

	if len(remaining) == 0 {
		return CmdTUI, parsed
	}

	cmd := strings.ToLower(remaining[0])
	remaining = remaining[1:]
	parsed.Raw = remaining

	switch cmd {
	case "tui", "chat":
		return CmdTUI, parsed
	case "ask":
		parseAskArgs(&parsed, remaining)
		return CmdAsk, parsed
	case "proxy", "serve":
		parseProxyArgs(&parsed, remaining)
		return CmdProxy, parsed
	case "config":
		parseConfigArgs(&parsed, remaining)
		return CmdConfig, parsed
	case "version", "--version":
		return CmdVersion, parsed
	case "help", "-h", "--help":
		return CmdHelp, parsed
	default:
		parsed.Unknown = cmd
		return CmdHelp, parsed
	}
}

// parseGlobalFlags extracts global flags from args and returns remaining args.
// Flags may appear anywhere on the line.
func parseGlobalFlags(args []string) ([]string, Args) {
	var remaining []string
	var parsed Args

	for i := 0; i < len(args); i++ {
		arg := args[i]

		switch arg {
		case "-v", "--verbose":
			parsed.Verbose = true
		case "--json":
			parsed.JSON = true
		case "--config", "--endpoint":
			if i+1 < len(args) {
				i++
				setGlobalValue(&parsed, arg, args[i])
			}
		default:
			if name, value, ok := strings.Cut(arg, "="); ok && (name == "--config" || name == "--endpoint") {
				setGlobalValue(&parsed, name, value)
			} else {
				remaining = append(remaining, arg)
			}
		}
	}

	return remaining, parsed
}

func setGlobalValue(parsed *Args, flag, value string) {
	switch flag {
	case "--config":
		parsed.ConfigPath = value
	case "--endpoint":
		parsed.Endpoint = value
	}
}

// parseAskArgs joins the non-flag words into the prompt.
func parseAskArgs(args *Args, remaining []string) {
	var query []string
	for _, arg := range remaining {
		if arg == "--" {
			continue
		}
		query = append(query, arg)
	}
	args.Query = strings.Join(query, " ")
}

func parseProxyArgs(args *Args, remaining []string) {
	for i := 0; i < len(remaining); i++ {
		arg := remaining[i]
		switch {
		case arg == "--listen" || arg == "-l":
			if i+1 < len(remaining) {
				i++
				args.Listen = remaining[i]
			}
		case strings.HasPrefix(arg, "--listen="):
			args.Listen = strings.TrimPrefix(arg, "--listen=")
		}
	}
}

func parseConfigArgs(args *Args, remaining []string) {
	if len(remaining) == 0 {
		args.Subcommand = "show"
		return
	}
	args.Subcommand = strings.ToLower(remaining[0])
	if len(remaining) > 1 {
		args.ConfigKey = remaining[1]
	}
}
