// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides command-line interface parsing and execution for cmdai.
//
// This package implements all CLI commands for the assistant, including the
// one-shot query mode, the interactive REPL, the web server launcher, and
// configuration management.
//
// # Key Types
//
//   - Command: Enumeration of all available CLI commands
//   - Args: Parsed command-line arguments with global and command-specific flags
//   - InputCLI: Line editor with persistent history for interactive mode
//
// # Usage
//
// Parse and execute commands:
//
//	cmd, args := cli.Parse()
//	switch cmd {
//	case cli.CmdAsk:
//	    os.Exit(cli.HandleAsk(args))
//	case cli.CmdInteractive:
//	    os.Exit(cli.HandleInteractive(args))
//	// ... other commands
//	}
//
// # Commands Overview
//
//   - ask: Single task query, renders one suggested command
//   - interactive: Blocking REPL with input history (alias: chat)
//   - serve: Run the single-page web interface
//   - config: View and modify ~/.cmdai/config.toml
//   - version, help: The usual ancillary commands
//
// All user-facing text is Chinese, matching the assistant's audience. Styling
// degrades to plain text on non-TTY output and honors NO_COLOR.
package cli
