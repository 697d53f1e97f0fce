// cmdai - AI powered Linux command line assistant.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"os"

	"github.com/jeranaias/cmdai/internal/cli"
)

// Version information (set at build time)
var (
	Version   = "1.0.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	// Sync version info with cli package
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	cmd, args := cli.Parse()

	var err error
	switch cmd {
	case cli.CmdAsk:
		err = cli.HandleAsk(args)
	case cli.CmdInteractive:
		err = cli.HandleInteractive(args)
	case cli.CmdServe:
		err = cli.HandleServe(args)
	case cli.CmdConfig:
		err = cli.HandleConfig(args)
	case cli.CmdVersion:
		err = cli.HandleVersion(args)
	case cli.CmdHelp:
		err = cli.HandleHelp(args)
	default:
		err = cli.HandleUnknown(args)
	}

	if err != nil {
		cli.DisplayError(err)
		os.Exit(cli.GetExitCode(err))
	}
}
