// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"testing"
)

// =============================================================================
// ARGUMENT PARSING
// =============================================================================

// TestParseArgs tests command dispatch and flag extraction.
func TestParseArgs(t *testing.T) {
	tests := []struct {
		name    string
		argv    []string
		wantCmd Command
		check   func(t *testing.T, args Args)
	}{
		{
			name:    "no arguments shows help",
			argv:    []string{},
			wantCmd: CmdHelp,
		},
		{
			name:    "ask joins task words with spaces",
			argv:    []string{"ask", "如何解压", "tar.gz", "文件"},
			wantCmd: CmdAsk,
			check: func(t *testing.T, args Args) {
				if args.Query != "如何解压 tar.gz 文件" {
					t.Errorf("Query = %q", args.Query)
				}
			},
		},
		{
			name:    "ask with no task leaves query empty",
			argv:    []string{"ask"},
			wantCmd: CmdAsk,
			check: func(t *testing.T, args Args) {
				if args.Query != "" {
					t.Errorf("Query = %q, want empty", args.Query)
				}
			},
		},
		{
			name:    "global model flag before command",
			argv:    []string{"--model", "Qwen/QwQ-32B", "ask", "查看端口"},
			wantCmd: CmdAsk,
			check: func(t *testing.T, args Args) {
				if args.Model != "Qwen/QwQ-32B" {
					t.Errorf("Model = %q", args.Model)
				}
				if args.Query != "查看端口" {
					t.Errorf("Query = %q", args.Query)
				}
			},
		},
		{
			name:    "global model flag after command",
			argv:    []string{"ask", "查看端口", "--model", "Qwen/QwQ-32B"},
			wantCmd: CmdAsk,
			check: func(t *testing.T, args Args) {
				if args.Model != "Qwen/QwQ-32B" {
					t.Errorf("Model = %q", args.Model)
				}
				if args.Query != "查看端口" {
					t.Errorf("Query = %q", args.Query)
				}
			},
		},
		{
			name:    "model equals format",
			argv:    []string{"--model=Qwen/QwQ-32B", "ask", "x"},
			wantCmd: CmdAsk,
			check: func(t *testing.T, args Args) {
				if args.Model != "Qwen/QwQ-32B" {
					t.Errorf("Model = %q", args.Model)
				}
			},
		},
		{
			name:    "base url and timeout overrides",
			argv:    []string{"--base-url", "http://localhost:9999/v1", "--timeout", "60", "ask", "x"},
			wantCmd: CmdAsk,
			check: func(t *testing.T, args Args) {
				if args.BaseURL != "http://localhost:9999/v1" {
					t.Errorf("BaseURL = %q", args.BaseURL)
				}
				if args.TimeoutSecs != 60 {
					t.Errorf("TimeoutSecs = %d", args.TimeoutSecs)
				}
			},
		},
		{
			name:    "invalid timeout value is ignored",
			argv:    []string{"--timeout", "soon", "ask", "x"},
			wantCmd: CmdAsk,
			check: func(t *testing.T, args Args) {
				if args.TimeoutSecs != 0 {
					t.Errorf("TimeoutSecs = %d, want 0", args.TimeoutSecs)
				}
			},
		},
		{
			name:    "no-color flag",
			argv:    []string{"--no-color", "ask", "x"},
			wantCmd: CmdAsk,
			check: func(t *testing.T, args Args) {
				if !args.NoColor {
					t.Error("NoColor should be true")
				}
			},
		},
		{
			name:    "interactive command",
			argv:    []string{"interactive"},
			wantCmd: CmdInteractive,
		},
		{
			name:    "chat alias",
			argv:    []string{"chat"},
			wantCmd: CmdInteractive,
		},
		{
			name:    "serve with port",
			argv:    []string{"serve", "--port", "8080"},
			wantCmd: CmdServe,
			check: func(t *testing.T, args Args) {
				if args.Port != 8080 {
					t.Errorf("Port = %d", args.Port)
				}
			},
		},
		{
			name:    "serve with port equals format",
			argv:    []string{"serve", "--port=9090"},
			wantCmd: CmdServe,
			check: func(t *testing.T, args Args) {
				if args.Port != 9090 {
					t.Errorf("Port = %d", args.Port)
				}
			},
		},
		{
			name:    "serve without port",
			argv:    []string{"serve"},
			wantCmd: CmdServe,
			check: func(t *testing.T, args Args) {
				if args.Port != 0 {
					t.Errorf("Port = %d, want 0 (use config)", args.Port)
				}
			},
		},
		{
			name:    "config set",
			argv:    []string{"config", "set", "api.model", "Qwen/QwQ-32B"},
			wantCmd: CmdConfig,
			check: func(t *testing.T, args Args) {
				if args.Subcommand != "set" || args.ConfigKey != "api.model" || args.ConfigVal != "Qwen/QwQ-32B" {
					t.Errorf("Subcommand = %q, Key = %q, Val = %q", args.Subcommand, args.ConfigKey, args.ConfigVal)
				}
			},
		},
		{
			name:    "config bare defaults to list",
			argv:    []string{"config"},
			wantCmd: CmdConfig,
			check: func(t *testing.T, args Args) {
				if args.Subcommand != "" {
					t.Errorf("Subcommand = %q, want empty", args.Subcommand)
				}
			},
		},
		{
			name:    "version",
			argv:    []string{"version"},
			wantCmd: CmdVersion,
		},
		{
			name:    "version short flag",
			argv:    []string{"-v"},
			wantCmd: CmdVersion,
		},
		{
			name:    "help",
			argv:    []string{"help"},
			wantCmd: CmdHelp,
		},
		{
			name:    "unknown command",
			argv:    []string{"frobnicate"},
			wantCmd: CmdUnknown,
			check: func(t *testing.T, args Args) {
				if args.Unknown != "frobnicate" {
					t.Errorf("Unknown = %q", args.Unknown)
				}
			},
		},
		{
			name:    "command casing is normalized",
			argv:    []string{"ASK", "解压文件"},
			wantCmd: CmdAsk,
			check: func(t *testing.T, args Args) {
				if args.Query != "解压文件" {
					t.Errorf("Query = %q", args.Query)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, args := parseArgs(tt.argv)
			if cmd != tt.wantCmd {
				t.Fatalf("parseArgs() command = %d, want %d", cmd, tt.wantCmd)
			}
			if tt.check != nil {
				tt.check(t, args)
			}
		})
	}
}

// =============================================================================
// ARG PARSER
// =============================================================================

// TestArgParser tests the subcommand-level parser.
func TestArgParser(t *testing.T) {
	parser := NewArgParser([]string{"set", "api.key", "sk-test", "--json", "--format=toml", "--lines", "50"})

	if parser.Subcommand() != "set" {
		t.Errorf("Subcommand() = %q", parser.Subcommand())
	}
	if parser.Positional(1) != "api.key" {
		t.Errorf("Positional(1) = %q", parser.Positional(1))
	}
	if parser.Positional(2) != "sk-test" {
		t.Errorf("Positional(2) = %q", parser.Positional(2))
	}
	if parser.Positional(99) != "" {
		t.Error("out-of-range positional should be empty")
	}
	if !parser.BoolFlag("json") {
		t.Error("BoolFlag('json') should be true")
	}
	if parser.Flag("format") != "toml" {
		t.Errorf("Flag('format') = %q", parser.Flag("format"))
	}
	if got := parser.FlagOrDefault("format", "json"); got != "toml" {
		t.Errorf("FlagOrDefault('format') = %q", got)
	}
	if got := parser.FlagOrDefault("missing", "json"); got != "json" {
		t.Errorf("FlagOrDefault('missing') = %q", got)
	}
	if got := parser.FlagIntOrDefault("lines", 10); got != 50 {
		t.Errorf("FlagIntOrDefault('lines') = %d", got)
	}
	if got := parser.FlagIntOrDefault("missing", 10); got != 10 {
		t.Errorf("FlagIntOrDefault('missing') = %d", got)
	}
	if parser.PositionalCount() != 3 {
		t.Errorf("PositionalCount() = %d", parser.PositionalCount())
	}
	if !parser.HasFlag("json") || !parser.HasFlag("format") || parser.HasFlag("nope") {
		t.Error("HasFlag() mismatch")
	}
}

// TestJoinPositionalArgs tests multi-word query joining.
func TestJoinPositionalArgs(t *testing.T) {
	parser := NewArgParser([]string{"解压", "tar.gz", "文件"})
	if got := JoinPositionalArgs(parser, 0); got != "解压 tar.gz 文件" {
		t.Errorf("JoinPositionalArgs() = %q", got)
	}
	if got := JoinPositionalArgs(parser, 5); got != "" {
		t.Errorf("JoinPositionalArgs() past end = %q", got)
	}
}

// =============================================================================
// EXIT CODE MAPPING
// =============================================================================

// TestGetExitCode tests the error-to-exit-code mapping.
func TestGetExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil is success", nil, ExitSuccess},
		{"usage error", NewUsageError("frobnicate", "hint"), ExitUsageError},
		{"wrapped usage error", fmt.Errorf("dispatch: %w", NewUsageError("x", "")), ExitUsageError},
		{"config error", NewConfigError("missing key", nil), ExitFatal},
		{"generic error", errors.New("boom"), ExitFatal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetExitCode(tt.err); got != tt.want {
				t.Errorf("GetExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

// TestErrorTypeCheckers tests the error classification helpers.
func TestErrorTypeCheckers(t *testing.T) {
	configErr := NewConfigError("no key", nil)
	usageErr := NewUsageError("x", "")

	if !IsConfigError(configErr) || IsConfigError(usageErr) {
		t.Error("IsConfigError() mismatch")
	}
	if !IsUsageError(usageErr) || IsUsageError(configErr) {
		t.Error("IsUsageError() mismatch")
	}
	if IsConfigError(nil) || IsUsageError(nil) {
		t.Error("nil should not match any error type")
	}
}

// =============================================================================
// REPL EXIT KEYWORDS
// =============================================================================

// TestIsExitKeyword tests REPL exit keyword matching.
func TestIsExitKeyword(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"exit", true},
		{"EXIT", true},
		{"quit", true},
		{"Quit", true},
		{"q", true},
		{"Q", true},
		{"退出", true},
		{"exit now", false},
		{" exit", false}, // input is compared without trimming
		{"", false},
		{"解压文件", false},
	}

	for _, tt := range tests {
		if got := isExitKeyword(tt.input); got != tt.want {
			t.Errorf("isExitKeyword(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}
