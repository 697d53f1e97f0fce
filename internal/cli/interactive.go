// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// interactive.go - Interactive REPL command handler for the cmdai CLI.
//
// USABILITY: Markdown rendering and history for better CLI experience
//
// Handles the "cmdai interactive" command (alias: chat): a blocking
// read-evaluate loop where each task fully resolves (request, parse,
// render) before the next prompt appears.
//
// Command: interactive
// Short:   Ask continuously, like a chat
// Aliases: chat
//
// Exits on 'exit', 'quit', 'q' or '退出' (case-insensitive), or on
// Ctrl+C / Ctrl+D with a clean goodbye. Empty input re-prompts. Input
// history (queries only, never answers) persists to ~/.cmdai/history.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/peterh/liner"

	"github.com/jeranaias/cmdai/internal/config"
)

// =============================================================================
// INPUT HISTORY
// =============================================================================

// InputCLI provides input history and line editing for interactive mode.
// USABILITY: Supports arrow keys for history navigation and line editing.
type InputCLI struct {
	line        *liner.State
	historyFile string
}

// NewInputCLI creates a new InputCLI with input history support.
func NewInputCLI() *InputCLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	historyFile, err := config.HistoryPath()
	if err != nil {
		// Fallback to temp directory if config dir unavailable
		historyFile = filepath.Join(os.TempDir(), "cmdai_history")
	}

	cli := &InputCLI{
		line:        line,
		historyFile: historyFile,
	}

	cli.LoadHistory()

	return cli
}

// LoadHistory loads input history from file.
func (c *InputCLI) LoadHistory() {
	if f, err := os.Open(c.historyFile); err == nil {
		c.line.ReadHistory(f)
		f.Close()
	}
}

// ReadInput reads a line of input with the given prompt.
// Supports history navigation with arrow keys.
func (c *InputCLI) ReadInput(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if err != nil {
		return "", err
	}

	// Add non-empty input to history
	if strings.TrimSpace(input) != "" {
		c.line.AppendHistory(input)
	}

	return input, nil
}

// SaveHistory persists input history to file with secure permissions.
func (c *InputCLI) SaveHistory() {
	if err := config.EnsureConfigDir(); err != nil {
		return
	}

	// SECURITY: 0600, the history may contain sensitive task descriptions.
	f, err := os.OpenFile(c.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return
	}
	defer f.Close()

	c.line.WriteHistory(f)
}

// Close saves history and closes the liner.
func (c *InputCLI) Close() {
	c.SaveHistory()
	c.line.Close()
}

// =============================================================================
// INTERACTIVE HANDLER
// =============================================================================

// exitKeywords end the REPL. Comparison is case-insensitive but unstripped;
// padded input falls through as a normal query.
var exitKeywords = []string{"exit", "quit", "q", "退出"}

// isExitKeyword reports whether the input asks to leave the REPL.
func isExitKeyword(input string) bool {
	lowered := strings.ToLower(input)
	for _, kw := range exitKeywords {
		if lowered == kw {
			return true
		}
	}
	return false
}

// HandleInteractive handles the "interactive" command.
func HandleInteractive(args Args) error {
	cfg := config.Global()
	applyUIConfig(cfg, args)

	if !CanPrompt() {
		return NewConfigError("交互模式需要在终端中运行。", &TTYRequiredError{Operation: "chat"})
	}

	client := newClient(cfg, args)
	if err := requireKey(client); err != nil {
		return err
	}

	// Welcome panel explaining the exit keywords.
	fmt.Println(renderPanel(
		WelcomeBorderStyle,
		SuccessStyle,
		"进入交互模式",
		"输入 'exit', 'quit', 'q' 或 '退出' 结束。",
	))

	input := NewInputCLI()
	defer input.Close()

	// While the prompt is active, liner consumes Ctrl+C itself (raw mode)
	// and reports ErrPromptAborted. This handler only fires while a request
	// is in flight; restore the terminal before leaving.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		<-sigChan
		input.Close()
		fmt.Println()
		fmt.Println(WarningStyle.Render("用户中断，退出程序。"))
		os.Exit(ExitSuccess)
	}()

	for {
		line, err := input.ReadInput(PromptStyle.Render(">>> "))
		if err != nil {
			// Ctrl+C (ErrPromptAborted) or Ctrl+D (EOF): clean goodbye,
			// no stack trace.
			if err == liner.ErrPromptAborted {
				fmt.Println()
			}
			fmt.Println(WarningStyle.Render("用户中断，退出程序。"))
			return nil
		}

		if isExitKeyword(line) {
			fmt.Println(WarningStyle.Render("再见！"))
			return nil
		}

		if strings.TrimSpace(line) == "" {
			continue
		}

		handleQuery(context.Background(), client, line)
		fmt.Println()
	}
}
