// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// ask.go - Single query command handler for the cmdai CLI.
//
// Handles the "cmdai ask" command which sends one task description to the
// model and renders the suggested command.
//
// Command: ask [task...]
// Short:   Ask for a shell command once
// Aliases: (none)
//
// Examples:
//   cmdai ask 如何解压 tar.gz 文件
//   cmdai ask 查找当前目录下最大的 10 个文件
//   cmdai ask --model Qwen/QwQ-32B 查看端口占用
//   cmdai ask --no-color 统计代码行数
//
// Flags (global):
//   --model NAME     Use specific model (overrides config)
//   --base-url URL   Override the API base URL
//   --timeout SECS   Override the request timeout
//   --no-color       Plain output
package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/jeranaias/cmdai/internal/config"
)

// HandleAsk handles the "ask" command: one query, one rendered answer.
//
// An empty task prints a usage hint and succeeds; a missing API key is a
// fatal ConfigError. Transport failures are rendered as fallback panels and
// still count as success.
func HandleAsk(args Args) error {
	cfg := config.Global()
	applyUIConfig(cfg, args)

	if strings.TrimSpace(args.Query) == "" {
		fmt.Println(WarningStyle.Render("用法提示: cmdai ask <你的问题>"))
		return nil
	}

	client := newClient(cfg, args)
	if err := requireKey(client); err != nil {
		return err
	}

	handleQuery(context.Background(), client, args.Query)
	return nil
}
