// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - CLI parsing and command dispatch for cmdai.
//
// CLI: Comprehensive help and examples for all commands
package cli

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Version information (can be overridden at build time)
var (
	Version   = "1.0.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdAsk Command = iota
	CmdInteractive
	CmdServe
	CmdConfig
	CmdVersion
	CmdHelp
	CmdUnknown
)

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	Model       string // --model: override model for this invocation
	BaseURL     string // --base-url: override API base URL
	TimeoutSecs int    // --timeout: override request timeout in seconds
	NoColor     bool   // --no-color: force plain output

	// Command-specific
	Query      string // joined task description (ask)
	Subcommand string // config subcommand (get/set/list/path)
	ConfigKey  string
	ConfigVal  string
	Port       int // serve --port override

	// Unknown holds the unrecognized command word for error reporting.
	Unknown string

	// Raw args (remaining after global flag parsing)
	Raw []string
}

const usageText = `cmdai - AI 驱动的 Linux 命令行助手

把你想做的事用自然语言告诉 cmdai，它会返回对应的 shell 命令和简短的中文解释。

用法:
  cmdai ask <任务描述>              单次提问，输出建议命令
  cmdai interactive                 交互模式，连续提问 (别名: chat)
  cmdai serve [--port N]            启动网页界面 (默认 127.0.0.1:8787)
  cmdai config <get|set|list|path>  配置管理
  cmdai version                     显示版本信息
  cmdai help                        显示本帮助

全局选项:
  --model NAME       本次调用使用指定模型
  --base-url URL     覆盖 API 地址
  --timeout SECS     覆盖请求超时时间（秒）
  --no-color         禁用彩色输出

示例:
  cmdai ask 如何解压 tar.gz 文件
  cmdai ask 查找当前目录下最大的 10 个文件
  cmdai interactive
  cmdai serve --port 8080
  cmdai config set api.key sk-xxx
  cmdai config get api.model
  cmdai config list

配置:
  API Key 按以下顺序解析：CMDAI_API_KEY（或 SILICONFLOW_API_KEY / API_KEY
  环境变量）> 工作目录下的 .env 文件 > ~/.cmdai/config.toml。
  没有可用的 Key 时去 https://cloud.siliconflow.cn/ 申请。

版本: %s
`

// PrintUsage prints the usage/help text.
func PrintUsage() {
	fmt.Printf(usageText, Version)
}

// PrintVersion prints version information.
func PrintVersion() {
	fmt.Printf("cmdai version %s\n", Version)
	fmt.Printf("  Git commit: %s\n", GitCommit)
	fmt.Printf("  Build date: %s\n", BuildDate)
}

// Parse parses os.Args and returns the command and args.
func Parse() (Command, Args) {
	return parseArgs(os.Args[1:])
}

// parseArgs parses command-line arguments and returns the command and args.
func parseArgs(argv []string) (Command, Args) {
	// Parse global flags first; they are valid in any position.
	remaining, parsedArgs := parseGlobalFlags(argv)

	// No arguments at all: show help.
	if len(remaining) == 0 {
		return CmdHelp, parsedArgs
	}

	cmd := strings.ToLower(remaining[0])
	remaining = remaining[1:]
	parsedArgs.Raw = remaining

	switch cmd {
	case "ask":
		parseAskArgs(&parsedArgs, remaining)
		return CmdAsk, parsedArgs

	case "interactive", "chat":
		return CmdInteractive, parsedArgs

	case "serve":
		parseServeArgs(&parsedArgs, remaining)
		return CmdServe, parsedArgs

	case "config":
		parseConfigArgs(&parsedArgs, remaining)
		return CmdConfig, parsedArgs

	case "version", "-v", "--version":
		return CmdVersion, parsedArgs

	case "help", "-h", "--help":
		return CmdHelp, parsedArgs

	default:
		parsedArgs.Unknown = cmd
		return CmdUnknown, parsedArgs
	}
}

// parseGlobalFlags extracts global flags from args and returns remaining args.
func parseGlobalFlags(args []string) ([]string, Args) {
	var remaining []string
	var parsedArgs Args

	i := 0
	for i < len(args) {
		arg := args[i]

		switch arg {
		case "--no-color":
			parsedArgs.NoColor = true
		case "--model", "-m":
			if i+1 < len(args) {
				i++
				parsedArgs.Model = args[i]
			}
		case "--base-url":
			if i+1 < len(args) {
				i++
				parsedArgs.BaseURL = args[i]
			}
		case "--timeout":
			if i+1 < len(args) {
				i++
				if n, err := strconv.Atoi(args[i]); err == nil && n > 0 {
					parsedArgs.TimeoutSecs = n
				}
			}
		default:
			// Check for --flag=value formats
			switch {
			case strings.HasPrefix(arg, "--model="):
				parsedArgs.Model = strings.TrimPrefix(arg, "--model=")
			case strings.HasPrefix(arg, "--base-url="):
				parsedArgs.BaseURL = strings.TrimPrefix(arg, "--base-url=")
			case strings.HasPrefix(arg, "--timeout="):
				if n, err := strconv.Atoi(strings.TrimPrefix(arg, "--timeout=")); err == nil && n > 0 {
					parsedArgs.TimeoutSecs = n
				}
			default:
				remaining = append(remaining, arg)
			}
		}
		i++
	}

	return remaining, parsedArgs
}

// parseAskArgs parses ask command specific arguments. All non-flag words are
// joined with single spaces into the query.
func parseAskArgs(args *Args, remaining []string) {
	var query []string

	for _, arg := range remaining {
		if strings.HasPrefix(arg, "-") {
			// Unknown flags are ignored rather than folded into the query.
			continue
		}
		query = append(query, arg)
	}

	args.Query = strings.Join(query, " ")
}

// parseServeArgs parses serve command specific arguments.
func parseServeArgs(args *Args, remaining []string) {
	parser := NewArgParser(remaining)
	args.Port = parser.FlagIntOrDefault("port", 0)
}

// parseConfigArgs parses config command specific arguments.
func parseConfigArgs(args *Args, remaining []string) {
	if len(remaining) > 0 {
		args.Subcommand = remaining[0]
		if len(remaining) > 1 {
			args.ConfigKey = remaining[1]
		}
		if len(remaining) > 2 {
			args.ConfigVal = remaining[2]
		}
	}
}

// HandleVersion handles the "version" command.
func HandleVersion(args Args) error {
	PrintVersion()
	return nil
}

// HandleHelp handles the "help" command and the bare invocation.
func HandleHelp(args Args) error {
	PrintUsage()
	return nil
}

// HandleUnknown reports an unrecognized command.
func HandleUnknown(args Args) error {
	return NewUsageError(args.Unknown, "运行 'cmdai help' 查看可用命令。")
}
