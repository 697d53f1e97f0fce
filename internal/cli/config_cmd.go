// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config_cmd.go - Config command implementation for cmdai.
//
// CLI: Comprehensive help and examples for all commands
//
// Command: config [subcommand]
// Short:   View and modify configuration
//
// Subcommands:
//   list (default)      Display all configuration values
//   get <key>           Print a single value
//   set <key> <value>   Set a value and save the file
//   path                Show configuration file location
//
// Examples:
//   cmdai config                          Show current config
//   cmdai config get api.model
//   cmdai config set api.key sk-xxx
//   cmdai config set api.model Qwen/Qwen2.5-72B-Instruct
//   cmdai config set web.port 8080
//   cmdai config path
//
// Configuration Keys:
//   api.key             SiliconFlow API key (displayed masked)
//   api.base_url        API base URL
//   api.model           Chat model identifier
//   api.timeout_secs    Request timeout in seconds
//   web.port            Port for `cmdai serve`
//   web.max_sessions    Session cap for the web interface
//   ui.no_color         Disable colored output (true/false)
package cli

import (
	"fmt"
	"os"

	"github.com/jeranaias/cmdai/internal/config"
	"github.com/jeranaias/cmdai/internal/util"
)

const configUsageHint = "用法: cmdai config <get|set|list|path>"

// HandleConfig handles the "config" command.
func HandleConfig(args Args) error {
	cfg := config.Global()
	applyUIConfig(cfg, args)

	switch args.Subcommand {
	case "", "list", "show":
		return configList(cfg)
	case "get":
		return configGet(cfg, args.ConfigKey)
	case "set":
		return configSet(args.ConfigKey, args.ConfigVal)
	case "path":
		return configPath()
	default:
		return NewUsageError("config "+args.Subcommand, configUsageHint)
	}
}

// configList prints every configuration key with its current value.
func configList(cfg *config.Config) error {
	fmt.Println(TitleStyle.Render("cmdai 配置"))
	fmt.Println(RenderSeparator(40))

	// Values are truncated to keep each row on one line; `config get` prints
	// the full value for scripting.
	valueWidth := GetTerminalWidth() - 21
	for _, key := range config.GetAllKeys() {
		val := util.TruncateWidth(displayValue(cfg, key), valueWidth)
		fmt.Printf("%s %s\n", KeyStyle.Render(key), ValueStyle.Render(val))
	}

	path, err := config.ConfigPath()
	if err == nil {
		fmt.Println()
		fmt.Printf("%s %s\n", KeyStyle.Render("配置文件"), DimStyle.Render(path))
	}
	return nil
}

// configGet prints a single configuration value.
func configGet(cfg *config.Config, key string) error {
	if key == "" {
		return NewUsageError("", "用法: cmdai config get <key>")
	}

	if _, err := cfg.Get(key); err != nil {
		return fmt.Errorf("未知的配置项 '%s': %w", key, err)
	}

	fmt.Println(displayValue(cfg, key))
	return nil
}

// configSet sets a value in the config file and saves it.
//
// The value is applied to the file state, not the env-overridden runtime
// view, so environment variables never get baked into config.toml.
func configSet(key, value string) error {
	if key == "" || value == "" {
		return NewUsageError("", "用法: cmdai config set <key> <value>")
	}

	fileCfg := config.Default()
	path, err := config.ConfigPath()
	if err != nil {
		return err
	}
	if _, statErr := os.Stat(path); statErr == nil {
		if err := config.LoadTOML(fileCfg, path); err != nil {
			return fmt.Errorf("读取配置失败: %w", err)
		}
	}

	if err := fileCfg.Set(key, value); err != nil {
		return fmt.Errorf("未知的配置项 '%s': %w", key, err)
	}

	if err := fileCfg.Validate(); err != nil {
		return fmt.Errorf("无效的配置值: %w", err)
	}

	if err := config.EnsureConfigDir(); err != nil {
		return err
	}
	if err := config.Save(fileCfg); err != nil {
		return err
	}

	fmt.Printf("%s %s\n", SuccessStyle.Render("已保存"), KeyStyle.Render(key))
	return nil
}

// configPath prints the config file location.
func configPath() error {
	path, err := config.ConfigPath()
	if err != nil {
		return err
	}
	fmt.Println(path)
	return nil
}

// displayValue formats a config value for display, masking the API key.
// SECURITY: The key never appears in terminal output, only its length.
func displayValue(cfg *config.Config, key string) string {
	if key == "api.key" {
		return cfg.MaskedKey()
	}
	val, err := cfg.Get(key)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("%v", val)
}
