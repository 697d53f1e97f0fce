// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package prompt holds the fixed conversation scaffolding sent to the model.
//
// Every surface (one-shot CLI, interactive loop, web page) builds the same
// two-message payload: the system instruction below plus the user's query.
// Chat history is display state only and is never replayed to the model, so
// each query stands alone and the instruction fully determines the reply
// format the parser expects.
package prompt

import (
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/jeranaias/cmdai/internal/llm"
)

// SystemInstruction steers the model toward a parseable reply: a ```bash
// fenced command followed by a 说明： line. The parser's extraction rules
// mirror this exact format.
const SystemInstruction = "你是一个专业的命令行(CLI)助手。用户会告诉你他们想做什么，你需要提供相应的 Linux/macOS 命令行指令。\n" +
	"请严格遵守以下规则：\n" +
	"1. 如果用户意图不明确，请给出最常用的命令。\n" +
	"2. 如果操作有危险（如 rm -rf），请在解释中明确警告。\n" +
	"3. 输出格式必须严格如下，不要包含其他无关的寒暄：\n" +
	"```bash\n" +
	"<此处写具体的命令行指令>\n" +
	"```\n" +
	"说明：<此处写简短的中文解释，说明命令的作用和参数含义>"

// Greeting seeds a fresh chat on surfaces that show history.
const Greeting = "你好！请告诉我你想执行什么操作？例如：'解压 tar.gz 文件'"

// Build assembles the two-message payload for one query.
func Build(query string) []llm.Message {
	return []llm.Message{
		llm.NewSystemMessage(SystemInstruction),
		llm.NewUserMessage(Normalize(query)),
	}
}

// Normalize trims a query and converts it to NFC form.
//
// UNICODE: IME input on macOS terminals can arrive decomposed; composing it
// here keeps queries byte-identical regardless of the input source.
func Normalize(query string) string {
	return norm.NFC.String(strings.TrimSpace(query))
}
