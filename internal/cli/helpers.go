// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// helpers.go - Shared helpers for cmdai command handlers.
//
// This file contains the single query boundary used by both the ask command
// and the interactive REPL: build the client from config, send one request,
// convert transport errors into fallback answers, render panels. Transport
// errors never escape a query cycle.
package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/cmdai/internal/answer"
	"github.com/jeranaias/cmdai/internal/config"
	"github.com/jeranaias/cmdai/internal/llm"
	"github.com/jeranaias/cmdai/internal/prompt"
)

// thinkingText is shown while a request is in flight.
const thinkingText = "正在思考中..."

// missingKeyText explains how to configure a credential. Fatal for ask and
// interactive; the web surface has its own soft-error path.
const missingKeyText = "未找到 API Key。\n" +
	"请通过以下任一方式配置：\n" +
	"  export CMDAI_API_KEY=sk-xxx   （或 SILICONFLOW_API_KEY）\n" +
	"  在工作目录的 .env 文件中写入 API_KEY=sk-xxx\n" +
	"  cmdai config set api.key sk-xxx"

// applyUIConfig applies color-related settings before any output happens.
// --no-color, ui.no_color, NO_COLOR, and non-TTY stdout all force plain text.
func applyUIConfig(cfg *config.Config, args Args) {
	if args.NoColor || cfg.UI.NoColor {
		SetColorsEnabled(false)
		lipgloss.SetColorProfile(GetColorProfile())
	}
}

// newClient builds the transport client from config plus per-invocation
// flag overrides. Flags win over config; config wins over built-in defaults.
func newClient(cfg *config.Config, args Args) *llm.Client {
	baseURL := cfg.API.BaseURL
	if args.BaseURL != "" {
		baseURL = args.BaseURL
	}

	timeout := cfg.API.Timeout()
	if args.TimeoutSecs > 0 {
		timeout = config.APIConfig{TimeoutSecs: args.TimeoutSecs}.Timeout()
	}

	client := llm.NewClient(cfg.API.Key).
		WithBaseURL(baseURL).
		WithTimeout(timeout)

	if args.Model != "" {
		client.SetModel(args.Model)
	} else {
		client.SetModel(cfg.API.Model)
	}

	return client
}

// requireKey returns a fatal ConfigError when no credential is resolved.
func requireKey(client *llm.Client) error {
	if !client.IsConfigured() {
		return NewConfigError(missingKeyText, llm.ErrNotConfigured)
	}
	return nil
}

// runQuery performs one full query cycle: request, parse, error conversion.
// The returned answer is always renderable; any error panel has already been
// printed by the time it returns.
func runQuery(ctx context.Context, client *llm.Client, query string) answer.Answer {
	fmt.Println(StatusStyle.Render(thinkingText))

	reply, err := client.Chat(ctx, prompt.Build(query))
	if err != nil {
		return answerFromError(err)
	}

	return answer.Parse(reply)
}

// answerFromError converts a transport error into a fallback answer and
// prints the corresponding error panel. Protocol errors get no panel, only
// the fallback text.
func answerFromError(err error) answer.Answer {
	var httpErr *llm.HTTPError
	if errors.As(err, &httpErr) {
		RenderErrorPanel("API 错误", fmt.Sprintf("API请求失败: %d - %s", httpErr.Status, httpErr.Body))
		return answer.Answer{Explanation: "API 请求出错，请检查 Key 或网络。"}
	}

	var netErr *llm.NetworkError
	if errors.As(err, &netErr) {
		RenderErrorPanel("连接错误", fmt.Sprintf("网络错误：%v", netErr.Err))
		return answer.Answer{Explanation: "网络连接失败。"}
	}

	var protoErr *llm.ProtocolError
	if errors.As(err, &protoErr) {
		return answer.Answer{Explanation: "模型未返回有效内容。"}
	}

	RenderErrorPanel("程序错误", fmt.Sprintf("未知错误：%v", err))
	return answer.Answer{Explanation: fmt.Sprintf("发生内部错误: %v", err)}
}

// handleQuery runs one query and renders the result panels.
func handleQuery(ctx context.Context, client *llm.Client, query string) {
	result := runQuery(ctx, client, query)
	RenderAnswer(result)
}
