// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// render.go - Answer panel rendering for the cmdai CLI.
//
// USABILITY: Markdown rendering and syntax highlighting for better CLI experience
//
// The assistant's output language is three panels:
//
//	建议命令  green border, bash syntax highlighting (chroma, monokai)
//	解释说明  yellow border, markdown-rendered explanation
//	回复      red border, fallback for replies without a command
//
// A parsed answer with a command renders the first one or two panels; an
// answer without a command renders only the fallback panel. Error panels
// (API 错误, 连接错误, 程序错误, 配置警告) reuse the fallback framing.
package cli

import (
	"fmt"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	chromaStyles "github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/cmdai/internal/answer"
)

// =============================================================================
// PANEL TITLES
// =============================================================================

const (
	commandPanelTitle     = "建议命令"
	explanationPanelTitle = "解释说明"
	replyPanelTitle       = "回复"
)

// =============================================================================
// MARKDOWN RENDERING
// =============================================================================

// markdownRenderer is the global glamour renderer for explanation text.
// USABILITY: Renders markdown responses with formatting when on a TTY.
var markdownRenderer *glamour.TermRenderer

func init() {
	var err error
	markdownRenderer, err = glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(DefaultTerminalWidth),
	)
	if err != nil {
		// Fallback to plain text if renderer initialization fails
		markdownRenderer = nil
	}
}

// renderMarkdown renders markdown content for terminal display.
// Returns the original content if rendering fails or renderer is unavailable.
func renderMarkdown(content string) string {
	if markdownRenderer == nil {
		return content
	}

	rendered, err := markdownRenderer.Render(content)
	if err != nil {
		return content
	}
	return strings.TrimRight(rendered, "\n")
}

// =============================================================================
// SYNTAX HIGHLIGHTING (Chroma-based)
// =============================================================================

// highlightShell applies bash syntax highlighting to a command using the
// chroma library with the monokai style. Returns the command unchanged when
// colors are disabled or highlighting fails.
func highlightShell(command string) string {
	if !ColorsEnabled() {
		return command
	}

	lexer := lexers.Get("bash")
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	style := chromaStyles.Get("monokai")
	if style == nil {
		style = chromaStyles.Fallback
	}

	formatter := formatters.Get("terminal256")
	if formatter == nil {
		formatter = formatters.Fallback
	}

	iterator, err := lexer.Tokenise(nil, command)
	if err != nil {
		return command
	}

	var buf strings.Builder
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return command
	}

	return strings.TrimRight(buf.String(), "\n")
}

// =============================================================================
// PANEL RENDERING
// =============================================================================

// panelWidth returns the width panels are drawn at: the terminal width,
// capped for very wide windows.
func panelWidth() int {
	w := GetTerminalWidth() - 2
	if w > 100 {
		w = 100
	}
	return w
}

// renderPanel draws a bordered panel with a styled title line above the body.
func renderPanel(border lipgloss.Style, title lipgloss.Style, heading, body string) string {
	content := title.Render(heading) + "\n" + body
	return border.Width(panelWidth()).Render(content)
}

// renderCommandPanel builds the green suggested-command panel.
func renderCommandPanel(command string) string {
	return renderPanel(CommandBorderStyle, SuccessStyle, commandPanelTitle, highlightShell(command))
}

// renderExplanationPanel builds the yellow explanation panel. The body goes
// through glamour markdown rendering when stdout is a TTY; piped output gets
// the plain text so nothing corrupts downstream consumers.
func renderExplanationPanel(explanation string) string {
	body := explanation
	if IsStdoutTTY() {
		body = renderMarkdown(explanation)
	}
	return renderPanel(ExplanationBorderStyle, WarningStyle, explanationPanelTitle, body)
}

// renderReplyPanel builds the red fallback panel for answers without a
// command: small talk, refusals, and converted transport errors. The body is
// plain text, so it is word-wrapped to the panel width here.
func renderReplyPanel(text string) string {
	return renderPanel(ReplyBorderStyle, ErrorStyle, replyPanelTitle, WrapText(text, panelWidth()-2))
}

// RenderAnswer prints a parsed answer using the panel language above.
//
// Command present -> command panel, then explanation panel when non-empty.
// Command absent  -> fallback panel with the explanation, or the raw reply
// when the explanation is empty too.
func RenderAnswer(ans answer.Answer) {
	if ans.HasCommand() {
		fmt.Println(renderCommandPanel(ans.Command))
		if ans.Explanation != "" {
			fmt.Println(renderExplanationPanel(ans.Explanation))
		}
		return
	}

	body := ans.Explanation
	if body == "" {
		body = ans.Raw
	}
	fmt.Println(renderReplyPanel(body))
}

// RenderErrorPanel prints a red-bordered panel with the given title, used for
// transport and configuration errors (API 错误, 连接错误, 程序错误, 配置警告).
func RenderErrorPanel(title, text string) {
	fmt.Println(renderPanel(ReplyBorderStyle, ErrorStyle, title, text))
}
