// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/jeranaias/cmdai/internal/answer"
	"github.com/jeranaias/cmdai/internal/llm"
)

// disableColors forces plain output for the duration of a test so panel
// content can be matched with strings.Contains.
func disableColors(t *testing.T) {
	t.Helper()
	prev := ColorsEnabled()
	SetColorsEnabled(false)
	t.Cleanup(func() { SetColorsEnabled(prev) })
}

// captureOutput redirects stdout while fn runs and returns what was printed.
func captureOutput(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe() failed: %v", err)
	}
	os.Stdout = w
	defer func() { os.Stdout = old }()

	fn()

	w.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("reading captured output failed: %v", err)
	}
	return string(data)
}

// =============================================================================
// PANEL RENDERING
// =============================================================================

// TestRenderCommandPanel tests the green command panel.
func TestRenderCommandPanel(t *testing.T) {
	disableColors(t)

	out := renderCommandPanel("tar -xzvf archive.tar.gz")
	if !strings.Contains(out, "建议命令") {
		t.Error("command panel should carry its title")
	}
	if !strings.Contains(out, "tar -xzvf archive.tar.gz") {
		t.Errorf("command panel should contain the command, got:\n%s", out)
	}
}

// TestRenderExplanationPanel tests the yellow explanation panel.
func TestRenderExplanationPanel(t *testing.T) {
	disableColors(t)

	out := renderExplanationPanel("解压 gzip 压缩的 tar 包到当前目录。")
	if !strings.Contains(out, "解释说明") {
		t.Error("explanation panel should carry its title")
	}
	if !strings.Contains(out, "解压 gzip 压缩的 tar 包到当前目录。") {
		t.Errorf("explanation panel should contain the text, got:\n%s", out)
	}
}

// TestRenderReplyPanel tests the red fallback panel.
func TestRenderReplyPanel(t *testing.T) {
	disableColors(t)

	out := renderReplyPanel("这不是一个可以用命令完成的请求。")
	if !strings.Contains(out, "回复") {
		t.Error("reply panel should carry its title")
	}
	if !strings.Contains(out, "这不是一个可以用命令完成的请求。") {
		t.Errorf("reply panel should contain the text, got:\n%s", out)
	}
}

// TestRenderAnswer tests panel selection for the three answer shapes.
func TestRenderAnswer(t *testing.T) {
	disableColors(t)

	tests := []struct {
		name        string
		ans         answer.Answer
		wantParts   []string
		absentParts []string
	}{
		{
			name: "command with explanation shows both panels",
			ans: answer.Answer{
				Command:     "lsof -i :8080",
				Explanation: "查看占用 8080 端口的进程。",
			},
			wantParts:   []string{"建议命令", "lsof -i :8080", "解释说明", "查看占用 8080 端口的进程。"},
			absentParts: []string{"回复"},
		},
		{
			name: "command without explanation shows only command panel",
			ans: answer.Answer{
				Command: "uptime",
			},
			wantParts:   []string{"建议命令", "uptime"},
			absentParts: []string{"解释说明", "回复"},
		},
		{
			name: "explanation only falls back to reply panel",
			ans: answer.Answer{
				Explanation: "这个问题无法用单条命令解决。",
			},
			wantParts:   []string{"回复", "这个问题无法用单条命令解决。"},
			absentParts: []string{"建议命令"},
		},
		{
			name: "raw text falls back to reply panel",
			ans: answer.Answer{
				Raw: "我只是一个语言模型。",
			},
			wantParts:   []string{"回复", "我只是一个语言模型。"},
			absentParts: []string{"建议命令", "解释说明"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := captureOutput(t, func() { RenderAnswer(tt.ans) })
			for _, part := range tt.wantParts {
				if !strings.Contains(out, part) {
					t.Errorf("output missing %q:\n%s", part, out)
				}
			}
			for _, part := range tt.absentParts {
				if strings.Contains(out, part) {
					t.Errorf("output should not contain %q:\n%s", part, out)
				}
			}
		})
	}
}

// TestRenderErrorPanel tests the red error panel.
func TestRenderErrorPanel(t *testing.T) {
	disableColors(t)

	out := captureOutput(t, func() {
		RenderErrorPanel("连接错误", "网络错误：connection refused")
	})
	if !strings.Contains(out, "连接错误") || !strings.Contains(out, "网络错误：connection refused") {
		t.Errorf("error panel missing title or text:\n%s", out)
	}
}

// =============================================================================
// ERROR TO ANSWER MAPPING
// =============================================================================

// TestAnswerFromError tests fallback answers and error panels per error type.
func TestAnswerFromError(t *testing.T) {
	disableColors(t)

	tests := []struct {
		name            string
		err             error
		wantExplanation string
		wantPanelParts  []string
	}{
		{
			name:            "http error",
			err:             &llm.HTTPError{Status: 402, Body: "Payment Required"},
			wantExplanation: "API 请求出错，请检查 Key 或网络。",
			wantPanelParts:  []string{"API 错误", "API请求失败: 402 - Payment Required"},
		},
		{
			name:            "network error",
			err:             &llm.NetworkError{Err: errors.New("connection refused")},
			wantExplanation: "网络连接失败。",
			wantPanelParts:  []string{"连接错误", "网络错误："},
		},
		{
			name:            "protocol error renders no panel",
			err:             &llm.ProtocolError{Detail: "choices array is empty"},
			wantExplanation: "模型未返回有效内容。",
			wantPanelParts:  nil,
		},
		{
			name:            "unexpected error",
			err:             errors.New("boom"),
			wantExplanation: "发生内部错误: boom",
			wantPanelParts:  []string{"程序错误", "未知错误：boom"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ans answer.Answer
			out := captureOutput(t, func() { ans = answerFromError(tt.err) })

			if ans.Explanation != tt.wantExplanation {
				t.Errorf("Explanation = %q, want %q", ans.Explanation, tt.wantExplanation)
			}
			if ans.HasCommand() {
				t.Error("error answers should never carry a command")
			}
			if tt.wantPanelParts == nil {
				if strings.TrimSpace(out) != "" {
					t.Errorf("expected no panel output, got:\n%s", out)
				}
				return
			}
			for _, part := range tt.wantPanelParts {
				if !strings.Contains(out, part) {
					t.Errorf("panel output missing %q:\n%s", part, out)
				}
			}
		})
	}
}

// =============================================================================
// SYNTAX HIGHLIGHTING AND WRAPPING
// =============================================================================

// TestHighlightShellWithColorsDisabled tests the plain passthrough path.
func TestHighlightShellWithColorsDisabled(t *testing.T) {
	disableColors(t)

	command := "grep -rn 'TODO' src/"
	if got := highlightShell(command); got != command {
		t.Errorf("highlightShell() = %q, want unchanged input", got)
	}
}

// TestWrapText tests word wrapping at display width.
func TestWrapText(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		maxWidth int
		want     string
	}{
		{
			name:     "short text unchanged",
			text:     "hello",
			maxWidth: 40,
			want:     "hello",
		},
		{
			name:     "wraps at word boundary",
			text:     "one two three four",
			maxWidth: 10,
			want:     "one two\nthree four",
		},
		{
			name:     "preserves existing newlines",
			text:     "first\nsecond",
			maxWidth: 40,
			want:     "first\nsecond",
		},
		{
			name:     "empty text",
			text:     "",
			maxWidth: 40,
			want:     "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WrapText(tt.text, tt.maxWidth); got != tt.want {
				t.Errorf("WrapText() = %q, want %q", got, tt.want)
			}
		})
	}
}

// TestWrapTextWideRunes tests that CJK text is measured by display width.
func TestWrapTextWideRunes(t *testing.T) {
	// A 14-column wrap keeps a 2-column margin; the words measure 10 and 8
	// columns, so they cannot share the remaining 12.
	got := WrapText("解压缩文件 查看日志", 14)
	if !strings.Contains(got, "\n") {
		t.Errorf("wide runes should wrap, got %q", got)
	}
}
