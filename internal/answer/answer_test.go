// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package answer extracts a shell command and its explanation from model replies.
package answer

import "testing"

// =============================================================================
// PARSE TESTS
// =============================================================================

func TestParse(t *testing.T) {
	tests := []struct {
		name            string
		reply           string
		wantCommand     string
		wantExplanation string
	}{
		{
			name:            "tagged fence with labeled explanation",
			reply:           "```bash\ntar -xzvf file.tar.gz\n```\n说明：解压文件",
			wantCommand:     "tar -xzvf file.tar.gz",
			wantExplanation: "解压文件",
		},
		{
			name:            "half-width colon label",
			reply:           "```bash\nls -la\n```\n说明: 列出所有文件",
			wantCommand:     "ls -la",
			wantExplanation: "列出所有文件",
		},
		{
			name:            "untagged fence fallback",
			reply:           "```\ndf -h\n```\n查看磁盘使用情况",
			wantCommand:     "df -h",
			wantExplanation: "查看磁盘使用情况",
		},
		{
			name:            "conversational reply without fences",
			reply:           "你好，有什么可以帮您？",
			wantCommand:     "",
			wantExplanation: "你好，有什么可以帮您？",
		},
		{
			name:            "unmatched opener discards partial command",
			reply:           "```bash\nls -la",
			wantCommand:     "",
			wantExplanation: "```bash\nls -la",
		},
		{
			name:            "text before the opener is not part of the command",
			reply:           "可以这样做：\n```bash\npwd\n```\n说明：显示当前目录",
			wantCommand:     "pwd",
			wantExplanation: "显示当前目录",
		},
		{
			name:            "only the first fence pair is consulted",
			reply:           "```bash\nls\n```\n先看目录\n```bash\npwd\n```",
			wantCommand:     "ls",
			wantExplanation: "先看目录\n```bash\npwd\n```",
		},
		{
			name:            "empty fenced block keeps explanation",
			reply:           "```bash\n\n```\n说明：这里没有命令",
			wantCommand:     "",
			wantExplanation: "这里没有命令",
		},
		{
			name:            "empty fence alone falls back to the whole reply",
			reply:           "```bash\n```",
			wantCommand:     "",
			wantExplanation: "```bash\n```",
		},
		{
			name:            "whitespace around command and label is trimmed",
			reply:           "\n```bash\n  du -sh *  \n```\n  说明：统计大小  \n",
			wantCommand:     "du -sh *",
			wantExplanation: "统计大小",
		},
		{
			name:            "label later in the text is preserved",
			reply:           "```bash\nrm -rf /tmp/x\n```\n危险操作，说明：会删除目录",
			wantCommand:     "rm -rf /tmp/x",
			wantExplanation: "危险操作，说明：会删除目录",
		},
		{
			name:            "other label phrasings pass through verbatim",
			reply:           "```bash\nuname -a\n```\n备注：内核信息",
			wantCommand:     "uname -a",
			wantExplanation: "备注：内核信息",
		},
		{
			name:            "conversational reply starting with the label",
			reply:           "说明：这不是命令",
			wantCommand:     "",
			wantExplanation: "这不是命令",
		},
		{
			name:            "empty reply",
			reply:           "",
			wantCommand:     "",
			wantExplanation: "",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Parse(tc.reply)
			if got.Command != tc.wantCommand {
				t.Errorf("Command = %q, want %q", got.Command, tc.wantCommand)
			}
			if got.Explanation != tc.wantExplanation {
				t.Errorf("Explanation = %q, want %q", got.Explanation, tc.wantExplanation)
			}
			if got.Raw != tc.reply {
				t.Errorf("Raw = %q, want the unmodified input %q", got.Raw, tc.reply)
			}
		})
	}
}

func TestParse_Idempotent(t *testing.T) {
	reply := "```bash\ntar -xzvf file.tar.gz\n```\n说明：解压文件"
	first := Parse(reply)
	second := Parse(reply)
	if first != second {
		t.Errorf("Parse not deterministic: %+v vs %+v", first, second)
	}
}

func TestParse_LabelStrippedOnlyOnce(t *testing.T) {
	got := Parse("```bash\nls\n```\n说明：说明: 双重前缀")
	if want := "说明: 双重前缀"; got.Explanation != want {
		t.Errorf("Explanation = %q, want %q", got.Explanation, want)
	}
}

func TestHasCommand(t *testing.T) {
	if !Parse("```bash\nls\n```\nok").HasCommand() {
		t.Error("expected HasCommand for a fenced reply")
	}
	if Parse("纯聊天回复").HasCommand() {
		t.Error("did not expect HasCommand for a conversational reply")
	}
}
