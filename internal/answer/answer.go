// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package answer extracts a shell command and its explanation from model replies.
package answer

import "strings"

// Fence markers the model is instructed to emit around the command.
const (
	shellFence = "```bash"
	bareFence  = "```"
)

// Explanation label prefixes. Models emit both the full-width and the
// half-width colon form.
const (
	labelFullWidth = "说明："
	labelHalfWidth = "说明:"
)

// Answer is the structured form of one model reply.
//
// Raw always carries the unmodified reply so callers can fall back to it
// when extraction produced nothing usable.
type Answer struct {
	Command     string
	Explanation string
	Raw         string
}

// HasCommand reports whether extraction produced a non-empty command.
func (a Answer) HasCommand() bool {
	return a.Command != ""
}

// Parse converts one model reply into an Answer.
//
// RELIABILITY: Parse never fails. The model's output is not schema
// constrained, so every branch degrades toward treating the whole reply as
// conversational text instead of returning an error.
//
// Extraction order:
//  1. A ```bash tagged fence, split at the next bare ``` closer.
//  2. Otherwise a bare ``` fence, with the same split.
//  3. If neither produced a command or an explanation, the entire reply
//     becomes the explanation.
//
// Only the first fence pair is consulted. An opener without a closer is
// ignored entirely, not consumed up to end of input.
func Parse(reply string) Answer {
	var command, explanation string

	if strings.Contains(reply, shellFence) {
		rest := strings.SplitN(reply, shellFence, 2)[1]
		if strings.Contains(rest, bareFence) {
			parts := strings.SplitN(rest, bareFence, 2)
			command = strings.TrimSpace(parts[0])
			explanation = strings.TrimSpace(parts[1])
		}
	} else if strings.Contains(reply, bareFence) {
		rest := strings.SplitN(reply, bareFence, 2)[1]
		if strings.Contains(rest, bareFence) {
			parts := strings.SplitN(rest, bareFence, 2)
			command = strings.TrimSpace(parts[0])
			explanation = strings.TrimSpace(parts[1])
		}
	}

	// No fence pair yielded anything: the reply is conversational text.
	if command == "" && explanation == "" {
		explanation = reply
	}

	return Answer{
		Command:     command,
		Explanation: stripLabel(explanation),
		Raw:         reply,
	}
}

// stripLabel removes one leading explanation label, in either colon form,
// and trims surrounding whitespace. A label appearing later in the text is
// left untouched.
func stripLabel(s string) string {
	s = strings.TrimSpace(s)
	switch {
	case strings.HasPrefix(s, labelFullWidth):
		s = strings.TrimPrefix(s, labelFullWidth)
	case strings.HasPrefix(s, labelHalfWidth):
		s = strings.TrimPrefix(s, labelHalfWidth)
	}
	return strings.TrimSpace(s)
}
