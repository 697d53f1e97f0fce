// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// templates.go - Server-rendered HTML for the cmdai chat page.
//
// The whole surface is one template and zero JavaScript. Suggested commands
// are highlighted with chroma's HTML formatter (inline styles, no asset
// files); everything else is escaped by html/template.
package server

import (
	"bytes"
	"html/template"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	chromaStyles "github.com/alecthomas/chroma/v2/styles"

	"github.com/jeranaias/cmdai/internal/config"
	"github.com/jeranaias/cmdai/internal/model"
)

// =============================================================================
// PAGE TEXT
// =============================================================================

const (
	pageTitle   = "Linux 命令行助手"
	pageHeading = "🤖 AI 命令行助手"
	pageCaption = "输入你的需求，我来帮你写命令"

	keyPlaceholder      = "请输入 SiliconFlow API Key"
	keySavedPlaceholder = "API Key 已保存，可重新输入"
)

// =============================================================================
// VIEW MODEL
// =============================================================================

// pageData is the root template context for one render of the chat page.
type pageData struct {
	Title          string
	Heading        string
	Caption        string
	Version        string
	NeedKey        bool
	KeyPlaceholder string
	Messages       []messageView
}

// messageView is one chat bubble, precomputed so the template stays branchy
// but dumb.
type messageView struct {
	RoleLabel   string
	BubbleClass string

	// Command layout: highlighted snippet plus optional explanation.
	HasCommand  bool
	CommandHTML template.HTML
	Explanation string

	// IsReply marks a parsed fallback answer, labeled and styled distinctly.
	IsReply bool

	// Text is the body for user, greeting, reply and error bubbles.
	Text string
}

// newMessageView classifies a stored message into its rendering shape.
func newMessageView(msg *model.Message) messageView {
	view := messageView{RoleLabel: msg.Role.DisplayName()}

	switch {
	case msg.Role == model.RoleUser:
		view.BubbleClass = "bubble user"
		view.Text = msg.Content

	case msg.IsError:
		view.BubbleClass = "bubble assistant error"
		view.Text = msg.Content

	case msg.HasCommand():
		view.BubbleClass = "bubble assistant command"
		view.HasCommand = true
		view.CommandHTML = highlightCommandHTML(msg.Command)
		view.Explanation = msg.Explanation

	case msg.Explanation != "":
		view.BubbleClass = "bubble assistant reply"
		view.IsReply = true
		view.Text = msg.Explanation

	default:
		// Greeting and degenerate raw-only replies.
		view.BubbleClass = "bubble assistant"
		view.Text = msg.Content
	}

	return view
}

// buildPageData assembles the template context from one session's snapshot.
func (s *Server) buildPageData(sess *Session, cfg *config.Config) pageData {
	messages := sess.Messages()
	views := make([]messageView, 0, len(messages))
	for _, msg := range messages {
		views = append(views, newMessageView(msg))
	}

	data := pageData{
		Title:          pageTitle,
		Heading:        pageHeading,
		Caption:        pageCaption,
		Version:        s.version,
		NeedKey:        !cfg.HasKey(),
		KeyPlaceholder: keyPlaceholder,
		Messages:       views,
	}
	if sess.HasAPIKey() {
		data.KeyPlaceholder = keySavedPlaceholder
	}
	return data
}

// =============================================================================
// COMMAND HIGHLIGHTING
// =============================================================================

// highlightCommandHTML renders a shell snippet with chroma's HTML formatter.
// Inline styles keep the page self-contained; chroma escapes token text, and
// the fallback path escapes explicitly, so raw model output never reaches
// the browser unescaped.
func highlightCommandHTML(command string) template.HTML {
	lexer := lexers.Get("bash")
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	style := chromaStyles.Get("monokai")
	if style == nil {
		style = chromaStyles.Fallback
	}

	iterator, err := lexer.Tokenise(nil, command)
	if err != nil {
		return escapedPre(command)
	}

	var buf bytes.Buffer
	if err := chromahtml.New().Format(&buf, style, iterator); err != nil {
		return escapedPre(command)
	}
	return template.HTML(buf.String())
}

// escapedPre is the plain fallback when highlighting fails.
func escapedPre(command string) template.HTML {
	return template.HTML("<pre class=\"chroma\">" + template.HTMLEscapeString(command) + "</pre>")
}

// =============================================================================
// PAGE TEMPLATE
// =============================================================================

var pageTemplate = template.Must(template.New("page").Parse(pageHTML))

const pageHTML = `<!DOCTYPE html>
<html lang="zh-CN">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
<style>
  * { box-sizing: border-box; }
  body {
    margin: 0;
    background: #f6f7f9;
    color: #24292f;
    font-family: -apple-system, "Segoe UI", "PingFang SC", "Microsoft YaHei", sans-serif;
  }
  main { max-width: 760px; margin: 0 auto; padding: 24px 16px 48px; }
  h1 { font-size: 1.5rem; margin: 0 0 4px; }
  .caption { color: #6e7781; margin: 0 0 20px; }
  .chat { display: flex; flex-direction: column; gap: 12px; margin-bottom: 20px; }
  .bubble {
    max-width: 85%;
    padding: 10px 14px;
    border-radius: 10px;
    background: #ffffff;
    border: 1px solid #d8dee4;
    white-space: pre-wrap;
    word-break: break-word;
  }
  .bubble .role { display: block; font-size: 0.75rem; color: #6e7781; margin-bottom: 4px; }
  .bubble p { margin: 4px 0 0; }
  .bubble.user { align-self: flex-end; background: #dbf4ff; border-color: #a9d8f0; }
  .bubble.assistant { align-self: flex-start; }
  .bubble.command { border-color: #2ecc71; }
  .bubble.reply { border-color: #f6c344; background: #fff9e8; }
  .bubble.error { border-color: #e5484d; background: #ffefef; color: #b02a30; }
  .label { font-size: 0.8rem; font-weight: 600; margin-top: 6px; }
  .bubble.command .label.cmd { color: #1a7f4b; }
  .bubble.command .label.exp { color: #b7791f; }
  .bubble.reply .label { color: #b02a30; }
  .chroma { border-radius: 6px; padding: 10px 12px; overflow-x: auto; margin: 6px 0 0; }
  .composer { display: flex; flex-direction: column; gap: 8px; }
  .keyrow { display: flex; align-items: center; gap: 10px; }
  .keyrow input {
    flex: 1;
    padding: 8px 10px;
    border: 1px solid #d8dee4;
    border-radius: 8px;
  }
  .keyrow a { font-size: 0.85rem; color: #0969da; white-space: nowrap; }
  .inputrow { display: flex; gap: 8px; }
  .inputrow input {
    flex: 1;
    padding: 10px 12px;
    border: 1px solid #d8dee4;
    border-radius: 8px;
    font-size: 1rem;
  }
  .inputrow button {
    padding: 10px 20px;
    border: none;
    border-radius: 8px;
    background: #1f883d;
    color: #ffffff;
    font-size: 1rem;
    cursor: pointer;
  }
  .resetform { margin-top: 10px; }
  .resetform button {
    padding: 6px 12px;
    border: 1px solid #d8dee4;
    border-radius: 8px;
    background: #ffffff;
    color: #6e7781;
    cursor: pointer;
  }
  footer { margin-top: 24px; font-size: 0.8rem; color: #a0a7ae; }
</style>
</head>
<body>
<main>
  <h1>{{.Heading}}</h1>
  <p class="caption">{{.Caption}}</p>

  <section class="chat">
    {{range .Messages}}
    <div class="{{.BubbleClass}}">
      <span class="role">{{.RoleLabel}}</span>
      {{if .HasCommand}}
      <div class="label cmd">建议命令</div>
      {{.CommandHTML}}
      {{if .Explanation}}
      <div class="label exp">解释说明</div>
      <p>{{.Explanation}}</p>
      {{end}}
      {{else if .IsReply}}
      <div class="label">回复</div>
      <p>{{.Text}}</p>
      {{else}}
      <p>{{.Text}}</p>
      {{end}}
    </div>
    {{end}}
  </section>

  <form class="composer" method="post" action="/chat">
    {{if .NeedKey}}
    <div class="keyrow">
      <input type="password" name="api_key" placeholder="{{.KeyPlaceholder}}" autocomplete="off">
      <a href="https://cloud.siliconflow.cn/" target="_blank" rel="noopener">去申请 Key</a>
    </div>
    {{end}}
    <div class="inputrow">
      <input type="text" name="message" placeholder="描述你想执行的操作" autofocus autocomplete="off">
      <button type="submit">发送</button>
    </div>
  </form>

  <form class="resetform" method="post" action="/reset">
    <button type="submit">清空对话</button>
  </form>

  <footer>cmdai {{.Version}}</footer>
</main>
</body>
</html>
`
