// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package llm provides the SiliconFlow chat-completion client.
//
// SiliconFlow exposes an OpenAI-compatible API; this package implements the
// one call the assistant needs: a synchronous, non-streaming chat completion
// with fixed sampling parameters. The policy is deliberately a single attempt
// per call. A failed query is reported to the user, who simply asks again;
// retry loops would only delay the answer they are waiting on.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Configuration constants for the SiliconFlow API.
const (
	// DefaultBaseURL is the base URL for the SiliconFlow API.
	DefaultBaseURL = "https://api.siliconflow.cn/v1"

	// DefaultModel is the model used when none is configured.
	DefaultModel = "Qwen/Qwen2.5-7B-Instruct"

	// DefaultTimeout bounds one chat-completion round trip.
	DefaultTimeout = 30 * time.Second

	// DefaultTemperature keeps command output stable and reproducible.
	DefaultTemperature = 0.3

	// DefaultMaxTokens bounds the reply length; a command plus a short
	// explanation fits comfortably.
	DefaultMaxTokens = 512

	// MaxResponseSize is the maximum allowed response body size.
	// SECURITY: Response size limit prevents memory exhaustion attacks.
	MaxResponseSize = 10 * 1024 * 1024 // 10MB limit
)

// Message roles used in chat requests.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ErrNotConfigured indicates the API key is not set.
var ErrNotConfigured = errors.New("SiliconFlow API key not configured")

// HTTPError represents a non-200 response from the API. Status and Body are
// kept verbatim so callers can surface them unmodified.
type HTTPError struct {
	Status int
	Body   string
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	return fmt.Sprintf("SiliconFlow error (HTTP %d): %s", e.Status, e.Body)
}

// NetworkError represents a connection or timeout failure that occurred
// before any HTTP status was obtained.
type NetworkError struct {
	Err error
}

// Error implements the error interface.
func (e *NetworkError) Error() string {
	return fmt.Sprintf("request failed: %v", e.Err)
}

// Unwrap returns the underlying transport error.
func (e *NetworkError) Unwrap() error {
	return e.Err
}

// ProtocolError represents a 200 response whose payload is missing the
// expected content, such as an empty choices array or unparseable JSON.
type ProtocolError struct {
	Detail string
}

// Error implements the error interface.
func (e *ProtocolError) Error() string {
	return fmt.Sprintf("malformed API response: %s", e.Detail)
}

// Message represents a single message in a chat conversation.
type Message struct {
	Role    string `json:"role"`    // "system", "user", or "assistant"
	Content string `json:"content"` // The message content
}

// NewSystemMessage creates a new system message.
func NewSystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// NewUserMessage creates a new user message.
func NewUserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// ChatRequest represents a request to the chat completions endpoint.
type ChatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
	Stream      bool      `json:"stream"`
}

// ChatResponse represents a response from the chat completions endpoint.
type ChatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message      Message `json:"message"`
		FinishReason string  `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// GetContent returns the content of the first choice, or empty string if none.
func (r *ChatResponse) GetContent() string {
	if len(r.Choices) > 0 {
		return r.Choices[0].Message.Content
	}
	return ""
}

// Client is a client for the SiliconFlow chat completions API.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	timeout    time.Duration
	httpClient *http.Client
}

// NewClient creates a new SiliconFlow client with the given API key.
//
// If the API key is empty, the client is still created but Chat requests
// fail with ErrNotConfigured. The key is passed in explicitly rather than
// read from the environment here, so tests and the web surface can construct
// clients without mutating process state.
func NewClient(apiKey string) *Client {
	return &Client{
		apiKey:  strings.TrimSpace(apiKey),
		baseURL: DefaultBaseURL,
		model:   DefaultModel,
		timeout: DefaultTimeout,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
}

// WithBaseURL sets a custom base URL for the API.
func (c *Client) WithBaseURL(url string) *Client {
	c.baseURL = strings.TrimSuffix(url, "/")
	return c
}

// WithTimeout sets the request timeout.
func (c *Client) WithTimeout(timeout time.Duration) *Client {
	c.timeout = timeout
	c.httpClient.Timeout = timeout
	return c
}

// SetModel sets the model to use for chat requests.
func (c *Client) SetModel(model string) {
	if model != "" {
		c.model = model
	}
}

// GetModel returns the current model.
func (c *Client) GetModel() string {
	return c.model
}

// IsConfigured returns true if the client has an API key configured.
func (c *Client) IsConfigured() bool {
	return c.apiKey != ""
}

// Chat performs one chat completion request with the given messages and
// returns the trimmed content of the first choice.
//
// Exactly one HTTP attempt is made per call; there is no retry or backoff.
// Failures come back as *HTTPError, *NetworkError, or *ProtocolError so the
// caller can decide how to present them.
func (c *Client) Chat(ctx context.Context, messages []Message) (string, error) {
	if !c.IsConfigured() {
		return "", ErrNotConfigured
	}

	url := c.baseURL + "/chat/completions"

	reqBody := ChatRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: DefaultTemperature,
		MaxTokens:   DefaultMaxTokens,
		Stream:      false,
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)

	// SECURITY: Clear Authorization header immediately after the request so
	// the key never rides along into request dumps or logs.
	req.Header.Del("Authorization")

	if err != nil {
		return "", &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	body, err := readResponse(resp)
	if err != nil {
		return "", &NetworkError{Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return "", &HTTPError{Status: resp.StatusCode, Body: string(body)}
	}

	var chatResp ChatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", &ProtocolError{Detail: fmt.Sprintf("invalid JSON: %v", err)}
	}

	if len(chatResp.Choices) == 0 {
		return "", &ProtocolError{Detail: "response has no choices"}
	}

	content := strings.TrimSpace(chatResp.GetContent())
	if content == "" {
		return "", &ProtocolError{Detail: "response content is empty"}
	}

	return content, nil
}

// setHeaders sets the required headers for SiliconFlow API requests.
func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "cmdai/1.0")
}

// readResponse reads the response body with a size limit.
//
// SECURITY: Response size limit prevents memory exhaustion attacks.
func readResponse(resp *http.Response) ([]byte, error) {
	limitedReader := io.LimitReader(resp.Body, MaxResponseSize)
	body, err := io.ReadAll(limitedReader)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if int64(len(body)) == MaxResponseSize {
		return nil, fmt.Errorf("response exceeded maximum size of %d bytes", MaxResponseSize)
	}
	return body, nil
}
