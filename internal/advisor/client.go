package advisor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"agrointel-service/internal/model"
	"agrointel-service/pkg/config"
)

// Chat roles on the completions wire format
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// temperature used for all advisor calls
const temperature = 0.7

// Message is one turn of a chat-completions conversation
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Client talks to an OpenAI-compatible chat-completions API
// (DeepSeek by default). A client without an API key is considered
// unconfigured and every call fails fast with ErrAdvisorNotConfigured.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

var client *Client

// Initialize sets up the process-wide advisor client
func Initialize(cfg *config.AdvisorConfig) {
	client = New(cfg)
}

// Get returns the process-wide advisor client
func Get() *Client {
	return client
}

// New creates an advisor client from configuration
func New(cfg *config.AdvisorConfig) *Client {
	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    cfg.BaseURL,
		model:      cfg.Model,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// Configured reports whether an API key is present
func (c *Client) Configured() bool {
	return c != nil && c.apiKey != ""
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
	Stream      bool      `json:"stream"`
}

type chatResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
}

// Complete sends a conversation to the completions endpoint and returns
// the assistant reply.
func (c *Client) Complete(ctx context.Context, messages []Message, maxTokens int) (string, error) {
	if !c.Configured() {
		return "", model.ErrAdvisorNotConfigured
	}

	payload, err := json.Marshal(chatRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: temperature,
		MaxTokens:   maxTokens,
		Stream:      false,
	})
	if err != nil {
		return "", fmt.Errorf("%w: encoding request: %v", model.ErrAdvisorFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("%w: %v", model.ErrAdvisorFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", model.ErrAdvisorFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: reading response: %v", model.ErrAdvisorFailed, err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d: %s", model.ErrAdvisorFailed, resp.StatusCode, string(body))
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("%w: decoding response: %v", model.ErrAdvisorFailed, err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("%w: response contained no choices", model.ErrAdvisorFailed)
	}

	return parsed.Choices[0].Message.Content, nil
}
