package completion

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

// Message is one role-tagged entry in a conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Options tune a single completion call. Zero values fall back to the client
// defaults.
type Options struct {
	Model       string
	MaxTokens   int
	Temperature float64
}

// Result is the upstream answer plus its metered cost.
type Result struct {
	Text       string
	TokensUsed int
}

// UpstreamError reports a non-2xx answer from the completion service.
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("completion service error: %d - %s", e.Status, e.Body)
}

// ErrNoCredential is returned when a call is attempted without any API key.
var ErrNoCredential = errors.New("no completion api key configured")

const (
	defaultBaseURL     = "https://api.perplexity.ai"
	defaultModel       = "llama-3.1-sonar-large-128k-online"
	defaultMaxTokens   = 2000
	defaultTemperature = 0.7
	defaultTimeout     = 30 * time.Second
)

// ClientOptions configure a Client.
type ClientOptions struct {
	BaseURL    string
	Model      string
	HTTPClient *http.Client
}

// Client is a thin HTTP client for a chat-completions style service. The API
// key is supplied per call because each user may carry their own credential.
type Client struct {
	baseURL string
	model   string
	client  *http.Client
}

// NewClient constructs a Client with defaults applied.
func NewClient(opts ClientOptions) *Client {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = defaultModel
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{baseURL: baseURL, model: model, client: client}
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature,omitempty"`
	TopP        float64   `json:"top_p,omitempty"`
	Stream      bool      `json:"stream"`
}

type chatResponse struct {
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Chat sends the conversation and returns the generated text with its token
// usage. Failures carry the upstream status and body via *UpstreamError.
func (c *Client) Chat(ctx context.Context, apiKey string, messages []Message, opts Options) (*Result, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrNoCredential
	}

	model := opts.Model
	if model == "" {
		model = c.model
	}
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	temperature := opts.Temperature
	if temperature <= 0 {
		temperature = defaultTemperature
	}

	payload := chatRequest{
		Model:       model,
		Messages:    messages,
		MaxTokens:   maxTokens,
		Temperature: temperature,
		TopP:        0.9,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build completion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call completion service: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read completion response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &UpstreamError{Status: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("decode completion response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return nil, &UpstreamError{Status: resp.StatusCode, Body: "empty choices"}
	}
	return &Result{
		Text:       parsed.Choices[0].Message.Content,
		TokensUsed: parsed.Usage.TotalTokens,
	}, nil
}
