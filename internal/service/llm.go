package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

const defaultLLMTimeout = 10 * time.Second

// LLMConfig holds configuration for the chat completion service.
type LLMConfig struct {
	Model   string
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// LLMService calls an OpenAI-compatible chat completion API.
type LLMService struct {
	client   *resty.Client
	model    string
	endpoint string
}

// NewLLMService creates a new chat completion service.
func NewLLMService(cfg *LLMConfig) *LLMService {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultLLMTimeout
	}

	client := resty.New()
	client.SetHeader("Authorization", "Bearer "+cfg.APIKey)
	client.SetHeader("Content-Type", "application/json")
	client.SetTimeout(timeout)

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}

	return &LLMService{
		client:   client,
		model:    cfg.Model,
		endpoint: baseURL + "/chat/completions",
	}
}

// GetModel returns the model name being used.
func (s *LLMService) GetModel() string {
	return s.model
}

// llmRequest represents the request to the LLM API.
type llmRequest struct {
	Model    string       `json:"model"`
	Messages []llmMessage `json:"messages"`
}

type llmMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type llmResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Complete sends a single-turn user prompt and returns the model's reply.
// An empty reply is reported as an error so callers can fall back.
// Parameters:
//   - ctx: context for cancellation; the client also applies its own timeout.
//   - prompt: the user message content.
// Returns:
//   - string: the raw completion text.
//   - error: non-nil on transport failure, non-2xx status, or empty reply.
func (s *LLMService) Complete(ctx context.Context, prompt string) (string, error) {
	req := llmRequest{
		Model: s.model,
		Messages: []llmMessage{
			{Role: "user", Content: prompt},
		},
	}

	var resp llmResponse
	httpResp, err := s.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&resp).
		Post(s.endpoint)

	if err != nil {
		return "", fmt.Errorf("failed to call LLM API: %w", err)
	}

	if httpResp.StatusCode() < 200 || httpResp.StatusCode() >= 300 {
		if resp.Error != nil && resp.Error.Message != "" {
			return "", fmt.Errorf("LLM API error: %s", resp.Error.Message)
		}
		return "", fmt.Errorf("LLM API error: status %d", httpResp.StatusCode())
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("empty response from AI model")
	}

	return resp.Choices[0].Message.Content, nil
}
