package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"testbrain/internal/domain/entity"
	"testbrain/internal/domain/repository"
	"testbrain/internal/infrastructure/metrics"
)

// ChatConfig configures an OpenAI-compatible chat completions endpoint
// (DeepSeek, Qwen compatible mode, OpenAI).
type ChatConfig struct {
	Provider    string
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
	MaxRetries  int
	Backoff     time.Duration
}

type ChatClient struct {
	cfg    ChatConfig
	client *http.Client
	logger *zap.Logger
}

var _ repository.Completer = (*ChatClient)(nil)

func NewChatClient(cfg ChatConfig, logger *zap.Logger) *ChatClient {
	if cfg.Timeout == 0 {
		cfg.Timeout = 2 * time.Minute
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.Backoff == 0 {
		cfg.Backoff = time.Second
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &ChatClient{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger.With(zap.String("provider", cfg.Provider), zap.String("model", cfg.Model)),
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func toChatMessages(messages []entity.Message) ([]chatMessage, error) {
	out := make([]chatMessage, 0, len(messages))
	for _, m := range messages {
		switch msg := m.(type) {
		case entity.SystemMessage:
			out = append(out, chatMessage{Role: "system", Content: msg.Text})
		case entity.UserMessage:
			out = append(out, chatMessage{Role: "user", Content: msg.Text})
		default:
			return nil, fmt.Errorf("unsupported message type %T", m)
		}
	}
	return out, nil
}

// Complete posts the messages to {base_url}/chat/completions. Rate limited
// calls are retried with exponential backoff.
func (c *ChatClient) Complete(ctx context.Context, messages []entity.Message) (string, error) {
	metrics.IncLLMRequest(c.cfg.Provider, c.cfg.Model)
	start := time.Now()
	defer func() { metrics.ObserveLLMDuration(c.cfg.Provider, time.Since(start)) }()

	msgs, err := toChatMessages(messages)
	if err != nil {
		metrics.IncError("llm", "message_type")
		return "", err
	}

	payload, err := json.Marshal(chatRequest{
		Model:       c.cfg.Model,
		Messages:    msgs,
		Temperature: c.cfg.Temperature,
		MaxTokens:   c.cfg.MaxTokens,
	})
	if err != nil {
		metrics.IncError("llm", "marshal_request")
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			wait := c.cfg.Backoff << (attempt - 1)
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(wait):
			}
		}

		content, retry, err := c.do(ctx, payload)
		if err == nil {
			return content, nil
		}
		lastErr = err
		if !retry {
			return "", err
		}
		c.logger.Warn("chat completion rate limited", zap.Int("attempt", attempt+1), zap.Error(err))
	}

	metrics.IncError("llm", "max_retries")
	return "", fmt.Errorf("max retries exceeded: %w", lastErr)
}

// do performs one round trip. retry reports whether the failure is worth retrying.
func (c *ChatClient) do(ctx context.Context, payload []byte) (content string, retry bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		metrics.IncError("llm", "create_request")
		return "", false, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		metrics.IncError("llm", "http_do")
		return "", false, fmt.Errorf("failed to make request: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Warn("close body", zap.Error(err))
		}
	}()

	if resp.StatusCode == http.StatusTooManyRequests {
		body, _ := io.ReadAll(resp.Body)
		metrics.IncError("llm", "rate_limited")
		return "", true, fmt.Errorf("%s api rate limited: %s", c.cfg.Provider, strings.TrimSpace(string(body)))
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		metrics.IncError("llm", fmt.Sprintf("api_error_%d", resp.StatusCode))
		return "", false, fmt.Errorf("%s api error: %d - %s", c.cfg.Provider, resp.StatusCode, string(body))
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		metrics.IncError("llm", "decode_response")
		return "", false, fmt.Errorf("failed to decode response: %w", err)
	}
	if out.Error != nil {
		metrics.IncError("llm", "api_error_body")
		return "", false, fmt.Errorf("%s api error: %s", c.cfg.Provider, out.Error.Message)
	}
	if len(out.Choices) == 0 {
		metrics.IncError("llm", "no_choices")
		return "", false, fmt.Errorf("invalid response format: no choices")
	}

	c.logger.Debug("chat completion done",
		zap.Int("prompt_tokens", out.Usage.PromptTokens),
		zap.Int("completion_tokens", out.Usage.CompletionTokens),
	)
	return strings.TrimSpace(out.Choices[0].Message.Content), false, nil
}
