package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"testbrain/internal/domain/entity"
	"testbrain/internal/domain/repository"
	"testbrain/internal/infrastructure/metrics"
)

// GeminiClient completes through the Gemini API. System messages become the
// system instruction; user messages become user turns.
type GeminiClient struct {
	client      *genai.Client
	provider    string
	model       string
	temperature float32
	maxTokens   int32
	logger      *zap.Logger
}

var _ repository.Completer = (*GeminiClient)(nil)

func NewGeminiClient(ctx context.Context, cfg ChatConfig, logger *zap.Logger) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-2.0-flash"
	}

	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &GeminiClient{
		client:      client,
		provider:    cfg.Provider,
		model:       cfg.Model,
		temperature: float32(cfg.Temperature),
		maxTokens:   int32(cfg.MaxTokens),
		logger:      logger.With(zap.String("provider", cfg.Provider), zap.String("model", cfg.Model)),
	}, nil
}

func (g *GeminiClient) Complete(ctx context.Context, messages []entity.Message) (string, error) {
	metrics.IncLLMRequest(g.provider, g.model)
	start := time.Now()
	defer func() { metrics.ObserveLLMDuration(g.provider, time.Since(start)) }()

	var system []string
	var contents []*genai.Content
	for _, m := range messages {
		switch msg := m.(type) {
		case entity.SystemMessage:
			system = append(system, msg.Text)
		case entity.UserMessage:
			contents = append(contents, genai.NewContentFromText(msg.Text, genai.RoleUser))
		default:
			metrics.IncError("llm", "message_type")
			return "", fmt.Errorf("unsupported message type %T", m)
		}
	}

	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(g.temperature),
	}
	if g.maxTokens > 0 {
		cfg.MaxOutputTokens = g.maxTokens
	}
	if len(system) > 0 {
		cfg.SystemInstruction = genai.NewContentFromText(strings.Join(system, "\n\n"), genai.RoleUser)
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, cfg)
	if err != nil {
		metrics.IncError("llm", "genai_generate")
		return "", fmt.Errorf("gemini generate: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		metrics.IncError("llm", "empty_response")
		return "", fmt.Errorf("gemini returned no text")
	}
	g.logger.Debug("gemini completion done", zap.Int("response_len", len(text)))
	return text, nil
}
