package embedding

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"testbrain/internal/infrastructure/metrics"
)

// GenAIEngine generates embeddings using the Gemini API.
type GenAIEngine struct {
	client   *genai.Client
	model    string
	taskType string
}

func NewGenAIEngine(ctx context.Context, apiKey, model, taskType string) (*GenAIEngine, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("genai api key is required")
	}
	if model == "" {
		model = "gemini-embedding-001"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	if taskType == "" {
		taskType = "SEMANTIC_SIMILARITY"
	}

	return &GenAIEngine{client: client, model: model, taskType: taskType}, nil
}

func (e *GenAIEngine) Embed(ctx context.Context, text string) ([]float32, error) {
	metrics.IncEmbedding(e.Name())

	result, err := e.client.Models.EmbedContent(ctx,
		e.model,
		[]*genai.Content{genai.NewContentFromText(text, genai.RoleUser)},
		&genai.EmbedContentConfig{TaskType: e.taskType},
	)
	if err != nil {
		metrics.IncError("embedding", "genai_embed")
		return nil, fmt.Errorf("genai embed failed: %w", err)
	}
	if len(result.Embeddings) == 0 {
		return nil, fmt.Errorf("no embeddings returned")
	}
	return result.Embeddings[0].Values, nil
}

func (e *GenAIEngine) Name() string {
	return "genai:" + e.model
}
