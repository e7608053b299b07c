// Package embedding turns text into vectors for the knowledge base.
// Backends: Hugging Face inference (BGE-M3), a local Ollama server and Google GenAI.
package embedding

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"

	"testbrain/internal/domain/repository"
)

const (
	ProviderHF     = "hf"
	ProviderOllama = "ollama"
	ProviderGenAI  = "genai"
)

type Config struct {
	Provider string
	Endpoint string
	Model    string
	APIKey   string
	TaskType string
}

func DefaultConfig() Config {
	return Config{
		Provider: ProviderHF,
		Endpoint: "https://api-inference.huggingface.co/models/BAAI/bge-m3",
		Model:    "bge-m3",
	}
}

// NewEngine creates the embedder selected by cfg.Provider.
func NewEngine(ctx context.Context, cfg Config, logger *zap.Logger) (repository.Embedder, error) {
	logger.Info("creating embedding engine", zap.String("provider", cfg.Provider), zap.String("model", cfg.Model))

	switch cfg.Provider {
	case ProviderHF, "":
		return NewHFEngine(cfg.Endpoint, cfg.Model, cfg.APIKey), nil
	case ProviderOllama:
		return NewOllamaEngine(cfg.Endpoint, cfg.Model), nil
	case ProviderGenAI:
		return NewGenAIEngine(ctx, cfg.APIKey, cfg.Model, cfg.TaskType)
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Provider)
	}
}

// CosineSimilarity returns the cosine of the angle between a and b.
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("vector dimension mismatch: %d vs %d", len(a), len(b))
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}
