package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"testbrain/app/config"
	"testbrain/app/usecase"
	"testbrain/internal/domain/repository"
	"testbrain/internal/infrastructure/llm"
	"testbrain/internal/infrastructure/prompt"
)

// buildRegistry loads providers.hcl (or the built-in providers) and creates
// a completer for each.
func buildRegistry(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*llm.Registry, error) {
	pf, err := config.LoadProviders(cfg.LLM.ProvidersFile)
	if err != nil {
		return nil, err
	}
	defaultName := pf.Default
	if cfg.LLM.DefaultProvider != "" {
		defaultName = cfg.LLM.DefaultProvider
	}

	registry, err := llm.Build(ctx, pf.Specs(os.Getenv), defaultName, llm.ChatConfig{
		Timeout:    cfg.LLM.CallTimeout,
		MaxRetries: cfg.LLM.MaxRetries,
		Backoff:    time.Second,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("build llm providers: %w", err)
	}
	logger.Info("llm providers ready", zap.Strings("providers", registry.Names()), zap.String("default", registry.Default()))
	return registry, nil
}

func batchConfig(cfg *config.Config) usecase.BatchConfig {
	return usecase.BatchConfig{
		Workers:     cfg.Batch.Workers,
		Strategy:    usecase.Strategy(cfg.Batch.Strategy),
		CallTimeout: cfg.LLM.CallTimeout,
		Deadline:    cfg.Batch.Deadline,
	}
}

func newBatchGenerator(cfg *config.Config, completers repository.CompleterProvider, retriever repository.Retriever, prompts *prompt.Builder) *usecase.BatchGenerator {
	return usecase.NewBatchGenerator(completers, retriever, prompts, batchConfig(cfg), logger)
}
