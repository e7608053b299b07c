package usecase

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"testbrain/internal/domain/casegen"
	"testbrain/internal/domain/entity"
	"testbrain/internal/domain/repository"
	"testbrain/internal/infrastructure/prompt"
)

type RequirementRequest struct {
	Input         string   `json:"input"`
	InputType     string   `json:"input_type"`
	DesignMethods []string `json:"design_methods"`
	Categories    []string `json:"categories"`
	CaseCount     int      `json:"case_count"`
	Provider      string   `json:"llm_provider"`
}

type RequirementResult struct {
	Cases    []entity.GeneratedCase `json:"test_cases"`
	Provider string                 `json:"llm_provider"`
}

// RequirementGenerator drafts reviewable test cases from a requirement
// description or a code snippet.
type RequirementGenerator struct {
	completers repository.CompleterProvider
	retriever  repository.Retriever
	prompts    *prompt.Builder
	logger     *zap.Logger
}

func NewRequirementGenerator(
	completers repository.CompleterProvider,
	retriever repository.Retriever,
	prompts *prompt.Builder,
	logger *zap.Logger,
) *RequirementGenerator {
	return &RequirementGenerator{completers: completers, retriever: retriever, prompts: prompts, logger: logger}
}

func (g *RequirementGenerator) Generate(ctx context.Context, req RequirementRequest) (*RequirementResult, error) {
	if strings.TrimSpace(req.Input) == "" {
		return nil, fmt.Errorf("%w: input is required", entity.ErrInvalidInput)
	}
	if req.InputType == "" {
		req.InputType = "requirement"
	}
	if req.InputType != "requirement" && req.InputType != "code" {
		return nil, fmt.Errorf("%w: unknown input type %q", entity.ErrInvalidInput, req.InputType)
	}
	if req.CaseCount <= 0 {
		req.CaseCount = 3
	}

	var knowledge []entity.SearchHit
	if g.retriever != nil {
		hits, err := g.retriever.Search(ctx, req.Input)
		if err != nil {
			g.logger.Warn("knowledge lookup failed", zap.Error(err))
		}
		knowledge = hits
	}

	messages, err := g.prompts.BuildRequirementMessages(prompt.RequirementInput{
		Input:         req.Input,
		InputType:     req.InputType,
		DesignMethods: req.DesignMethods,
		Categories:    req.Categories,
		CaseCount:     req.CaseCount,
		Knowledge:     knowledge,
	})
	if err != nil {
		return nil, fmt.Errorf("build prompt: %w", err)
	}

	completer, provider := g.completers.Completer(req.Provider)
	raw, err := completer.Complete(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("generate test cases: %w", err)
	}

	cases, err := casegen.ParseGeneratedCases(raw)
	if err != nil {
		g.logger.Warn("unusable completion", zap.String("provider", provider), zap.Error(err))
		return nil, err
	}

	g.logger.Info("test cases generated", zap.String("provider", provider), zap.Int("count", len(cases)))
	return &RequirementResult{Cases: cases, Provider: provider}, nil
}
