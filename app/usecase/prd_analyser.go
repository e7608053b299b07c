package usecase

import (
	"context"
	"fmt"
	"strings"

	"testbrain/internal/domain/casegen"
	"testbrain/internal/domain/entity"
	"testbrain/internal/domain/repository"
	"testbrain/internal/infrastructure/prompt"
)

// PRDAnalyser extracts testable requirements from a Markdown PRD.
type PRDAnalyser struct {
	completers repository.CompleterProvider
	prompts    *prompt.Builder
}

func NewPRDAnalyser(completers repository.CompleterProvider, prompts *prompt.Builder) *PRDAnalyser {
	return &PRDAnalyser{completers: completers, prompts: prompts}
}

func (a *PRDAnalyser) Analyse(ctx context.Context, markdown, provider string) (string, error) {
	if strings.TrimSpace(markdown) == "" {
		return "", fmt.Errorf("%w: empty document", entity.ErrInvalidInput)
	}

	messages, err := a.prompts.BuildPRDMessages(markdown)
	if err != nil {
		return "", fmt.Errorf("build prompt: %w", err)
	}

	completer, _ := a.completers.Completer(provider)
	raw, err := completer.Complete(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("analyse prd: %w", err)
	}
	return casegen.StripFence(raw), nil
}
