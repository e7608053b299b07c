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

// Reviewer asks a model to grade a stored test case and keeps the review.
type Reviewer struct {
	cases      repository.TestCaseRepository
	reviews    repository.ReviewRepository
	completers repository.CompleterProvider
	retriever  repository.Retriever
	prompts    *prompt.Builder
	logger     *zap.Logger
}

func NewReviewer(
	cases repository.TestCaseRepository,
	reviews repository.ReviewRepository,
	completers repository.CompleterProvider,
	retriever repository.Retriever,
	prompts *prompt.Builder,
	logger *zap.Logger,
) *Reviewer {
	return &Reviewer{
		cases:      cases,
		reviews:    reviews,
		completers: completers,
		retriever:  retriever,
		prompts:    prompts,
		logger:     logger,
	}
}

func (r *Reviewer) Review(ctx context.Context, testCaseID, provider string) (*entity.Review, error) {
	tc, err := r.cases.GetByID(ctx, testCaseID)
	if err != nil {
		return nil, err
	}

	var knowledge []entity.SearchHit
	if r.retriever != nil {
		query := strings.Join([]string{tc.Title, tc.Description, tc.Requirements}, " ")
		if knowledge, err = r.retriever.Search(ctx, query); err != nil {
			r.logger.Warn("knowledge lookup failed", zap.String("test_case_id", tc.ID), zap.Error(err))
			knowledge = nil
		}
	}

	messages, err := r.prompts.BuildReviewMessages(tc, knowledge)
	if err != nil {
		return nil, fmt.Errorf("build prompt: %w", err)
	}

	completer, name := r.completers.Completer(provider)
	raw, err := completer.Complete(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("review test case: %w", err)
	}

	result, err := casegen.ParseReview(raw)
	if err != nil {
		return nil, err
	}

	review := entity.NewReview(tc.ID, "ai:"+name, result)
	if err := r.reviews.Create(ctx, review); err != nil {
		return nil, fmt.Errorf("save review: %w", err)
	}
	r.logger.Info("test case reviewed", zap.String("test_case_id", tc.ID), zap.Float64("score", result.Score))
	return review, nil
}

func (r *Reviewer) History(ctx context.Context, testCaseID string) ([]*entity.Review, error) {
	return r.reviews.ListByTestCase(ctx, testCaseID)
}
