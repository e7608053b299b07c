package repository

import (
	"context"

	"testbrain/internal/domain/entity"
)

//go:generate mockgen -source=test_case.go -destination=../../mocks/mock_test_case.go -package=mocks

// TestCaseRepository stores reviewed test cases. Missing ids yield entity.ErrNotFound.
type TestCaseRepository interface {
	SaveBatch(ctx context.Context, cases []*entity.TestCase) error
	GetByID(ctx context.Context, id string) (*entity.TestCase, error)
	GetByIDs(ctx context.Context, ids []string) ([]*entity.TestCase, error)
	// ListByStatus returns one page, newest first. An empty status matches all.
	ListByStatus(ctx context.Context, status entity.TestCaseStatus, offset, limit int) ([]*entity.TestCase, error)
	CountByStatus(ctx context.Context, status entity.TestCaseStatus) (int, error) // empty status counts all
	Recent(ctx context.Context, limit int) ([]*entity.TestCase, error)
	Update(ctx context.Context, id string, upd entity.TestCaseUpdate) error
	DeleteMany(ctx context.Context, ids []string) (int, error)
}

type ReviewRepository interface {
	Create(ctx context.Context, review *entity.Review) error
	ListByTestCase(ctx context.Context, testCaseID string) ([]*entity.Review, error)
}
