package usecase

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"testbrain/internal/domain/entity"
	"testbrain/internal/domain/repository"
	"testbrain/internal/infrastructure/export"
)

const (
	PageSize    = 15
	recentCases = 10
)

type SaveCasesRequest struct {
	Cases       []entity.GeneratedCase `json:"test_cases"`
	Requirement string                 `json:"requirement"`
	Provider    string                 `json:"llm_provider"`
}

type TestCaseService struct {
	repo   repository.TestCaseRepository
	logger *zap.Logger
}

func NewTestCaseService(repo repository.TestCaseRepository, logger *zap.Logger) *TestCaseService {
	return &TestCaseService{repo: repo, logger: logger}
}

// SaveBatch stores generated cases as pending, titled "Test case-N" in order.
func (s *TestCaseService) SaveBatch(ctx context.Context, req SaveCasesRequest) ([]*entity.TestCase, error) {
	if len(req.Cases) == 0 {
		return nil, fmt.Errorf("%w: no test cases to save", entity.ErrInvalidInput)
	}

	cases := make([]*entity.TestCase, 0, len(req.Cases))
	for i, gc := range req.Cases {
		cases = append(cases, entity.NewTestCase(i+1, gc, req.Requirement, req.Provider))
	}
	if err := s.repo.SaveBatch(ctx, cases); err != nil {
		return nil, fmt.Errorf("save test cases: %w", err)
	}
	s.logger.Info("test cases saved", zap.Int("count", len(cases)))
	return cases, nil
}

func (s *TestCaseService) Get(ctx context.Context, id string) (*entity.TestCase, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *TestCaseService) GetMany(ctx context.Context, ids []string) ([]*entity.TestCase, error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: no ids given", entity.ErrInvalidInput)
	}
	return s.repo.GetByIDs(ctx, ids)
}

// List returns one page of cases with the given status (all when empty).
// A non-numeric page yields the first page; a page past the end yields the last.
func (s *TestCaseService) List(ctx context.Context, status entity.TestCaseStatus, page string) (*entity.TestCasePage, error) {
	if status != "" && !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", entity.ErrInvalidInput, status)
	}

	total, err := s.repo.CountByStatus(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("count test cases: %w", err)
	}

	numPages := (total + PageSize - 1) / PageSize
	if numPages == 0 {
		numPages = 1
	}
	n := clampPage(page, numPages)

	items, err := s.repo.ListByStatus(ctx, status, (n-1)*PageSize, PageSize)
	if err != nil {
		return nil, fmt.Errorf("list test cases: %w", err)
	}
	return &entity.TestCasePage{Items: items, Page: n, NumPages: numPages, TotalCount: total}, nil
}

func clampPage(page string, numPages int) int {
	n, err := strconv.Atoi(page)
	if err != nil || n < 1 {
		return 1
	}
	if n > numPages {
		return numPages
	}
	return n
}

func (s *TestCaseService) Update(ctx context.Context, id string, upd entity.TestCaseUpdate) (*entity.TestCase, error) {
	if upd.Status != "" && !upd.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", entity.ErrInvalidInput, upd.Status)
	}
	if err := s.repo.Update(ctx, id, upd); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

func (s *TestCaseService) Delete(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, fmt.Errorf("%w: no ids given", entity.ErrInvalidInput)
	}
	n, err := s.repo.DeleteMany(ctx, ids)
	if err != nil {
		return 0, fmt.Errorf("delete test cases: %w", err)
	}
	s.logger.Info("test cases deleted", zap.Int("requested", len(ids)), zap.Int("deleted", n))
	return n, nil
}

func (s *TestCaseService) Stats(ctx context.Context) (*entity.TestCaseStats, error) {
	var stats entity.TestCaseStats
	counts := []struct {
		status entity.TestCaseStatus
		dst    *int
	}{
		{"", &stats.Total},
		{entity.TestCaseStatusPending, &stats.Pending},
		{entity.TestCaseStatusApproved, &stats.Approved},
		{entity.TestCaseStatusRejected, &stats.Rejected},
	}
	for _, c := range counts {
		n, err := s.repo.CountByStatus(ctx, c.status)
		if err != nil {
			return nil, fmt.Errorf("count test cases: %w", err)
		}
		*c.dst = n
	}

	recent, err := s.repo.Recent(ctx, recentCases)
	if err != nil {
		return nil, fmt.Errorf("recent test cases: %w", err)
	}
	stats.Recent = recent
	return &stats, nil
}

// Export renders the selected cases as an xlsx workbook and names the file.
func (s *TestCaseService) Export(ctx context.Context, ids []string) (string, []byte, error) {
	cases, err := s.GetMany(ctx, ids)
	if err != nil {
		return "", nil, err
	}
	if len(cases) == 0 {
		return "", nil, fmt.Errorf("test cases %v: %w", ids, entity.ErrNotFound)
	}
	data, err := export.TestCasesXLSX(cases)
	if err != nil {
		return "", nil, fmt.Errorf("export test cases: %w", err)
	}
	return export.FileName(time.Now(), len(cases)), data, nil
}
