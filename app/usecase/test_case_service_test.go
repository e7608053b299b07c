package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"

	"testbrain/internal/domain/entity"
	"testbrain/internal/mocks"
)

func TestTestCaseService_SaveBatch(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockTestCaseRepository(ctrl)
	svc := NewTestCaseService(repo, zap.NewNop())

	var saved []*entity.TestCase
	repo.EXPECT().SaveBatch(gomock.Any(), gomock.Len(2)).DoAndReturn(
		func(_ context.Context, cases []*entity.TestCase) error {
			saved = cases
			return nil
		})

	out, err := svc.SaveBatch(context.Background(), SaveCasesRequest{
		Cases: []entity.GeneratedCase{
			{Description: "login ok", TestSteps: []string{"open", "submit"}, ExpectedResults: []string{"form", "home"}},
			{Description: "login bad", TestSteps: []string{"submit"}, ExpectedResults: []string{"error"}},
		},
		Requirement: "users can log in",
		Provider:    "deepseek",
	})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, saved, out)

	assert.Equal(t, "Test case-1", out[0].Title)
	assert.Equal(t, "Test case-2", out[1].Title)
	assert.Equal(t, "open\nsubmit", out[0].TestSteps)
	assert.Equal(t, "form\nhome", out[0].ExpectedResults)
	assert.Equal(t, entity.TestCaseStatusPending, out[0].Status)
	assert.Equal(t, "users can log in", out[1].Requirements)
	assert.Equal(t, "deepseek", out[1].LLMProvider)
	assert.NotEqual(t, out[0].ID, out[1].ID)
}

func TestTestCaseService_SaveBatchEmpty(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := NewTestCaseService(mocks.NewMockTestCaseRepository(ctrl), zap.NewNop())

	_, err := svc.SaveBatch(context.Background(), SaveCasesRequest{})
	assert.ErrorIs(t, err, entity.ErrInvalidInput)
}

func TestTestCaseService_ListPagination(t *testing.T) {
	tests := []struct {
		name     string
		total    int
		page     string
		wantPage int
		wantPgs  int
	}{
		{name: "first page", total: 40, page: "1", wantPage: 1, wantPgs: 3},
		{name: "middle page", total: 40, page: "2", wantPage: 2, wantPgs: 3},
		{name: "past the end clamps to last", total: 40, page: "9", wantPage: 3, wantPgs: 3},
		{name: "non numeric is first", total: 40, page: "abc", wantPage: 1, wantPgs: 3},
		{name: "zero is first", total: 40, page: "0", wantPage: 1, wantPgs: 3},
		{name: "empty store has one page", total: 0, page: "3", wantPage: 1, wantPgs: 1},
		{name: "exact multiple", total: 30, page: "2", wantPage: 2, wantPgs: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			repo := mocks.NewMockTestCaseRepository(ctrl)
			svc := NewTestCaseService(repo, zap.NewNop())

			repo.EXPECT().CountByStatus(gomock.Any(), entity.TestCaseStatusApproved).Return(tt.total, nil)
			repo.EXPECT().
				ListByStatus(gomock.Any(), entity.TestCaseStatusApproved, (tt.wantPage-1)*PageSize, PageSize).
				Return([]*entity.TestCase{}, nil)

			page, err := svc.List(context.Background(), entity.TestCaseStatusApproved, tt.page)
			require.NoError(t, err)
			assert.Equal(t, tt.wantPage, page.Page)
			assert.Equal(t, tt.wantPgs, page.NumPages)
			assert.Equal(t, tt.total, page.TotalCount)
		})
	}
}

func TestTestCaseService_ListRejectsUnknownStatus(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := NewTestCaseService(mocks.NewMockTestCaseRepository(ctrl), zap.NewNop())

	_, err := svc.List(context.Background(), "archived", "1")
	assert.ErrorIs(t, err, entity.ErrInvalidInput)
}

func TestTestCaseService_Update(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockTestCaseRepository(ctrl)
	svc := NewTestCaseService(repo, zap.NewNop())

	upd := entity.TestCaseUpdate{Status: entity.TestCaseStatusApproved}
	gomock.InOrder(
		repo.EXPECT().Update(gomock.Any(), "tc-1", upd).Return(nil),
		repo.EXPECT().GetByID(gomock.Any(), "tc-1").Return(&entity.TestCase{ID: "tc-1", Status: entity.TestCaseStatusApproved}, nil),
	)

	tc, err := svc.Update(context.Background(), "tc-1", upd)
	require.NoError(t, err)
	assert.Equal(t, entity.TestCaseStatusApproved, tc.Status)

	_, err = svc.Update(context.Background(), "tc-1", entity.TestCaseUpdate{Status: "done"})
	assert.ErrorIs(t, err, entity.ErrInvalidInput)
}

func TestTestCaseService_UpdateMissing(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockTestCaseRepository(ctrl)
	svc := NewTestCaseService(repo, zap.NewNop())

	repo.EXPECT().Update(gomock.Any(), "nope", gomock.Any()).Return(entity.ErrNotFound)

	_, err := svc.Update(context.Background(), "nope", entity.TestCaseUpdate{Description: "x"})
	assert.ErrorIs(t, err, entity.ErrNotFound)
}

func TestTestCaseService_Delete(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockTestCaseRepository(ctrl)
	svc := NewTestCaseService(repo, zap.NewNop())

	repo.EXPECT().DeleteMany(gomock.Any(), []string{"a", "b"}).Return(1, nil)

	n, err := svc.Delete(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = svc.Delete(context.Background(), nil)
	assert.ErrorIs(t, err, entity.ErrInvalidInput)
}

func TestTestCaseService_Stats(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockTestCaseRepository(ctrl)
	svc := NewTestCaseService(repo, zap.NewNop())

	repo.EXPECT().CountByStatus(gomock.Any(), entity.TestCaseStatus("")).Return(10, nil)
	repo.EXPECT().CountByStatus(gomock.Any(), entity.TestCaseStatusPending).Return(5, nil)
	repo.EXPECT().CountByStatus(gomock.Any(), entity.TestCaseStatusApproved).Return(3, nil)
	repo.EXPECT().CountByStatus(gomock.Any(), entity.TestCaseStatusRejected).Return(2, nil)
	repo.EXPECT().Recent(gomock.Any(), 10).Return([]*entity.TestCase{{ID: "newest"}}, nil)

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 10, stats.Total)
	assert.Equal(t, 5, stats.Pending)
	assert.Equal(t, 3, stats.Approved)
	assert.Equal(t, 2, stats.Rejected)
	require.Len(t, stats.Recent, 1)
	assert.Equal(t, "newest", stats.Recent[0].ID)
}

func TestTestCaseService_StatsError(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockTestCaseRepository(ctrl)
	svc := NewTestCaseService(repo, zap.NewNop())

	repo.EXPECT().CountByStatus(gomock.Any(), gomock.Any()).Return(0, errors.New("db down"))

	_, err := svc.Stats(context.Background())
	assert.ErrorContains(t, err, "db down")
}

func TestTestCaseService_Export(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockTestCaseRepository(ctrl)
	svc := NewTestCaseService(repo, zap.NewNop())

	repo.EXPECT().GetByIDs(gomock.Any(), []string{"a", "b"}).Return([]*entity.TestCase{
		{ID: "a", Description: "first", TestSteps: "s1", ExpectedResults: "r1", Status: entity.TestCaseStatusPending},
		{ID: "b", Description: "second", TestSteps: "s2", ExpectedResults: "r2", Status: entity.TestCaseStatusApproved},
	}, nil)

	name, data, err := svc.Export(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Regexp(t, `^test_cases_\d{8}_\d{6}_2_cases\.xlsx$`, name)
	assert.NotEmpty(t, data)
}

func TestTestCaseService_ExportNothingFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockTestCaseRepository(ctrl)
	svc := NewTestCaseService(repo, zap.NewNop())

	repo.EXPECT().GetByIDs(gomock.Any(), []string{"x"}).Return(nil, nil)

	_, _, err := svc.Export(context.Background(), []string{"x"})
	assert.ErrorIs(t, err, entity.ErrNotFound)
}
