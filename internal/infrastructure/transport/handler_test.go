package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"

	"testbrain/app/usecase"
	"testbrain/internal/domain/entity"
	"testbrain/internal/infrastructure/llm"
	"testbrain/internal/infrastructure/metrics"
	"testbrain/internal/infrastructure/prompt"
	"testbrain/internal/infrastructure/store/filesystem"
	"testbrain/internal/infrastructure/validator"
	"testbrain/internal/mocks"
)

type fixture struct {
	cases     *mocks.MockTestCaseRepository
	reviews   *mocks.MockReviewRepository
	jobs      *mocks.MockJobRepository
	completer *mocks.MockCompleter
	docs      *filesystem.FileRepository
	handler   *Handler
	srv       *httptest.Server
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	logger := zap.NewNop()

	f := &fixture{
		cases:     mocks.NewMockTestCaseRepository(ctrl),
		reviews:   mocks.NewMockReviewRepository(ctrl),
		jobs:      mocks.NewMockJobRepository(ctrl),
		completer: mocks.NewMockCompleter(ctrl),
	}

	docs, err := filesystem.NewFileRepository(t.TempDir())
	require.NoError(t, err)
	f.docs = docs

	prompts, err := prompt.New()
	require.NoError(t, err)

	registry := llm.NewRegistry("stub", logger)
	registry.Register("stub", f.completer)

	vectors := mocks.NewMockVectorStore(ctrl)
	embedder := mocks.NewMockEmbedder(ctrl)
	knowledge := usecase.NewKnowledgeService(mocks.NewMockKnowledgeRepository(ctrl), vectors, embedder, 0, logger)
	generator := usecase.NewBatchGenerator(registry, nil, prompts, usecase.BatchConfig{Workers: 2}, logger)

	f.handler = NewHandler(Services{
		TestCases:    usecase.NewTestCaseService(f.cases, logger),
		Requirements: usecase.NewRequirementGenerator(registry, nil, prompts, logger),
		Reviewer:     usecase.NewReviewer(f.cases, f.reviews, registry, nil, prompts, logger),
		Knowledge:    knowledge,
		Definitions:  usecase.NewAPIDefinitionService(docs, validator.NewAPIDocumentValidator(), generator, logger),
		Jobs:         usecase.NewJobService(f.jobs, docs),
		PRD:          usecase.NewPRDAnalyser(registry, prompts),
		Providers:    registry.Names(),
	}, logger)
	f.handler.wsPoll = 5 * time.Millisecond

	r := mux.NewRouter()
	f.handler.RegisterRoutes(r)
	f.srv = httptest.NewServer(AccessLog(logger, r))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fixture) do(t *testing.T, method, path string, body any) *http.Response {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(data)
	} else {
		rd = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, f.srv.URL+path, rd)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	before := testutil.ToFloat64(metrics.HTTPRequests.WithLabelValues("GET /api/v1/health", "200"))

	resp := f.do(t, http.MethodGet, "/api/v1/health", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[map[string]any](t, resp)
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, []any{"stub"}, body["providers"])

	after := testutil.ToFloat64(metrics.HTTPRequests.WithLabelValues("GET /api/v1/health", "200"))
	assert.Equal(t, before+1, after)
}

func TestErrorMapping(t *testing.T) {
	f := newFixture(t)
	f.cases.EXPECT().GetByID(gomock.Any(), "missing").Return(nil, fmt.Errorf("test case missing: %w", entity.ErrNotFound))

	resp := f.do(t, http.MethodGet, "/api/v1/test-cases/missing", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, decode[map[string]string](t, resp)["error"], "not found")

	resp = f.do(t, http.MethodGet, "/api/v1/test-cases?status=archived", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	f.cases.EXPECT().CountByStatus(gomock.Any(), gomock.Any()).Return(0, fmt.Errorf("connection reset"))
	resp = f.do(t, http.MethodGet, "/api/v1/stats", nil)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestBadBody(t *testing.T) {
	f := newFixture(t)
	req, err := http.NewRequest(http.MethodPost, f.srv.URL+"/api/v1/test-cases", strings.NewReader("{"))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestListTestCases(t *testing.T) {
	f := newFixture(t)
	f.cases.EXPECT().CountByStatus(gomock.Any(), entity.TestCaseStatusPending).Return(16, nil)
	f.cases.EXPECT().ListByStatus(gomock.Any(), entity.TestCaseStatusPending, 15, 15).
		Return([]*entity.TestCase{{ID: "p16"}}, nil)

	resp := f.do(t, http.MethodGet, "/api/v1/test-cases?status=pending&page=7", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	page := decode[entity.TestCasePage](t, resp)
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 2, page.NumPages)
	require.Len(t, page.Items, 1)
}

func TestBatchRoutesAreNotShadowedByID(t *testing.T) {
	f := newFixture(t)
	f.cases.EXPECT().GetByIDs(gomock.Any(), []string{"a", "b"}).Return([]*entity.TestCase{{ID: "a"}, {ID: "b"}}, nil)

	resp := f.do(t, http.MethodGet, "/api/v1/test-cases/batch?ids=a,%20b", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]entity.TestCase](t, resp), 2)
}

func TestExport(t *testing.T) {
	f := newFixture(t)
	f.cases.EXPECT().GetByIDs(gomock.Any(), []string{"a"}).
		Return([]*entity.TestCase{{ID: "a", Description: "d", Status: entity.TestCaseStatusPending}}, nil)

	resp := f.do(t, http.MethodGet, "/api/v1/test-cases/export?ids=a", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "spreadsheetml")
	assert.Regexp(t, `attachment; filename="test_cases_\d{8}_\d{6}_1_cases\.xlsx"`, resp.Header.Get("Content-Disposition"))
}

func TestDeleteTestCases(t *testing.T) {
	f := newFixture(t)
	f.cases.EXPECT().DeleteMany(gomock.Any(), []string{"a", "b"}).Return(2, nil)

	resp := f.do(t, http.MethodDelete, "/api/v1/test-cases?ids=a&ids=b", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 2, decode[map[string]int](t, resp)["deleted"])
}

func TestGenerateRequirement(t *testing.T) {
	f := newFixture(t)
	f.completer.EXPECT().Complete(gomock.Any(), gomock.Any()).
		Return(`[{"description":"ok","test_steps":["a"],"expected_results":["b"]}]`, nil)

	resp := f.do(t, http.MethodPost, "/api/v1/generate", map[string]any{"input": "login works", "case_count": 1})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	res := decode[usecase.RequirementResult](t, resp)
	assert.Equal(t, "stub", res.Provider)
	assert.Len(t, res.Cases, 1)
}

func upload(t *testing.T, f *fixture, name, content string) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	resp, err := http.Post(f.srv.URL+"/api/v1/api-definitions", mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

const apiDoc = `{"apiDefinitions":[
	{"name":"login","method":"POST","path":"/login"},
	{"name":"logout","method":"POST","path":"/logout"}
]}`

func TestUploadGenerateDownload(t *testing.T) {
	f := newFixture(t)

	resp := upload(t, f, "api.json", apiDoc)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	up := decode[usecase.UploadResult](t, resp)
	assert.Equal(t, "api.json", up.Name)
	assert.Len(t, up.APIs, 2)

	f.completer.EXPECT().Complete(gomock.Any(), gomock.Any()).
		Return(`[{"name":"c1"},{"name":"c2"}]`, nil)

	resp = f.do(t, http.MethodPost, "/api/v1/api-definitions/api.json/generate", usecase.GenerateRequest{
		Paths: []string{"/login"}, Count: 2, Priority: "P1",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	res := decode[entity.BatchResult](t, resp)
	assert.True(t, res.Success)
	assert.Equal(t, 2, res.GeneratedCount)

	resp = f.do(t, http.MethodGet, "/api/v1/api-definitions/api.json", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	doc := decode[map[string][]map[string]any](t, resp)
	assert.Len(t, doc[entity.DefinitionsKey][0][entity.TestCaseListKey], 2)
	assert.NotContains(t, doc[entity.DefinitionsKey][1], entity.TestCaseListKey)
}

func TestUploadRejectsInvalidDocument(t *testing.T) {
	f := newFixture(t)

	resp := upload(t, f, "api.json", `{"apiDefinitions":[{"path":"/a"},{"path":"/a"}]}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decode[struct {
		Error      string                  `json:"error"`
		Validation entity.ValidationReport `json:"validation"`
	}](t, resp)
	assert.False(t, body.Validation.Passed)
	require.Len(t, body.Validation.Errors, 1)
	assert.Equal(t, 1, body.Validation.Errors[0].Index)
}

func TestGenerateUnknownDocument(t *testing.T) {
	f := newFixture(t)
	resp := f.do(t, http.MethodPost, "/api/v1/api-definitions/none.json/generate", usecase.GenerateRequest{Paths: []string{"/a"}, Count: 1})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestJobStream(t *testing.T) {
	f := newFixture(t)
	job := &entity.Job{ID: "j1", Status: entity.JobStatusPending, UpdatedAt: time.Now()}

	var calls atomic.Int32
	f.jobs.EXPECT().GetByID(gomock.Any(), "j1").DoAndReturn(func(context.Context, string) (*entity.Job, error) {
		snapshot := *job
		switch n := calls.Add(1); {
		case n >= 4:
			snapshot.Status = entity.JobStatusDone
			snapshot.UpdatedAt = job.UpdatedAt.Add(2 * time.Second)
		case n >= 2:
			snapshot.Status = entity.JobStatusRunning
			snapshot.UpdatedAt = job.UpdatedAt.Add(time.Second)
		}
		return &snapshot, nil
	}).MinTimes(4)

	url := "ws" + strings.TrimPrefix(f.srv.URL, "http") + "/api/v1/jobs/j1/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var statuses []entity.JobStatus
	for {
		var got entity.Job
		if err := conn.ReadJSON(&got); err != nil {
			assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "unexpected error: %v", err)
			break
		}
		statuses = append(statuses, got.Status)
	}
	assert.Equal(t, []entity.JobStatus{entity.JobStatusPending, entity.JobStatusRunning, entity.JobStatusDone}, statuses)
}

func TestJobStreamUnknownJob(t *testing.T) {
	f := newFixture(t)
	f.jobs.EXPECT().GetByID(gomock.Any(), "nope").Return(nil, entity.ErrNotFound)

	resp := f.do(t, http.MethodGet, "/api/v1/jobs/nope/ws", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCreateJob(t *testing.T) {
	f := newFixture(t)
	_, err := f.docs.Save(context.Background(), "api.json", []byte(apiDoc))
	require.NoError(t, err)
	f.jobs.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)

	resp := f.do(t, http.MethodPost, "/api/v1/jobs", usecase.CreateJobRequest{
		Document: "api.json", Paths: []string{"/login"}, Count: 1,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, entity.JobStatusPending, decode[entity.Job](t, resp).Status)
}
