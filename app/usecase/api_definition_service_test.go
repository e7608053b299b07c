package usecase

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"testbrain/internal/domain/entity"
	"testbrain/internal/infrastructure/validator"
)

func newDefinitionService(t *testing.T, docs *memDocs, reply string) *APIDefinitionService {
	t.Helper()
	g := newGenerator(t, completerFunc(func(context.Context, []entity.Message) (string, error) {
		return reply, nil
	}), BatchConfig{Workers: 2})
	return NewAPIDefinitionService(docs, validator.NewAPIDocumentValidator(), g, zap.NewNop())
}

func TestAPIDefinitionService_Upload(t *testing.T) {
	docs := &memDocs{files: map[string][]byte{}}
	svc := newDefinitionService(t, docs, arrayOf(1))

	res, err := svc.Upload(context.Background(), "../orders.json", documentWith(t, "/orders", "/orders/{id}"))
	require.NoError(t, err)
	assert.Equal(t, "orders.json", res.Name)
	assert.True(t, res.Report.Passed)
	require.Len(t, res.APIs, 2)
	assert.Equal(t, "/orders", res.APIs[0].Path)
	assert.False(t, res.APIs[0].HasTestCases)

	_, err = docs.Read(context.Background(), "orders.json")
	assert.NoError(t, err)
}

func TestAPIDefinitionService_UploadRejects(t *testing.T) {
	tests := []struct {
		name string
		file string
		data string
	}{
		{name: "not json extension", file: "api.yaml", data: `{"apiDefinitions":[]}`},
		{name: "syntax error", file: "api.json", data: `{"apiDefinitions": [`},
		{name: "missing list", file: "api.json", data: `{"apis": []}`},
		{name: "duplicate path", file: "api.json", data: `{"apiDefinitions":[{"path":"/a"},{"path":"/a"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			docs := &memDocs{files: map[string][]byte{}}
			svc := newDefinitionService(t, docs, "")

			_, err := svc.Upload(context.Background(), tt.file, []byte(tt.data))
			assert.ErrorIs(t, err, entity.ErrInvalidInput)
			assert.Empty(t, docs.files)
		})
	}
}

func TestAPIDefinitionService_Generate(t *testing.T) {
	docs := &memDocs{files: map[string][]byte{"api.json": documentWith(t, "/login", "/logout")}}
	svc := newDefinitionService(t, docs, arrayOf(2))

	res, err := svc.Generate(context.Background(), "api.json", GenerateRequest{
		Paths: []string{"/login", "/logout", "/missing"}, Count: 2, Priority: "P0",
	})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 4, res.GeneratedCount)
	assert.Equal(t, 2, res.TargetCount)

	data, err := svc.Download(context.Background(), "api.json")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "{\n  \""), "document is written back indented")

	doc, err := DecodeDocument(data)
	require.NoError(t, err)
	defs, err := doc.Definitions()
	require.NoError(t, err)
	for _, d := range defs {
		assert.Len(t, d.TestCases(), 2, d.Path())
	}
}

func TestAPIDefinitionService_GenerateFailureLeavesDocument(t *testing.T) {
	original := documentWith(t, "/login")
	docs := &memDocs{files: map[string][]byte{"api.json": original}}
	svc := newDefinitionService(t, docs, arrayOf(1))

	res, err := svc.Generate(context.Background(), "api.json", GenerateRequest{Paths: []string{"/nope"}, Count: 1})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "no valid targets", res.Message)

	data, _ := docs.Read(context.Background(), "api.json")
	assert.Equal(t, original, data)
}

func TestEncodeDocument_KeepsMarkupUnescaped(t *testing.T) {
	out, err := EncodeDocument(entity.APIDocument{"note": "<b>ä & ö</b>"})
	require.NoError(t, err)
	assert.Contains(t, string(out), "<b>ä & ö</b>")
}

func TestGenerateDocument_ConcurrentRunsKeepAllCases(t *testing.T) {
	docs := &memDocs{files: map[string][]byte{"api.json": documentWith(t, "/a")}}

	started := make(chan struct{}, 2)
	release := make(chan struct{})
	g := newGenerator(t, completerFunc(func(ctx context.Context, _ []entity.Message) (string, error) {
		started <- struct{}{}
		select {
		case <-release:
		case <-ctx.Done():
			return "", ctx.Err()
		}
		return arrayOf(1), nil
	}), BatchConfig{Workers: 1})

	req := BatchRequest{Keys: []string{"/a"}, CountPerTarget: 1}
	results := make([]entity.BatchResult, 2)
	var wg sync.WaitGroup
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := GenerateDocument(context.Background(), docs, g, "api.json", req)
			assert.NoError(t, err)
			results[i] = res
		}()
	}

	<-started
	select {
	case <-started:
		t.Error("second run reached the provider while the first held the document")
	case <-time.After(50 * time.Millisecond):
	}
	close(release)
	wg.Wait()

	for _, res := range results {
		assert.True(t, res.Success)
		assert.Equal(t, 1, res.GeneratedCount)
	}

	data, err := docs.Read(context.Background(), "api.json")
	require.NoError(t, err)
	doc, err := DecodeDocument(data)
	require.NoError(t, err)
	defs, err := doc.Definitions()
	require.NoError(t, err)
	require.Len(t, defs, 1)
	assert.Len(t, defs[0].TestCases(), 2)
	assert.Zero(t, documentLocks.size())
}

func TestKeyedLock_WaitHonoursContext(t *testing.T) {
	locks := newKeyedLock()
	unlock, err := locks.Lock(context.Background(), "api.json")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = locks.Lock(ctx, "api.json")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	other, err := locks.Lock(context.Background(), "other.json")
	require.NoError(t, err)
	other()

	unlock()
	assert.Zero(t, locks.size())
}
