package usecase

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"testbrain/internal/domain/entity"
	"testbrain/internal/domain/repository"
	"testbrain/internal/infrastructure/prompt"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// completerFunc adapts a function to repository.Completer.
type completerFunc func(ctx context.Context, messages []entity.Message) (string, error)

func (f completerFunc) Complete(ctx context.Context, messages []entity.Message) (string, error) {
	return f(ctx, messages)
}

// singleProvider always resolves to one completer.
type singleProvider struct{ c repository.Completer }

func (p singleProvider) Completer(name string) (repository.Completer, string) {
	return p.c, "stub"
}

type panickingProvider struct{}

func (panickingProvider) Completer(string) (repository.Completer, string) {
	panic("provider registry is broken")
}

type retrieverFunc func(ctx context.Context, query string) ([]entity.SearchHit, error)

func (f retrieverFunc) Search(ctx context.Context, query string) ([]entity.SearchHit, error) {
	return f(ctx, query)
}

func target(path string) entity.APIDefinition {
	return entity.APIDefinition{
		"name":   "api " + path,
		"method": "POST",
		"path":   path,
		"request": map[string]any{
			"headers": []any{map[string]any{"key": "Content-Type", "value": "application/json"}},
		},
	}
}

// arrayOf returns a fenced JSON array of n records with a valid assertion.
func arrayOf(n int) string {
	items := make([]string, n)
	for i := range items {
		items[i] = fmt.Sprintf(`{"name":"case %d","request":{"children":[{"assertionConfig":{"assertions":[`+
			`{"assertionType":"RESPONSE_CODE","condition":"EQUALS","expectedValue":"200","enable":true}]}}]}}`, i)
	}
	return "```json\n[" + strings.Join(items, ",") + "]\n```"
}

func caseCount(t *testing.T, def entity.APIDefinition) int {
	t.Helper()
	return len(def.TestCases())
}

func newGenerator(t *testing.T, c repository.Completer, cfg BatchConfig) *BatchGenerator {
	t.Helper()
	b, err := prompt.New()
	require.NoError(t, err)
	return NewBatchGenerator(singleProvider{c: c}, nil, b, cfg, zap.NewNop())
}

func TestGenerate_DisjointKeysSubmitNothing(t *testing.T) {
	var calls atomic.Int32
	g := newGenerator(t, completerFunc(func(context.Context, []entity.Message) (string, error) {
		calls.Add(1)
		return arrayOf(1), nil
	}), DefaultBatchConfig())

	res := g.Generate(context.Background(), BatchRequest{
		Targets:        []entity.APIDefinition{target("/login")},
		Keys:           []string{"/missing", "/other"},
		CountPerTarget: 2,
		Priority:       "P0",
	})

	assert.False(t, res.Success)
	assert.Equal(t, "no valid targets", res.Message)
	assert.Empty(t, res.Error)
	assert.Zero(t, calls.Load())
}

func TestGenerate_TargetsWithoutPathAreNotSelectable(t *testing.T) {
	var calls atomic.Int32
	g := newGenerator(t, completerFunc(func(context.Context, []entity.Message) (string, error) {
		calls.Add(1)
		return arrayOf(1), nil
	}), DefaultBatchConfig())

	unnamed := target("")
	res := g.Generate(context.Background(), BatchRequest{
		Targets:        []entity.APIDefinition{unnamed, {"name": "no path key"}},
		Keys:           []string{""},
		CountPerTarget: 1,
	})

	assert.False(t, res.Success)
	assert.Equal(t, "no valid targets", res.Message)
	assert.Zero(t, calls.Load())
	assert.Nil(t, unnamed.TestCases())
}

func TestGenerate_InvalidCount(t *testing.T) {
	var calls atomic.Int32
	g := newGenerator(t, completerFunc(func(context.Context, []entity.Message) (string, error) {
		calls.Add(1)
		return "", nil
	}), DefaultBatchConfig())

	res := g.Generate(context.Background(), BatchRequest{
		Targets:        []entity.APIDefinition{target("/login")},
		Keys:           []string{"/login"},
		CountPerTarget: 0,
	})

	assert.False(t, res.Success)
	assert.NotEmpty(t, res.Error)
	assert.Zero(t, calls.Load())
}

func TestGenerate_ExampleScenario(t *testing.T) {
	g := newGenerator(t, completerFunc(func(context.Context, []entity.Message) (string, error) {
		return arrayOf(2), nil
	}), DefaultBatchConfig())

	login, logout := target("/login"), target("/logout")
	login[entity.TestCaseListKey] = []any{map[string]any{"name": "existing"}}

	res := g.Generate(context.Background(), BatchRequest{
		Targets:        []entity.APIDefinition{login, logout},
		Keys:           []string{"/login", "/logout", "/missing"},
		CountPerTarget: 2,
		Priority:       "P0",
	})

	require.True(t, res.Success)
	assert.Equal(t, 2, res.TargetCount)
	assert.Equal(t, 4, res.GeneratedCount)

	require.Equal(t, 3, caseCount(t, login))
	assert.Equal(t, "existing", login.TestCases()[0].(map[string]any)["name"], "existing cases are kept first")
	require.Equal(t, 2, caseCount(t, logout))

	rec := logout.TestCases()[0].(map[string]any)
	assert.Equal(t, "P0", rec["priority"])
	assert.Equal(t, "/logout", rec["path"])
	req := rec["request"].(map[string]any)
	assert.Equal(t, "POST", req["method"])
	assert.Equal(t, login["request"].(map[string]any)["headers"], req["headers"])
}

func TestGenerate_AllUnitsFailingIsStillSuccess(t *testing.T) {
	tests := []struct {
		name  string
		reply func() (string, error)
	}{
		{name: "llm error", reply: func() (string, error) { return "", errors.New("503 upstream") }},
		{name: "garbage", reply: func() (string, error) { return "I cannot help with that", nil }},
		{name: "scalar", reply: func() (string, error) { return "42", nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newGenerator(t, completerFunc(func(context.Context, []entity.Message) (string, error) {
				return tt.reply()
			}), DefaultBatchConfig())

			a, b := target("/a"), target("/b")
			res := g.Generate(context.Background(), BatchRequest{
				Targets:        []entity.APIDefinition{a, b},
				Keys:           []string{"/a", "/b"},
				CountPerTarget: 3,
				Priority:       "P1",
			})

			assert.True(t, res.Success)
			assert.Equal(t, 0, res.GeneratedCount)
			assert.Equal(t, 2, res.TargetCount)
			assert.Nil(t, a.TestCases())
			assert.Nil(t, b.TestCases())
		})
	}
}

func TestGenerate_OneFailingTargetDoesNotAbortOthers(t *testing.T) {
	g := newGenerator(t, completerFunc(func(_ context.Context, msgs []entity.Message) (string, error) {
		if strings.Contains(msgs[1].Content(), "Path: /broken") {
			panic("provider client bug")
		}
		return arrayOf(1), nil
	}), DefaultBatchConfig())

	ok, broken := target("/ok"), target("/broken")
	res := g.Generate(context.Background(), BatchRequest{
		Targets:        []entity.APIDefinition{ok, broken},
		Keys:           []string{"/ok", "/broken"},
		CountPerTarget: 1,
	})

	assert.True(t, res.Success)
	assert.Equal(t, 1, res.GeneratedCount)
	assert.Equal(t, 1, caseCount(t, ok))
	assert.Nil(t, broken.TestCases())
}

func TestGenerate_ConcurrentTargetsAllMerged(t *testing.T) {
	const targets, workers = 10, 5

	var inFlight, maxInFlight atomic.Int32
	var mu sync.Mutex
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	g := newGenerator(t, completerFunc(func(_ context.Context, msgs []entity.Message) (string, error) {
		n := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			m := maxInFlight.Load()
			if n <= m || maxInFlight.CompareAndSwap(m, n) {
				break
			}
		}

		mu.Lock()
		delay := time.Duration(rng.Intn(20)) * time.Millisecond
		mu.Unlock()
		time.Sleep(delay)

		// the number of records differs per target so buckets cannot be confused
		var idx int
		_, _ = fmt.Sscanf(pathOf(msgs[1].Content()), "/t%d", &idx)
		return arrayOf(idx + 1), nil
	}), BatchConfig{Workers: workers, Strategy: StrategyBatch})

	defs := make([]entity.APIDefinition, targets)
	keys := make([]string, targets)
	want := 0
	for i := range defs {
		keys[i] = fmt.Sprintf("/t%d", i)
		defs[i] = target(keys[i])
		want += i + 1
	}

	res := g.Generate(context.Background(), BatchRequest{
		Targets:        defs,
		Keys:           keys,
		CountPerTarget: 1,
		Priority:       "P2",
	})

	require.True(t, res.Success)
	assert.Equal(t, targets, res.TargetCount)
	assert.Equal(t, want, res.GeneratedCount)
	assert.LessOrEqual(t, maxInFlight.Load(), int32(workers))

	sum := 0
	for i, d := range defs {
		assert.Equal(t, i+1, caseCount(t, d), "bucket for %s", d.Path())
		sum += caseCount(t, d)
	}
	assert.Equal(t, res.GeneratedCount, sum)
}

func pathOf(user string) string {
	for _, line := range strings.Split(user, "\n") {
		if p, ok := strings.CutPrefix(line, "Path: "); ok {
			return p
		}
	}
	return ""
}

func TestGenerate_PerCaseStrategy(t *testing.T) {
	var calls atomic.Int32
	g := newGenerator(t, completerFunc(func(_ context.Context, msgs []entity.Message) (string, error) {
		calls.Add(1)
		assert.Contains(t, msgs[1].Content(), "Number of test cases: 1")
		return `{"name":"single"}`, nil
	}), BatchConfig{Workers: 2, Strategy: StrategyPerCase})

	a, b := target("/a"), target("/b")
	res := g.Generate(context.Background(), BatchRequest{
		Targets:        []entity.APIDefinition{a, b},
		Keys:           []string{"/a", "/b"},
		CountPerTarget: 3,
	})

	require.True(t, res.Success)
	assert.Equal(t, int32(6), calls.Load())
	assert.Equal(t, 6, res.GeneratedCount)
	assert.Equal(t, 2, res.TargetCount)
	assert.Equal(t, 3, caseCount(t, a))
	assert.Equal(t, 3, caseCount(t, b))
}

func TestGenerate_CallTimeoutYieldsZeroRecords(t *testing.T) {
	g := newGenerator(t, completerFunc(func(ctx context.Context, msgs []entity.Message) (string, error) {
		if pathOf(msgs[1].Content()) == "/slow" {
			<-ctx.Done()
			return "", ctx.Err()
		}
		return arrayOf(1), nil
	}), BatchConfig{Workers: 2, CallTimeout: 20 * time.Millisecond})

	fast, slow := target("/fast"), target("/slow")
	res := g.Generate(context.Background(), BatchRequest{
		Targets:        []entity.APIDefinition{fast, slow},
		Keys:           []string{"/fast", "/slow"},
		CountPerTarget: 1,
	})

	assert.True(t, res.Success)
	assert.Equal(t, 1, res.GeneratedCount)
	assert.Equal(t, 1, caseCount(t, fast))
	assert.Nil(t, slow.TestCases())
}

func TestGenerate_DeadlineReturnsCompletedWork(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	g := newGenerator(t, completerFunc(func(ctx context.Context, msgs []entity.Message) (string, error) {
		if pathOf(msgs[1].Content()) == "/hang" {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-release:
				return arrayOf(5), nil
			}
		}
		return arrayOf(2), nil
	}), BatchConfig{Workers: 5, Deadline: 100 * time.Millisecond})

	done, hang := target("/done"), target("/hang")
	started := time.Now()
	res := g.Generate(context.Background(), BatchRequest{
		Targets:        []entity.APIDefinition{done, hang},
		Keys:           []string{"/done", "/hang"},
		CountPerTarget: 2,
	})

	assert.Less(t, time.Since(started), 5*time.Second)
	assert.True(t, res.Success)
	assert.Equal(t, 2, res.GeneratedCount)
	assert.Equal(t, 2, caseCount(t, done))
	assert.Nil(t, hang.TestCases())
}

func TestGenerate_DuplicateKeysResolveOnce(t *testing.T) {
	var calls atomic.Int32
	g := newGenerator(t, completerFunc(func(context.Context, []entity.Message) (string, error) {
		calls.Add(1)
		return arrayOf(1), nil
	}), DefaultBatchConfig())

	first, second := target("/dup"), target("/dup")
	res := g.Generate(context.Background(), BatchRequest{
		Targets:        []entity.APIDefinition{first, second},
		Keys:           []string{"/dup", "/dup"},
		CountPerTarget: 1,
	})

	assert.True(t, res.Success)
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, 1, res.TargetCount)
	assert.Equal(t, 1, caseCount(t, first))
	assert.Nil(t, second.TestCases())
}

func TestGenerate_UsesReferencesAndToleratesLookupFailure(t *testing.T) {
	b, err := prompt.New()
	require.NoError(t, err)

	var sawReference atomic.Bool
	c := completerFunc(func(_ context.Context, msgs []entity.Message) (string, error) {
		if strings.Contains(msgs[1].Content(), "- login happy path: 200 with token") {
			sawReference.Store(true)
		}
		return arrayOf(1), nil
	})

	r := retrieverFunc(func(_ context.Context, query string) ([]entity.SearchHit, error) {
		if strings.Contains(query, "/login") {
			return []entity.SearchHit{{Title: "login happy path", Content: "200 with token"}}, nil
		}
		return nil, errors.New("vector store offline")
	})

	g := NewBatchGenerator(singleProvider{c: c}, r, b, DefaultBatchConfig(), zap.NewNop())
	res := g.Generate(context.Background(), BatchRequest{
		Targets:        []entity.APIDefinition{target("/login"), target("/orders")},
		Keys:           []string{"/login", "/orders"},
		CountPerTarget: 1,
	})

	assert.True(t, res.Success)
	assert.Equal(t, 2, res.GeneratedCount)
	assert.True(t, sawReference.Load())
}

func TestGenerate_OrchestrationPanicIsReported(t *testing.T) {
	b, err := prompt.New()
	require.NoError(t, err)
	g := NewBatchGenerator(panickingProvider{}, nil, b, DefaultBatchConfig(), zap.NewNop())

	res := g.Generate(context.Background(), BatchRequest{
		Targets:        []entity.APIDefinition{target("/a")},
		Keys:           []string{"/a"},
		CountPerTarget: 1,
	})

	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "provider registry is broken")
}
