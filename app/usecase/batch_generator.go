package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"testbrain/internal/domain/casegen"
	"testbrain/internal/domain/entity"
	"testbrain/internal/domain/repository"
	"testbrain/internal/infrastructure/metrics"
	"testbrain/internal/infrastructure/prompt"
)

type Strategy string

const (
	// StrategyBatch asks for every case of a target in one completion.
	StrategyBatch Strategy = "batch"
	// StrategyPerCase asks for one case per completion, for providers that
	// cannot reliably emit JSON arrays.
	StrategyPerCase Strategy = "per_case"
)

const msgNoValidTargets = "no valid targets"

func (s Strategy) Valid() bool {
	return s == StrategyBatch || s == StrategyPerCase
}

type BatchConfig struct {
	Workers     int
	Strategy    Strategy
	CallTimeout time.Duration
	// Deadline bounds a whole run; units still pending are abandoned.
	Deadline time.Duration
}

func DefaultBatchConfig() BatchConfig {
	return BatchConfig{
		Workers:     5,
		Strategy:    StrategyBatch,
		CallTimeout: 2 * time.Minute,
		Deadline:    10 * time.Minute,
	}
}

// BatchRequest selects targets by path and asks for CountPerTarget cases each.
type BatchRequest struct {
	Targets        []entity.APIDefinition
	Keys           []string
	CountPerTarget int
	Priority       string
	// Template overrides the built-in test case template when set.
	Template any
	Provider string
}

type BatchGenerator struct {
	completers repository.CompleterProvider
	retriever  repository.Retriever
	prompts    *prompt.Builder
	cfg        BatchConfig
	logger     *zap.Logger
}

// NewBatchGenerator wires the coordinator. retriever may be nil.
func NewBatchGenerator(
	completers repository.CompleterProvider,
	retriever repository.Retriever,
	prompts *prompt.Builder,
	cfg BatchConfig,
	logger *zap.Logger,
) *BatchGenerator {
	def := DefaultBatchConfig()
	if cfg.Workers <= 0 {
		cfg.Workers = def.Workers
	}
	if !cfg.Strategy.Valid() {
		cfg.Strategy = def.Strategy
	}
	return &BatchGenerator{
		completers: completers,
		retriever:  retriever,
		prompts:    prompts,
		cfg:        cfg,
		logger:     logger,
	}
}

// unit is one concurrent piece of work. target is a private snapshot.
type unit struct {
	key    string
	index  int
	count  int
	target entity.APIDefinition
}

type unitResult struct {
	key     string
	records []entity.Record
}

// Generate fans work for the selected targets out to a bounded pool,
// gathers records in completion order and appends them to each target's
// case list once all work is done. Failures inside a unit only cost that
// unit's records. Targets are mutated only after the barrier, on the
// calling goroutine.
func (g *BatchGenerator) Generate(ctx context.Context, req BatchRequest) (res entity.BatchResult) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			g.logger.Error("batch generation panicked", zap.Any("panic", r), zap.Stack("stack"))
			metrics.IncError("batch", "panic")
			res = entity.BatchResult{Success: false, Error: fmt.Sprintf("batch generation failed: %v", r)}
		}
	}()

	if req.CountPerTarget < 1 {
		return entity.BatchResult{Success: false, Error: "count per target must be at least 1"}
	}

	index := make(map[string]entity.APIDefinition, len(req.Targets))
	for _, t := range req.Targets {
		if t == nil || t.Path() == "" {
			continue
		}
		if _, dup := index[t.Path()]; !dup {
			index[t.Path()] = t
		}
	}

	selected := make([]string, 0, len(req.Keys))
	seen := make(map[string]bool, len(req.Keys))
	for _, k := range req.Keys {
		if _, ok := index[k]; ok && !seen[k] {
			seen[k] = true
			selected = append(selected, k)
		} else if !ok {
			g.logger.Warn("skip unknown target", zap.String("path", k))
		}
	}
	if len(selected) == 0 {
		return entity.BatchResult{Success: false, Message: msgNoValidTargets}
	}

	completer, provider := g.completers.Completer(req.Provider)
	if completer == nil {
		return entity.BatchResult{Success: false, Error: fmt.Sprintf("llm provider %q is not available", provider)}
	}

	units := g.plan(selected, index, req.CountPerTarget)
	logger := g.logger.With(
		zap.String("provider", provider),
		zap.String("strategy", string(g.cfg.Strategy)),
		zap.Int("targets", len(selected)),
		zap.Int("units", len(units)),
	)
	logger.Info("batch generation started")

	runCtx := ctx
	cancel := context.CancelFunc(func() {})
	if g.cfg.Deadline > 0 {
		runCtx, cancel = context.WithTimeout(ctx, g.cfg.Deadline)
	}
	defer cancel()

	// Buffered so abandoned units never block on send.
	results := make(chan unitResult, len(units))
	go func() {
		var eg errgroup.Group
		eg.SetLimit(g.cfg.Workers)
		for _, u := range units {
			eg.Go(func() error {
				results <- g.safeRun(runCtx, completer, u, req, logger)
				return nil
			})
		}
		_ = eg.Wait()
		close(results)
	}()

	buckets := make(map[string][]entity.Record, len(selected))
	pending := len(units)
	for pending > 0 {
		select {
		case r, ok := <-results:
			if !ok {
				pending = 0
				continue
			}
			pending--
			buckets[r.key] = append(buckets[r.key], r.records...)
		case <-runCtx.Done():
			pending = g.drainReady(results, buckets, pending)
			if pending > 0 {
				logger.Warn("batch deadline reached, abandoning pending units",
					zap.Int("pending", pending), zap.Error(runCtx.Err()))
				metrics.IncError("batch", "deadline")
			}
			pending = 0
		}
	}

	generated := 0
	for _, key := range selected {
		records := buckets[key]
		if len(records) == 0 {
			continue
		}
		index[key].AppendTestCases(records)
		generated += len(records)
	}

	metrics.AddGeneratedRecords(generated)
	metrics.ObserveBatchDuration(time.Since(start))
	logger.Info("batch generation finished",
		zap.Int("generated", generated),
		zap.Duration("duration", time.Since(start)),
	)

	return entity.BatchResult{
		Success:        true,
		Message:        fmt.Sprintf("generated %d test cases for %d targets", generated, len(selected)),
		GeneratedCount: generated,
		TargetCount:    len(selected),
	}
}

// drainReady collects results that completed before the deadline without blocking.
func (g *BatchGenerator) drainReady(results <-chan unitResult, buckets map[string][]entity.Record, pending int) int {
	for pending > 0 {
		select {
		case r, ok := <-results:
			if !ok {
				return 0
			}
			pending--
			buckets[r.key] = append(buckets[r.key], r.records...)
		default:
			return pending
		}
	}
	return pending
}

func (g *BatchGenerator) plan(selected []string, index map[string]entity.APIDefinition, count int) []unit {
	var units []unit
	for _, key := range selected {
		snapshot := casegen.Clone(index[key]).(entity.APIDefinition)
		if g.cfg.Strategy == StrategyPerCase {
			for i := 0; i < count; i++ {
				units = append(units, unit{key: key, index: i, count: 1, target: snapshot})
			}
			continue
		}
		units = append(units, unit{key: key, count: count, target: snapshot})
	}
	return units
}

func (g *BatchGenerator) safeRun(ctx context.Context, completer repository.Completer, u unit, req BatchRequest, logger *zap.Logger) (res unitResult) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("unit panicked", zap.String("path", u.key), zap.Any("panic", r))
			metrics.IncBatchUnit("panic")
			res = unitResult{key: u.key}
		}
	}()
	return g.run(ctx, completer, u, req, logger)
}

// run executes one unit. It never fails: any error yields zero records.
func (g *BatchGenerator) run(ctx context.Context, completer repository.Completer, u unit, req BatchRequest, logger *zap.Logger) unitResult {
	out := unitResult{key: u.key}
	logger = logger.With(zap.String("path", u.key), zap.Int("case_index", u.index))

	if err := ctx.Err(); err != nil {
		metrics.IncBatchUnit("cancelled")
		return out
	}

	messages, err := g.prompts.BuildAPICaseMessages(prompt.APICaseInput{
		Target:     u.target,
		Priority:   req.Priority,
		Count:      u.count,
		Template:   req.Template,
		References: g.references(ctx, u.target, logger),
	})
	if err != nil {
		logger.Error("build prompt", zap.Error(err))
		metrics.IncBatchUnit("prompt_error")
		return out
	}

	callCtx := ctx
	if g.cfg.CallTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, g.cfg.CallTimeout)
		defer cancel()
	}

	raw, err := completer.Complete(callCtx, messages)
	if err != nil {
		switch {
		case errors.Is(err, context.DeadlineExceeded):
			metrics.IncBatchUnit("timeout")
		case errors.Is(err, context.Canceled):
			metrics.IncBatchUnit("cancelled")
		default:
			metrics.IncBatchUnit("llm_error")
		}
		logger.Warn("completion failed", zap.Error(err))
		return out
	}

	records, err := casegen.Parse(raw)
	if err != nil {
		metrics.IncBatchUnit("parse_error")
		logger.Warn("unparsable completion", zap.Error(err), zap.Int("response_len", len(raw)))
		return out
	}

	for _, rec := range records {
		out.records = append(out.records, casegen.PostProcess(rec, u.target, req.Priority))
	}
	metrics.IncBatchUnit("ok")
	logger.Debug("unit done", zap.Int("records", len(out.records)))
	return out
}

// references looks up similar historical cases. Lookup failures are logged
// and the unit proceeds without them.
func (g *BatchGenerator) references(ctx context.Context, target entity.APIDefinition, logger *zap.Logger) []entity.SearchHit {
	if g.retriever == nil {
		return nil
	}
	query := strings.TrimSpace(strings.Join([]string{target.Name(), target.Method(), target.Path()}, " "))
	hits, err := g.retriever.Search(ctx, query)
	if err != nil {
		logger.Warn("knowledge lookup failed", zap.Error(err))
		return nil
	}
	return hits
}
