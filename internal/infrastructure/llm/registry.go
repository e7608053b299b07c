package llm

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"testbrain/internal/domain/repository"
)

const (
	KindOpenAI = "openai"
	KindGemini = "gemini"
)

// ProviderSpec describes one configured completion provider.
type ProviderSpec struct {
	Name        string
	Kind        string
	Model       string
	BaseURL     string
	APIKey      string
	Temperature float64
	MaxTokens   int
}

// Registry maps provider names to completers and falls back to the
// default provider for unknown names.
type Registry struct {
	mu          sync.RWMutex
	defaultName string
	providers   map[string]repository.Completer
	logger      *zap.Logger
}

var _ repository.CompleterProvider = (*Registry)(nil)

func NewRegistry(defaultName string, logger *zap.Logger) *Registry {
	return &Registry{
		defaultName: defaultName,
		providers:   make(map[string]repository.Completer),
		logger:      logger,
	}
}

// Build creates a completer for every provider and checks the default exists.
func Build(ctx context.Context, specs []ProviderSpec, defaultName string, cfg ChatConfig, logger *zap.Logger) (*Registry, error) {
	r := NewRegistry(defaultName, logger)
	for _, s := range specs {
		c, err := newCompleter(ctx, s, cfg, logger)
		if err != nil {
			logger.Warn("skip llm provider", zap.String("provider", s.Name), zap.Error(err))
			continue
		}
		r.Register(s.Name, c)
	}
	if _, ok := r.providers[defaultName]; !ok {
		return nil, fmt.Errorf("default llm provider %q is not available", defaultName)
	}
	return r, nil
}

func newCompleter(ctx context.Context, s ProviderSpec, base ChatConfig, logger *zap.Logger) (repository.Completer, error) {
	cfg := base
	cfg.Provider = s.Name
	cfg.Model = s.Model
	cfg.BaseURL = s.BaseURL
	cfg.APIKey = s.APIKey
	cfg.Temperature = s.Temperature
	cfg.MaxTokens = s.MaxTokens

	switch s.Kind {
	case KindOpenAI, "":
		if cfg.BaseURL == "" {
			return nil, fmt.Errorf("base url is required")
		}
		return NewChatClient(cfg, logger), nil
	case KindGemini:
		return NewGeminiClient(ctx, cfg, logger)
	default:
		return nil, fmt.Errorf("unknown provider kind %q", s.Kind)
	}
}

func (r *Registry) Register(name string, c repository.Completer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[name] = c
}

// Completer returns the named provider and its resolved name.
func (r *Registry) Completer(name string) (repository.Completer, string) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if name != "" {
		if c, ok := r.providers[name]; ok {
			return c, name
		}
		r.logger.Warn("unknown llm provider, using default",
			zap.String("requested", name), zap.String("default", r.defaultName))
	}
	return r.providers[r.defaultName], r.defaultName
}

func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.providers))
	for n := range r.providers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) Default() string {
	return r.defaultName
}
