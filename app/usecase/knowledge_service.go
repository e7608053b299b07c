package usecase

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"testbrain/internal/domain/entity"
	"testbrain/internal/domain/repository"
)

const DefaultTopK = 5

// KnowledgeService keeps the knowledge base: entries in the repository,
// their embeddings in the vector store.
type KnowledgeService struct {
	repo     repository.KnowledgeRepository
	vectors  repository.VectorStore
	embedder repository.Embedder
	topK     int
	logger   *zap.Logger
}

var _ repository.Retriever = (*KnowledgeService)(nil)

func NewKnowledgeService(
	repo repository.KnowledgeRepository,
	vectors repository.VectorStore,
	embedder repository.Embedder,
	topK int,
	logger *zap.Logger,
) *KnowledgeService {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &KnowledgeService{repo: repo, vectors: vectors, embedder: embedder, topK: topK, logger: logger}
}

func (s *KnowledgeService) Add(ctx context.Context, title, content string) (*entity.KnowledgeEntry, error) {
	title, content = strings.TrimSpace(title), strings.TrimSpace(content)
	if title == "" || content == "" {
		return nil, fmt.Errorf("%w: title and content are required", entity.ErrInvalidInput)
	}

	vec, err := s.embedder.Embed(ctx, content)
	if err != nil {
		return nil, fmt.Errorf("embed content: %w", err)
	}

	entry := entity.NewKnowledgeEntry(title, content)
	entry.VectorID = entry.ID
	if err := s.vectors.Add(ctx, []entity.VectorDocument{{
		ID:        entry.VectorID,
		Title:     title,
		Content:   content,
		Embedding: vec,
	}}); err != nil {
		return nil, fmt.Errorf("store embedding: %w", err)
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		return nil, fmt.Errorf("save knowledge entry: %w", err)
	}

	s.logger.Info("knowledge added", zap.String("id", entry.ID), zap.String("embedder", s.embedder.Name()))
	return entry, nil
}

func (s *KnowledgeService) List(ctx context.Context) ([]*entity.KnowledgeEntry, error) {
	return s.repo.List(ctx)
}

// Search returns up to topK entries closest to query. No match is not an error.
func (s *KnowledgeService) Search(ctx context.Context, query string) ([]entity.SearchHit, error) {
	return s.SearchTop(ctx, query, s.topK)
}

func (s *KnowledgeService) SearchTop(ctx context.Context, query string, topK int) ([]entity.SearchHit, error) {
	if strings.TrimSpace(query) == "" {
		return []entity.SearchHit{}, nil
	}
	if topK <= 0 {
		topK = s.topK
	}

	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	hits, err := s.vectors.Search(ctx, vec, topK)
	if err != nil {
		return nil, fmt.Errorf("search vectors: %w", err)
	}
	return hits, nil
}
