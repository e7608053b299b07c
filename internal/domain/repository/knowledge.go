package repository

import (
	"context"

	"testbrain/internal/domain/entity"
)

//go:generate mockgen -source=knowledge.go -destination=../../mocks/mock_knowledge.go -package=mocks

type KnowledgeRepository interface {
	Create(ctx context.Context, entry *entity.KnowledgeEntry) error
	// List returns entries newest first.
	List(ctx context.Context) ([]*entity.KnowledgeEntry, error)
}

// Embedder maps text to a vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Name() string
}

// VectorStore is a nearest-neighbour index over embedded documents.
type VectorStore interface {
	Add(ctx context.Context, docs []entity.VectorDocument) error
	Search(ctx context.Context, query []float32, topK int) ([]entity.SearchHit, error)
}

// Retriever finds knowledge similar to a free-text query. An empty result is valid.
type Retriever interface {
	Search(ctx context.Context, query string) ([]entity.SearchHit, error)
}
