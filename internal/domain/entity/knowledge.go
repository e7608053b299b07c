package entity

import (
	"time"

	"github.com/google/uuid"
)

// KnowledgeEntry is a knowledge base item. VectorID links it to its embedding.
type KnowledgeEntry struct {
	ID        string    `json:"id" bson:"id"`
	Title     string    `json:"title" bson:"title"`
	Content   string    `json:"content" bson:"content"`
	VectorID  string    `json:"vector_id,omitempty" bson:"vector_id,omitempty"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

func NewKnowledgeEntry(title, content string) *KnowledgeEntry {
	now := time.Now()
	return &KnowledgeEntry{
		ID:        uuid.New().String(),
		Title:     title,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// SearchHit is one ranked vector search result. Higher score is closer.
type SearchHit struct {
	ID      string  `json:"id"`
	Score   float64 `json:"score"`
	Title   string  `json:"title"`
	Content string  `json:"content"`
}

// VectorDocument is what the vector store persists.
type VectorDocument struct {
	ID        string
	Title     string
	Content   string
	Embedding []float32
}
