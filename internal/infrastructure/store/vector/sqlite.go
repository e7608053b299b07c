// Package vector is a local nearest-neighbour index over knowledge embeddings,
// persisted in SQLite and ranked by cosine similarity.
package vector

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"testbrain/internal/domain/entity"
	"testbrain/internal/domain/repository"
	"testbrain/internal/infrastructure/embedding"
	"testbrain/internal/infrastructure/metrics"
)

const schema = `
CREATE TABLE IF NOT EXISTS knowledge_vectors (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	content TEXT NOT NULL,
	embedding TEXT NOT NULL,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);`

type SQLiteStore struct {
	db     *sql.DB
	mu     sync.RWMutex
	logger *zap.Logger
}

var _ repository.VectorStore = (*SQLiteStore)(nil)

func NewSQLiteStore(path string, logger *zap.Logger) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteStore{db: db, logger: logger}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Add(ctx context.Context, docs []entity.VectorDocument) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, d := range docs {
		vec, err := json.Marshal(d.Embedding)
		if err != nil {
			return fmt.Errorf("encode embedding: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT OR REPLACE INTO knowledge_vectors (id, title, content, embedding) VALUES (?, ?, ?, ?)",
			d.ID, d.Title, d.Content, string(vec),
		); err != nil {
			metrics.IncError("vector", "insert")
			return fmt.Errorf("insert vector %s: %w", d.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	metrics.IncDBOp("sqlite", "put")
	return nil
}

// Search scans every stored vector and returns the topK closest to query.
func (s *SQLiteStore) Search(ctx context.Context, query []float32, topK int) ([]entity.SearchHit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	metrics.IncDBOp("sqlite", "search")

	if topK <= 0 {
		return []entity.SearchHit{}, nil
	}

	rows, err := s.db.QueryContext(ctx, "SELECT id, title, content, embedding FROM knowledge_vectors")
	if err != nil {
		metrics.IncError("vector", "query")
		return nil, fmt.Errorf("query vectors: %w", err)
	}
	defer rows.Close()

	hits := []entity.SearchHit{}
	for rows.Next() {
		var hit entity.SearchHit
		var raw string
		if err := rows.Scan(&hit.ID, &hit.Title, &hit.Content, &raw); err != nil {
			return nil, fmt.Errorf("scan vector: %w", err)
		}
		var vec []float32
		if err := json.Unmarshal([]byte(raw), &vec); err != nil {
			s.logger.Warn("skip corrupt embedding", zap.String("id", hit.ID), zap.Error(err))
			continue
		}
		score, err := embedding.CosineSimilarity(query, vec)
		if err != nil {
			s.logger.Warn("skip embedding", zap.String("id", hit.ID), zap.Error(err))
			continue
		}
		hit.Score = score
		hits = append(hits, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate vectors: %w", err)
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}
