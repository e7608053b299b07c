package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"testbrain/internal/domain/entity"
	"testbrain/internal/domain/repository"
	"testbrain/internal/infrastructure/metrics"
)

type MongoKnowledgeRepo struct {
	col    *mongo.Collection
	logger *zap.Logger
}

func NewMongoKnowledgeRepo(db *mongo.Database, logger *zap.Logger) repository.KnowledgeRepository {
	return &MongoKnowledgeRepo{col: db.Collection("knowledge"), logger: logger}
}

func (r *MongoKnowledgeRepo) Create(ctx context.Context, entry *entity.KnowledgeEntry) error {
	metrics.IncDBOp("mongo", "put")

	if _, err := r.col.InsertOne(ctx, entry); err != nil {
		metrics.IncError("mongo_knowledge_repo", "create_error")
		return fmt.Errorf("insert knowledge entry: %w", err)
	}
	return nil
}

func (r *MongoKnowledgeRepo) List(ctx context.Context) ([]*entity.KnowledgeEntry, error) {
	metrics.IncDBOp("mongo", "list")

	opts := options.Find().SetSort(bson.D{bson.E{Key: "created_at", Value: -1}})
	cur, err := r.col.Find(ctx, bson.D{}, opts)
	if err != nil {
		metrics.IncError("mongo_knowledge_repo", "list_error")
		return nil, err
	}
	defer closeCursor(ctx, cur, r.logger)

	out := []*entity.KnowledgeEntry{}
	if err := cur.All(ctx, &out); err != nil {
		metrics.IncError("mongo_knowledge_repo", "list_decode_error")
		return nil, err
	}
	return out, nil
}
