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

type MongoReviewRepo struct {
	col    *mongo.Collection
	logger *zap.Logger
}

func NewMongoReviewRepo(db *mongo.Database, logger *zap.Logger) repository.ReviewRepository {
	col := db.Collection("reviews")

	_, _ = col.Indexes().CreateOne(context.Background(), mongo.IndexModel{
		Keys: bson.D{bson.E{Key: "test_case_id", Value: 1}},
	})

	return &MongoReviewRepo{col: col, logger: logger}
}

func (r *MongoReviewRepo) Create(ctx context.Context, review *entity.Review) error {
	metrics.IncDBOp("mongo", "put")

	if _, err := r.col.InsertOne(ctx, review); err != nil {
		metrics.IncError("mongo_review_repo", "create_error")
		return fmt.Errorf("insert review: %w", err)
	}
	return nil
}

func (r *MongoReviewRepo) ListByTestCase(ctx context.Context, testCaseID string) ([]*entity.Review, error) {
	metrics.IncDBOp("mongo", "list")

	opts := options.Find().SetSort(bson.D{bson.E{Key: "created_at", Value: -1}})
	cur, err := r.col.Find(ctx, bson.M{"test_case_id": testCaseID}, opts)
	if err != nil {
		metrics.IncError("mongo_review_repo", "list_error")
		return nil, err
	}
	defer closeCursor(ctx, cur, r.logger)

	out := []*entity.Review{}
	if err := cur.All(ctx, &out); err != nil {
		metrics.IncError("mongo_review_repo", "list_decode_error")
		return nil, err
	}
	return out, nil
}
