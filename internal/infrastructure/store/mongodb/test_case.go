package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"testbrain/internal/domain/entity"
	"testbrain/internal/domain/repository"
	"testbrain/internal/infrastructure/metrics"
)

type MongoTestCaseRepo struct {
	col    *mongo.Collection
	logger *zap.Logger
}

func NewMongoTestCaseRepo(db *mongo.Database, logger *zap.Logger) repository.TestCaseRepository {
	col := db.Collection("test_cases")

	_, _ = col.Indexes().CreateMany(context.Background(), []mongo.IndexModel{
		{Keys: bson.D{bson.E{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{bson.E{Key: "status", Value: 1}, bson.E{Key: "created_at", Value: -1}}},
	})

	return &MongoTestCaseRepo{col: col, logger: logger}
}

func statusFilter(status entity.TestCaseStatus) bson.M {
	if status == "" {
		return bson.M{}
	}
	return bson.M{"status": status}
}

func (r *MongoTestCaseRepo) SaveBatch(ctx context.Context, cases []*entity.TestCase) error {
	if len(cases) == 0 {
		return nil
	}
	metrics.IncDBOp("mongo", "put")

	docs := make([]interface{}, len(cases))
	for i, c := range cases {
		docs[i] = c
	}
	if _, err := r.col.InsertMany(ctx, docs); err != nil {
		metrics.IncError("mongo_test_case_repo", "save_error")
		return fmt.Errorf("insert test cases: %w", err)
	}
	return nil
}

func (r *MongoTestCaseRepo) GetByID(ctx context.Context, id string) (*entity.TestCase, error) {
	metrics.IncDBOp("mongo", "get")

	var tc entity.TestCase
	if err := r.col.FindOne(ctx, bson.M{"id": id}).Decode(&tc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("test case %s: %w", id, entity.ErrNotFound)
		}
		metrics.IncError("mongo_test_case_repo", "get_error")
		return nil, err
	}
	return &tc, nil
}

func (r *MongoTestCaseRepo) GetByIDs(ctx context.Context, ids []string) ([]*entity.TestCase, error) {
	opts := options.Find().SetSort(bson.D{bson.E{Key: "created_at", Value: 1}})
	return r.find(ctx, bson.M{"id": bson.M{"$in": ids}}, opts, "get_many")
}

func (r *MongoTestCaseRepo) ListByStatus(ctx context.Context, status entity.TestCaseStatus, offset, limit int) ([]*entity.TestCase, error) {
	opts := options.Find().
		SetSort(bson.D{bson.E{Key: "created_at", Value: -1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))
	return r.find(ctx, statusFilter(status), opts, "list")
}

func (r *MongoTestCaseRepo) CountByStatus(ctx context.Context, status entity.TestCaseStatus) (int, error) {
	metrics.IncDBOp("mongo", "count")

	n, err := r.col.CountDocuments(ctx, statusFilter(status))
	if err != nil {
		metrics.IncError("mongo_test_case_repo", "count_error")
		return 0, err
	}
	return int(n), nil
}

func (r *MongoTestCaseRepo) Recent(ctx context.Context, limit int) ([]*entity.TestCase, error) {
	opts := options.Find().SetSort(bson.D{bson.E{Key: "created_at", Value: -1}}).SetLimit(int64(limit))
	return r.find(ctx, bson.M{}, opts, "recent")
}

func (r *MongoTestCaseRepo) Update(ctx context.Context, id string, upd entity.TestCaseUpdate) error {
	metrics.IncDBOp("mongo", "put")

	set := bson.M{"updated_at": time.Now()}
	if upd.Status != "" {
		set["status"] = upd.Status
	}
	if upd.Description != "" {
		set["description"] = upd.Description
	}
	if upd.TestSteps != "" {
		set["test_steps"] = upd.TestSteps
	}
	if upd.ExpectedResults != "" {
		set["expected_results"] = upd.ExpectedResults
	}

	res, err := r.col.UpdateOne(ctx, bson.M{"id": id}, bson.M{"$set": set})
	if err != nil {
		metrics.IncError("mongo_test_case_repo", "update_error")
		return err
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("test case %s: %w", id, entity.ErrNotFound)
	}
	return nil
}

func (r *MongoTestCaseRepo) DeleteMany(ctx context.Context, ids []string) (int, error) {
	metrics.IncDBOp("mongo", "delete")

	res, err := r.col.DeleteMany(ctx, bson.M{"id": bson.M{"$in": ids}})
	if err != nil {
		metrics.IncError("mongo_test_case_repo", "delete_error")
		return 0, err
	}
	return int(res.DeletedCount), nil
}

func (r *MongoTestCaseRepo) find(ctx context.Context, filter any, opts *options.FindOptions, op string) ([]*entity.TestCase, error) {
	metrics.IncDBOp("mongo", "list")

	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		metrics.IncError("mongo_test_case_repo", op+"_error")
		return nil, err
	}
	defer closeCursor(ctx, cur, r.logger)

	out := []*entity.TestCase{}
	if err := cur.All(ctx, &out); err != nil {
		metrics.IncError("mongo_test_case_repo", op+"_decode_error")
		return nil, err
	}
	return out, nil
}
