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

type MongoJobRepo struct {
	jobsCol *mongo.Collection
	logger  *zap.Logger
}

func NewMongoJobRepo(db *mongo.Database, logger *zap.Logger) repository.JobRepository {
	col := db.Collection("jobs")

	_, _ = col.Indexes().CreateMany(context.Background(), []mongo.IndexModel{
		{Keys: bson.D{bson.E{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{bson.E{Key: "status", Value: 1}}},
	})

	return &MongoJobRepo{
		jobsCol: col,
		logger:  logger,
	}
}

func (r *MongoJobRepo) Create(ctx context.Context, job *entity.Job) error {
	metrics.IncDBOp("mongo", "put")

	job.CreatedAt = time.Now()
	job.UpdatedAt = job.CreatedAt
	if _, err := r.jobsCol.InsertOne(ctx, job); err != nil {
		metrics.IncError("mongo_job_repo", "create_error")
		return fmt.Errorf("insert job: %w", err)
	}
	metrics.IncJobsCreated()
	return nil
}

func (r *MongoJobRepo) GetByID(ctx context.Context, id string) (*entity.Job, error) {
	metrics.IncDBOp("mongo", "get")

	var job entity.Job
	err := r.jobsCol.FindOne(ctx, bson.M{"id": id}).Decode(&job)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("job %s: %w", id, entity.ErrNotFound)
		}
		metrics.IncError("mongo_job_repo", "get_error")
		return nil, err
	}
	return &job, nil
}

func (r *MongoJobRepo) List(ctx context.Context) ([]*entity.Job, error) {
	return r.find(ctx, bson.D{}, "list")
}

func (r *MongoJobRepo) ListByStatus(ctx context.Context, status entity.JobStatus) ([]*entity.Job, error) {
	return r.find(ctx, bson.M{"status": status}, "list_by_status")
}

// find returns matching jobs, oldest first so workers pick them up in order.
func (r *MongoJobRepo) find(ctx context.Context, filter any, op string) ([]*entity.Job, error) {
	metrics.IncDBOp("mongo", "list")

	opts := options.Find().SetSort(bson.D{bson.E{Key: "created_at", Value: 1}})
	cur, err := r.jobsCol.Find(ctx, filter, opts)
	if err != nil {
		metrics.IncError("mongo_job_repo", op+"_error")
		return nil, err
	}
	defer closeCursor(ctx, cur, r.logger)

	jobs := []*entity.Job{}
	for cur.Next(ctx) {
		var j entity.Job
		if err := cur.Decode(&j); err != nil {
			metrics.IncError("mongo_job_repo", op+"_decode_error")
			return nil, err
		}
		jobs = append(jobs, &j)
	}
	if err := cur.Err(); err != nil {
		metrics.IncError("mongo_job_repo", op+"_cursor_error")
		return nil, err
	}
	return jobs, nil
}

func (r *MongoJobRepo) Update(ctx context.Context, job *entity.Job) error {
	metrics.IncDBOp("mongo", "put")

	job.UpdatedAt = time.Now()
	res, err := r.jobsCol.ReplaceOne(ctx, bson.M{"id": job.ID}, job)
	if err != nil {
		metrics.IncError("mongo_job_repo", "update_error")
		return err
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("job %s: %w", job.ID, entity.ErrNotFound)
	}
	return nil
}

func (r *MongoJobRepo) UpdateStatus(ctx context.Context, id string, status entity.JobStatus) error {
	metrics.IncDBOp("mongo", "put")

	update := bson.M{
		"$set": bson.M{
			"status":     status,
			"updated_at": time.Now(),
		},
	}
	res, err := r.jobsCol.UpdateOne(ctx, bson.M{"id": id}, update)
	if err != nil {
		metrics.IncError("mongo_job_repo", "update_status_error")
		return err
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("job %s: %w", id, entity.ErrNotFound)
	}
	return nil
}

func (r *MongoJobRepo) Delete(ctx context.Context, id string) error {
	metrics.IncDBOp("mongo", "delete")

	res, err := r.jobsCol.DeleteOne(ctx, bson.M{"id": id})
	if err != nil {
		metrics.IncError("mongo_job_repo", "delete_error")
		return err
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("job %s: %w", id, entity.ErrNotFound)
	}
	return nil
}

func (r *MongoJobRepo) CountByStatus(ctx context.Context, status entity.JobStatus) (int, error) {
	metrics.IncDBOp("mongo", "count")

	count, err := r.jobsCol.CountDocuments(ctx, bson.M{"status": status})
	if err != nil {
		metrics.IncError("mongo_job_repo", "count_by_status_error")
		return 0, err
	}
	return int(count), nil
}

func closeCursor(ctx context.Context, cur *mongo.Cursor, logger *zap.Logger) {
	if err := cur.Close(ctx); err != nil {
		logger.Warn("close cursor", zap.Error(err))
	}
}
