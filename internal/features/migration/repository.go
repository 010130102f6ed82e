package migration

import (
	"context"
	"errors"
	"time"

	"firelater-migrate/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrInvalidState signals a status transition the job's current state
// doesn't allow.
var ErrInvalidState = errors.New("job is not in a valid state for this operation")

type JobRepository interface {
	Create(ctx context.Context, job *MigrationJob) error
	Get(ctx context.Context, id string) (*MigrationJob, error)
	Update(ctx context.Context, id string, job *MigrationJob) error
	UpdateStatus(ctx context.Context, id string, status JobStatus) error
	ClaimForExecution(ctx context.Context, id string) error
	FindByTenant(ctx context.Context, tenantID string, limit int) ([]MigrationJob, error)
}

type JobRepositoryImpl struct {
	collection *mongo.Collection
}

func NewJobRepository(db *database.MongodbDB) JobRepository {
	return &JobRepositoryImpl{
		collection: db.DB.Collection("migration_jobs"),
	}
}

func (r *JobRepositoryImpl) Create(ctx context.Context, job *MigrationJob) error {
	if job.ID.IsZero() {
		job.ID = primitive.NewObjectID()
	}
	job.CreatedAt = time.Now()
	job.UpdatedAt = time.Now()
	if job.Status == "" {
		job.Status = StatusPending
	}

	_, err := r.collection.InsertOne(ctx, job)
	return err
}

func (r *JobRepositoryImpl) Get(ctx context.Context, id string) (*MigrationJob, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, err
	}

	var job MigrationJob
	err = r.collection.FindOne(ctx, bson.M{"_id": objID}).Decode(&job)
	if err != nil {
		return nil, err
	}

	return &job, nil
}

func (r *JobRepositoryImpl) Update(ctx context.Context, id string, job *MigrationJob) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return err
	}

	job.UpdatedAt = time.Now()
	_, err = r.collection.ReplaceOne(ctx, bson.M{"_id": objID}, job)
	return err
}

func (r *JobRepositoryImpl) UpdateStatus(ctx context.Context, id string, status JobStatus) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return err
	}

	set := bson.M{
		"status":     status,
		"updated_at": time.Now(),
	}
	if status == StatusCompleted || status == StatusFailed {
		now := time.Now()
		set["completed_at"] = &now
	}

	_, err = r.collection.UpdateOne(ctx, bson.M{"_id": objID}, bson.M{"$set": set})
	return err
}

// ClaimForExecution is the serialization point for concurrent execute
// calls: a compare-and-swap from pending/preview to processing. A second
// caller loses the swap and gets ErrInvalidState.
func (r *JobRepositoryImpl) ClaimForExecution(ctx context.Context, id string) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return err
	}

	filter := bson.M{
		"_id":    objID,
		"status": bson.M{"$in": bson.A{StatusPending, StatusPreview}},
	}
	update := bson.M{"$set": bson.M{
		"status":     StatusProcessing,
		"updated_at": time.Now(),
	}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.ModifiedCount == 0 {
		return ErrInvalidState
	}
	return nil
}

func (r *JobRepositoryImpl) FindByTenant(ctx context.Context, tenantID string, limit int) ([]MigrationJob, error) {
	filter := bson.M{"tenant_id": tenantID}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var jobs []MigrationJob
	if err = cursor.All(ctx, &jobs); err != nil {
		return nil, err
	}

	return jobs, nil
}
