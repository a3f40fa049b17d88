package repository

import (
	"context"
	"fmt"
	"time"

	"main/model"
	"main/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// AuditRepo appends audit records to MongoDB. The collection is
// write-only from the application's point of view; compliance tooling
// reads it out of band.
type AuditRepo struct {
	Collection *mongo.Collection
}

func NewAuditRepo(client *mongo.Client, dbName, collectionName string) *AuditRepo {
	return &AuditRepo{
		Collection: client.Database(dbName).Collection(collectionName),
	}
}

func (r *AuditRepo) Insert(ctx context.Context, rec *model.AuditLogRecord) error {
	timer := utils.TrackDBOperation("insert", "audit_logs")
	defer timer.ObserveDuration()

	if rec == nil {
		return fmt.Errorf("audit record cannot be nil")
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now()
	}

	if _, err := r.Collection.InsertOne(ctx, rec); err != nil {
		utils.TrackError("database", "audit_insert_failed")
		return fmt.Errorf("failed to insert audit record: %w", err)
	}
	return nil
}

// SetupIndexes creates the actor/time index compliance queries lean on.
func (r *AuditRepo) SetupIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := r.Collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "user_id", Value: 1},
				{Key: "timestamp", Value: -1},
			},
			Options: options.Index().SetName("actor_time"),
		},
		{
			Keys: bson.D{
				{Key: "resource", Value: 1},
				{Key: "timestamp", Value: -1},
			},
			Options: options.Index().SetName("resource_time"),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create audit indexes: %w", err)
	}
	return nil
}
