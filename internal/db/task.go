package db

import (
	"context"
	"time"

	"github.com/fatgtr/vivid-building-management-systems-sub006/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoTaskCollection implements TaskCollection for MongoDB.
type MongoTaskCollection struct {
	Collection *mongo.Collection
}

// InsertTask stores a follow-up task and returns its id.
func (c *MongoTaskCollection) InsertTask(ctx context.Context, task models.Task) (string, error) {
	if c.Collection == nil {
		return "", ErrNilCollection
	}
	if task.ID.IsZero() {
		task.ID = primitive.NewObjectID()
	}
	task.CreatedAt = time.Now().UTC()
	if _, err := c.Collection.InsertOne(ctx, task); err != nil {
		return "", err
	}
	return task.ID.Hex(), nil
}
