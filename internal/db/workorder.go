package db

import (
	"context"
	"fmt"
	"time"

	"github.com/fatgtr/vivid-building-management-systems-sub006/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoWorkOrderCollection implements WorkOrderCollection for MongoDB.
type MongoWorkOrderCollection struct {
	Collection *mongo.Collection
}

// InsertWorkOrder stores a work order and returns the id assigned to it.
func (c *MongoWorkOrderCollection) InsertWorkOrder(ctx context.Context, workOrder models.WorkOrder) (string, error) {
	if c.Collection == nil {
		return "", ErrNilCollection
	}
	if workOrder.ID.IsZero() {
		workOrder.ID = primitive.NewObjectID()
	}
	now := time.Now().UTC()
	workOrder.CreatedAt = now
	workOrder.UpdatedAt = now
	if _, err := c.Collection.InsertOne(ctx, workOrder); err != nil {
		return "", err
	}
	return workOrder.ID.Hex(), nil
}

// FindWorkOrders returns work orders matching filter, newest first.
func (c *MongoWorkOrderCollection) FindWorkOrders(ctx context.Context, filter WorkOrderFilter) ([]models.WorkOrder, error) {
	if c.Collection == nil {
		return nil, ErrNilCollection
	}
	query := bson.M{}
	if filter.BuildingID != "" {
		query["building_id"] = filter.BuildingID
	}
	if filter.SourceID != "" {
		query["source_id"] = filter.SourceID
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if filter.Limit > 0 {
		opts.SetLimit(filter.Limit)
	}
	cursor, err := c.Collection.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	workOrders := []models.WorkOrder{}
	if err := cursor.All(ctx, &workOrders); err != nil {
		return nil, fmt.Errorf("decode work orders: %w", err)
	}
	return workOrders, nil
}

// DeleteWorkOrder deletes a work order by its ID.
func (c *MongoWorkOrderCollection) DeleteWorkOrder(ctx context.Context, id string) error {
	if c.Collection == nil {
		return ErrNilCollection
	}
	objectID, err := objectIDFromHex(id)
	if err != nil {
		return err
	}
	result, err := c.Collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
