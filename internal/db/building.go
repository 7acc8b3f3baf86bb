package db

import (
	"context"

	"github.com/fatgtr/vivid-building-management-systems-sub006/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoBuildingCollection implements BuildingCollection for MongoDB.
type MongoBuildingCollection struct {
	Collection *mongo.Collection
}

// FindBuildingByID finds a building by its ID.
func (c *MongoBuildingCollection) FindBuildingByID(ctx context.Context, id string) (*models.Building, error) {
	if c.Collection == nil {
		return nil, ErrNilCollection
	}
	objectID, err := objectIDFromHex(id)
	if err != nil {
		return nil, err
	}
	var building models.Building
	if err := c.Collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&building); err != nil {
		return nil, notFound(err)
	}
	return &building, nil
}
