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

// MongoScheduleCollection implements ScheduleCollection for MongoDB.
type MongoScheduleCollection struct {
	Collection *mongo.Collection
}

// InsertSchedule validates and stores a new schedule, returning its id.
func (c *MongoScheduleCollection) InsertSchedule(ctx context.Context, schedule models.MaintenanceSchedule) (string, error) {
	if c.Collection == nil {
		return "", ErrNilCollection
	}
	if err := schedule.Validate(); err != nil {
		return "", err
	}
	// The scheduler's conditional update and the due date sort compare the stored string.
	if err := schedule.NormalizeDueDate(); err != nil {
		return "", err
	}
	if schedule.ID.IsZero() {
		schedule.ID = primitive.NewObjectID()
	}
	if schedule.WorkOrderIDs == nil {
		schedule.WorkOrderIDs = []string{}
	}
	if schedule.Status == models.ScheduleInactive {
		schedule.NextDueDate = nil
	}
	now := time.Now().UTC()
	schedule.CreatedAt = now
	schedule.UpdatedAt = now

	if _, err := c.Collection.InsertOne(ctx, schedule); err != nil {
		return "", err
	}
	return schedule.ID.Hex(), nil
}

// FindScheduleByID finds a schedule by its ID.
func (c *MongoScheduleCollection) FindScheduleByID(ctx context.Context, id string) (*models.MaintenanceSchedule, error) {
	if c.Collection == nil {
		return nil, ErrNilCollection
	}
	objectID, err := objectIDFromHex(id)
	if err != nil {
		return nil, err
	}
	var schedule models.MaintenanceSchedule
	if err := c.Collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&schedule); err != nil {
		return nil, notFound(err)
	}
	return &schedule, nil
}

// FindSchedules queries schedules matching filter, ordered by due date.
func (c *MongoScheduleCollection) FindSchedules(ctx context.Context, filter ScheduleFilter) ([]models.MaintenanceSchedule, error) {
	if c.Collection == nil {
		return nil, ErrNilCollection
	}
	query := bson.M{}
	if filter.BuildingID != "" {
		query["building_id"] = filter.BuildingID
	}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	opts := options.Find().SetSort(bson.D{{Key: "next_due_date", Value: 1}})
	cursor, err := c.Collection.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	schedules := []models.MaintenanceSchedule{}
	if err := cursor.All(ctx, &schedules); err != nil {
		return nil, fmt.Errorf("decode schedules: %w", err)
	}
	return schedules, nil
}

// ListActiveSchedules returns every schedule with status active.
func (c *MongoScheduleCollection) ListActiveSchedules(ctx context.Context) ([]models.MaintenanceSchedule, error) {
	return c.FindSchedules(ctx, ScheduleFilter{Status: models.ScheduleActive})
}

// AdvanceSchedule moves next_due_date from expectedDue to nextDue and records
// workOrderID, but only while the schedule is still active and still due on
// expectedDue. ErrConflict is returned when another writer got there first.
func (c *MongoScheduleCollection) AdvanceSchedule(ctx context.Context, id, expectedDue string, nextDue *string, workOrderID string) error {
	if c.Collection == nil {
		return ErrNilCollection
	}
	objectID, err := objectIDFromHex(id)
	if err != nil {
		return err
	}

	filter := bson.M{
		"_id":           objectID,
		"status":        models.ScheduleActive,
		"next_due_date": expectedDue,
	}
	var next interface{}
	if nextDue != nil {
		next = *nextDue
	}
	// Pipeline form so that a null work_order_ids from older records is treated as empty.
	update := mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "next_due_date", Value: next},
			{Key: "updated_at", Value: time.Now().UTC()},
			{Key: "work_order_ids", Value: bson.D{{Key: "$concatArrays", Value: bson.A{
				bson.D{{Key: "$ifNull", Value: bson.A{"$work_order_ids", bson.A{}}}},
				bson.A{workOrderID},
			}}}},
		}}},
	}

	result, err := c.Collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrConflict
	}
	return nil
}

// DeactivateSchedule marks a schedule inactive and clears its due date.
func (c *MongoScheduleCollection) DeactivateSchedule(ctx context.Context, id string) error {
	if c.Collection == nil {
		return ErrNilCollection
	}
	objectID, err := objectIDFromHex(id)
	if err != nil {
		return err
	}
	result, err := c.Collection.UpdateOne(ctx, bson.M{"_id": objectID}, bson.M{"$set": bson.M{
		"status":        models.ScheduleInactive,
		"next_due_date": nil,
		"updated_at":    time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
