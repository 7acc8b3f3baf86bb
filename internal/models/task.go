package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Task is a follow-up reminder assigned to a building manager.
type Task struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	BuildingID  string             `json:"building_id" bson:"building_id"`
	WorkOrderID string             `json:"work_order_id" bson:"work_order_id"`
	Title       string             `json:"title" bson:"title"`
	DueDate     string             `json:"due_date" bson:"due_date"`
	AssignedTo  string             `json:"assigned_to" bson:"assigned_to"`
	Status      string             `json:"status" bson:"status"` // "pending", "done"
	CreatedAt   time.Time          `json:"created_at" bson:"created_at"`
}
