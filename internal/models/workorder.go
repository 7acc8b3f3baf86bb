package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SourceScheduledMaintenance marks work orders created by the maintenance scheduler.
const SourceScheduledMaintenance = "scheduled_maintenance"

// WorkOrder is a one-off maintenance job for a building.
type WorkOrder struct {
	ID            primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	BuildingID    string             `json:"building_id" bson:"building_id"`
	AssetID       string             `json:"asset_id,omitempty" bson:"asset_id,omitempty"`
	Title         string             `json:"title" bson:"title"`
	Description   string             `json:"description" bson:"description"`
	Category      string             `json:"category" bson:"category"`
	Priority      string             `json:"priority" bson:"priority"` // "low", "medium", "high", "urgent"
	Status        string             `json:"status" bson:"status"`     // "open", "in_progress", "completed", "cancelled"
	EstimatedCost float64            `json:"estimated_cost" bson:"estimated_cost"`
	DueDate       string             `json:"due_date,omitempty" bson:"due_date,omitempty"`
	Notes         string             `json:"notes" bson:"notes"`
	AutoGenerated bool               `json:"auto_generated" bson:"auto_generated"`
	SourceType    string             `json:"source_type,omitempty" bson:"source_type,omitempty"`
	SourceID      string             `json:"source_id,omitempty" bson:"source_id,omitempty"`
	CreatedAt     time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at" bson:"updated_at"`
}
