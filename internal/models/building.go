package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Building is a managed property.
type Building struct {
	ID           primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name         string             `json:"name" bson:"name"`
	Address      string             `json:"address" bson:"address"`
	ManagerName  string             `json:"manager_name" bson:"manager_name"`
	ManagerEmail string             `json:"manager_email" bson:"manager_email"`
	CreatedAt    time.Time          `json:"created_at" bson:"created_at"`
}
