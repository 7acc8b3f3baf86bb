package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role represents user roles in the system
type Role string

const (
	RoleAdmin           Role = "admin"
	RoleBuildingManager Role = "building_manager"
	RoleCommittee       Role = "committee_member"
	RoleResident        Role = "resident"
)

// Permissions checked by the HTTP layer.
const (
	PermRunScheduler    = "run_scheduler"
	PermManageSchedules = "manage_schedules"
	PermViewSchedules   = "view_schedules"
	PermViewWorkOrders  = "view_work_orders"
	PermManageUsers     = "manage_users"
)

// User represents a user in the system
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email        string             `bson:"email" json:"email"`
	PasswordHash string             `bson:"password_hash" json:"-"`
	Role         Role               `bson:"role" json:"role"`
	FullName     string             `bson:"full_name" json:"full_name"`
	BuildingIDs  []string           `bson:"building_ids" json:"building_ids"`
	IsActive     bool               `bson:"is_active" json:"is_active"`
	LastLogin    *time.Time         `bson:"last_login,omitempty" json:"last_login,omitempty"`
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at" json:"updated_at"`
}

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse represents a successful login response
type LoginResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// Claims represents JWT claims
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   Role   `json:"role"`
	Exp    int64  `json:"exp"`
}

// IsValidRole checks if a role is valid
func IsValidRole(role Role) bool {
	switch role {
	case RoleAdmin, RoleBuildingManager, RoleCommittee, RoleResident:
		return true
	default:
		return false
	}
}

// HasPermission reports whether the role grants the action.
func (r Role) HasPermission(action string) bool {
	switch r {
	case RoleAdmin:
		return true
	case RoleBuildingManager:
		return action != PermManageUsers
	case RoleCommittee:
		return action == PermViewSchedules || action == PermViewWorkOrders
	case RoleResident:
		return action == PermViewWorkOrders
	default:
		return false
	}
}

// HasPermission checks if a user has permission for a specific action
func (u *User) HasPermission(action string) bool {
	return u.Role.HasPermission(action)
}
