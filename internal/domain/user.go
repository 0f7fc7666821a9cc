package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User represents an account in the system. Regular users log workouts;
// admins additionally manage the shared exercise catalog and templates.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email        string             `bson:"email" json:"email"`       // Should be unique
	Username     string             `bson:"username" json:"username"` // Should be unique
	PasswordHash string             `bson:"passwordHash" json:"-"`    // Never expose this via JSON
	FullName     string             `bson:"fullName,omitempty" json:"fullName,omitempty"`
	IsActive     bool               `bson:"isActive" json:"isActive"` // Soft-deactivation flag; accounts are never hard-deleted via profile APIs
	IsAdmin      bool               `bson:"isAdmin" json:"isAdmin"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
}
