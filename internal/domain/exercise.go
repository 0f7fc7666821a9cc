package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ExerciseType distinguishes how performance is measured for an exercise.
type ExerciseType string

const (
	// ExerciseWeightBased exercises are tracked as reps at a weight.
	ExerciseWeightBased ExerciseType = "WEIGHT_BASED"
	// ExerciseTimeBased exercises are tracked as a duration in seconds.
	ExerciseTimeBased ExerciseType = "TIME_BASED"
)

// Valid reports whether t is one of the two supported measurement modes.
func (t ExerciseType) Valid() bool {
	return t == ExerciseWeightBased || t == ExerciseTimeBased
}

// Exercise is a catalog entry shared by all users. Only admins create or
// edit catalog entries; inactive entries stay referenced by old workouts
// but cannot be added to new ones.
type Exercise struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`
	Description  string             `bson:"description,omitempty" json:"description,omitempty"`
	ExerciseType ExerciseType       `bson:"exerciseType" json:"exerciseType"`
	MuscleGroup  string             `bson:"muscleGroup,omitempty" json:"muscleGroup,omitempty"`
	Equipment    string             `bson:"equipment,omitempty" json:"equipment,omitempty"`
	Instructions string             `bson:"instructions,omitempty" json:"instructions,omitempty"`
	IsActive     bool               `bson:"isActive" json:"isActive"`
	VideoKey     string             `bson:"videoKey,omitempty" json:"-"` // S3 object key of the demo video, internal use
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
}
