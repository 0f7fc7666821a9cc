package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TemplateExercise associates a catalog exercise with a template, together
// with suggested targets. Suggestions are advisory only: they are shown to
// the user when a workout is started from the template, never copied into
// sets and never referenced live afterward.
type TemplateExercise struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ExerciseID        primitive.ObjectID `bson:"exerciseId" json:"exerciseId"`
	OrderIndex        int                `bson:"orderIndex" json:"orderIndex"`
	SuggestedSets     *int               `bson:"suggestedSets,omitempty" json:"suggestedSets,omitempty"`
	SuggestedReps     *int               `bson:"suggestedReps,omitempty" json:"suggestedReps,omitempty"`
	SuggestedWeight   *float64           `bson:"suggestedWeight,omitempty" json:"suggestedWeight,omitempty"`
	SuggestedDuration *int               `bson:"suggestedDuration,omitempty" json:"suggestedDuration,omitempty"` // Seconds
}

// WorkoutTemplate is a reusable, named, ordered list of exercises owned by
// an admin. Public templates are visible to everyone; private ones only to
// their creator. Template exercises are embedded because they are always
// loaded and mutated together with the template.
type WorkoutTemplate struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	CreatedBy   primitive.ObjectID `bson:"createdBy" json:"createdBy"`
	IsPublic    bool               `bson:"isPublic" json:"isPublic"`
	Exercises   []TemplateExercise `bson:"exercises" json:"exercises"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}
