package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ExerciseSet is one unit of performed work within a WorkoutExercise: a
// reps/weight pair for weight-based exercises or a duration for time-based
// ones. Measurement fields are pointers so that partial updates can tell
// "not supplied" apart from "set to zero". Sets are freely editable while
// the parent workout is active and frozen once it completes.
type ExerciseSet struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SetNumber    int                `bson:"setNumber" json:"setNumber"` // User-assigned position, used for sort order, not required to be contiguous
	Reps         *int               `bson:"reps,omitempty" json:"reps,omitempty"`
	Weight       *float64           `bson:"weight,omitempty" json:"weight,omitempty"`
	Duration     *int               `bson:"duration,omitempty" json:"duration,omitempty"`         // Seconds
	RestDuration *int               `bson:"restDuration,omitempty" json:"restDuration,omitempty"` // Seconds
	Completed    bool               `bson:"completed" json:"completed"`
	Notes        string             `bson:"notes,omitempty" json:"notes,omitempty"`
}

// WorkoutExercise is one exercise performed within a workout. OrderIndex
// defines display order within the workout; the engine does not re-sequence
// on removal, so gaps are allowed.
type WorkoutExercise struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ExerciseID primitive.ObjectID `bson:"exerciseId" json:"exerciseId"`
	OrderIndex int                `bson:"orderIndex" json:"orderIndex"`
	Notes      string             `bson:"notes,omitempty" json:"notes,omitempty"`
	Sets       []ExerciseSet      `bson:"sets" json:"sets"`
}

// Workout is the session aggregate: one training session owned by exactly
// one user. The whole exercise/set graph is embedded in a single document
// so that every mutation is one atomic update, with the lifecycle guard
// (active == true) enforced in the update filter itself.
//
// Invariant: at most one workout per user has Active == true at any time.
// The Active flag always mirrors CompletedAt == nil; it exists as a
// separate field so a partial unique index on (userId) where active == true
// can enforce the invariant at the database, closing the check-then-act
// race between two concurrent starts.
type Workout struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	UserID      primitive.ObjectID  `bson:"userId" json:"userId"`
	Name        string              `bson:"name,omitempty" json:"name,omitempty"`
	StartedAt   time.Time           `bson:"startedAt" json:"startedAt"`
	CompletedAt *time.Time          `bson:"completedAt,omitempty" json:"completedAt,omitempty"` // Nil while the session is active
	Active      bool                `bson:"active" json:"active"`
	Notes       string              `bson:"notes,omitempty" json:"notes,omitempty"`
	TemplateID  *primitive.ObjectID `bson:"templateId,omitempty" json:"templateId,omitempty"` // Informational only; the template is copied, not referenced
	Exercises   []WorkoutExercise   `bson:"exercises" json:"exercises"`
}

// FindExercise returns the embedded workout exercise with the given id,
// or nil if the workout does not contain it.
func (w *Workout) FindExercise(id primitive.ObjectID) *WorkoutExercise {
	for i := range w.Exercises {
		if w.Exercises[i].ID == id {
			return &w.Exercises[i]
		}
	}
	return nil
}

// FindSet returns the embedded set with the given id inside the given
// workout exercise, or nil if either is missing.
func (w *Workout) FindSet(exerciseID, setID primitive.ObjectID) *ExerciseSet {
	we := w.FindExercise(exerciseID)
	if we == nil {
		return nil
	}
	for i := range we.Sets {
		if we.Sets[i].ID == setID {
			return &we.Sets[i]
		}
	}
	return nil
}
