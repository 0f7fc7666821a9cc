package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"udec/workout-tracker/internal/domain"
)

// Error constants for the repository layer.
var (
	ErrNotFound  = RepositoryError("not found")
	ErrDuplicate = RepositoryError("duplicate key")
	// ErrConflict is returned when a write is rejected by a lifecycle guard:
	// inserting a second active workout for a user, or mutating a workout
	// that has already been completed.
	ErrConflict = RepositoryError("conflict")
	// ErrCacheMiss is returned by caches when no entry exists for a key.
	ErrCacheMiss = RepositoryError("cache miss")
)

// RepositoryError helps distinguish repository errors.
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// UserRepository defines the interface for interacting with user data.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	List(ctx context.Context, skip, limit int) ([]domain.User, error)
	Update(ctx context.Context, user *domain.User) error
	// Delete removes the user together with their workouts and templates.
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// ExerciseRepository defines the interface for the shared exercise catalog.
type ExerciseRepository interface {
	Create(ctx context.Context, exercise *domain.Exercise) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Exercise, error)
	// ListActive returns active catalog entries, optionally filtered by
	// muscle group, sorted by name.
	ListActive(ctx context.Context, muscleGroup string, skip, limit int) ([]domain.Exercise, error)
	Update(ctx context.Context, exercise *domain.Exercise) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// TemplateRepository defines the interface for workout templates.
type TemplateRepository interface {
	Create(ctx context.Context, tpl *domain.WorkoutTemplate) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.WorkoutTemplate, error)
	ListPublic(ctx context.Context, skip, limit int) ([]domain.WorkoutTemplate, error)
	List(ctx context.Context, skip, limit int) ([]domain.WorkoutTemplate, error)
	// UpdateMeta replaces name, description and visibility; embedded
	// exercises are managed through AddExercise/RemoveExercise.
	UpdateMeta(ctx context.Context, tpl *domain.WorkoutTemplate) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	AddExercise(ctx context.Context, templateID primitive.ObjectID, te *domain.TemplateExercise) error
	RemoveExercise(ctx context.Context, templateID, templateExerciseID primitive.ObjectID) error
}

// SetUpdate describes a partial update of an exercise set. Nil fields are
// left untouched; non-nil fields replace the stored value.
type SetUpdate struct {
	SetNumber    *int
	Reps         *int
	Weight       *float64
	Duration     *int
	RestDuration *int
	Completed    *bool
	Notes        *string
}

// Empty reports whether the update carries no fields at all.
func (u SetUpdate) Empty() bool {
	return u.SetNumber == nil && u.Reps == nil && u.Weight == nil &&
		u.Duration == nil && u.RestDuration == nil && u.Completed == nil && u.Notes == nil
}

// WorkoutRepository is the storage contract of the session engine. All
// mutation methods are scoped to the owning user and guarded on the workout
// still being active: attempting to mutate a completed workout returns
// ErrConflict, an unknown or foreign workout returns ErrNotFound.
type WorkoutRepository interface {
	// Create inserts a new active workout. If the user already has an
	// active workout the partial unique index rejects the insert and
	// ErrConflict is returned.
	Create(ctx context.Context, workout *domain.Workout) (primitive.ObjectID, error)
	GetActiveByUser(ctx context.Context, userID primitive.ObjectID) (*domain.Workout, error)
	GetByIDForUser(ctx context.Context, workoutID, userID primitive.ObjectID) (*domain.Workout, error)
	// ListCompletedByUser returns completed workouts, newest first by
	// started time.
	ListCompletedByUser(ctx context.Context, userID primitive.ObjectID, skip, limit int) ([]domain.Workout, error)

	AddExercise(ctx context.Context, workoutID, userID primitive.ObjectID, we *domain.WorkoutExercise) error
	RemoveExercise(ctx context.Context, workoutID, userID, workoutExerciseID primitive.ObjectID) error
	AddSet(ctx context.Context, workoutID, userID, workoutExerciseID primitive.ObjectID, set *domain.ExerciseSet) error
	UpdateSet(ctx context.Context, workoutID, userID, workoutExerciseID, setID primitive.ObjectID, update SetUpdate) error
	DeleteSet(ctx context.Context, workoutID, userID, workoutExerciseID, setID primitive.ObjectID) error
	SetWorkoutNotes(ctx context.Context, workoutID, userID primitive.ObjectID, notes string) error
	SetExerciseNotes(ctx context.Context, workoutID, userID, workoutExerciseID primitive.ObjectID, notes string) error

	// Complete atomically flips the workout from active to completed.
	// Completing an already-completed workout returns ErrConflict.
	Complete(ctx context.Context, workoutID, userID primitive.ObjectID, completedAt time.Time) error
	// Delete removes the workout and its embedded exercise/set graph.
	Delete(ctx context.Context, workoutID, userID primitive.ObjectID) error
}
