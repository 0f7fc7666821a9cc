package service

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"udec/workout-tracker/internal/domain"
	"udec/workout-tracker/internal/repository"
)

// --- Error Definitions ---
var (
	// ErrActiveWorkoutExists is returned when a user starts a workout while
	// another one is still active.
	ErrActiveWorkoutExists = errors.New("an active workout already exists, complete or cancel it first")
	// ErrNoActiveWorkout signals the user has no session in progress. The
	// client treats this as an empty state, not a failure.
	ErrNoActiveWorkout = errors.New("no active workout")
	// ErrWorkoutCompleted is returned for any mutation attempted on a
	// workout that has already been completed.
	ErrWorkoutCompleted        = errors.New("workout is already completed")
	ErrWorkoutNotFound         = errors.New("workout not found")
	ErrWorkoutExerciseNotFound = errors.New("workout exercise not found")
	ErrSetNotFound             = errors.New("exercise set not found")
	ErrSessionValidation       = errors.New("workout validation failed")
)

// StartWorkoutInput carries the parameters of a new session.
type StartWorkoutInput struct {
	Name       string
	Notes      string
	TemplateID *primitive.ObjectID
}

// NewSetInput carries the fields of a freshly logged set. The engine does
// not cross-check measurement fields against the exercise type; the client
// is expected to send only type-appropriate fields.
type NewSetInput struct {
	SetNumber    int
	Reps         *int
	Weight       *float64
	Duration     *int
	RestDuration *int
	Completed    bool
	Notes        string
}

// SessionService is the session engine: the only component allowed to
// mutate workout state. It enforces the lifecycle (active → completed or
// deleted, both terminal) and the single-active-workout invariant, and it
// scopes every operation to the acting user passed in explicitly.
type SessionService interface {
	StartWorkout(ctx context.Context, userID primitive.ObjectID, input StartWorkoutInput) (*domain.Workout, error)
	GetActiveWorkout(ctx context.Context, userID primitive.ObjectID) (*domain.Workout, error)
	GetWorkout(ctx context.Context, userID, workoutID primitive.ObjectID) (*domain.Workout, error)
	History(ctx context.Context, userID primitive.ObjectID, skip, limit int) ([]domain.Workout, error)

	AddExercise(ctx context.Context, userID, workoutID, exerciseID primitive.ObjectID, orderIndex int, notes string) (*domain.WorkoutExercise, error)
	RemoveExercise(ctx context.Context, userID, workoutID, workoutExerciseID primitive.ObjectID) error
	AddSet(ctx context.Context, userID, workoutID, workoutExerciseID primitive.ObjectID, input NewSetInput) (*domain.ExerciseSet, error)
	UpdateSet(ctx context.Context, userID, workoutID, workoutExerciseID, setID primitive.ObjectID, update repository.SetUpdate) (*domain.ExerciseSet, error)
	// CompleteSet is a convenience alias for UpdateSet({completed: true}).
	CompleteSet(ctx context.Context, userID, workoutID, workoutExerciseID, setID primitive.ObjectID) (*domain.ExerciseSet, error)
	DeleteSet(ctx context.Context, userID, workoutID, workoutExerciseID, setID primitive.ObjectID) error

	CompleteWorkout(ctx context.Context, userID, workoutID primitive.ObjectID) (*domain.Workout, error)
	CancelWorkout(ctx context.Context, userID, workoutID primitive.ObjectID) error
	UpdateWorkoutNotes(ctx context.Context, userID, workoutID primitive.ObjectID, notes string) (*domain.Workout, error)
	UpdateExerciseNotes(ctx context.Context, userID, workoutID, workoutExerciseID primitive.ObjectID, notes string) (*domain.WorkoutExercise, error)
}

type sessionService struct {
	workoutRepo  repository.WorkoutRepository
	exerciseRepo repository.ExerciseRepository
	templateRepo repository.TemplateRepository
	now          func() time.Time
}

// NewSessionService creates a new session engine.
func NewSessionService(workoutRepo repository.WorkoutRepository, exerciseRepo repository.ExerciseRepository, templateRepo repository.TemplateRepository) SessionService {
	return &sessionService{
		workoutRepo:  workoutRepo,
		exerciseRepo: exerciseRepo,
		templateRepo: templateRepo,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// StartWorkout creates a new active session, blank or instantiated from a
// template. Template exercises are copied with their order index verbatim
// and zero sets; suggested targets stay on the template. The insert itself
// fails on the single-active unique index if another start won the race.
func (s *sessionService) StartWorkout(ctx context.Context, userID primitive.ObjectID, input StartWorkoutInput) (*domain.Workout, error) {
	if userID == primitive.NilObjectID {
		return nil, ErrSessionValidation
	}

	workout := &domain.Workout{
		UserID:    userID,
		Name:      input.Name,
		Notes:     input.Notes,
		StartedAt: s.now(),
		Exercises: []domain.WorkoutExercise{},
	}

	if input.TemplateID != nil {
		tpl, err := s.templateRepo.GetByID(ctx, *input.TemplateID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, ErrTemplateNotFound
			}
			return nil, err
		}
		if !tpl.IsPublic && tpl.CreatedBy != userID {
			return nil, ErrTemplateAccessDenied
		}

		if workout.Name == "" {
			workout.Name = tpl.Name
		}
		workout.TemplateID = &tpl.ID
		for _, te := range tpl.Exercises {
			workout.Exercises = append(workout.Exercises, domain.WorkoutExercise{
				ID:         primitive.NewObjectID(),
				ExerciseID: te.ExerciseID,
				OrderIndex: te.OrderIndex,
				Sets:       []domain.ExerciseSet{},
			})
		}
	}

	workoutID, err := s.workoutRepo.Create(ctx, workout)
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrActiveWorkoutExists
		}
		return nil, err
	}
	workout.ID = workoutID
	return workout, nil
}

func (s *sessionService) GetActiveWorkout(ctx context.Context, userID primitive.ObjectID) (*domain.Workout, error) {
	workout, err := s.workoutRepo.GetActiveByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNoActiveWorkout
		}
		return nil, err
	}
	return workout, nil
}

func (s *sessionService) GetWorkout(ctx context.Context, userID, workoutID primitive.ObjectID) (*domain.Workout, error) {
	workout, err := s.workoutRepo.GetByIDForUser(ctx, workoutID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrWorkoutNotFound
		}
		return nil, err
	}
	return workout, nil
}

func (s *sessionService) History(ctx context.Context, userID primitive.ObjectID, skip, limit int) ([]domain.Workout, error) {
	return s.workoutRepo.ListCompletedByUser(ctx, userID, normalizeSkip(skip), normalizeLimit(limit))
}

// AddExercise appends a catalog exercise to the active workout. The caller
// supplies the order index; duplicates are not re-sequenced.
func (s *sessionService) AddExercise(ctx context.Context, userID, workoutID, exerciseID primitive.ObjectID, orderIndex int, notes string) (*domain.WorkoutExercise, error) {
	exercise, err := s.exerciseRepo.GetByID(ctx, exerciseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrExerciseNotFound
		}
		return nil, err
	}
	if !exercise.IsActive {
		return nil, ErrExerciseNotFound
	}

	we := &domain.WorkoutExercise{
		ID:         primitive.NewObjectID(),
		ExerciseID: exerciseID,
		OrderIndex: orderIndex,
		Notes:      notes,
		Sets:       []domain.ExerciseSet{},
	}
	if err := s.workoutRepo.AddExercise(ctx, workoutID, userID, we); err != nil {
		return nil, s.mapMutationError(err, ErrWorkoutNotFound)
	}
	return we, nil
}

func (s *sessionService) RemoveExercise(ctx context.Context, userID, workoutID, workoutExerciseID primitive.ObjectID) error {
	if err := s.workoutRepo.RemoveExercise(ctx, workoutID, userID, workoutExerciseID); err != nil {
		return s.mapMutationError(err, ErrWorkoutExerciseNotFound)
	}
	return nil
}

func (s *sessionService) AddSet(ctx context.Context, userID, workoutID, workoutExerciseID primitive.ObjectID, input NewSetInput) (*domain.ExerciseSet, error) {
	set := &domain.ExerciseSet{
		ID:           primitive.NewObjectID(),
		SetNumber:    input.SetNumber,
		Reps:         input.Reps,
		Weight:       input.Weight,
		Duration:     input.Duration,
		RestDuration: input.RestDuration,
		Completed:    input.Completed,
		Notes:        input.Notes,
	}
	if err := s.workoutRepo.AddSet(ctx, workoutID, userID, workoutExerciseID, set); err != nil {
		return nil, s.mapMutationError(err, ErrWorkoutExerciseNotFound)
	}
	return set, nil
}

// UpdateSet applies a partial update: only supplied fields change.
func (s *sessionService) UpdateSet(ctx context.Context, userID, workoutID, workoutExerciseID, setID primitive.ObjectID, update repository.SetUpdate) (*domain.ExerciseSet, error) {
	if err := s.workoutRepo.UpdateSet(ctx, workoutID, userID, workoutExerciseID, setID, update); err != nil {
		return nil, s.mapMutationError(err, ErrSetNotFound)
	}

	workout, err := s.workoutRepo.GetByIDForUser(ctx, workoutID, userID)
	if err != nil {
		return nil, err
	}
	set := workout.FindSet(workoutExerciseID, setID)
	if set == nil {
		return nil, ErrSetNotFound
	}
	return set, nil
}

func (s *sessionService) CompleteSet(ctx context.Context, userID, workoutID, workoutExerciseID, setID primitive.ObjectID) (*domain.ExerciseSet, error) {
	completed := true
	return s.UpdateSet(ctx, userID, workoutID, workoutExerciseID, setID, repository.SetUpdate{Completed: &completed})
}

func (s *sessionService) DeleteSet(ctx context.Context, userID, workoutID, workoutExerciseID, setID primitive.ObjectID) error {
	if err := s.workoutRepo.DeleteSet(ctx, workoutID, userID, workoutExerciseID, setID); err != nil {
		return s.mapMutationError(err, ErrSetNotFound)
	}
	return nil
}

// CompleteWorkout terminates the session. The flip from active to
// completed happens as one compare-and-set in the repository, so a repeat
// call reports a conflict without touching the completion timestamp.
func (s *sessionService) CompleteWorkout(ctx context.Context, userID, workoutID primitive.ObjectID) (*domain.Workout, error) {
	if err := s.workoutRepo.Complete(ctx, workoutID, userID, s.now()); err != nil {
		return nil, s.mapMutationError(err, ErrWorkoutNotFound)
	}
	return s.GetWorkout(ctx, userID, workoutID)
}

// CancelWorkout hard-deletes the active workout and everything in it.
// Irrecoverable; the HTTP layer requires an explicit user confirmation.
func (s *sessionService) CancelWorkout(ctx context.Context, userID, workoutID primitive.ObjectID) error {
	if err := s.workoutRepo.Delete(ctx, workoutID, userID); err != nil {
		return s.mapMutationError(err, ErrWorkoutNotFound)
	}
	return nil
}

func (s *sessionService) UpdateWorkoutNotes(ctx context.Context, userID, workoutID primitive.ObjectID, notes string) (*domain.Workout, error) {
	if err := s.workoutRepo.SetWorkoutNotes(ctx, workoutID, userID, notes); err != nil {
		return nil, s.mapMutationError(err, ErrWorkoutNotFound)
	}
	return s.GetWorkout(ctx, userID, workoutID)
}

func (s *sessionService) UpdateExerciseNotes(ctx context.Context, userID, workoutID, workoutExerciseID primitive.ObjectID, notes string) (*domain.WorkoutExercise, error) {
	if err := s.workoutRepo.SetExerciseNotes(ctx, workoutID, userID, workoutExerciseID, notes); err != nil {
		return nil, s.mapMutationError(err, ErrWorkoutExerciseNotFound)
	}

	workout, err := s.workoutRepo.GetByIDForUser(ctx, workoutID, userID)
	if err != nil {
		return nil, err
	}
	we := workout.FindExercise(workoutExerciseID)
	if we == nil {
		return nil, ErrWorkoutExerciseNotFound
	}
	return we, nil
}

// mapMutationError translates repository failures into engine errors.
// notFound names the most specific entity the operation targets.
func (s *sessionService) mapMutationError(err error, notFound error) error {
	switch {
	case errors.Is(err, repository.ErrConflict):
		return ErrWorkoutCompleted
	case errors.Is(err, repository.ErrNotFound):
		return notFound
	default:
		return err
	}
}
