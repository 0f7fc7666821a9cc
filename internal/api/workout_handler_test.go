package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"udec/workout-tracker/internal/domain"
	"udec/workout-tracker/internal/repository"
	"udec/workout-tracker/internal/service"
)

// stubSessionService implements service.SessionService with overridable
// function fields. Methods without an override report an unexpected call.
type stubSessionService struct {
	startFn         func(ctx context.Context, userID primitive.ObjectID, input service.StartWorkoutInput) (*domain.Workout, error)
	getActiveFn     func(ctx context.Context, userID primitive.ObjectID) (*domain.Workout, error)
	getFn           func(ctx context.Context, userID, workoutID primitive.ObjectID) (*domain.Workout, error)
	historyFn       func(ctx context.Context, userID primitive.ObjectID, skip, limit int) ([]domain.Workout, error)
	addExerciseFn   func(ctx context.Context, userID, workoutID, exerciseID primitive.ObjectID, orderIndex int, notes string) (*domain.WorkoutExercise, error)
	addSetFn        func(ctx context.Context, userID, workoutID, workoutExerciseID primitive.ObjectID, input service.NewSetInput) (*domain.ExerciseSet, error)
	updateSetFn     func(ctx context.Context, userID, workoutID, workoutExerciseID, setID primitive.ObjectID, update repository.SetUpdate) (*domain.ExerciseSet, error)
	deleteSetFn     func(ctx context.Context, userID, workoutID, workoutExerciseID, setID primitive.ObjectID) error
	completeFn      func(ctx context.Context, userID, workoutID primitive.ObjectID) (*domain.Workout, error)
	cancelFn        func(ctx context.Context, userID, workoutID primitive.ObjectID) error
	removeFn        func(ctx context.Context, userID, workoutID, workoutExerciseID primitive.ObjectID) error
	workoutNotesFn  func(ctx context.Context, userID, workoutID primitive.ObjectID, notes string) (*domain.Workout, error)
	exerciseNotesFn func(ctx context.Context, userID, workoutID, workoutExerciseID primitive.ObjectID, notes string) (*domain.WorkoutExercise, error)
}

var errUnexpectedCall = errors.New("unexpected service call")

func (s *stubSessionService) StartWorkout(ctx context.Context, userID primitive.ObjectID, input service.StartWorkoutInput) (*domain.Workout, error) {
	if s.startFn == nil {
		return nil, errUnexpectedCall
	}
	return s.startFn(ctx, userID, input)
}

func (s *stubSessionService) GetActiveWorkout(ctx context.Context, userID primitive.ObjectID) (*domain.Workout, error) {
	if s.getActiveFn == nil {
		return nil, errUnexpectedCall
	}
	return s.getActiveFn(ctx, userID)
}

func (s *stubSessionService) GetWorkout(ctx context.Context, userID, workoutID primitive.ObjectID) (*domain.Workout, error) {
	if s.getFn == nil {
		return nil, errUnexpectedCall
	}
	return s.getFn(ctx, userID, workoutID)
}

func (s *stubSessionService) History(ctx context.Context, userID primitive.ObjectID, skip, limit int) ([]domain.Workout, error) {
	if s.historyFn == nil {
		return nil, errUnexpectedCall
	}
	return s.historyFn(ctx, userID, skip, limit)
}

func (s *stubSessionService) AddExercise(ctx context.Context, userID, workoutID, exerciseID primitive.ObjectID, orderIndex int, notes string) (*domain.WorkoutExercise, error) {
	if s.addExerciseFn == nil {
		return nil, errUnexpectedCall
	}
	return s.addExerciseFn(ctx, userID, workoutID, exerciseID, orderIndex, notes)
}

func (s *stubSessionService) RemoveExercise(ctx context.Context, userID, workoutID, workoutExerciseID primitive.ObjectID) error {
	if s.removeFn == nil {
		return errUnexpectedCall
	}
	return s.removeFn(ctx, userID, workoutID, workoutExerciseID)
}

func (s *stubSessionService) AddSet(ctx context.Context, userID, workoutID, workoutExerciseID primitive.ObjectID, input service.NewSetInput) (*domain.ExerciseSet, error) {
	if s.addSetFn == nil {
		return nil, errUnexpectedCall
	}
	return s.addSetFn(ctx, userID, workoutID, workoutExerciseID, input)
}

func (s *stubSessionService) UpdateSet(ctx context.Context, userID, workoutID, workoutExerciseID, setID primitive.ObjectID, update repository.SetUpdate) (*domain.ExerciseSet, error) {
	if s.updateSetFn == nil {
		return nil, errUnexpectedCall
	}
	return s.updateSetFn(ctx, userID, workoutID, workoutExerciseID, setID, update)
}

func (s *stubSessionService) CompleteSet(ctx context.Context, userID, workoutID, workoutExerciseID, setID primitive.ObjectID) (*domain.ExerciseSet, error) {
	completed := true
	return s.UpdateSet(ctx, userID, workoutID, workoutExerciseID, setID, repository.SetUpdate{Completed: &completed})
}

func (s *stubSessionService) DeleteSet(ctx context.Context, userID, workoutID, workoutExerciseID, setID primitive.ObjectID) error {
	if s.deleteSetFn == nil {
		return errUnexpectedCall
	}
	return s.deleteSetFn(ctx, userID, workoutID, workoutExerciseID, setID)
}

func (s *stubSessionService) CompleteWorkout(ctx context.Context, userID, workoutID primitive.ObjectID) (*domain.Workout, error) {
	if s.completeFn == nil {
		return nil, errUnexpectedCall
	}
	return s.completeFn(ctx, userID, workoutID)
}

func (s *stubSessionService) CancelWorkout(ctx context.Context, userID, workoutID primitive.ObjectID) error {
	if s.cancelFn == nil {
		return errUnexpectedCall
	}
	return s.cancelFn(ctx, userID, workoutID)
}

func (s *stubSessionService) UpdateWorkoutNotes(ctx context.Context, userID, workoutID primitive.ObjectID, notes string) (*domain.Workout, error) {
	if s.workoutNotesFn == nil {
		return nil, errUnexpectedCall
	}
	return s.workoutNotesFn(ctx, userID, workoutID, notes)
}

func (s *stubSessionService) UpdateExerciseNotes(ctx context.Context, userID, workoutID, workoutExerciseID primitive.ObjectID, notes string) (*domain.WorkoutExercise, error) {
	if s.exerciseNotesFn == nil {
		return nil, errUnexpectedCall
	}
	return s.exerciseNotesFn(ctx, userID, workoutID, workoutExerciseID, notes)
}

// workoutTestRouter wires the workout routes behind a middleware that
// injects a fixed authenticated user, mirroring routes.go paths.
func workoutTestRouter(svc service.SessionService, userID primitive.ObjectID) *gin.Engine {
	router := gin.New()
	handler := NewWorkoutHandler(svc)
	group := router.Group("/api/v1/workouts", func(c *gin.Context) {
		c.Set(ContextUserIDKey, userID)
		c.Next()
	})
	group.POST("", handler.StartWorkout)
	group.GET("/active", handler.GetActiveWorkout)
	group.GET("/history", handler.History)
	group.GET("/:id", handler.GetWorkout)
	group.PUT("/:id/complete", handler.CompleteWorkout)
	group.DELETE("/:id", handler.CancelWorkout)
	group.PUT("/:id/notes", handler.UpdateWorkoutNotes)
	group.POST("/:id/exercises", handler.AddExercise)
	group.DELETE("/:id/exercises/:weId", handler.RemoveExercise)
	group.POST("/:id/exercises/:weId/sets", handler.AddSet)
	group.PUT("/:id/exercises/:weId/sets/:setId", handler.UpdateSet)
	group.PUT("/:id/exercises/:weId/sets/:setId/complete", handler.CompleteSet)
	group.DELETE("/:id/exercises/:weId/sets/:setId", handler.DeleteSet)
	return router
}

func TestWorkoutHandler_StartWorkoutCreated(t *testing.T) {
	userID := primitive.NewObjectID()
	workoutID := primitive.NewObjectID()
	stub := &stubSessionService{
		startFn: func(_ context.Context, gotUser primitive.ObjectID, input service.StartWorkoutInput) (*domain.Workout, error) {
			if gotUser != userID {
				t.Fatalf("user id must come from the token, got %s", gotUser.Hex())
			}
			if input.Name != "Leg Day" {
				t.Fatalf("unexpected name %q", input.Name)
			}
			return &domain.Workout{ID: workoutID, UserID: gotUser, Name: input.Name, StartedAt: time.Now(), Active: true}, nil
		},
	}
	router := workoutTestRouter(stub, userID)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/workouts", strings.NewReader(`{"name":"Leg Day"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp WorkoutResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.ID != workoutID.Hex() || !resp.Active {
		t.Errorf("unexpected payload: %+v", resp)
	}
}

func TestWorkoutHandler_StartWorkoutConflict(t *testing.T) {
	stub := &stubSessionService{
		startFn: func(context.Context, primitive.ObjectID, service.StartWorkoutInput) (*domain.Workout, error) {
			return nil, service.ErrActiveWorkoutExists
		},
	}
	router := workoutTestRouter(stub, primitive.NewObjectID())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/workouts", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestWorkoutHandler_GetActiveNotFound(t *testing.T) {
	stub := &stubSessionService{
		getActiveFn: func(context.Context, primitive.ObjectID) (*domain.Workout, error) {
			return nil, service.ErrNoActiveWorkout
		},
	}
	router := workoutTestRouter(stub, primitive.NewObjectID())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/workouts/active", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestWorkoutHandler_AddSetOnCompletedWorkoutConflicts(t *testing.T) {
	stub := &stubSessionService{
		addSetFn: func(context.Context, primitive.ObjectID, primitive.ObjectID, primitive.ObjectID, service.NewSetInput) (*domain.ExerciseSet, error) {
			return nil, service.ErrWorkoutCompleted
		},
	}
	router := workoutTestRouter(stub, primitive.NewObjectID())

	path := "/api/v1/workouts/" + primitive.NewObjectID().Hex() + "/exercises/" + primitive.NewObjectID().Hex() + "/sets"
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(`{"setNumber":1,"reps":8}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestWorkoutHandler_AddExerciseUnknownCatalogEntryNotFound(t *testing.T) {
	stub := &stubSessionService{
		addExerciseFn: func(context.Context, primitive.ObjectID, primitive.ObjectID, primitive.ObjectID, int, string) (*domain.WorkoutExercise, error) {
			return nil, service.ErrExerciseNotFound
		},
	}
	router := workoutTestRouter(stub, primitive.NewObjectID())

	path := "/api/v1/workouts/" + primitive.NewObjectID().Hex() + "/exercises"
	body := `{"exerciseId":"` + primitive.NewObjectID().Hex() + `","orderIndex":1}`
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown or inactive catalog entry must read as 404, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestWorkoutHandler_UpdateSetPartialPayload(t *testing.T) {
	var captured repository.SetUpdate
	setID := primitive.NewObjectID()
	stub := &stubSessionService{
		updateSetFn: func(_ context.Context, _, _, _, gotSet primitive.ObjectID, update repository.SetUpdate) (*domain.ExerciseSet, error) {
			captured = update
			weight := 85.0
			reps := 8
			return &domain.ExerciseSet{ID: gotSet, SetNumber: 1, Reps: &reps, Weight: &weight}, nil
		},
	}
	router := workoutTestRouter(stub, primitive.NewObjectID())

	path := "/api/v1/workouts/" + primitive.NewObjectID().Hex() +
		"/exercises/" + primitive.NewObjectID().Hex() + "/sets/" + setID.Hex()
	req := httptest.NewRequest(http.MethodPut, path, strings.NewReader(`{"weight":85}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if captured.Weight == nil || *captured.Weight != 85 {
		t.Error("weight must be forwarded")
	}
	if captured.Reps != nil || captured.Completed != nil || captured.Notes != nil {
		t.Error("absent fields must stay nil in a partial update")
	}
}

func TestWorkoutHandler_CancelNoContent(t *testing.T) {
	stub := &stubSessionService{
		cancelFn: func(context.Context, primitive.ObjectID, primitive.ObjectID) error { return nil },
	}
	router := workoutTestRouter(stub, primitive.NewObjectID())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/v1/workouts/"+primitive.NewObjectID().Hex(), nil))

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
}

func TestWorkoutHandler_ForeignWorkoutReadsAsNotFound(t *testing.T) {
	stub := &stubSessionService{
		getFn: func(context.Context, primitive.ObjectID, primitive.ObjectID) (*domain.Workout, error) {
			return nil, service.ErrWorkoutNotFound
		},
	}
	router := workoutTestRouter(stub, primitive.NewObjectID())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/workouts/"+primitive.NewObjectID().Hex(), nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestWorkoutHandler_InvalidWorkoutID(t *testing.T) {
	router := workoutTestRouter(&stubSessionService{}, primitive.NewObjectID())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/workouts/not-a-hex-id", nil))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed id, got %d", rec.Code)
	}
}
