package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"udec/workout-tracker/internal/domain"
	"udec/workout-tracker/internal/repository"
	"udec/workout-tracker/internal/service"
)

// WorkoutHandler exposes the session engine over HTTP. Every route is
// authenticated; the acting user always comes from the token, never from
// the request body.
type WorkoutHandler struct {
	sessionService service.SessionService
}

// NewWorkoutHandler creates a new WorkoutHandler.
func NewWorkoutHandler(sessionService service.SessionService) *WorkoutHandler {
	return &WorkoutHandler{sessionService: sessionService}
}

// --- Request/Response Structs ---

type StartWorkoutRequest struct {
	Name       string  `json:"name"`
	Notes      string  `json:"notes"`
	TemplateID *string `json:"templateId"`
}

type AddWorkoutExerciseRequest struct {
	ExerciseID string `json:"exerciseId" binding:"required"`
	OrderIndex int    `json:"orderIndex"`
	Notes      string `json:"notes"`
}

type AddSetRequest struct {
	SetNumber    int      `json:"setNumber"`
	Reps         *int     `json:"reps"`
	Weight       *float64 `json:"weight"`
	Duration     *int     `json:"duration"`
	RestDuration *int     `json:"restDuration"`
	Completed    bool     `json:"completed"`
	Notes        string   `json:"notes"`
}

// UpdateSetRequest is a partial update: absent fields stay untouched.
type UpdateSetRequest struct {
	SetNumber    *int     `json:"setNumber"`
	Reps         *int     `json:"reps"`
	Weight       *float64 `json:"weight"`
	Duration     *int     `json:"duration"`
	RestDuration *int     `json:"restDuration"`
	Completed    *bool    `json:"completed"`
	Notes        *string  `json:"notes"`
}

type NotesRequest struct {
	Notes string `json:"notes"`
}

type ExerciseSetResponse struct {
	ID           string   `json:"id"`
	SetNumber    int      `json:"setNumber"`
	Reps         *int     `json:"reps,omitempty"`
	Weight       *float64 `json:"weight,omitempty"`
	Duration     *int     `json:"duration,omitempty"`
	RestDuration *int     `json:"restDuration,omitempty"`
	Completed    bool     `json:"completed"`
	Notes        string   `json:"notes,omitempty"`
}

type WorkoutExerciseResponse struct {
	ID         string                `json:"id"`
	ExerciseID string                `json:"exerciseId"`
	OrderIndex int                   `json:"orderIndex"`
	Notes      string                `json:"notes,omitempty"`
	Sets       []ExerciseSetResponse `json:"sets"`
}

type WorkoutResponse struct {
	ID          string                    `json:"id"`
	Name        string                    `json:"name,omitempty"`
	StartedAt   time.Time                 `json:"startedAt"`
	CompletedAt *time.Time                `json:"completedAt,omitempty"`
	Active      bool                      `json:"active"`
	Notes       string                    `json:"notes,omitempty"`
	TemplateID  *string                   `json:"templateId,omitempty"`
	Exercises   []WorkoutExerciseResponse `json:"exercises"`
}

// --- Handler Methods ---

// StartWorkout starts a new session, blank or from a template. A second
// active session is rejected with 409.
func (h *WorkoutHandler) StartWorkout(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token")
		return
	}

	var req StartWorkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	input := service.StartWorkoutInput{Name: req.Name, Notes: req.Notes}
	if req.TemplateID != nil {
		templateID, err := primitive.ObjectIDFromHex(*req.TemplateID)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "Invalid templateId format")
			return
		}
		input.TemplateID = &templateID
	}

	workout, err := h.sessionService.StartWorkout(c.Request.Context(), userID, input)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrActiveWorkoutExists):
			abortWithError(c, http.StatusConflict, err.Error())
		case errors.Is(err, service.ErrTemplateNotFound), errors.Is(err, service.ErrTemplateAccessDenied):
			abortWithError(c, http.StatusNotFound, service.ErrTemplateNotFound.Error())
		case errors.Is(err, service.ErrSessionValidation):
			abortWithError(c, http.StatusBadRequest, err.Error())
		default:
			abortWithError(c, http.StatusInternalServerError, "Failed to start workout")
		}
		return
	}
	c.JSON(http.StatusCreated, MapWorkoutToResponse(workout))
}

// GetActiveWorkout returns the user's session in progress, or 404.
func (h *WorkoutHandler) GetActiveWorkout(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token")
		return
	}

	workout, err := h.sessionService.GetActiveWorkout(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrNoActiveWorkout) {
			abortWithError(c, http.StatusNotFound, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to retrieve active workout")
		}
		return
	}
	c.JSON(http.StatusOK, MapWorkoutToResponse(workout))
}

// GetWorkout returns one of the user's workouts, active or completed.
func (h *WorkoutHandler) GetWorkout(c *gin.Context) {
	userID, workoutID, ok := h.scope(c)
	if !ok {
		return
	}

	workout, err := h.sessionService.GetWorkout(c.Request.Context(), userID, workoutID)
	if err != nil {
		h.mapSessionError(c, err, "Failed to retrieve workout")
		return
	}
	c.JSON(http.StatusOK, MapWorkoutToResponse(workout))
}

// History returns the user's completed workouts, newest first.
func (h *WorkoutHandler) History(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token")
		return
	}
	skip, _ := strconv.Atoi(c.DefaultQuery("skip", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	workouts, err := h.sessionService.History(c.Request.Context(), userID, skip, limit)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to retrieve workout history")
		return
	}
	c.JSON(http.StatusOK, MapWorkoutsToResponse(workouts))
}

// AddExercise appends a catalog exercise to the active workout.
func (h *WorkoutHandler) AddExercise(c *gin.Context) {
	userID, workoutID, ok := h.scope(c)
	if !ok {
		return
	}

	var req AddWorkoutExerciseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	exerciseID, err := primitive.ObjectIDFromHex(req.ExerciseID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid exerciseId format")
		return
	}

	we, err := h.sessionService.AddExercise(c.Request.Context(), userID, workoutID, exerciseID, req.OrderIndex, req.Notes)
	if err != nil {
		h.mapSessionError(c, err, "Failed to add exercise")
		return
	}
	c.JSON(http.StatusCreated, MapWorkoutExerciseToResponse(we))
}

// RemoveExercise removes an exercise and its sets from the active workout.
func (h *WorkoutHandler) RemoveExercise(c *gin.Context) {
	userID, workoutID, ok := h.scope(c)
	if !ok {
		return
	}
	workoutExerciseID, ok := parseIDParam(c, "weId")
	if !ok {
		return
	}

	if err := h.sessionService.RemoveExercise(c.Request.Context(), userID, workoutID, workoutExerciseID); err != nil {
		h.mapSessionError(c, err, "Failed to remove exercise")
		return
	}
	c.Status(http.StatusNoContent)
}

// AddSet logs a new set under a workout exercise.
func (h *WorkoutHandler) AddSet(c *gin.Context) {
	userID, workoutID, ok := h.scope(c)
	if !ok {
		return
	}
	workoutExerciseID, ok := parseIDParam(c, "weId")
	if !ok {
		return
	}

	var req AddSetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	set, err := h.sessionService.AddSet(c.Request.Context(), userID, workoutID, workoutExerciseID, service.NewSetInput{
		SetNumber:    req.SetNumber,
		Reps:         req.Reps,
		Weight:       req.Weight,
		Duration:     req.Duration,
		RestDuration: req.RestDuration,
		Completed:    req.Completed,
		Notes:        req.Notes,
	})
	if err != nil {
		h.mapSessionError(c, err, "Failed to add set")
		return
	}
	c.JSON(http.StatusCreated, MapSetToResponse(set))
}

// UpdateSet applies a partial update to a set.
func (h *WorkoutHandler) UpdateSet(c *gin.Context) {
	userID, workoutID, workoutExerciseID, setID, ok := h.setScope(c)
	if !ok {
		return
	}

	var req UpdateSetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	set, err := h.sessionService.UpdateSet(c.Request.Context(), userID, workoutID, workoutExerciseID, setID, repository.SetUpdate{
		SetNumber:    req.SetNumber,
		Reps:         req.Reps,
		Weight:       req.Weight,
		Duration:     req.Duration,
		RestDuration: req.RestDuration,
		Completed:    req.Completed,
		Notes:        req.Notes,
	})
	if err != nil {
		h.mapSessionError(c, err, "Failed to update set")
		return
	}
	c.JSON(http.StatusOK, MapSetToResponse(set))
}

// CompleteSet marks a set as done.
func (h *WorkoutHandler) CompleteSet(c *gin.Context) {
	userID, workoutID, workoutExerciseID, setID, ok := h.setScope(c)
	if !ok {
		return
	}

	set, err := h.sessionService.CompleteSet(c.Request.Context(), userID, workoutID, workoutExerciseID, setID)
	if err != nil {
		h.mapSessionError(c, err, "Failed to complete set")
		return
	}
	c.JSON(http.StatusOK, MapSetToResponse(set))
}

// DeleteSet removes a set from a workout exercise.
func (h *WorkoutHandler) DeleteSet(c *gin.Context) {
	userID, workoutID, workoutExerciseID, setID, ok := h.setScope(c)
	if !ok {
		return
	}

	if err := h.sessionService.DeleteSet(c.Request.Context(), userID, workoutID, workoutExerciseID, setID); err != nil {
		h.mapSessionError(c, err, "Failed to delete set")
		return
	}
	c.Status(http.StatusNoContent)
}

// CompleteWorkout ends the session. A second attempt returns 409.
func (h *WorkoutHandler) CompleteWorkout(c *gin.Context) {
	userID, workoutID, ok := h.scope(c)
	if !ok {
		return
	}

	workout, err := h.sessionService.CompleteWorkout(c.Request.Context(), userID, workoutID)
	if err != nil {
		h.mapSessionError(c, err, "Failed to complete workout")
		return
	}
	c.JSON(http.StatusOK, MapWorkoutToResponse(workout))
}

// CancelWorkout discards the active session and everything logged in it.
func (h *WorkoutHandler) CancelWorkout(c *gin.Context) {
	userID, workoutID, ok := h.scope(c)
	if !ok {
		return
	}

	if err := h.sessionService.CancelWorkout(c.Request.Context(), userID, workoutID); err != nil {
		h.mapSessionError(c, err, "Failed to cancel workout")
		return
	}
	c.Status(http.StatusNoContent)
}

// UpdateWorkoutNotes replaces the workout-level notes.
func (h *WorkoutHandler) UpdateWorkoutNotes(c *gin.Context) {
	userID, workoutID, ok := h.scope(c)
	if !ok {
		return
	}

	var req NotesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	workout, err := h.sessionService.UpdateWorkoutNotes(c.Request.Context(), userID, workoutID, req.Notes)
	if err != nil {
		h.mapSessionError(c, err, "Failed to update workout notes")
		return
	}
	c.JSON(http.StatusOK, MapWorkoutToResponse(workout))
}

// UpdateExerciseNotes replaces the notes on one workout exercise.
func (h *WorkoutHandler) UpdateExerciseNotes(c *gin.Context) {
	userID, workoutID, ok := h.scope(c)
	if !ok {
		return
	}
	workoutExerciseID, ok := parseIDParam(c, "weId")
	if !ok {
		return
	}

	var req NotesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	we, err := h.sessionService.UpdateExerciseNotes(c.Request.Context(), userID, workoutID, workoutExerciseID, req.Notes)
	if err != nil {
		h.mapSessionError(c, err, "Failed to update exercise notes")
		return
	}
	c.JSON(http.StatusOK, MapWorkoutExerciseToResponse(we))
}

// --- Helpers ---

func (h *WorkoutHandler) scope(c *gin.Context) (userID, workoutID primitive.ObjectID, ok bool) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token")
		return primitive.NilObjectID, primitive.NilObjectID, false
	}
	workoutID, ok = parseIDParam(c, "id")
	if !ok {
		return primitive.NilObjectID, primitive.NilObjectID, false
	}
	return userID, workoutID, true
}

func (h *WorkoutHandler) setScope(c *gin.Context) (userID, workoutID, workoutExerciseID, setID primitive.ObjectID, ok bool) {
	userID, workoutID, ok = h.scope(c)
	if !ok {
		return
	}
	workoutExerciseID, ok = parseIDParam(c, "weId")
	if !ok {
		return
	}
	setID, ok = parseIDParam(c, "setId")
	return
}

func (h *WorkoutHandler) mapSessionError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrWorkoutCompleted):
		abortWithError(c, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrWorkoutNotFound),
		errors.Is(err, service.ErrWorkoutExerciseNotFound),
		errors.Is(err, service.ErrSetNotFound),
		errors.Is(err, service.ErrExerciseNotFound):
		abortWithError(c, http.StatusNotFound, err.Error())
	default:
		abortWithError(c, http.StatusInternalServerError, fallback)
	}
}

// --- Mappers ---

// MapSetToResponse converts an embedded set to its DTO.
func MapSetToResponse(set *domain.ExerciseSet) ExerciseSetResponse {
	if set == nil {
		return ExerciseSetResponse{}
	}
	return ExerciseSetResponse{
		ID:           set.ID.Hex(),
		SetNumber:    set.SetNumber,
		Reps:         set.Reps,
		Weight:       set.Weight,
		Duration:     set.Duration,
		RestDuration: set.RestDuration,
		Completed:    set.Completed,
		Notes:        set.Notes,
	}
}

// MapWorkoutExerciseToResponse converts an embedded workout exercise to its DTO.
func MapWorkoutExerciseToResponse(we *domain.WorkoutExercise) WorkoutExerciseResponse {
	if we == nil {
		return WorkoutExerciseResponse{}
	}
	sets := make([]ExerciseSetResponse, len(we.Sets))
	for i := range we.Sets {
		sets[i] = MapSetToResponse(&we.Sets[i])
	}
	return WorkoutExerciseResponse{
		ID:         we.ID.Hex(),
		ExerciseID: we.ExerciseID.Hex(),
		OrderIndex: we.OrderIndex,
		Notes:      we.Notes,
		Sets:       sets,
	}
}

// MapWorkoutToResponse converts a workout aggregate to its DTO.
func MapWorkoutToResponse(workout *domain.Workout) WorkoutResponse {
	if workout == nil {
		return WorkoutResponse{}
	}
	exercises := make([]WorkoutExerciseResponse, len(workout.Exercises))
	for i := range workout.Exercises {
		exercises[i] = MapWorkoutExerciseToResponse(&workout.Exercises[i])
	}
	resp := WorkoutResponse{
		ID:          workout.ID.Hex(),
		Name:        workout.Name,
		StartedAt:   workout.StartedAt,
		CompletedAt: workout.CompletedAt,
		Active:      workout.Active,
		Notes:       workout.Notes,
		Exercises:   exercises,
	}
	if workout.TemplateID != nil {
		templateIDHex := workout.TemplateID.Hex()
		resp.TemplateID = &templateIDHex
	}
	return resp
}

// MapWorkoutsToResponse converts a slice of workouts to DTOs.
func MapWorkoutsToResponse(workouts []domain.Workout) []WorkoutResponse {
	responses := make([]WorkoutResponse, len(workouts))
	for i := range workouts {
		responses[i] = MapWorkoutToResponse(&workouts[i])
	}
	return responses
}
